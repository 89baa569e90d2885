package output

import (
	"encoding/json"
	"io"

	"github.com/fatih/color"
)

// Stdout 命令输出目标，测试中可替换
var Stdout io.Writer = color.Output

// Stderr 错误输出目标
var Stderr io.Writer = color.Error

// PrintJSON 输出JSON格式
func PrintJSON(data interface{}) error {
	return WriteJSON(Stdout, data)
}

// WriteJSON 以缩进JSON写入w
func WriteJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// PrintJSONString 输出JSON字符串
func PrintJSONString(data interface{}) (string, error) {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Success 输出成功消息
func Success(format string, args ...interface{}) {
	green := color.New(color.FgGreen, color.Bold)
	green.Fprintf(Stdout, "✅ "+format+"\n", args...)
}

// Error 输出错误消息
func Error(format string, args ...interface{}) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprintf(Stderr, "❌ "+format+"\n", args...)
}

// Info 输出信息
func Info(format string, args ...interface{}) {
	cyan := color.New(color.FgCyan)
	cyan.Fprintf(Stdout, "ℹ️  "+format+"\n", args...)
}

// Warning 输出警告
func Warning(format string, args ...interface{}) {
	yellow := color.New(color.FgYellow)
	yellow.Fprintf(Stdout, "⚠️  "+format+"\n", args...)
}
