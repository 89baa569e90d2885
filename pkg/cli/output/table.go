package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Table 简单表格输出
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable 创建表格
func NewTable(headers []string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		widths:  widths,
	}
}

// AddRow 添加行
func (t *Table) AddRow(row []string) {
	// 更新列宽
	for i, cell := range row {
		if i < len(t.widths) && len(cell) > t.widths[i] {
			t.widths[i] = len(cell)
		}
	}
	t.rows = append(t.rows, row)
}

// Len 数据行数
func (t *Table) Len() int {
	return len(t.rows)
}

// Render 渲染表格到标准输出
func (t *Table) Render() {
	t.RenderTo(Stdout)
}

// RenderTo 渲染表格到w，列之间用两个空格分隔，行尾不留空白
func (t *Table) RenderTo(w io.Writer) {
	// 打印表头
	headerColor := color.New(color.FgCyan, color.Bold)
	var header strings.Builder
	for i, h := range t.headers {
		header.WriteString(t.pad(i, h))
	}
	headerColor.Fprintln(w, strings.TrimRight(header.String(), " "))

	// 打印分隔线
	seps := make([]string, len(t.headers))
	for i := range t.headers {
		seps[i] = strings.Repeat("-", t.widths[i])
	}
	fmt.Fprintln(w, strings.Join(seps, "  "))

	// 打印数据行
	for _, row := range t.rows {
		var line strings.Builder
		for i, cell := range row {
			if i < len(t.widths) {
				line.WriteString(t.pad(i, cell))
			}
		}
		fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
	}
}

func (t *Table) pad(i int, cell string) string {
	return fmt.Sprintf("%-*s  ", t.widths[i], cell)
}
