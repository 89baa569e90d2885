// Package graphfile 从 YAML 或 HCL 文件声明依赖图
package graphfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NodeSpec 文件中的单个节点声明
type NodeSpec struct {
	ID      string   `yaml:"id"`
	Parents []string `yaml:"parents"`
	File    string   `yaml:"file"`    // 非空时按文件内容计算哈希
	Action  string   `yaml:"action"`  // 已注册的动作名称
	Shell   string   `yaml:"shell"`   // sh -c 执行的脚本
	Command []string `yaml:"command"` // 直接执行的程序及参数
	Dir     string   `yaml:"dir"`     // 命令工作目录
}

// Spec 依赖图声明
type Spec struct {
	Nodes   []NodeSpec `yaml:"nodes"`
	BaseDir string     `yaml:"-"` // 相对路径的基准目录
}

// IDs 按声明顺序返回节点ID
func (s *Spec) IDs() []string {
	ids := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Load 按扩展名加载图文件（.yaml/.yml/.hcl）
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取图文件失败: %w", err)
	}

	var spec *Spec
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		spec, err = ParseYAML(data)
	case ".hcl":
		spec, err = ParseHCL(data, path)
	default:
		return nil, fmt.Errorf("不支持的图文件格式: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("解析图文件 %s 失败: %w", path, err)
	}

	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	spec.BaseDir = abs
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("图文件 %s 无效: %w", path, err)
	}
	return spec, nil
}

// resolve 把相对路径解析到 BaseDir
func (s *Spec) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || s.BaseDir == "" {
		return path
	}
	return filepath.Join(s.BaseDir, path)
}
