package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile 默认配置文件
const DefaultConfigFile = "depman.config.yaml"

// Default 返回填充了默认值的配置
func Default() *EngineConfig {
	cfg := &EngineConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// Load 加载配置文件
// 文件不存在时返回默认配置；解析后应用默认值并校验
func Load(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg EngineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
