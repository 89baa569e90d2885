package config

import (
	"runtime"
	"strconv"
	"strings"
	"time"
)

// 默认值
const (
	DefaultStorageType  = "sqlite"
	DefaultDSN          = ".depman"
	DefaultGraphFile    = "depman.yaml"
	DefaultPollInterval = time.Second
	DefaultHost         = "127.0.0.1"
	DefaultPort         = 8080
)

// EngineConfig 引擎配置（对外导出）
type EngineConfig struct {
	Depman struct {
		General struct {
			LogLevel string `yaml:"log_level"`
			Env      string `yaml:"env"`
		} `yaml:"general"`
		Storage struct {
			Database struct {
				Type            string        `yaml:"type"`
				DSN             string        `yaml:"dsn"`
				MaxOpenConns    int           `yaml:"max_open_conns"`
				MaxIdleConns    int           `yaml:"max_idle_conns"`
				ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
			} `yaml:"database"`
		} `yaml:"storage"`
		Execution struct {
			WorkerConcurrency int           `yaml:"worker_concurrency"`
			ActionTimeout     time.Duration `yaml:"action_timeout"`
			PollInterval      time.Duration `yaml:"poll_interval"`
		} `yaml:"execution"`
		Server struct {
			Host string `yaml:"host"`
			Port int    `yaml:"port"`
		} `yaml:"server"`
		Schedule struct {
			Cron    string   `yaml:"cron"`
			Targets []string `yaml:"targets"`
		} `yaml:"schedule"`
		Graph struct {
			File string `yaml:"file"`
		} `yaml:"graph"`
		Notify struct {
			Email EmailConfig `yaml:"email"`
		} `yaml:"notify"`
	} `yaml:"depman"`
}

// EmailConfig 邮件通知配置
type EmailConfig struct {
	Enabled  bool     `yaml:"enabled"`
	SMTPHost string   `yaml:"smtp_host"`
	SMTPPort int      `yaml:"smtp_port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
	Events   []string `yaml:"events"` // 触发通知的事件类型，为空时只通知 run.failed
}

// Params 转换为插件初始化参数
func (e EmailConfig) Params() map[string]string {
	params := map[string]string{
		"smtp_host": e.SMTPHost,
		"username":  e.Username,
		"password":  e.Password,
		"from":      e.From,
		"to":        strings.Join(e.To, ","),
	}
	if e.SMTPPort > 0 {
		params["smtp_port"] = strconv.Itoa(e.SMTPPort)
	}
	return params
}

// GetDatabaseType 获取存储类型
func (c *EngineConfig) GetDatabaseType() string {
	return c.Depman.Storage.Database.Type
}

// GetDatabaseDSN 获取存储DSN
func (c *EngineConfig) GetDatabaseDSN() string {
	return c.Depman.Storage.Database.DSN
}

// GetWorkerConcurrency 获取Worker并发数
func (c *EngineConfig) GetWorkerConcurrency() int {
	concurrency := c.Depman.Execution.WorkerConcurrency
	if concurrency <= 0 {
		return runtime.NumCPU()
	}
	return concurrency
}

// GetPollInterval 获取协调循环的等待上限
func (c *EngineConfig) GetPollInterval() time.Duration {
	if c.Depman.Execution.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return c.Depman.Execution.PollInterval
}

// IsVerbose 是否输出逐节点调试日志
func (c *EngineConfig) IsVerbose() bool {
	return c.Depman.General.LogLevel == "debug"
}

// ApplyDefaults 应用默认值
func (c *EngineConfig) ApplyDefaults() {
	// General默认值
	if c.Depman.General.LogLevel == "" {
		c.Depman.General.LogLevel = "info"
	}
	if c.Depman.General.Env == "" {
		c.Depman.General.Env = "dev"
	}

	// Database默认值
	if c.Depman.Storage.Database.Type == "" {
		c.Depman.Storage.Database.Type = DefaultStorageType
	}
	if c.Depman.Storage.Database.DSN == "" && c.Depman.Storage.Database.Type == DefaultStorageType {
		c.Depman.Storage.Database.DSN = DefaultDSN
	}
	if c.Depman.Storage.Database.MaxOpenConns <= 0 {
		c.Depman.Storage.Database.MaxOpenConns = 10
	}
	if c.Depman.Storage.Database.MaxIdleConns <= 0 {
		c.Depman.Storage.Database.MaxIdleConns = 5
	}
	if c.Depman.Storage.Database.ConnMaxLifetime <= 0 {
		c.Depman.Storage.Database.ConnMaxLifetime = 2 * time.Hour
	}

	// Execution默认值
	if c.Depman.Execution.WorkerConcurrency <= 0 {
		c.Depman.Execution.WorkerConcurrency = runtime.NumCPU()
	}
	if c.Depman.Execution.PollInterval <= 0 {
		c.Depman.Execution.PollInterval = DefaultPollInterval
	}

	// Server默认值
	if c.Depman.Server.Host == "" {
		c.Depman.Server.Host = DefaultHost
	}
	if c.Depman.Server.Port <= 0 {
		c.Depman.Server.Port = DefaultPort
	}

	if c.Depman.Graph.File == "" {
		c.Depman.Graph.File = DefaultGraphFile
	}

	if c.Depman.Notify.Email.Enabled && len(c.Depman.Notify.Email.Events) == 0 {
		c.Depman.Notify.Email.Events = []string{"run.failed"}
	}
}
