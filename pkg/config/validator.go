package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validDBTypes = map[string]bool{
	"sqlite":     true,
	"postgres":   true,
	"postgresql": true,
	"mysql":      true,
	"memory":     true,
}

var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate 校验配置合法性
func (c *EngineConfig) Validate() error {
	d := &c.Depman

	if d.General.LogLevel != "" && !validLogLevels[d.General.LogLevel] {
		return fmt.Errorf("log_level必须是debug/info/warn/error之一")
	}

	// 校验Storage.Database
	if !validDBTypes[d.Storage.Database.Type] {
		return fmt.Errorf("database.type必须是sqlite/postgres/mysql/memory之一")
	}
	switch d.Storage.Database.Type {
	case "mysql", "postgres", "postgresql":
		if d.Storage.Database.DSN == "" {
			return fmt.Errorf("database.dsn不能为空")
		}
	}
	if d.Storage.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns不能为负数")
	}

	// 校验Execution
	if d.Execution.WorkerConcurrency < 0 {
		return fmt.Errorf("execution.worker_concurrency不能为负数")
	}
	if d.Execution.ActionTimeout < 0 {
		return fmt.Errorf("execution.action_timeout不能为负数")
	}
	if d.Execution.PollInterval < 0 {
		return fmt.Errorf("execution.poll_interval不能为负数")
	}

	if d.Server.Port < 0 || d.Server.Port > 65535 {
		return fmt.Errorf("server.port超出范围")
	}

	if d.Schedule.Cron != "" {
		if _, err := cronParser.Parse(d.Schedule.Cron); err != nil {
			return fmt.Errorf("schedule.cron无效: %w", err)
		}
	}
	if email := d.Notify.Email; email.Enabled {
		if email.SMTPHost == "" || email.From == "" || len(email.To) == 0 {
			return fmt.Errorf("notify.email需要smtp_host、from和to")
		}
	}
	return nil
}
