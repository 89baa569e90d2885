package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "depman.config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
depman:
  general:
    log_level: "debug"
    env: "test"
  storage:
    database:
      type: "mysql"
      dsn: "user:pass@tcp(localhost:3306)/depman"
      max_open_conns: 5
  execution:
    worker_concurrency: 3
    action_timeout: "90s"
    poll_interval: "250ms"
  server:
    port: 9090
  schedule:
    cron: "0 */10 * * * *"
    targets: ["app"]
  graph:
    file: "build.hcl"
  notify:
    email:
      enabled: true
      smtp_host: "smtp.example.com"
      smtp_port: 587
      from: "depman@example.com"
      to: ["dev@example.com", "ops@example.com"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.GetDatabaseType())
	assert.Equal(t, "user:pass@tcp(localhost:3306)/depman", cfg.GetDatabaseDSN())
	assert.Equal(t, 5, cfg.Depman.Storage.Database.MaxOpenConns)
	assert.Equal(t, 3, cfg.GetWorkerConcurrency())
	assert.Equal(t, 90*time.Second, cfg.Depman.Execution.ActionTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.GetPollInterval())
	assert.Equal(t, 9090, cfg.Depman.Server.Port)
	assert.Equal(t, DefaultHost, cfg.Depman.Server.Host)
	assert.Equal(t, []string{"app"}, cfg.Depman.Schedule.Targets)
	assert.Equal(t, "build.hcl", cfg.Depman.Graph.File)
	assert.True(t, cfg.IsVerbose())

	email := cfg.Depman.Notify.Email
	assert.Equal(t, []string{"run.failed"}, email.Events)
	assert.Equal(t, map[string]string{
		"smtp_host": "smtp.example.com",
		"smtp_port": "587",
		"username":  "",
		"password":  "",
		"from":      "depman@example.com",
		"to":        "dev@example.com,ops@example.com",
	}, email.Params())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultStorageType, cfg.GetDatabaseType())
	assert.Equal(t, DefaultDSN, cfg.GetDatabaseDSN())
	assert.Equal(t, runtime.NumCPU(), cfg.GetWorkerConcurrency())
	assert.Equal(t, DefaultPollInterval, cfg.GetPollInterval())
	assert.Equal(t, DefaultGraphFile, cfg.Depman.Graph.File)
	assert.False(t, cfg.IsVerbose())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"未知存储类型":     "depman:\n  storage:\n    database:\n      type: oracle\n",
		"mysql缺少dsn": "depman:\n  storage:\n    database:\n      type: mysql\n",
		"负数超时":       "depman:\n  execution:\n    action_timeout: -1s\n",
		"非法日志级别":     "depman:\n  general:\n    log_level: loud\n",
		"非法cron":     "depman:\n  schedule:\n    cron: \"every day\"\n",
		"非法YAML":     "depman: [\n",
		"邮件缺少收件人":    "depman:\n  notify:\n    email:\n      enabled: true\n      smtp_host: h\n      from: f\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}
