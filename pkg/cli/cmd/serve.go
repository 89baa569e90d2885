package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/LENAX/depman/pkg/api"
	"github.com/LENAX/depman/pkg/cli/output"
)

var (
	serverPort int
	serverHost string
)

// serveCmd 启动HTTP API服务
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动HTTP API服务",
	Long: `启动 depman HTTP API 服务；配置了 schedule.cron 时同时启动定时更新。

示例：
  # 使用配置文件中的地址启动
  depman serve

  # 指定端口启动
  depman serve --port 9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			output.Error("创建引擎失败: %v", err)
			return err
		}
		defer eng.Close()

		cfg := eng.Config()
		serverCfg := api.DefaultServerConfig()
		serverCfg.Host = cfg.Depman.Server.Host
		serverCfg.Port = cfg.Depman.Server.Port
		if cmd.Flags().Changed("host") {
			serverCfg.Host = serverHost
		}
		if cmd.Flags().Changed("port") {
			serverCfg.Port = serverPort
		}

		scheduler, err := startScheduler(eng, "", nil)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		// 在goroutine中启动服务器
		apiServer := api.NewAPIServer(eng, serverCfg, Version)
		errCh := make(chan error, 1)
		go func() {
			errCh <- apiServer.Start()
		}()
		output.Success("depman server started on %s", apiServer.Addr())

		// 等待中断信号或服务器异常退出
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case err := <-errCh:
			if err != nil {
				output.Error("API服务器错误: %v", err)
				return err
			}
		}

		output.Info("正在关闭服务...")
		if scheduler != nil {
			scheduler.Stop()
		}

		// 优雅关闭
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("关闭API服务器失败: %v", err)
		}
		output.Success("服务已停止")
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "监听端口（覆盖配置中的 server.port）")
	serveCmd.Flags().StringVar(&serverHost, "host", "", "监听地址（覆盖配置中的 server.host）")
}
