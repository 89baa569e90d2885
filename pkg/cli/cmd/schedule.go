package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LENAX/depman/pkg/cli/output"
	"github.com/LENAX/depman/pkg/core/engine"
)

var scheduleCron string

// scheduleCmd 按Cron表达式定时更新
var scheduleCmd = &cobra.Command{
	Use:   "schedule [targets...]",
	Short: "按Cron表达式定时增量更新",
	Long: `按 schedule.cron（或 --cron）定时更新目标节点，上一次更新未结束时跳过本次触发。

示例：
  # 每10分钟更新 app
  depman schedule app --cron "0 */10 * * * *"

  # 使用配置文件中的 schedule 段
  depman schedule --config depman.config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			output.Error("创建引擎失败: %v", err)
			return err
		}
		defer eng.Close()

		scheduler, err := startScheduler(eng, scheduleCron, args)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if scheduler == nil {
			err := fmt.Errorf("未配置Cron表达式，请使用 --cron 或 schedule.cron 指定")
			output.Error("%v", err)
			return err
		}

		output.Success("定时更新已启动，按 Ctrl+C 退出")
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		output.Info("正在停止调度器...")
		scheduler.Stop()
		return nil
	},
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "Cron表达式（覆盖配置中的 schedule.cron）")
}

// startScheduler 注册并启动定时更新；表达式为空时返回 (nil, nil)
// cronExpr、targets 为空时使用配置中的值
func startScheduler(eng *engine.Engine, cronExpr string, targets []string) (*engine.CronScheduler, error) {
	cfg := eng.Config()
	if cronExpr == "" {
		cronExpr = cfg.Depman.Schedule.Cron
	}
	if len(targets) == 0 {
		targets = cfg.Depman.Schedule.Targets
	}
	if cronExpr == "" {
		return nil, nil
	}

	scheduler := engine.NewCronScheduler(eng)
	scheduler.OnResult(func(s *engine.Schedule, result *engine.RunResult, err error) {
		if err != nil {
			output.Error("定时更新 %s 失败: %v", s.Name, err)
			return
		}
		output.Success("定时更新 %s 完成: 执行 %d 个节点，耗时 %dms", s.Name, len(result.Dispatched), result.Duration)
	})
	if err := scheduler.Register(engine.Schedule{Name: "default", CronExpr: cronExpr, Targets: targets}); err != nil {
		return nil, fmt.Errorf("注册定时更新失败: %w", err)
	}
	scheduler.Start()
	return scheduler, nil
}
