package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LENAX/depman/pkg/cli/output"
)

// buildCmd 增量更新目标节点
var buildCmd = &cobra.Command{
	Use:   "build [targets...]",
	Short: "增量更新目标节点及其祖先",
	Long: `把目标节点及其全部祖先更新到最新，未指定目标时更新整个图。
只有自身或父节点发生变化的节点会执行动作；任一动作失败时不再提交新动作，
等待进行中的动作结束后返回错误。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			output.Error("创建引擎失败: %v", err)
			return err
		}
		defer eng.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := eng.UpdateIDs(ctx, args...)
		if result != nil {
			if outputJSON {
				if jsonErr := output.PrintJSON(result); jsonErr != nil {
					return jsonErr
				}
			} else {
				renderRun(output.Stdout, result)
			}
		}
		if err != nil {
			output.Error("更新失败: %v", err)
			return err
		}
		if !outputJSON {
			output.Success("全部节点已是最新")
		}
		return nil
	},
}
