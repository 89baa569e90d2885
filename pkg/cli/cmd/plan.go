package cmd

import (
	"github.com/spf13/cobra"

	"github.com/LENAX/depman/pkg/cli/output"
)

// planCmd 预演更新
var planCmd = &cobra.Command{
	Use:   "plan [targets...]",
	Short: "预演更新，列出可能重新执行的节点",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			output.Error("创建引擎失败: %v", err)
			return err
		}
		defer eng.Close()

		plan, err := eng.PlanIDs(cmd.Context(), args...)
		if err != nil {
			output.Error("预演失败: %v", err)
			return err
		}
		if outputJSON {
			return output.PrintJSON(plan)
		}
		renderPlan(output.Stdout, plan)
		return nil
	},
}
