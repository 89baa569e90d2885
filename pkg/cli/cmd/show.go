package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LENAX/depman/pkg/cli/output"
	"github.com/LENAX/depman/pkg/core/node"
)

// showCmd 查看节点存储的记录
var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "查看节点存储的哈希和父节点快照",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			output.Error("创建引擎失败: %v", err)
			return err
		}
		defer eng.Close()

		n, ok := eng.Graph().Node(args[0])
		if !ok {
			err := fmt.Errorf("节点 %s 不存在", args[0])
			output.Error("%v", err)
			return err
		}

		ctx := cmd.Context()
		record, err := n.Record(ctx)
		if err != nil {
			output.Error("读取记录失败: %v", err)
			return err
		}
		current, parents, err := n.Snapshot()
		if err != nil {
			output.Error("计算哈希失败: %v", err)
			return err
		}
		// 按父节点当前哈希分类，不要求父节点在本进程中已更新
		state := node.Classify(record, current, parents)

		if outputJSON {
			return output.PrintJSON(map[string]interface{}{
				"node_id": n.ID(),
				"action":  n.Action(),
				"parents": n.ParentIDs(),
				"current": current,
				"state":   state,
				"record":  record,
			})
		}
		renderRecord(output.Stdout, n, record, current, state)
		return nil
	},
}
