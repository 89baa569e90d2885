package action

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
)

// 传递给外部命令的环境变量
const (
	NodeEnvVar = "DEPMAN_NODE"   // 当前节点ID
	RunEnvVar  = "DEPMAN_RUN_ID" // 当前更新运行ID
)

// maxOutputTail 失败时错误信息中保留的输出长度
const maxOutputTail = 512

// Command 返回执行外部程序的动作（对外导出）
// argv[0] 为程序路径，其余为参数；环境变量 DEPMAN_NODE 为当前节点ID，DEPMAN_RUN_ID 为运行ID
func Command(dir string, argv ...string) Func {
	args := append([]string(nil), argv...)
	return func(ctx context.Context, nodeID string) error {
		if len(args) == 0 {
			return fmt.Errorf("节点 %s 的命令为空", nodeID)
		}
		cmd := exec.CommandContext(ctx, args[0], args[1:]...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), NodeEnvVar+"="+nodeID, RunEnvVar+"="+RunIDFrom(ctx))

		output, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("命令 %q 执行失败: %w: %s", strings.Join(args, " "), err, tail(output))
		}
		if len(output) > 0 {
			log.Printf("Node %s: %s", nodeID, strings.TrimRight(string(output), "\n"))
		}
		return nil
	}
}

// Shell 返回通过 sh -c 执行脚本的动作（对外导出）
func Shell(dir, script string) Func {
	return Command(dir, "sh", "-c", script)
}

func tail(output []byte) string {
	s := strings.TrimSpace(string(output))
	if len(s) > maxOutputTail {
		return "..." + s[len(s)-maxOutputTail:]
	}
	return s
}
