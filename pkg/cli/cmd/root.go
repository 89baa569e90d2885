// Package cmd depman 命令行
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/LENAX/depman/pkg/config"
	"github.com/LENAX/depman/pkg/core/engine"
)

var (
	// 全局变量
	configPath string
	graphFile  string
	outputJSON bool
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "depman",
	Short: "depman - 增量依赖图构建工具",
	Long: `depman 按依赖图增量更新节点：只重新执行自身或父节点发生变化的节点，
节点哈希持久化在存储中（默认工作目录下的 .depman）。

使用示例：
  # 更新整个图
  depman build

  # 只更新 app 及其祖先
  depman build app

  # 预演，不执行任何动作
  depman plan app

  # 查看节点存储的哈希
  depman show lib

  # 启动HTTP服务
  depman serve --port 8080`,
	SilenceUsage: true,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFile, "配置文件路径")
	rootCmd.PersistentFlags().StringVarP(&graphFile, "file", "f", "", "图文件路径（覆盖配置中的 graph.file）")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "使用JSON格式输出")

	// 添加子命令
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// newEngine 按全局参数构建引擎
func newEngine() (*engine.Engine, error) {
	return engine.NewEngineBuilder(configPath).
		WithGraphFile(graphFile).
		Build()
}
