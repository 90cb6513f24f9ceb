package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version 由构建时注入
var Version = "dev"

var (
	serverURL  string
	outputJSON bool
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "dag-scheduler",
	Short: "依赖图流水线调度器",
	Long: `dag-scheduler 是一个按依赖图调度流水线的命令行工具。

通过HTTP API管理和触发服务端的流水线，也可以本地直接执行一份流水线定义文件。`,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "服务端地址")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "以JSON格式输出")

	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}
