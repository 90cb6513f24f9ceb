package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LENAX/dag-scheduler/pkg/cli/client"
	"github.com/LENAX/dag-scheduler/pkg/cli/output"
)

var (
	runPipelineID string
	runStatus     string
	runLimit      int
	runOffset     int
)

// runCmd run子命令
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "运行实例管理命令",
	Long:  `查询和取消流水线的运行实例。`,
}

// runListCmd 列出运行实例
var runListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出运行实例",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli := client.New(serverURL)
		result, err := cli.ListRuns(runPipelineID, runStatus, runLimit, runOffset)
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result.Items) == 0 {
			output.Info("暂无运行实例")
			return nil
		}

		table := output.NewTable([]string{"RUN ID", "PIPELINE", "STATUS", "STARTED", "DURATION"})
		for _, r := range result.Items {
			duration := "-"
			if r.Duration != "" {
				duration = r.Duration
			}
			table.AddRow([]string{
				r.ID,
				r.PipelineName,
				output.StatusColor(r.Status),
				r.StartedAt.Format("2006-01-02 15:04:05"),
				duration,
			})
		}
		table.Render()
		return nil
	},
}

// runShowCmd 查看运行实例详情
var runShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "查看运行实例详情",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli := client.New(serverURL)
		result, err := cli.GetRun(args[0])
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		fmt.Printf("Run:      %s\n", result.ID)
		fmt.Printf("Pipeline: %s (%s)\n", result.PipelineName, result.PipelineID)
		fmt.Printf("状态:     %s\n", output.StatusColor(result.Status))
		fmt.Printf("开始时间: %s\n", result.StartedAt.Format("2006-01-02 15:04:05"))
		if result.FinishedAt != nil {
			fmt.Printf("结束时间: %s\n", result.FinishedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("耗时:     %s\n", result.Duration)
		}
		if result.ErrorMessage != "" {
			fmt.Printf("错误:     %s\n", result.ErrorMessage)
		}
		fmt.Println("\nJobs:")
		for jobID, state := range result.JobStates {
			fmt.Printf("  - %s: %s\n", jobID, output.StatusColor(state))
		}
		return nil
	},
}

// runCancelCmd 取消运行
var runCancelCmd = &cobra.Command{
	Use:   "cancel <run-id>",
	Short: "取消进行中的运行",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli := client.New(serverURL)
		if err := cli.CancelRun(args[0]); err != nil {
			output.Error("取消失败: %v", err)
			return err
		}

		output.Success("已发出取消请求: %s", args[0])
		return nil
	},
}

func init() {
	runListCmd.Flags().StringVar(&runPipelineID, "pipeline", "", "按Pipeline过滤")
	runListCmd.Flags().StringVar(&runStatus, "status", "", "按状态过滤")
	runListCmd.Flags().IntVar(&runLimit, "limit", 20, "返回数量")
	runListCmd.Flags().IntVar(&runOffset, "offset", 0, "跳过数量")

	runCmd.AddCommand(runListCmd)
	runCmd.AddCommand(runShowCmd)
	runCmd.AddCommand(runCancelCmd)
}
