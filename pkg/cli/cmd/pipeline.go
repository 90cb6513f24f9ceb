package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LENAX/dag-scheduler/pkg/cli/client"
	"github.com/LENAX/dag-scheduler/pkg/cli/output"
)

// pipelineCmd pipeline子命令
var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Pipeline管理命令",
	Long:  `管理Pipeline，包括上传、列出、查看、删除和触发执行。`,
}

// pipelineListCmd 列出Pipeline
var pipelineListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有Pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli := client.New(serverURL)
		result, err := cli.ListPipelines()
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result.Items) == 0 {
			output.Info("暂无Pipeline")
			return nil
		}

		table := output.NewTable([]string{"ID", "NAME", "JOBS", "CRON", "STATUS", "CREATED"})
		for _, p := range result.Items {
			cronStr := "-"
			if p.CronExpr != "" {
				cronStr = p.CronExpr
			}
			table.AddRow([]string{
				p.ID,
				p.Name,
				fmt.Sprintf("%d", p.JobCount),
				cronStr,
				p.Status,
				p.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		table.Render()
		return nil
	},
}

// pipelineShowCmd 查看Pipeline详情
var pipelineShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "查看Pipeline详情",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli := client.New(serverURL)
		result, err := cli.GetPipeline(args[0])
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		fmt.Printf("Pipeline: %s\n", result.Name)
		fmt.Printf("ID:       %s\n", result.ID)
		fmt.Printf("描述:     %s\n", result.Description)
		fmt.Printf("状态:     %s\n", result.Status)
		if result.CronExpr != "" {
			fmt.Printf("定时:     %s\n", result.CronExpr)
		}
		fmt.Printf("任务数:   %d\n", result.JobCount)
		fmt.Println("\nJobs:")
		for _, j := range result.Jobs {
			deps := ""
			if d := result.Dependencies[j.ID]; len(d) > 0 {
				deps = fmt.Sprintf(" (依赖: %v)", d)
			}
			fmt.Printf("  - %s [%s]%s\n", j.ID, j.FuncName, deps)
		}
		return nil
	},
}

// pipelineUploadCmd 上传Pipeline
var pipelineUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "上传Pipeline定义文件",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			output.Error("读取文件失败: %v", err)
			return err
		}

		cli := client.New(serverURL)
		result, err := cli.UploadPipeline(string(content))
		if err != nil {
			output.Error("上传失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		for _, p := range result.Items {
			output.Success("Pipeline上传成功: %s (%s)", p.Name, p.ID)
		}
		return nil
	},
}

// pipelineDeleteCmd 删除Pipeline
var pipelineDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "删除Pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli := client.New(serverURL)
		if err := cli.DeletePipeline(args[0]); err != nil {
			output.Error("删除失败: %v", err)
			return err
		}

		output.Success("Pipeline已删除: %s", args[0])
		return nil
	},
}

// pipelineExecuteCmd 触发Pipeline执行
var pipelineExecuteCmd = &cobra.Command{
	Use:   "execute <id>",
	Short: "触发Pipeline执行",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli := client.New(serverURL)
		result, err := cli.ExecutePipeline(args[0])
		if err != nil {
			output.Error("执行失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		output.Success("Pipeline已提交执行")
		fmt.Printf("Run ID: %s\n", result.RunID)
		return nil
	},
}

// pipelineFuncsCmd 列出已注册函数
var pipelineFuncsCmd = &cobra.Command{
	Use:   "functions",
	Short: "列出已注册的Job函数",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli := client.New(serverURL)
		result, err := cli.ListFunctions()
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		table := output.NewTable([]string{"NAME", "DESCRIPTION"})
		for _, f := range result.Items {
			table.AddRow([]string{f.Name, f.Description})
		}
		table.Render()
		return nil
	},
}

func init() {
	pipelineCmd.AddCommand(pipelineListCmd)
	pipelineCmd.AddCommand(pipelineShowCmd)
	pipelineCmd.AddCommand(pipelineUploadCmd)
	pipelineCmd.AddCommand(pipelineDeleteCmd)
	pipelineCmd.AddCommand(pipelineExecuteCmd)
	pipelineCmd.AddCommand(pipelineFuncsCmd)
}
