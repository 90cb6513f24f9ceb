package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/LENAX/dag-scheduler/pkg/cli/output"
	"github.com/LENAX/dag-scheduler/pkg/core/engine"
	"github.com/LENAX/dag-scheduler/pkg/core/pipeline"
)

var (
	execMaxTokens int
	execInterval  time.Duration
	execWorkers   int
	execTimeout   time.Duration
)

// execCmd 本地执行流水线定义文件，不依赖服务端
var execCmd = &cobra.Command{
	Use:   "exec <file>",
	Short: "本地执行流水线定义文件",
	Long: `在本地直接执行一份流水线定义文件，只能使用内置Job函数。

示例：
  # 执行定义文件里的所有流水线
  dag-scheduler exec ./configs/pipelines.yaml

  # 限制并发为2
  dag-scheduler exec ./configs/pipelines.yaml --max-tokens 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng := engine.New(engine.Options{
			MaxTokens:      execMaxTokens,
			RefillInterval: execInterval,
			Workers:        execWorkers,
			DefaultTimeout: execTimeout,
		})
		if err := eng.Start(); err != nil {
			output.Error("启动引擎失败: %v", err)
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := eng.Stop(stopCtx); err != nil {
				output.Warning("停止引擎失败: %v", err)
			}
		}()

		if err := eng.LoadPipelineConfig(args[0]); err != nil {
			output.Error("加载流水线定义失败: %v", err)
			return err
		}

		failed := 0
		for _, p := range eng.ListPipelines() {
			output.Info("执行流水线: %s", p.Name)
			run, err := eng.ExecuteAndWait(cmd.Context(), p.ID)
			if err != nil {
				output.Error("流水线 %s 执行出错: %v", p.Name, err)
				failed++
				continue
			}

			if run.Status == pipeline.RunStatusSuccess {
				output.Success("流水线 %s 执行成功", p.Name)
			} else {
				output.Error("流水线 %s 执行失败: %s", p.Name, run.ErrorMessage)
				for jobID, state := range run.JobStates {
					if state != pipeline.JobStatusSuccess {
						fmt.Printf("  - %s: %s\n", jobID, output.StatusColor(state))
					}
				}
				failed++
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d 条流水线执行失败", failed)
		}
		return nil
	},
}

func init() {
	execCmd.Flags().IntVar(&execMaxTokens, "max-tokens", 4, "并发准入令牌上限")
	execCmd.Flags().DurationVar(&execInterval, "refill-interval", 100*time.Millisecond, "令牌桶重置间隔")
	execCmd.Flags().IntVar(&execWorkers, "workers", 0, "worker数量，0为自适应")
	execCmd.Flags().DurationVar(&execTimeout, "timeout", 0, "单个Job默认超时，0为不限时")
}
