package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/LENAX/dag-scheduler/pkg/api"
	"github.com/LENAX/dag-scheduler/pkg/cli/output"
	"github.com/LENAX/dag-scheduler/pkg/config"
	"github.com/LENAX/dag-scheduler/pkg/core/engine"
)

var (
	serverPort    int
	serverHost    string
	configPath    string
	pipelinesPath string
)

// serverCmd server子命令
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "服务管理命令",
	Long:  `管理DAG Scheduler HTTP API服务。`,
}

// serverStartCmd 启动服务
var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "启动HTTP API服务",
	Long: `启动DAG Scheduler HTTP API服务。

示例：
  # 使用默认配置启动
  dag-scheduler server start

  # 指定端口启动
  dag-scheduler server start --port 8080

  # 指定配置文件和流水线定义启动
  dag-scheduler server start --config ./configs/engine.yaml --pipelines ./configs/pipelines.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 配置文件缺失时Load会返回默认配置
		if configPath == "" {
			defaultPaths := []string{
				"./configs/engine.yaml",
				"./config/engine.yaml",
				"./engine.yaml",
			}
			for _, p := range defaultPaths {
				if _, err := os.Stat(p); err == nil {
					configPath = p
					break
				}
			}
		}
		if configPath != "" {
			output.Info("使用配置文件: %s", configPath)
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			output.Error("加载配置失败: %v", err)
			return err
		}
		if err := config.ValidateConfig(cfg); err != nil {
			output.Error("配置校验失败: %v", err)
			return err
		}

		refillInterval, _ := cfg.ParseRefillInterval()
		defaultTimeout, _ := cfg.ParseDefaultTimeout()

		// 创建并启动Engine
		eng := engine.New(engine.Options{
			MaxTokens:      cfg.Engine.MaxTokens,
			RefillInterval: refillInterval,
			Workers:        cfg.Engine.Workers,
			DefaultTimeout: defaultTimeout,
		})
		if err := eng.Start(); err != nil {
			output.Error("启动Engine失败: %v", err)
			return err
		}

		// 加载流水线定义
		if pipelinesPath != "" {
			if err := eng.LoadPipelineConfig(pipelinesPath); err != nil {
				output.Error("加载流水线定义失败: %v", err)
				return err
			}
			output.Info("已加载流水线定义: %s", pipelinesPath)
		}

		// 创建API服务器配置
		serverConfig := api.DefaultServerConfig()
		serverConfig.Host = serverHost
		serverConfig.Port = serverPort
		if serverPort == 0 && cfg.HTTPPort > 0 {
			serverConfig.Port = cfg.HTTPPort
		}

		// 创建并启动API服务器
		apiServer := api.NewAPIServer(eng, serverConfig, Version)

		// 在goroutine中启动服务器
		go func() {
			if err := apiServer.Start(); err != nil {
				log.Printf("API服务器错误: %v", err)
			}
		}()

		output.Success("DAG Scheduler Server started on %s:%d", serverConfig.Host, serverConfig.Port)

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		output.Info("正在关闭服务...")

		// 优雅关闭
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			output.Error("关闭API服务器失败: %v", err)
		}
		if err := eng.Stop(shutdownCtx); err != nil {
			output.Error("停止Engine失败: %v", err)
		}
		output.Success("服务已停止")

		return nil
	},
}

func init() {
	serverStartCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "监听端口")
	serverStartCmd.Flags().StringVarP(&serverHost, "host", "H", "0.0.0.0", "监听地址")
	serverStartCmd.Flags().StringVarP(&configPath, "config", "c", "", "配置文件路径")
	serverStartCmd.Flags().StringVar(&pipelinesPath, "pipelines", "", "流水线定义文件路径")

	serverCmd.AddCommand(serverStartCmd)
}
