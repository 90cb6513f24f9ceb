package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LENAX/dag-scheduler/pkg/api"
	"github.com/LENAX/dag-scheduler/pkg/config"
	"github.com/LENAX/dag-scheduler/pkg/core/engine"
)

var version = "dev"

// 服务端入口：加载配置、启动引擎和HTTP API
func main() {
	configPath := flag.String("config", "./configs/engine.yaml", "配置文件路径")
	pipelinesPath := flag.String("pipelines", "", "流水线定义文件路径")
	flag.Parse()

	// 1. 加载配置（文件缺失时使用默认配置）
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("加载配置失败:", err)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		log.Fatal("配置校验失败:", err)
	}

	refillInterval, _ := cfg.ParseRefillInterval()
	defaultTimeout, _ := cfg.ParseDefaultTimeout()

	// 2. 创建并启动引擎
	eng := engine.New(engine.Options{
		MaxTokens:      cfg.Engine.MaxTokens,
		RefillInterval: refillInterval,
		Workers:        cfg.Engine.Workers,
		DefaultTimeout: defaultTimeout,
	})
	if err := eng.Start(); err != nil {
		log.Fatal("启动引擎失败:", err)
	}

	// 3. 加载流水线定义
	if *pipelinesPath != "" {
		if err := eng.LoadPipelineConfig(*pipelinesPath); err != nil {
			log.Fatal("加载流水线定义失败:", err)
		}
	}

	// 4. 启动API服务器
	serverConfig := api.DefaultServerConfig()
	if cfg.HTTPPort > 0 {
		serverConfig.Port = cfg.HTTPPort
	}
	apiServer := api.NewAPIServer(eng, serverConfig, version)

	go func() {
		if err := apiServer.Start(); err != nil {
			log.Printf("API服务器错误: %v", err)
		}
	}()

	log.Printf("🎉 DAG Scheduler 服务端启动完成，监听 %s", apiServer.Addr())

	// 5. 等待中断信号后优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("关闭API服务器失败: %v", err)
	}
	if err := eng.Stop(shutdownCtx); err != nil {
		log.Printf("停止引擎失败: %v", err)
	}
	log.Println("✅ 服务已退出")
}
