package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// 创建临时配置文件
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "engine.yaml")
	configContent := `
mode: "prod"
http_port: 9090
engine:
  max_tokens: 8
  refill_interval: "200ms"
  workers: 4
  default_timeout: "60s"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("创建测试配置文件失败: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if cfg.Mode != "prod" {
		t.Errorf("期望mode为prod，实际为%s", cfg.Mode)
	}
	if cfg.HTTPPort != 9090 {
		t.Errorf("期望http_port为9090，实际为%d", cfg.HTTPPort)
	}
	if cfg.Engine.MaxTokens != 8 {
		t.Errorf("期望max_tokens为8，实际为%d", cfg.Engine.MaxTokens)
	}
	if cfg.Engine.Workers != 4 {
		t.Errorf("期望workers为4，实际为%d", cfg.Engine.Workers)
	}

	interval, err := cfg.ParseRefillInterval()
	if err != nil || interval != 200*time.Millisecond {
		t.Errorf("解析refill_interval错误: %v, %v", interval, err)
	}
	timeout, err := cfg.ParseDefaultTimeout()
	if err != nil || timeout != 60*time.Second {
		t.Errorf("解析default_timeout错误: %v, %v", timeout, err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	// 文件不存在时返回默认配置
	cfg, err := Load("/nonexistent/engine.yaml")
	if err != nil {
		t.Fatalf("缺失配置文件不应返回错误: %v", err)
	}
	if cfg.Mode != "dev" {
		t.Errorf("默认mode应为dev，实际为%s", cfg.Mode)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("默认http_port应为8080，实际为%d", cfg.HTTPPort)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(configPath, []byte("mode: [broken"), 0644); err != nil {
		t.Fatalf("创建测试配置文件失败: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("非法YAML应当返回错误")
	}
}

func TestLoadPipelineConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pipelines.yaml")
	configContent := `
pipelines:
  jobs:
    - job_id: "extract"
      func_key: "builtin.print"
      description: "提取数据"
      timeout: 30s
    - job_id: "load"
      func_key: "builtin.print"
  definitions:
    - pipeline_id: "daily-sync"
      description: "每日同步"
      cron: "0 0 3 * * *"
      tasks:
        - task_id: "t1"
          job_id: "extract"
          params:
            message: "开始提取"
        - task_id: "t2"
          job_id: "load"
          dependencies: ["t1"]
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("创建测试配置文件失败: %v", err)
	}

	cfg, err := LoadPipelineConfig(configPath)
	if err != nil {
		t.Fatalf("加载流水线配置失败: %v", err)
	}

	if len(cfg.Pipelines.Jobs) != 2 {
		t.Fatalf("期望2个job定义，实际为%d", len(cfg.Pipelines.Jobs))
	}
	if cfg.Pipelines.Jobs[0].Timeout != 30*time.Second {
		t.Errorf("期望timeout为30s，实际为%v", cfg.Pipelines.Jobs[0].Timeout)
	}
	if len(cfg.Pipelines.Definitions) != 1 {
		t.Fatalf("期望1条流水线定义，实际为%d", len(cfg.Pipelines.Definitions))
	}

	def := cfg.Pipelines.Definitions[0]
	if def.PipelineID != "daily-sync" || def.Cron != "0 0 3 * * *" {
		t.Errorf("流水线定义解析错误: %+v", def)
	}
	if len(def.Tasks) != 2 || def.Tasks[1].Dependencies[0] != "t1" {
		t.Errorf("任务依赖解析错误: %+v", def.Tasks)
	}
}

func TestLoadPipelineConfigMissingFile(t *testing.T) {
	// 流水线定义文件缺失是错误，与引擎配置不同
	if _, err := LoadPipelineConfig("/nonexistent/pipelines.yaml"); err == nil {
		t.Error("缺失流水线配置文件应当返回错误")
	}
}

func TestToPipelines(t *testing.T) {
	cfg := &PipelineConfig{}
	cfg.Pipelines.Jobs = []JobDefinition{
		{JobID: "extract", FuncKey: "builtin.print", Timeout: 30 * time.Second},
		{JobID: "load", FuncKey: "builtin.print"},
	}
	cfg.Pipelines.Definitions = []PipelineDefinition{
		{
			PipelineID: "daily-sync",
			Cron:       "0 0 3 * * *",
			Tasks: []TaskDefinition{
				{TaskID: "t1", JobID: "extract", Params: map[string]any{"message": "开始"}},
				{TaskID: "t2", JobID: "load", Dependencies: []string{"t1"}},
			},
		},
	}

	pipelines, err := cfg.ToPipelines()
	if err != nil {
		t.Fatalf("转换流水线失败: %v", err)
	}
	if len(pipelines) != 1 {
		t.Fatalf("期望1条流水线，实际为%d", len(pipelines))
	}

	p := pipelines[0]
	if p.Name != "daily-sync" || p.CronExpr != "0 0 3 * * *" {
		t.Errorf("流水线基本信息错误: %+v", p)
	}
	if len(p.Jobs) != 2 {
		t.Fatalf("期望2个Job，实际为%d", len(p.Jobs))
	}
	if p.Jobs["t1"].FuncName != "builtin.print" {
		t.Errorf("Job函数名错误: %s", p.Jobs["t1"].FuncName)
	}
	if p.Jobs["t1"].Timeout != 30*time.Second {
		t.Errorf("Job超时应当来自job定义，实际为%v", p.Jobs["t1"].Timeout)
	}
	if deps := p.Dependencies["t2"]; len(deps) != 1 || deps[0] != "t1" {
		t.Errorf("依赖转换错误: %v", deps)
	}
}
