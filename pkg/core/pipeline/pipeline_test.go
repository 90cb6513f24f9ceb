package pipeline

import (
	"testing"
	"time"
)

func TestNewPipeline(t *testing.T) {
	p := NewPipeline("数据同步", "每日数据同步流水线")

	if p.ID == "" {
		t.Error("Pipeline ID不应为空")
	}
	if p.Name != "数据同步" {
		t.Errorf("Pipeline名称错误: %s", p.Name)
	}
	if p.Status != StatusEnabled {
		t.Errorf("默认状态应为ENABLED, 实际: %s", p.Status)
	}
	if p.Jobs == nil || p.Dependencies == nil {
		t.Error("Jobs和Dependencies应当已初始化")
	}
}

func TestPipelineValidate(t *testing.T) {
	p := NewPipeline("demo", "")
	p.Jobs["a"] = &Job{ID: "a", Name: "提取", FuncName: "builtin.print"}
	p.Jobs["b"] = &Job{ID: "b", Name: "加载", FuncName: "builtin.print"}
	p.Dependencies["b"] = []string{"a"}

	if err := p.Validate(); err != nil {
		t.Errorf("合法Pipeline校验失败: %v", err)
	}
}

func TestPipelineValidateErrors(t *testing.T) {
	// 空名称
	p := NewPipeline("", "")
	if err := p.Validate(); err == nil {
		t.Error("空名称应当校验失败")
	}

	// 没有Job
	p = NewPipeline("empty", "")
	if err := p.Validate(); err == nil {
		t.Error("没有Job应当校验失败")
	}

	// 缺少函数名称
	p = NewPipeline("no-func", "")
	p.Jobs["a"] = &Job{ID: "a", Name: "a"}
	if err := p.Validate(); err == nil {
		t.Error("缺少函数名称应当校验失败")
	}

	// 依赖未定义的Job
	p = NewPipeline("bad-dep", "")
	p.Jobs["a"] = &Job{ID: "a", Name: "a", FuncName: "builtin.print"}
	p.Dependencies["a"] = []string{"ghost"}
	if err := p.Validate(); err == nil {
		t.Error("依赖未定义的Job应当校验失败")
	}

	// 循环依赖
	p = NewPipeline("cyclic", "")
	p.Jobs["a"] = &Job{ID: "a", Name: "a", FuncName: "builtin.print"}
	p.Jobs["b"] = &Job{ID: "b", Name: "b", FuncName: "builtin.print"}
	p.Dependencies["a"] = []string{"b"}
	p.Dependencies["b"] = []string{"a"}
	if err := p.Validate(); err == nil {
		t.Error("循环依赖应当校验失败")
	}
}

func TestDependencyTable(t *testing.T) {
	p := NewPipeline("demo", "")
	p.Jobs["a"] = &Job{ID: "a", FuncName: "builtin.print"}
	p.Jobs["b"] = &Job{ID: "b", FuncName: "builtin.print"}
	p.Dependencies["b"] = []string{"a"}

	table := p.DependencyTable()
	if len(table) != 2 {
		t.Fatalf("依赖表条目数量错误，期望: 2, 实际: %d", len(table))
	}
	if _, ok := table["a"]; !ok {
		t.Error("没有依赖的Job也应当出现在依赖表中")
	}
	if len(table["b"]) != 1 || table["b"][0] != "a" {
		t.Errorf("b的依赖错误: %v", table["b"])
	}
}

func TestBuilder(t *testing.T) {
	p, err := NewBuilder("构建测试", "builder链式构建").
		WithCron("0 0 3 * * *").
		AddJobWithID("extract", "提取", "builtin.print", map[string]any{"message": "提取数据"}).
		AddJobWithID("load", "加载", "builtin.print", nil).
		WithJobTimeout("load", 30*time.Second).
		DependsOn("load", "extract").
		Build()
	if err != nil {
		t.Fatalf("构建Pipeline失败: %v", err)
	}

	if p.CronExpr != "0 0 3 * * *" {
		t.Errorf("cron表达式错误: %s", p.CronExpr)
	}
	if len(p.Jobs) != 2 {
		t.Errorf("Job数量错误: %d", len(p.Jobs))
	}
	if p.Jobs["load"].Timeout != 30*time.Second {
		t.Errorf("Job超时设置错误: %v", p.Jobs["load"].Timeout)
	}
	if deps := p.Dependencies["load"]; len(deps) != 1 || deps[0] != "extract" {
		t.Errorf("依赖声明错误: %v", deps)
	}
}

func TestBuilderInvalid(t *testing.T) {
	_, err := NewBuilder("坏构建", "").
		AddJobWithID("a", "a", "builtin.print", nil).
		AddJobWithID("b", "b", "builtin.print", nil).
		DependsOn("a", "b").
		DependsOn("b", "a").
		Build()
	if err == nil {
		t.Error("循环依赖的构建应当失败")
	}
}

func TestRunLifecycle(t *testing.T) {
	p := NewPipeline("demo", "")
	p.Jobs["a"] = &Job{ID: "a", FuncName: "builtin.print"}

	r := NewRun(p)
	if r.ID == "" || r.PipelineID != p.ID {
		t.Error("Run初始化错误")
	}
	if r.Status != RunStatusPending {
		t.Errorf("初始状态应为PENDING, 实际: %s", r.Status)
	}
	if r.JobStates["a"] != JobStatusPending {
		t.Errorf("Job初始状态应为PENDING, 实际: %s", r.JobStates["a"])
	}
	if r.IsTerminal() {
		t.Error("未结束的Run不应是终态")
	}

	r.Finish(RunStatusSuccess, "")
	if !r.IsTerminal() || r.EndTime == nil {
		t.Error("结束后应当是终态且有结束时间")
	}
}
