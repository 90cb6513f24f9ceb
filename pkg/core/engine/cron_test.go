package engine

import (
	"testing"

	"github.com/LENAX/dag-scheduler/pkg/core/pipeline"
)

func TestCronSchedulerRegister(t *testing.T) {
	e := newTestEngine(t)

	p, err := pipeline.NewBuilder("定时流水线", "").
		WithCron("0 0 3 * * *").
		AddJobWithID("a", "a", "builtin.print", nil).
		Build()
	if err != nil {
		t.Fatalf("构建流水线失败: %v", err)
	}

	if err := e.AddPipeline(p); err != nil {
		t.Fatalf("添加定时流水线失败: %v", err)
	}
	if !e.cron.Registered(p.ID) {
		t.Error("带cron表达式的流水线应当已注册定时触发")
	}

	if err := e.RemovePipeline(p.ID); err != nil {
		t.Fatalf("移除流水线失败: %v", err)
	}
	if e.cron.Registered(p.ID) {
		t.Error("移除流水线后定时触发应当一并取消")
	}
}

func TestCronSchedulerInvalidExpr(t *testing.T) {
	e := newTestEngine(t)

	p, err := pipeline.NewBuilder("坏表达式", "").
		WithCron("not a cron").
		AddJobWithID("a", "a", "builtin.print", nil).
		Build()
	if err != nil {
		t.Fatalf("构建流水线失败: %v", err)
	}

	if err := e.AddPipeline(p); err == nil {
		t.Error("非法cron表达式应当被拒绝")
	}
	if _, err := e.GetPipeline(p.ID); err == nil {
		t.Error("注册失败的流水线不应残留")
	}
}

func TestCronSchedulerNoDuplicate(t *testing.T) {
	e := newTestEngine(t)

	p, err := pipeline.NewBuilder("重复注册", "").
		WithCron("@every 1h").
		AddJobWithID("a", "a", "builtin.print", nil).
		Build()
	if err != nil {
		t.Fatalf("构建流水线失败: %v", err)
	}

	if err := e.cron.RegisterPipeline(p); err != nil {
		t.Fatalf("注册定时触发失败: %v", err)
	}
	if err := e.cron.RegisterPipeline(p); err == nil {
		t.Error("重复注册定时触发应当返回错误")
	}
}
