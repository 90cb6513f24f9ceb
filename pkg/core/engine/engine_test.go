package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LENAX/dag-scheduler/pkg/core/job"
	"github.com/LENAX/dag-scheduler/pkg/core/pipeline"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(Options{
		MaxTokens:      4,
		RefillInterval: 5 * time.Millisecond,
		Workers:        2,
	})
	if err := e.Start(); err != nil {
		t.Fatalf("启动引擎失败: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Stop(ctx); err != nil {
			t.Errorf("停止引擎失败: %v", err)
		}
	})
	return e
}

func buildTestPipeline(t *testing.T, funcName string) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.NewBuilder("测试流水线", "").
		AddJobWithID("a", "步骤A", funcName, nil).
		AddJobWithID("b", "步骤B", funcName, nil).
		AddJobWithID("c", "步骤C", funcName, nil).
		DependsOn("b", "a").
		DependsOn("c", "a", "b").
		Build()
	if err != nil {
		t.Fatalf("构建流水线失败: %v", err)
	}
	return p
}

func TestEngineExecuteAndWait(t *testing.T) {
	e := newTestEngine(t)

	var mu sync.Mutex
	var order []string
	if _, err := e.RegisterJobFunc("test.record", func(ctx *job.Context) error {
		mu.Lock()
		order = append(order, ctx.JobID)
		mu.Unlock()
		return nil
	}, ""); err != nil {
		t.Fatalf("注册函数失败: %v", err)
	}

	p := buildTestPipeline(t, "test.record")
	if err := e.AddPipeline(p); err != nil {
		t.Fatalf("添加流水线失败: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	run, err := e.ExecuteAndWait(ctx, p.ID)
	if err != nil {
		t.Fatalf("执行流水线失败: %v", err)
	}

	if run.Status != pipeline.RunStatusSuccess {
		t.Errorf("运行状态错误，期望: SUCCESS, 实际: %s (%s)", run.Status, run.ErrorMessage)
	}
	for jobID, state := range run.JobStates {
		if state != pipeline.JobStatusSuccess {
			t.Errorf("job %s 状态错误，期望: SUCCESS, 实际: %s", jobID, state)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != "a" || order[2] != "c" {
		t.Errorf("执行顺序错误: %v", order)
	}
}

func TestEngineJobFailureBlocksDownstream(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.RegisterJobFunc("test.failA", func(ctx *job.Context) error {
		if ctx.JobID == "a" {
			return context.DeadlineExceeded
		}
		return nil
	}, ""); err != nil {
		t.Fatalf("注册函数失败: %v", err)
	}

	p := buildTestPipeline(t, "test.failA")
	if err := e.AddPipeline(p); err != nil {
		t.Fatalf("添加流水线失败: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	run, err := e.ExecuteAndWait(ctx, p.ID)
	if err != nil {
		t.Fatalf("执行流水线失败: %v", err)
	}

	if run.Status != pipeline.RunStatusFailed {
		t.Errorf("运行状态错误，期望: FAILED, 实际: %s", run.Status)
	}
	if run.JobStates["a"] != pipeline.JobStatusFailed {
		t.Errorf("a状态错误，期望: FAILED, 实际: %s", run.JobStates["a"])
	}
	if run.JobStates["b"] != pipeline.JobStatusBlocked || run.JobStates["c"] != pipeline.JobStatusBlocked {
		t.Errorf("下游状态错误，期望: BLOCKED, 实际: b=%s, c=%s", run.JobStates["b"], run.JobStates["c"])
	}
}

func TestEngineCancelRun(t *testing.T) {
	e := newTestEngine(t)

	started := make(chan struct{}, 1)
	if _, err := e.RegisterJobFunc("test.slow", func(ctx *job.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		select {
		case <-time.After(5 * time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}, ""); err != nil {
		t.Fatalf("注册函数失败: %v", err)
	}

	p := buildTestPipeline(t, "test.slow")
	if err := e.AddPipeline(p); err != nil {
		t.Fatalf("添加流水线失败: %v", err)
	}

	run, err := e.ExecutePipeline(p.ID)
	if err != nil {
		t.Fatalf("触发流水线失败: %v", err)
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("等待job启动超时")
	}

	if err := e.CancelRun(run.ID); err != nil {
		t.Fatalf("取消运行失败: %v", err)
	}

	// 等待运行进入终态
	deadline := time.Now().Add(5 * time.Second)
	for {
		got, err := e.GetRun(run.ID)
		if err != nil {
			t.Fatalf("获取运行实例失败: %v", err)
		}
		if got.IsTerminal() {
			if got.Status != pipeline.RunStatusCanceled {
				t.Errorf("运行状态错误，期望: CANCELED, 实际: %s", got.Status)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("等待取消生效超时")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEngineJobTimeout(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.RegisterJobFunc("test.hang", func(ctx *job.Context) error {
		select {
		case <-time.After(5 * time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}, ""); err != nil {
		t.Fatalf("注册函数失败: %v", err)
	}

	p, err := pipeline.NewBuilder("超时测试", "").
		AddJobWithID("slow", "慢任务", "test.hang", nil).
		WithJobTimeout("slow", 30*time.Millisecond).
		Build()
	if err != nil {
		t.Fatalf("构建流水线失败: %v", err)
	}
	if err := e.AddPipeline(p); err != nil {
		t.Fatalf("添加流水线失败: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	run, err := e.ExecuteAndWait(ctx, p.ID)
	if err != nil {
		t.Fatalf("执行流水线失败: %v", err)
	}

	if run.Status != pipeline.RunStatusFailed {
		t.Errorf("超时运行状态错误，期望: FAILED, 实际: %s", run.Status)
	}
	if run.JobStates["slow"] != pipeline.JobStatusFailed {
		t.Errorf("超时job状态错误，期望: FAILED, 实际: %s", run.JobStates["slow"])
	}
}

func TestEngineAddPipelineValidation(t *testing.T) {
	e := newTestEngine(t)

	// 引用未注册的函数
	p, err := pipeline.NewBuilder("坏流水线", "").
		AddJobWithID("a", "a", "no.such.func", nil).
		Build()
	if err != nil {
		t.Fatalf("构建流水线失败: %v", err)
	}
	if err := e.AddPipeline(p); err == nil {
		t.Error("引用未注册函数的流水线应当被拒绝")
	}

	// 重复添加
	good, err := pipeline.NewBuilder("好流水线", "").
		AddJobWithID("a", "a", "builtin.print", nil).
		Build()
	if err != nil {
		t.Fatalf("构建流水线失败: %v", err)
	}
	if err := e.AddPipeline(good); err != nil {
		t.Fatalf("添加流水线失败: %v", err)
	}
	if err := e.AddPipeline(good); err == nil {
		t.Error("重复添加同一流水线应当被拒绝")
	}
}

func TestEngineEvents(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.RegisterJobFunc("test.noop", func(ctx *job.Context) error { return nil }, ""); err != nil {
		t.Fatalf("注册函数失败: %v", err)
	}

	p, err := pipeline.NewBuilder("事件测试", "").
		AddJobWithID("a", "a", "test.noop", nil).
		Build()
	if err != nil {
		t.Fatalf("构建流水线失败: %v", err)
	}
	if err := e.AddPipeline(p); err != nil {
		t.Fatalf("添加流水线失败: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventCh, err := e.Bus().Subscribe(ctx)
	if err != nil {
		t.Fatalf("订阅事件失败: %v", err)
	}

	var gotRunning, gotSuccess atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range eventCh {
			if event.JobID == "a" && event.Status == pipeline.JobStatusRunning {
				gotRunning.Store(true)
			}
			if event.JobID == "" && event.Status == pipeline.RunStatusSuccess {
				gotSuccess.Store(true)
				return
			}
		}
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	if _, err := e.ExecuteAndWait(waitCtx, p.ID); err != nil {
		t.Fatalf("执行流水线失败: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("等待事件超时")
	}
	if !gotRunning.Load() {
		t.Error("未收到job运行事件")
	}
	if !gotSuccess.Load() {
		t.Error("未收到运行成功事件")
	}
}

func TestEngineNotStarted(t *testing.T) {
	e := New(Options{})

	if _, err := e.ExecutePipeline("whatever"); err == nil {
		t.Error("未启动的引擎不应接受触发")
	}
}

// TestEngineRunSnapshotIsolation 对外交出的Run是快照，与引擎内部状态互不影响
func TestEngineRunSnapshotIsolation(t *testing.T) {
	e := newTestEngine(t)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	if _, err := e.RegisterJobFunc("test.gate", func(ctx *job.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}, ""); err != nil {
		t.Fatalf("注册函数失败: %v", err)
	}

	p := buildTestPipeline(t, "test.gate")
	if err := e.AddPipeline(p); err != nil {
		t.Fatalf("添加流水线失败: %v", err)
	}

	run, err := e.ExecutePipeline(p.ID)
	if err != nil {
		t.Fatalf("触发流水线失败: %v", err)
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("等待job启动超时")
	}

	// 运行中拿到的快照，篡改它不能影响引擎内部状态
	mid, err := e.GetRun(run.ID)
	if err != nil {
		t.Fatalf("获取运行实例失败: %v", err)
	}
	mid.Status = "乱写的状态"
	for jobID := range mid.JobStates {
		mid.JobStates[jobID] = "乱写的状态"
	}

	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	final, err := e.ExecuteAndWait(ctx, p.ID)
	if err != nil {
		t.Fatalf("执行流水线失败: %v", err)
	}
	if final.Status != pipeline.RunStatusSuccess {
		t.Fatalf("第二次运行状态错误，期望: SUCCESS, 实际: %s", final.Status)
	}

	// 第一次运行也应当不受快照篡改影响，正常走到终态
	deadline := time.Now().Add(5 * time.Second)
	for {
		got, err := e.GetRun(run.ID)
		if err != nil {
			t.Fatalf("获取运行实例失败: %v", err)
		}
		if got.IsTerminal() {
			if got.Status != pipeline.RunStatusSuccess {
				t.Errorf("运行状态错误，期望: SUCCESS, 实际: %s", got.Status)
			}
			for jobID, state := range got.JobStates {
				if state != pipeline.JobStatusSuccess {
					t.Errorf("job %s 状态错误，期望: SUCCESS, 实际: %s", jobID, state)
				}
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("等待运行结束超时")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// 两份快照的JobStates是独立的map
	a, _ := e.GetRun(run.ID)
	b, _ := e.GetRun(run.ID)
	for jobID := range a.JobStates {
		a.JobStates[jobID] = "改掉"
	}
	for jobID, state := range b.JobStates {
		if state != pipeline.JobStatusSuccess {
			t.Errorf("快照未隔离，job %s 状态被篡改为: %s", jobID, state)
		}
	}
}
