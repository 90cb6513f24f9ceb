package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/LENAX/dag-scheduler/pkg/config"
	"github.com/LENAX/dag-scheduler/pkg/core/dag"
	"github.com/LENAX/dag-scheduler/pkg/core/events"
	"github.com/LENAX/dag-scheduler/pkg/core/job"
	"github.com/LENAX/dag-scheduler/pkg/core/pipeline"
)

// Options 引擎配置项（对外导出）
type Options struct {
	MaxTokens      int           // 并发准入令牌上限，<=0时为1
	RefillInterval time.Duration // 令牌桶重置间隔，<=0时使用默认值
	Workers        int           // worker数量，<=0时按CPU数自适应
	DefaultTimeout time.Duration // 单个Job默认超时，<=0表示不限时
}

// Engine 流水线调度引擎核心结构体（对外导出）
type Engine struct {
	opts     Options
	registry *job.Registry
	bus      *events.Bus
	cron     *CronScheduler

	mu        sync.RWMutex
	pipelines map[string]*pipeline.Pipeline // PipelineID -> 定义
	runs      map[string]*pipeline.Run      // RunID -> 运行实例
	cancels   map[string]context.CancelFunc // RunID -> 取消函数
	running   bool

	wg sync.WaitGroup
}

// New 创建Engine实例（对外导出的工厂方法）
func New(opts Options) *Engine {
	e := &Engine{
		opts:      opts,
		registry:  job.NewRegistry(),
		bus:       events.NewBus(),
		pipelines: make(map[string]*pipeline.Pipeline),
		runs:      make(map[string]*pipeline.Run),
		cancels:   make(map[string]context.CancelFunc),
	}
	e.cron = NewCronScheduler(e)
	return e
}

// Start 启动引擎（对外导出）
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil
	}

	if err := job.RegisterBuiltins(e.registry); err != nil {
		return fmt.Errorf("注册内置函数失败: %w", err)
	}

	e.cron.Start()
	e.running = true
	log.Println("✅ 流水线调度引擎已启动")
	return nil
}

// Stop 停止引擎，取消所有进行中的运行并等待其退出（对外导出）
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	for _, cancel := range e.cancels {
		cancel()
	}
	e.mu.Unlock()

	e.cron.Stop()

	// 等待所有运行退出或context超时
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("等待运行退出超时: %w", ctx.Err())
	}

	if err := e.bus.Close(); err != nil {
		return fmt.Errorf("关闭事件总线失败: %w", err)
	}
	log.Println("✅ 流水线调度引擎已停止")
	return nil
}

// Registry 获取函数注册中心（对外导出，用于测试和函数注册）
func (e *Engine) Registry() *job.Registry {
	return e.registry
}

// Bus 获取事件总线（对外导出）
func (e *Engine) Bus() *events.Bus {
	return e.bus
}

// Running 引擎是否处于运行状态（对外导出）
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// RegisterJobFunc 注册用户自定义Job函数（对外导出）
func (e *Engine) RegisterJobFunc(name string, fn job.Func, description string) (string, error) {
	return e.registry.Register(name, fn, description)
}

// AddPipeline 添加流水线定义，校验失败则拒绝（对外导出）
func (e *Engine) AddPipeline(p *pipeline.Pipeline) error {
	if err := p.Validate(); err != nil {
		return err
	}

	// 所有Job引用的函数必须已注册
	for jobID, j := range p.Jobs {
		if e.registry.GetByName(j.FuncName) == nil {
			return fmt.Errorf("job %s 引用的函数 %s 未注册", jobID, j.FuncName)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.pipelines[p.ID]; exists {
		return fmt.Errorf("pipeline %s 已存在", p.ID)
	}
	e.pipelines[p.ID] = p

	if p.CronExpr != "" && p.Status == pipeline.StatusEnabled {
		if err := e.cron.RegisterPipeline(p); err != nil {
			delete(e.pipelines, p.ID)
			return fmt.Errorf("注册定时触发失败: %w", err)
		}
	}

	return nil
}

// RemovePipeline 移除流水线定义（对外导出）
func (e *Engine) RemovePipeline(pipelineID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.pipelines[pipelineID]; !exists {
		return fmt.Errorf("pipeline %s 不存在", pipelineID)
	}
	e.cron.UnregisterPipeline(pipelineID)
	delete(e.pipelines, pipelineID)
	return nil
}

// GetPipeline 获取流水线定义（对外导出）
func (e *Engine) GetPipeline(pipelineID string) (*pipeline.Pipeline, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, exists := e.pipelines[pipelineID]
	if !exists {
		return nil, fmt.Errorf("pipeline %s 不存在", pipelineID)
	}
	return p, nil
}

// ListPipelines 列出所有流水线定义（对外导出）
func (e *Engine) ListPipelines() []*pipeline.Pipeline {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]*pipeline.Pipeline, 0, len(e.pipelines))
	for _, p := range e.pipelines {
		result = append(result, p)
	}
	return result
}

// LoadPipelineConfig 从配置文件加载流水线定义（对外导出）
func (e *Engine) LoadPipelineConfig(path string) error {
	cfg, err := config.LoadPipelineConfig(path)
	if err != nil {
		return fmt.Errorf("加载流水线配置失败: %w", err)
	}
	_, err = e.AddPipelineConfig(cfg)
	return err
}

// AddPipelineConfig 校验并注册一份流水线配置，API上传走这里（对外导出）
func (e *Engine) AddPipelineConfig(cfg *config.PipelineConfig) ([]*pipeline.Pipeline, error) {
	funcKeys := make(map[string]bool)
	for _, meta := range e.registry.ListAll() {
		funcKeys[meta.Name] = true
	}
	if err := config.ValidatePipelineConfig(cfg, funcKeys, e.opts.DefaultTimeout); err != nil {
		return nil, fmt.Errorf("流水线配置校验失败: %w", err)
	}

	cfg.ApplyDefaults(e.opts.DefaultTimeout)
	pipelines, err := cfg.ToPipelines()
	if err != nil {
		return nil, fmt.Errorf("流水线配置转换失败: %w", err)
	}

	for _, p := range pipelines {
		if err := e.AddPipeline(p); err != nil {
			return nil, err
		}
	}
	return pipelines, nil
}

// ExecutePipeline 异步触发一次流水线运行，立即返回Run（对外导出）
func (e *Engine) ExecutePipeline(pipelineID string) (*pipeline.Run, error) {
	e.mu.Lock()

	if !e.running {
		e.mu.Unlock()
		return nil, fmt.Errorf("引擎未启动")
	}
	p, exists := e.pipelines[pipelineID]
	if !exists {
		e.mu.Unlock()
		return nil, fmt.Errorf("pipeline %s 不存在", pipelineID)
	}
	if p.Status != pipeline.StatusEnabled {
		e.mu.Unlock()
		return nil, fmt.Errorf("pipeline %s 已禁用", pipelineID)
	}

	run := pipeline.NewRun(p)
	ctx, cancel := context.WithCancel(context.Background())
	e.runs[run.ID] = run
	e.cancels[run.ID] = cancel
	e.wg.Add(1)
	// 引擎持有的run会被执行协程持续更新，对外只交出快照
	snapshot := run.Snapshot()
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		defer func() {
			e.mu.Lock()
			delete(e.cancels, run.ID)
			e.mu.Unlock()
			cancel()
		}()
		e.executeRun(ctx, p, run)
	}()

	return snapshot, nil
}

// ExecuteAndWait 同步执行一次流水线运行，返回结束后的Run（对外导出）
func (e *Engine) ExecuteAndWait(ctx context.Context, pipelineID string) (*pipeline.Run, error) {
	started, err := e.ExecutePipeline(pipelineID)
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			snapshot, err := e.GetRun(started.ID)
			if err != nil {
				return nil, err
			}
			if snapshot.IsTerminal() {
				return snapshot, nil
			}
		case <-ctx.Done():
			snapshot, getErr := e.GetRun(started.ID)
			if getErr != nil {
				return nil, getErr
			}
			return snapshot, ctx.Err()
		}
	}
}

// GetRun 获取运行实例（对外导出）
func (e *Engine) GetRun(runID string) (*pipeline.Run, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	run, exists := e.runs[runID]
	if !exists {
		return nil, fmt.Errorf("run %s 不存在", runID)
	}
	return run.Snapshot(), nil
}

// ListRuns 列出所有运行实例，pipelineID不为空时只返回该流水线的（对外导出）
func (e *Engine) ListRuns(pipelineID string) []*pipeline.Run {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]*pipeline.Run, 0, len(e.runs))
	for _, run := range e.runs {
		if pipelineID == "" || run.PipelineID == pipelineID {
			result = append(result, run.Snapshot())
		}
	}
	return result
}

// CancelRun 取消进行中的运行（对外导出）
func (e *Engine) CancelRun(runID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.runs[runID]; !exists {
		return fmt.Errorf("run %s 不存在", runID)
	}
	cancel, exists := e.cancels[runID]
	if !exists {
		return fmt.Errorf("run %s 已结束，不能取消", runID)
	}
	cancel()
	return nil
}

// executeRun 执行一次流水线运行（内部方法）
// 依赖图的调用顺序由dag包保证，这里负责状态记录和事件发布
func (e *Engine) executeRun(ctx context.Context, p *pipeline.Pipeline, run *pipeline.Run) {
	log.Printf("🚀 [运行开始] RunID=%s, Pipeline=%s", run.ID, p.Name)

	e.setRunStatus(run, pipeline.RunStatusRunning)
	e.publishRunEvent(run, "", "", pipeline.RunStatusRunning, "")

	g, err := dag.NewGraph(p.DependencyTable())
	if err != nil {
		// AddPipeline已做过校验，到这里通常只有定义被外部改坏才会失败
		e.finishRun(run, pipeline.RunStatusFailed, fmt.Sprintf("构建依赖图失败: %v", err))
		return
	}

	process := func(jobID string) error {
		jobDef := p.Jobs[jobID]
		fn := e.registry.GetByName(jobDef.FuncName)
		if fn == nil {
			return fmt.Errorf("函数 %s 未注册", jobDef.FuncName)
		}

		e.setJobState(run, jobID, pipeline.JobStatusRunning)
		e.publishRunEvent(run, jobID, jobDef.Name, pipeline.JobStatusRunning, "")

		jobCtx := ctx
		timeout := jobDef.Timeout
		if timeout <= 0 {
			timeout = e.opts.DefaultTimeout
		}
		var cancel context.CancelFunc
		if timeout > 0 {
			jobCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		jc := job.NewContext(jobCtx, jobID, jobDef.Name, p.ID, run.ID, jobDef.Params)
		if err := fn(jc); err != nil {
			e.setJobState(run, jobID, pipeline.JobStatusFailed)
			e.publishRunEvent(run, jobID, jobDef.Name, pipeline.JobStatusFailed, err.Error())
			return err
		}

		e.setJobState(run, jobID, pipeline.JobStatusSuccess)
		e.publishRunEvent(run, jobID, jobDef.Name, pipeline.JobStatusSuccess, "")
		return nil
	}

	runErr := g.Run(ctx, process, dag.Options{
		MaxTokens:      e.opts.MaxTokens,
		RefillInterval: e.opts.RefillInterval,
		Workers:        e.opts.Workers,
	})

	switch {
	case runErr == nil:
		e.finishRun(run, pipeline.RunStatusSuccess, "")
		log.Printf("✅ [运行成功] RunID=%s, Pipeline=%s", run.ID, p.Name)

	case errors.Is(runErr, context.Canceled):
		// 未跑到的Job标记为取消
		e.mu.Lock()
		for jobID, state := range run.JobStates {
			if state == pipeline.JobStatusPending || state == pipeline.JobStatusRunning {
				run.JobStates[jobID] = pipeline.JobStatusCanceled
			}
		}
		run.Finish(pipeline.RunStatusCanceled, runErr.Error())
		e.mu.Unlock()
		e.publishRunEvent(run, "", "", pipeline.RunStatusCanceled, runErr.Error())
		log.Printf("⚠️ [运行取消] RunID=%s, Pipeline=%s", run.ID, p.Name)

	default:
		var aggErr *dag.RunError[string]
		if errors.As(runErr, &aggErr) {
			e.mu.Lock()
			for _, jobID := range aggErr.Blocked {
				run.JobStates[jobID] = pipeline.JobStatusBlocked
			}
			e.mu.Unlock()
		}
		e.finishRun(run, pipeline.RunStatusFailed, runErr.Error())
		log.Printf("❌ [运行失败] RunID=%s, Pipeline=%s, 错误=%v", run.ID, p.Name, runErr)
	}
}

// setRunStatus 更新运行状态（内部方法）
func (e *Engine) setRunStatus(run *pipeline.Run, status string) {
	e.mu.Lock()
	run.Status = status
	e.mu.Unlock()
}

// setJobState 更新Job状态（内部方法）
func (e *Engine) setJobState(run *pipeline.Run, jobID, state string) {
	e.mu.Lock()
	run.JobStates[jobID] = state
	e.mu.Unlock()
}

// finishRun 结束运行并发布终态事件（内部方法）
func (e *Engine) finishRun(run *pipeline.Run, status, errorMessage string) {
	e.mu.Lock()
	run.Finish(status, errorMessage)
	e.mu.Unlock()
	e.publishRunEvent(run, "", "", status, errorMessage)
}

// publishRunEvent 发布运行事件，失败只记日志不影响调度（内部方法）
func (e *Engine) publishRunEvent(run *pipeline.Run, jobID, jobName, status, errMsg string) {
	event := &events.RunEvent{
		RunID:      run.ID,
		PipelineID: run.PipelineID,
		JobID:      jobID,
		JobName:    jobName,
		Status:     status,
		Error:      errMsg,
	}
	if err := e.bus.Publish(event); err != nil {
		log.Printf("⚠️ 发布事件失败: %v", err)
	}
}
