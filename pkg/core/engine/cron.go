package engine

import (
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/LENAX/dag-scheduler/pkg/core/pipeline"
)

// CronScheduler 定时触发器，把cron表达式映射为流水线触发（对外导出）
type CronScheduler struct {
	engine *Engine
	c      *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID // PipelineID -> cron条目
}

// NewCronScheduler 创建定时触发器，支持秒级cron表达式（对外导出）
func NewCronScheduler(engine *Engine) *CronScheduler {
	return &CronScheduler{
		engine:  engine,
		c:       cron.New(cron.WithSeconds()),
		entries: make(map[string]cron.EntryID),
	}
}

// Start 启动定时触发器（对外导出）
func (s *CronScheduler) Start() {
	s.c.Start()
}

// Stop 停止定时触发器，等待进行中的触发回调返回（对外导出）
func (s *CronScheduler) Stop() {
	<-s.c.Stop().Done()
}

// RegisterPipeline 注册流水线的定时触发（对外导出）
func (s *CronScheduler) RegisterPipeline(p *pipeline.Pipeline) error {
	if p.CronExpr == "" {
		return fmt.Errorf("pipeline %s 没有cron表达式", p.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[p.ID]; exists {
		return fmt.Errorf("pipeline %s 已注册定时触发", p.ID)
	}

	pipelineID := p.ID
	entryID, err := s.c.AddFunc(p.CronExpr, func() {
		run, err := s.engine.ExecutePipeline(pipelineID)
		if err != nil {
			log.Printf("⚠️ [定时触发] pipeline %s 触发失败: %v", pipelineID, err)
			return
		}
		log.Printf("⏱️ [定时触发] pipeline %s 已触发, RunID=%s", pipelineID, run.ID)
	})
	if err != nil {
		return fmt.Errorf("cron表达式 %s 非法: %w", p.CronExpr, err)
	}

	s.entries[p.ID] = entryID
	return nil
}

// UnregisterPipeline 取消流水线的定时触发（对外导出）
func (s *CronScheduler) UnregisterPipeline(pipelineID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.entries[pipelineID]; exists {
		s.c.Remove(entryID)
		delete(s.entries, pipelineID)
	}
}

// Registered 判断流水线是否已注册定时触发（对外导出）
func (s *CronScheduler) Registered(pipelineID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.entries[pipelineID]
	return exists
}
