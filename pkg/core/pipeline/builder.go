package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Builder Pipeline构建器（对外导出）
type Builder struct {
	p *Pipeline
}

// NewBuilder 创建构建器（对外导出）
func NewBuilder(name, desc string) *Builder {
	return &Builder{
		p: NewPipeline(name, desc),
	}
}

// WithCron 设置cron表达式（链式构建，对外导出）
func (b *Builder) WithCron(expr string) *Builder {
	b.p.CronExpr = expr
	return b
}

// WithStatus 设置启用状态（链式构建，对外导出）
func (b *Builder) WithStatus(status string) *Builder {
	b.p.Status = status
	return b
}

// AddJob 添加Job，返回JobID（链式用法见AddJobWithID，对外导出）
func (b *Builder) AddJob(name, funcName string, params map[string]any) string {
	id := uuid.NewString()
	b.p.Jobs[id] = &Job{
		ID:       id,
		Name:     name,
		FuncName: funcName,
		Params:   params,
	}
	return id
}

// AddJobWithID 用指定ID添加Job（链式构建，对外导出）
// 配置文件里的Job有人类可读的ID，这里保留它
func (b *Builder) AddJobWithID(id, name, funcName string, params map[string]any) *Builder {
	b.p.Jobs[id] = &Job{
		ID:       id,
		Name:     name,
		FuncName: funcName,
		Params:   params,
	}
	return b
}

// WithJobTimeout 设置单个Job的超时时间（链式构建，对外导出）
func (b *Builder) WithJobTimeout(jobID string, timeout time.Duration) *Builder {
	if job, ok := b.p.Jobs[jobID]; ok {
		job.Timeout = timeout
	}
	return b
}

// DependsOn 声明jobID依赖于deps（链式构建，对外导出）
func (b *Builder) DependsOn(jobID string, deps ...string) *Builder {
	b.p.Dependencies[jobID] = append(b.p.Dependencies[jobID], deps...)
	return b
}

// Build 校验并返回Pipeline（对外导出）
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.p.Validate(); err != nil {
		return nil, err
	}
	return b.p, nil
}
