package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/LENAX/dag-scheduler/pkg/core/dag"
)

// Pipeline状态常量（对外导出）
const (
	StatusEnabled  = "ENABLED"
	StatusDisabled = "DISABLED"
)

// Pipeline 流水线定义，描述一组Job及其依赖关系（对外导出）
type Pipeline struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Jobs         map[string]*Job     `json:"jobs"`         // JobID -> Job定义
	Dependencies map[string][]string `json:"dependencies"` // JobID -> 依赖的JobID列表
	CronExpr     string              `json:"cron_expr"`    // cron表达式（支持秒级），为空表示不定时触发
	Status       string              `json:"status"`       // ENABLED/DISABLED
	CreateTime   time.Time           `json:"create_time"`
}

// Job 流水线中的单个Job定义（对外导出）
type Job struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	FuncName    string         `json:"func_name"` // 注册中心里的函数名称
	Params      map[string]any `json:"params"`
	Timeout     time.Duration  `json:"timeout"` // 单个Job的超时时间，0表示使用引擎默认值
	Description string         `json:"description"`
}

// NewPipeline 创建Pipeline（对外导出）
func NewPipeline(name, desc string) *Pipeline {
	return &Pipeline{
		ID:           uuid.NewString(),
		Name:         name,
		Description:  desc,
		Jobs:         make(map[string]*Job),
		Dependencies: make(map[string][]string),
		Status:       StatusEnabled,
		CreateTime:   time.Now(),
	}
}

// Validate 校验Pipeline定义（对外导出）
// 检查Job引用完整性，并预构建依赖图以发现循环依赖
func (p *Pipeline) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("pipeline名称不能为空")
	}
	if len(p.Jobs) == 0 {
		return fmt.Errorf("pipeline %s 没有任何Job", p.Name)
	}

	for jobID, job := range p.Jobs {
		if job.FuncName == "" {
			return fmt.Errorf("job %s 没有指定函数名称", jobID)
		}
	}

	// 依赖表只能引用已定义的Job
	for jobID, deps := range p.Dependencies {
		if _, ok := p.Jobs[jobID]; !ok {
			return fmt.Errorf("依赖表引用了未定义的job %s", jobID)
		}
		for _, dep := range deps {
			if _, ok := p.Jobs[dep]; !ok {
				return fmt.Errorf("job %s 依赖了未定义的job %s", jobID, dep)
			}
		}
	}

	// 预构建依赖图，循环依赖在这里提前暴露
	if _, err := dag.NewGraph(p.DependencyTable()); err != nil {
		return fmt.Errorf("pipeline %s 依赖关系非法: %w", p.Name, err)
	}

	return nil
}

// DependencyTable 构建完整依赖表，没有依赖的Job也有一个空条目（对外导出）
func (p *Pipeline) DependencyTable() map[string][]string {
	table := make(map[string][]string, len(p.Jobs))
	for jobID := range p.Jobs {
		table[jobID] = p.Dependencies[jobID]
	}
	return table
}
