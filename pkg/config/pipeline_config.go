package config

import (
	"time"

	"github.com/LENAX/dag-scheduler/pkg/core/pipeline"
)

// PipelineConfig 流水线定义文件结构
type PipelineConfig struct {
	Pipelines struct {
		Jobs        []JobDefinition      `yaml:"jobs"`
		Definitions []PipelineDefinition `yaml:"definitions"`
	} `yaml:"pipelines"`
}

// JobDefinition 可复用的Job定义
type JobDefinition struct {
	JobID       string        `yaml:"job_id"`
	FuncKey     string        `yaml:"func_key"`
	Description string        `yaml:"description"`
	Timeout     time.Duration `yaml:"timeout"`
}

// PipelineDefinition 单条流水线定义
type PipelineDefinition struct {
	PipelineID  string           `yaml:"pipeline_id"`
	Description string           `yaml:"description"`
	Cron        string           `yaml:"cron"` // 支持秒级的cron表达式，为空表示仅手动触发
	Tasks       []TaskDefinition `yaml:"tasks"`
}

// TaskDefinition 流水线中的任务节点
type TaskDefinition struct {
	TaskID       string         `yaml:"task_id"`
	JobID        string         `yaml:"job_id"`
	Params       map[string]any `yaml:"params"`
	Dependencies []string       `yaml:"dependencies"`
}

// ApplyDefaults 为未设置超时的Job补充默认超时
func (c *PipelineConfig) ApplyDefaults(defaultTimeout time.Duration) {
	for i := range c.Pipelines.Jobs {
		if c.Pipelines.Jobs[i].Timeout == 0 {
			c.Pipelines.Jobs[i].Timeout = defaultTimeout
		}
	}
}

// ToPipelines 把配置转换为Pipeline模型
// 转换前应当先通过ValidatePipelineConfig校验
func (c *PipelineConfig) ToPipelines() ([]*pipeline.Pipeline, error) {
	jobDefs := make(map[string]JobDefinition, len(c.Pipelines.Jobs))
	for _, jd := range c.Pipelines.Jobs {
		jobDefs[jd.JobID] = jd
	}

	var result []*pipeline.Pipeline
	for _, def := range c.Pipelines.Definitions {
		b := pipeline.NewBuilder(def.PipelineID, def.Description).WithCron(def.Cron)
		for _, task := range def.Tasks {
			jd := jobDefs[task.JobID]
			b.AddJobWithID(task.TaskID, task.JobID, jd.FuncKey, task.Params)
			if jd.Timeout > 0 {
				b.WithJobTimeout(task.TaskID, jd.Timeout)
			}
			if len(task.Dependencies) > 0 {
				b.DependsOn(task.TaskID, task.Dependencies...)
			}
		}
		p, err := b.Build()
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}
