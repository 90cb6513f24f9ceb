package config

import (
	"fmt"
	"time"
)

// ValidateConfig 校验调度器配置合法性
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("配置不能为空")
	}

	if cfg.Mode != "" {
		validModes := map[string]bool{
			"dev":  true,
			"test": true,
			"prod": true,
		}
		if !validModes[cfg.Mode] {
			return fmt.Errorf("mode必须是dev/test/prod之一")
		}
	}

	if cfg.HTTPPort < 0 || cfg.HTTPPort > 65535 {
		return fmt.Errorf("http_port必须在0-65535之间")
	}

	if cfg.Engine.MaxTokens < 0 {
		return fmt.Errorf("engine.max_tokens不能为负数")
	}
	if cfg.Engine.Workers < 0 {
		return fmt.Errorf("engine.workers不能为负数")
	}

	if _, err := cfg.ParseRefillInterval(); err != nil {
		return fmt.Errorf("engine.refill_interval格式错误: %w", err)
	}
	if _, err := cfg.ParseDefaultTimeout(); err != nil {
		return fmt.Errorf("engine.default_timeout格式错误: %w", err)
	}

	return nil
}

// ValidatePipelineConfig 校验流水线定义合法性
// funcKeys为已注册函数名称集合，为nil时跳过函数注册校验
func ValidatePipelineConfig(cfg *PipelineConfig, funcKeys map[string]bool, defaultTimeout time.Duration) error {
	if cfg == nil {
		return fmt.Errorf("配置不能为空")
	}

	// 校验Jobs
	jobIDMap := make(map[string]bool)
	for i, job := range cfg.Pipelines.Jobs {
		if job.JobID == "" {
			return fmt.Errorf("jobs[%d].job_id不能为空", i)
		}
		if jobIDMap[job.JobID] {
			return fmt.Errorf("jobs中存在重复的job_id: %s", job.JobID)
		}
		jobIDMap[job.JobID] = true

		if job.FuncKey == "" {
			return fmt.Errorf("jobs[%d].func_key不能为空", i)
		}

		if funcKeys != nil && !funcKeys[job.FuncKey] {
			return fmt.Errorf("jobs[%d].func_key %s 未注册", i, job.FuncKey)
		}

		// 超时时间不能超过默认超时的3倍
		if job.Timeout > 0 && defaultTimeout > 0 {
			maxTimeout := defaultTimeout * 3
			if job.Timeout > maxTimeout {
				return fmt.Errorf("jobs[%d].timeout %v 超过最大允许值 %v", i, job.Timeout, maxTimeout)
			}
		}
	}

	// 校验Definitions
	pipelineIDMap := make(map[string]bool)
	for i, def := range cfg.Pipelines.Definitions {
		if def.PipelineID == "" {
			return fmt.Errorf("definitions[%d].pipeline_id不能为空", i)
		}
		if pipelineIDMap[def.PipelineID] {
			return fmt.Errorf("definitions中存在重复的pipeline_id: %s", def.PipelineID)
		}
		pipelineIDMap[def.PipelineID] = true

		if len(def.Tasks) == 0 {
			return fmt.Errorf("definitions[%d]没有任何task", i)
		}

		// 校验Tasks
		taskIDMap := make(map[string]bool)
		for j, task := range def.Tasks {
			if task.TaskID == "" {
				return fmt.Errorf("definitions[%d].tasks[%d].task_id不能为空", i, j)
			}
			if taskIDMap[task.TaskID] {
				return fmt.Errorf("definitions[%d].tasks中存在重复的task_id: %s", i, task.TaskID)
			}
			taskIDMap[task.TaskID] = true

			if task.JobID == "" {
				return fmt.Errorf("definitions[%d].tasks[%d].job_id不能为空", i, j)
			}
			if !jobIDMap[task.JobID] {
				return fmt.Errorf("definitions[%d].tasks[%d].job_id %s 不存在于jobs中", i, j, task.JobID)
			}
		}

		// 依赖只能引用同一条流水线里的task
		for j, task := range def.Tasks {
			for _, dep := range task.Dependencies {
				if !taskIDMap[dep] {
					return fmt.Errorf("definitions[%d].tasks[%d]依赖了不存在的task: %s", i, j, dep)
				}
			}
		}
	}

	return nil
}
