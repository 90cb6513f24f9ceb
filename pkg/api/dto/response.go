package dto

import "time"

// APIResponse 统一API响应结构（泛型）
type APIResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) APIResponse[any] {
	return APIResponse[any]{
		Code:    code,
		Message: message,
	}
}

// ListResponse 列表响应（泛型）
type ListResponse[T any] struct {
	Total   int  `json:"total"`
	Items   []T  `json:"items"`
	HasMore bool `json:"has_more"`
}

// PipelineSummary Pipeline摘要信息
type PipelineSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	JobCount    int       `json:"job_count"`
	Status      string    `json:"status"`
	CronExpr    string    `json:"cron_expr,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// PipelineDetail Pipeline详情
type PipelineDetail struct {
	PipelineSummary
	Jobs         []JobSummary        `json:"jobs"`
	Dependencies map[string][]string `json:"dependencies"`
}

// JobSummary Pipeline中的Job摘要
type JobSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	FuncName    string `json:"func_name"`
	Description string `json:"description,omitempty"`
	Timeout     string `json:"timeout,omitempty"`
}

// RunSummary 运行实例摘要
type RunSummary struct {
	ID           string     `json:"run_id"`
	PipelineID   string     `json:"pipeline_id"`
	PipelineName string     `json:"pipeline_name"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Duration     string     `json:"duration,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// RunDetail 运行实例详情
type RunDetail struct {
	RunSummary
	JobStates map[string]string `json:"job_states"`
}

// ExecuteResponse 触发执行响应
type ExecuteResponse struct {
	RunID   string `json:"run_id"`
	Message string `json:"message"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Uptime     string `json:"uptime"`
	Timestamp  string `json:"timestamp"`
	Pipelines  int    `json:"pipelines"`   // 已注册流水线数
	ActiveRuns int    `json:"active_runs"` // 进行中的运行数
}

// FuncSummary 已注册函数摘要
type FuncSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
