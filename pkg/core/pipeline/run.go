package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Run状态常量（对外导出）
const (
	RunStatusPending  = "PENDING"
	RunStatusRunning  = "RUNNING"
	RunStatusSuccess  = "SUCCESS"
	RunStatusFailed   = "FAILED"
	RunStatusCanceled = "CANCELED"
)

// Job执行状态常量（对外导出）
const (
	JobStatusPending  = "PENDING"
	JobStatusRunning  = "RUNNING"
	JobStatusSuccess  = "SUCCESS"
	JobStatusFailed   = "FAILED"
	JobStatusBlocked  = "BLOCKED" // 上游失败导致未执行
	JobStatusCanceled = "CANCELED"
)

// Run Pipeline的一次运行实例（对外导出）
type Run struct {
	ID           string            `json:"run_id"`
	PipelineID   string            `json:"pipeline_id"`
	PipelineName string            `json:"pipeline_name"`
	Status       string            `json:"status"`
	StartTime    time.Time         `json:"start_time"`
	EndTime      *time.Time        `json:"end_time,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	JobStates    map[string]string `json:"job_states"` // JobID -> Job执行状态
}

// NewRun 创建运行实例，所有Job初始为PENDING（对外导出）
func NewRun(p *Pipeline) *Run {
	states := make(map[string]string, len(p.Jobs))
	for jobID := range p.Jobs {
		states[jobID] = JobStatusPending
	}
	return &Run{
		ID:           uuid.NewString(),
		PipelineID:   p.ID,
		PipelineName: p.Name,
		Status:       RunStatusPending,
		StartTime:    time.Now(),
		JobStates:    states,
	}
}

// Finish 结束运行，写入终态和结束时间（对外导出）
func (r *Run) Finish(status, errorMessage string) {
	now := time.Now()
	r.Status = status
	r.EndTime = &now
	r.ErrorMessage = errorMessage
}

// Snapshot 返回运行实例的深拷贝（对外导出）
// 运行期间Run由引擎在锁内持续更新，对外暴露时必须先拷贝，
// 否则调用方读取JobStates会和引擎的写入产生竞争。
func (r *Run) Snapshot() *Run {
	cp := *r
	cp.JobStates = make(map[string]string, len(r.JobStates))
	for jobID, state := range r.JobStates {
		cp.JobStates[jobID] = state
	}
	if r.EndTime != nil {
		end := *r.EndTime
		cp.EndTime = &end
	}
	return &cp
}

// IsTerminal 判断运行是否已结束（对外导出）
func (r *Run) IsTerminal() bool {
	switch r.Status {
	case RunStatusSuccess, RunStatusFailed, RunStatusCanceled:
		return true
	default:
		return false
	}
}
