package dag

import (
	"fmt"
)

// CycleError 环依赖错误（对外导出）
// Path是检测到的环路径（首尾为同一个值）。
type CycleError[T comparable] struct {
	Path []T
}

func (e *CycleError[T]) Error() string {
	return fmt.Sprintf("检测到循环依赖: %v", e.Path)
}

// TaskError 单个节点执行失败错误（对外导出）
// Cause是process返回的错误或从panic恢复得到的错误。
type TaskError[T comparable] struct {
	Value T
	Cause error
}

func (e *TaskError[T]) Error() string {
	return fmt.Sprintf("节点 %v 执行失败: %v", e.Value, e.Cause)
}

func (e *TaskError[T]) Unwrap() error {
	return e.Cause
}

// RunError 一次调度运行的聚合错误（对外导出）
// Failed是执行失败的节点及原因；Blocked是因上游失败而被跳过的节点。
// 失败只阻断自己的传递下游，图中无关的分支仍会执行完毕。
type RunError[T comparable] struct {
	Failed  map[T]error
	Blocked []T
}

func (e *RunError[T]) Error() string {
	return fmt.Sprintf("调度完成但存在失败: %d 个节点失败, %d 个节点被阻塞", len(e.Failed), len(e.Blocked))
}

// IsBlocked 判断值是否在被阻塞列表中（对外导出）
func (e *RunError[T]) IsBlocked(v T) bool {
	for _, b := range e.Blocked {
		if b == v {
			return true
		}
	}
	return false
}
