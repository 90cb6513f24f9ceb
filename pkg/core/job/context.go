package job

import (
	"context"
	"fmt"
)

// Context Job执行上下文，提供类型安全的API访问Job信息（对外导出）
type Context struct {
	ctx        context.Context // 底层context，用于超时、取消等
	JobID      string          // Job ID
	JobName    string          // Job名称
	PipelineID string          // 所属Pipeline ID
	RunID      string          // 本次运行的Run ID
	Params     map[string]any  // Job参数（保持原始类型）
}

// NewContext 创建Job执行上下文（对外导出）
func NewContext(ctx context.Context, jobID, jobName, pipelineID, runID string, params map[string]any) *Context {
	return &Context{
		ctx:        ctx,
		JobID:      jobID,
		JobName:    jobName,
		PipelineID: pipelineID,
		RunID:      runID,
		Params:     params,
	}
}

// Context 返回底层context.Context（对外导出）
// 用于超时、取消等标准context操作
func (c *Context) Context() context.Context {
	return c.ctx
}

// GetParam 获取参数值，不存在返回nil（对外导出）
func (c *Context) GetParam(key string) any {
	if c.Params == nil {
		return nil
	}
	return c.Params[key]
}

// GetParamString 获取字符串参数（对外导出）
func (c *Context) GetParamString(key string) string {
	val := c.GetParam(key)
	if val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return fmt.Sprintf("%v", val)
}

// GetParamInt 获取整数参数（对外导出）
func (c *Context) GetParamInt(key string) (int, error) {
	val := c.GetParam(key)
	if val == nil {
		return 0, fmt.Errorf("参数 %s 不存在", key)
	}

	switch v := val.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		var i int
		_, err := fmt.Sscanf(v, "%d", &i)
		return i, err
	default:
		return 0, fmt.Errorf("参数 %s 类型不是整数，当前类型: %T", key, val)
	}
}

// GetParamBool 获取布尔参数（对外导出）
func (c *Context) GetParamBool(key string) (bool, error) {
	val := c.GetParam(key)
	if val == nil {
		return false, fmt.Errorf("参数 %s 不存在", key)
	}

	switch v := val.(type) {
	case bool:
		return v, nil
	case string:
		return v == "true" || v == "1" || v == "yes", nil
	default:
		return false, fmt.Errorf("参数 %s 类型不是布尔值，当前类型: %T", key, val)
	}
}

// GetParamStringSlice 获取字符串切片参数（对外导出）
// yaml解析出的列表是[]any，逐项转为字符串
func (c *Context) GetParamStringSlice(key string) []string {
	val := c.GetParam(key)
	if val == nil {
		return nil
	}

	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	default:
		return nil
	}
}

// HasParam 检查参数是否存在（对外导出）
func (c *Context) HasParam(key string) bool {
	if c.Params == nil {
		return false
	}
	_, exists := c.Params[key]
	return exists
}

// Done 返回context的取消通知channel（对外导出）
func (c *Context) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Err 返回context的错误（对外导出）
func (c *Context) Err() error {
	return c.ctx.Err()
}
