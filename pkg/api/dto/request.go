package dto

// UploadPipelineRequest 上传Pipeline定义请求
// Content为YAML格式的流水线定义文件内容
type UploadPipelineRequest struct {
	Content string `json:"content" binding:"required"`
}

// RunsQueryRequest 运行列表查询参数
type RunsQueryRequest struct {
	PipelineID string `form:"pipeline_id"`
	Status     string `form:"status"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
}

// GetDefaultLimit 获取带默认值的limit
func (r *RunsQueryRequest) GetDefaultLimit() int {
	if r.Limit <= 0 {
		return 20
	}
	return r.Limit
}
