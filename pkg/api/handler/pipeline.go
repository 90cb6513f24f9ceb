package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/dag-scheduler/pkg/api/dto"
	"github.com/LENAX/dag-scheduler/pkg/config"
	"github.com/LENAX/dag-scheduler/pkg/core/engine"
)

// PipelineHandler Pipeline API处理器
type PipelineHandler struct {
	engine *engine.Engine
}

// NewPipelineHandler 创建PipelineHandler
func NewPipelineHandler(eng *engine.Engine) *PipelineHandler {
	return &PipelineHandler{engine: eng}
}

// List 列出所有Pipeline
// GET /api/v1/pipelines
func (h *PipelineHandler) List(c *gin.Context) {
	pipelines := h.engine.ListPipelines()

	items := make([]dto.PipelineSummary, 0, len(pipelines))
	for _, p := range pipelines {
		items = append(items, dto.PipelineSummary{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			JobCount:    len(p.Jobs),
			Status:      p.Status,
			CronExpr:    p.CronExpr,
			CreatedAt:   p.CreateTime,
		})
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.PipelineSummary]{
		Total:   len(items),
		Items:   items,
		HasMore: false,
	}))
}

// Get 获取Pipeline详情
// GET /api/v1/pipelines/:id
func (h *PipelineHandler) Get(c *gin.Context) {
	id := c.Param("id")

	p, err := h.engine.GetPipeline(id)
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "Pipeline不存在"))
		return
	}

	jobs := make([]dto.JobSummary, 0, len(p.Jobs))
	for _, j := range p.Jobs {
		summary := dto.JobSummary{
			ID:          j.ID,
			Name:        j.Name,
			FuncName:    j.FuncName,
			Description: j.Description,
		}
		if j.Timeout > 0 {
			summary.Timeout = j.Timeout.String()
		}
		jobs = append(jobs, summary)
	}

	detail := dto.PipelineDetail{
		PipelineSummary: dto.PipelineSummary{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			JobCount:    len(jobs),
			Status:      p.Status,
			CronExpr:    p.CronExpr,
			CreatedAt:   p.CreateTime,
		},
		Jobs:         jobs,
		Dependencies: p.Dependencies,
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(detail))
}

// Upload 上传Pipeline定义
// POST /api/v1/pipelines
func (h *PipelineHandler) Upload(c *gin.Context) {
	var req dto.UploadPipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("请求参数错误: %v", err)))
		return
	}

	cfg, err := config.ParsePipelineConfig([]byte(req.Content))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("解析Pipeline定义失败: %v", err)))
		return
	}

	pipelines, err := h.engine.AddPipelineConfig(cfg)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("注册Pipeline失败: %v", err)))
		return
	}

	items := make([]dto.PipelineSummary, 0, len(pipelines))
	for _, p := range pipelines {
		items = append(items, dto.PipelineSummary{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			JobCount:    len(p.Jobs),
			Status:      p.Status,
			CronExpr:    p.CronExpr,
			CreatedAt:   p.CreateTime,
		})
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.PipelineSummary]{
		Total: len(items),
		Items: items,
	}))
}

// Delete 删除Pipeline
// DELETE /api/v1/pipelines/:id
func (h *PipelineHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.engine.RemovePipeline(id); err != nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, fmt.Sprintf("删除Pipeline失败: %v", err)))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(map[string]string{
		"message": "删除成功",
		"id":      id,
	}))
}

// Execute 触发Pipeline执行
// POST /api/v1/pipelines/:id/execute
func (h *PipelineHandler) Execute(c *gin.Context) {
	id := c.Param("id")

	run, err := h.engine.ExecutePipeline(id)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("执行Pipeline失败: %v", err)))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ExecuteResponse{
		RunID:   run.ID,
		Message: "Pipeline已提交执行",
	}))
}

// Functions 列出所有已注册的Job函数
// GET /api/v1/functions
func (h *PipelineHandler) Functions(c *gin.Context) {
	metas := h.engine.Registry().ListAll()

	items := make([]dto.FuncSummary, 0, len(metas))
	for _, meta := range metas {
		items = append(items, dto.FuncSummary{
			ID:          meta.ID,
			Name:        meta.Name,
			Description: meta.Description,
		})
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.FuncSummary]{
		Total: len(items),
		Items: items,
	}))
}
