package handler

import (
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/LENAX/dag-scheduler/pkg/api/dto"
	"github.com/LENAX/dag-scheduler/pkg/core/engine"
	"github.com/LENAX/dag-scheduler/pkg/core/pipeline"
)

// RunHandler 运行实例API处理器
type RunHandler struct {
	engine   *engine.Engine
	upgrader websocket.Upgrader
}

// NewRunHandler 创建RunHandler
func NewRunHandler(eng *engine.Engine) *RunHandler {
	return &RunHandler{
		engine: eng,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// List 列出运行实例
// GET /api/v1/runs
func (h *RunHandler) List(c *gin.Context) {
	var query dto.RunsQueryRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("查询参数错误: %v", err)))
		return
	}

	runs := h.engine.ListRuns(query.PipelineID)
	if query.Status != "" {
		filtered := runs[:0]
		for _, run := range runs {
			if run.Status == query.Status {
				filtered = append(filtered, run)
			}
		}
		runs = filtered
	}

	// 按开始时间倒序
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartTime.After(runs[j].StartTime)
	})

	// 分页
	limit := query.GetDefaultLimit()
	offset := query.Offset
	total := len(runs)
	if offset >= total {
		runs = nil
	} else {
		end := offset + limit
		if end > total {
			end = total
		}
		runs = runs[offset:end]
	}

	items := make([]dto.RunSummary, 0, len(runs))
	for _, run := range runs {
		items = append(items, buildRunSummary(run))
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.RunSummary]{
		Total:   total,
		Items:   items,
		HasMore: offset+limit < total,
	}))
}

// Get 获取运行实例详情
// GET /api/v1/runs/:id
func (h *RunHandler) Get(c *gin.Context) {
	id := c.Param("id")

	run, err := h.engine.GetRun(id)
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "运行实例不存在"))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.RunDetail{
		RunSummary: buildRunSummary(run),
		JobStates:  run.JobStates,
	}))
}

// Cancel 取消运行
// POST /api/v1/runs/:id/cancel
func (h *RunHandler) Cancel(c *gin.Context) {
	id := c.Param("id")

	if err := h.engine.CancelRun(id); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("取消运行失败: %v", err)))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(map[string]string{
		"message": "已发出取消请求",
		"run_id":  id,
	}))
}

// Events 通过WebSocket推送运行事件
// GET /api/v1/runs/:id/events
// id为"all"时推送全部运行的事件
func (h *RunHandler) Events(c *gin.Context) {
	id := c.Param("id")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ WebSocket升级失败: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	events, err := h.engine.Bus().Subscribe(ctx)
	if err != nil {
		_ = conn.WriteJSON(dto.NewErrorResponse(500, fmt.Sprintf("订阅事件失败: %v", err)))
		return
	}

	for event := range events {
		if id != "all" && event.RunID != id {
			continue
		}
		if err := conn.WriteJSON(event); err != nil {
			// 客户端断开
			return
		}
	}
}

// buildRunSummary 把运行实例转换为摘要
func buildRunSummary(run *pipeline.Run) dto.RunSummary {
	summary := dto.RunSummary{
		ID:           run.ID,
		PipelineID:   run.PipelineID,
		PipelineName: run.PipelineName,
		Status:       run.Status,
		StartedAt:    run.StartTime,
		FinishedAt:   run.EndTime,
		ErrorMessage: run.ErrorMessage,
	}
	if run.EndTime != nil {
		summary.Duration = formatDuration(run.EndTime.Sub(run.StartTime))
	}
	return summary
}

// formatDuration 格式化时长
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
