package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/dag-scheduler/pkg/api/dto"
	"github.com/LENAX/dag-scheduler/pkg/core/engine"
)

// HealthHandler 健康检查处理器，对外报告引擎的调度状况
type HealthHandler struct {
	engine    *engine.Engine
	version   string
	startTime time.Time
}

// NewHealthHandler 创建HealthHandler
func NewHealthHandler(eng *engine.Engine, version string) *HealthHandler {
	return &HealthHandler{
		engine:    eng,
		version:   version,
		startTime: time.Now(),
	}
}

// Health 健康检查，附带流水线数量和进行中的运行数
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	activeRuns := 0
	for _, run := range h.engine.ListRuns("") {
		if !run.IsTerminal() {
			activeRuns++
		}
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.HealthResponse{
		Status:     "healthy",
		Version:    h.version,
		Uptime:     formatDuration(time.Since(h.startTime)),
		Timestamp:  time.Now().Format(time.RFC3339),
		Pipelines:  len(h.engine.ListPipelines()),
		ActiveRuns: activeRuns,
	}))
}

// Ready 就绪检查，引擎停止后返回503供负载均衡摘流
// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.engine.Running() {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(
			http.StatusServiceUnavailable,
			"调度引擎未运行",
		))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(map[string]string{
		"status": "ready",
	}))
}
