package api

import (
	"github.com/gin-gonic/gin"

	"github.com/LENAX/dag-scheduler/pkg/api/handler"
	"github.com/LENAX/dag-scheduler/pkg/api/middleware"
	"github.com/LENAX/dag-scheduler/pkg/core/engine"
)

// SetupRouter 设置路由
func SetupRouter(eng *engine.Engine, version string) *gin.Engine {
	// 设置gin模式
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// 全局中间件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())

	// 创建handlers
	pipelineHandler := handler.NewPipelineHandler(eng)
	runHandler := handler.NewRunHandler(eng)
	healthHandler := handler.NewHealthHandler(eng, version)

	// 健康检查路由（不带前缀）
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		// Pipeline路由
		pipelines := v1.Group("/pipelines")
		{
			pipelines.GET("", pipelineHandler.List)
			pipelines.POST("", pipelineHandler.Upload)
			pipelines.GET("/:id", pipelineHandler.Get)
			pipelines.DELETE("/:id", pipelineHandler.Delete)
			pipelines.POST("/:id/execute", pipelineHandler.Execute)
		}

		// 运行实例路由
		runs := v1.Group("/runs")
		{
			runs.GET("", runHandler.List)
			runs.GET("/:id", runHandler.Get)
			runs.POST("/:id/cancel", runHandler.Cancel)
			runs.GET("/:id/events", runHandler.Events)
		}

		// 函数注册中心路由
		v1.GET("/functions", pipelineHandler.Functions)
	}

	return router
}
