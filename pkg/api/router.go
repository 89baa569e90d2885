package api

import (
	"github.com/gin-gonic/gin"

	"github.com/LENAX/depman/pkg/api/handler"
	"github.com/LENAX/depman/pkg/api/middleware"
	"github.com/LENAX/depman/pkg/core/engine"
)

// SetupRouter 设置路由
func SetupRouter(eng *engine.Engine, version string) *gin.Engine {
	// 设置gin模式
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// 全局中间件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	// 创建handlers
	buildHandler := handler.NewBuildHandler(eng)
	nodeHandler := handler.NewNodeHandler(eng)
	eventHandler := handler.NewEventHandler(eng)
	healthHandler := handler.NewHealthHandler(eng, version)

	// 健康检查路由（不带前缀）
	router.GET("/health", healthHandler.Health)

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		builds := v1.Group("/builds")
		{
			builds.POST("", buildHandler.Build)
			builds.GET("/last", buildHandler.Last)
		}
		v1.GET("/plan", buildHandler.Plan)

		nodes := v1.Group("/nodes")
		{
			nodes.GET("", nodeHandler.List)
			nodes.GET("/:id", nodeHandler.Get)
		}

		v1.GET("/events", eventHandler.Stream)
	}

	return router
}
