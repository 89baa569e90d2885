package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/depman/pkg/api/dto"
	"github.com/LENAX/depman/pkg/core/engine"
)

// HealthHandler 健康检查处理器
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

// Health 健康检查
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    dto.FormatDuration(time.Since(h.startTime)),
		Nodes:     len(h.engine.Graph().IDs()),
		Timestamp: time.Now().Format(time.RFC3339),
	}))
}
