package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/depman/pkg/api/dto"
	"github.com/LENAX/depman/pkg/core/engine"
)

// BuildHandler 更新与预演API处理器
type BuildHandler struct {
	engine *engine.Engine
}

// NewBuildHandler 创建BuildHandler
func NewBuildHandler(eng *engine.Engine) *BuildHandler {
	return &BuildHandler{engine: eng}
}

// Build 同步执行一次增量更新
// POST /api/v1/builds
func (h *BuildHandler) Build(c *gin.Context) {
	var req dto.BuildRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("请求参数错误: %v", err)))
			return
		}
	}

	result, err := h.engine.UpdateIDs(c.Request.Context(), req.Targets...)
	if result == nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, err.Error()))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithData(500, err.Error(), result))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}

// Last 最近一次更新结果
// GET /api/v1/builds/last
func (h *BuildHandler) Last(c *gin.Context) {
	result := h.engine.LastRun()
	if result == nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "尚未执行过更新"))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}

// Plan 预演更新，不执行动作
// GET /api/v1/plan?targets=a,b
func (h *BuildHandler) Plan(c *gin.Context) {
	var query dto.PlanQueryRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("查询参数错误: %v", err)))
		return
	}

	targets, err := h.engine.Resolve(query.TargetIDs()...)
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, err.Error()))
		return
	}
	plan, err := h.engine.Plan(c.Request.Context(), targets...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("预演失败: %v", err)))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(plan))
}
