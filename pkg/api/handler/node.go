package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/depman/pkg/api/dto"
	"github.com/LENAX/depman/pkg/core/engine"
	"github.com/LENAX/depman/pkg/core/node"
)

// NodeHandler 节点查询API处理器
type NodeHandler struct {
	engine *engine.Engine
}

// NewNodeHandler 创建NodeHandler
func NewNodeHandler(eng *engine.Engine) *NodeHandler {
	return &NodeHandler{engine: eng}
}

// List 列出所有节点
// GET /api/v1/nodes
func (h *NodeHandler) List(c *gin.Context) {
	graph := h.engine.Graph()
	ids := graph.IDs()
	items := make([]dto.NodeSummary, 0, len(ids))
	for _, id := range ids {
		n, _ := graph.Node(id)
		items = append(items, summarize(n))
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.NodeSummary]{
		Total: len(items),
		Items: items,
	}))
}

// Get 节点当前哈希、分类和存储记录
// GET /api/v1/nodes/:id
func (h *NodeHandler) Get(c *gin.Context) {
	id := c.Param("id")
	n, ok := h.engine.Graph().Node(id)
	if !ok {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, fmt.Sprintf("节点 %s 不存在", id)))
		return
	}

	record, err := n.Record(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, err.Error()))
		return
	}
	hash, parents, err := n.Snapshot()
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, err.Error()))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NodeDetail{
		NodeSummary: summarize(n),
		CurrentHash: hash,
		State:       node.Classify(record, hash, parents).String(),
		Record:      record,
	}))
}

func summarize(n *node.Node) dto.NodeSummary {
	return dto.NodeSummary{
		ID:      n.ID(),
		Action:  n.Action(),
		Parents: n.ParentIDs(),
	}
}
