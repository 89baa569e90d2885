package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/LENAX/depman/pkg/api/dto"
	"github.com/LENAX/depman/pkg/core/engine"
	"github.com/LENAX/depman/pkg/core/events"
)

const (
	writeWait          = 10 * time.Second
	clientBuffer       = 256
	clientBackpressure = 0.8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// EventHandler 构建事件推送处理器
type EventHandler struct {
	engine *engine.Engine
}

// NewEventHandler 创建EventHandler
func NewEventHandler(eng *engine.Engine) *EventHandler {
	return &EventHandler{engine: eng}
}

// Stream 以websocket推送构建事件，每条消息是一个JSON事件
// GET /api/v1/events
func (h *EventHandler) Stream(c *gin.Context) {
	bus := h.engine.Bus()
	if bus == nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(503, "事件总线未配置"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ [事件推送] 升级websocket失败: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub, err := bus.Subscribe(ctx)
	if err != nil {
		log.Printf("❌ [事件推送] 订阅失败: %v", err)
		return
	}

	// 客户端关闭连接时结束推送
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// 慢客户端只丢弃自己的事件，不拖慢总线
	buf := events.NewBuffer(clientBuffer, clientBackpressure)
	remote := conn.RemoteAddr().String()
	buf.SetBackpressureCallback(func(usage float64) {
		log.Printf("⚠️ [事件推送] 客户端 %s 消费过慢，缓冲区使用率 %.0f%%", remote, usage*100)
	})
	go func() {
		defer cancel()
		for event := range sub {
			buf.Push(event)
		}
	}()

	for {
		event, ok := buf.PopWithDone(ctx.Done())
		if !ok {
			_, _, dropped := buf.Stats()
			if dropped > 0 {
				log.Printf("⚠️ [事件推送] 客户端 %s 断开，丢弃事件 %d 条", remote, dropped)
			}
			return
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}
