// Package events 提供构建过程事件的发布与订阅
package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType 事件类型
type EventType string

const (
	// 运行事件
	EventRunStarted  EventType = "run.started"  // 更新运行开始
	EventRunFinished EventType = "run.finished" // 更新运行成功结束
	EventRunFailed   EventType = "run.failed"   // 更新运行失败

	// 节点事件
	EventNodeDispatched EventType = "node.dispatched" // 动作已提交到执行池
	EventNodeUpToDate   EventType = "node.uptodate"   // 无需重新计算
	EventNodeUpdated    EventType = "node.updated"    // 动作成功并已提交哈希
	EventNodeFailed     EventType = "node.failed"     // 动作失败
)

// Topic 事件主题
const Topic = "depman.events"

// Event 构建事件（对外导出）
type Event struct {
	ID        string            `json:"id"`                // 事件ID（UUID）
	Type      EventType         `json:"type"`              // 事件类型
	RunID     string            `json:"run_id,omitempty"`  // 关联运行ID
	NodeID    string            `json:"node_id,omitempty"` // 关联节点ID
	State     string            `json:"state,omitempty"`   // 节点分类结果
	Error     string            `json:"error,omitempty"`   // 错误信息
	Timestamp time.Time         `json:"timestamp"`         // 事件时间
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewEvent 创建事件
func NewEvent(eventType EventType, runID, nodeID string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RunID:     runID,
		NodeID:    nodeID,
		Timestamp: time.Now(),
	}
}

// WithState 设置节点分类结果
func (e *Event) WithState(state string) *Event {
	e.State = state
	return e
}

// WithError 设置错误信息
func (e *Event) WithError(err error) *Event {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithMetadata 添加元数据
func (e *Event) WithMetadata(key, value string) *Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// Publisher 事件发布接口（对外导出）
// 发布必须是非阻塞的，不能拖慢调度
type Publisher interface {
	Publish(event *Event)
}

// Nop 丢弃所有事件的发布者
type Nop struct{}

// Publish 丢弃事件
func (Nop) Publish(*Event) {}

// Fanout 将事件依次转发给多个发布者
type Fanout []Publisher

// Publish 转发事件，nil 发布者被跳过
func (f Fanout) Publish(event *Event) {
	for _, p := range f {
		if p != nil {
			p.Publish(event)
		}
	}
}
