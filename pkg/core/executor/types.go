package executor

import (
	"sync"
	"time"
)

// 动作执行结果状态
const (
	StatusSuccess       = "Success"
	StatusFailed        = "Failed"
	StatusTimeoutFailed = "TimeoutFailed"
)

// PendingAction 待执行的节点动作（对外导出）
type PendingAction struct {
	NodeID     string              // 节点ID（传给动作函数）
	ActionName string              // 动作名称（由Registry解析）
	RunID      string              // 所属更新运行ID，通过context传给动作
	OnComplete func(*ActionResult) // 完成回调，恰好调用一次
}

// ActionResult 动作执行结果（对外导出）
type ActionResult struct {
	NodeID     string
	ActionName string
	Status     string // Success/Failed/TimeoutFailed
	Error      error
	StartedAt  time.Time
	Duration   int64 // 执行时长（毫秒）
}

// Succeeded 是否执行成功
func (r *ActionResult) Succeeded() bool {
	return r != nil && r.Status == StatusSuccess
}

// Handle 已提交动作的句柄（对外导出）
// 所有方法都是非阻塞的，Done() 可用于等待
type Handle struct {
	nodeID string
	once   sync.Once
	done   chan struct{}
	result *ActionResult
}

// NewHandle 创建未完成的句柄，供其他 Pool 实现使用
func NewHandle(nodeID string) *Handle {
	return &Handle{nodeID: nodeID, done: make(chan struct{})}
}

// NodeID 返回节点ID
func (h *Handle) NodeID() string {
	return h.nodeID
}

// Done 返回完成信号channel
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// IsDone 动作是否已结束
func (h *Handle) IsDone() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Succeeded 动作是否已结束且成功；未结束时返回false
func (h *Handle) Succeeded() bool {
	if !h.IsDone() {
		return false
	}
	return h.result.Succeeded()
}

// Result 返回执行结果；未结束时返回nil
func (h *Handle) Result() *ActionResult {
	if !h.IsDone() {
		return nil
	}
	return h.result
}

// Err 返回动作错误；未结束或成功时返回nil
func (h *Handle) Err() error {
	if r := h.Result(); r != nil {
		return r.Error
	}
	return nil
}

// Complete 记录结果并关闭完成信号，重复调用会被忽略
func (h *Handle) Complete(result *ActionResult) {
	h.once.Do(func() {
		h.result = result
		close(h.done)
	})
}
