package node

import (
	"errors"
	"fmt"
)

// 错误类型（对外导出），通过 errors.Is 判断
var (
	ErrPrecondition  = errors.New("前置条件不满足")
	ErrActionFailed  = errors.New("动作执行失败")
	ErrStore         = errors.New("哈希存储读写失败")
	ErrHash          = errors.New("内容哈希计算失败")
	ErrCycle         = errors.New("检测到循环依赖")
	ErrDuplicateID   = errors.New("节点ID重复")
	ErrUnknownAction = errors.New("动作未注册")
	ErrInvalidState  = errors.New("非法状态转换")
	ErrForeignParent = errors.New("父节点不属于当前图")
)

// NodeError 带节点ID的错误（对外导出）
type NodeError struct {
	Kind   error  // 错误类型，见上方变量
	NodeID string // 出错的节点
	Err    error  // 底层原因，可为nil
}

func (e *NodeError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("节点 %s: %s", e.NodeID, e.Kind)
	}
	return fmt.Sprintf("节点 %s: %s: %v", e.NodeID, e.Kind, e.Err)
}

// Is 按错误类型匹配
func (e *NodeError) Is(target error) bool {
	return e.Kind == target
}

func (e *NodeError) Unwrap() error { return e.Err }

func newError(kind error, nodeID string, err error) *NodeError {
	return &NodeError{Kind: kind, NodeID: nodeID, Err: err}
}

// FailedNode 返回错误链上第一个 NodeError 的节点ID
func FailedNode(err error) (string, bool) {
	var ne *NodeError
	if errors.As(err, &ne) {
		return ne.NodeID, true
	}
	return "", false
}
