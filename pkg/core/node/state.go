package node

import "fmt"

// State 节点陈旧度分类结果
type State int

const (
	StateUndefined      State = iota // 本次运行尚未分类
	StateNew                         // 存储中没有记录
	StateChanged                     // 自身内容哈希变化
	StateParentsNumber               // 父节点集合变化
	StateParentsOrder                // 父节点顺序变化
	StateParentsChanged              // 父节点内容变化
	StateOK                          // 无需重新计算
)

var stateNames = map[State]string{
	StateUndefined:      "undefined",
	StateNew:            "new",
	StateChanged:        "changed",
	StateParentsNumber:  "parents_number",
	StateParentsOrder:   "parents_order",
	StateParentsChanged: "parents_changed",
	StateOK:             "ok",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// NeedsRebuild 除 ok 以外的分类都需要执行动作
func (s State) NeedsRebuild() bool {
	return s != StateOK && s != StateUndefined
}

// MarshalText 以名称序列化
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText 按名称解析
func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("未知的节点分类: %q", text)
}

// Status 节点在一次更新运行中的生命周期状态
type Status int

const (
	StatusPending          Status = iota // 初始
	StatusWaitingOnParents               // 有父节点尚未更新
	StatusClassifying                    // 父节点全部更新，正在分类
	StatusDispatched                     // 动作已提交，等待结果
	StatusUpdated                        // 成功（终态）
	StatusFailed                         // 失败（终态，不重试）
)

var statusNames = map[Status]string{
	StatusPending:          "pending",
	StatusWaitingOnParents: "waiting_on_parents",
	StatusClassifying:      "classifying",
	StatusDispatched:       "dispatched",
	StatusUpdated:          "updated",
	StatusFailed:           "failed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText 以名称序列化
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsTerminal 是否为终态
func (s Status) IsTerminal() bool {
	return s == StatusUpdated || s == StatusFailed
}

// 允许的状态转换，任何非终态都可以转为 failed
var transitions = map[Status][]Status{
	StatusPending:          {StatusWaitingOnParents, StatusClassifying},
	StatusWaitingOnParents: {StatusWaitingOnParents, StatusClassifying},
	StatusClassifying:      {StatusDispatched, StatusUpdated},
	StatusDispatched:       {StatusUpdated},
}

func canTransition(from, to Status) bool {
	if to == StatusFailed {
		return !from.IsTerminal()
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
