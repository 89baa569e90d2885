package executor

// Pool 执行池接口（对外导出）
// 节点只依赖此接口，便于在测试中替换为脚本化的实现
type Pool interface {
	// SubmitAction 提交动作，异步执行；完成时调用 OnComplete 并结束 Handle
	SubmitAction(pending *PendingAction) (*Handle, error)
}

// 确保实现接口
var _ Pool = (*Executor)(nil)
