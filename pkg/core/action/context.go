package action

import "context"

// context key类型，用于类型安全的context.Value访问
type contextKey string

const (
	// RunIDKey 更新运行ID在context中的key
	RunIDKey contextKey = "depman.run.id"
	// ActionNameKey 动作名称在context中的key
	ActionNameKey contextKey = "depman.action.name"
)

// WithRunID 将运行ID添加到context中（对外导出）
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// RunIDFrom 从context中获取运行ID，不存在时返回空字符串
func RunIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(RunIDKey).(string); ok {
		return id
	}
	return ""
}

// WithActionName 将动作名称添加到context中（对外导出）
func WithActionName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ActionNameKey, name)
}

// ActionNameFrom 从context中获取动作名称
func ActionNameFrom(ctx context.Context) string {
	if name, ok := ctx.Value(ActionNameKey).(string); ok {
		return name
	}
	return ""
}
