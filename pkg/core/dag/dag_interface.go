// Package dag 提供依赖图的遍历与分层
package dag

// Vertex 图顶点接口（对外导出）
// 顶点身份只由 ID 决定，Parents 返回有序父顶点
type Vertex[T any] interface {
	ID() string
	Parents() []T
}
