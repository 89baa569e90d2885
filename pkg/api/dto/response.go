package dto

import (
	"time"

	"github.com/LENAX/depman/pkg/storage"
)

// APIResponse 通用API响应结构
type APIResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) APIResponse[any] {
	return APIResponse[any]{
		Code:    code,
		Message: message,
	}
}

// NewErrorResponseWithData 创建携带数据的错误响应
func NewErrorResponseWithData[T any](code int, message string, data T) APIResponse[T] {
	return APIResponse[T]{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// NodeSummary 节点摘要信息
type NodeSummary struct {
	ID      string   `json:"id"`
	Action  string   `json:"action"`
	Parents []string `json:"parents"`
}

// NodeDetail 节点详细信息
type NodeDetail struct {
	NodeSummary
	CurrentHash string              `json:"current_hash"`
	State       string              `json:"state"`
	Record      *storage.HashRecord `json:"record,omitempty"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Nodes     int    `json:"nodes"`
	Timestamp string `json:"timestamp"`
}

// ListResponse 列表响应
type ListResponse[T any] struct {
	Total int `json:"total"`
	Items []T `json:"items"`
}

// FormatDuration 格式化持续时间
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
