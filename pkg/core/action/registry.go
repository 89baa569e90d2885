// Package action 定义节点动作（payload）及其注册中心
package action

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
)

// NoopName 默认动作名称
const NoopName = "noop"

// Func 节点动作函数签名（对外导出）
// nodeID: 被更新节点的ID；返回nil表示成功
// 同一个nodeID可能在不同的运行中被多次调用，实现必须可重入
type Func func(ctx context.Context, nodeID string) error

// Noop 默认动作：什么也不做，总是成功
func Noop(ctx context.Context, nodeID string) error {
	log.Printf("Node %s: executing payload ...", nodeID)
	return nil
}

// Registry 动作注册中心（对外导出）
// 节点只保存动作名称，执行时由Executor按名称解析，保证动作引用稳定
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Func
}

// NewRegistry 创建动作注册中心，预置 noop 动作（对外导出）
func NewRegistry() *Registry {
	r := &Registry{
		actions: make(map[string]Func),
	}
	r.actions[NoopName] = Noop
	return r
}

// Register 注册动作（对外导出）
// 名称重复时返回错误，避免同名动作被静默替换
func (r *Registry) Register(name string, fn Func) error {
	if name == "" {
		return fmt.Errorf("动作名称不能为空")
	}
	if fn == nil {
		return fmt.Errorf("动作 %s 不能为nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[name]; exists {
		return fmt.Errorf("动作 %s 已注册", name)
	}
	r.actions[name] = fn
	return nil
}

// MustRegister 注册动作，失败时panic（用于初始化阶段）
func (r *Registry) MustRegister(name string, fn Func) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Get 根据名称获取动作，未注册时返回nil（对外导出）
func (r *Registry) Get(name string) Func {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.actions[name]
}

// Exists 检查动作是否已注册（对外导出）
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.actions[name]
	return exists
}

// Unregister 注销动作（对外导出）
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[name]; !exists {
		return fmt.Errorf("动作 %s 未注册", name)
	}
	delete(r.actions, name)
	return nil
}

// ListAll 列出所有已注册的动作名称（按名称排序）
func (r *Registry) ListAll() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
