// Package plugin 在构建事件发生时触发通知插件
package plugin

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/LENAX/depman/pkg/core/events"
)

// Plugin 插件接口（对外导出）
type Plugin interface {
	// Name 插件名称，全局唯一
	Name() string
	// Init 使用绑定参数初始化
	Init(params map[string]string) error
	// Execute 处理一次事件，data 为 PluginData
	Execute(data interface{}) error
}

// PluginBinding 插件绑定规则（对外导出）
type PluginBinding struct {
	PluginName string              // 插件名称
	Event      events.EventType    // 触发事件
	Condition  func(data any) bool // 可选：条件函数，满足条件才触发
}

// PluginData 传递给插件的数据（对外导出）
type PluginData struct {
	Event  events.EventType  // 触发事件
	RunID  string            // 更新运行ID
	NodeID string            // 节点ID（如果有）
	State  string            // 节点分类结果（如果有）
	Error  string            // 错误信息（如果有）
	Data   map[string]string // 事件元数据
}

// NewPluginData 从构建事件生成插件数据
func NewPluginData(e *events.Event) PluginData {
	return PluginData{
		Event:  e.Type,
		RunID:  e.RunID,
		NodeID: e.NodeID,
		State:  e.State,
		Error:  e.Error,
		Data:   e.Metadata,
	}
}

// PluginManager 插件管理器接口（对外导出）
type PluginManager interface {
	events.Publisher
	// Register 注册插件
	Register(plugin Plugin) error
	// RegisterWithInit 注册并初始化插件
	RegisterWithInit(plugin Plugin, params map[string]string) error
	// Bind 绑定插件到事件
	Bind(binding PluginBinding) error
	// Trigger 同步触发插件
	Trigger(ctx context.Context, data PluginData) error
	// GetPlugin 获取已注册的插件
	GetPlugin(name string) (Plugin, bool)
	// ListPlugins 列出所有已注册的插件
	ListPlugins() []string
	// Unregister 取消注册插件
	Unregister(name string) error
	// Wait 等待异步触发的插件执行完
	Wait()
}

// pluginManagerImpl 插件管理器实现（内部实现）
type pluginManagerImpl struct {
	plugins  map[string]Plugin                    // 已注册的插件（插件名称 -> 插件实例）
	bindings map[events.EventType][]PluginBinding // 事件绑定（事件类型 -> 绑定列表）
	mu       sync.RWMutex                         // 读写锁
	wg       sync.WaitGroup
}

// NewPluginManager 创建插件管理器（对外导出）
func NewPluginManager() PluginManager {
	return &pluginManagerImpl{
		plugins:  make(map[string]Plugin),
		bindings: make(map[events.EventType][]PluginBinding),
	}
}

// Register 注册插件（实现PluginManager接口）
func (pm *pluginManagerImpl) Register(plugin Plugin) error {
	if plugin == nil {
		return fmt.Errorf("插件不能为空")
	}

	name := plugin.Name()
	if name == "" {
		return fmt.Errorf("插件名称不能为空")
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	if _, exists := pm.plugins[name]; exists {
		return fmt.Errorf("插件 %s 已注册", name)
	}

	pm.plugins[name] = plugin
	return nil
}

// RegisterWithInit 注册并初始化插件（实现PluginManager接口）
func (pm *pluginManagerImpl) RegisterWithInit(plugin Plugin, params map[string]string) error {
	if err := pm.Register(plugin); err != nil {
		return err
	}

	if err := plugin.Init(params); err != nil {
		// 初始化失败，移除已注册的插件
		pm.mu.Lock()
		delete(pm.plugins, plugin.Name())
		pm.mu.Unlock()
		return fmt.Errorf("插件 %s 初始化失败: %w", plugin.Name(), err)
	}

	return nil
}

// Bind 绑定插件到事件（实现PluginManager接口）
func (pm *pluginManagerImpl) Bind(binding PluginBinding) error {
	if binding.PluginName == "" {
		return fmt.Errorf("插件名称不能为空")
	}
	if binding.Event == "" {
		return fmt.Errorf("触发事件不能为空")
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	if _, exists := pm.plugins[binding.PluginName]; !exists {
		return fmt.Errorf("插件 %s 未注册", binding.PluginName)
	}
	pm.bindings[binding.Event] = append(pm.bindings[binding.Event], binding)
	return nil
}

// Publish 实现 events.Publisher，在后台协程中触发绑定的插件
func (pm *pluginManagerImpl) Publish(event *events.Event) {
	pm.mu.RLock()
	bound := len(pm.bindings[event.Type]) > 0
	pm.mu.RUnlock()
	if !bound {
		return
	}

	pm.wg.Add(1)
	go func() {
		defer pm.wg.Done()
		if err := pm.Trigger(context.Background(), NewPluginData(event)); err != nil {
			log.Printf("⚠️ [插件] %v", err)
		}
	}()
}

// Wait 等待异步触发的插件执行完
func (pm *pluginManagerImpl) Wait() {
	pm.wg.Wait()
}

// Trigger 触发插件（实现PluginManager接口）
func (pm *pluginManagerImpl) Trigger(ctx context.Context, data PluginData) error {
	pm.mu.RLock()
	bindings := append([]PluginBinding(nil), pm.bindings[data.Event]...)
	pm.mu.RUnlock()

	var errs []error
	for _, binding := range bindings {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if binding.Condition != nil && !binding.Condition(data) {
			continue
		}

		pm.mu.RLock()
		plugin, exists := pm.plugins[binding.PluginName]
		pm.mu.RUnlock()
		if !exists {
			continue
		}

		if err := plugin.Execute(data); err != nil {
			errs = append(errs, fmt.Errorf("插件 %s 执行失败: %w", binding.PluginName, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("触发插件失败: %v", errs)
	}
	return nil
}

// GetPlugin 获取已注册的插件（实现PluginManager接口）
func (pm *pluginManagerImpl) GetPlugin(name string) (Plugin, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	plugin, exists := pm.plugins[name]
	return plugin, exists
}

// ListPlugins 列出所有已注册的插件（实现PluginManager接口）
func (pm *pluginManagerImpl) ListPlugins() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	names := make([]string, 0, len(pm.plugins))
	for name := range pm.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unregister 取消注册插件（实现PluginManager接口）
func (pm *pluginManagerImpl) Unregister(name string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if _, exists := pm.plugins[name]; !exists {
		return fmt.Errorf("插件 %s 未注册", name)
	}
	delete(pm.plugins, name)

	// 移除所有相关的绑定
	for event := range pm.bindings {
		filtered := make([]PluginBinding, 0)
		for _, binding := range pm.bindings[event] {
			if binding.PluginName != name {
				filtered = append(filtered, binding)
			}
		}
		pm.bindings[event] = filtered
	}
	return nil
}
