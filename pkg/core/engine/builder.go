package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"

	internalstorage "github.com/LENAX/depman/internal/storage"
	"github.com/LENAX/depman/pkg/config"
	"github.com/LENAX/depman/pkg/core/action"
	"github.com/LENAX/depman/pkg/core/events"
	"github.com/LENAX/depman/pkg/core/executor"
	"github.com/LENAX/depman/pkg/core/node"
	"github.com/LENAX/depman/pkg/graphfile"
	"github.com/LENAX/depman/pkg/plugin"
	"github.com/LENAX/depman/pkg/storage"
)

// EngineBuilder 引擎构建器（链式调用）
// 按配置依次创建存储、执行池、事件总线、插件、图和引擎
type EngineBuilder struct {
	configPath string
	cfg        *config.EngineConfig
	graphFile  string
	registry   *action.Registry
	store      storage.HashStore
	plugins    map[string]pluginEntry
	bindings   []plugin.PluginBinding
	publishers []events.Publisher
	err        error
}

type pluginEntry struct {
	plugin plugin.Plugin
	params map[string]string
}

// resources 构建器创建并由引擎负责释放的资源
type resources struct {
	cfg       *config.EngineConfig
	spec      *graphfile.Spec
	store     storage.HashStore
	ownStore  bool
	executor  *executor.Executor
	bus       *events.Bus
	plugins   plugin.PluginManager
	closeOnce sync.Once
	closeErr  error
}

// NewEngineBuilder 创建引擎构建器（入口）
// configPath 为空或文件不存在时使用默认配置
func NewEngineBuilder(configPath string) *EngineBuilder {
	return &EngineBuilder{
		configPath: configPath,
		registry:   action.NewRegistry(),
		plugins:    make(map[string]pluginEntry),
	}
}

// WithConfig 直接使用已加载的配置（链式）
func (b *EngineBuilder) WithConfig(cfg *config.EngineConfig) *EngineBuilder {
	if b.err != nil {
		return b
	}
	if cfg == nil {
		b.err = errors.New("config is nil")
		return b
	}
	b.cfg = cfg
	return b
}

// WithGraphFile 覆盖配置中的图文件路径（链式）
func (b *EngineBuilder) WithGraphFile(path string) *EngineBuilder {
	if b.err != nil {
		return b
	}
	b.graphFile = path
	return b
}

// WithAction 注册命名动作，图文件可通过 action 引用（链式）
func (b *EngineBuilder) WithAction(name string, fn action.Func) *EngineBuilder {
	if b.err != nil {
		return b
	}
	if err := b.registry.Register(name, fn); err != nil {
		b.err = err
	}
	return b
}

// WithStore 使用外部创建的哈希存储，替代配置中的存储（链式）
func (b *EngineBuilder) WithStore(store storage.HashStore) *EngineBuilder {
	if b.err != nil {
		return b
	}
	if store == nil {
		b.err = errors.New("hash store is nil")
		return b
	}
	b.store = store
	return b
}

// WithPlugin 注册插件，Build 时使用 params 初始化（链式）
func (b *EngineBuilder) WithPlugin(p plugin.Plugin, params map[string]string) *EngineBuilder {
	if b.err != nil {
		return b
	}
	if p == nil {
		b.err = errors.New("plugin cannot be nil")
		return b
	}
	name := p.Name()
	if name == "" {
		b.err = errors.New("plugin name cannot be empty")
		return b
	}
	b.plugins[name] = pluginEntry{plugin: p, params: params}
	return b
}

// WithPluginBinding 绑定插件到事件（链式）
func (b *EngineBuilder) WithPluginBinding(binding plugin.PluginBinding) *EngineBuilder {
	if b.err != nil {
		return b
	}
	if binding.PluginName == "" {
		b.err = errors.New("plugin name cannot be empty")
		return b
	}
	if binding.Event == "" {
		b.err = errors.New("trigger event cannot be empty")
		return b
	}
	if _, exists := b.plugins[binding.PluginName]; !exists {
		b.err = fmt.Errorf("plugin %s not registered, please register it first using WithPlugin", binding.PluginName)
		return b
	}
	b.bindings = append(b.bindings, binding)
	return b
}

// WithPublisher 追加事件接收者（链式）
func (b *EngineBuilder) WithPublisher(p events.Publisher) *EngineBuilder {
	if b.err != nil {
		return b
	}
	if p != nil {
		b.publishers = append(b.publishers, p)
	}
	return b
}

// Build 构建引擎实例（最终步骤）
// 返回的引擎持有存储、执行池和事件总线，使用完毕后必须调用 Close
func (b *EngineBuilder) Build() (*Engine, error) {
	if b.err != nil {
		return nil, b.err
	}

	// 1. 加载引擎配置
	cfg := b.cfg
	if cfg == nil {
		loaded, err := config.Load(b.configPath)
		if err != nil {
			return nil, fmt.Errorf("load engine config failed: %w", err)
		}
		cfg = loaded
	}

	// 2. 加载图文件
	graphFile := b.graphFile
	if graphFile == "" {
		graphFile = cfg.Depman.Graph.File
	}
	spec, err := graphfile.Load(graphFile)
	if err != nil {
		return nil, fmt.Errorf("load graph file failed: %w", err)
	}

	rt := &resources{cfg: cfg, spec: spec}
	ok := false
	defer func() {
		if !ok {
			rt.close()
		}
	}()

	// 3. 初始化存储层
	if rt.store, err = b.initStore(cfg); err != nil {
		return nil, fmt.Errorf("init storage failed: %w", err)
	}
	rt.ownStore = b.store == nil

	// 4. 启动执行池
	rt.executor, err = executor.NewExecutor(b.registry, executor.Options{
		MaxWorkers:    cfg.GetWorkerConcurrency(),
		ActionTimeout: cfg.Depman.Execution.ActionTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create executor failed: %w", err)
	}
	rt.executor.Start()

	// 5. 事件总线与插件
	rt.bus = events.NewBus(cfg.IsVerbose())
	if rt.plugins, err = b.initPlugins(cfg); err != nil {
		return nil, err
	}
	publishers := append(events.Fanout{rt.bus, rt.plugins}, b.publishers...)

	// 6. 构建依赖图
	graph, err := node.NewGraph(rt.store, rt.executor,
		node.WithPublisher(publishers),
		node.WithVerbose(cfg.IsVerbose()),
		node.WithActions(b.registry),
	)
	if err != nil {
		return nil, err
	}
	if _, err := graphfile.Build(spec, graph, b.registry); err != nil {
		return nil, fmt.Errorf("build graph failed: %w", err)
	}

	eng, err := NewEngine(graph, Options{PollInterval: cfg.GetPollInterval()})
	if err != nil {
		return nil, err
	}
	eng.rt = rt
	ok = true

	log.Printf("✅ 引擎构建完成: 图文件=%s, 节点数=%d, 存储=%s", graphFile, len(spec.Nodes), cfg.GetDatabaseType())
	return eng, nil
}

// initStore 按配置创建哈希存储
func (b *EngineBuilder) initStore(cfg *config.EngineConfig) (storage.HashStore, error) {
	if b.store != nil {
		return b.store, nil
	}
	store, err := internalstorage.NewHashStore(cfg.GetDatabaseType(), cfg.GetDatabaseDSN())
	if err != nil {
		return nil, err
	}

	// SQLite 固定单连接，其他数据库按配置设置连接池
	if sqlStore, ok := store.(*storage.SQLHashStore); ok && cfg.GetDatabaseType() != internalstorage.TypeSQLite {
		db := cfg.Depman.Storage.Database
		sqlStore.GetDB().SetMaxOpenConns(db.MaxOpenConns)
		sqlStore.GetDB().SetMaxIdleConns(db.MaxIdleConns)
		sqlStore.GetDB().SetConnMaxLifetime(db.ConnMaxLifetime)
	}
	return store, nil
}

// initPlugins 注册插件和绑定，配置启用邮件通知时加入邮件插件
func (b *EngineBuilder) initPlugins(cfg *config.EngineConfig) (plugin.PluginManager, error) {
	pm := plugin.NewPluginManager()
	for name, entry := range b.plugins {
		if err := pm.RegisterWithInit(entry.plugin, entry.params); err != nil {
			return nil, fmt.Errorf("register plugin %s failed: %w", name, err)
		}
	}
	for _, binding := range b.bindings {
		if err := pm.Bind(binding); err != nil {
			return nil, err
		}
	}

	email := cfg.Depman.Notify.Email
	if !email.Enabled {
		return pm, nil
	}
	mail := plugin.NewEmailPlugin()
	if err := pm.RegisterWithInit(mail, email.Params()); err != nil {
		return nil, err
	}
	for _, e := range email.Events {
		if err := pm.Bind(plugin.PluginBinding{PluginName: mail.Name(), Event: events.EventType(e)}); err != nil {
			return nil, err
		}
	}
	return pm, nil
}

// close 按创建的逆序释放资源，只执行一次
func (rt *resources) close() error {
	rt.closeOnce.Do(func() { rt.closeErr = rt.release() })
	return rt.closeErr
}

func (rt *resources) release() error {
	var errs []error
	if rt.executor != nil {
		if err := rt.executor.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	if rt.plugins != nil {
		rt.plugins.Wait()
	}
	if rt.bus != nil {
		if err := rt.bus.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if rt.store != nil && rt.ownStore {
		if err := rt.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Config 返回构建时使用的配置，未通过构建器创建时为nil
func (e *Engine) Config() *config.EngineConfig {
	if e.rt == nil {
		return nil
	}
	return e.rt.cfg
}

// Spec 返回加载的图文件
func (e *Engine) Spec() *graphfile.Spec {
	if e.rt == nil {
		return nil
	}
	return e.rt.spec
}

// Bus 返回事件总线，用于订阅构建事件
func (e *Engine) Bus() *events.Bus {
	if e.rt == nil {
		return nil
	}
	return e.rt.bus
}

// Plugins 返回插件管理器
func (e *Engine) Plugins() plugin.PluginManager {
	if e.rt == nil {
		return nil
	}
	return e.rt.plugins
}

// Close 关闭执行池、事件总线和存储（对外导出）
// 只释放构建器创建的资源，WithStore 传入的存储由调用方关闭
func (e *Engine) Close() error {
	if e.rt == nil {
		return nil
	}
	return e.rt.close()
}
