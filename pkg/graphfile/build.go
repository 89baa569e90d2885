package graphfile

import (
	"fmt"
	"time"

	"github.com/LENAX/depman/pkg/core/action"
	"github.com/LENAX/depman/pkg/core/cache"
	"github.com/LENAX/depman/pkg/core/node"
)

// fileDigestTTL 文件摘要缓存的复用时长
const fileDigestTTL = time.Minute

// Build 按拓扑顺序在图中创建声明的节点（对外导出）
// shell/command 节点的动作以 "shell:<id>"、"command:<id>" 注册到 registry
func Build(spec *Spec, graph *node.Graph, registry *action.Registry) (map[string]*node.Node, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	digests := cache.NewMemoryCache[node.FileDigest]()
	nodes := make(map[string]*node.Node, len(spec.Nodes))
	for _, ns := range spec.topoOrder() {
		actionName, err := registerAction(ns, spec, registry)
		if err != nil {
			return nil, err
		}

		parents := make([]*node.Node, len(ns.Parents))
		for i, p := range ns.Parents {
			parents[i] = nodes[p]
		}
		opts := []node.NodeOption{
			node.WithID(ns.ID),
			node.WithParents(parents...),
			node.WithAction(actionName),
		}
		if ns.File != "" {
			opts = append(opts, node.WithHasher(node.CachedFileHasher(spec.resolve(ns.File), digests, fileDigestTTL)))
		}

		n, err := graph.NewNode(opts...)
		if err != nil {
			return nil, err
		}
		nodes[ns.ID] = n
	}
	return nodes, nil
}

// registerAction 返回节点的动作名称，必要时注册命令动作
func registerAction(ns NodeSpec, spec *Spec, registry *action.Registry) (string, error) {
	dir := spec.resolve(ns.Dir)
	if dir == "" {
		dir = spec.BaseDir
	}

	var name string
	var fn action.Func
	switch {
	case ns.Shell != "":
		name, fn = "shell:"+ns.ID, action.Shell(dir, ns.Shell)
	case len(ns.Command) > 0:
		name, fn = "command:"+ns.ID, action.Command(dir, ns.Command...)
	case ns.Action != "":
		if !registry.Exists(ns.Action) {
			return "", &node.NodeError{Kind: node.ErrUnknownAction, NodeID: ns.ID, Err: fmt.Errorf("动作 %q", ns.Action)}
		}
		return ns.Action, nil
	default:
		return action.NoopName, nil
	}

	if registry.Exists(name) {
		if err := registry.Unregister(name); err != nil {
			return "", err
		}
	}
	if err := registry.Register(name, fn); err != nil {
		return "", err
	}
	return name, nil
}
