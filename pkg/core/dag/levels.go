package dag

// Levels 按依赖深度分层：没有父顶点的为第0层，其余为父顶点最大层数加一
// 同一层的顶点之间没有依赖，可以并行执行。输入应为 Traverse 的结果。
func Levels[T Vertex[T]](ordered []T) [][]T {
	depth := make(map[string]int, len(ordered))
	var levels [][]T

	// 输入顺序不保证父顶点在前时，迭代到不再变化为止
	for changed := true; changed; {
		changed = false
		for _, v := range ordered {
			d := 0
			for _, p := range v.Parents() {
				if pd, ok := depth[p.ID()]; ok && pd+1 > d {
					d = pd + 1
				}
			}
			if old, ok := depth[v.ID()]; !ok || old != d {
				depth[v.ID()] = d
				changed = true
			}
		}
	}

	for _, v := range ordered {
		d := depth[v.ID()]
		for len(levels) <= d {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], v)
	}
	return levels
}
