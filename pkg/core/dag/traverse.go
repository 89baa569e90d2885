package dag

import "container/list"

// Traverse 返回从起点可达的所有顶点（起点及其全部祖先），每个顶点恰好出现一次
// 父顶点排在经由它被发现的子顶点之前。非递归实现，深链不会耗尽调用栈。
//
// 做法：工作队列以起点初始化；每次弹出队首，把尚未在队列中的父顶点入队，
// 再把弹出的顶点移动到输出列表头部。
func Traverse[T Vertex[T]](start ...T) []T {
	queue := list.New()
	queued := make(map[string]int)
	for _, v := range start {
		if queued[v.ID()] == 0 {
			queue.PushBack(v)
			queued[v.ID()]++
		}
	}

	out := list.New()
	placed := make(map[string]*list.Element)
	for queue.Len() > 0 {
		v := queue.Remove(queue.Front()).(T)
		queued[v.ID()]--

		for _, p := range v.Parents() {
			if queued[p.ID()] == 0 {
				queue.PushBack(p)
				queued[p.ID()]++
			}
		}

		if el, ok := placed[v.ID()]; ok {
			out.MoveToFront(el)
		} else {
			placed[v.ID()] = out.PushFront(v)
		}
	}

	result := make([]T, 0, out.Len())
	for el := out.Front(); el != nil; el = el.Next() {
		result = append(result, el.Value.(T))
	}
	return result
}

// IDs 返回顶点ID列表
func IDs[T Vertex[T]](vertices []T) []string {
	ids := make([]string, len(vertices))
	for i, v := range vertices {
		ids[i] = v.ID()
	}
	return ids
}
