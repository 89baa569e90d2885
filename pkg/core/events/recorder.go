package events

import "sync"

// Recorder 在内存中记录事件的发布者，可同时转发给下游
type Recorder struct {
	mu     sync.Mutex
	events []*Event
	next   Publisher
}

// NewRecorder 创建事件记录器；next 可为nil
func NewRecorder(next Publisher) *Recorder {
	return &Recorder{next: next}
}

// Publish 记录并转发事件
func (r *Recorder) Publish(event *Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	if r.next != nil {
		r.next.Publish(event)
	}
}

// Events 返回已记录事件的副本
func (r *Recorder) Events() []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Event(nil), r.events...)
}

// NodesOf 返回指定类型事件的节点ID（按发布顺序）
func (r *Recorder) NodesOf(eventType EventType) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, e := range r.events {
		if e.Type == eventType {
			ids = append(ids, e.NodeID)
		}
	}
	return ids
}
