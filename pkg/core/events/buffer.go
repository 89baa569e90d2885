package events

import (
	"sync"
	"sync/atomic"
)

// Buffer 慢订阅者与总线之间的有界缓冲区（对外导出）
// Push 从不阻塞：缓冲区满时丢弃事件并计数，保证发布端不被拖慢
type Buffer struct {
	data         chan *Event
	capacity     int
	threshold    float64
	backpressure int32 // atomic，0=正常，1=背压

	// 统计
	totalIn  int64 // atomic，总入队数
	totalOut int64 // atomic，总出队数
	dropped  int64 // atomic，丢弃数

	onBackpressure func(usage float64)
	mu             sync.RWMutex
}

// NewBuffer 创建事件缓冲区
func NewBuffer(capacity int, threshold float64) *Buffer {
	if capacity <= 0 {
		capacity = outputBuffer
	}
	if threshold <= 0 || threshold > 1 {
		threshold = 0.8
	}
	return &Buffer{
		data:      make(chan *Event, capacity),
		capacity:  capacity,
		threshold: threshold,
	}
}

// SetBackpressureCallback 设置进入背压时的回调
func (b *Buffer) SetBackpressureCallback(callback func(usage float64)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onBackpressure = callback
}

// Push 推入事件（非阻塞）
// 返回 false 表示缓冲区已满，事件被丢弃
func (b *Buffer) Push(event *Event) bool {
	select {
	case b.data <- event:
		atomic.AddInt64(&b.totalIn, 1)
		b.checkBackpressure()
		return true
	default:
		atomic.AddInt64(&b.dropped, 1)
		return false
	}
}

// PopWithDone 弹出事件，done 关闭时返回 (nil, false)
func (b *Buffer) PopWithDone(done <-chan struct{}) (*Event, bool) {
	select {
	case event := <-b.data:
		atomic.AddInt64(&b.totalOut, 1)
		b.checkBackpressure()
		return event, true
	case <-done:
		return nil, false
	}
}

// Len 当前缓冲的事件数
func (b *Buffer) Len() int {
	return len(b.data)
}

// Usage 使用率
func (b *Buffer) Usage() float64 {
	return float64(len(b.data)) / float64(b.capacity)
}

// IsBackpressure 是否处于背压状态
func (b *Buffer) IsBackpressure() bool {
	return atomic.LoadInt32(&b.backpressure) == 1
}

// checkBackpressure 使用率达到阈值时进入背压，降到阈值一半以下时解除
func (b *Buffer) checkBackpressure() {
	usage := b.Usage()
	if usage >= b.threshold {
		if atomic.CompareAndSwapInt32(&b.backpressure, 0, 1) {
			b.mu.RLock()
			callback := b.onBackpressure
			b.mu.RUnlock()
			if callback != nil {
				go callback(usage)
			}
		}
	} else if usage < b.threshold*0.5 {
		atomic.CompareAndSwapInt32(&b.backpressure, 1, 0)
	}
}

// Stats 统计信息
func (b *Buffer) Stats() (totalIn, totalOut, dropped int64) {
	return atomic.LoadInt64(&b.totalIn),
		atomic.LoadInt64(&b.totalOut),
		atomic.LoadInt64(&b.dropped)
}
