package events

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const outputBuffer = 256

// Bus 基于watermill gochannel的进程内事件总线（对外导出）
// 发布等待订阅者确认，同一发布者的事件按发布顺序送达
// 订阅者读取过慢时事件被丢弃，发布不会因此阻塞
type Bus struct {
	pubSub  *gochannel.GoChannel
	dropped atomic.Int64
}

// NewBus 创建事件总线
func NewBus(verbose bool) *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer:            outputBuffer,
				BlockPublishUntilSubscriberAck: true,
			},
			watermill.NewStdLogger(verbose, false),
		),
	}
}

// Publish 发布事件；没有订阅者时事件被丢弃
func (b *Bus) Publish(event *Event) {
	if event == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("警告: 序列化事件失败: %v", err)
		return
	}
	if err := b.pubSub.Publish(Topic, message.NewMessage(event.ID, payload)); err != nil {
		log.Printf("警告: 发布事件失败: type=%s, node=%s, err=%v", event.Type, event.NodeID, err)
	}
}

// Subscribe 订阅事件，ctx结束或总线关闭时返回的channel被关闭
// channel已满时新事件被丢弃并计入 Dropped
func (b *Bus) Subscribe(ctx context.Context) (<-chan *Event, error) {
	messages, err := b.pubSub.Subscribe(ctx, Topic)
	if err != nil {
		return nil, err
	}

	out := make(chan *Event, outputBuffer)
	go func() {
		defer close(out)
		for msg := range messages {
			var event Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				log.Printf("警告: 解析事件失败: %v", err)
				msg.Ack()
				continue
			}
			select {
			case out <- &event:
			default:
				b.dropped.Add(1)
			}
			msg.Ack()
		}
	}()
	return out, nil
}

// Dropped 返回因订阅者读取过慢而丢弃的事件数
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Close 关闭事件总线
func (b *Bus) Close() error {
	return b.pubSub.Close()
}

// 确保实现接口
var _ Publisher = (*Bus)(nil)
