package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// TopicRunEvents 运行事件的发布主题
const TopicRunEvents = "run.events"

// RunEvent 流水线运行过程中的状态事件（对外导出）
type RunEvent struct {
	RunID      string    `json:"run_id"`
	PipelineID string    `json:"pipeline_id"`
	JobID      string    `json:"job_id,omitempty"`  // 为空表示Run级事件
	JobName    string    `json:"job_name,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Bus 进程内事件总线，基于watermill gochannel（对外导出）
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus 创建事件总线（对外导出）
// BlockPublishUntilSubscriberAck必须为true：gochannel在非阻塞模式下
// 每条消息都由独立协程投递，订阅方看到的事件顺序和发布顺序无关，
// 终态事件可能先于（甚至代替）过程事件到达。阻塞模式下发布方等待
// 确认，Subscribe的转发循环收到即确认，发布顺序即投递顺序。
func NewBus() *Bus {
	logger := watermill.NopLogger{}
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: true,
		},
		logger,
	)
	return &Bus{pubsub: pubsub}
}

// Publish 发布运行事件（对外导出）
func (b *Bus) Publish(event *RunEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(TopicRunEvents, msg); err != nil {
		return fmt.Errorf("发布事件失败: %w", err)
	}
	return nil
}

// Subscribe 订阅运行事件，context取消时订阅自动终止（对外导出）
func (b *Bus) Subscribe(ctx context.Context) (<-chan *RunEvent, error) {
	messages, err := b.pubsub.Subscribe(ctx, TopicRunEvents)
	if err != nil {
		return nil, fmt.Errorf("订阅事件失败: %w", err)
	}

	// 带缓冲：转发循环先确认再投递，消费方短暂读不动时不把发布方也卡住
	out := make(chan *RunEvent, 64)
	go func() {
		defer close(out)
		for msg := range messages {
			var event RunEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				// 坏消息直接确认并丢弃
				msg.Ack()
				continue
			}
			msg.Ack()

			select {
			case out <- &event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close 关闭事件总线（对外导出）
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
