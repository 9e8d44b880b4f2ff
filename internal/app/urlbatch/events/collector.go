package events

import (
	"sync"
	"time"
)

type Kind string

const (
	KindCreated    Kind = "created"
	KindDispatched Kind = "dispatched"
	KindFailed     Kind = "failed"
)

// TaskEvent 任务生命周期事件
type TaskEvent struct {
	TaskID     int64     `json:"task_id"`
	UserID     int64     `json:"user_id"`
	Kind       Kind      `json:"kind"`
	TaskType   string    `json:"task_type"`
	URLCount   int       `json:"url_count"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Collector 收集器接口，channel 和 Kafka 两种实现
type Collector interface {
	Collect(event TaskEvent)
	Close()
}

// ChannelCollector 基于 channel 的收集器，满了直接丢弃，不阻塞提交流程。
type ChannelCollector struct {
	mu     sync.RWMutex
	ch     chan TaskEvent
	closed bool
}

func NewChannelCollector(bufferSize int) *ChannelCollector {
	return &ChannelCollector{
		ch: make(chan TaskEvent, bufferSize),
	}
}

func (c *ChannelCollector) Collect(event TaskEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.ch <- event:
	default:
		// 通道满了，丢弃
	}
}

func (c *ChannelCollector) Events() <-chan TaskEvent {
	return c.ch
}

func (c *ChannelCollector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}
