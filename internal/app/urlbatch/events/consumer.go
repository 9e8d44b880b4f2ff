package events

import (
	"context"
	"time"
)

// Consumer 消费 ChannelCollector 里的事件
type Consumer struct {
	store     Store
	collector *ChannelCollector
	batchSize int
	interval  time.Duration
}

func NewConsumer(store Store, collector *ChannelCollector) *Consumer {
	return &Consumer{
		store:     store,
		collector: collector,
		batchSize: 100,
		interval:  time.Second,
	}
}

// Run 阻塞
func (c *Consumer) Run(ctx context.Context) {
	runBatches(ctx, c.collector.Events(), c.batchSize, c.interval, flushTo(c.store, "task events"))
}
