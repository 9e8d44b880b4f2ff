package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type KafkaConsumer struct {
	reader    *kafka.Reader
	store     Store
	batchSize int
	interval  time.Duration
}

func NewKafkaConsumer(brokers []string, topic string, store Store) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  "task-events-consumer",
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		store:     store,
		batchSize: 100,
		interval:  time.Second,
	}
}

func (k *KafkaConsumer) Run(ctx context.Context) {
	msgCh := make(chan TaskEvent, k.batchSize)

	go func() {
		defer close(msgCh)
		for {
			msg, err := k.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("kafka read failed", "err", err)
				continue
			}

			var event TaskEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				slog.Error("unmarshal event failed", "err", err)
				continue
			}
			select {
			case msgCh <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	runBatches(ctx, msgCh, k.batchSize, k.interval, flushTo(k.store, "kafka consumer"))
}

func (k *KafkaConsumer) Close() {
	k.reader.Close()
}
