package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store 把一批事件写入 task_events，并累加 usage_daily。
type Store interface {
	WriteBatch(ctx context.Context, batch []TaskEvent) error
}

type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) WriteBatch(ctx context.Context, batch []TaskEvent) error {
	if len(batch) == 0 {
		return nil
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(context.Background())

	for _, e := range batch {
		if _, err := tx.Exec(ctx,
			`INSERT INTO task_events (task_id,user_id,kind,task_type,url_count,occurred_at) VALUES ($1,$2,$3,$4,$5,$6)`,
			e.TaskID, e.UserID, string(e.Kind), e.TaskType, e.URLCount, e.OccurredAt); err != nil {
			slog.Error("task events: insert failed", "err", err, "task_id", e.TaskID)
			return err
		}
		if e.Kind != KindCreated {
			continue
		}
		// 用量只按创建计，失败退款不回扣用量统计
		if _, err := tx.Exec(ctx, `
INSERT INTO usage_daily (user_id, day, tasks, urls) VALUES ($1, $2, 1, $3)
ON CONFLICT (user_id, day) DO UPDATE
  SET tasks = usage_daily.tasks + 1, urls = usage_daily.urls + EXCLUDED.urls`,
			e.UserID, e.OccurredAt.UTC().Format(time.DateOnly), e.URLCount); err != nil {
			slog.Error("task events: usage update failed", "err", err, "user_id", e.UserID)
			return err
		}
	}
	return tx.Commit(ctx)
}

// runBatches 批量消费循环：攒够 batchSize 或每 interval 刷一次。
// src 关闭或 ctx 取消时刷掉剩余事件后返回。
func runBatches(ctx context.Context, src <-chan TaskEvent, batchSize int, interval time.Duration, flush func([]TaskEvent)) {
	batch := make([]TaskEvent, 0, batchSize)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flush(batch)
			return
		case event, ok := <-src:
			if !ok {
				flush(batch)
				return
			}
			batch = append(batch, event)
			if len(batch) >= batchSize {
				flush(batch)
				batch = batch[:0] // 保留容量
			}
		case <-ticker.C:
			if len(batch) > 0 {
				flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func flushTo(store Store, tag string) func([]TaskEvent) {
	return func(batch []TaskEvent) {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.WriteBatch(ctx, batch); err != nil {
			slog.Error(tag+": flush failed", "err", err, "count", len(batch))
			return
		}
		slog.Debug(tag+": flushed", "count", len(batch))
	}
}
