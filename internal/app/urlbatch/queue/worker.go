package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"urlindex.local/internal/app/urlbatch/events"
	"urlindex.local/internal/app/urlbatch/repo"
)

// JobSource 由 DispatchQueue 实现
type JobSource interface {
	Read(ctx context.Context, block time.Duration) ([]DispatchJob, error)
	Ack(ctx context.Context, messageID string) error
}

// Settler 由 repo.TasksRepo 实现
type Settler interface {
	MarkDispatched(ctx context.Context, taskID int64) error
}

type BalanceInvalidator interface {
	Invalidate(ctx context.Context, userID int64) error
}

// Worker 把排队中的任务交给下游索引系统，并结算冻结的积分。
// 真正的抓取/索引在外部系统完成，这里只负责状态流转。
type Worker struct {
	src       JobSource
	tasks     Settler
	balances  BalanceInvalidator
	collector events.Collector
	block     time.Duration
}

func NewWorker(src JobSource, tasks Settler, balances BalanceInvalidator, collector events.Collector) *Worker {
	return &Worker{
		src:       src,
		tasks:     tasks,
		balances:  balances,
		collector: collector,
		block:     2 * time.Second,
	}
}

func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		jobs, err := w.src.Read(ctx, w.block)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("dispatch worker: read failed", "err", err)
			time.Sleep(200 * time.Millisecond)
			continue
		}

		for _, job := range jobs {
			if err := w.handle(ctx, job); err != nil {
				slog.Error("dispatch worker: handle failed", "err", err, "task_id", job.TaskID)
			}
			_ = w.src.Ack(ctx, job.MessageID)
		}
	}
}

func (w *Worker) handle(ctx context.Context, job DispatchJob) error {
	if err := w.tasks.MarkDispatched(ctx, job.TaskID); err != nil {
		// 已结算（重复投递）不算错误
		if errors.Is(err, repo.ErrTaskNotQueued) {
			slog.Debug("dispatch worker: task already settled", "task_id", job.TaskID)
			return nil
		}
		return err
	}
	if w.balances != nil {
		if err := w.balances.Invalidate(ctx, job.UserID); err != nil {
			slog.Warn("dispatch worker: invalidate balance failed", "err", err, "user_id", job.UserID)
		}
	}
	if w.collector != nil {
		w.collector.Collect(events.TaskEvent{
			TaskID:     job.TaskID,
			UserID:     job.UserID,
			Kind:       events.KindDispatched,
			TaskType:   job.TaskType,
			URLCount:   job.URLCount,
			OccurredAt: time.Now(),
		})
	}
	slog.Info("task dispatched", "task_id", job.TaskID, "user_id", job.UserID, "urls", job.URLCount)
	return nil
}
