package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"urlindex.local/internal/app/urlbatch"
	"urlindex.local/internal/app/urlbatch/events"
	"urlindex.local/internal/app/urlbatch/queue"
	"urlindex.local/internal/app/urlbatch/repo"
	"urlindex.local/internal/platform/metrics"
	"urlindex.local/internal/platform/trace"
)

var tracer = otel.Tracer("urlindex.local/internal/app/urlbatch/submit")

const maxTitleLen = 200

type BalanceReader interface {
	Balance(ctx context.Context, userID int64) (repo.Balance, error)
}

type BalanceInvalidator interface {
	Invalidate(ctx context.Context, userID int64) error
}

type TaskStore interface {
	Create(ctx context.Context, p repo.CreateTaskParams) (repo.Task, error)
	MarkFailed(ctx context.Context, taskID int64, reason string) error
}

// Locker 每个用户的提交互斥
type Locker interface {
	Acquire(ctx context.Context, userID int64) (token string, ok bool, err error)
	Release(ctx context.Context, userID int64, token string) error
	Held(ctx context.Context, userID int64) (bool, error)
}

type Dispatcher interface {
	Enqueue(ctx context.Context, job queue.DispatchJob) error
}

// SubmittedHints 以前提交过的 URL 提示（布隆过滤器）
type SubmittedHints interface {
	Add(userID int64, urls []string)
	CountSubmitted(userID int64, urls []string) int
}

type Deps struct {
	Ledger     BalanceReader // 权威余额（数据库）
	Cached     BalanceReader // 预览用的缓存余额，nil 时用 Ledger
	Invalidate BalanceInvalidator
	Tasks      TaskStore
	Lock       Locker
	Dispatch   Dispatcher
	Hints      SubmittedHints
	Events     events.Collector
}

type Options struct {
	Policy          urlbatch.Policy
	BreakerFailures int
	BreakerTimeout  time.Duration
}

type Service struct {
	deps    Deps
	policy  urlbatch.Policy
	breaker *gobreaker.CircuitBreaker
}

func NewService(deps Deps, opts Options) *Service {
	if deps.Cached == nil {
		deps.Cached = deps.Ledger
	}
	failures := opts.BreakerFailures
	if failures <= 0 {
		failures = 5
	}
	timeout := opts.BreakerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "task-store",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		// 余额不足是业务结果，不算存储故障
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, repo.ErrInsufficientCredits)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return &Service{deps: deps, policy: opts.Policy, breaker: breaker}
}

func (s *Service) Policy() urlbatch.Policy {
	return s.policy
}

// Preview 预览结果，不修改任何状态。
type Preview struct {
	urlbatch.Preparation
	PreviouslySubmitted int
}

func (s *Service) Preview(ctx context.Context, userID int64, raw string) (Preview, error) {
	bal, err := s.deps.Cached.Balance(ctx, userID)
	if err != nil {
		return Preview{}, err
	}
	inFlight := false
	if s.deps.Lock != nil {
		held, err := s.deps.Lock.Held(ctx, userID)
		if err != nil {
			slog.Warn("submit lock check failed", "user_id", userID, "err", err)
		}
		inFlight = held
	}
	prep := urlbatch.Prepare(raw, bal.Available(), inFlight, s.policy)
	pv := Preview{Preparation: prep}
	if s.deps.Hints != nil {
		pv.PreviouslySubmitted = s.deps.Hints.CountSubmitted(userID, prep.Dedup.Unique)
	}
	return pv, nil
}

type Request struct {
	UserID int64
	Title  string
	Type   urlbatch.TaskType
	VIP    bool
	Input  string
}

func (r Request) validate() error {
	if !r.Type.Valid() {
		return ErrInvalidTaskType
	}
	title := strings.TrimSpace(r.Title)
	if title == "" || utf8.RuneCountInString(title) > maxTitleLen {
		return ErrInvalidTitle
	}
	return nil
}

// Submit 提交一个批次：
// 加锁 -> 读库里的余额 -> 重新跑一遍准入 -> 建任务（冻结积分）-> 入派发队列。
// 拿不到锁时不直接报错，而是作为 InFlight 交给准入检查，保证返回完整的原因列表。
func (s *Service) Submit(ctx context.Context, req Request) (task repo.Task, err error) {
	ctx, span := tracer.Start(ctx, "urlbatch.submit")
	span.SetAttributes(
		attribute.Int64(trace.AttrUserID, req.UserID),
		attribute.String(trace.AttrTaskType, string(req.Type)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := req.validate(); err != nil {
		return repo.Task{}, err
	}

	token, locked, err := s.deps.Lock.Acquire(ctx, req.UserID)
	if err != nil {
		return repo.Task{}, fmt.Errorf("acquire submit lock: %w", err)
	}
	if locked {
		defer func() {
			if err := s.deps.Lock.Release(context.WithoutCancel(ctx), req.UserID, token); err != nil {
				slog.Warn("release submit lock failed", "user_id", req.UserID, "err", err)
			}
		}()
	}

	bal, err := s.deps.Ledger.Balance(ctx, req.UserID)
	if err != nil {
		return repo.Task{}, err
	}

	prep := urlbatch.Prepare(req.Input, bal.Available(), !locked, s.policy)
	span.SetAttributes(
		attribute.Int(trace.AttrUniqueURLs, len(prep.Dedup.Unique)),
		attribute.Int(trace.AttrDuplicateURLs, prep.Dedup.DuplicateCount),
		attribute.Int(trace.AttrCreditsRequired, prep.Quote.Required),
	)
	if !prep.Eligibility.CanSubmit {
		blocked := make([]string, 0, len(prep.Eligibility.Codes))
		for _, code := range prep.Eligibility.Codes {
			metrics.SubmitBlocked.WithLabelValues(string(code)).Inc()
			blocked = append(blocked, string(code))
		}
		span.SetAttributes(attribute.StringSlice(trace.AttrBlockCodes, blocked))
		return repo.Task{}, &NotEligibleError{Preparation: prep}
	}

	batch := prep.Batch()
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.deps.Tasks.Create(ctx, repo.CreateTaskParams{
			UserID:  req.UserID,
			Title:   strings.TrimSpace(req.Title),
			Type:    req.Type,
			VIP:     req.VIP,
			URLs:    batch,
			Credits: int64(prep.Quote.Required),
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return repo.Task{}, ErrUnavailable
		}
		if errors.Is(err, repo.ErrInsufficientCredits) {
			metrics.SubmitBlocked.WithLabelValues(string(urlbatch.BlockInsufficientCredits)).Inc()
		}
		return repo.Task{}, err
	}
	task = out.(repo.Task)
	span.SetAttributes(attribute.String(trace.AttrTaskCode, task.Code))

	s.invalidate(ctx, req.UserID)
	if s.deps.Hints != nil {
		s.deps.Hints.Add(req.UserID, batch)
	}

	if err := s.deps.Dispatch.Enqueue(ctx, queue.DispatchJob{
		TaskID:   task.ID,
		UserID:   task.UserID,
		TaskType: task.Type,
		URLCount: task.URLCount,
	}); err != nil {
		slog.Error("enqueue dispatch failed", "task_id", task.ID, "err", err)
		if merr := s.deps.Tasks.MarkFailed(context.WithoutCancel(ctx), task.ID, "dispatch enqueue failed"); merr != nil {
			slog.Error("mark task failed failed", "task_id", task.ID, "err", merr)
		}
		s.invalidate(ctx, req.UserID)
		s.emit(task, events.KindFailed)
		return repo.Task{}, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	metrics.TasksCreated.WithLabelValues(task.Type).Inc()
	metrics.TaskURLs.Add(float64(task.URLCount))
	s.emit(task, events.KindCreated)
	slog.Info("task created", "task_id", task.ID, "code", task.Code, "user_id", task.UserID, "urls", task.URLCount, "credits", task.Credits)
	return task, nil
}

func (s *Service) invalidate(ctx context.Context, userID int64) {
	if s.deps.Invalidate == nil {
		return
	}
	if err := s.deps.Invalidate.Invalidate(ctx, userID); err != nil {
		slog.Warn("invalidate balance cache failed", "user_id", userID, "err", err)
	}
}

func (s *Service) emit(task repo.Task, kind events.Kind) {
	if s.deps.Events == nil {
		return
	}
	s.deps.Events.Collect(events.TaskEvent{
		TaskID:     task.ID,
		UserID:     task.UserID,
		Kind:       kind,
		TaskType:   task.Type,
		URLCount:   task.URLCount,
		OccurredAt: time.Now(),
	})
}
