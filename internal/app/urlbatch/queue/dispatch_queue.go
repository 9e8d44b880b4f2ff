package queue

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DispatchQueue 已创建任务的派发队列（Redis Stream + consumer group）。
type DispatchQueue struct {
	rdb      *redis.Client
	stream   string
	group    string
	consumer string
}

type Config struct {
	Stream   string
	Group    string
	Consumer string
}

func NewDispatchQueue(rdb *redis.Client, cfg Config) (*DispatchQueue, error) {
	if rdb == nil {
		return nil, errors.New("nil redis client")
	}
	if cfg.Stream == "" {
		cfg.Stream = "tasks:dispatch"
	}
	if cfg.Group == "" {
		cfg.Group = "tasks:dispatchers"
	}
	if cfg.Consumer == "" {
		cfg.Consumer = "dispatcher-1"
	}

	q := &DispatchQueue{
		rdb:      rdb,
		stream:   cfg.Stream,
		group:    cfg.Group,
		consumer: cfg.Consumer,
	}

	// 创建 consumer group（幂等）
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := q.rdb.XGroupCreateMkStream(ctx, q.stream, q.group, "$").Err(); err != nil && !isBusyGroup(err) {
		return nil, err
	}
	return q, nil
}

func isBusyGroup(err error) bool {
	return err != nil && strings.Contains(err.Error(), "BUSYGROUP")
}

type DispatchJob struct {
	MessageID string
	TaskID    int64
	UserID    int64
	TaskType  string
	URLCount  int
}

func (q *DispatchQueue) Enqueue(ctx context.Context, job DispatchJob) error {
	return q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]any{
			"task_id":   strconv.FormatInt(job.TaskID, 10),
			"user_id":   strconv.FormatInt(job.UserID, 10),
			"task_type": job.TaskType,
			"url_count": strconv.Itoa(job.URLCount),
		},
	}).Err()
}

func (q *DispatchQueue) Read(ctx context.Context, block time.Duration) ([]DispatchJob, error) {
	res, err := q.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: q.consumer,
		Streams:  []string{q.stream, ">"},
		Count:    10,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var jobs []DispatchJob
	for _, s := range res {
		for _, msg := range s.Messages {
			job, ok := decodeJob(msg.Values)
			if !ok {
				// 坏消息直接 ack 掉，避免一直留在 PEL
				_ = q.Ack(ctx, msg.ID)
				continue
			}
			job.MessageID = msg.ID
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

func decodeJob(values map[string]any) (DispatchJob, bool) {
	str := func(k string) string {
		s, _ := values[k].(string)
		return s
	}
	taskID, err := strconv.ParseInt(str("task_id"), 10, 64)
	if err != nil || taskID <= 0 {
		return DispatchJob{}, false
	}
	userID, _ := strconv.ParseInt(str("user_id"), 10, 64)
	urlCount, _ := strconv.Atoi(str("url_count"))
	return DispatchJob{
		TaskID:   taskID,
		UserID:   userID,
		TaskType: str("task_type"),
		URLCount: urlCount,
	}, true
}

func (q *DispatchQueue) Ack(ctx context.Context, messageID string) error {
	return q.rdb.XAck(ctx, q.stream, q.group, messageID).Err()
}
