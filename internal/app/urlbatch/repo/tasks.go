package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"urlindex.local/internal/app/urlbatch"
)

var ErrTaskNotFound = errors.New("task not found")
var ErrInsufficientCredits = errors.New("insufficient credits")
var ErrTaskNotQueued = errors.New("task is not queued")

const (
	StatusQueued     = "queued"
	StatusDispatched = "dispatched"
	StatusFailed     = "failed"
)

type Task struct {
	ID           int64      `json:"-"`
	Code         string     `json:"code"`
	UserID       int64      `json:"user_id"`
	Title        string     `json:"title"`
	Type         string     `json:"type"`
	VIP          bool       `json:"vip"`
	Status       string     `json:"status"`
	URLCount     int        `json:"url_count"`
	Credits      int64      `json:"credits"`
	Error        *string    `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
}

type CreateTaskParams struct {
	UserID  int64
	Title   string
	Type    urlbatch.TaskType
	VIP     bool
	URLs    []string
	Credits int64
}

type TasksRepo struct {
	db *pgxpool.Pool
}

func NewTasksRepo(db *pgxpool.Pool) *TasksRepo {
	return &TasksRepo{db: db}
}

/*
创建任务（一个事务内）：
1. 冻结积分：credits_available -> held_credits，余额不足时 0 行命中
2. 插入 tasks 并生成任务码
3. CopyFrom 批量写入 task_urls
*/
func (r *TasksRepo) Create(ctx context.Context, p CreateTaskParams) (Task, error) {
	dbctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.db.Begin(dbctx)
	if err != nil {
		slog.Error(err.Error())
		return Task{}, err
	}
	defer tx.Rollback(dbctx) // 提交后 rollback 无效，可忽略

	tag, err := tx.Exec(dbctx, `
UPDATE credit_accounts
   SET credits_available = credits_available - $2,
       held_credits = held_credits + $2,
       updated_at = now()
 WHERE user_id = $1 AND credits_available >= $2`, p.UserID, p.Credits)
	if err != nil {
		slog.Error(err.Error())
		return Task{}, err
	}
	if tag.RowsAffected() == 0 {
		return Task{}, ErrInsufficientCredits
	}

	t := Task{
		UserID:   p.UserID,
		Title:    p.Title,
		Type:     string(p.Type),
		VIP:      p.VIP,
		Status:   StatusQueued,
		URLCount: len(p.URLs),
		Credits:  p.Credits,
	}
	if err := tx.QueryRow(dbctx, `
INSERT INTO tasks (user_id, title, type, vip, status, url_count, credits)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id, created_at`, t.UserID, t.Title, t.Type, t.VIP, t.Status, t.URLCount, t.Credits).
		Scan(&t.ID, &t.CreatedAt); err != nil {
		slog.Error(err.Error())
		return Task{}, err
	}

	code, err := urlbatch.EncodeTaskCode(t.ID)
	if err != nil {
		slog.Error(err.Error())
		return Task{}, err
	}
	if _, err := tx.Exec(dbctx, "UPDATE tasks SET code=$1 WHERE id=$2", code, t.ID); err != nil {
		slog.Error(err.Error())
		return Task{}, err
	}
	t.Code = code

	n, err := tx.CopyFrom(dbctx,
		pgx.Identifier{"task_urls"},
		[]string{"task_id", "position", "url"},
		pgx.CopyFromSlice(len(p.URLs), func(i int) ([]any, error) {
			return []any{t.ID, i, p.URLs[i]}, nil
		}),
	)
	if err != nil {
		slog.Error("copy task urls failed", "task_id", t.ID, "err", err)
		return Task{}, err
	}
	if int(n) != len(p.URLs) {
		return Task{}, fmt.Errorf("copy task urls: wrote %d of %d rows", n, len(p.URLs))
	}

	if err := tx.Commit(dbctx); err != nil {
		slog.Error(err.Error())
		return Task{}, err
	}
	return t, nil
}

const taskColumns = "id, COALESCE(code,''), user_id, title, type, vip, status, url_count, credits, error, created_at, dispatched_at"

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.Code, &t.UserID, &t.Title, &t.Type, &t.VIP, &t.Status, &t.URLCount, &t.Credits, &t.Error, &t.CreatedAt, &t.DispatchedAt)
	return t, err
}

// GetForUser 只返回属于该用户的任务，其它用户的任务同样视为不存在。
func (r *TasksRepo) GetForUser(ctx context.Context, userID int64, code string) (Task, error) {
	id, err := urlbatch.DecodeTaskCode(code)
	if err != nil {
		return Task{}, ErrTaskNotFound
	}
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	t, err := scanTask(r.db.QueryRow(dbctx, "SELECT "+taskColumns+" FROM tasks WHERE id=$1 AND user_id=$2", id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, ErrTaskNotFound
		}
		slog.Error(err.Error())
		return Task{}, err
	}
	return t, nil
}

type TaskPage struct {
	Tasks      []Task `json:"tasks"`
	NextCursor *int64 `json:"next_cursor,omitempty"`
}

// ListByUser 按 id 倒序分页，cursor 为上一页最后一条的 id（0 表示第一页）。
func (r *TasksRepo) ListByUser(ctx context.Context, userID int64, limit int, cursor int64) (*TaskPage, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var rows pgx.Rows
	var err error
	if cursor == 0 {
		rows, err = r.db.Query(dbctx, "SELECT "+taskColumns+" FROM tasks WHERE user_id=$1 ORDER BY id DESC LIMIT $2", userID, limit)
	} else {
		rows, err = r.db.Query(dbctx, "SELECT "+taskColumns+" FROM tasks WHERE user_id=$1 AND id<$2 ORDER BY id DESC LIMIT $3", userID, cursor, limit)
	}
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	page := &TaskPage{Tasks: []Task{}}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			slog.Error(err.Error())
			return nil, err
		}
		page.Tasks = append(page.Tasks, t)
	}
	if err := rows.Err(); err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	if len(page.Tasks) == limit {
		next := page.Tasks[len(page.Tasks)-1].ID
		page.NextCursor = &next
	}
	return page, nil
}

func (r *TasksRepo) ListURLs(ctx context.Context, taskID int64) ([]string, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.db.Query(dbctx, "SELECT url FROM task_urls WHERE task_id=$1 ORDER BY position", taskID)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	urls, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	return urls, nil
}

// MarkDispatched 任务交给下游后结算：held -> used。
func (r *TasksRepo) MarkDispatched(ctx context.Context, taskID int64) error {
	return r.settle(ctx, taskID, StatusDispatched, nil)
}

// MarkFailed 派发失败：held 退回 credits_available。
func (r *TasksRepo) MarkFailed(ctx context.Context, taskID int64, reason string) error {
	return r.settle(ctx, taskID, StatusFailed, &reason)
}

func (r *TasksRepo) settle(ctx context.Context, taskID int64, status string, reason *string) error {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.db.Begin(dbctx)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	defer tx.Rollback(dbctx)

	var userID, credits int64
	err = tx.QueryRow(dbctx, `
UPDATE tasks
   SET status=$2, error=$3,
       dispatched_at = CASE WHEN $2 = 'dispatched' THEN now() ELSE dispatched_at END
 WHERE id=$1 AND status='queued'
RETURNING user_id, credits`, taskID, status, reason).Scan(&userID, &credits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTaskNotQueued
		}
		slog.Error(err.Error())
		return err
	}

	var q string
	if status == StatusDispatched {
		q = "UPDATE credit_accounts SET held_credits = held_credits - $2, used_credits = used_credits + $2, updated_at = now() WHERE user_id=$1"
	} else {
		q = "UPDATE credit_accounts SET held_credits = held_credits - $2, credits_available = credits_available + $2, updated_at = now() WHERE user_id=$1"
	}
	if _, err := tx.Exec(dbctx, q, userID, credits); err != nil {
		slog.Error(err.Error())
		return err
	}
	return tx.Commit(dbctx)
}
