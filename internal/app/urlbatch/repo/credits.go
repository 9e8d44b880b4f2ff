package repo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAccountNotFound = errors.New("credit account not found")
var ErrInvalidAmount = errors.New("invalid credit amount")

// Balance 积分余额。CreditsAvailable 已扣除冻结（held）部分。
type Balance struct {
	CreditsAvailable int64 `json:"creditsAvailable"`
	HeldCredits      int64 `json:"heldCredits"`
	UsedCredits      int64 `json:"usedCredits"`
}

// Available 供准入检查使用的可用积分。
func (b Balance) Available() int {
	if b.CreditsAvailable < 0 {
		return 0
	}
	return int(b.CreditsAvailable)
}

type CreditsRepo struct {
	db *pgxpool.Pool
}

func NewCreditsRepo(db *pgxpool.Pool) *CreditsRepo {
	return &CreditsRepo{db: db}
}

// Balance 读取用户当前余额；没有账户时视为 0。
func (c *CreditsRepo) Balance(ctx context.Context, userID int64) (Balance, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	var b Balance
	err := c.db.
		QueryRow(dbctx, "SELECT credits_available, held_credits, used_credits FROM credit_accounts WHERE user_id=$1", userID).
		Scan(&b.CreditsAvailable, &b.HeldCredits, &b.UsedCredits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Balance{}, nil
		}
		slog.Error(err.Error())
		return Balance{}, err
	}
	return b, nil
}

// Grant 给用户增加积分（管理员充值）。没有账户时自动开户。
func (c *CreditsRepo) Grant(ctx context.Context, userID int64, amount int64) (Balance, error) {
	if amount <= 0 {
		return Balance{}, ErrInvalidAmount
	}
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var b Balance
	err := c.db.QueryRow(dbctx, `
INSERT INTO credit_accounts (user_id, credits_available)
SELECT id, $2 FROM users WHERE id=$1
ON CONFLICT (user_id) DO UPDATE
  SET credits_available = credit_accounts.credits_available + EXCLUDED.credits_available,
      updated_at = now()
RETURNING credits_available, held_credits, used_credits`, userID, amount).
		Scan(&b.CreditsAvailable, &b.HeldCredits, &b.UsedCredits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Balance{}, ErrAccountNotFound
		}
		slog.Error(err.Error())
		return Balance{}, err
	}
	return b, nil
}
