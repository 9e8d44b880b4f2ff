package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"urlindex.local/gee"
	"urlindex.local/internal/app/urlbatch/repo"
)

type BalanceReader interface {
	Balance(ctx context.Context, userID int64) (repo.Balance, error)
}

type CreditGranter interface {
	Grant(ctx context.Context, userID int64, amount int64) (repo.Balance, error)
}

type BalanceInvalidator interface {
	Invalidate(ctx context.Context, userID int64) error
}

func NewGetCreditsHandler(b BalanceReader) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		userID, ok := mustGetUserID(ctx)
		if !ok {
			return
		}
		bal, err := b.Balance(ctx.Req.Context(), userID)
		if err != nil {
			slog.Error("read balance failed", "user_id", userID, "err", err)
			ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			return
		}
		ctx.JSON(http.StatusOK, bal)
	}
}

type GrantRequest struct {
	Amount int64 `json:"amount"`
}

func NewGrantCreditsHandler(g CreditGranter, inv BalanceInvalidator) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		userID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
		if err != nil || userID <= 0 {
			ctx.AbortWithError(http.StatusBadRequest, "invalid user id")
			return
		}
		var req GrantRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		bal, err := g.Grant(ctx.Req.Context(), userID, req.Amount)
		if err != nil {
			switch {
			case errors.Is(err, repo.ErrInvalidAmount):
				ctx.AbortWithError(http.StatusBadRequest, err.Error())
			case errors.Is(err, repo.ErrAccountNotFound):
				ctx.AbortWithError(http.StatusNotFound, err.Error())
			default:
				ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			}
			return
		}
		if inv != nil {
			if err := inv.Invalidate(ctx.Req.Context(), userID); err != nil {
				slog.Warn("invalidate balance cache failed", "user_id", userID, "err", err)
			}
		}
		slog.Info("credits granted", "user_id", userID, "amount", req.Amount)
		ctx.JSON(http.StatusOK, bal)
	}
}
