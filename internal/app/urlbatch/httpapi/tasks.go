package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"urlindex.local/gee"
	"urlindex.local/internal/app/urlbatch"
	"urlindex.local/internal/app/urlbatch/repo"
	"urlindex.local/internal/app/urlbatch/submit"
)

// TaskReader 由 repo.TasksRepo 实现
type TaskReader interface {
	GetForUser(ctx context.Context, userID int64, code string) (repo.Task, error)
	ListByUser(ctx context.Context, userID int64, limit int, cursor int64) (*repo.TaskPage, error)
	ListURLs(ctx context.Context, taskID int64) ([]string, error)
}

type PreviewResponse struct {
	ParseResponse
	UniqueURLs          []string                   `json:"unique_urls"`
	DuplicateCount      int                        `json:"duplicate_count"`
	Quote               urlbatch.CreditQuote       `json:"quote"`
	Eligibility         urlbatch.EligibilityResult `json:"eligibility"`
	PreviouslySubmitted int                        `json:"previously_submitted"`
	MaxURLsPerTask      int                        `json:"max_urls_per_task"`
}

func NewPreviewHandler(svc *submit.Service) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		userID, ok := mustGetUserID(ctx)
		if !ok {
			return
		}
		var req InputRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		pv, err := svc.Preview(ctx.Req.Context(), userID, req.Input)
		if err != nil {
			slog.Error("preview failed", "user_id", userID, "err", err)
			ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			return
		}
		recordLineOutcomes(pv.Parse)
		ctx.JSON(http.StatusOK, PreviewResponse{
			ParseResponse:       newParseResponse(pv.Parse),
			UniqueURLs:          pv.Dedup.Unique,
			DuplicateCount:      pv.Dedup.DuplicateCount,
			Quote:               pv.Quote,
			Eligibility:         pv.Eligibility,
			PreviouslySubmitted: pv.PreviouslySubmitted,
			MaxURLsPerTask:      svc.Policy().MaxURLsPerTask,
		})
	}
}

type SubmitRequest struct {
	Title string   `json:"title"`
	Type  string   `json:"type"`
	VIP   bool     `json:"vip"`
	Input string   `json:"input,omitempty"`
	URLs  []string `json:"urls,omitempty"`
}

// BlockedResponse 准入失败时返回全部原因
type BlockedResponse struct {
	Code            int                  `json:"code"`
	Message         string               `json:"message"`
	RequestID       string               `json:"request_id"`
	BlockingReasons []string             `json:"blocking_reasons"`
	Codes           []urlbatch.BlockCode `json:"codes"`
	Quote           urlbatch.CreditQuote `json:"quote"`
	InvalidLines    []string             `json:"invalid_lines,omitempty"`
}

func NewSubmitHandler(svc *submit.Service) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		userID, ok := mustGetUserID(ctx)
		if !ok {
			return
		}
		var req SubmitRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		input := req.Input
		if input == "" && len(req.URLs) > 0 {
			input = strings.Join(req.URLs, "\n")
		}

		task, err := svc.Submit(ctx.Req.Context(), submit.Request{
			UserID: userID,
			Title:  req.Title,
			Type:   urlbatch.TaskType(strings.ToLower(strings.TrimSpace(req.Type))),
			VIP:    req.VIP,
			Input:  input,
		})
		if err != nil {
			writeSubmitError(ctx, userID, err)
			return
		}
		ctx.JSON(http.StatusCreated, task)
	}
}

func writeSubmitError(ctx *gee.Context, userID int64, err error) {
	var ne *submit.NotEligibleError
	switch {
	case errors.As(err, &ne):
		res := ne.Result()
		code := http.StatusUnprocessableEntity
		if res.Has(urlbatch.BlockInFlight) {
			code = http.StatusConflict
		}
		ctx.AbortWithStatusJSON(code, BlockedResponse{
			Code:            code,
			Message:         "submission blocked",
			RequestID:       ctx.RequestID(),
			BlockingReasons: res.BlockingReasons,
			Codes:           res.Codes,
			Quote:           ne.Preparation.Quote,
			InvalidLines:    ne.Preparation.Parse.InvalidLines,
		})
	case errors.Is(err, submit.ErrInvalidTaskType), errors.Is(err, submit.ErrInvalidTitle):
		ctx.AbortWithError(http.StatusBadRequest, err.Error())
	case errors.Is(err, repo.ErrInsufficientCredits):
		ctx.AbortWithError(http.StatusPaymentRequired, err.Error())
	case errors.Is(err, submit.ErrUnavailable):
		ctx.AbortWithError(http.StatusServiceUnavailable, "task service temporarily unavailable")
	case errors.Is(err, submit.ErrDispatchFailed):
		ctx.AbortWithError(http.StatusServiceUnavailable, "task dispatch failed, credits refunded")
	default:
		slog.Error("submit failed", "user_id", userID, "err", err)
		ctx.AbortWithError(http.StatusInternalServerError, "internal error")
	}
}

func NewListTasksHandler(r TaskReader) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		userID, ok := mustGetUserID(ctx)
		if !ok {
			return
		}
		limit, cursor, ok := parsePage(ctx)
		if !ok {
			return
		}
		page, err := r.ListByUser(ctx.Req.Context(), userID, limit, cursor)
		if err != nil {
			slog.Error("list tasks failed", "user_id", userID, "err", err)
			ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			return
		}
		ctx.JSON(http.StatusOK, page)
	}
}

type TaskDetailResponse struct {
	repo.Task
	URLs []string `json:"urls"`
}

func NewGetTaskHandler(r TaskReader) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		userID, ok := mustGetUserID(ctx)
		if !ok {
			return
		}
		task, err := r.GetForUser(ctx.Req.Context(), userID, ctx.Param("code"))
		if err != nil {
			if errors.Is(err, repo.ErrTaskNotFound) {
				ctx.AbortWithError(http.StatusNotFound, err.Error())
				return
			}
			ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			return
		}
		urls, err := r.ListURLs(ctx.Req.Context(), task.ID)
		if err != nil {
			ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			return
		}
		ctx.JSON(http.StatusOK, TaskDetailResponse{Task: task, URLs: urls})
	}
}
