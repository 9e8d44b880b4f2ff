package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"urlindex.local/gee"
	"urlindex.local/internal/app/urlbatch/repo"
	"urlindex.local/internal/platform/auth"
)

type UserRegistRequest struct {
	UserName string `json:"username"`
	PassWord string `json:"password"`
}

type UserRegistResponse struct {
	Id       int64  `json:"id"`
	UserName string `json:"username"`
}

func NewRegistUserHandler(r *repo.UsersRepo, signupCredits int) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		var req UserRegistRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		userID, err := r.Register(ctx.Req.Context(), req.UserName, req.PassWord, signupCredits)
		if err != nil {
			if errors.Is(err, repo.ErrUserAlreadyExists) {
				ctx.AbortWithError(http.StatusConflict, err.Error())
			} else if errors.Is(err, repo.ErrInvalidPassword) || errors.Is(err, repo.ErrInvalidUsername) {
				ctx.AbortWithError(http.StatusBadRequest, err.Error())
			} else {
				ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			}
			return
		}
		ctx.JSON(http.StatusCreated, UserRegistResponse{
			Id:       userID,
			UserName: req.UserName,
		})
	}
}

type LoginRequest struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

func NewLoginHandler(usersRepo *repo.UsersRepo, ts auth.TokenService) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		var req LoginRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		dbctx, cancel := context.WithTimeout(ctx.Req.Context(), 1*time.Second)
		defer cancel()
		user, err := usersRepo.FindByUsername(dbctx, req.UserName)
		if err != nil {
			if errors.Is(err, repo.ErrUserNotFound) {
				ctx.AbortWithError(http.StatusUnauthorized, "invalid credentials")
				return
			}
			slog.Error("find user failed", "err", err)
			ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			ctx.AbortWithError(http.StatusUnauthorized, "invalid credentials")
			return
		}

		token, err := ts.Sign(strconv.FormatInt(user.ID, 10), user.Role)
		if err != nil {
			ctx.AbortWithError(http.StatusBadGateway, "sign failed")
			return
		}
		ctx.JSON(http.StatusOK, map[string]any{
			"token":      token,
			"expires_in": int64(ts.TTL().Seconds()),
		})
	}
}

func NewUserMeHandler() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		id, ok := auth.GetIdentity(ctx.Req.Context())
		if !ok {
			ctx.AbortWithError(http.StatusInternalServerError, "missing identity")
			return
		}
		ctx.JSON(http.StatusOK, map[string]string{
			"user_id": id.UserID,
			"role":    id.Role,
		})
	}
}
