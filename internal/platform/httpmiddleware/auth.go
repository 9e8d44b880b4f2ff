package httpmiddleware

import (
	"errors"
	"net/http"
	"strings"

	"urlindex.local/gee"
	"urlindex.local/internal/platform/auth"
)

var errMissingAuth = errors.New("missing authorization header")
var errBadAuthFormat = errors.New("invalid authorization format")

// parseBearer 解析 Authorization header 中的 Bearer token，格式不对返回空串
func parseBearer(header string) string {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return ""
	}
	return fields[1]
}

// identify 校验 token 并把身份写进请求上下文
func identify(ctx *gee.Context, ts auth.TokenService) error {
	header := ctx.Req.Header.Get("Authorization")
	if header == "" {
		return errMissingAuth
	}
	token := parseBearer(header)
	if token == "" {
		return errBadAuthFormat
	}
	claim, err := ts.Verify(token)
	if err != nil {
		return err
	}
	ctx.Req = ctx.Req.WithContext(auth.WithIdentity(ctx.Req.Context(), auth.Identity{
		UserID: claim.UserID,
		Role:   claim.Role,
	}))
	return nil
}

// AuthRequired 要求请求必须携带有效的 JWT token
func AuthRequired(ts auth.TokenService) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		if err := identify(ctx, ts); err != nil {
			msg := err.Error()
			if !errors.Is(err, errMissingAuth) && !errors.Is(err, errBadAuthFormat) && !errors.Is(err, auth.ErrTokenExpired) {
				msg = "invalid token"
			}
			ctx.AbortWithError(http.StatusUnauthorized, msg)
			return
		}
		ctx.Next()
	}
}

// AuthOptional 有合法 token 就带上身份，否则按匿名继续
func AuthOptional(ts auth.TokenService) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		_ = identify(ctx, ts)
		ctx.Next()
	}
}

// RequireRole 用户角色需在 roles 之内
func RequireRole(roles ...string) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		id, ok := auth.GetIdentity(ctx.Req.Context())
		if !ok {
			ctx.AbortWithError(http.StatusUnauthorized, "unauthorized")
			return
		}
		for _, r := range roles {
			if id.Role == r {
				ctx.Next()
				return
			}
		}
		ctx.AbortWithError(http.StatusForbidden, "forbidden")
	}
}
