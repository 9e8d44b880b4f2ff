package httpapi

import (
	"net/http"

	"urlindex.local/gee"
	"urlindex.local/internal/platform/auth"
)

// 单次请求体上限：1 万条 URL 的粘贴文本足够
const maxBodyBytes = 4 << 20

// mustGetUserID 从上下文中获取用户ID，失败时已写入错误响应
func mustGetUserID(ctx *gee.Context) (int64, bool) {
	identity, ok := auth.GetIdentity(ctx.Req.Context())
	if !ok {
		ctx.AbortWithError(http.StatusUnauthorized, "not login")
		return 0, false
	}
	userID, err := identity.ID()
	if err != nil {
		ctx.AbortWithError(http.StatusInternalServerError, "invalid user id")
		return 0, false
	}
	return userID, true
}

// parsePage 解析 limit / cursor 查询参数，失败时已写入错误响应
func parsePage(ctx *gee.Context) (int, int64, bool) {
	limit, err := ctx.QueryInt("limit", 20)
	if err != nil || limit <= 0 || limit > 100 {
		ctx.AbortWithError(http.StatusBadRequest, "invalid limit")
		return 0, 0, false
	}
	cursor, err := ctx.QueryInt("cursor", 0)
	if err != nil || cursor < 0 {
		ctx.AbortWithError(http.StatusBadRequest, "invalid cursor")
		return 0, 0, false
	}
	return int(limit), cursor, true
}
