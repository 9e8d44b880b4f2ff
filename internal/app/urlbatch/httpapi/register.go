package httpapi

import (
	"net/http"
	"time"

	"urlindex.local/gee"
	"urlindex.local/internal/app/urlbatch/repo"
	"urlindex.local/internal/app/urlbatch/submit"
	"urlindex.local/internal/platform/auth"
	"urlindex.local/internal/platform/httpmiddleware"
	"urlindex.local/internal/platform/ratelimit"
)

// Deps 组装 API 需要的依赖，由 cmd/api 构造。
type Deps struct {
	Users         *repo.UsersRepo
	Credits       CreditGranter
	Balances      BalanceReader
	Invalidate    BalanceInvalidator
	Tasks         TaskReader
	Submit        *submit.Service
	Tokens        auth.TokenService
	Limiter       *ratelimit.Limiter
	SignupCredits int
}

// RegisterURLRoutes 纯计算接口，不需要登录，也不访问存储。
func RegisterURLRoutes(api *gee.RouterGroup, limiter *ratelimit.Limiter) {
	urls := api.Group("/urls")
	urls.Use(gee.MaxBody(maxBodyBytes), httpmiddleware.RateLimit(limiter, "urls", 120, time.Minute))
	urls.POST("/parse", NewParseHandler())
	urls.POST("/clean", NewCleanHandler())
	urls.POST("/dedupe", NewDedupeHandler())
}

// RegisterAPIRoutes 在 /api/v1 下挂载全部业务路由。
// 本包只做传输层：参数校验、错误映射、响应格式；准入逻辑在 urlbatch 与 submit。
func RegisterAPIRoutes(api *gee.RouterGroup, d Deps) {
	api.Use(httpmiddleware.AuthOptional(d.Tokens))

	//注册 3次/分钟
	api.POST("/register", httpmiddleware.RateLimit(d.Limiter, "register", 3, time.Minute), NewRegistUserHandler(d.Users, d.SignupCredits))
	//登录 5次/分钟
	api.POST("/login", httpmiddleware.RateLimit(d.Limiter, "login", 5, time.Minute), NewLoginHandler(d.Users, d.Tokens))

	RegisterURLRoutes(api, d.Limiter)

	// 需要登录的路由
	tasks := api.Group("/tasks")
	tasks.Use(httpmiddleware.AuthRequired(d.Tokens), gee.MaxBody(maxBodyBytes))
	tasks.POST("/preview", NewPreviewHandler(d.Submit))
	//提交 10次/分钟
	tasks.POST("", httpmiddleware.RateLimit(d.Limiter, "submit", 10, time.Minute), NewSubmitHandler(d.Submit))
	tasks.GET("", NewListTasksHandler(d.Tasks))
	tasks.GET("/:code", NewGetTaskHandler(d.Tasks))

	credits := api.Group("/credits")
	credits.Use(httpmiddleware.AuthRequired(d.Tokens))
	credits.GET("", NewGetCreditsHandler(d.Balances))

	users := api.Group("/users")
	users.Use(httpmiddleware.AuthRequired(d.Tokens))
	users.GET("/me", NewUserMeHandler())

	// 需要管理员的
	admin := api.Group("/admin")
	admin.Use(httpmiddleware.AuthRequired(d.Tokens), httpmiddleware.RequireRole(auth.RoleAdmin))
	admin.GET("/ping", func(ctx *gee.Context) {
		ctx.String(http.StatusOK, "pong")
	})
	admin.POST("/users/:id/credits", NewGrantCreditsHandler(d.Credits, d.Invalidate))
}

func RegisterPublicRoutes(engine *gee.Engine) {
	engine.GET("/healthz", func(ctx *gee.Context) {
		ctx.String(http.StatusOK, "ok")
	})
}
