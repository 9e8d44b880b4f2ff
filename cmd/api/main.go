package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"urlindex.local/gee"
	"urlindex.local/gee/middleware"
	ubcache "urlindex.local/internal/app/urlbatch/cache"
	"urlindex.local/internal/app/urlbatch/events"
	"urlindex.local/internal/app/urlbatch/httpapi"
	"urlindex.local/internal/app/urlbatch/queue"
	"urlindex.local/internal/app/urlbatch/repo"
	"urlindex.local/internal/app/urlbatch/submit"
	"urlindex.local/internal/platform/auth"
	platformcache "urlindex.local/internal/platform/cache"
	"urlindex.local/internal/platform/config"
	"urlindex.local/internal/platform/db"
	"urlindex.local/internal/platform/httpmiddleware"
	"urlindex.local/internal/platform/httpserver"
	"urlindex.local/internal/platform/metrics"
	"urlindex.local/internal/platform/migrate"
	"urlindex.local/internal/platform/ratelimit"
	"urlindex.local/internal/platform/trace"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func newLogHandler(cfg config.Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "text" {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}

func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(newLogHandler(cfg)).With("service", cfg.ServiceName))

	//DB
	dbCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	dbPool, errDB := db.New(dbCtx, cfg.DBDSN)
	if errDB != nil {
		log.Fatal(errDB)
	}
	defer dbPool.Close()
	if err := dbPool.Ping(dbCtx); err != nil {
		log.Fatal(err)
	}
	slog.Info("数据库连接成功")

	if cfg.AutoMigrate {
		migCtx, migCancel := context.WithTimeout(context.Background(), 30*time.Second)
		res, err := migrate.Up(migCtx, dbPool, migrate.Options{Dir: cfg.MigrationsDir})
		migCancel()
		if err != nil {
			log.Fatal(err)
		}
		slog.Info("migrations applied", "dir", res.Dir, "applied", res.AppliedFiles, "skipped", len(res.SkippedFiles))
	}

	usersRepo := repo.NewUsersRepo(dbPool)
	creditsRepo := repo.NewCreditsRepo(dbPool)
	tasksRepo := repo.NewTasksRepo(dbPool)

	//Redis
	redisClient, errRedis := platformcache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if errRedis != nil {
		log.Fatal(errRedis)
	}
	defer redisClient.Close()

	//限流器：Redis 滑动窗口 + 本地令牌桶兜底
	var limiter *ratelimit.Limiter
	if cfg.RateLimitEnabled {
		limiter = ratelimit.NewLimiter(redisClient).
			WithFallback(ratelimit.NewLocalLimiter(cfg.LocalRateLimitRPS, int(cfg.LocalRateLimitRPS)+1))
	} else {
		slog.Warn("RateLimit disabled by config", "RATELIMIT_ENABLED", false)
	}

	//余额缓存
	localCache, errLocal := ubcache.NewLocalCache(100000, 100000, 5*time.Second)
	if errLocal != nil {
		log.Fatal(errLocal)
	}
	balanceCache := ubcache.NewBalanceCache(redisClient, localCache, creditsRepo)
	defer balanceCache.Close()
	submitLock := ubcache.NewSubmitLock(redisClient, cfg.SubmitLockTTL)
	//已提交 URL 提示：预期 1000 万条，1% 误判率
	submitted := ubcache.NewSubmittedFilter(10_000_000, 0.01)

	//任务事件（根据配置选择 Channel 或 Kafka）
	eventStore := events.NewPgStore(dbPool)
	var collector events.Collector
	var kafkaConsumer *events.KafkaConsumer
	var channelConsumer *events.Consumer
	if cfg.KafkaEnabled {
		slog.Info("使用 Kafka 收集任务事件", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		collector = events.NewKafkaCollector(cfg.KafkaBrokers, cfg.KafkaTopic)
		kafkaConsumer = events.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, eventStore)
	} else {
		slog.Info("使用 Channel 收集任务事件")
		channelCollector := events.NewChannelCollector(10000)
		collector = channelCollector
		channelConsumer = events.NewConsumer(eventStore, channelCollector)
	}

	//派发队列
	dispatchQueue, errQueue := queue.NewDispatchQueue(redisClient, queue.Config{
		Stream:   cfg.DispatchStream,
		Group:    cfg.DispatchGroup,
		Consumer: cfg.DispatchConsumer,
	})
	if errQueue != nil {
		log.Fatal(errQueue)
	}
	dispatchWorker := queue.NewWorker(dispatchQueue, tasksRepo, balanceCache, collector)

	submitSvc := submit.NewService(submit.Deps{
		Ledger:     creditsRepo,
		Cached:     balanceCache,
		Invalidate: balanceCache,
		Tasks:      tasksRepo,
		Lock:       submitLock,
		Dispatch:   dispatchQueue,
		Hints:      submitted,
		Events:     collector,
	}, submit.Options{
		Policy:          cfg.Policy(),
		BreakerFailures: cfg.BreakerFailures,
		BreakerTimeout:  cfg.BreakerTimeout,
	})

	// JWT
	ts, jwtErr := auth.NewHS256Service(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if jwtErr != nil {
		log.Fatal(jwtErr)
	}

	metrics.Init()

	if cfg.TracingEnabled {
		shutdown, err := trace.InitTrace(context.Background(), trace.Options{
			Endpoint:       cfg.OtlpGrpcEndpoint,
			ServiceName:    cfg.OtlpServiceName,
			ServiceVersion: version,
			SampleRatio:    cfg.TraceSampleRatio,
		})
		if err != nil {
			slog.Error("trace init failed", "err", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					slog.Error("trace shutdown failed", "err", err)
				}
			}()
		}
	} else {
		slog.Warn("Tracing disabled by config", "TRACING_ENABLED", false)
	}

	// 对外业务
	r := gee.New()
	r.Use(
		gee.RecoveryWith(httpmiddleware.PanicCounter()),
		middleware.ReqID(),
		middleware.AccessLog(),
		httpmiddleware.Metrics("/healthz"),
		httpmiddleware.TraceName(),
	)

	httpapi.RegisterPublicRoutes(r)
	httpapi.RegisterAPIRoutes(r.Group("/api/v1"), httpapi.Deps{
		Users:         usersRepo,
		Credits:       creditsRepo,
		Balances:      balanceCache,
		Invalidate:    balanceCache,
		Tasks:         tasksRepo,
		Submit:        submitSvc,
		Tokens:        ts,
		Limiter:       limiter,
		SignupCredits: cfg.SignupCredits,
	})

	slog.Info("routes registered", "count", len(r.Routes()))

	publicHandler := http.Handler(r)
	if cfg.TracingEnabled {
		publicHandler = otelhttp.NewHandler(r, "http")
	}
	publicSrv := httpserver.New(cfg, publicHandler)

	// 仅本机/内网
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	adminMux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := dbPool.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("DB Ping Err"))
			return
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Redis Ping Err"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	adminMux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"service_name": cfg.ServiceName,
			"version":      version,
			"commit":       commit,
			"build_time":   buildTime,
			"go_version":   runtime.Version(),
		})
	})

	if cfg.PprofEnabled {
		adminMux.HandleFunc("/debug/pprof/", pprof.Index)
		adminMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		adminMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		adminMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		adminMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	adminSrv := httpserver.NewAdmin(cfg, adminMux) // 推荐：127.0.0.1:6060

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errch := make(chan error, 2)

	go func() {
		errch <- httpserver.RunWithGracefulShutdownContext(publicSrv, cfg.ShutdownTimeout, stopCtx)
	}()
	go func() {
		errch <- httpserver.RunWithGracefulShutdownContext(adminSrv, cfg.ShutdownTimeout, stopCtx)
	}()

	go dispatchWorker.Run(stopCtx)

	if kafkaConsumer != nil {
		go kafkaConsumer.Run(stopCtx)
		defer kafkaConsumer.Close()
	}
	if channelConsumer != nil {
		go channelConsumer.Run(stopCtx)
	}
	defer collector.Close()

	err := <-errch
	if err != nil {
		stop()
		select {
		case <-errch:
		case <-time.After(cfg.ShutdownTimeout + time.Second):
		}
		log.Fatal(err)
	}

	stop()
	<-errch
}
