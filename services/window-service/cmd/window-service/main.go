package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/md-rashed-zaman/bookwindow/libs/auth"
	"github.com/md-rashed-zaman/bookwindow/libs/config"
	"github.com/md-rashed-zaman/bookwindow/libs/db"
	"github.com/md-rashed-zaman/bookwindow/libs/httpx"
	"github.com/md-rashed-zaman/bookwindow/libs/kafkax"
	otelx "github.com/md-rashed-zaman/bookwindow/libs/otel"
	"github.com/md-rashed-zaman/bookwindow/libs/runtime"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/bookability"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/boundary"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/consumer"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/handlers"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/inbox"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/jobs"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/storage"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/window"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		panic(err)
	}

	service := config.String("SERVICE_NAME", "window-service")
	port, err := config.Port("PORT", "8090")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service, config.String("LOG_LEVEL", "info"))

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	maxConns, err := config.Int("DB_MAX_CONNS", 10)
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, db.Options{MaxConns: int32(maxConns)})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := storage.Migrate(ctx, pool); err != nil {
		logger.Error("db migration failed", "err", err)
		panic(err)
	}

	readyChecks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}

	var (
		cache       bookability.Cache
		rateLimitMW httpx.Middleware
	)
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
		})
		defer func() { _ = rdb.Close() }()

		ttl, err := config.Duration("BOOKABILITY_TTL", 15*time.Minute)
		if err != nil {
			panic(err)
		}
		cache = bookability.NewRedisCache(rdb, ttl, "bookability")
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: bookability.ReadyCheck(rdb)})

		limitPerMinute, err := config.Int("RATE_LIMIT_PER_MINUTE", 120)
		if err != nil {
			panic(err)
		}
		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl:window"))
		rateLimitMW = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		logger.Info("bookability cache enabled", "redis_addr", addr, "ttl", ttl.String())
	} else {
		logger.Warn("REDIS_ADDR not set; ROLLING_WINDOW periods will not be enforced")
	}

	resolver := window.NewResolver(window.WithLogger(logger))
	svc := boundary.NewService(storage.NewEventTypeRepository(pool), cache, resolver, logger)

	inboxRepo := inbox.NewRepository(pool)
	if brokers := config.String("KAFKA_BROKERS", ""); brokers != "" {
		groupID := config.String("KAFKA_GROUP_ID", service)
		periodConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   config.String("KAFKA_PERIOD_TOPIC", "eventtype.period.updated.v1"),
		}, consumer.PeriodUpdated(svc, logger))
		go periodConsumer.Run(ctx)

		if cache != nil {
			availabilityConsumer := consumer.New(logger, inboxRepo, consumer.Config{
				Brokers: brokers,
				GroupID: groupID,
				Topic:   config.String("KAFKA_AVAILABILITY_TOPIC", "availability.days.computed.v1"),
			}, consumer.AvailabilityComputed(svc, logger))
			go availabilityConsumer.Run(ctx)
		}
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}

	retention, err := config.Duration("INBOX_RETENTION", 168*time.Hour)
	if err != nil {
		panic(err)
	}
	purge, err := jobs.Schedule(config.String("INBOX_PURGE_SCHEDULE", "@hourly"), jobs.NewInboxPurgeJob(inboxRepo, retention, logger), logger)
	if err != nil {
		panic(err)
	}
	purge.Start()
	defer func() { <-purge.Stop().Done() }()

	grpcSrv, err := startGrpcServer(logger, svc)
	if err != nil {
		logger.Error("grpc server failed to start", "err", err)
		panic(err)
	}

	windowHandler := handlers.NewWindowHandler(svc, logger)
	adminSecret := config.String("ADMIN_JWT_SECRET", "")
	requireAdmin := auth.RequireRole(adminSecret, "admin")

	public := []httpx.Middleware{
		httpx.WithCORS(httpx.PublicCORSPolicy(config.String("CORS_ALLOWED_ORIGINS", ""))),
	}
	if rateLimitMW != nil {
		public = append(public, rateLimitMW)
	}

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.Handle("/api/v1/public/period-limits", httpx.Chain(http.HandlerFunc(windowHandler.PeriodLimits), public...))
	mux.Handle("/api/v1/public/check", httpx.Chain(http.HandlerFunc(windowHandler.Check), public...))
	mux.Handle("/api/v1/event-types/period", requireAdmin(http.HandlerFunc(windowHandler.UpsertPeriod)))
	mux.Handle("/api/v1/event-types/bookability", requireAdmin(http.HandlerFunc(windowHandler.PutBookability)))

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(10*time.Second),
	)
	handler = otelhttp.NewHandler(handler, "window")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	grpcSrv.stop()
	runtime.GracefulShutdown(logger, "http server", srv, 10*time.Second)
}
