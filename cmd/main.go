package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	httpadapter "mailcadence/internal/adapter/http"
	"mailcadence/internal/adapter/memory"
	"mailcadence/internal/adapter/postgres"
	"mailcadence/internal/adapter/redislock"
	"mailcadence/internal/adapter/usecase"
	"mailcadence/internal/config"
	"mailcadence/internal/core/port"
	"mailcadence/internal/db"
	"mailcadence/internal/metrics"
	"mailcadence/internal/scheduler"
)

const demoHouseholds = 500

// main loads configuration, prepares the database, wires the use cases to
// PostgreSQL and the lock backend, then serves HTTP and runs the scheduler
// until SIGINT or SIGTERM.
func main() {
	exitCode := 1
	defer func() {
		if r := recover(); r != nil {
			panic(r)
		} else {
			os.Exit(exitCode)
		}
	}()

	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		return
	}

	logger := slog.New(cfg.Log.Handler(os.Stdout)).With(slog.String("env", cfg.Env))
	slog.SetDefault(logger)

	if cfg.Psql.RunMigrations {
		if err = db.Migrate(cfg.Psql.Addr.String()); err != nil {
			logger.Error("migration error", slog.Any("error", err))
			return
		}
		logger.Info("migrations applied successfully")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.Psql)
	if err != nil {
		logger.Error("database connection error", slog.Any("error", err))
		return
	}
	defer pool.Close()

	if cfg.SeedDemo {
		if err = db.Seed(ctx, pool, demoHouseholds); err != nil {
			logger.Error("seed error", slog.Any("error", err))
			return
		}
	}

	var locker port.Locker = memory.NewLocker()
	if cfg.Redis.Enabled() {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Error("redis url error", slog.Any("error", err))
			return
		}
		client := redis.NewClient(opts)
		defer client.Close()
		if err = client.Ping(ctx).Err(); err != nil {
			logger.Error("redis connection error", slog.Any("error", err))
			return
		}
		locker = redislock.New(client,
			redislock.WithTTL(cfg.Redis.LockTTL),
			redislock.WithWait(cfg.Redis.LockWait),
			redislock.WithLogger(logger),
		)
	} else {
		logger.Warn("redis disabled, using in-process locks")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []usecase.Option{
		usecase.WithLogger(logger),
		usecase.WithMetrics(metrics.New(reg)),
		usecase.WithConcurrency(cfg.Scheduler.Concurrency),
	}
	store := postgres.NewCampaignStore(pool)
	engine := usecase.NewSegmentationEngine(postgres.NewAudienceSource(pool), opts...)
	campaigns := usecase.NewCampaignUseCase(store, locker, engine, opts...)
	bulk := usecase.NewBulkStatusUseCase(store, locker, opts...)

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(cfg.Scheduler, campaigns, bulk, logger)
		if err != nil {
			logger.Error("scheduler error", slog.Any("error", err))
			return
		}
		sched.Start()
		defer func() {
			stopCtx, stop := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer stop()
			sched.Stop(stopCtx)
		}()
	}

	handler := httpadapter.NewHandler(campaigns, bulk, reg, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("server listening", slog.Int("port", int(cfg.HTTP.Port)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()
	exitCode = 0

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer stop()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	} else {
		logger.Info("server gracefully stopped")
	}
}
