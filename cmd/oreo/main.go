package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/oreo-app/oreo/internal/app"
	"github.com/oreo-app/oreo/internal/auth"
	"github.com/oreo-app/oreo/internal/observability"
	"github.com/oreo-app/oreo/internal/platform/db"
	"github.com/oreo-app/oreo/internal/users"
	"github.com/oreo-app/oreo/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	tokens := auth.NewTokenService(cfg.AuthSecret, cfg.SessionTTL, cfg.RecoveryTTL)
	blocklist := auth.NewTokenBlocklist(redisClient)
	cookies := auth.NewSessionCookies(cfg.SessionTTL, !cfg.IsDevelopment())
	notifier := jobs.NewEmailNotifier(jobClient, cfg.ServerBaseURL)

	repo := users.NewSQLRepository(pool)
	service := users.NewService(repo, auth.NewBcryptHasher(0), tokens, blocklist, notifier, logger)
	handler := users.NewHandler(logger, service, cookies)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		UsersHandler: handler,
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server run", slog.Any("error", err))
		os.Exit(1)
	}
}
