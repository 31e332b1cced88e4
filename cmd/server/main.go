package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymcore-backend-go/internal/cache"
	"gymcore-backend-go/internal/config"
	"gymcore-backend-go/internal/db"
	httpapi "gymcore-backend-go/internal/http"
	"gymcore-backend-go/internal/logging"
	"gymcore-backend-go/internal/migrations"
	"gymcore-backend-go/internal/services"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := logging.New(logging.Options{
		Dir:           cfg.LogDir,
		RetentionDays: cfg.LogRetentionDays,
		Level:         cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("logger setup failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server_exited", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("shutdown_complete")
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	applied, err := migrations.Apply(ctx, database, migrations.Files)
	if err != nil {
		return err
	}
	if len(applied) > 0 {
		logger.Info("migrations_applied", zap.Strings("files", applied))
	}

	var board *cache.Leaderboard
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL, logger)
		if err != nil {
			logger.Warn("leaderboard_cache_disabled", zap.Error(err))
		} else {
			defer client.Close()
			board = cache.NewLeaderboard(client, time.Duration(cfg.LeaderboardTTLSeconds)*time.Second, logger)
		}
	}

	hub := services.NewPointsHub(logger)
	svc := services.New(database, logger, services.Options{
		ThresholdPercent: cfg.CompletionThresholdPercent,
		Leaderboard:      board,
		Listeners:        []services.PointsListener{hub},
	})
	server := httpapi.NewServer(svc, cfg, hub, logger)
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
