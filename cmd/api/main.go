package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/bharatkse/image-storage-service/internal/cache"
	"github.com/bharatkse/image-storage-service/internal/config"
	"github.com/bharatkse/image-storage-service/internal/database"
	"github.com/bharatkse/image-storage-service/internal/handlers"
	"github.com/bharatkse/image-storage-service/internal/jobs"
	"github.com/bharatkse/image-storage-service/internal/log"
	"github.com/bharatkse/image-storage-service/internal/metadata"
	"github.com/bharatkse/image-storage-service/internal/server"
	"github.com/bharatkse/image-storage-service/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	records := metadata.NewPostgresStore(dbPool)
	if err := records.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure metadata schema")
	}

	objectStore, err := storage.NewMinioStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	// Orphan reporting is optional: without redis the rollback failures are
	// only logged.
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, orphan sweeping disabled")
		redisClient = nil
	}

	orphans := jobs.NewRedisOrphanQueue(redisClient, cfg.Jobs.OrphanStream)

	checks := []handlers.HealthCheck{
		{Name: "postgres", Ping: dbPool.Ping},
		{Name: "storage", Ping: objectStore.Ping},
	}
	if redisClient != nil {
		checks = append(checks, handlers.HealthCheck{Name: "redis", Ping: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}

	handlerSet := handlers.NewHandlerSet(logger, objectStore, records, orphans, cfg, checks...)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	sweeper := jobs.NewSweeper(redisClient, cfg.Jobs.OrphanStream, cfg.Jobs.OrphanSweepSchedule, objectStore, logger)
	if err := sweeper.Start(); err != nil {
		logger.Error().Err(err).Msg("sweeper start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, sweeper, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, sweeper *jobs.Sweeper, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	if sweeper != nil {
		sweeper.Stop()
	}

	db.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
