// @title Event Planner API
// @version 1.0
// @description Profiles, events and per-event change history.
// @BasePath /
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

	"github.com/redis/go-redis/v9"

	"eventplanner/config"
	_ "eventplanner/docs"
	"eventplanner/internal/adapters/ical"
	deliveryhttp "eventplanner/internal/delivery/http"
	"eventplanner/internal/delivery/http/controllers"
	"eventplanner/internal/repository/cache"
	"eventplanner/internal/repository/postgres"
	"eventplanner/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(db); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, profile lookups will fall back to postgres", "err", err)
		}
	}

	profileRepo := cache.NewProfileCache(postgres.NewProfileRepository(db), redisClient, cfg.ProfileCacheTTL)
	eventRepo := postgres.NewEventRepository(db)
	changeLogRepo := postgres.NewChangeLogRepository(db)

	profileService := services.NewProfileService(profileRepo, cfg.RequestTimeout)
	eventService := services.NewEventService(eventRepo, profileRepo, changeLogRepo, logger, cfg.RequestTimeout)

	mux := deliveryhttp.NewRouter(
		controllers.NewProfileController(logger, profileService),
		controllers.NewEventController(logger, eventService, ical.NewFeed()),
		controllers.NewHealthController(logger, db),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      deliveryhttp.NewHandler(logger, cfg.CORSOrigins, mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}
