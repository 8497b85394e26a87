package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foodgram/foodgram/backend/config"
	"github.com/foodgram/foodgram/backend/internal/database"
	"github.com/foodgram/foodgram/backend/internal/logger"
	"github.com/foodgram/foodgram/backend/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Init("foodgram-api", config.IsDevelopment(), cfg.LogLevel)
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	migrationsDir := os.Getenv("MIGRATIONS_DIR")
	if migrationsDir == "" {
		migrationsDir = "migrations"
	}
	if err := database.RunMigrations(db, migrationsDir); err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Redis only backs rate limiting, so the API runs without it.
	var redisClient *redis.Client
	if cfg.RedisHost != "" || cfg.RedisURL != "" {
		if redisClient, err = database.NewRedisClient(cfg); err != nil {
			logger.Logger.Warn().Err(err).Msg("redis unavailable, rate limiting disabled")
			redisClient = nil
		}
	}

	images, err := server.NewImageStore(context.Background(), cfg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to configure image storage")
	}

	srv, err := server.New(cfg, db, redisClient, images)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to build server")
	}

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("server error")
		}
	case sig := <-quit:
		logger.Logger.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Fatal().Err(err).Msg("server shutdown error")
	}
	logger.Logger.Info().Msg("server stopped")
}
