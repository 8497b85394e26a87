package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/foodgram/foodgram/backend/config"
	"github.com/foodgram/foodgram/backend/internal/api"
	"github.com/foodgram/foodgram/backend/internal/database"
	"github.com/foodgram/foodgram/backend/internal/logger"
	"github.com/foodgram/foodgram/backend/internal/middleware"
	"github.com/foodgram/foodgram/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server represents the HTTP server
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
	redis  *redis.Client
}

// New wires services and routes on top of an open database. redisClient
// may be nil, in which case recipe creation is limited per process.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, images service.ImageStore) (*Server, error) {
	if err := middleware.RegisterBindingValidators(); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	router := gin.New()
	router.Use(
		middleware.RequestLogger(),
		middleware.Recovery(),
		metrics.Handler(),
		middleware.CORS(cfg.CORSOrigins),
	)

	s := &Server{
		cfg:    cfg,
		router: router,
		db:     db,
		redis:  redisClient,
	}

	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	if _, ok := images.(*service.LocalImageStore); ok && strings.HasPrefix(cfg.MediaURL, "/") {
		router.Static(cfg.MediaURL, cfg.MediaRoot)
	}

	follows := service.NewFollowGuard(db)
	favorites := service.NewFavoriteGuard(db)
	cart := service.NewCartGuard(db)
	recipes := service.NewRecipeService(db, images)

	opts := api.Options{
		PageSize:    cfg.PageSize,
		PDFFontPath: cfg.PDFFontPath,
	}
	if cfg.RecipeCreationLimit > 0 {
		opts.RecipeLimiter = middleware.NewRecipeCreationRateLimiter(redisClient, cfg.RecipeCreationLimit)
	}

	api.RegisterRoutes(router, api.Services{
		Auth:      service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL),
		Users:     service.NewUserService(db, follows, recipes),
		Recipes:   recipes,
		Catalog:   service.NewCatalogService(db),
		Shopping:  service.NewShoppingService(db),
		Views:     service.NewViewService(follows, favorites, cart),
		Favorites: favorites,
		Cart:      cart,
	}, opts)

	return s, nil
}

// NewImageStore picks S3 when a bucket is configured and the local media
// directory otherwise.
func NewImageStore(ctx context.Context, cfg *config.Config) (service.ImageStore, error) {
	if cfg.S3Bucket == "" {
		return service.NewLocalImageStore(cfg.MediaRoot, cfg.MediaURL), nil
	}
	s3Cfg, err := config.NewS3Config(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure S3: %w", err)
	}
	return service.NewS3ImageStore(s3Cfg), nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Logger.Info().Str("addr", s.http.Addr).Msg("http server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server and releases its connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"status": "healthy", "database": "ok"}
	code := http.StatusOK

	if err := database.HealthCheck(ctx, s.db); err != nil {
		logger.Warn(ctx).Err(err).Msg("database health check failed")
		status["status"], status["database"] = "unhealthy", "unavailable"
		code = http.StatusServiceUnavailable
	}
	if s.redis != nil {
		status["redis"] = "ok"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			status["redis"] = "unavailable"
		}
	}

	c.JSON(code, status)
}
