package server

import (
	"fmt"
	"net/http"
	"time"

	"inventory-api/internal/config"
	"inventory-api/internal/database"
	"inventory-api/internal/metrics"
	custommiddleware "inventory-api/internal/middleware"
	"inventory-api/internal/repository"
	"inventory-api/internal/service"
	"inventory-api/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	dbs    *database.Service
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, dbs *database.Service) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.Env == "development"))
	router.Use(metrics.Middleware())
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.ActorMiddleware(cfg.Auth.JWTSecret, logger))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := dbs.Health(r.Context())
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, map[string]any{
			"status":   "ok",
			"database": health,
		})
	})
	router.Get("/metrics", metrics.Handler())

	db := dbs.DB()

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	// Initialize services
	productService := service.NewProductService(db, productRepo, historyRepo)
	inventoryService := service.NewInventoryService(productRepo, historyRepo, logger)

	// Initialize handlers
	productHandler := transport.NewProductHandler(productService, logger)
	inventoryHandler := transport.NewInventoryHandler(inventoryService, logger)

	// Bulk imports are the one expensive endpoint; rate limit them when
	// Redis is configured.
	var importLimiter func(http.Handler) http.Handler
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		importLimiter = custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.ImportPerMinute,
			Window:            time.Minute,
			KeyPrefix:         "import_rate_limit",
		}, logger)
	}

	// Register routes
	productHandler.RegisterRoutes(router)
	inventoryHandler.RegisterRoutes(router, importLimiter)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		dbs:    dbs,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.dbs != nil {
		if err := s.dbs.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
