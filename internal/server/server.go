package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/nicole-nieto/tienda-online/internal/config"
	custommiddleware "github.com/nicole-nieto/tienda-online/internal/middleware"
	"github.com/nicole-nieto/tienda-online/internal/repository"
	"github.com/nicole-nieto/tienda-online/internal/service"
	"github.com/nicole-nieto/tienda-online/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config      *config.Config
	logger      *zap.Logger
	db          *sql.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.Env == "development"))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))

	// Rate limiting backed by Redis, when enabled
	var redisClient *redis.Client
	if cfg.RateLimit.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
			Window:            time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
			KeyPrefix:         "rate_limit",
		}, logger))
	}

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Initialize repositories
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)

	// Initialize services
	categoryService := service.NewCategoryService(categoryRepo)
	productService := service.NewProductService(productRepo, categoryRepo)

	// Initialize handlers
	categoryHandler := transport.NewCategoryHandler(categoryService, logger)
	productHandler := transport.NewProductHandler(productService, logger)

	// The destructive purge endpoint requires an admin bearer token
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	adminMiddleware := custommiddleware.RequireAdmin(logger)

	// Register routes
	categoryHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)
	productHandler.RegisterRoutes(router)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:      cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
