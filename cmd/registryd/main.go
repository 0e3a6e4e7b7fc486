// REGISTRY SERVICE - cmd/registryd/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"tachyon/internal/handler"
	"tachyon/internal/middleware"
	"tachyon/internal/registry"
	"tachyon/internal/repository/postgres"
	"tachyon/internal/security"
	"tachyon/pkg/config"
	"tachyon/pkg/logger"
	"tachyon/pkg/validator"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log := logger.New("registry-service")

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}

	// Connect to database
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	// Initialize repositories
	deviceRepo := postgres.NewDeviceRepository(db)

	// Initialize services. The coin-flip prober stands in for a real
	// network probe; substitute a real Prober here when one exists.
	hasher := security.NewBcryptHasher(cfg.Hashing.Cost)
	prober := registry.NewCoinFlipProber()
	registryService := registry.NewService(deviceRepo, hasher, prober, log, cfg.Database.QueryTimeout)

	// Redis is optional: without it the service runs uncached and unthrottled.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		}

		registryService = registryService.WithListCache(
			registry.NewRedisListCache(redisClient), cfg.Cache.ListTTL)
	} else {
		log.Warn("REDIS_URL not set; list caching and rate limiting disabled", nil)
	}

	// Initialize handlers
	val := validator.New()
	deviceHandler := handler.NewDeviceHandler(registryService, val, log)

	// Setup router
	r := mux.NewRouter()

	// Middleware. Recovery is outermost so a panic anywhere below it,
	// middleware included, still yields a JSON 500.
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.NewLoggingMiddleware(log).Log)
	if redisClient != nil {
		r.Use(middleware.NewRateLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window).Limit)
	}
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.BodyLimit(1 << 20))

	// Routes
	r.HandleFunc("/health", deviceHandler.Health).Methods("GET")
	r.HandleFunc("/add_device", deviceHandler.AddDevice).Methods("POST")
	r.HandleFunc("/check_availability", deviceHandler.CheckAvailability).Methods("POST")
	r.HandleFunc("/devices", deviceHandler.ListDevices).Methods("GET")

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		log.Info("Registry service starting", map[string]interface{}{"port": cfg.Server.Port})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", map[string]interface{}{"error": err.Error()})
	}

	if redisClient != nil {
		redisClient.Close()
	}

	log.Info("Server stopped", nil)
}
