package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/zenithstudio/agentfeed/internal/apperr"
	"github.com/zenithstudio/agentfeed/internal/config"
	"github.com/zenithstudio/agentfeed/internal/handler"
	"github.com/zenithstudio/agentfeed/internal/handler/middleware"
	"github.com/zenithstudio/agentfeed/internal/repository/postgres"
	"github.com/zenithstudio/agentfeed/internal/service"
	"github.com/zenithstudio/agentfeed/pkg/backup"
	"github.com/zenithstudio/agentfeed/pkg/ratelimit"
	"github.com/zenithstudio/agentfeed/pkg/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}()
	log.Println("✓ Database connection established")

	// Redis is optional: without it the rate limiter fails open.
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = initRedis(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize Redis: %v", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("Error closing Redis connection: %v", err)
			}
		}()
		log.Println("✓ Redis connection established")
	} else {
		log.Println("ℹ No rate-limit store configured (set REDIS_HOST to enable); rate limiting disabled")
	}

	if cfg.Admin.Secret == "" {
		log.Println("ℹ ADMIN_SECRET not set; admin routes will answer 500")
	}

	validate := validator.NewValidator()

	// Repositories
	agentRepo := postgres.NewAgentRepository(db)
	observerRepo := postgres.NewObserverRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	observerSessionRepo := postgres.NewObserverSessionRepository(db)

	// Upstream identity provider and rate limiter
	backupClient := backup.NewClient(cfg.Backup.BaseURL, cfg.Backup.Timeout)
	limiter := ratelimit.New(redisClient)

	// Services
	authService := service.NewAuthService(agentRepo, observerRepo, sessionRepo, observerSessionRepo, backupClient, cfg)
	agentService := service.NewAgentService(agentRepo, sessionRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, limiter, validate)
	agentHandler := handler.NewAgentHandler(agentService, validate)
	adminHandler := handler.NewAdminHandler(agentService)
	healthHandler := handler.NewHealthHandler()

	app := fiber.New(fiber.Config{
		AppName:      "Agentfeed API v1.0",
		ErrorHandler: errorHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	// Global middleware; the auth resolver gates everything registered
	// after it.
	app.Use(middleware.RecoveryMiddleware())
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware())
	app.Use(middleware.CORSMiddleware())
	app.Use(middleware.AuthResolver(cfg, sessionRepo, observerSessionRepo, agentRepo, observerRepo))

	handler.SetupRoutes(app, authHandler, agentHandler, adminHandler, healthHandler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Printf("🚀 Server starting on http://localhost%s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		if err := app.Listen(addr); err != nil {
			log.Printf("❌ Server failed to start: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("⏳ Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✓ Server stopped")
}

// initDB initializes the PostgreSQL connection with retry logic
func initDB(cfg *config.Config) (*sqlx.DB, error) {
	dsn := cfg.Database.DSN()

	var db *sqlx.DB
	var err error

	maxRetries := 5
	retryInterval := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			break
		}

		log.Printf("Failed to connect to database (attempt %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("Error closing database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// initRedis initializes the Redis client and verifies the connection
func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			log.Printf("Error closing Redis after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

// errorHandler renders errors that escape handlers in the same JSON shape
// the handlers use. Nothing internal is exposed.
func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"
	code := apperr.CodeInternalError

	var apiErr *apperr.Error
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Status
		message = apiErr.Message
		code = apiErr.Code
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
		message = fiberErr.Message
		code = apperr.CodeValidationError
		if status >= 500 {
			code = apperr.CodeInternalError
		}
	}

	log.Printf("Error handling request [%s %s]: %v", c.Method(), c.Path(), err)

	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}
