package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/dealflow-hq/dealflow-api/internal/api"
	"github.com/dealflow-hq/dealflow-api/internal/database"
	"github.com/dealflow-hq/dealflow-api/internal/logger"
	"github.com/dealflow-hq/dealflow-api/internal/middleware"
	"github.com/dealflow-hq/dealflow-api/internal/observability"
	"github.com/dealflow-hq/dealflow-api/pkg/config"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	cfg := config.New()
	log := logger.New(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required", nil)
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal("failed to run migrations", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := observability.NewMetrics()

	r := gin.New()
	r.Use(middleware.RequestLoggingMiddleware(log))
	r.Use(metrics.Middleware())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(middleware.InputValidationMiddleware(cfg))
	if cfg.EnableRateLimit {
		r.Use(middleware.RateLimitingMiddleware())
	}
	r.Use(gin.Recovery())

	if proxies := cfg.GetTrustedProxies(); len(proxies) > 0 {
		if err := r.SetTrustedProxies(proxies); err != nil {
			log.Fatal("invalid trusted proxies", err)
		}
	}

	refreshPipeline := api.SetupRoutes(r, db, cfg, log, metrics)
	if err := refreshPipeline.Start(); err != nil {
		log.Fatal("failed to start refresh pipeline", err)
	}

	// Stop the refresh loop cleanly on shutdown signals
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		if err := refreshPipeline.Stop(); err != nil {
			log.Error("failed to stop refresh pipeline", err)
		}
		os.Exit(0)
	}()

	log.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("failed to start server", err)
	}
}
