package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dealflow-hq/dealflow-api/internal/auth"
	"github.com/dealflow-hq/dealflow-api/internal/database"
	"github.com/dealflow-hq/dealflow-api/internal/logger"
	"github.com/dealflow-hq/dealflow-api/internal/observability"
	"github.com/dealflow-hq/dealflow-api/internal/services"
	"github.com/dealflow-hq/dealflow-api/pkg/config"
)

// SetupRoutes configures all API routes and returns the background refresh
// pipeline for lifecycle management
func SetupRoutes(r *gin.Engine, db *database.DB, cfg *config.Config, log logger.Logger, metrics *observability.Metrics) *services.RefreshPipeline {
	svcs := services.NewServices(db.DB, cfg, log, metrics)
	refreshPipeline := services.NewRefreshPipeline(svcs.Match, log, cfg.QueueRefreshInterval)

	authHandler := NewAuthHandler(svcs.Auth)
	onboardingHandler := NewOnboardingHandler(svcs.Onboarding)
	profilesHandler := NewProfilesHandler(svcs.Profile)
	matchHandler := NewMatchHandler(svcs.Match)
	dealsHandler := NewDealsHandler(svcs.Deal)
	pipelineHandler := NewPipelineHandler(refreshPipeline)

	r.GET("/health", healthHandler(db))
	r.GET("/metrics", metrics.Handler())

	// Public routes
	public := r.Group("/api/v1")
	{
		public.POST("/auth/register", authHandler.Register)
		public.POST("/auth/login", authHandler.Login)
		public.POST("/auth/refresh", authHandler.RefreshToken)
	}

	// Protected routes
	protected := r.Group("/api/v1")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))
	{
		protected.GET("/auth/me", authHandler.Me)

		// Onboarding flow
		protected.POST("/onboarding", onboardingHandler.Start)
		protected.GET("/onboarding/:id", onboardingHandler.Get)
		protected.POST("/onboarding/:id/steps", onboardingHandler.Submit)

		// Profiles
		protected.GET("/profile", profilesHandler.GetOwn)
		protected.POST("/profiles", profilesHandler.Create)
		protected.GET("/profiles/:id", profilesHandler.Get)
		protected.POST("/profiles/:id/finalize", profilesHandler.Finalize)
		protected.PUT("/profiles/:id", profilesHandler.Update)
		protected.DELETE("/profiles/:id", profilesHandler.Delete)

		// Discovery queue
		protected.GET("/match/current", matchHandler.Current)
		protected.POST("/match/decision", matchHandler.Decide)
		protected.POST("/match/pass", matchHandler.Pass)
		protected.POST("/match/interested", matchHandler.Interested)
		protected.POST("/match/refresh", matchHandler.Refresh)

		// Acquisition pipeline
		protected.GET("/deals", dealsHandler.List)
		protected.GET("/deals/:id", dealsHandler.Get)
		protected.POST("/deals/:id/advance", dealsHandler.Advance)
		protected.POST("/deals/:id/withdraw", dealsHandler.Withdraw)
		protected.POST("/deals/:id/pending", dealsHandler.MarkPending)
		protected.POST("/deals/:id/reactivate", dealsHandler.Reactivate)
	}

	// Admin routes: insight ingestion and pipeline control
	admin := r.Group("/api/v1")
	admin.Use(auth.JWTMiddleware(cfg.JWTSecret), auth.RequireRole("admin"))
	{
		admin.POST("/deals/:id/insights", dealsHandler.AttachInsight)
		admin.GET("/pipeline/status", pipelineHandler.Status)
		admin.POST("/pipeline/start", pipelineHandler.Start)
		admin.POST("/pipeline/stop", pipelineHandler.Stop)
		admin.POST("/pipeline/run-once", pipelineHandler.RunOnce)
	}

	return refreshPipeline
}

func healthHandler(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.HealthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  db.GetStats(),
			"timestamp": time.Now(),
		})
	}
}
