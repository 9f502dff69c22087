package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"rentora-utils/internal/api/handlers"
	"rentora-utils/internal/api/middleware"
	"rentora-utils/internal/captcha"
	"rentora-utils/internal/config"
	"rentora-utils/internal/jobs"
	"rentora-utils/internal/scraper/workers"
)

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, runner *jobs.Runner, pool *workers.Pool, solver captcha.Solver) {
	// Global middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())
	e.Use(middleware.RequestValidation())
	e.Use(middleware.TimeoutConfig(cfg.Server.ReadTimeout))

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/ready", handlers.ReadinessHandler(pool))
		health.GET("/live", handlers.LivenessHandler)
		health.GET("/captcha", handlers.CaptchaHealthHandler(solver))
	}

	// API v1 routes
	v1 := e.Group("/api/v1")
	{
		v1.POST("/scrape", handlers.ScrapeHandler(cfg, runner))

		jobsGroup := v1.Group("/jobs")
		{
			jobsGroup.GET("/:id", handlers.GetJobHandler(runner))
			jobsGroup.POST("/:id/retry", handlers.RetryJobHandler(cfg, runner))
		}

		workersGroup := v1.Group("/workers")
		{
			workersGroup.GET("/stats", handlers.WorkerStatsHandler(pool))
		}
	}

	// Root route
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "Rentora Bill Scraper",
			"version": "1.0.0",
			"status":  "running",
		})
	})
}
