package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"rentora-utils/internal/captcha"
	"rentora-utils/internal/scraper/workers"
	"rentora-utils/pkg/models"
)

var startTime = time.Now()

// HealthHandler handles health check requests
func HealthHandler(c echo.Context) error {
	response := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Uptime:    time.Since(startTime),
		Checks: map[string]string{
			"api": "ok",
		},
	}

	return c.JSON(http.StatusOK, response)
}

// ReadinessHandler reports whether the service can accept scrape requests
func ReadinessHandler(pool *workers.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		checks := map[string]string{"api": "ok"}
		status := "ready"
		code := http.StatusOK

		if pool.IsRunning() {
			checks["workers"] = "ok"
		} else {
			checks["workers"] = "not_running"
			status = "not_ready"
			code = http.StatusServiceUnavailable
		}

		return c.JSON(code, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   "1.0.0",
			Uptime:    time.Since(startTime),
			Checks:    checks,
		})
	}
}

// LivenessHandler handles liveness probe requests
func LivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Uptime:    time.Since(startTime),
	})
}

// CaptchaHealthHandler reports whether the CAPTCHA solving service is
// reachable and funded. Unhealthy here means login flows that hit a
// challenge will fail.
func CaptchaHealthHandler(solver captcha.Solver) echo.HandlerFunc {
	return func(c echo.Context) error {
		checks := map[string]string{}
		status := "healthy"
		code := http.StatusOK

		if solver.IsHealthy() {
			checks["captcha"] = "ok"
		} else {
			checks["captcha"] = "unavailable"
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}

		return c.JSON(code, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   "1.0.0",
			Uptime:    time.Since(startTime),
			Checks:    checks,
		})
	}
}
