package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"rentora-utils/internal/api/routes"
	"rentora-utils/internal/callback"
	"rentora-utils/internal/captcha"
	"rentora-utils/internal/config"
	"rentora-utils/internal/jobs"
	"rentora-utils/internal/scraper/providers"
	"rentora-utils/internal/scraper/workers"
	"rentora-utils/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := utils.GetLogger()
	logger.Info("Starting Rentora Bill Scraper")

	// Job store
	var store jobs.Store
	switch cfg.Jobs.StoreBackend {
	case "redis":
		redisStore, err := jobs.NewRedisStore(cfg)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis job store")
		}
		defer redisStore.Close()
		store = redisStore
		logger.Info("Using Redis job store")
	default:
		store = jobs.NewInMemoryStore()
		logger.Info("Using in-memory job store")
	}

	// CAPTCHA solver and scraping driver
	solver := captcha.NewTwoCaptchaSolver(cfg)
	driver := providers.NewDriver(cfg, solver)
	registry := providers.DefaultRegistry(cfg)
	credentials := jobs.NewEnvCredentialService()

	// Worker pool
	pool := workers.NewPool(cfg)
	if err := pool.Start(); err != nil {
		logger.WithError(err).Fatal("Failed to start worker pool")
	}

	runner := jobs.NewRunner(cfg, store, registry, driver, credentials, pool)
	if notifier := callback.NewClient(cfg); notifier != nil {
		runner.SetNotifier(notifier)
		logger.Info("Job callback webhook enabled")
	}

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Setup routes
	routes.SetupRoutes(e, cfg, runner, pool, solver)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Stop accepting new requests, then drain in-flight runs
		logger.Info("Stopping HTTP server...")
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Error shutting down server")
		}

		logger.Info("Stopping worker pool...")
		if err := pool.Stop(); err != nil {
			logger.WithError(err).Error("Error stopping worker pool")
		}

		logger.Info("Server shutdown complete")
	}()

	// Start server
	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.WithField("address", address).Info("Server starting")

	if err := e.Start(address); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
