package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"funnel-tracker/internal/client"
	"funnel-tracker/internal/config"
	"funnel-tracker/internal/export"
	"funnel-tracker/internal/handlers"
	"funnel-tracker/internal/metrics"
	"funnel-tracker/internal/monitoring"
	"funnel-tracker/internal/storage"
	"funnel-tracker/internal/transformer"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithField("store", cfg.StoreDriver).Info("Starting funnel tracker service")

	// Initialize components
	httpClient := client.NewHTTPClient(cfg, logger)
	store, closeStore, err := openStore(cfg, httpClient)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open prospect store")
	}
	defer closeStore()

	calculator := metrics.NewCalculator().WithScalingDefaults(cfg.DefaultScalingIncrement, cfg.DefaultScalingFrequency)
	exporter := export.NewExporter(cfg.SinkSecret, cfg.SinkURL, httpClient, calculator, logger)
	monitor := monitoring.NewCollector()

	// Initialize handlers
	handler := handlers.New(cfg, transformer.New(), store, calculator, exporter, monitor, logger)

	// Setup Gin router
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	handler.RegisterRoutes(router)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func openStore(cfg *config.Config, httpClient *client.HTTPClient) (storage.ProspectStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return storage.NewMemoryStore(), func() {}, nil
	case config.StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
		defer cancel()
		db, err := storage.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewPostgresStore(db), func() { db.Close() }, nil
	case config.StoreREST:
		if cfg.RestURL == "" {
			return nil, nil, fmt.Errorf("REST_URL is required for the rest store")
		}
		return storage.NewRestStore(httpClient, cfg.RestURL, cfg.RestAPIKey), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}
