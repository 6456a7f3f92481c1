package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/imagesim/internal/api"
	"github.com/timmy/imagesim/internal/api/middleware"
	"github.com/timmy/imagesim/internal/config"
	"github.com/timmy/imagesim/internal/embedder"
	"github.com/timmy/imagesim/internal/embedder/tflite"
	"github.com/timmy/imagesim/internal/logger"
	"github.com/timmy/imagesim/internal/repository"
	"github.com/timmy/imagesim/internal/service"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		LogFile:     cfg.Log.File,
		ServiceName: "imagesim",
	})
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Initialize database (upload registry)
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}
	uploadRepo := repository.NewUploadRepository(db)

	ctx := context.Background()

	// Initialize the embedding stack. Failures here put the service into
	// degraded mode instead of preventing startup: every endpoint then
	// answers service-unavailable.
	var compareService *service.CompareService
	var uploadService *service.UploadService
	var emb *tflite.Embedder

	if err := embedder.EnsureModel(ctx, cfg.Model.Path, cfg.Model.URL); err != nil {
		appLogger.Errorf("Model provisioning failed, running degraded: %v", err)
	} else {
		emb, err = tflite.New(cfg.Model.Path, tflite.Options{
			L2Normalize: cfg.Embedder.L2Normalize,
			Quantize:    cfg.Embedder.Quantize,
			Threads:     cfg.Embedder.Threads,
		})
		if err != nil {
			appLogger.Errorf("Embedder initialization failed, running degraded: %v", err)
		}
	}

	if emb != nil {
		defer emb.Close()

		compareService = service.NewCompareService(emb, appLogger)

		uploadService, err = service.NewUploadService(uploadRepo, appLogger, service.UploadConfig{
			Dir:           cfg.Uploads.Dir,
			Retention:     cfg.Uploads.Retention,
			SweepInterval: cfg.Uploads.SweepInterval,
		})
		if err != nil {
			appLogger.Fatalf("Failed to initialize upload service: %v", err)
		}

		sweepCtx, cancelSweep := context.WithCancel(ctx)
		defer cancelSweep()
		uploadService.StartSweeper(sweepCtx)

		appLogger.Infof("Embedder ready: model=%s, dimensions=%d", cfg.Model.Path, emb.Dimensions())
	}

	// Setup router
	router := api.SetupRouter(compareService, uploadService, &api.RouterConfig{
		Mode:          cfg.Server.Mode,
		SessionSecret: cfg.Server.SessionSecret,
		MaxBodyBytes:  cfg.Uploads.MaxBodyBytes,
		TemplatesGlob: "web/templates/*",
		UploadsDir:    cfg.Uploads.Dir,
		CORS: middleware.CORSConfig{
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
			AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
		},
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.Infof("Starting server: port=%d, mode=%s, degraded=%t",
			cfg.Server.Port, cfg.Server.Mode, compareService == nil)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatalf("Server forced to shutdown: %v", err)
	}

	appLogger.Info("Server exited")
}
