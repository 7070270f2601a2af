package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/yt-stream-go/api"
	"github.com/yourusername/yt-stream-go/internal/app"
	"github.com/yourusername/yt-stream-go/internal/domain"
	"github.com/yourusername/yt-stream-go/internal/infrastructure"
	"github.com/yourusername/yt-stream-go/pkg/logger"
)

var configPath = flag.String("config", "", "Path to config file")

func main() {
	flag.Parse()

	// Load configuration
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting yt-stream server",
		zap.String("version", api.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("ytdlp_binary", config.Backend.YTDLPBinary))

	// Append-only error log for the debug endpoint
	errlog := logger.NewErrorLog(config.Logging.ErrorLogPath)

	// Backends
	primary := infrastructure.NewYouTubeBackend(&config.Backend, log)
	secondary := infrastructure.NewYTDLPBackend(&config.Backend, log)

	// Download history (optional)
	var history domain.HistoryRepository
	if config.History.Enabled {
		repo, err := infrastructure.NewSQLiteHistoryRepository(config.History.DatabasePath)
		if err != nil {
			log.Fatal("Failed to initialize history repository", zap.Error(err))
		}
		defer repo.Close()
		history = repo
	}

	// Notification service
	notifier := infrastructure.NewNotificationService(&config.Notify, log)

	// Core services
	resolver := app.NewFormatResolver(primary, secondary, errlog, config.Backend.ResolveTimeout, log)
	registry := app.NewProgressRegistry()
	orchestrator := app.NewOrchestrator(
		resolver,
		primary,
		secondary,
		registry,
		notifier,
		history,
		errlog,
		config.Backend.ChunkSize,
		log,
	)

	// Setup HTTP router
	router := api.SetupRouter(api.RouterDeps{
		Config:       config,
		Resolver:     resolver,
		Orchestrator: orchestrator,
		Registry:     registry,
		History:      history,
		ErrorLog:     errlog,
		Logger:       log,
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
