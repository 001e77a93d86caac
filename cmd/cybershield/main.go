package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mikey/cybershield/internal/adapters/httpapi"
	"github.com/mikey/cybershield/internal/di"
	"github.com/mikey/cybershield/internal/ports"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	server *httpapi.Server,
	emailFilter ports.EmailFilter,
	store ports.RecordStore,
) error {
	defer logger.Sync()
	defer store.Stop()

	if err := server.Start(); err != nil {
		logger.Error("Failed to start HTTP API", zap.Error(err))
		return err
	}

	// filter_type none runs the HTTP API only
	if emailFilter != nil {
		if err := emailFilter.Start(); err != nil {
			logger.Error("Failed to start filter", zap.Error(err))
			return err
		}
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		logger.Error("Failed to stop HTTP server", zap.Error(err))
	}
	if emailFilter != nil {
		if err := emailFilter.Stop(); err != nil {
			logger.Error("Failed to stop filter", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
