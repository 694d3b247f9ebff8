package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eshaffer321/bill-linker/internal/api"
	"github.com/eshaffer321/bill-linker/internal/application/service"
	"github.com/eshaffer321/bill-linker/internal/infrastructure/config"
)

// RunServe runs the API server until SIGINT or SIGTERM.
func RunServe(cfg *config.Config, flags *ServeFlags) error {
	logger := NewLogger(cfg, "api", flags.Verbose)

	defaults, err := cfg.Matching.ToOptions()
	if err != nil {
		return err
	}

	// Initialize storage
	store, err := OpenStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	// Create API config
	apiCfg := api.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	if flags.Port != 0 {
		apiCfg.Port = flags.Port
	}

	linkService := service.NewLinkService(store, defaults, NewLogger(cfg, "linker", flags.Verbose), nil)

	// Create and start server
	server := api.NewServer(apiCfg, store, linkService, logger)

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
