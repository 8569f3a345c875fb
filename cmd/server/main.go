package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"donor_registry/internal/app"
	"donor_registry/internal/platform/config"
	"donor_registry/internal/platform/logging"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 2. Logger
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info().Str("env", cfg.AppEnv).Str("storage", cfg.StorageBackend).Msg("configuration loaded")

	// 3. Application context: datastore, token service, services
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.New(startupCtx, cfg, logger)
	startupCancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("could not initialise application")
	}
	defer application.Close()

	// 4. HTTP Server
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      application.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 5. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info().Str("port", cfg.APIPort).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Str("port", cfg.APIPort).Msg("could not listen")
		}
	}()

	<-stop // Wait for interrupt signal

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return
	}
	logger.Info().Msg("server stopped gracefully")
}
