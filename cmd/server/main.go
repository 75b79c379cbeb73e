package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lucasandrade/disparador/internal/api"
	"github.com/lucasandrade/disparador/internal/config"
	"github.com/lucasandrade/disparador/internal/pkg/logger"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		logger.Error("failed to load config", "err", err.Error())
		os.Exit(1)
	}

	if cfg.Runtime.DebugLog {
		logger.SetLevel(logger.DEBUG)
	}
	// Private single-operator deployments may disable masking to debug
	// delivery problems; anything public keeps it on.
	logger.SetRedact(cfg.Runtime.Public || !cfg.Runtime.DebugLog)

	handlers := api.NewHandlers(cfg)
	router := api.SetupRoutes(handlers, cfg.Server.StaticDir)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Batches pace themselves in seconds per message; the write
		// timeout must cover a full capped batch.
		WriteTimeout: 30 * time.Minute,
	}

	go func() {
		logger.Info("server listening",
			"addr", addr,
			"transport", transportName(cfg),
			"serverless", fmt.Sprintf("%v", cfg.Runtime.Serverless))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", "err", err.Error())
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "err", err.Error())
	}
}

func transportName(cfg *config.Config) string {
	if cfg.Mailjet.Enabled {
		return "mailjet-api"
	}
	return "smtp"
}
