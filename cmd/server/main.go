package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suportesmart/storefront/app/server"
	"github.com/suportesmart/storefront/config"
	"github.com/suportesmart/storefront/models"
)

func main() {
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	boot := config.NewLogger("info")
	cfg, err := config.Load(boot)
	if err != nil {
		boot.WithError(err).Fatal("Failed to load configuration")
	}
	logger := config.NewLogger(cfg.LogLevel)

	if cfg.AutoMigrate {
		if err := models.Migrate(cfg.DatabaseURL, logger.WithField("component", "migrate")); err != nil {
			logger.WithError(err).Fatal("Failed to migrate database")
		}
	}

	db, err := models.Open(cfg.DatabaseURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.WithError(err).Fatal("Failed to access database pool")
	}
	defer sqlDB.Close()

	handlers, err := server.NewHandlers(db, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build handlers")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Routes(handlers, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server failed")
			stop()
		}
	}()

	<-sigCtx.Done()
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Failed to shut down gracefully")
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
