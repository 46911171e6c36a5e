package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"pharmamind/m/internal/api"
	"pharmamind/m/internal/config"
	"pharmamind/m/internal/database"
	"pharmamind/m/internal/migrations"
	"pharmamind/m/internal/seed"
	"pharmamind/m/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	records := store.New(db)
	seed.LoadSuppliers(ctx, records, cfg.SuppliersCSV)

	hash, err := passwordHash(cfg)
	if err != nil {
		slog.Error("invalid owner passcode", "error", err)
		os.Exit(1)
	}
	if !cfg.AuthEnabled() {
		slog.Warn("OWNER_PASSWORD not set, API is not authenticated")
	} else if cfg.Secret == "dev_secret" {
		slog.Warn("SECRET not set, using the development signing key")
	}

	handler, err := api.New(ctx, records, api.Options{
		Secret:         cfg.Secret,
		PasswordHash:   hash,
		RateLimit:      cfg.RateLimit,
		CORSOrigins:    cfg.CORSOrigins,
		ReportLocation: cfg.ReportLocation,
	})
	if err != nil {
		slog.Error("unable to start API", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("PharmaMind server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("error during shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// passwordHash prefers a precomputed bcrypt hash over a plain passcode.
func passwordHash(cfg config.Config) ([]byte, error) {
	if cfg.OwnerPasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(cfg.OwnerPasswordHash)); err != nil {
			return nil, err
		}
		return []byte(cfg.OwnerPasswordHash), nil
	}
	if cfg.OwnerPassword == "" {
		return nil, nil
	}
	return bcrypt.GenerateFromPassword([]byte(cfg.OwnerPassword), bcrypt.DefaultCost)
}
