package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smileworks/clinic-core/pkg/clinic"
	"github.com/smileworks/clinic-core/pkg/config"
	"github.com/smileworks/clinic-core/pkg/logger"
	"github.com/smileworks/clinic-core/pkg/storage"
	"github.com/smileworks/clinic-core/pkg/types"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.New(cfg.LogLevel)

	var store storage.Store = storage.NewMemoryStore()
	if cfg.Storage.Dir != "" {
		fileStore, err := storage.NewFileStore(cfg.Storage.Dir)
		if err != nil {
			logger.Fatalf("Failed to open storage at %s: %v", cfg.Storage.Dir, err)
		}
		store = fileStore
	}

	app := clinic.New(cfg, clinic.Options{
		Store:  store,
		Logger: logger,
		// headless daemon: nobody can answer, so bulk deletes stay off
		ConfirmBulkDelete: nil,
	})

	bootstrapAdmin(app, logger)

	port := os.Getenv("METRICS_PORT")
	if port == "" {
		port = "9091"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(app.Registry(), promhttp.HandlerOpts{}))
	server := &http.Server{Addr: ":" + port, Handler: mux}

	go func() {
		logger.Infof("Serving clinic metrics on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Metrics server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down clinic core...")
	if err := server.Close(); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
	logger.Info("Clinic core stopped")
}

// bootstrapAdmin creates the initial admin account on an empty store.
// Credentials come from ADMIN_EMAIL and ADMIN_PASSWORD; without them a
// fresh installation simply starts with no accounts.
func bootstrapAdmin(app *clinic.App, logger *logger.Logger) {
	if app.HasAccounts() {
		return
	}

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		logger.Warn("No accounts exist and ADMIN_EMAIL/ADMIN_PASSWORD are unset; skipping admin bootstrap")
		return
	}

	_, err := app.Register(clinic.RegisterInput{
		Email:    email,
		Password: password,
		Name:     "Administrator",
		Role:     types.RoleAdmin,
	})
	if err != nil {
		logger.WithError(err).Error("Failed to bootstrap admin account")
		return
	}
	logger.Infof("Bootstrapped admin account %s", email)
}
