// Package main is the entry point for the banksync service
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/baely/banksync/internal/categorize"
	"github.com/baely/banksync/internal/common/logger"
	"github.com/baely/banksync/internal/config"
	"github.com/baely/banksync/internal/dispatch"
	"github.com/baely/banksync/internal/monitor"
	"github.com/baely/banksync/internal/provider"
	"github.com/baely/banksync/internal/queue"
	"github.com/baely/banksync/internal/server"
	"github.com/baely/banksync/internal/store"
	"github.com/baely/banksync/internal/txsync"
	"github.com/baely/banksync/internal/webhook"
)

func main() {
	ctx := context.Background()

	godotenv.Load()

	cfg, err := config.Load(ctx)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logOpts := []logger.Option{logger.WithLevel(logger.LevelInfo)}
	if cfg.LogFormat == "text" {
		logOpts = append(logOpts, logger.WithText())
	}
	log := logger.New(logOpts...)
	slog.SetDefault(log)

	// Initialize transaction store
	var txStore store.Store
	if cfg.UseDatabase() {
		pg, err := store.NewPostgres(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Error("Failed to open transaction store", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("Failed to ensure store schema", "error", err)
			os.Exit(1)
		}
		txStore = pg
	} else {
		log.Warn("No database configured, using in-memory transaction store")
		txStore = store.NewMemory()
	}

	// Initialize provider client
	providerClient := provider.NewHTTPClient(provider.ClientConfig{
		Environment: cfg.ProviderEnv,
		BaseURI:     cfg.ProviderBaseURL,
		ClientID:    cfg.ProviderClientID,
		Secret:      cfg.ProviderSecret,
		Timeout:     cfg.ProviderTimeout,
	})

	// Initialize sync pipeline, one instance of each, injected by reference
	coordinator := txsync.NewCoordinator(txsync.Config{
		Provider:    providerClient,
		Store:       txStore,
		Categorizer: categorize.NewRuleCategorizer(),
		Logger:      log,
		SyncTimeout: cfg.SyncTimeout,
	})

	seed, err := cfg.SeedAccounts()
	if err != nil {
		log.Error("Failed to parse seed accounts", "error", err)
		os.Exit(1)
	}
	for accountID, accessToken := range seed {
		coordinator.RegisterAccount(accountID, accessToken)
	}

	eventQueue := queue.New(cfg.EventQueueCapacity)

	dispatcher := dispatch.New(dispatch.Config{
		Queue:       eventQueue,
		Syncer:      coordinator,
		Store:       txStore,
		Logger:      log,
		MaxAttempts: cfg.EventMaxAttempts,
		BaseDelay:   cfg.EventRetryBase,
	})
	dispatcher.Start()

	scheduler := txsync.NewScheduler(txsync.SchedulerConfig{
		Coordinator:   coordinator,
		Interval:      cfg.SyncInterval,
		MaxConcurrent: cfg.SyncMaxConcurrent,
		Logger:        log,
	})
	scheduler.Start()

	// Initialize services
	webhookService := webhook.New(webhook.Config{
		Secret:  cfg.ProviderWebhookSecret,
		Queue:   eventQueue,
		Pending: dispatcher,
		Logger:  log,
	})
	monitorService := monitor.New(monitor.Config{
		Coordinator: coordinator,
		Scheduler:   scheduler,
		Logger:      log,
		AdminCode:   cfg.AdminSecretCode,
	})

	// Initialize server and register domain handlers
	s := server.New(":" + cfg.Port)
	if cfg.WebhookDomain != "" {
		s.RegisterDomain(cfg.WebhookDomain, webhookService.Chi())
	}
	if cfg.StatusDomain != "" {
		s.RegisterDomain(cfg.StatusDomain, monitorService.Chi())
	}
	defaultRouter := webhookService.Chi()
	defaultRouter.Mount("/", monitorService.Chi())
	s.RegisterDefault(defaultRouter)

	// Graceful shutdown: stop intake and background loops before the
	// listener, letting in-flight syncs finish.
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down")
		scheduler.Stop()
		dispatcher.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.Shutdown(shutdownCtx)
	}()

	// Start server
	log.Info("Starting banksync server", "port", cfg.Port)
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
