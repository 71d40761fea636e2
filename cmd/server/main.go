package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"delivery_scheduler/internal/app"
	"delivery_scheduler/internal/infra/config"
	idb "delivery_scheduler/internal/infra/database"
	"delivery_scheduler/internal/infra/httpapi"
	"delivery_scheduler/internal/infra/logger"
	"delivery_scheduler/internal/infra/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	log := logger.Get()
	log.Infof("Configuration loaded. Environment: %s, BusinessTimezone: %s", cfg.Environment, cfg.BusinessTimezone)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Initialize Repositories
	subscriptionRepo := idb.NewPostgresSubscriptionRepository(db)
	ledgerRepo := idb.NewPostgresLedgerRepository(db)

	// Initialize Services
	deliveryService := app.NewDeliveryService(subscriptionRepo, ledgerRepo, cfg.BusinessLocation, nil, log)
	sweepService := app.NewSweepService(ledgerRepo, cfg.BusinessLocation, nil, log)

	// Initialize SweepScheduler
	sweepScheduler := scheduler.NewSweepScheduler(
		sweepService,
		cfg.BusinessLocation,
		log,
		cfg.CronSpecMonthly,
		cfg.CronSpecDaily,
	)
	sweepScheduler.Start()

	// Initialize HTTP server
	handler := httpapi.NewDeliveryHandler(deliveryService, sweepService, cfg.BusinessLocation)
	server := httpapi.NewServer(handler, cfg.CronAuthToken)

	go func() {
		log.Infof("HTTP server listening on %s", cfg.HTTPAddr)
		if err := server.Start(cfg.HTTPAddr); err != nil {
			log.Infof("HTTP server stopped: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down application...")
	sweepScheduler.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP server shutdown error: %v", err)
	}
	log.Info("Application shut down gracefully")
}
