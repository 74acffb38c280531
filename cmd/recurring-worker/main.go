package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logCfg := applog.DefaultConfig()
	logCfg.Component = applog.ComponentWorker
	logger := applog.New(logCfg)
	applog.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The worker shares the server's database so materialized
	// transactions land in the same slots.
	gateway, err := storage.NewSQLiteGateway(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite gateway", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	// AMQP client lets materialized transactions sync to the ledger too.
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPSyncQueue, cfg.AMQPAlertQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing in storage-only mode", "error", err)
			events = nil
		} else {
			logger.Info("AMQP client initialized - materialized transactions will sync")
		}
	} else {
		logger.Info("AMQP disabled - materialized transactions will not sync")
	}

	finance, err := services.NewFinanceService(ctx, gateway, events)
	if err != nil {
		logger.Error("Failed to initialize finance service", "error", err)
		os.Exit(1)
	}
	defer finance.Close()

	processor := services.NewRecurringProcessor(finance)

	logger.Info("Recurring transaction processor configured",
		"interval", cfg.RecurringInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	// Run initial processing on startup
	logger.Info("Running initial recurring transaction processing...")
	if count, err := processor.ProcessDueTransactions(ctx, time.Now()); err != nil {
		logger.Error("Initial processing failed", "error", err)
	} else {
		logger.Info("Initial processing complete", "transactions_created", count)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down recurring-worker...")
			return
		case now := <-ticker.C:
			count, err := processor.ProcessDueTransactions(ctx, now)
			if err != nil {
				logger.Error("Periodic processing failed", "error", err)
				continue
			}
			logger.Info("Periodic processing complete",
				"transactions_created", count,
				"next_check", now.Add(cfg.RecurringInterval).Format("15:04:05"))
		}
	}
}
