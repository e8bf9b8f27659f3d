package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting fintrack-worker")
	if cfg.DataBackend == "memory" {
		logger.Warn("Worker is using the memory backend; it will not see the server's ledger")
	}

	store, err := cli.OpenStore(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize store", applog.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}

	exporter, err := cli.NewExporter(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize exporter", applog.FieldError, err.Error())
		os.Exit(1)
	}

	amqpClient, err := cli.ConnectAMQP(logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
		os.Exit(1)
	}

	exportWorker := worker.NewExportWorker(store.Store, exporter)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Catch up on anything missed while the worker was down.
	if err := exportWorker.ExportCurrent(ctx, cfg.DemoUserID); err != nil {
		logger.Error("Startup export failed", applog.FieldError, err.Error())
	}

	scheduler, err := exportWorker.Schedule(ctx, cfg.ExportSchedule, cfg.DemoUserID)
	if err != nil {
		logger.Error("Failed to schedule export", applog.FieldError, err.Error())
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("Export scheduled", "schedule", cfg.ExportSchedule)

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeLedgerEvents(ctx, exportWorker.HandleLedgerEvent)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", applog.FieldError, err.Error())
			}
		}()
	} else {
		logger.Info("Skipping ledger event consumption - only scheduled exports will run")
	}

	cli.WaitForShutdown(ctx, done)

	select {
	case <-scheduler.Stop().Done():
	case <-time.After(30 * time.Second):
		logger.Warn("Scheduled export still running at shutdown")
	}
	if amqpClient != nil {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close error", applog.FieldError, err.Error())
		}
	}
	if store.Cleanup != nil {
		if err := store.Cleanup(); err != nil {
			logger.Warn("Store close error", applog.FieldError, err.Error())
		}
	}
	logger.Info("Worker shutdown complete")
}
