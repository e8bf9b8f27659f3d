package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	store, err := cli.OpenStore(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize store", applog.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}

	// Ledger events are optional; the API keeps working without a broker.
	var events services.EventPublisher
	amqpClient, err := cli.ConnectAMQP(logger, cfg)
	if err != nil {
		logger.Warn("AMQP unavailable, ledger events disabled", applog.FieldError, err.Error())
	} else if amqpClient != nil {
		events = amqpClient
	}

	ledger := services.NewLedgerService(store.Store, events)
	if _, err := ledger.EnsureDemoUser(ctx, cfg.DemoUserID); err != nil {
		logger.Error("Failed to ensure demo user", applog.FieldError, err.Error(), applog.FieldUserID, cfg.DemoUserID)
		os.Exit(1)
	}

	var model services.LanguageModel
	if client := cli.NewLanguageModel(cfg); client != nil {
		model = client
		logger.Info("AI advisor enabled", "model", client.Model())
	} else {
		logger.Info("AI advisor in fallback mode - no ANTHROPIC_API_KEY provided")
	}
	advisor := services.NewAdvisorService(store.Store, model)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Ledger:             ledger,
		Advisor:            advisor,
		UserID:             cfg.DemoUserID,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		OverviewCacheTTL:   cfg.SummaryCacheTTL,
	})
	srv.MaxHeaderBytes = 1 << 16

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
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
	})

	logger.Info("Starting fintrack server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
