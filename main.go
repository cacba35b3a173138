package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fraudops/risk-adjudication-backend/internal/infrastructure/config"
	"github.com/fraudops/risk-adjudication-backend/internal/infrastructure/database"
	"github.com/fraudops/risk-adjudication-backend/internal/infrastructure/telemetry"
	"github.com/fraudops/risk-adjudication-backend/internal/metrics"
	"github.com/fraudops/risk-adjudication-backend/internal/service/advisory"
	"github.com/fraudops/risk-adjudication-backend/internal/service/fraud"
	"github.com/fraudops/risk-adjudication-backend/internal/service/investigation"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		slog.Error("failed to setup logger", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logger)

	if err := run(ctx, cfg); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting risk adjudication backend",
		"version", cfg.Version,
		"environment", cfg.Environment)

	zapLogger, err := telemetry.NewZapLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer zapLogger.Sync() //nolint:errcheck

	pool, err := database.NewPool(ctx, &cfg.Database, zapLogger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	transactions := database.NewTransactionRepository(pool)
	decisions := database.NewDecisionRepository(pool)
	cases := database.NewCaseRepository(pool)
	auditLog := database.NewAuditRepository(pool)

	registry := metrics.NewRegistry()

	advisor := advisory.NewClient(advisory.Config{
		BaseURL: cfg.Advisory.BaseURL,
		APIKey:  cfg.Advisory.APIKey,
		Model:   cfg.Advisory.Model,
		Timeout: cfg.Advisory.Timeout,
	}, registry, zapLogger)

	gatherer := investigation.NewContextGatherer(transactions)
	assembler := investigation.NewAssembler(gatherer, advisor, cases, auditLog, registry, zapLogger)
	workflow := investigation.NewWorkflow(cases, transactions, decisions, auditLog, registry, zapLogger)
	adjudicator := fraud.NewAdjudicator(transactions, decisions, advisor, assembler, auditLog, registry, zapLogger)

	// TODO: hand adjudicator and workflow to the ingestion and analyst
	// transport boundaries once those land; until then the process serves
	// metrics only.
	_ = adjudicator
	_ = workflow

	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           registry.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("metrics listening", "port", cfg.Metrics.Port)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Error("metrics server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down metrics server: %w", err)
	}

	return nil
}
