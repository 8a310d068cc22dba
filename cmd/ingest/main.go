package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/arc-self/wifi-ingest-service/internal/awsclient"
	"github.com/arc-self/wifi-ingest-service/internal/config"
	"github.com/arc-self/wifi-ingest-service/internal/consumer"
	"github.com/arc-self/wifi-ingest-service/internal/delivery"
	"github.com/arc-self/wifi-ingest-service/internal/handler"
	"github.com/arc-self/wifi-ingest-service/internal/measurement"
	"github.com/arc-self/wifi-ingest-service/internal/monitor"
	"github.com/arc-self/wifi-ingest-service/internal/pipeline"
	"github.com/arc-self/wifi-ingest-service/internal/telemetry"
)

const serviceName = "wifi-ingest-service"

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// ── OpenTelemetry ──────────────────────────────────────────────────────
	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint != "" {
		tp, err := telemetry.InitTracer(context.Background(), serviceName, otelEndpoint)
		if err != nil {
			logger.Error("failed to init OTel tracer", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}
		mp, err := telemetry.InitMeterProvider(context.Background(), serviceName, otelEndpoint)
		if err != nil {
			logger.Error("failed to init OTel meter provider", zap.Error(err))
		} else {
			defer mp.Shutdown(context.Background())
		}
		logger.Info("OTel initialized", zap.String("endpoint", otelEndpoint))
	}

	// ── Configuration ──────────────────────────────────────────────────────
	cfg := config.Load()

	// Vault secrets override the environment when a Vault address is set.
	if vaultAddr := os.Getenv("VAULT_ADDR"); vaultAddr != "" {
		vaultToken := os.Getenv("VAULT_TOKEN")
		secretPath := os.Getenv("VAULT_SECRET_PATH")
		if secretPath == "" {
			secretPath = "secret/data/arc/wifi-ingest-service"
		}

		vaultManager, err := config.NewSecretManager(vaultAddr, vaultToken)
		if err != nil {
			logger.Fatal("Vault connection failed", zap.Error(err))
		}
		secrets, err := vaultManager.GetKV2(secretPath)
		if err != nil {
			logger.Fatal("Failed to load secrets from Vault", zap.Error(err))
		}
		cfg.ApplySecrets(secrets)
		logger.Info("Vault secrets applied", zap.String("path", secretPath))
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// ── AWS clients ────────────────────────────────────────────────────────
	clients, err := awsclient.New(context.Background(), logger)
	if err != nil {
		logger.Fatal("AWS client initialization failed", zap.Error(err))
	}

	// ── Pipeline ───────────────────────────────────────────────────────────
	mon := monitor.New(logger)

	var deadLetter delivery.DeadLetterSink
	if cfg.DeadLetterBucket != "" {
		deadLetter = delivery.NewS3DeadLetter(clients.S3, cfg.DeadLetterBucket, logger)
		logger.Info("dead-letter sink enabled", zap.String("bucket", cfg.DeadLetterBucket))
	}

	batcher := delivery.NewBatcher(clients.Firehose, cfg, deadLetter, mon, logger)

	validator := pipeline.NewValidator(cfg)
	ouiPolicy := pipeline.NewOUIPolicy(cfg.OUI, logger)
	transformer := pipeline.NewTransformer(validator, ouiPolicy, mon, logger)
	serializer := measurement.NewSerializer(cfg.MaxRecordBytes)

	processor := pipeline.NewFileProcessor(clients.S3, transformer, serializer, batcher, mon, logger)
	dispatcher := pipeline.NewDispatcher(processor, nil)

	// ── Consumer & stream checker ──────────────────────────────────────────
	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	queueConsumer := consumer.New(clients.SQS, cfg, dispatcher, mon, logger)
	go func() {
		_ = queueConsumer.Run(runCtx)
	}()

	streamChecker := monitor.NewStreamChecker(clients.Firehose, cfg.StreamName, cfg.StreamCheckInterval, mon, logger)
	go streamChecker.Run(runCtx)

	// ── HTTP server ────────────────────────────────────────────────────────
	e := echo.New()
	e.HideBanner = true
	e.Use(otelecho.Middleware(serviceName))
	e.Use(middleware.Recover())

	handler.RegisterRoutes(e, mon, logger)

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failure", zap.Error(err))
		}
	}()

	logger.Info("wifi-ingest-service started",
		zap.String("queue_url", cfg.QueueURL),
		zap.String("stream_name", cfg.StreamName),
	)

	// ── Graceful Shutdown ──────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("initiating graceful shutdown")

	// Stop pulling new work first, then drain the delivery batcher so
	// everything already accepted gets a delivery attempt.
	runCancel()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout+5*time.Second)
	defer drainCancel()
	if err := batcher.Close(drainCtx); err != nil {
		logger.Error("delivery drain incomplete", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Echo shutdown error", zap.Error(err))
	}
	logger.Info("wifi-ingest-service shut down cleanly")
}
