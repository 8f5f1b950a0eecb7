package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"quickapply-backend/internal/bootstrap"
	"quickapply-backend/internal/queue"
	"quickapply-backend/internal/shared/config"
	"quickapply-backend/internal/shared/telemetry"
)

const (
	defaultVisibilitySeconds  = 300
	defaultWorkerConcurrency  = 4
	defaultShutdownTimeoutSec = 30
)

type settings struct {
	visibilitySeconds int
	concurrency       int
	shutdownTimeout   time.Duration
}

func loadSettings(getenv func(string) string) settings {
	s := settings{
		visibilitySeconds: envInt(getenv, "SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds),
		concurrency:       envInt(getenv, "WORKER_CONCURRENCY", defaultWorkerConcurrency),
		shutdownTimeout:   time.Duration(envInt(getenv, "SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second,
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	return s
}

func main() {
	cfg := config.Load()
	if strings.TrimSpace(cfg.QueueURL) == "" {
		log.Fatal("QUEUE_URL is required")
	}
	s := loadSettings(os.Getenv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqsClient, err := queue.NewSQSAPI(ctx, cfg.AWSRegion)
	if err != nil {
		log.Fatalf("sqs client: %v", err)
	}

	app, err := bootstrap.BuildCore(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	consumer := &queue.SQSConsumer{
		Client:            sqsClient,
		QueueURL:          cfg.QueueURL,
		Processor:         app.Summaries,
		Concurrency:       s.concurrency,
		VisibilitySeconds: int32(s.visibilitySeconds),
		ShutdownTimeout:   s.shutdownTimeout,
	}
	consumer.Run(ctx)
	telemetry.Info("worker.stopped", nil)
}

func envInt(getenv func(string) string, key string, def int) int {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
