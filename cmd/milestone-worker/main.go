// Command milestone-worker consumes goal milestone events and records them.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

const (
	// seenEvents bounds the redelivery filter.
	seenEvents = 4096
	seenTTL    = time.Hour
)

func main() {
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting milestone-worker", log.FieldOperation, log.OpStartup)

	if cfg.AMQPURL == "" {
		logger.Error("FINTRACK_AMQP_URL is required")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.DBPath)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		_ = repo.Close()
		os.Exit(1)
	}

	seen := cache.NewLRUCache[struct{}](seenEvents, seenTTL)
	janitor := cache.NewJanitor(logger)
	janitor.Register(seen)
	janitor.Start(10 * time.Minute)

	w := worker.NewMilestoneWorker(repo, seen, logger)

	consuming := make(chan struct{})
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		<-consuming
		janitor.Stop()
		if err := amqpClient.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
		if err := repo.Close(); err != nil {
			logger.Warn("Failed to close database", log.FieldError, err)
		}
		stats := w.Stats()
		logger.Info("Worker stopped",
			"processed", stats.Processed,
			"duplicates", stats.Duplicates,
			"superseded", stats.Superseded,
			"orphaned", stats.Orphaned)
	})

	go func() {
		defer close(consuming)
		if err := amqpClient.ConsumeMilestones(ctx, w.HandleMilestone); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
