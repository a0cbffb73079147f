package main

import (
	"context"
	"errors"
	"os"
	"time"

	"rewards/internal/amqp"
	"rewards/internal/cli"
	"rewards/internal/log"
	"rewards/internal/worker"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		log.New(log.DefaultConfig()).Warn("Ignoring unreadable .env file", log.FieldError, err)
	}

	bootLogger := cli.SetupLogger("info", "text")
	cfg := cli.LoadAndValidateConfig(bootLogger)
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat).WithComponent(log.ComponentWorker)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the rewards worker")
		os.Exit(1)
	}

	logger.Info("Starting rewards-worker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqp.WithLogger(logger))
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	audit := worker.NewAuditWorker(logger)

	// Periodic summary so operators can see the worker is alive.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				processed, rejected := audit.Counts()
				logger.Info("Audit progress", "processed", processed, "rejected", rejected)
			}
		}
	}()

	err = client.ConsumeRewardUpdates(ctx, audit.HandleRewardUpdated)
	exitCode := 0
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		exitCode = 1
	}

	cancel()
	if err := cli.Shutdown(logger, cfg.ShutdownTimeout, func(context.Context) error { return client.Close() }); err != nil {
		logger.Error("Worker shutdown error", log.FieldError, err)
		exitCode = 1
	}

	processed, rejected := audit.Counts()
	logger.Info("Worker stopped", "processed", processed, "rejected", rejected)
	os.Exit(exitCode)
}
