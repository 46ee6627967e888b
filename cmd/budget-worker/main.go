package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"budget/internal/amqp"
	"budget/internal/cli"
	"budget/internal/log"
	"budget/internal/storage"
	"budget/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig("")
	if err != nil {
		cli.Exit(err)
	}
	if !cfg.MirrorEnabled() || !cfg.PublishEnabled() {
		cli.Exit(fmt.Errorf("budget-worker needs both SQLITE_DB_PATH and AMQP_URL"))
	}

	logger, err := cli.SetupLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		cli.Exit(err)
	}
	logger = logger.WithComponent(log.ComponentWorker)
	logger.Info("Starting budget-worker", log.FieldOperation, log.OpStartup)

	sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.WithComponent(log.ComponentStorage).Error("Failed to initialize SQLite repository", log.FieldError, err, log.FieldDBPath, cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer sqliteRepo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.PublishTimeout)
	if err != nil {
		logger.WithComponent(log.ComponentAMQP).Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirrorWorker := worker.NewMirrorWorker(sqliteRepo, logger)

	// Whichever ends first, a signal or the consumer, cancels the other
	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		return amqpClient.ConsumeTransactions(ctx, mirrorWorker.HandleMessage)
	})
	g.Go(func() error {
		return cli.WaitForSignal(ctx, logger)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, cli.ErrShutdown) {
		logger.WithComponent(log.ComponentAMQP).Error("Message consumption failed", log.FieldError, err)
		return
	}

	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
}
