// Package main is the entry point for the retailops background worker.
// It relays outbox events to the audit log and dispatches receipt
// email jobs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"retailops/internal/config"
	"retailops/internal/infrastructure/storage/postgres"
	"retailops/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	workerCfg, err := config.LoadWorker()
	if err != nil {
		fmt.Printf("failed to load worker configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log = log.WithComponent("worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting retailops worker")

	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		DSN:             cfg.DB.ConnectionString(),
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
		MaxConnIdleTime: cfg.DB.MaxConnIdleTime,
	})
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	dispatcher := newEventDispatcher(
		postgres.NewAuditOutboxHandler(auditService),
		newReceiptMailer(log),
	)
	relay := postgres.NewOutboxRelay(pool.Unwrap(), workerCfg.BatchSize, dispatcher)

	worker := &Worker{
		relay:        relay,
		log:          log,
		pollInterval: workerCfg.PollInterval,
		dlqInterval:  workerCfg.DLQInterval,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker polls the outbox and periodically sweeps exhausted messages
// into the dead letter queue.
type Worker struct {
	relay        *postgres.OutboxRelay
	log          *logger.Logger
	pollInterval time.Duration
	dlqInterval  time.Duration
}

// Run processes outbox batches until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	poll := time.NewTicker(w.pollInterval)
	defer poll.Stop()

	dlq := time.NewTicker(w.dlqInterval)
	defer dlq.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-poll.C:
			// Drain until the backlog is empty
			for {
				processed, err := w.relay.ProcessBatch(ctx)
				if err != nil {
					w.log.Errorw("outbox batch failed", "error", err)
					break
				}
				if processed == 0 {
					break
				}
				w.log.Debugw("outbox batch processed", "count", processed)
			}

		case <-dlq.C:
			moved, err := w.relay.MoveToDLQ(ctx)
			if err != nil {
				w.log.Errorw("dead letter sweep failed", "error", err)
				continue
			}
			if moved > 0 {
				w.log.Warnw("messages moved to dead letter queue", "count", moved)
			}
		}
	}
}
