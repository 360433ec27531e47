package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"articleforge/internal/adapter/repo"
	"articleforge/internal/audit"
	"articleforge/internal/infra"
	"articleforge/internal/infra/credentials"
	"articleforge/internal/pipeline"
	"articleforge/internal/providers/textgen"
	"articleforge/internal/storage"
)

// staleAfter is how long a job may sit in_progress without updates before a
// starting worker hands it back to the queue.
const staleAfter = 15 * time.Minute

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	store := repo.NewJobStore(runner)

	if n, err := store.RequeueStale(ctx, staleAfter); err != nil {
		logger.Warn().Err(err).Msg("worker: requeue stale jobs failed")
	} else if n > 0 {
		logger.Info().Int64("jobs", n).Msg("worker: requeued stale jobs")
	}

	artifacts, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	registry := textgen.BuildRegistry(ctx, cfg, credentials.NewStore(runner), logger)
	engine := audit.New(audit.WithLogger(logger))
	orch := pipeline.NewOrchestrator(store, registry, engine, logger, pipeline.ConfigFrom(cfg))

	w := &jobWorker{
		queue:       store,
		status:      store,
		orch:        orch,
		artifacts:   artifacts,
		logger:      logger,
		concurrency: cfg.WorkerConcurrency,
		poll:        cfg.WorkerPoll,
		abortPoll:   cfg.AbortPoll,
	}
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
