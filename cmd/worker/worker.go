package main

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"articleforge/internal/domain"
	"articleforge/internal/infra"
	"articleforge/internal/pipeline"
	"articleforge/internal/providers/textgen"
	"articleforge/internal/storage"
)

type jobWorker struct {
	queue       domain.JobQueue
	status      pipeline.StatusReader
	orch        *pipeline.Orchestrator
	artifacts   *storage.FileStore
	logger      infra.Logger
	concurrency int
	poll        time.Duration
	abortPoll   time.Duration
}

// Run claims pending jobs until ctx is cancelled. Each claimed job runs on its
// own goroutine; at most concurrency jobs run at once and the claim loop
// blocks while all slots are busy.
func (w *jobWorker) Run(ctx context.Context) error {
	limit := w.concurrency
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	w.logger.Info().Int("concurrency", limit).Msg("worker: started")
	for {
		if gctx.Err() != nil {
			break
		}
		job, err := w.queue.ClaimNextJob(gctx)
		if err != nil {
			if gctx.Err() == nil {
				w.logger.Error().Err(err).Msg("worker: failed to claim job")
			}
			if textgen.SleepContext(gctx, w.poll) != nil {
				break
			}
			continue
		}
		if job == nil {
			if textgen.SleepContext(gctx, w.poll) != nil {
				break
			}
			continue
		}
		g.Go(func() error {
			w.handleJob(gctx, job)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (w *jobWorker) handleJob(ctx context.Context, job *domain.GenerationJob) {
	log := w.logger.With().Str("job_id", job.ID).Logger()
	log.Info().Int("sections", job.TotalSections).Int("resume_pass", job.ResumePass()).Msg("worker: picked job")

	progress := func(key string, completed, total int) {
		log.Debug().Str("section_key", key).Int("completed", completed).Int("total", total).Msg("worker: progress")
	}
	final, err := w.orch.Run(ctx, job.ID, pipeline.RunOptions{
		ShouldAbort: pipeline.AbortWhenStatus(w.status, job.ID, w.abortPoll),
		OnProgress:  progress,
	})
	switch {
	case errors.Is(err, domain.ErrAborted):
		log.Info().Msg("worker: job aborted")
		return
	case err != nil:
		log.Error().Err(err).Msg("worker: job failed")
		return
	}

	if w.artifacts == nil || final == nil {
		return
	}
	keys, err := w.artifacts.SaveJobArtifacts(context.WithoutCancel(ctx), final)
	if err != nil {
		log.Error().Err(err).Msg("worker: failed to store artifacts")
		return
	}
	log.Info().Strs("artifacts", keys).Msg("worker: job completed")
}
