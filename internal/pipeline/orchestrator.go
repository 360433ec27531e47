package pipeline

import (
	"context"
	"errors"
	"fmt"

	"articleforge/internal/audit"
	"articleforge/internal/autofix"
	"articleforge/internal/domain"
	"articleforge/internal/infra"
	"articleforge/internal/providers/prompt"
	"articleforge/internal/providers/textgen"
)

// Resolver picks the provider chain for a business context.
type Resolver interface {
	Resolve(bc domain.BusinessContext) *textgen.Dispatcher
}

// Orchestrator drives a job through all passes, resuming from the first pass
// that is not completed.
type Orchestrator struct {
	store    domain.SectionStore
	resolver Resolver
	engine   *audit.Engine
	exec     *Executor
	logger   infra.Logger
	cfg      Config
	sleep    textgen.Sleeper
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithSleeper replaces the delay and backoff sleeper.
func WithSleeper(s textgen.Sleeper) Option {
	return func(o *Orchestrator) { o.sleep = s }
}

// NewOrchestrator wires the pipeline.
func NewOrchestrator(store domain.SectionStore, resolver Resolver, engine *audit.Engine, logger infra.Logger, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		resolver: resolver,
		engine:   engine,
		logger:   logger,
		cfg:      cfg.withDefaults(),
		sleep:    textgen.SleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.engine == nil {
		o.engine = audit.New(audit.WithLogger(logger))
	}
	o.exec = NewExecutor(store, logger, o.cfg, o.sleep)
	return o
}

// Run executes the remaining passes of jobID. An abort leaves the job
// aborted with all completed work stored; any other error marks it failed.
func (o *Orchestrator) Run(ctx context.Context, jobID string, opts RunOptions) (*domain.GenerationJob, error) {
	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}
	log := o.logger.With().Str("job_id", jobID).Logger()

	if err := job.Brief.Validate(); err != nil {
		o.fail(ctx, jobID, err, log)
		return job, err
	}
	start := job.ResumePass()
	if start > domain.FinalPass {
		log.Info().Msg("job already completed")
		if job.Status != domain.JobStatusCompleted {
			o.setStatus(ctx, jobID, domain.JobStatusCompleted, log)
		}
		return o.store.GetJob(ctx, jobID)
	}

	running := domain.JobStatusInProgress
	if err := o.store.UpdateJob(ctx, jobID, domain.JobPatch{Status: &running}); err != nil {
		return job, fmt.Errorf("start job: %w", err)
	}
	dispatcher := o.resolver.Resolve(job.BusinessContext)
	gen := textgen.WithRetry(dispatcher, o.cfg.MaxAttempts, o.cfg.RetryBase, o.sleep)
	run := NewRun(job, gen, dispatcher, opts, o.cfg.DefaultLanguage)
	log.Info().Int("start_pass", start).Strs("providers", dispatcher.Providers()).Str("language", run.Language).Msg("pipeline started")

	for n := start; n <= domain.FinalPass; n++ {
		draft, err := o.runPass(ctx, run, n)
		if err != nil {
			if errors.Is(err, domain.ErrAborted) || ctx.Err() != nil {
				log.Warn().Int("pass", n).Err(err).Msg("pipeline aborted")
				o.setStatus(context.WithoutCancel(ctx), jobID, domain.JobStatusAborted, log)
				if !errors.Is(err, domain.ErrAborted) {
					err = fmt.Errorf("%w: %w", domain.ErrAborted, err)
				}
				return o.reload(ctx, job), err
			}
			o.fail(ctx, jobID, fmt.Errorf("pass %d: %w", n, err), log)
			return o.reload(ctx, job), err
		}
		log.Info().Int("pass", n).Int("draft_chars", len(draft)).Msgf("After Pass %d", n)
	}

	o.setStatus(ctx, jobID, domain.JobStatusCompleted, log)
	log.Info().Msg("pipeline completed")
	return o.store.GetJob(ctx, jobID)
}

func (o *Orchestrator) runPass(ctx context.Context, run *Run, n int) (string, error) {
	switch {
	case n == 1:
		return o.exec.ExecuteDraft(ctx, run)
	case n == domain.FinalPass:
		return o.auditPass(ctx, run)
	default:
		pc, ok := RewritePasses[n]
		if !ok {
			return "", fmt.Errorf("unknown pass %d", n)
		}
		return o.exec.ExecutePass(ctx, run, pc)
	}
}

// auditPass scores the assembled draft and stores the report.
func (o *Orchestrator) auditPass(ctx context.Context, run *Run) (string, error) {
	n := domain.FinalPass
	if err := o.exec.markPass(ctx, run.Job.ID, n, domain.PassInProgress); err != nil {
		return "", err
	}
	sections, err := o.store.GetSections(ctx, run.Job.ID)
	if err != nil {
		return "", fmt.Errorf("load sections: %w", err)
	}
	draft := AssembleDraft(run.Job.Brief.Title, sections)
	report := o.audit(draft, run.Job, run.Language, run.opts)
	if err := o.store.UpdateJob(ctx, run.Job.ID, domain.JobPatch{
		FinalAuditScore: &report.Score,
		AuditDetails:    &report,
	}); err != nil {
		return "", fmt.Errorf("store audit: %w", err)
	}
	o.logger.Info().Str("job_id", run.Job.ID).Int("score", report.Score).Int("issues", len(report.Issues)).Msg("audit stored")
	return o.exec.finishPass(ctx, run, n, sections)
}

func (o *Orchestrator) audit(draft string, job *domain.GenerationJob, language string, opts RunOptions) domain.AuditReport {
	report := o.engine.Audit(audit.Input{
		Draft:    draft,
		Brief:    job.Brief,
		Business: job.BusinessContext,
		Language: language,
		Triples:  opts.Triples,
		Template: opts.Template,
	})
	report.Issues = autofix.ConvertToAuditIssues(draft, report.Results)
	return report
}

// AutoFixOptions controls RunAutoFix.
type AutoFixOptions struct {
	Reaudit  bool
	Language string
	Triples  []domain.SemanticTriple
	Template *audit.TemplateSpec
}

// AutoFixResult is the outcome of RunAutoFix.
type AutoFixResult struct {
	autofix.BatchResult
	Report *domain.AuditReport `json:"report,omitempty"`
}

// RunAutoFix repairs the stored draft of jobID using its audit issues, or a
// fresh audit when none is stored, and optionally re-audits the result.
func (o *Orchestrator) RunAutoFix(ctx context.Context, jobID string, opts AutoFixOptions) (*AutoFixResult, error) {
	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}
	if job.DraftContent == "" {
		return nil, fmt.Errorf("job %s has no draft: %w", jobID, domain.ErrNotFound)
	}
	language := domain.ResolveLanguage(opts.Language, job.Brief, job.BusinessContext, o.cfg.DefaultLanguage)
	runOpts := RunOptions{Triples: opts.Triples, Template: opts.Template}

	var issues []domain.AuditIssue
	if job.AuditDetails != nil && len(job.AuditDetails.Issues) > 0 {
		issues = job.AuditDetails.Issues
	} else {
		issues = o.audit(job.DraftContent, job, language, runOpts).Issues
	}

	dispatcher := o.resolver.Resolve(job.BusinessContext)
	fixer := autofix.NewFixer(textgen.WithRetry(dispatcher, o.cfg.MaxAttempts, o.cfg.RetryBase, o.sleep), o.logger)
	article := prompt.ArticleFrom(job.Brief, job.BusinessContext, language)
	batch := fixer.BatchApplyAutoFixes(ctx, job.DraftContent, issues, article)

	patch := domain.JobPatch{DraftContent: &batch.Draft}
	result := &AutoFixResult{BatchResult: batch}
	if opts.Reaudit {
		report := o.audit(batch.Draft, job, language, runOpts)
		patch.FinalAuditScore = &report.Score
		patch.AuditDetails = &report
		result.Report = &report
	} else if job.AuditDetails != nil {
		details := *job.AuditDetails
		details.Issues = batch.Issues
		patch.AuditDetails = &details
	}
	if err := o.store.UpdateJob(ctx, jobID, patch); err != nil {
		return nil, fmt.Errorf("store fixed draft: %w", err)
	}
	o.logger.Info().Str("job_id", jobID).Int("applied", len(batch.Applied)).Int("failed", len(batch.Failed)).Bool("reaudit", opts.Reaudit).Msg("auto-fix finished")
	return result, nil
}

func (o *Orchestrator) setStatus(ctx context.Context, jobID string, status domain.JobStatus, log infra.Logger) {
	if err := o.store.UpdateJob(ctx, jobID, domain.JobPatch{Status: &status}); err != nil {
		log.Error().Err(err).Str("status", string(status)).Msg("update job status")
	}
}

func (o *Orchestrator) fail(ctx context.Context, jobID string, cause error, log infra.Logger) {
	msg := cause.Error()
	status := domain.JobStatusFailed
	log.Error().Err(cause).Msg("pipeline failed")
	if err := o.store.UpdateJob(context.WithoutCancel(ctx), jobID, domain.JobPatch{Status: &status, ErrorMessage: &msg}); err != nil {
		log.Error().Err(err).Msg("mark job failed")
	}
}

func (o *Orchestrator) reload(ctx context.Context, fallback *domain.GenerationJob) *domain.GenerationJob {
	job, err := o.store.GetJob(context.WithoutCancel(ctx), fallback.ID)
	if err != nil {
		return fallback
	}
	return job
}
