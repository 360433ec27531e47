package pipeline

import (
	"context"
	"fmt"

	"articleforge/internal/audit"
	"articleforge/internal/domain"
	"articleforge/internal/providers/prompt"
	"articleforge/internal/providers/textgen"
)

// ProgressFunc is told about every processed unit.
type ProgressFunc func(sectionKey string, completed, total int)

// AbortFunc is polled between units; true stops the run.
type AbortFunc func(ctx context.Context) bool

// RunOptions are the caller-supplied hooks and audit inputs of one run.
type RunOptions struct {
	ShouldAbort AbortFunc
	OnProgress  ProgressFunc
	Language    string
	Triples     []domain.SemanticTriple
	Template    *audit.TemplateSpec
}

// Run is the per-job state shared by the passes of one orchestrator run.
type Run struct {
	Job      *domain.GenerationJob
	Language string
	Entity   string
	Defs     []domain.SectionDefinition

	gen   textgen.Generator
	draft textgen.Generator
	opts  RunOptions
	byKey map[string]domain.SectionDefinition
}

// NewRun prepares run state. gen is used for rewrite passes; draft is the
// generator the draft pass retries on its own.
func NewRun(job *domain.GenerationJob, gen, draft textgen.Generator, opts RunOptions, defaultLanguage string) *Run {
	defs := job.Brief.Sections()
	r := &Run{
		Job:      job,
		Language: domain.ResolveLanguage(opts.Language, job.Brief, job.BusinessContext, defaultLanguage),
		Entity:   job.Brief.Entity(job.BusinessContext),
		Defs:     defs,
		gen:      gen,
		draft:    draft,
		opts:     opts,
		byKey:    make(map[string]domain.SectionDefinition, len(defs)),
	}
	for _, d := range defs {
		r.byKey[d.Key] = d
	}
	return r
}

// Def returns the outline entry for key.
func (r *Run) Def(key string) (domain.SectionDefinition, bool) {
	d, ok := r.byKey[key]
	return d, ok
}

// Article builds prompt context from the current section headings.
func (r *Run) Article(sections []domain.Section) prompt.Article {
	a := prompt.ArticleFrom(r.Job.Brief, r.Job.BusinessContext, r.Language)
	if len(sections) > 0 {
		a.Headings = a.Headings[:0]
		for _, s := range sections {
			a.Headings = append(a.Headings, s.Heading)
		}
	}
	return a
}

// checkAbort returns ErrAborted when the context is done or the caller's
// predicate fires.
func (r *Run) checkAbort(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAborted, err)
	}
	if r.opts.ShouldAbort != nil && r.opts.ShouldAbort(ctx) {
		return domain.ErrAborted
	}
	return nil
}

func (r *Run) progress(key string, completed, total int) {
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(key, completed, total)
	}
}
