package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"articleforge/internal/analysis"
	"articleforge/internal/domain"
	"articleforge/internal/infra"
	"articleforge/internal/providers/prompt"
	"articleforge/internal/providers/textgen"
)

const (
	excerptChars     = 200
	minFragmentChars = 20
)

// Executor runs single passes over a job's stored sections.
type Executor struct {
	store   domain.SectionStore
	prompts prompt.Builder
	logger  infra.Logger
	cfg     Config
	sleep   textgen.Sleeper
}

// NewExecutor wires an executor. A nil sleep uses textgen.SleepContext.
func NewExecutor(store domain.SectionStore, logger infra.Logger, cfg Config, sleep textgen.Sleeper) *Executor {
	if sleep == nil {
		sleep = textgen.SleepContext
	}
	return &Executor{store: store, logger: logger, cfg: cfg.withDefaults(), sleep: sleep}
}

// ExecutePass runs a rewrite pass and returns the reassembled draft.
// Sections already carrying content for the pass are skipped, so re-running a
// finished pass makes no provider calls.
func (e *Executor) ExecutePass(ctx context.Context, run *Run, pc PassConfig) (string, error) {
	log := e.logger.With().Str("job_id", run.Job.ID).Int("pass", pc.Number).Str("pass_name", pc.Name).Logger()
	if err := e.markPass(ctx, run.Job.ID, pc.Number, domain.PassInProgress); err != nil {
		return "", err
	}

	sections, err := e.store.GetSections(ctx, run.Job.ID)
	if err != nil {
		return "", fmt.Errorf("load sections: %w", err)
	}
	if len(sections) == 0 {
		log.Warn().Msg("no sections to process")
		return e.finishPass(ctx, run, pc.Number, sections)
	}

	summary := analysis.BuildSummary(sections, run.Entity)
	budget := analysis.AnalyzeBudget(sections, run.Job.Brief)
	article := run.Article(sections)
	article.Summary = summary.Digest()

	units := e.selectUnits(pc, budget, run.Job.Brief, sections, log)
	total := len(units)
	done := 0
	var pending []unit
	for _, u := range units {
		if u.section.CompletedFor(pc.Number) {
			done++
			continue
		}
		pending = append(pending, u)
	}
	log.Info().Int("selected", total).Int("pending", len(pending)).Float64("prose_ratio", budget.CurrentProseRatio).Msg("pass started")

	if pc.Batchable && e.cfg.BatchSize > 1 && len(pending) > 1 {
		err = e.runBatches(ctx, run, pc, article, pending, &done, total, log)
	} else {
		err = e.runIndividually(ctx, run, pc, article, pending, &done, total, log)
	}
	if err != nil {
		return "", err
	}

	sections, err = e.store.GetSections(ctx, run.Job.ID)
	if err != nil {
		return "", fmt.Errorf("reload sections: %w", err)
	}
	return e.finishPass(ctx, run, pc.Number, sections)
}

// unit is a selected section with its neighbours' excerpts.
type unit struct {
	section domain.Section
	note    string
	prev    string
	next    string
}

func (e *Executor) selectUnits(pc PassConfig, budget analysis.FormatBudget, brief domain.ContentBrief, sections []domain.Section, log infra.Logger) []unit {
	pos := make(map[string]int, len(sections))
	for i, s := range sections {
		pos[s.Key] = i
	}
	var picks []selection
	switch {
	case pc.IntroOnly:
		for _, n := range budget.Sections {
			if n.IsIntro {
				picks = append(picks, selection{Key: n.Key})
				break
			}
		}
		if len(picks) == 0 {
			log.Info().Msg("no introduction section found")
		}
	case pc.Select != nil:
		picks = pc.Select(budget, brief)
	default:
		for _, s := range sections {
			picks = append(picks, selection{Key: s.Key})
		}
	}

	out := make([]unit, 0, len(picks))
	for _, p := range picks {
		i, ok := pos[p.Key]
		if !ok {
			continue
		}
		if p.Auto {
			log.Info().Str("section_key", p.Key).Str("justification", p.Note).Msg("auto-justified selection")
		}
		u := unit{section: sections[i], note: p.Note}
		if i > 0 {
			u.prev = tail(sections[i-1].CurrentContent, excerptChars)
		}
		if i+1 < len(sections) {
			u.next = head(sections[i+1].CurrentContent, excerptChars)
		}
		out = append(out, u)
	}
	return out
}

func (e *Executor) runIndividually(ctx context.Context, run *Run, pc PassConfig, article prompt.Article, units []unit, done *int, total int, log infra.Logger) error {
	for i, u := range units {
		if err := run.checkAbort(ctx); err != nil {
			return err
		}
		if i > 0 {
			if err := e.pause(ctx); err != nil {
				return err
			}
		}
		slog := log.With().Str("section_key", u.section.Key).Logger()
		if err := e.processSection(ctx, run, pc, article, u, slog); err != nil {
			if errors.Is(err, domain.ErrAborted) {
				return err
			}
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", domain.ErrAborted, ctx.Err())
			}
			slog.Error().Err(err).Msg("section failed, keeping previous content")
		}
		*done++
		run.progress(u.section.Key, *done, total)
	}
	return nil
}

func (e *Executor) processSection(ctx context.Context, run *Run, pc PassConfig, article prompt.Article, u unit, log infra.Logger) error {
	sec := u.section
	if strings.TrimSpace(sec.CurrentContent) == "" {
		log.Debug().Msg("empty section skipped")
		return nil
	}
	e.setCurrentSection(ctx, run.Job.ID, sec.Key)

	req := pc.Prompt(e.prompts, article, e.promptSection(run, u))
	req.Tags = map[string]string{"job_id": run.Job.ID, "pass": pc.Name, "section_key": sec.Key}
	out, err := run.gen.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	heading := ""
	if pc.UpdatesHeading {
		heading, out = splitLeadingHeading(out)
	}
	cleaned, ok := CleanContent(out)
	if !ok {
		log.Warn().Msg("response empty or heading only, keeping previous content")
		return nil
	}
	if len(cleaned) < len(sec.CurrentContent)/2 {
		log.Warn().Int("before", len(sec.CurrentContent)).Int("after", len(cleaned)).Msg("rewritten section is much shorter than its input")
	}

	updated := sec.WithPassContent(pc.Number, cleaned)
	if heading != "" && heading != sec.Heading {
		log.Info().Str("from", sec.Heading).Str("to", heading).Msg("heading updated")
		updated.Heading = heading
	}
	if err := e.store.UpsertSection(ctx, updated); err != nil {
		return fmt.Errorf("save section: %w", err)
	}
	return nil
}

func (e *Executor) runBatches(ctx context.Context, run *Run, pc PassConfig, article prompt.Article, units []unit, done *int, total int, log infra.Logger) error {
	for start := 0; start < len(units); start += e.cfg.BatchSize {
		if err := run.checkAbort(ctx); err != nil {
			return err
		}
		if start > 0 {
			if err := e.pause(ctx); err != nil {
				return err
			}
		}
		end := min(start+e.cfg.BatchSize, len(units))
		batch := units[start:end]

		var keys []string
		var inputs []prompt.Section
		for _, u := range batch {
			if strings.TrimSpace(u.section.CurrentContent) == "" {
				continue
			}
			keys = append(keys, u.section.Key)
			inputs = append(inputs, e.promptSection(run, u))
		}
		if len(inputs) > 0 {
			e.setCurrentSection(ctx, run.Job.ID, keys[0])
			if err := e.processBatch(ctx, run, pc, article, batch, keys, inputs, log); err != nil {
				if ctx.Err() != nil {
					return fmt.Errorf("%w: %w", domain.ErrAborted, ctx.Err())
				}
				log.Error().Err(err).Strs("section_keys", keys).Msg("batch failed, keeping previous content")
			}
		}
		for _, u := range batch {
			*done++
			run.progress(u.section.Key, *done, total)
		}
	}
	return nil
}

func (e *Executor) processBatch(ctx context.Context, run *Run, pc PassConfig, article prompt.Article, batch []unit, keys []string, inputs []prompt.Section, log infra.Logger) error {
	req := e.prompts.Batch(pc.Number, article, inputs)
	req.Tags = map[string]string{"job_id": run.Job.ID, "pass": pc.Name, "batch": strings.Join(keys, ",")}
	out, err := run.gen.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("generate batch: %w", err)
	}

	fragments, delimited := ParseBatchResponse(out, keys)
	if !delimited {
		log.Warn().Strs("section_keys", keys).Int("fragments", len(fragments)).Msg("batch response without delimiters, split on headings")
	}
	for _, u := range batch {
		frag, ok := fragments[u.section.Key]
		if !ok {
			continue
		}
		cleaned, ok := CleanContent(frag)
		if !ok || len(cleaned) < minFragmentChars {
			log.Warn().Str("section_key", u.section.Key).Msg("batch fragment too short, keeping previous content")
			continue
		}
		if err := e.store.UpsertSection(ctx, u.section.WithPassContent(pc.Number, cleaned)); err != nil {
			return fmt.Errorf("save section %s: %w", u.section.Key, err)
		}
	}
	return nil
}

func (e *Executor) promptSection(run *Run, u unit) prompt.Section {
	def, _ := run.Def(u.section.Key)
	return prompt.Section{
		Key:         u.section.Key,
		Heading:     u.section.Heading,
		Level:       u.section.Level,
		Hint:        def.Hint,
		Format:      def.FormatCode,
		Content:     u.section.CurrentContent,
		PrevExcerpt: u.prev,
		NextExcerpt: u.next,
		Note:        u.note,
	}
}

// finishPass reassembles the draft, marks the pass complete and advances the
// job to the next pass.
func (e *Executor) finishPass(ctx context.Context, run *Run, n int, sections []domain.Section) (string, error) {
	draft := AssembleDraft(run.Job.Brief.Title, sections)
	completed, err := e.store.CountCompletedSections(ctx, run.Job.ID)
	if err != nil {
		return "", fmt.Errorf("count sections: %w", err)
	}
	next := min(n+1, domain.FinalPass)
	empty := ""
	patch := domain.JobPatch{
		DraftContent:      &draft,
		CompletedSections: &completed,
		CurrentPass:       &next,
		CurrentSectionKey: &empty,
		PassStatus:        map[domain.PassKey]domain.PassStatus{domain.PassKeyFor(n): domain.PassCompleted},
	}
	if err := e.store.UpdateJob(ctx, run.Job.ID, patch); err != nil {
		return "", fmt.Errorf("complete pass %d: %w", n, err)
	}
	patch.Apply(run.Job)
	return draft, nil
}

func (e *Executor) markPass(ctx context.Context, jobID string, n int, status domain.PassStatus) error {
	patch := domain.JobPatch{
		CurrentPass: &n,
		PassStatus:  map[domain.PassKey]domain.PassStatus{domain.PassKeyFor(n): status},
	}
	if err := e.store.UpdateJob(ctx, jobID, patch); err != nil {
		return fmt.Errorf("mark pass %d %s: %w", n, status, err)
	}
	return nil
}

func (e *Executor) setCurrentSection(ctx context.Context, jobID, key string) {
	if err := e.store.UpdateJob(ctx, jobID, domain.JobPatch{CurrentSectionKey: &key}); err != nil {
		e.logger.Warn().Err(err).Str("job_id", jobID).Msg("update current section")
	}
}

func (e *Executor) pause(ctx context.Context) error {
	if err := e.sleep(ctx, e.cfg.SectionDelay); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAborted, err)
	}
	return nil
}

func head(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}

func tail(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[len(r)-n:])
}
