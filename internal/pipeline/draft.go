package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"articleforge/internal/audit"
	"articleforge/internal/domain"
	"articleforge/internal/infra"
	"articleforge/internal/markdown"
	"articleforge/internal/providers/prompt"
	"articleforge/internal/providers/textgen"
)

// MinDraftWords is the shortest section body the draft validator accepts.
const MinDraftWords = 20

var determiners = map[string]bool{
	"the": true, "a": true, "an": true, "this": true, "these": true, "that": true, "those": true,
	"de": true, "het": true, "een": true, "dit": true, "deze": true, "die": true,
}

// PriorityOrder returns defs sorted by attribute priority, keeping outline
// order among equals.
func PriorityOrder(defs []domain.SectionDefinition) []domain.SectionDefinition {
	out := append([]domain.SectionDefinition(nil), defs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AttributeCategory.Priority() < out[j].AttributeCategory.Priority()
	})
	return out
}

// ExtractDiscourse pulls the closing sentence of text and a rough
// subject/predicate split of it.
func ExtractDiscourse(text string) prompt.Discourse {
	sentences := markdown.SplitSentences(markdown.Parse(text).ProseText())
	if len(sentences) == 0 {
		return prompt.Discourse{}
	}
	last := strings.TrimSpace(sentences[len(sentences)-1])
	words := markdown.Words(last)
	i := 0
	for i < len(words) && determiners[strings.ToLower(words[i])] {
		i++
	}
	d := prompt.Discourse{LastSentence: last}
	if i < len(words) {
		end := min(i+2, len(words))
		d.Subject = strings.Join(words[i:end], " ")
		d.Predicate = strings.Join(words[end:min(end+5, len(words))], " ")
	}
	return d
}

// ValidateDraft runs the fundamental checks of the draft pass and returns
// one fix instruction per problem.
func ValidateDraft(content string, def domain.SectionDefinition, pat *audit.Patterns) []string {
	var problems []string
	doc := markdown.Parse(content)
	if n := markdown.WordCount(doc.PlainText()); n < MinDraftWords {
		problems = append(problems, fmt.Sprintf("the section has only %d words; write at least %d", n, MinDraftWords))
	}
	for _, h := range doc.Headings() {
		if h.Level <= 2 && strings.EqualFold(strings.TrimSpace(h.Text), strings.TrimSpace(def.Heading)) {
			problems = append(problems, "do not repeat the section heading")
			break
		}
	}

	first := strings.ToLower(markdown.FirstSentence(doc.ProseText()))
	if strings.HasSuffix(strings.TrimSpace(first), "?") {
		problems = append(problems, "open with a statement, not a question")
	}
	for _, h := range pat.Hedges {
		if markdown.ContainsPhrase(first, h) {
			problems = append(problems, fmt.Sprintf("the first sentence hedges with %q; make it definitive", h))
			break
		}
	}
	for _, m := range pat.MetaOpeners {
		if strings.HasPrefix(first, strings.ToLower(m)) {
			problems = append(problems, "do not open with a meta sentence about the article")
			break
		}
	}
	lower := strings.ToLower(content)
	for _, s := range pat.Signatures {
		if markdown.ContainsPhrase(lower, s) {
			problems = append(problems, fmt.Sprintf("remove the phrase %q", s))
		}
	}

	switch def.FormatCode {
	case domain.FormatList, domain.FormatOrderedList:
		if len(doc.BlocksOf(markdown.BlockList, markdown.BlockOrderedList)) == 0 {
			problems = append(problems, "the section must contain a markdown list")
		}
	case domain.FormatTable:
		if len(doc.BlocksOf(markdown.BlockTable)) == 0 {
			problems = append(problems, "the section must contain a markdown table")
		}
	}
	return problems
}

// ExecuteDraft generates every outline section in priority order and returns
// the assembled draft.
func (e *Executor) ExecuteDraft(ctx context.Context, run *Run) (string, error) {
	const pass = 1
	log := e.logger.With().Str("job_id", run.Job.ID).Int("pass", pass).Str("pass_name", "draft").Logger()
	if err := e.markPass(ctx, run.Job.ID, pass, domain.PassInProgress); err != nil {
		return "", err
	}

	existing, err := e.store.GetSections(ctx, run.Job.ID)
	if err != nil {
		return "", fmt.Errorf("load sections: %w", err)
	}
	stored := make(map[string]domain.Section, len(existing))
	for _, s := range existing {
		stored[s.Key] = s
	}
	for _, def := range run.Defs {
		if _, ok := stored[def.Key]; ok {
			continue
		}
		s := domain.Section{
			JobID:   run.Job.ID,
			Key:     def.Key,
			Heading: def.Heading,
			Order:   def.Order,
			Level:   def.Level,
			Status:  domain.SectionPending,
		}
		if err := e.store.UpsertSection(ctx, s); err != nil {
			return "", fmt.Errorf("create section %s: %w", def.Key, err)
		}
		stored[def.Key] = s
	}
	total := len(run.Defs)
	if err := e.store.UpdateJob(ctx, run.Job.ID, domain.JobPatch{TotalSections: &total}); err != nil {
		return "", fmt.Errorf("set total sections: %w", err)
	}

	pat := audit.PatternsFor(run.Language)
	article := run.Article(nil)
	target := 0
	if run.Job.Brief.TargetWordCount > 0 && total > 0 {
		target = run.Job.Brief.TargetWordCount / total
	}

	var discourse prompt.Discourse
	done, generated := 0, 0
	for _, def := range PriorityOrder(run.Defs) {
		sec := stored[def.Key]
		if sec.CompletedFor(pass) {
			discourse = ExtractDiscourse(sec.CurrentContent)
			done++
			run.progress(def.Key, done, total)
			continue
		}
		if err := run.checkAbort(ctx); err != nil {
			return "", err
		}
		if generated > 0 {
			if err := e.pause(ctx); err != nil {
				return "", err
			}
		}
		generated++

		slog := log.With().Str("section_key", def.Key).Logger()
		e.setCurrentSection(ctx, run.Job.ID, def.Key)
		in := prompt.DraftInput{
			Article: article,
			Section: prompt.Section{
				Key:     def.Key,
				Heading: def.Heading,
				Level:   def.Level,
				Hint:    def.Hint,
				Format:  def.FormatCode,
			},
			Discourse:   discourse,
			TargetWords: target,
		}
		content, err := e.draftSection(ctx, run, in, def, pat, slog)
		if err != nil {
			return "", err
		}
		if content == "" {
			slog.Error().Msg("draft generation failed, section left pending")
			done++
			run.progress(def.Key, done, total)
			continue
		}

		if err := e.store.UpsertSection(ctx, sec.WithPassContent(pass, content)); err != nil {
			slog.Error().Err(err).Msg("save drafted section")
		} else {
			discourse = ExtractDiscourse(content)
			e.reconcileCompleted(ctx, run.Job.ID, slog)
		}
		done++
		run.progress(def.Key, done, total)
	}

	sections, err := e.store.GetSections(ctx, run.Job.ID)
	if err != nil {
		return "", fmt.Errorf("reload sections: %w", err)
	}
	return e.finishPass(ctx, run, pass, sections)
}

// draftSection retries generation with validator feedback and returns the
// best attempt. Only an abort is returned as an error.
func (e *Executor) draftSection(ctx context.Context, run *Run, in prompt.DraftInput, def domain.SectionDefinition, pat *audit.Patterns, log infra.Logger) (string, error) {
	best, bestProblems := "", -1
	for attempt := 1; attempt <= e.cfg.DraftAttempts; attempt++ {
		if attempt > 1 {
			if err := e.sleep(ctx, textgen.Backoff(e.cfg.RetryBase, attempt-1)); err != nil {
				return "", fmt.Errorf("%w: %w", domain.ErrAborted, err)
			}
		}
		req := e.prompts.Draft(in)
		req.Tags = map[string]string{"job_id": run.Job.ID, "pass": "draft", "section_key": def.Key}
		out, err := run.draft.Generate(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("%w: %w", domain.ErrAborted, ctx.Err())
			}
			log.Warn().Err(err).Int("attempt", attempt).Msg("draft attempt failed")
			continue
		}
		_, out = stripRepeatedHeading(out, def.Heading)
		cleaned, ok := CleanContent(out)
		if !ok {
			in.Fixes = []string{"the previous answer was empty or contained only a heading"}
			continue
		}
		problems := ValidateDraft(cleaned, def, pat)
		if bestProblems < 0 || len(problems) < bestProblems {
			best, bestProblems = cleaned, len(problems)
		}
		if len(problems) == 0 {
			return cleaned, nil
		}
		log.Debug().Int("attempt", attempt).Strs("problems", problems).Msg("draft failed validation")
		in.Fixes = problems
	}
	if best != "" {
		log.Warn().Int("problems", bestProblems).Msg("keeping best-effort draft")
	}
	return best, nil
}

// stripRepeatedHeading drops a leading heading that repeats the section heading.
func stripRepeatedHeading(text, heading string) (bool, string) {
	h, body := splitLeadingHeading(text)
	if h != "" && strings.EqualFold(h, strings.TrimSpace(heading)) {
		return true, body
	}
	return false, text
}

func (e *Executor) reconcileCompleted(ctx context.Context, jobID string, log infra.Logger) {
	n, err := e.store.CountCompletedSections(ctx, jobID)
	if err != nil {
		log.Warn().Err(err).Msg("count completed sections")
		return
	}
	if err := e.store.UpdateJob(ctx, jobID, domain.JobPatch{CompletedSections: &n}); err != nil {
		log.Warn().Err(err).Msg("update completed sections")
	}
}
