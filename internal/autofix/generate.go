package autofix

import (
	"context"
	"strings"
	"unicode/utf8"

	"articleforge/internal/domain"
	"articleforge/internal/infra"
	"articleforge/internal/providers/prompt"
	"articleforge/internal/providers/textgen"
)

// ContextChars is the size of the surrounding text sent with a fix request.
const ContextChars = 300

// Fixer generates and applies repairs for audit issues.
type Fixer struct {
	gen     textgen.Generator
	prompts prompt.Builder
	logger  infra.Logger
}

// NewFixer builds a Fixer around a generator.
func NewFixer(gen textgen.Generator, logger infra.Logger) *Fixer {
	return &Fixer{gen: gen, logger: logger}
}

// GenerateAutoFix asks the generator for a replacement for one issue. It
// returns "" when generation fails.
func (f *Fixer) GenerateAutoFix(ctx context.Context, issue domain.AuditIssue, draft string, article prompt.Article) string {
	req := f.prompts.AutoFix(issue, article, ExtractContext(draft, issue.CurrentContent))
	req.Tags = map[string]string{"rule": issue.RuleName, "issue_id": issue.ID}
	out, err := f.gen.Generate(ctx, req)
	if err != nil {
		f.logger.Warn().Err(err).Str("rule", issue.RuleName).Str("issue_id", issue.ID).Msg("auto-fix generation failed")
		return ""
	}
	return textgen.TrimCodeFence(out)
}

// ExtractContext returns about ContextChars of draft centred on the first
// case-insensitive match of snippet, or the start of the draft when there is
// no match.
func ExtractContext(draft, snippet string) string {
	if draft == "" {
		return ""
	}
	start, end := 0, ContextChars
	if snippet = strings.TrimSpace(snippet); snippet != "" {
		if loc := findSnippet(draft, snippet); loc != nil {
			pad := (ContextChars - (loc[1] - loc[0])) / 2
			if pad < 0 {
				pad = 0
			}
			start = loc[0] - pad
			end = loc[1] + pad
		}
	}
	if start < 0 {
		end -= start
		start = 0
	}
	if end > len(draft) {
		end = len(draft)
	}
	if start > end {
		start = end
	}
	for start > 0 && !utf8.RuneStart(draft[start]) {
		start--
	}
	for end < len(draft) && !utf8.RuneStart(draft[end]) {
		end++
	}
	return strings.TrimSpace(draft[start:end])
}
