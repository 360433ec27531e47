package autofix

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"articleforge/internal/audit"
	"articleforge/internal/domain"
	"articleforge/internal/infra"
	"articleforge/internal/providers/prompt"
	"articleforge/internal/providers/textgen"
)

type recordingGenerator struct {
	mu      sync.Mutex
	rules   []string
	replies map[string]string
	err     error
}

func (g *recordingGenerator) Name() string { return "recording" }

func (g *recordingGenerator) Generate(_ context.Context, req textgen.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rules = append(g.rules, req.Tags["rule"])
	if g.err != nil {
		return "", g.err
	}
	return g.replies[req.Tags["rule"]], nil
}

func TestEveryRuleIsMapped(t *testing.T) {
	names := audit.RuleNames()
	require.Len(t, names, audit.RuleCount)
	for _, name := range names {
		_, hasType := issueTypes[name]
		_, hasSeverity := severities[name]
		assert.True(t, hasType, "issue type for %q", name)
		assert.True(t, hasSeverity, "severity for %q", name)
	}
	assert.Len(t, issueTypes, audit.RuleCount)
	assert.Len(t, severities, audit.RuleCount)
}

func TestConvertToAuditIssues(t *testing.T) {
	draft := "## Overview\n\nSolar panels convert light."
	results := []domain.AuditRuleResult{
		{RuleName: audit.RuleModality, IsPassing: true},
		{RuleName: audit.RuleGenericHeadings, Details: "1 generic headings found.", AffectedTextSnippet: "## Overview", Remediation: "Be specific."},
		{RuleName: audit.RuleRequiredSections, Details: "1 of 2 required sections.", AffectedTextSnippet: "Conclusion"},
		{RuleName: audit.RuleProseBalance, Details: "Prose is 95%."},
		{RuleName: audit.RulePassiveVoice, Details: "1 of 1 sentences are passive.", AffectedTextSnippet: "Light is converted."},
	}
	issues := ConvertToAuditIssues(draft, results)
	require.Len(t, issues, 4)

	assert.Equal(t, domain.IssueHeadingQuality, issues[0].Type)
	assert.Equal(t, domain.SeverityWarning, issues[0].Severity)
	assert.Equal(t, "## Overview", issues[0].CurrentContent)
	assert.Equal(t, "Be specific.", issues[0].SuggestedFix)
	assert.True(t, issues[0].AutoFixable)
	assert.NotEmpty(t, issues[0].ID)

	assert.Equal(t, domain.IssueMissingConclusion, issues[1].Type)
	assert.Equal(t, domain.SeverityCritical, issues[1].Severity)
	assert.Empty(t, issues[1].CurrentContent)
	assert.Contains(t, issues[1].Description, "Missing: Conclusion.")
	assert.True(t, issues[1].AutoFixable)

	assert.Equal(t, domain.IssueFormatMismatch, issues[2].Type)
	assert.False(t, issues[2].AutoFixable)

	assert.Equal(t, "Light is converted.", issues[3].CurrentContent)
	assert.False(t, issues[3].AutoFixable, "snippet absent from the draft")
}

func TestConvertMissingSections(t *testing.T) {
	cases := []struct {
		name    string
		missing []string
		want    domain.IssueType
	}{
		{"only the conclusion", []string{"Conclusion"}, domain.IssueMissingConclusion},
		{"conclusion among others", []string{"Costs of solar panels", "Conclusion"}, domain.IssueMissingHeading},
		{"body section", []string{"Costs of solar panels"}, domain.IssueMissingHeading},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			results := []domain.AuditRuleResult{{
				RuleName:            audit.RuleRequiredSections,
				Details:             "Required sections are missing.",
				AffectedTextSnippet: strings.Join(tc.missing, audit.MissingSeparator),
			}}
			issues := ConvertToAuditIssues("## Solar panels\n\nText.", results)
			require.Len(t, issues, 1)
			assert.Equal(t, tc.want, issues[0].Type)
			assert.Contains(t, issues[0].Description, "Missing: "+strings.Join(tc.missing, "; ")+".")
			assert.Empty(t, issues[0].CurrentContent)
			assert.True(t, issues[0].AutoFixable)
		})
	}
}

const longSentenceDraft = `# Solar Panels

## What solar panels are

Installers who follow the [installer guide](https://example.com/guide) connect each string of modules to the inverter before they test the output of the complete system with a calibrated meter on a bright sunny day. Solar panels turn sunlight into electricity for homes, and a typical rooftop system with twenty modules, an inverter, mounting rails and cabling produces enough power for a family of four across the whole year. Owners who monitor their production through the inverter app notice that output drops sharply in winter months when the sun stays low and clouds cover the sky for many days in a row.

#### Panel efficiency

Panels convert about twenty percent of sunlight.
`

func TestAuditedIssuesCanBePlaced(t *testing.T) {
	results := audit.New().Run(audit.Input{Draft: longSentenceDraft, Language: "en"})
	issues := ConvertToAuditIssues(longSentenceDraft, results)

	fixes := map[string]string{
		audit.RuleSentenceLength:   "Installers connect each string of modules to the inverter. They test the output on a sunny day.",
		audit.RuleHeadingHierarchy: "### Panel efficiency",
	}
	found := map[string]bool{}
	for _, issue := range issues {
		fix, ok := fixes[issue.RuleName]
		if !ok {
			continue
		}
		found[issue.RuleName] = true
		assert.True(t, issue.AutoFixable, issue.RuleName)
		assert.Contains(t, longSentenceDraft, issue.CurrentContent, issue.RuleName)
		assert.NotContains(t, issue.CurrentContent, "…", issue.RuleName)

		patched, method := ApplyAutoFix(longSentenceDraft, issue, fix)
		assert.NotEqual(t, MethodNone, method, issue.RuleName)
		assert.Contains(t, patched, fix, issue.RuleName)
	}
	assert.True(t, found[audit.RuleSentenceLength], "sentence length issue")
	assert.True(t, found[audit.RuleHeadingHierarchy], "heading hierarchy issue")

	gen := &recordingGenerator{replies: fixes}
	batch := NewFixer(gen, infra.NopLogger()).BatchApplyAutoFixes(context.Background(), longSentenceDraft, issues, prompt.Article{Title: "Solar Panels"})
	applied := map[string]bool{}
	for _, entry := range batch.Applied {
		applied[entry.RuleName] = true
	}
	assert.True(t, applied[audit.RuleSentenceLength])
	assert.True(t, applied[audit.RuleHeadingHierarchy])
	assert.Contains(t, batch.Draft, "### Panel efficiency")
	assert.NotContains(t, batch.Draft, "#### Panel efficiency")
}

func TestApplyAutoFix(t *testing.T) {
	draft := "## Overview\n\nSolar panels convert light.\n\n## Costs\n\nPanels cost money."

	cases := []struct {
		name   string
		issue  domain.AuditIssue
		fix    string
		want   string
		method Method
	}{
		{
			name:   "exact snippet",
			issue:  domain.AuditIssue{CurrentContent: "Panels cost money."},
			fix:    "Panels cost 5,000 euros.",
			want:   "## Overview\n\nSolar panels convert light.\n\n## Costs\n\nPanels cost 5,000 euros.",
			method: MethodExact,
		},
		{
			name:   "case-insensitive heading keeps markers",
			issue:  domain.AuditIssue{CurrentContent: "overview"},
			fix:    "## Solar panel basics",
			want:   "## Solar panel basics\n\nSolar panels convert light.\n\n## Costs\n\nPanels cost money.",
			method: MethodCaseInsensitive,
		},
		{
			name:   "heading line keeps its marker",
			issue:  domain.AuditIssue{CurrentContent: "## Costs"},
			fix:    "Solar panel costs",
			want:   "## Overview\n\nSolar panels convert light.\n\n## Solar panel costs\n\nPanels cost money.",
			method: MethodExact,
		},
		{
			name:   "missing heading is prepended",
			issue:  domain.AuditIssue{Type: domain.IssueMissingHeading},
			fix:    "Solar panels explained",
			want:   "## Solar panels explained\n\n" + draft,
			method: MethodPrependHeading,
		},
		{
			name:   "missing conclusion is appended",
			issue:  domain.AuditIssue{Type: domain.IssueMissingConclusion},
			fix:    "## Solar panel verdict\n\nSolar panels pay off.",
			want:   draft + "\n\n## Solar panel verdict\n\nSolar panels pay off.\n",
			method: MethodAppendSection,
		},
		{
			name:   "missing image goes after the first paragraph",
			issue:  domain.AuditIssue{Type: domain.IssueMissingImage},
			fix:    "[IMAGE: panel cross-section]",
			want:   "## Overview\n\nSolar panels convert light.\n\n[IMAGE: panel cross-section]\n\n## Costs\n\nPanels cost money.",
			method: MethodInsertImage,
		},
		{
			name:   "snippet not in draft",
			issue:  domain.AuditIssue{Type: domain.IssueMissingImage, CurrentContent: "absent text"},
			fix:    "anything",
			want:   draft,
			method: MethodNone,
		},
		{
			name:   "empty fix",
			issue:  domain.AuditIssue{CurrentContent: "Overview"},
			fix:    "  ",
			want:   draft,
			method: MethodNone,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, method := ApplyAutoFix(draft, tc.issue, tc.fix)
			assert.Equal(t, tc.method, method)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBatchAppliesBySeverityOnPatchedDraft(t *testing.T) {
	gen := &recordingGenerator{replies: map[string]string{
		"critical-rule":   "beta",
		"warning-rule":    "gamma",
		"suggestion-rule": "delta",
	}}
	issues := []domain.AuditIssue{
		{ID: "3", RuleName: "suggestion-rule", Severity: domain.SeveritySuggestion, CurrentContent: "gamma", AutoFixable: true},
		{ID: "1", RuleName: "critical-rule", Severity: domain.SeverityCritical, CurrentContent: "alpha", AutoFixable: true},
		{ID: "2", RuleName: "warning-rule", Severity: domain.SeverityWarning, CurrentContent: "beta", AutoFixable: true},
	}
	fixer := NewFixer(gen, infra.NopLogger())
	result := fixer.BatchApplyAutoFixes(context.Background(), "The alpha value.", issues, prompt.Article{Title: "Greek letters"})

	assert.Equal(t, []string{"critical-rule", "warning-rule", "suggestion-rule"}, gen.rules)
	assert.Equal(t, "The delta value.", result.Draft)
	require.Len(t, result.Applied, 3)
	assert.Empty(t, result.Failed)
	for _, issue := range result.Issues {
		assert.True(t, issue.FixApplied, issue.RuleName)
	}
}

func TestBatchCollectsFailures(t *testing.T) {
	gen := &recordingGenerator{err: errors.New("provider down")}
	issues := []domain.AuditIssue{
		{ID: "1", RuleName: "a", Severity: domain.SeverityWarning, CurrentContent: "alpha", AutoFixable: true},
		{ID: "2", RuleName: "b", Severity: domain.SeverityCritical, AutoFixable: false},
	}
	result := NewFixer(gen, infra.NopLogger()).BatchApplyAutoFixes(context.Background(), "The alpha value.", issues, prompt.Article{})

	assert.Equal(t, "The alpha value.", result.Draft)
	assert.Empty(t, result.Applied)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, reasonNotFixable, result.Failed[0].Reason)
	assert.Equal(t, reasonNoFix, result.Failed[1].Reason)
	assert.Equal(t, []string{"a"}, gen.rules)
}

func TestGenerateAutoFixTrimsFence(t *testing.T) {
	gen := textgen.GeneratorFunc{ID: "fenced", Fn: func(context.Context, textgen.Request) (string, error) {
		return "```markdown\n## Better heading\n```", nil
	}}
	fix := NewFixer(gen, infra.NopLogger()).GenerateAutoFix(context.Background(), domain.AuditIssue{CurrentContent: "Overview"}, "## Overview", prompt.Article{})
	assert.Equal(t, "## Better heading", fix)
}

func TestExtractContext(t *testing.T) {
	draft := strings.Repeat("a", 400) + "NEEDLE" + strings.Repeat("b", 400)
	ctx := ExtractContext(draft, "needle")
	assert.Contains(t, ctx, "NEEDLE")
	assert.LessOrEqual(t, len(ctx), ContextChars)
	assert.True(t, strings.HasPrefix(ctx, "a"))
	assert.True(t, strings.HasSuffix(ctx, "b"))

	assert.Equal(t, strings.Repeat("a", ContextChars), ExtractContext(draft, "missing"))
	assert.Equal(t, "short", ExtractContext("short", ""))
}

func TestExtractContextOffsetsSurviveCaseFolding(t *testing.T) {
	// Lowercasing İ grows it from two bytes to three.
	target := "Target " + strings.Repeat("z", ContextChars)
	draft := strings.Repeat("İ", 50) + " " + target + " tail"

	assert.Equal(t, target, ExtractContext(draft, strings.ToLower(target)))

	issue := domain.AuditIssue{CurrentContent: strings.ToLower(target)}
	patched, method := ApplyAutoFix(draft, issue, "Replaced")
	assert.Equal(t, MethodCaseInsensitive, method)
	assert.Equal(t, strings.Repeat("İ", 50)+" Replaced tail", patched)
}

func TestSortBySeverityIsStable(t *testing.T) {
	issues := []domain.AuditIssue{
		{ID: "s1", Severity: domain.SeveritySuggestion},
		{ID: "w1", Severity: domain.SeverityWarning},
		{ID: "c1", Severity: domain.SeverityCritical},
		{ID: "w2", Severity: domain.SeverityWarning},
	}
	sorted := SortBySeverity(issues)
	ids := make([]string, len(sorted))
	for i, is := range sorted {
		ids[i] = is.ID
	}
	assert.Equal(t, []string{"c1", "w1", "w2", "s1"}, ids)
	assert.Equal(t, "s1", issues[0].ID)
}
