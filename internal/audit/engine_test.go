package audit

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"articleforge/internal/domain"
)

const sampleDraft = `# Solar panels for homes

## What are solar panels

Solar panels are devices that convert sunlight into electricity for your home. A typical residential system produces between 3 and 8 kilowatts.

## Solar panel types

Solar panels come in three main types with different efficiency levels:

- Monocrystalline panels reach 22 percent efficiency
- Polycrystalline panels cost less per watt
- Thin-film panels weigh the least

## Solar panel costs

Solar panels cost between 5,000 and 15,000 euros for an average home. Installation labour adds roughly ten percent to the price.

| Type | Price | Efficiency |
| --- | --- | --- |
| Mono | High | 22% |
| Poly | Medium | 18% |

## Related articles

- [Home batteries](https://example.com/batteries)
`

func findResult(t *testing.T, results []domain.AuditRuleResult, name string) domain.AuditRuleResult {
	t.Helper()
	for _, r := range results {
		if r.RuleName == name {
			return r
		}
	}
	t.Fatalf("rule %q missing from results", name)
	return domain.AuditRuleResult{}
}

func words(prefix string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(parts, " ")
}

func TestScoreFormula(t *testing.T) {
	results := make([]domain.AuditRuleResult, 35)
	for i := range results {
		results[i].IsPassing = i < 28
	}
	assert.Equal(t, 80, Score(results))
	assert.Equal(t, 0, Score(nil))
}

func TestRunCoversEveryRuleInOrder(t *testing.T) {
	results := New().Run(Input{Draft: sampleDraft})
	require.Len(t, results, RuleCount)

	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.RuleName
	}
	assert.Equal(t, RuleNames(), names)
}

func TestRunIsDeterministic(t *testing.T) {
	in := Input{
		Draft: sampleDraft,
		Brief: domain.ContentBrief{Title: "Solar panels for homes", CentralEntity: "solar panels"},
		Triples: []domain.SemanticTriple{
			{Subject: "solar panels", Predicate: "cost", Object: "15,000 euros"},
		},
	}
	engine := New()
	first := engine.Run(in)
	second := engine.Run(in)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("audit results differ between runs (-first +second):\n%s", diff)
	}
	assert.Equal(t, Score(first), Score(second))
}

func TestRunToleratesEmptyDraft(t *testing.T) {
	results := New().Run(Input{})
	require.Len(t, results, RuleCount)
}

func TestProseBalance(t *testing.T) {
	cases := []struct {
		name      string
		prose     int
		items     []string
		passing   bool
		substring string
	}{
		{name: "half prose", prose: 10, items: []string{"a b", "c d", "e f", "g h", "i j"}, passing: false, substring: "too structured"},
		{name: "ninety percent prose", prose: 18, items: []string{"a", "b"}, passing: false, substring: "needs more structure"},
		{name: "seventy percent prose", prose: 14, items: []string{"a b", "c d", "e f"}, passing: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			draft := words("w", tc.prose) + ".\n\n- " + strings.Join(tc.items, "\n- ") + "\n"
			res := findResult(t, New().Run(Input{Draft: draft}), RuleProseBalance)
			assert.Equal(t, tc.passing, res.IsPassing, res.Details)
			if tc.substring != "" {
				assert.Contains(t, res.Details, tc.substring)
			}
		})
	}
}

func TestProseBalanceThresholdOverride(t *testing.T) {
	th := DefaultThresholds()
	th.MaxProseRatio = 0.95
	draft := words("w", 18) + ".\n\n- a\n- b\n"
	res := findResult(t, New(WithThresholds(th)).Run(Input{Draft: draft}), RuleProseBalance)
	assert.True(t, res.IsPassing, res.Details)
}

func TestListDefinitionSentence(t *testing.T) {
	without := "Solar panels come in many forms.\n\n- Monocrystalline\n- Polycrystalline\n- Thin-film\n"
	res := findResult(t, New().Run(Input{Draft: without}), RuleListDefinition)
	assert.False(t, res.IsPassing)
	assert.Equal(t, "Monocrystalline", res.AffectedTextSnippet)

	with := "Solar panels come in many forms.\n\nThe three options are:\n\n- Monocrystalline\n- Polycrystalline\n- Thin-film\n"
	res = findResult(t, New().Run(Input{Draft: with}), RuleListDefinition)
	assert.True(t, res.IsPassing, res.Details)

	count := findResult(t, New().Run(Input{Draft: with}), RuleListCount)
	assert.True(t, count.IsPassing, count.Details)
}

func TestHeadingRules(t *testing.T) {
	draft := "## Overview\n\nSolar panels convert light.\n\n#### Panel wiring\n\nWires connect panels.\n"
	results := New().Run(Input{Draft: draft})

	hierarchy := findResult(t, results, RuleHeadingHierarchy)
	assert.False(t, hierarchy.IsPassing)
	assert.Equal(t, "#### Panel wiring", hierarchy.AffectedTextSnippet)
	assert.Contains(t, hierarchy.Details, "H2→H4")

	generic := findResult(t, results, RuleGenericHeadings)
	assert.False(t, generic.IsPassing)
	assert.Equal(t, "## Overview", generic.AffectedTextSnippet)
}

func TestTableAndImageRules(t *testing.T) {
	narrow := "Prices vary.\n\n| Type | Price |\n| --- | --- |\n| Mono | High |\n"
	assert.False(t, findResult(t, New().Run(Input{Draft: narrow}), RuleTableColumns).IsPassing)

	below := "## Roof layout\n\n![Roof layout](roof.png)\n\nPanels face south.\n"
	assert.False(t, findResult(t, New().Run(Input{Draft: below}), RuleImagePlacement).IsPassing)

	after := "## Roof layout\n\nPanels face south.\n\n[IMAGE: roof layout with south-facing panels]\n"
	assert.True(t, findResult(t, New().Run(Input{Draft: after}), RuleImagePlacement).IsPassing)
}

func TestCenterpieceAnnotation(t *testing.T) {
	brief := domain.ContentBrief{Title: "Solar panels", CentralEntity: "solar panels"}
	defined := "## What they are\n\nSolar panels are devices that turn sunlight into electricity.\n"
	assert.True(t, findResult(t, New().Run(Input{Draft: defined, Brief: brief}), RuleCenterpiece).IsPassing)

	late := "## Background\n\nMany homeowners look at their energy bill every month.\n"
	assert.False(t, findResult(t, New().Run(Input{Draft: late, Brief: brief}), RuleCenterpiece).IsPassing)
}

func TestSignaturePhrases(t *testing.T) {
	draft := "Let us delve into the world of solar energy.\n"
	res := findResult(t, New().Run(Input{Draft: draft}), RuleLLMSignatures)
	assert.False(t, res.IsPassing)
	assert.Contains(t, res.AffectedTextSnippet, "delve into")
}

func TestIntroductionCoverage(t *testing.T) {
	body := "\n\n## Solar panel costs\n\nPanels cost money.\n\n## Installation steps\n\nInstallers mount the rails.\n\n## Conclusion\n\nPanels pay off.\n"
	covered := "## Introduction\n\nSolar panels convert sunlight. This guide covers costs and installation." + body
	assert.True(t, findResult(t, New().Run(Input{Draft: covered}), RuleIntroCoverage).IsPassing)

	partial := "## Introduction\n\nSolar panels convert sunlight. This guide covers costs." + body
	res := findResult(t, New().Run(Input{Draft: partial}), RuleIntroCoverage)
	assert.False(t, res.IsPassing)
	assert.Equal(t, "Solar panels convert sunlight. This guide covers costs.", res.AffectedTextSnippet)
	assert.Contains(t, res.Details, "Installation steps")
}

func TestIntroductionLinks(t *testing.T) {
	draft := "## Introduction\n\nSolar panels convert sunlight, see [inverters](/inverters) and [batteries](/batteries) for storage.\n\n## Costs\n\nPanels cost money.\n"
	assert.False(t, findResult(t, New().Run(Input{Draft: draft}), RuleIntroLinks).IsPassing)
}

func TestMacroMicroBorder(t *testing.T) {
	bc := domain.BusinessContext{Domain: "example.com"}
	inBody := "## Solar panel costs\n\nPanel prices dropped sharply and the [market report](https://othersite.org/report) tracks prices over time.\n"
	assert.False(t, findResult(t, New().Run(Input{Draft: inBody, Business: bc}), RuleMacroMicroBorder).IsPassing)

	related := "## Solar panel costs\n\nPanel prices dropped sharply over the last decade.\n\n## Related articles\n\n- [market report](https://othersite.org/report)\n"
	assert.True(t, findResult(t, New().Run(Input{Draft: related, Business: bc}), RuleMacroMicroBorder).IsPassing)

	own := "## Solar panel costs\n\nPanel prices dropped sharply and our [price overview](https://www.example.com/prices) tracks them.\n"
	assert.True(t, findResult(t, New().Run(Input{Draft: own, Business: bc}), RuleMacroMicroBorder).IsPassing)
}

func TestBridgeCoverage(t *testing.T) {
	brief := domain.ContentBrief{ContextualBridges: []domain.ContextualBridge{
		{AnchorText: "solar inverters", TargetURL: "/inverters"},
		{AnchorText: "battery storage", TargetURL: "/batteries"},
	}}
	half := "Panels feed power through [solar inverters](/inverters/) into the grid.\n"
	assert.True(t, findResult(t, New().Run(Input{Draft: half, Brief: brief}), RuleBridgeCoverage).IsPassing)

	none := "Panels feed power into the grid.\n"
	assert.False(t, findResult(t, New().Run(Input{Draft: none, Brief: brief}), RuleBridgeCoverage).IsPassing)
}

func TestRequiredSectionsWithTemplate(t *testing.T) {
	tmpl, err := BuiltinTemplate("informational")
	require.NoError(t, err)

	complete := "## Introduction\n\nSolar panels are devices.\n\n## Costs\n\nThey cost money.\n\n## Conclusion\n\nThey pay off.\n"
	assert.True(t, findResult(t, New().Run(Input{Draft: complete, Template: tmpl}), RuleRequiredSections).IsPassing)

	missing := "## Introduction\n\nSolar panels are devices.\n\n## Costs\n\nThey cost money.\n"
	res := findResult(t, New().Run(Input{Draft: missing, Template: tmpl}), RuleRequiredSections)
	assert.False(t, res.IsPassing)
	assert.Equal(t, "Conclusion", res.AffectedTextSnippet)

	neither := "## Costs\n\nThey cost money.\n"
	res = findResult(t, New().Run(Input{Draft: neither, Template: tmpl}), RuleRequiredSections)
	assert.False(t, res.IsPassing)
	assert.Equal(t, []string{"Introduction", "Conclusion"}, strings.Split(res.AffectedTextSnippet, MissingSeparator))
}

func TestBuiltinTemplateUnknown(t *testing.T) {
	_, err := BuiltinTemplate("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPatternsFor(t *testing.T) {
	assert.Equal(t, "nl", PatternsFor("nl-BE").Language)
	assert.Equal(t, "en", PatternsFor("en-GB").Language)
	assert.Equal(t, "en", PatternsFor("fr").Language)
	assert.Equal(t, "en", PatternsFor("").Language)
	assert.True(t, PatternsFor("en").IsPassive("The roof was inspected by the installer."))
	assert.True(t, PatternsFor("nl").IsFuture("De panelen zullen stroom leveren."))
}

func TestAuditReportLanguage(t *testing.T) {
	report := New().Audit(Input{Draft: sampleDraft, Language: "nl"})
	assert.Equal(t, "nl", report.Language)
	assert.Equal(t, Score(report.Results), report.Score)
	assert.Len(t, report.Results, RuleCount)
}
