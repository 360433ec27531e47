package audit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"articleforge/internal/domain"
)

type ruleCase struct {
	name    string
	in      Input
	passing bool
}

// checkRule runs each case and asserts the rule outcome. Failing snippets
// must be text of the draft so auto-fixes can replace them.
func checkRule(t *testing.T, rule string, cases []ruleCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := findResult(t, New().Run(tc.in), rule)
			assert.Equal(t, tc.passing, res.IsPassing, res.Details)
			if !res.IsPassing && res.AffectedTextSnippet != "" {
				assert.Contains(t, tc.in.Draft, res.AffectedTextSnippet)
			}
		})
	}
}

func sentences(s string, n int) string {
	return strings.TrimSpace(strings.Repeat(s+" ", n))
}

var solarBrief = domain.ContentBrief{CentralEntity: "solar panels"}

func withEntity(draft string) Input {
	return Input{Draft: draft, Brief: solarBrief}
}

const (
	activeSentence  = "Installers mount the rails."
	passiveSentence = "The roof was inspected by the installer."
	futureSentence  = "Panels will cost less next year."
)

func TestStopWordDensity(t *testing.T) {
	checkRule(t, RuleStopWordDensity, []ruleCase{
		{"three fillers in 100 words", Input{Draft: words("w", 97) + " very really quite."}, true},
		{"four fillers in 100 words", Input{Draft: words("w", 96) + " very really quite just."}, false},
		{"no prose", Input{Draft: "## Heading only\n"}, true},
	})
}

func TestOpeningFiller(t *testing.T) {
	checkRule(t, RuleOpeningFiller, []ruleCase{
		{"fillers after the opening", Input{Draft: words("w", 100) + " very really quite just."}, true},
		{"three fillers in the opening", Input{Draft: "very really quite " + words("w", 100) + "."}, true},
		{"four fillers in the opening", Input{Draft: "very really quite just " + words("w", 100) + "."}, false},
	})
}

func TestSubjectPositioning(t *testing.T) {
	subject := "Solar panels convert sunlight into power."
	object := "Many homeowners in cold northern regions now install solar panels."
	checkRule(t, RuleSubjectPositioning, []ruleCase{
		{"no central entity", Input{Draft: object}, true},
		{"entity never mentioned", withEntity(activeSentence), false},
		{"subject in one of three mentions", withEntity(subject + " " + sentences(object, 2)), true},
		{"subject in one of four mentions", withEntity(subject + " " + sentences(object, 3)), false},
	})
}

func TestPassiveVoice(t *testing.T) {
	checkRule(t, RulePassiveVoice, []ruleCase{
		{"one of five passive", Input{Draft: passiveSentence + " " + sentences(activeSentence, 4)}, true},
		{"two of five passive", Input{Draft: sentences(passiveSentence, 2) + " " + sentences(activeSentence, 3)}, false},
		{"no prose", Input{Draft: "## Heading only\n"}, true},
	})
}

func TestHeadingEntity(t *testing.T) {
	aligned := "## Solar panel costs\n\nText.\n\n## Roof orientation\n\nText.\n"
	checkRule(t, RuleHeadingEntity, []ruleCase{
		{"half of the subheadings aligned", withEntity(aligned), true},
		{"one of three subheadings aligned", withEntity(aligned + "\n## Mounting rails\n\nText.\n"), false},
		{"no subheadings", withEntity("# Solar panels\n\nText.\n"), true},
		{"no entity or title", Input{Draft: aligned}, true},
	})
}

func TestFactualTense(t *testing.T) {
	checkRule(t, RuleFactualTense, []ruleCase{
		{"one of ten future", Input{Draft: futureSentence + " " + sentences(activeSentence, 9)}, true},
		{"two of ten future", Input{Draft: sentences(futureSentence, 2) + " " + sentences(activeSentence, 8)}, false},
	})
}

func TestPronounDensity(t *testing.T) {
	checkRule(t, RulePronounDensity, []ruleCase{
		{"four pronouns in 100 words", Input{Draft: words("w", 96) + " they they they they."}, true},
		{"five pronouns in 100 words", Input{Draft: words("w", 95) + " they they they they they."}, false},
		{
			"outnumbered by entity mentions",
			withEntity(words("w", 83) + " " + sentences("solar panels", 6) + " they they they they they."),
			true,
		},
	})
}

func TestLinkPosition(t *testing.T) {
	checkRule(t, RuleLinkPosition, []ruleCase{
		{"link after the first sentence", Input{Draft: "Panels convert light. Read the [installer guide](/guide) first.\n"}, true},
		{"link in the first sentence", Input{Draft: "See the [installer guide](/guide) first. Panels convert light.\n"}, false},
		{"no links", Input{Draft: "Panels convert light.\n"}, true},
	})
}

func TestFirstSentence(t *testing.T) {
	section := func(first string) Input {
		return Input{Draft: "## Solar panel costs\n\n" + first + "\n"}
	}
	checkRule(t, RuleFirstSentence, []ruleCase{
		{"direct answer", section("Solar panels cost 5,000 euros for an average home."), true},
		{"thirty words", section(words("w", 30) + "."), true},
		{"question", section("Do solar panels pay off?"), false},
		{"meta opener", section("In this section we look at costs."), false},
		{"hedged", section("Solar panels might cost less than you think."), false},
		{"thirty-one words", section(words("w", 31) + "."), false},
		{"no sections", Input{Draft: "Solar panels cost money.\n"}, true},
	})
}

func TestRepetitiveEntity(t *testing.T) {
	checkRule(t, RuleRepetitiveEntity, []ruleCase{
		{"run of two", withEntity("Solar panels save money. Solar panels last long. Installers mount the rails on the roof before noon."), true},
		{"run of three", withEntity("Solar panels save money. Solar panels last long. Solar panels need sun. Installers mount the rails."), false},
		{"no entity", Input{Draft: "Solar panels save money. Solar panels last long. Solar panels need sun."}, true},
	})
}

func TestPredicateConsistency(t *testing.T) {
	contrasting := "## Solar panel savings\n\nText.\n\n## Risks of solar panels\n\nText.\n"
	checkRule(t, RulePredicateConsistency, []ruleCase{
		{"neutral title", Input{Draft: contrasting, Brief: domain.ContentBrief{Title: "Solar panels for homes"}}, true},
		{
			"consistent subheadings",
			Input{Draft: "## Solar panel savings\n\nText.\n\n## Improve your roof\n\nText.\n", Brief: domain.ContentBrief{Title: "Benefits of solar panels"}},
			true,
		},
		{"contradicting subheading", Input{Draft: contrasting, Brief: domain.ContentBrief{Title: "Benefits of solar panels"}}, false},
	})

	res := findResult(t, New().Run(Input{Draft: contrasting, Brief: domain.ContentBrief{Title: "Benefits of solar panels"}}), RulePredicateConsistency)
	assert.Equal(t, "## Risks of solar panels", res.AffectedTextSnippet)
}

func TestContentBalance(t *testing.T) {
	balanced := func(alpha, beta int) Input {
		return Input{Draft: "## Alpha section\n\n" + words("a", alpha) + ".\n\n## Beta section\n\n" + words("b", beta) + ".\n"}
	}
	checkRule(t, RuleContentBalance, []ruleCase{
		{"exactly half", balanced(10, 10), true},
		{"over half", balanced(11, 10), false},
		{"single section", Input{Draft: "## Alpha section\n\n" + words("a", 10) + ".\n"}, true},
	})
}

func TestVocabularyRichness(t *testing.T) {
	checkRule(t, RuleVocabularyRichness, []ruleCase{
		{"skipped below 100 words", Input{Draft: sentences("solar", 99) + "."}, true},
		{"repetitive at 100 words", Input{Draft: sentences("solar", 100) + "."}, false},
		{"ratio at the minimum", Input{Draft: words("w", 35) + " " + sentences("w0", 65) + "."}, true},
		{"ratio below the minimum", Input{Draft: words("w", 34) + " " + sentences("w0", 66) + "."}, false},
	})
}

func TestQueryFormat(t *testing.T) {
	titled := func(title, draft string) Input {
		return Input{Draft: draft, Brief: domain.ContentBrief{Title: title}}
	}
	table := "| Type | Price | Efficiency |\n| --- | --- | --- |\n| Mono | High | 22% |\n"
	checkRule(t, RuleQueryFormat, []ruleCase{
		{"neutral title", titled("Solar panels for homes", "Text.\n"), true},
		{"instructional with numbered steps", titled("How to install solar panels", "1. Survey the roof\n2. Mount the rails\n"), true},
		{"instructional with bullets", titled("How to install solar panels", "- Survey the roof\n- Mount the rails\n"), false},
		{"list title with a list", titled("Best solar panels", "- Mono\n- Poly\n"), true},
		{"list title without a list", titled("Best solar panels", "Mono panels lead the market.\n"), false},
		{"comparison with a table", titled("Solar panels vs heat pumps", table), true},
		{"comparison without a table", titled("Solar panels vs heat pumps", "Both save energy.\n"), false},
		{"definition in the first sentence", titled("What is a solar panel", "A solar panel is a device that turns light into power.\n"), true},
		{"no definition", titled("What is a solar panel", "Many homes use panels today.\n"), false},
	})

	res := findResult(t, New().Run(titled("How to install solar panels", "- Survey the roof\n")), RuleQueryFormat)
	assert.Empty(t, res.AffectedTextSnippet, "title is not part of the draft")
	assert.Contains(t, res.Details, "How to install solar panels")

	res = findResult(t, New().Run(Input{Draft: "# How to install solar panels\n\n- Survey the roof\n"}), RuleQueryFormat)
	assert.Equal(t, "# How to install solar panels", res.AffectedTextSnippet)
}

func TestAnchorRepetition(t *testing.T) {
	link := "Installers follow the [installer guide](/guide) closely.\n\n"
	checkRule(t, RuleAnchorRepetition, []ruleCase{
		{"three uses", Input{Draft: strings.Repeat(link, 3)}, true},
		{"four uses", Input{Draft: strings.Repeat(link, 4)}, false},
	})

	res := findResult(t, New().Run(Input{Draft: strings.Repeat(link, 4)}), RuleAnchorRepetition)
	assert.Equal(t, "installer guide", res.AffectedTextSnippet)
	assert.Contains(t, res.Details, "×4")
}

func TestAnchorQuality(t *testing.T) {
	checkRule(t, RuleAnchorQuality, []ruleCase{
		{"six context words", Input{Draft: "Mount the rails and follow the [installer guide](/guide).\n"}, true},
		{"five context words", Input{Draft: "Mount rails and follow the [installer guide](/guide).\n"}, false},
		{"generic anchor", Input{Draft: "Installers who mount rails on tiled roofs can [click here](/guide) for the steps.\n"}, false},
		{"no links", Input{Draft: "Mount the rails.\n"}, true},
	})

	draft := "Installers who mount rails on tiled roofs can [click here](/guide) for the steps.\n"
	res := findResult(t, New().Run(Input{Draft: draft}), RuleAnchorQuality)
	assert.Equal(t, strings.TrimSpace(draft), res.AffectedTextSnippet)
	assert.Contains(t, res.Details, `generic anchor "click here"`)
}

func TestSentenceLength(t *testing.T) {
	long := func(prefixes ...string) string {
		parts := make([]string, len(prefixes))
		for i, p := range prefixes {
			parts[i] = words(p, 31) + "."
		}
		return strings.Join(parts, " ")
	}
	checkRule(t, RuleSentenceLength, []ruleCase{
		{"two long sentences", Input{Draft: long("a", "b")}, true},
		{"three long sentences", Input{Draft: long("a", "b", "c")}, false},
		{"three thirty-word sentences", Input{Draft: words("a", 30) + ". " + words("b", 30) + ". " + words("c", 30) + "."}, true},
	})
}

func TestFactualDensity(t *testing.T) {
	draft := "Solar panels cost 5,000 euros for a home. Panels last long.\n"
	covered := domain.SemanticTriple{Subject: "solar panels", Predicate: "cost", Object: "5,000 euros"}
	lifetime := domain.SemanticTriple{Subject: "solar panels", Predicate: "last", Object: "30 years"}
	weight := domain.SemanticTriple{Subject: "solar panels", Predicate: "weigh", Object: "20 kilograms"}
	checkRule(t, RuleFactualDensity, []ruleCase{
		{"no triples", Input{Draft: draft}, true},
		{"half stated", Input{Draft: draft, Triples: []domain.SemanticTriple{covered, lifetime}}, true},
		{"one of three stated", Input{Draft: draft, Triples: []domain.SemanticTriple{covered, lifetime, weight}}, false},
	})

	res := findResult(t, New().Run(Input{Draft: draft, Triples: []domain.SemanticTriple{covered, lifetime, weight}}), RuleFactualDensity)
	assert.Empty(t, res.AffectedTextSnippet)
	assert.Contains(t, res.Details, "solar panels weigh 20 kilograms")
}

func TestFormatCompliance(t *testing.T) {
	brief := domain.ContentBrief{StructuredOutline: []domain.SectionDefinition{
		{Heading: "Solar panel types", Level: 2, FormatCode: domain.FormatList},
	}}
	listed := "## Solar panel types\n\nThe three types are:\n\n- Mono\n- Poly\n- Thin-film\n"
	prose := "## Solar panel types\n\nPanels come in many types.\n"
	checkRule(t, RuleFormatCompliance, []ruleCase{
		{"list section with a list", Input{Draft: listed, Brief: brief}, true},
		{"list section in prose", Input{Draft: prose, Brief: brief}, false},
		{"no format codes", Input{Draft: prose}, true},
	})

	res := findResult(t, New().Run(Input{Draft: prose, Brief: brief}), RuleFormatCompliance)
	assert.Equal(t, "## Solar panel types", res.AffectedTextSnippet)
}

func TestZoneBalance(t *testing.T) {
	section := func(headings ...string) string {
		var b strings.Builder
		for _, h := range headings {
			b.WriteString("## " + h + "\n\nText.\n\n")
		}
		return b.String()
	}
	core := section("Alpha", "Beta", "Gamma")
	checkRule(t, RuleZoneBalance, []ruleCase{
		{"three main sections", Input{Draft: core}, true},
		{"two main sections", Input{Draft: section("Alpha", "Beta")}, false},
		{"supplementary equals main", Input{Draft: core + section("Related articles", "See also", "Further reading")}, true},
		{"supplementary outweighs main", Input{Draft: core + section("Related articles", "See also", "Further reading", "More resources")}, false},
	})
}

func TestFailingSnippetsAreDraftText(t *testing.T) {
	draft := "# Solar panels\n\n## Overview\n\nInstallers **always** follow the [installer guide](/guide) when they connect each string of modules to the inverter before they test the output of the complete system on a bright day and record the result. " +
		words("b", 70) + ". " + words("c", 40) + ".\n\n#### Deep wiring\n\nIt is very important to note that they really just work.\n"
	results := New().Run(Input{Draft: draft, Brief: solarBrief})

	failing := 0
	for _, r := range results {
		if r.IsPassing || r.AffectedTextSnippet == "" {
			continue
		}
		failing++
		assert.Contains(t, draft, r.AffectedTextSnippet, r.RuleName)
		assert.False(t, strings.HasSuffix(r.AffectedTextSnippet, "…"), r.RuleName)
	}
	require.NotZero(t, failing)

	length := findResult(t, results, RuleSentenceLength)
	assert.True(t, strings.HasPrefix(length.AffectedTextSnippet, "Installers **always** follow the [installer guide](/guide)"), length.AffectedTextSnippet)
	assert.Equal(t, "#### Deep wiring", findResult(t, results, RuleHeadingHierarchy).AffectedTextSnippet)
}
