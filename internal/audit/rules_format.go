package audit

import (
	"fmt"
	"strings"

	"articleforge/internal/domain"
	"articleforge/internal/markdown"
)

func checkProseBalance(a *article) domain.AuditRuleResult {
	prose, structured := 0, 0
	for _, b := range a.doc.Blocks {
		switch {
		case b.Kind == markdown.BlockParagraph:
			prose += markdown.WordCount(b.Text)
		case b.IsStructured():
			structured += markdown.WordCount(b.Text)
		}
	}
	total := prose + structured
	if total == 0 {
		return pass(RuleProseBalance, "No content to evaluate.")
	}
	r := ratio(prose, total)
	details := fmt.Sprintf("Prose is %.0f%% of the content (target %.0f–%.0f%%).", r*100, a.th.MinProseRatio*100, a.th.MaxProseRatio*100)
	switch {
	case r < a.th.MinProseRatio:
		return scored(fail(RuleProseBalance, details+" The article is too structured.", "",
			"Turn some lists or tables back into explanatory prose."), pct(r))
	case r > a.th.MaxProseRatio:
		return scored(fail(RuleProseBalance, details+" The article needs more structure.", "",
			"Convert enumerations or comparisons into lists or tables."), pct(r))
	}
	return scored(pass(RuleProseBalance, details), pct(r))
}

func checkListDefinition(a *article) domain.AuditRuleResult {
	lists, missing := 0, 0
	example := ""
	for _, b := range a.doc.BlocksOf(markdown.BlockList, markdown.BlockOrderedList) {
		lists++
		from := b.Start - a.th.ListDefinitionWindow
		if from < 0 {
			from = 0
		}
		before := strings.TrimSpace(a.doc.Source[from:b.Start])
		if strings.HasSuffix(before, ":") {
			continue
		}
		missing++
		if example == "" && len(b.Items) > 0 {
			example = b.Items[0]
		}
	}
	if lists == 0 {
		return pass(RuleListDefinition, "No lists to evaluate.")
	}
	details := fmt.Sprintf("%d of %d lists lack a colon-terminated definition sentence.", missing, lists)
	if missing > 0 {
		return fail(RuleListDefinition, details, example,
			"Precede every list with a complete sentence ending in a colon, for example \"The three options are:\".")
	}
	return pass(RuleListDefinition, details)
}

func checkTableColumns(a *article) domain.AuditRuleResult {
	tables := a.doc.BlocksOf(markdown.BlockTable)
	if len(tables) == 0 {
		return pass(RuleTableColumns, "No tables to evaluate.")
	}
	for _, t := range tables {
		if t.Columns < a.th.MinTableColumns {
			return fail(RuleTableColumns,
				fmt.Sprintf("A table has %d columns; tables need at least %d.", t.Columns, a.th.MinTableColumns),
				firstLine(a.doc.Raw(t)), "Convert narrow tables into a list or add comparison attributes.")
		}
	}
	return pass(RuleTableColumns, fmt.Sprintf("All %d tables have at least %d columns.", len(tables), a.th.MinTableColumns))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func checkImagePlacement(a *article) domain.AuditRuleResult {
	images, misplaced := 0, 0
	example := ""
	for i, b := range a.doc.Blocks {
		if b.Kind != markdown.BlockImage {
			continue
		}
		images++
		if i > 0 && a.doc.Blocks[i-1].Kind == markdown.BlockHeading {
			misplaced++
			if example == "" {
				example = a.doc.Raw(a.doc.Blocks[i-1])
			}
		}
	}
	if images == 0 {
		return pass(RuleImagePlacement, "No images to evaluate.")
	}
	details := fmt.Sprintf("%d of %d images sit directly below a heading.", misplaced, images)
	if misplaced > 0 {
		return fail(RuleImagePlacement, details, example,
			"Place images after the first paragraph of a section, never between a heading and its text.")
	}
	return pass(RuleImagePlacement, details)
}

func checkSentenceLength(a *article) domain.AuditRuleResult {
	long := 0
	example := ""
	for _, s := range a.sentences {
		if markdown.WordCount(s) > a.th.MaxSentenceWords {
			long++
			if example == "" {
				example = s
			}
		}
	}
	details := fmt.Sprintf("%d sentences exceed %d words.", long, a.th.MaxSentenceWords)
	if long > a.th.MaxLongSentences {
		return fail(RuleSentenceLength, details, example, "Split long sentences into shorter, single-claim sentences.")
	}
	return pass(RuleSentenceLength, details)
}

func checkFactualDensity(a *article) domain.AuditRuleResult {
	if len(a.in.Triples) == 0 {
		return pass(RuleFactualDensity, "No semantic triples supplied.")
	}
	sentences := markdown.SplitSentences(a.body)
	words := markdown.WordCount(a.body)
	covered, termHits := 0, 0
	var missing []string
	for _, t := range a.in.Triples {
		object := t.Object
		if strings.TrimSpace(object) == "" {
			object = t.Predicate
		}
		termHits += markdown.CountPhrase(a.body, object)
		found := false
		for _, s := range sentences {
			if markdown.ContainsPhrase(s, t.Subject) && markdown.ContainsPhrase(s, object) {
				found = true
				break
			}
		}
		if found {
			covered++
		} else {
			missing = append(missing, fmt.Sprintf("%s %s %s", t.Subject, t.Predicate, t.Object))
		}
	}
	r := ratio(covered, len(a.in.Triples))
	density := 0.0
	if words > 0 {
		density = 100 * float64(termHits) / float64(words)
	}
	details := fmt.Sprintf("%d of %d facts are stated; attribute terms appear %.1f times per 100 words.", covered, len(a.in.Triples), density)
	if r < a.th.MinTripleCoverage {
		return scored(fail(RuleFactualDensity, details+" Missing: "+strings.Join(missing, "; ")+".", "",
			"State each entity-attribute-value fact explicitly in one sentence."), pct(r))
	}
	return scored(pass(RuleFactualDensity, details), pct(r))
}

func checkBridgeCoverage(a *article) domain.AuditRuleResult {
	bridges := a.in.Brief.ContextualBridges
	if len(bridges) == 0 {
		return pass(RuleBridgeCoverage, "No contextual bridges expected.")
	}
	links := a.doc.Links()
	inserted := 0
	var missing []string
	for _, br := range bridges {
		found := false
		for _, l := range links {
			if sameURL(l.URL, br.TargetURL) || (br.AnchorText != "" && normalize(l.Text) == normalize(br.AnchorText)) {
				found = true
				break
			}
		}
		if found {
			inserted++
		} else {
			missing = append(missing, br.AnchorText)
		}
	}
	r := ratio(inserted, len(bridges))
	details := fmt.Sprintf("%d of %d expected internal links are present.", inserted, len(bridges))
	if r < a.th.MinBridgeRate {
		return scored(fail(RuleBridgeCoverage, details+" Missing anchors: "+strings.Join(missing, "; ")+".", "",
			"Insert the missing internal links with their planned anchor texts."), pct(r))
	}
	return scored(pass(RuleBridgeCoverage, details), pct(r))
}
