package audit

import (
	"fmt"
	"strings"

	"articleforge/internal/domain"
	"articleforge/internal/markdown"
)

func checkMacroMicroBorder(a *article) domain.AuditRuleResult {
	links, misplaced := 0, 0
	var examples []string
	for i := range a.sections {
		s := &a.sections[i]
		related := a.isRelatedZone(s)
		for _, l := range s.Links() {
			links++
			if !related && a.isExternal(l.URL) {
				misplaced++
				examples = append(examples, l.Text)
			}
		}
	}
	if links == 0 {
		return pass(RuleMacroMicroBorder, "No links to evaluate.")
	}
	details := fmt.Sprintf("%d of %d links point away from the site inside main content.", misplaced, links)
	if misplaced > 0 {
		return fail(RuleMacroMicroBorder, details+" Anchors: "+strings.Join(examples, "; ")+".", examples[0],
			"Move tangential links into a related or further-reading section at the end of the article.")
	}
	return pass(RuleMacroMicroBorder, details)
}

func checkIntroCoverage(a *article) domain.AuditRuleResult {
	var major []*draftSection
	for _, s := range a.bodySections() {
		if !a.isRelatedZone(s) {
			major = append(major, s)
		}
	}
	if len(major) == 0 {
		return pass(RuleIntroCoverage, "No major sections to preview.")
	}
	intro := a.intro()
	if intro == nil {
		return fail(RuleIntroCoverage, "The article has no introduction.", "",
			"Add an introduction that previews every section.")
	}
	idx := indexTerms(intro.Body())
	covered := 0
	var missing []string
	for _, s := range major {
		terms := a.pat.significantTerms(s.Heading)
		if len(terms) == 0 || idx.hasAny(terms) {
			covered++
			continue
		}
		missing = append(missing, s.Heading)
	}
	r := ratio(covered, len(major))
	details := fmt.Sprintf("The introduction previews %d of %d sections.", covered, len(major))
	if r < a.th.MinIntroCoverage {
		return scored(fail(RuleIntroCoverage, details+" Not previewed: "+strings.Join(missing, "; ")+".", intro.FirstParagraph(),
			"Mention the key term of every section in the introduction."), pct(r))
	}
	return scored(pass(RuleIntroCoverage, details), pct(r))
}

type queryIntent string

const (
	intentNeutral       queryIntent = "neutral"
	intentList          queryIntent = "list"
	intentInstructional queryIntent = "instructional"
	intentComparison    queryIntent = "comparison"
	intentDefinitional  queryIntent = "definitional"
)

func (a *article) intentOf(title string) queryIntent {
	switch {
	case containsAnyPhrase(title, a.pat.Intents.Instructional):
		return intentInstructional
	case containsAnyPhrase(title, a.pat.Intents.Comparison):
		return intentComparison
	case containsAnyPhrase(title, a.pat.Intents.Definitional):
		return intentDefinitional
	case containsAnyPhrase(title, a.pat.Intents.List) || startsWithNumber(title):
		return intentList
	}
	return intentNeutral
}

func startsWithNumber(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

func checkQueryFormat(a *article) domain.AuditRuleResult {
	intent := a.intentOf(a.title)
	has := func(kinds ...markdown.BlockKind) bool { return len(a.doc.BlocksOf(kinds...)) > 0 }
	var ok bool
	var want string
	switch intent {
	case intentList:
		ok, want = has(markdown.BlockList, markdown.BlockOrderedList), "a list"
	case intentInstructional:
		ok, want = has(markdown.BlockOrderedList), "a numbered list of steps"
	case intentComparison:
		ok, want = has(markdown.BlockTable), "a comparison table"
	case intentDefinitional:
		subject := a.entity
		if subject == "" {
			subject = definitionalSubject(a.title, a.pat.Intents.Definitional)
		}
		ok, want = a.hasDefinition(markdown.FirstSentence(a.body), subject), "a definition in the first sentence"
	default:
		return pass(RuleQueryFormat, "The title implies no specific format.")
	}
	details := fmt.Sprintf("The title implies a %s query, which needs %s.", intent, want)
	if !ok {
		return fail(RuleQueryFormat, details, a.headingLine(a.title), fmt.Sprintf("Add %s that answers the title's query.", want))
	}
	return pass(RuleQueryFormat, details)
}

// definitionalSubject strips the question phrase from a "what is X" title.
func definitionalSubject(title string, phrases []string) string {
	lower := strings.ToLower(title)
	for _, p := range phrases {
		lp := strings.ToLower(p)
		if i := strings.Index(lower, lp); i >= 0 {
			return strings.Trim(strings.TrimSpace(lower[i+len(lp):]), "?!.:")
		}
	}
	return ""
}

func checkAnchorRepetition(a *article) domain.AuditRuleResult {
	counts := make(map[string]int)
	var order []string
	labels := make(map[string]string)
	for _, l := range a.doc.Links() {
		key := normalize(l.Text)
		if key == "" {
			continue
		}
		if _, ok := counts[key]; !ok {
			order = append(order, key)
			labels[key] = l.Text
		}
		counts[key]++
	}
	var repeated []string
	first := ""
	for _, key := range order {
		if counts[key] > a.th.MaxAnchorRepeats {
			repeated = append(repeated, fmt.Sprintf("%q ×%d", labels[key], counts[key]))
			if first == "" {
				first = labels[key]
			}
		}
	}
	if len(repeated) > 0 {
		return fail(RuleAnchorRepetition,
			fmt.Sprintf("%d anchor texts are used more than %d times: %s.", len(repeated), a.th.MaxAnchorRepeats, strings.Join(repeated, "; ")),
			first, "Vary anchor texts or drop repeated links.")
	}
	return pass(RuleAnchorRepetition, fmt.Sprintf("%d distinct anchor texts, none overused.", len(order)))
}

func checkAnchorQuality(a *article) domain.AuditRuleResult {
	generic := make(map[string]struct{}, len(a.pat.GenericAnchors))
	for _, g := range a.pat.GenericAnchors {
		generic[normalize(g)] = struct{}{}
	}
	links := 0
	var problems []string
	first := ""
	for _, b := range a.doc.Blocks {
		if b.Kind != markdown.BlockParagraph {
			continue
		}
		for _, l := range b.Links {
			links++
			if _, ok := generic[normalize(l.Text)]; ok {
				problems = append(problems, fmt.Sprintf("generic anchor %q", l.Text))
			} else if markdown.WordCount(b.Text)-markdown.WordCount(l.Text) < a.th.MinLinkContextWords {
				problems = append(problems, fmt.Sprintf("too little context around %q", l.Text))
			} else {
				continue
			}
			if first == "" {
				first = a.doc.Raw(b)
			}
		}
	}
	if links == 0 {
		return pass(RuleAnchorQuality, "No links in paragraphs.")
	}
	if len(problems) > 0 {
		return fail(RuleAnchorQuality,
			fmt.Sprintf("%d of %d links have weak anchors or context: %s.", len(problems), links, strings.Join(problems, "; ")),
			first,
			"Use descriptive anchors and surround each link with a sentence that explains the target.")
	}
	return pass(RuleAnchorQuality, fmt.Sprintf("All %d links have descriptive anchors and context.", links))
}

func checkIntroLinks(a *article) domain.AuditRuleResult {
	intro := a.intro()
	if intro == nil {
		return pass(RuleIntroLinks, "No introduction found.")
	}
	n := len(intro.Links())
	details := fmt.Sprintf("The introduction contains %d links.", n)
	if n > a.th.MaxIntroLinks {
		return fail(RuleIntroLinks, details, intro.FirstParagraph(),
			fmt.Sprintf("Keep at most %d link in the introduction.", a.th.MaxIntroLinks))
	}
	return pass(RuleIntroLinks, details)
}
