package audit

import (
	"fmt"
	"regexp"
	"strings"

	"articleforge/internal/domain"
	"articleforge/internal/markdown"
)

func checkModality(a *article) domain.AuditRuleResult {
	if len(a.sentences) == 0 {
		return pass(RuleModality, "No prose to evaluate.")
	}
	hedged, first := 0, ""
	for _, s := range a.sentences {
		if containsAnyPhrase(s, a.pat.Hedges) {
			hedged++
			if first == "" {
				first = s
			}
		}
	}
	r := ratio(hedged, len(a.sentences))
	details := fmt.Sprintf("%d of %d sentences use hedging language (%.0f%%).", hedged, len(a.sentences), r*100)
	if r > a.th.MaxHedgeRatio {
		return scored(fail(RuleModality, details, first,
			"Replace hedging words such as \"might\" or \"could\" with definitive statements."), pct(1-r))
	}
	return scored(pass(RuleModality, details), pct(1-r))
}

func checkStopWordDensity(a *article) domain.AuditRuleResult {
	if len(a.words) == 0 {
		return pass(RuleStopWordDensity, "No prose to evaluate.")
	}
	n := countPhrases(a.prose, a.pat.Fillers)
	d := ratio(n, len(a.words))
	details := fmt.Sprintf("Filler word density is %.1f%% (%d of %d words).", d*100, n, len(a.words))
	if d > a.th.MaxFillerDensity {
		found := matchedPhrases(a.prose, a.pat.Fillers)
		return fail(RuleStopWordDensity, details+" Fillers: "+strings.Join(found, ", ")+".",
			firstSentenceWith(a.sentences, found), "Remove filler words that add no meaning.")
	}
	return pass(RuleStopWordDensity, details)
}

func checkOpeningFiller(a *article) domain.AuditRuleResult {
	if len(a.words) == 0 {
		return pass(RuleOpeningFiller, "No prose to evaluate.")
	}
	limit := a.th.OpeningWords
	if limit <= 0 || limit > len(a.words) {
		limit = len(a.words)
	}
	opening := strings.Join(a.words[:limit], " ")
	n := countPhrases(opening, a.pat.Fillers)
	d := ratio(n, limit)
	details := fmt.Sprintf("The first %d words contain %d filler words (%.1f%%).", limit, n, d*100)
	if d > a.th.MaxOpeningFillerDensity {
		return fail(RuleOpeningFiller, details, markdown.FirstSentence(a.prose),
			"Open the article with dense, factual sentences without filler.")
	}
	return pass(RuleOpeningFiller, details)
}

func checkSubjectPositioning(a *article) domain.AuditRuleResult {
	if a.entity == "" {
		return pass(RuleSubjectPositioning, "No central entity supplied.")
	}
	entityWords := len(markdown.Words(a.entity))
	mentions, subjects := 0, 0
	example := ""
	for _, s := range a.sentences {
		if !markdown.ContainsPhrase(s, a.entity) {
			continue
		}
		mentions++
		words := markdown.Words(s)
		window := a.th.SubjectWindowWords + entityWords
		if window > len(words) {
			window = len(words)
		}
		if markdown.ContainsPhrase(strings.Join(words[:window], " "), a.entity) {
			subjects++
		} else if example == "" {
			example = s
		}
	}
	if mentions == 0 {
		return fail(RuleSubjectPositioning, fmt.Sprintf("The central entity %q is never mentioned in the prose.", a.entity), "",
			"Name the central entity explicitly and make it the subject of key sentences.")
	}
	r := ratio(subjects, mentions)
	details := fmt.Sprintf("The central entity is the sentence subject in %d of %d mentions.", subjects, mentions)
	if r < a.th.MinSubjectRatio {
		return scored(fail(RuleSubjectPositioning, details, example,
			"Rewrite sentences so the central entity opens them as the grammatical subject."), pct(r))
	}
	return scored(pass(RuleSubjectPositioning, details), pct(r))
}

func checkHeadingHierarchy(a *article) domain.AuditRuleResult {
	prev := 1
	var skips []string
	first := ""
	for _, h := range a.doc.Headings() {
		if h.Level > prev+1 {
			skips = append(skips, fmt.Sprintf("H%d→H%d %q", prev, h.Level, h.Text))
			if first == "" {
				first = a.doc.Raw(h)
			}
		}
		prev = h.Level
	}
	if len(skips) > 0 {
		return fail(RuleHeadingHierarchy,
			fmt.Sprintf("%d heading level skips found: %s.", len(skips), strings.Join(skips, "; ")), first,
			"Never skip heading levels; nest H3 under H2 and H4 under H3.")
	}
	return pass(RuleHeadingHierarchy, "Heading levels are nested without skips.")
}

func checkGenericHeadings(a *article) domain.AuditRuleResult {
	generic := make(map[string]struct{}, len(a.pat.GenericHeadings))
	for _, g := range a.pat.GenericHeadings {
		generic[normalize(g)] = struct{}{}
	}
	var found []string
	first := ""
	for _, h := range a.doc.Headings() {
		if h.Level < 2 {
			continue
		}
		if _, ok := generic[normalize(h.Text)]; ok {
			found = append(found, h.Text)
			if first == "" {
				first = a.doc.Raw(h)
			}
		}
	}
	if len(found) > 0 {
		return fail(RuleGenericHeadings,
			fmt.Sprintf("%d generic headings found: %s.", len(found), strings.Join(found, "; ")), first,
			"Make every heading specific to the topic, for example by naming the central entity and the attribute discussed.")
	}
	return pass(RuleGenericHeadings, "All headings are specific.")
}

func checkPassiveVoice(a *article) domain.AuditRuleResult {
	if len(a.sentences) == 0 {
		return pass(RulePassiveVoice, "No prose to evaluate.")
	}
	passive, first := 0, ""
	for _, s := range a.sentences {
		if a.pat.IsPassive(s) {
			passive++
			if first == "" {
				first = s
			}
		}
	}
	r := ratio(passive, len(a.sentences))
	details := fmt.Sprintf("%d of %d sentences are passive (%.0f%%).", passive, len(a.sentences), r*100)
	if r > a.th.MaxPassiveRatio {
		return scored(fail(RulePassiveVoice, details, first, "Rewrite passive sentences in active voice."), pct(1-r))
	}
	return scored(pass(RulePassiveVoice, details), pct(1-r))
}

func checkHeadingEntity(a *article) domain.AuditRuleResult {
	terms := a.entityTerms()
	if len(terms) == 0 {
		return pass(RuleHeadingEntity, "No central entity or title to align headings with.")
	}
	total, aligned := 0, 0
	var misaligned []string
	first := ""
	for _, h := range a.doc.Headings() {
		if h.Level < 2 || h.Level > 3 {
			continue
		}
		total++
		if indexTerms(h.Text).hasAny(terms) {
			aligned++
			continue
		}
		misaligned = append(misaligned, h.Text)
		if first == "" {
			first = a.doc.Raw(h)
		}
	}
	if total == 0 {
		return pass(RuleHeadingEntity, "No subheadings to evaluate.")
	}
	r := ratio(aligned, total)
	details := fmt.Sprintf("%d of %d subheadings contain a term of the central entity.", aligned, total)
	if r < a.th.MinHeadingAlignment {
		return scored(fail(RuleHeadingEntity, details+" Misaligned: "+strings.Join(misaligned, "; ")+".", first,
			"Include the central entity or one of its terms in the subheadings."), pct(r))
	}
	return scored(pass(RuleHeadingEntity, details), pct(r))
}

func checkFactualTense(a *article) domain.AuditRuleResult {
	if len(a.sentences) == 0 {
		return pass(RuleFactualTense, "No prose to evaluate.")
	}
	future, first := 0, ""
	for _, s := range a.sentences {
		if a.pat.IsFuture(s) {
			future++
			if first == "" {
				first = s
			}
		}
	}
	r := ratio(future, len(a.sentences))
	details := fmt.Sprintf("%d of %d sentences state facts in future tense.", future, len(a.sentences))
	if r > a.th.MaxFutureRatio {
		return fail(RuleFactualTense, details, first, "State facts in the present tense.")
	}
	return pass(RuleFactualTense, details)
}

func checkListCount(a *article) domain.AuditRuleResult {
	lists, vague := 0, 0
	example := ""
	for i, b := range a.doc.Blocks {
		if b.Kind != markdown.BlockList && b.Kind != markdown.BlockOrderedList {
			continue
		}
		lists++
		preamble := ""
		if i > 0 && a.doc.Blocks[i-1].Kind == markdown.BlockParagraph {
			preamble = lastSentence(a.doc.Blocks[i-1].Text)
		}
		if !hasCount(preamble, a.pat.CountWords) {
			vague++
			if example == "" {
				example = preamble
				if example == "" && len(b.Items) > 0 {
					example = b.Items[0]
				}
			}
		}
	}
	if lists == 0 {
		return pass(RuleListCount, "No lists to evaluate.")
	}
	details := fmt.Sprintf("%d of %d lists are introduced without stating the number of items.", vague, lists)
	if vague > 0 {
		return fail(RuleListCount, details, example,
			"Introduce each list with a sentence that states the exact count, for example \"The four types are:\".")
	}
	return pass(RuleListCount, details)
}

func checkPronounDensity(a *article) domain.AuditRuleResult {
	if len(a.words) == 0 {
		return pass(RulePronounDensity, "No prose to evaluate.")
	}
	pronouns := countPhrases(a.prose, a.pat.Pronouns)
	mentions := 0
	if a.entity != "" {
		mentions = markdown.CountPhrase(a.prose, a.entity)
	}
	d := ratio(pronouns, len(a.words))
	details := fmt.Sprintf("Pronoun density is %.1f%% with %d pronouns against %d explicit entity mentions.", d*100, pronouns, mentions)
	if d > a.th.MaxPronounDensity && pronouns > mentions {
		return fail(RulePronounDensity, details, "", "Replace ambiguous pronouns with the explicit entity name.")
	}
	return pass(RulePronounDensity, details)
}

var sentenceEnd = regexp.MustCompile(`[.!?](\s|$)`)

func checkLinkPosition(a *article) domain.AuditRuleResult {
	links, early := 0, 0
	example := ""
	for _, b := range a.doc.Blocks {
		if b.Kind != markdown.BlockParagraph || len(b.Links) == 0 {
			continue
		}
		raw := a.doc.Source[b.Start:b.End]
		firstEnd := b.End
		if loc := sentenceEnd.FindStringIndex(raw); loc != nil {
			firstEnd = b.Start + loc[0]
		}
		for _, l := range b.Links {
			links++
			if l.Offset < firstEnd {
				early++
				if example == "" {
					example = markdown.FirstSentence(b.Text)
				}
			}
		}
	}
	if links == 0 {
		return pass(RuleLinkPosition, "No links in paragraphs.")
	}
	details := fmt.Sprintf("%d of %d links appear in the first sentence of a paragraph.", early, links)
	if early > 0 {
		return fail(RuleLinkPosition, details, example,
			"Move links after the first sentence so each paragraph opens with its own claim.")
	}
	return pass(RuleLinkPosition, details)
}

func checkFirstSentence(a *article) domain.AuditRuleResult {
	total, weak := 0, 0
	var examples []string
	for _, s := range a.sections {
		if s.Level != 2 {
			continue
		}
		first := markdown.FirstSentence(s.FirstParagraph())
		if first == "" {
			continue
		}
		total++
		if a.impreciseOpening(first) {
			weak++
			examples = append(examples, first)
		}
	}
	if total == 0 {
		return pass(RuleFirstSentence, "No sections with an opening paragraph.")
	}
	details := fmt.Sprintf("%d of %d sections open with an imprecise first sentence.", weak, total)
	score := pct(1 - ratio(weak, total))
	if weak > 0 {
		return scored(fail(RuleFirstSentence, details, examples[0],
			"Open every section with a direct, definitive answer to its heading."), score)
	}
	return scored(pass(RuleFirstSentence, details), score)
}

func (a *article) impreciseOpening(sentence string) bool {
	if strings.HasSuffix(strings.TrimSpace(sentence), "?") {
		return true
	}
	if containsAnyPhrase(sentence, a.pat.Hedges) {
		return true
	}
	n := normalize(sentence)
	for _, opener := range a.pat.MetaOpeners {
		if strings.HasPrefix(n, normalize(opener)) {
			return true
		}
	}
	return markdown.WordCount(sentence) > a.th.MaxSentenceWords
}

func checkCenterpiece(a *article) domain.AuditRuleResult {
	if a.entity == "" {
		return pass(RuleCenterpiece, "No central entity supplied.")
	}
	window := firstRunes(a.body, a.th.DefinitionWindow)
	if a.hasDefinition(window, a.entity) {
		return pass(RuleCenterpiece, fmt.Sprintf("The central entity is defined within the first %d characters.", a.th.DefinitionWindow))
	}
	return fail(RuleCenterpiece,
		fmt.Sprintf("No definition of %q within the first %d characters.", a.entity, a.th.DefinitionWindow),
		markdown.FirstSentence(window),
		fmt.Sprintf("Open the article with a definition such as \"%s is ...\".", a.entity))
}

func checkRepetitiveEntity(a *article) domain.AuditRuleResult {
	if a.entity == "" {
		return pass(RuleRepetitiveEntity, "No central entity supplied.")
	}
	run, worst := 0, 0
	var current, example []string
	for _, s := range a.sentences {
		if markdown.WordCount(s) <= a.th.ShortSentenceWords && markdown.ContainsPhrase(s, a.entity) {
			run++
			current = append(current, s)
			if run > worst {
				worst = run
				example = append([]string(nil), current...)
			}
			continue
		}
		run = 0
		current = current[:0]
	}
	details := fmt.Sprintf("Longest run of short sentences repeating the entity: %d.", worst)
	if worst > a.th.MaxRepetitiveRun {
		return fail(RuleRepetitiveEntity, details, strings.Join(example, " "),
			"Merge short repetitive sentences and vary how the entity is referenced.")
	}
	return pass(RuleRepetitiveEntity, details)
}

func checkLLMSignatures(a *article) domain.AuditRuleResult {
	text := a.doc.PlainText()
	n := countPhrases(text, a.pat.Signatures)
	details := fmt.Sprintf("%d machine-writing signature phrases found.", n)
	if n > a.th.MaxSignaturePhrases {
		found := matchedPhrases(text, a.pat.Signatures)
		return fail(RuleLLMSignatures, details+" Phrases: "+strings.Join(found, "; ")+".",
			firstSentenceWith(markdown.SplitSentences(text), found),
			"Remove cliches and stock phrases typical of generated text.")
	}
	return pass(RuleLLMSignatures, details)
}

type polarity int

const (
	polarityNeutral polarity = iota
	polarityPositive
	polarityNegative
	polarityInstructional
)

func (a *article) polarityOf(s string) polarity {
	pos := containsAnyPhrase(s, a.pat.Positive)
	neg := containsAnyPhrase(s, a.pat.Negative)
	switch {
	case pos && !neg:
		return polarityPositive
	case neg && !pos:
		return polarityNegative
	case containsAnyPhrase(s, a.pat.Instructional):
		return polarityInstructional
	}
	return polarityNeutral
}

func checkPredicateConsistency(a *article) domain.AuditRuleResult {
	title := a.polarityOf(a.title)
	if title != polarityPositive && title != polarityNegative {
		return pass(RulePredicateConsistency, "The title has no positive or negative predicate.")
	}
	var conflicts []string
	for _, s := range a.bodySections() {
		p := a.polarityOf(s.Heading)
		if (title == polarityPositive && p == polarityNegative) || (title == polarityNegative && p == polarityPositive) {
			conflicts = append(conflicts, s.Heading)
		}
	}
	if len(conflicts) > 0 {
		return fail(RulePredicateConsistency,
			fmt.Sprintf("%d subheadings contradict the predicate of the title: %s.", len(conflicts), strings.Join(conflicts, "; ")),
			a.headingLine(conflicts[0]),
			"Keep subheadings consistent with the title's predicate or move contrasting content to its own article.")
	}
	return pass(RulePredicateConsistency, "Subheadings follow the predicate of the title.")
}

func checkContentBalance(a *article) domain.AuditRuleResult {
	body := a.bodySections()
	if len(body) < 2 {
		return pass(RuleContentBalance, "Fewer than two body sections.")
	}
	total := 0
	counts := make([]int, len(body))
	for i, s := range body {
		counts[i] = s.WordCount()
		total += counts[i]
	}
	if total == 0 {
		return pass(RuleContentBalance, "Body sections are empty.")
	}
	for i, s := range body {
		share := ratio(counts[i], total)
		if share > a.th.MaxSectionShare {
			return fail(RuleContentBalance,
				fmt.Sprintf("Section %q holds %.0f%% of the body words.", s.Heading, share*100),
				a.headingLine(s.Heading),
				"Split the dominant section or expand the others so no section carries more than half of the content.")
		}
	}
	return pass(RuleContentBalance, fmt.Sprintf("%d body sections share %d words without dominance.", len(body), total))
}

func checkVocabularyRichness(a *article) domain.AuditRuleResult {
	if len(a.words) < a.th.MinWordsForTTR {
		return pass(RuleVocabularyRichness, fmt.Sprintf("Skipped: fewer than %d words.", a.th.MinWordsForTTR))
	}
	unique := make(map[string]struct{}, len(a.words))
	for _, w := range a.words {
		unique[strings.ToLower(w)] = struct{}{}
	}
	ttr := ratio(len(unique), len(a.words))
	details := fmt.Sprintf("Type-token ratio is %.2f (%d unique of %d words).", ttr, len(unique), len(a.words))
	if ttr < a.th.MinTypeTokenRatio {
		return scored(fail(RuleVocabularyRichness, details, "", "Vary vocabulary and remove repeated phrasing."), pct(ttr))
	}
	return scored(pass(RuleVocabularyRichness, details), pct(ttr))
}
