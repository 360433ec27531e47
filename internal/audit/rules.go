package audit

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"articleforge/internal/domain"
	"articleforge/internal/markdown"
)

// Rule names. They are the stable identifiers stored in audit results and
// used by the auto-fix tables.
const (
	RuleModality             = "Modality Certainty"
	RuleStopWordDensity      = "Stop Word Density"
	RuleOpeningFiller        = "Opening Filler Words"
	RuleSubjectPositioning   = "Subject Positioning"
	RuleHeadingHierarchy     = "Heading Hierarchy"
	RuleGenericHeadings      = "Generic Headings"
	RulePassiveVoice         = "Passive Voice"
	RuleHeadingEntity        = "Heading Entity Alignment"
	RuleFactualTense         = "Factual Tense"
	RuleListCount            = "List Count Specificity"
	RulePronounDensity       = "Pronoun Density"
	RuleLinkPosition         = "Link Positioning"
	RuleFirstSentence        = "First Sentence Precision"
	RuleCenterpiece          = "Centerpiece Annotation"
	RuleRepetitiveEntity     = "Repetitive Entity Sentences"
	RuleLLMSignatures        = "LLM Signature Phrases"
	RulePredicateConsistency = "Predicate Consistency"
	RuleContentBalance       = "Content Length Balance"
	RuleVocabularyRichness   = "Vocabulary Richness"
	RuleMacroMicroBorder     = "Macro/Micro Border"
	RuleIntroCoverage        = "Introduction Coverage"
	RuleQueryFormat          = "Query Format Alignment"
	RuleAnchorRepetition     = "Anchor Text Repetition"
	RuleAnchorQuality        = "Annotation Text Quality"
	RuleIntroLinks           = "Introduction Links"
	RuleProseBalance         = "Prose Structure Balance"
	RuleListDefinition       = "List Definition Sentence"
	RuleTableColumns         = "Table Appropriateness"
	RuleImagePlacement       = "Image Placement"
	RuleSentenceLength       = "Sentence Length"
	RuleFactualDensity       = "EAV Density"
	RuleBridgeCoverage       = "Contextual Bridge Coverage"
	RuleFormatCompliance     = "Format Code Compliance"
	RuleRequiredSections     = "Required Sections"
	RuleZoneBalance          = "Content Zone Balance"
)

// RuleCount is the number of rules in the stock engine.
const RuleCount = 35

type rule struct {
	name  string
	check func(*article) domain.AuditRuleResult
}

type phase struct {
	name  string
	rules []rule
}

func rulePhases() []phase {
	return []phase{
		{name: "language", rules: []rule{
			{RuleModality, checkModality},
			{RuleStopWordDensity, checkStopWordDensity},
			{RuleOpeningFiller, checkOpeningFiller},
			{RuleSubjectPositioning, checkSubjectPositioning},
			{RuleHeadingHierarchy, checkHeadingHierarchy},
			{RuleGenericHeadings, checkGenericHeadings},
			{RulePassiveVoice, checkPassiveVoice},
			{RuleHeadingEntity, checkHeadingEntity},
			{RuleFactualTense, checkFactualTense},
			{RuleListCount, checkListCount},
			{RulePronounDensity, checkPronounDensity},
			{RuleLinkPosition, checkLinkPosition},
			{RuleFirstSentence, checkFirstSentence},
			{RuleCenterpiece, checkCenterpiece},
			{RuleRepetitiveEntity, checkRepetitiveEntity},
			{RuleLLMSignatures, checkLLMSignatures},
			{RulePredicateConsistency, checkPredicateConsistency},
			{RuleContentBalance, checkContentBalance},
			{RuleVocabularyRichness, checkVocabularyRichness},
		}},
		{name: "structure", rules: []rule{
			{RuleMacroMicroBorder, checkMacroMicroBorder},
			{RuleIntroCoverage, checkIntroCoverage},
			{RuleQueryFormat, checkQueryFormat},
		}},
		{name: "links", rules: []rule{
			{RuleAnchorRepetition, checkAnchorRepetition},
			{RuleAnchorQuality, checkAnchorQuality},
			{RuleIntroLinks, checkIntroLinks},
		}},
		{name: "format", rules: []rule{
			{RuleProseBalance, checkProseBalance},
			{RuleListDefinition, checkListDefinition},
			{RuleTableColumns, checkTableColumns},
			{RuleImagePlacement, checkImagePlacement},
			{RuleSentenceLength, checkSentenceLength},
			{RuleFactualDensity, checkFactualDensity},
			{RuleBridgeCoverage, checkBridgeCoverage},
		}},
		{name: "template", rules: []rule{
			{RuleFormatCompliance, checkFormatCompliance},
			{RuleRequiredSections, checkRequiredSections},
			{RuleZoneBalance, checkZoneBalance},
		}},
	}
}

// RuleNames lists every rule in evaluation order.
func RuleNames() []string {
	var out []string
	for _, ph := range rulePhases() {
		for _, r := range ph.rules {
			out = append(out, r.name)
		}
	}
	return out
}

func pass(name, details string) domain.AuditRuleResult {
	return domain.AuditRuleResult{RuleName: name, IsPassing: true, Details: details}
}

func fail(name, details, snippet, remediation string) domain.AuditRuleResult {
	return domain.AuditRuleResult{
		RuleName:            name,
		Details:             details,
		AffectedTextSnippet: strings.TrimSpace(snippet),
		Remediation:         remediation,
	}
}

func scored(r domain.AuditRuleResult, score int) domain.AuditRuleResult {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	r.Score = &score
	return r
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func pct(f float64) int {
	return int(math.Round(f * 100))
}

func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// normalize folds case and collapses everything but letters and digits to
// single spaces.
func normalize(s string) string {
	folded := cases.Fold().String(s)
	return strings.Join(strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}

func containsAnyPhrase(text string, phrases []string) bool {
	for _, p := range phrases {
		if markdown.ContainsPhrase(text, p) {
			return true
		}
	}
	return false
}

func countPhrases(text string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		n += markdown.CountPhrase(text, p)
	}
	return n
}

func matchedPhrases(text string, phrases []string) []string {
	var out []string
	for _, p := range phrases {
		if markdown.ContainsPhrase(text, p) {
			out = append(out, p)
		}
	}
	return out
}

// significantTerms returns the normalized words of s that are not stop words.
func (p *Patterns) significantTerms(s string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(normalize(s)) {
		if utf8.RuneCountInString(w) < 3 || p.IsStopWord(w) {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

const stemRunes = 5

func stem(w string) string {
	return firstRunes(w, stemRunes)
}

// termIndex is a set of word stems for fuzzy term lookups.
type termIndex map[string]struct{}

func indexTerms(text string) termIndex {
	idx := make(termIndex)
	for _, w := range strings.Fields(normalize(text)) {
		idx[stem(w)] = struct{}{}
	}
	return idx
}

func (t termIndex) hasAny(terms []string) bool {
	for _, term := range terms {
		if _, ok := t[stem(term)]; ok {
			return true
		}
	}
	return false
}

func hasCount(sentence string, countWords []string) bool {
	for _, r := range sentence {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return containsAnyPhrase(sentence, countWords)
}

func lastSentence(text string) string {
	sentences := markdown.SplitSentences(text)
	if len(sentences) == 0 {
		return ""
	}
	return sentences[len(sentences)-1]
}
