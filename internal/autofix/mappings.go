// Package autofix turns failing audit results into typed issues and repairs
// them with targeted generation calls.
package autofix

import (
	"strings"

	"github.com/google/uuid"

	"articleforge/internal/audit"
	"articleforge/internal/domain"
)

var issueTypes = map[string]domain.IssueType{
	audit.RuleModality:             domain.IssueWeakLanguage,
	audit.RuleStopWordDensity:      domain.IssueFillerContent,
	audit.RuleOpeningFiller:        domain.IssueFillerContent,
	audit.RuleSubjectPositioning:   domain.IssueWeakLanguage,
	audit.RuleHeadingHierarchy:     domain.IssueHeadingQuality,
	audit.RuleGenericHeadings:      domain.IssueHeadingQuality,
	audit.RulePassiveVoice:         domain.IssueWeakLanguage,
	audit.RuleHeadingEntity:        domain.IssueHeadingQuality,
	audit.RuleFactualTense:         domain.IssueWeakLanguage,
	audit.RuleListCount:            domain.IssueNoLists,
	audit.RulePronounDensity:       domain.IssueWeakLanguage,
	audit.RuleLinkPosition:         domain.IssueBrokenLink,
	audit.RuleFirstSentence:        domain.IssueWeakLanguage,
	audit.RuleCenterpiece:          domain.IssueMissingDefinition,
	audit.RuleRepetitiveEntity:     domain.IssueMissingTransition,
	audit.RuleLLMSignatures:        domain.IssueFillerContent,
	audit.RulePredicateConsistency: domain.IssueHeadingQuality,
	audit.RuleContentBalance:       domain.IssueSectionTooLong,
	audit.RuleVocabularyRichness:   domain.IssueWeakLanguage,
	audit.RuleMacroMicroBorder:     domain.IssueBrokenLink,
	audit.RuleIntroCoverage:        domain.IssueWeakIntro,
	audit.RuleQueryFormat:          domain.IssueFormatMismatch,
	audit.RuleAnchorRepetition:     domain.IssueBrokenLink,
	audit.RuleAnchorQuality:        domain.IssueBrokenLink,
	audit.RuleIntroLinks:           domain.IssueWeakIntro,
	audit.RuleProseBalance:         domain.IssueFormatMismatch,
	audit.RuleListDefinition:       domain.IssueNoLists,
	audit.RuleTableColumns:         domain.IssueFormatMismatch,
	audit.RuleImagePlacement:       domain.IssueMissingImage,
	audit.RuleSentenceLength:       domain.IssuePoorFlow,
	audit.RuleFactualDensity:       domain.IssueMissingDefinition,
	audit.RuleBridgeCoverage:       domain.IssueBrokenLink,
	audit.RuleFormatCompliance:     domain.IssueFormatMismatch,
	audit.RuleRequiredSections:     domain.IssueMissingHeading,
	audit.RuleZoneBalance:          domain.IssuePoorFlow,
}

var severities = map[string]domain.Severity{
	audit.RuleModality:             domain.SeverityWarning,
	audit.RuleStopWordDensity:      domain.SeveritySuggestion,
	audit.RuleOpeningFiller:        domain.SeverityWarning,
	audit.RuleSubjectPositioning:   domain.SeveritySuggestion,
	audit.RuleHeadingHierarchy:     domain.SeverityCritical,
	audit.RuleGenericHeadings:      domain.SeverityWarning,
	audit.RulePassiveVoice:         domain.SeveritySuggestion,
	audit.RuleHeadingEntity:        domain.SeverityWarning,
	audit.RuleFactualTense:         domain.SeveritySuggestion,
	audit.RuleListCount:            domain.SeverityWarning,
	audit.RulePronounDensity:       domain.SeveritySuggestion,
	audit.RuleLinkPosition:         domain.SeveritySuggestion,
	audit.RuleFirstSentence:        domain.SeverityWarning,
	audit.RuleCenterpiece:          domain.SeverityCritical,
	audit.RuleRepetitiveEntity:     domain.SeveritySuggestion,
	audit.RuleLLMSignatures:        domain.SeverityWarning,
	audit.RulePredicateConsistency: domain.SeveritySuggestion,
	audit.RuleContentBalance:       domain.SeverityWarning,
	audit.RuleVocabularyRichness:   domain.SeveritySuggestion,
	audit.RuleMacroMicroBorder:     domain.SeveritySuggestion,
	audit.RuleIntroCoverage:        domain.SeverityCritical,
	audit.RuleQueryFormat:          domain.SeverityCritical,
	audit.RuleAnchorRepetition:     domain.SeveritySuggestion,
	audit.RuleAnchorQuality:        domain.SeverityWarning,
	audit.RuleIntroLinks:           domain.SeveritySuggestion,
	audit.RuleProseBalance:         domain.SeverityWarning,
	audit.RuleListDefinition:       domain.SeverityWarning,
	audit.RuleTableColumns:         domain.SeveritySuggestion,
	audit.RuleImagePlacement:       domain.SeveritySuggestion,
	audit.RuleSentenceLength:       domain.SeveritySuggestion,
	audit.RuleFactualDensity:       domain.SeveritySuggestion,
	audit.RuleBridgeCoverage:       domain.SeverityWarning,
	audit.RuleFormatCompliance:     domain.SeverityWarning,
	audit.RuleRequiredSections:     domain.SeverityCritical,
	audit.RuleZoneBalance:          domain.SeveritySuggestion,
}

// IssueTypeFor maps a rule name to its issue category.
func IssueTypeFor(rule string) domain.IssueType {
	if t, ok := issueTypes[rule]; ok {
		return t
	}
	return domain.IssuePoorFlow
}

// SeverityFor maps a rule name to its severity.
func SeverityFor(rule string) domain.Severity {
	if s, ok := severities[rule]; ok {
		return s
	}
	return domain.SeveritySuggestion
}

var conclusionWords = []string{"conclusion", "conclusie", "summary", "samenvatting", "tot slot"}

// ConvertToAuditIssues turns every failing result into one issue against
// draft. Only issues whose snippet occurs in draft, or that describe absent
// content, are marked auto-fixable.
func ConvertToAuditIssues(draft string, results []domain.AuditRuleResult) []domain.AuditIssue {
	var issues []domain.AuditIssue
	for _, r := range results {
		if r.IsPassing {
			continue
		}
		issueType := IssueTypeFor(r.RuleName)
		description, snippet := r.Details, r.AffectedTextSnippet
		// Missing sections have no text in the draft to replace.
		if issueType == domain.IssueMissingHeading {
			names := missingNames(snippet)
			if len(names) == 1 && mentionsAny(names[0], conclusionWords) {
				issueType = domain.IssueMissingConclusion
			}
			if len(names) > 0 {
				description += " Missing: " + strings.Join(names, "; ") + "."
			}
			snippet = ""
		}
		issues = append(issues, domain.AuditIssue{
			ID:             uuid.NewString(),
			RuleName:       r.RuleName,
			Type:           issueType,
			Severity:       SeverityFor(r.RuleName),
			Description:    description,
			CurrentContent: snippet,
			SuggestedFix:   r.Remediation,
			AutoFixable:    autoFixable(issueType, snippet, draft),
		})
	}
	return issues
}

func missingNames(snippet string) []string {
	var names []string
	for _, name := range strings.Split(snippet, audit.MissingSeparator) {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// autoFixable reports whether ApplyAutoFix can place a fix: the snippet must
// occur in draft, exactly or ignoring case, or the issue type must have a
// structural insertion.
func autoFixable(t domain.IssueType, snippet, draft string) bool {
	if strings.TrimSpace(snippet) != "" {
		return findSnippet(draft, snippet) != nil
	}
	switch t {
	case domain.IssueMissingHeading, domain.IssueMissingConclusion, domain.IssueMissingImage:
		return true
	}
	return false
}

func mentionsAny(s string, words []string) bool {
	lower := strings.ToLower(s)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
