package domain

import "time"

// AuditRuleResult is the verdict of one audit rule.
type AuditRuleResult struct {
	RuleName            string `json:"ruleName"`
	IsPassing           bool   `json:"isPassing"`
	Details             string `json:"details"`
	AffectedTextSnippet string `json:"affectedTextSnippet,omitempty"`
	Remediation         string `json:"remediation,omitempty"`
	Score               *int   `json:"score,omitempty"`
}

// Severity ranks audit issues.
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
)

// Rank orders severities for fix processing; lower is processed first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// IssueType classifies a failing rule for targeted repair.
type IssueType string

const (
	IssueMissingHeading    IssueType = "missing_heading"
	IssueWeakIntro         IssueType = "weak_intro"
	IssueNoLists           IssueType = "no_lists"
	IssuePoorFlow          IssueType = "poor_flow"
	IssueBrokenLink        IssueType = "broken_link"
	IssueMissingImage      IssueType = "missing_image"
	IssueSectionTooLong    IssueType = "section_too_long"
	IssueMissingTransition IssueType = "missing_transition"
	IssueWeakLanguage      IssueType = "weak_language"
	IssueFillerContent     IssueType = "filler_content"
	IssueHeadingQuality    IssueType = "heading_quality"
	IssueMissingConclusion IssueType = "missing_conclusion"
	IssueFormatMismatch    IssueType = "format_mismatch"
	IssueMissingDefinition IssueType = "missing_definition"
)

// AuditIssue is a failing rule translated into a unit of repair work.
type AuditIssue struct {
	ID             string    `json:"id"`
	RuleName       string    `json:"ruleName"`
	Type           IssueType `json:"type"`
	Severity       Severity  `json:"severity"`
	Description    string    `json:"description"`
	CurrentContent string    `json:"currentContent,omitempty"`
	SuggestedFix   string    `json:"suggestedFix,omitempty"`
	AutoFixable    bool      `json:"autoFixable"`
	FixApplied     bool      `json:"fixApplied"`
}

// AuditReport is persisted as a job's audit_details.
type AuditReport struct {
	Score     int               `json:"score"`
	Results   []AuditRuleResult `json:"results"`
	Issues    []AuditIssue      `json:"issues"`
	Language  string            `json:"language"`
	AuditedAt time.Time         `json:"audited_at"`
}
