package autofix

import (
	"context"
	"sort"

	"articleforge/internal/domain"
	"articleforge/internal/providers/prompt"
)

// FixLog records the outcome of one issue in a batch.
type FixLog struct {
	IssueID  string          `json:"issue_id"`
	RuleName string          `json:"rule_name"`
	Severity domain.Severity `json:"severity"`
	Method   Method          `json:"method,omitempty"`
	Original string          `json:"original,omitempty"`
	Fix      string          `json:"fix,omitempty"`
	Reason   string          `json:"reason,omitempty"`
}

// BatchResult is the outcome of BatchApplyAutoFixes.
type BatchResult struct {
	Draft   string              `json:"draft"`
	Applied []FixLog            `json:"applied"`
	Failed  []FixLog            `json:"failed"`
	Issues  []domain.AuditIssue `json:"issues"`
}

const (
	reasonNotFixable = "not auto-fixable; requires manual intervention"
	reasonNoFix      = "fix generation returned nothing"
	reasonNoTarget   = "could not place fix in draft; requires manual intervention"
)

// SortBySeverity orders issues critical, warning, suggestion, keeping the
// input order within a severity.
func SortBySeverity(issues []domain.AuditIssue) []domain.AuditIssue {
	out := append([]domain.AuditIssue(nil), issues...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Severity.Rank() < out[j].Severity.Rank() })
	return out
}

// BatchApplyAutoFixes repairs issues one at a time in severity order. Every
// fix sees the draft as patched by the fixes before it. Failures are
// collected, never returned as errors.
func (f *Fixer) BatchApplyAutoFixes(ctx context.Context, draft string, issues []domain.AuditIssue, article prompt.Article) BatchResult {
	result := BatchResult{Draft: draft}
	for _, issue := range SortBySeverity(issues) {
		entry := FixLog{IssueID: issue.ID, RuleName: issue.RuleName, Severity: issue.Severity, Original: issue.CurrentContent}
		switch {
		case ctx.Err() != nil:
			entry.Reason = ctx.Err().Error()
		case !issue.AutoFixable:
			entry.Reason = reasonNotFixable
		default:
			fix := f.GenerateAutoFix(ctx, issue, result.Draft, article)
			if fix == "" {
				entry.Reason = reasonNoFix
				break
			}
			patched, method := ApplyAutoFix(result.Draft, issue, fix)
			if method == MethodNone {
				entry.Reason = reasonNoTarget
				entry.Fix = fix
				break
			}
			result.Draft = patched
			issue.FixApplied = true
			entry.Method = method
			entry.Fix = fix
		}
		if issue.FixApplied {
			f.logger.Info().Str("rule", issue.RuleName).Str("issue_id", issue.ID).Str("method", string(entry.Method)).Msg("auto-fix applied")
			result.Applied = append(result.Applied, entry)
		} else {
			f.logger.Warn().Str("rule", issue.RuleName).Str("issue_id", issue.ID).Str("reason", entry.Reason).Msg("auto-fix not applied")
			result.Failed = append(result.Failed, entry)
		}
		result.Issues = append(result.Issues, issue)
	}
	return result
}
