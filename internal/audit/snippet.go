package audit

import (
	"strings"

	"articleforge/internal/domain"
)

// MissingSeparator joins the names of absent template sections in the
// snippet of a Required Sections failure.
const MissingSeparator = "\n"

// verbatim pins the snippet of a failing result to the exact draft text it
// was derived from, markup included, so a fix can replace it in place.
// Snippets that cannot be found in the draft move into the details.
func (a *article) verbatim(r domain.AuditRuleResult) domain.AuditRuleResult {
	if r.IsPassing || r.AffectedTextSnippet == "" || r.RuleName == RuleRequiredSections {
		return r
	}
	if span, ok := a.doc.Locate(r.AffectedTextSnippet); ok {
		r.AffectedTextSnippet = span
		return r
	}
	r.Details = strings.TrimSpace(r.Details + " Affected text: " + r.AffectedTextSnippet)
	r.AffectedTextSnippet = ""
	return r
}

// headingLine returns the source line of the first heading titled text.
func (a *article) headingLine(text string) string {
	for _, h := range a.doc.Headings() {
		if h.Text == text {
			return a.doc.Raw(h)
		}
	}
	return text
}

func firstSentenceWith(sentences, phrases []string) string {
	for _, s := range sentences {
		if containsAnyPhrase(s, phrases) {
			return s
		}
	}
	return ""
}
