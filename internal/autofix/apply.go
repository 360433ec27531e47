package autofix

import (
	"regexp"
	"strings"

	"articleforge/internal/domain"
	"articleforge/internal/markdown"
)

// Method records how a fix was placed into the draft.
type Method string

const (
	MethodExact           Method = "exact"
	MethodCaseInsensitive Method = "case_insensitive"
	MethodPrependHeading  Method = "prepend_heading"
	MethodAppendSection   Method = "append_section"
	MethodInsertImage     Method = "insert_after_first_paragraph"
	MethodNone            Method = ""
)

// ApplyAutoFix places fix into draft. It tries an exact replacement of the
// recorded snippet, then a case-insensitive one, then, when no snippet was
// recorded, a structural insertion for the issue type. MethodNone means the
// issue needs manual intervention.
func ApplyAutoFix(draft string, issue domain.AuditIssue, fix string) (string, Method) {
	fix = strings.TrimSpace(fix)
	if fix == "" {
		return draft, MethodNone
	}
	snippet := issue.CurrentContent
	if strings.TrimSpace(snippet) != "" {
		replacement := matchShape(snippet, fix)
		if strings.Contains(draft, snippet) {
			return strings.Replace(draft, snippet, replacement, 1), MethodExact
		}
		if loc := findSnippet(draft, snippet); loc != nil {
			return draft[:loc[0]] + replacement + draft[loc[1]:], MethodCaseInsensitive
		}
		return draft, MethodNone
	}

	switch issue.Type {
	case domain.IssueMissingHeading:
		return ensureHeading(fix) + "\n\n" + strings.TrimLeft(draft, "\n"), MethodPrependHeading
	case domain.IssueMissingConclusion:
		return strings.TrimRight(draft, "\n") + "\n\n" + ensureHeading(fix) + "\n", MethodAppendSection
	case domain.IssueMissingImage:
		doc := markdown.Parse(draft)
		for _, b := range doc.Blocks {
			if b.Kind == markdown.BlockParagraph {
				return draft[:b.End] + "\n\n" + fix + draft[b.End:], MethodInsertImage
			}
		}
		return draft, MethodNone
	}
	return draft, MethodNone
}

// findSnippet returns the byte range of the first case-insensitive match of
// snippet in draft, or nil. Offsets index draft itself, so case mappings that
// change byte lengths cannot shift them.
func findSnippet(draft, snippet string) []int {
	if strings.TrimSpace(snippet) == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(snippet))
	if err != nil {
		return nil
	}
	return re.FindStringIndex(draft)
}

// matchShape keeps the heading markup of the snippet: bare heading text stays
// bare and a heading line keeps its marker when fix has none.
func matchShape(snippet, fix string) string {
	trimmed := strings.TrimSpace(snippet)
	if strings.HasPrefix(trimmed, "#") {
		if strings.HasPrefix(fix, "#") || strings.Contains(trimmed, "\n") {
			return fix
		}
		marker := trimmed[:len(trimmed)-len(strings.TrimLeft(trimmed, "#"))]
		return marker + " " + strings.TrimSpace(firstLine(fix))
	}
	if !strings.HasPrefix(fix, "#") {
		return fix
	}
	if strings.Contains(snippet, "\n") {
		return fix
	}
	return strings.TrimSpace(strings.TrimLeft(firstLine(fix), "#"))
}

func ensureHeading(fix string) string {
	if strings.HasPrefix(fix, "#") {
		return fix
	}
	return "## " + fix
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
