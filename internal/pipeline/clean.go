package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"articleforge/internal/domain"
	"articleforge/internal/providers/textgen"
)

var (
	blankRuns       = regexp.MustCompile(`\n{3,}`)
	delimiterLine   = regexp.MustCompile(`(?m)^\s*\[/?SECTION:[^\]]*\]\s*$`)
	leadingHeading  = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)
	batchHeadingCut = regexp.MustCompile(`(?m)^#{1,2}\s+.+$`)
)

// CleanContent normalizes model output. It returns false when nothing usable
// is left, including output that consists only of headings.
func CleanContent(text string) (string, bool) {
	text = textgen.TrimCodeFence(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = delimiterLine.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	body := false
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
		trimmed := strings.TrimSpace(lines[i])
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			body = true
		}
	}
	text = strings.TrimSpace(blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
	if text == "" || !body {
		return "", false
	}
	return text, true
}

// splitLeadingHeading separates a leading markdown heading from the body.
func splitLeadingHeading(text string) (heading, body string) {
	text = strings.TrimLeft(textgen.TrimCodeFence(text), "\n")
	first, rest, _ := strings.Cut(text, "\n")
	m := leadingHeading.FindStringSubmatch(strings.TrimSpace(first))
	if m == nil {
		return "", text
	}
	return strings.TrimSpace(m[2]), rest
}

// ParseBatchResponse maps a batch response onto section keys. Delimited
// fragments are preferred; a single-section batch takes the whole response;
// otherwise the response is split on headings and paired positionally, and
// delimited reports false.
func ParseBatchResponse(resp string, keys []string) (fragments map[string]string, delimited bool) {
	fragments = make(map[string]string, len(keys))
	for _, key := range keys {
		re := regexp.MustCompile(`(?s)\[SECTION:\s*` + regexp.QuoteMeta(key) + `\s*\](.*?)\[/SECTION:\s*` + regexp.QuoteMeta(key) + `\s*\]`)
		if m := re.FindStringSubmatch(resp); m != nil {
			fragments[key] = strings.TrimSpace(m[1])
		}
	}
	if len(fragments) > 0 {
		return fragments, true
	}
	if len(keys) == 1 {
		fragments[keys[0]] = strings.TrimSpace(resp)
		return fragments, false
	}

	var parts []string
	idx := batchHeadingCut.FindAllStringIndex(resp, -1)
	for i, loc := range idx {
		end := len(resp)
		if i+1 < len(idx) {
			end = idx[i+1][0]
		}
		if part := strings.TrimSpace(resp[loc[1]:end]); part != "" {
			parts = append(parts, part)
		}
	}
	for i := 0; i < len(parts) && i < len(keys); i++ {
		fragments[keys[i]] = parts[i]
	}
	return fragments, false
}

// AssembleDraft renders the article: the title as H1, then each section with
// content under a heading at its level.
func AssembleDraft(title string, sections []domain.Section) string {
	var b strings.Builder
	if t := strings.TrimSpace(title); t != "" {
		fmt.Fprintf(&b, "# %s\n\n", t)
	}
	for _, s := range sections {
		content := strings.TrimSpace(s.CurrentContent)
		if content == "" {
			continue
		}
		level := s.Level
		if level < 2 || level > 6 {
			level = 2
		}
		fmt.Fprintf(&b, "%s %s\n\n%s\n\n", strings.Repeat("#", level), strings.TrimSpace(s.Heading), content)
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return ""
	}
	return out + "\n"
}
