package textgen

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const ProviderStatic = "static"

var (
	staticSectionPattern = regexp.MustCompile(`\[SECTION:([^\]]+)\]`)
	staticHeadingPattern = regexp.MustCompile(`(?m)^(?:Section heading|Heading):\s*(.+)$`)
	staticTopicPattern   = regexp.MustCompile(`(?m)^(?:Article title|Title):\s*(.+)$`)
	staticEntityPattern  = regexp.MustCompile(`(?m)^Central entity:\s*(.+)$`)
	staticContentPattern = regexp.MustCompile(`(?s)<<<CONTENT\n(.*?)\nCONTENT>>>`)
)

// Static produces deterministic text from the prompt alone. It keeps the
// pipeline runnable offline and in tests, and is always registered last.
type Static struct{}

func NewStatic() *Static { return &Static{} }

func (s *Static) Name() string { return ProviderStatic }

func (s *Static) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	entity := firstMatch(staticEntityPattern, req.Prompt)
	topic := firstMatch(staticTopicPattern, req.Prompt)
	if entity == "" {
		entity = topic
	}
	if entity == "" {
		entity = "The subject"
	}

	// Batch prompts: echo each section's content back inside its delimiters.
	if keys := staticSectionPattern.FindAllStringSubmatch(req.Prompt, -1); len(keys) > 0 {
		contents := staticContentPattern.FindAllStringSubmatch(req.Prompt, -1)
		var b strings.Builder
		seen := map[string]bool{}
		idx := 0
		for _, k := range keys {
			key := strings.TrimSpace(k[1])
			if seen[key] || strings.ContainsAny(key, "<>") {
				continue
			}
			seen[key] = true
			body := staticParagraph(entity, key)
			if idx < len(contents) {
				body = strings.TrimSpace(contents[idx][1])
			}
			idx++
			fmt.Fprintf(&b, "[SECTION:%s]\n%s\n[/SECTION:%s]\n\n", key, body, key)
		}
		return strings.TrimSpace(b.String()), nil
	}

	// Rewrite prompts carry the current content; return it unchanged.
	if m := staticContentPattern.FindStringSubmatch(req.Prompt); m != nil && strings.TrimSpace(m[1]) != "" {
		return strings.TrimSpace(m[1]), nil
	}

	heading := firstMatch(staticHeadingPattern, req.Prompt)
	if heading == "" {
		heading = topic
	}
	return staticParagraph(entity, heading), nil
}

func staticParagraph(entity, heading string) string {
	heading = strings.TrimSpace(heading)
	if heading == "" {
		heading = "this topic"
	}
	return fmt.Sprintf("%s is the central subject of %s. %s delivers measurable value when applied with care. "+
		"This section explains %s with concrete facts and clear definitions.",
		entity, strings.ToLower(heading), entity, strings.ToLower(heading))
}

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

var _ Generator = (*Static)(nil)
