package markdown

import (
	"regexp"
	"strings"
)

// inlineMarkup matches the syntax inlineText drops between words: emphasis
// and code markers, link brackets with their targets, and inline HTML tags.
const inlineMarkup = "(?:[*_~`]|\\]\\([^)\\s]*\\)|\\[|<[^>\\n]*>)"

// Raw returns the source text of b, for a heading the full "## Title" line.
func (d *Document) Raw(b Block) string {
	if b.Start < 0 || b.End > len(d.Source) || b.Start >= b.End {
		return ""
	}
	return strings.TrimSpace(d.Source[b.Start:b.End])
}

// Locate maps plain text produced by the parser back to the source span it
// came from, markup included. It reports false when text does not occur in
// the source.
func (d *Document) Locate(text string) (string, bool) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", false
	}
	if strings.Contains(d.Source, text) {
		return text, true
	}
	re, err := regexp.Compile(locatePattern(text))
	if err != nil {
		return "", false
	}
	loc := re.FindStringIndex(d.Source)
	if loc == nil {
		return "", false
	}
	return d.Source[loc[0]:loc[1]], true
}

func locatePattern(text string) string {
	var b strings.Builder
	b.WriteString("(?:[*_~`\\[])*")
	prevSpace := true
	for _, r := range text {
		if r == ' ' {
			b.WriteString("(?:\\s|" + inlineMarkup + ")+")
			prevSpace = true
			continue
		}
		if !prevSpace {
			b.WriteString(inlineMarkup + "*")
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
		prevSpace = false
	}
	b.WriteString("(?:[*_~`]|\\]\\([^)\\s]*\\))*")
	return b.String()
}
