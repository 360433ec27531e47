// Package analysis derives whole-draft metrics and the per-pass format
// budget from current section content. Nothing here is persisted.
package analysis

import (
	"fmt"
	"strings"

	"articleforge/internal/domain"
	"articleforge/internal/markdown"
)

// SectionStats are per-section metrics.
type SectionStats struct {
	Key            string
	Heading        string
	Words          int
	Sentences      int
	EntityMentions int
	HasList        bool
	HasTable       bool
	HasImage       bool
}

// HolisticSummary describes the whole draft as it stands at the start of a pass.
type HolisticSummary struct {
	TotalWords        int
	UniqueWords       int
	TypeTokenRatio    float64
	EntityMentions    int
	EntityProminence  float64
	AvgSentenceLength float64
	ListCount         int
	TableCount        int
	ImageCount        int
	Headings          []string
	Sections          []SectionStats

	byKey map[string]int
}

// BuildSummary computes the summary from sections in the given order.
func BuildSummary(sections []domain.Section, entity string) HolisticSummary {
	summary := HolisticSummary{byKey: make(map[string]int, len(sections))}
	vocabulary := make(map[string]struct{})
	sentences := 0

	for _, sec := range sections {
		doc := markdown.Parse(sec.CurrentContent)
		plain := doc.PlainText()
		words := markdown.Words(plain)
		stats := SectionStats{
			Key:       sec.Key,
			Heading:   sec.Heading,
			Words:     len(words),
			Sentences: len(markdown.SplitSentences(doc.ProseText())),
			HasList:   len(doc.BlocksOf(markdown.BlockList, markdown.BlockOrderedList)) > 0,
			HasTable:  len(doc.BlocksOf(markdown.BlockTable)) > 0,
			HasImage:  len(doc.Images()) > 0,
		}
		if entity != "" {
			stats.EntityMentions = markdown.CountPhrase(plain, entity)
		}
		for _, w := range words {
			vocabulary[strings.ToLower(w)] = struct{}{}
		}

		summary.TotalWords += stats.Words
		summary.EntityMentions += stats.EntityMentions
		summary.ListCount += len(doc.BlocksOf(markdown.BlockList, markdown.BlockOrderedList))
		summary.TableCount += len(doc.BlocksOf(markdown.BlockTable))
		summary.ImageCount += len(doc.Images())
		sentences += stats.Sentences

		summary.Headings = append(summary.Headings, sec.Heading)
		summary.byKey[sec.Key] = len(summary.Sections)
		summary.Sections = append(summary.Sections, stats)
	}

	summary.UniqueWords = len(vocabulary)
	if summary.TotalWords > 0 {
		summary.TypeTokenRatio = float64(summary.UniqueWords) / float64(summary.TotalWords)
		summary.EntityProminence = 100 * float64(summary.EntityMentions) / float64(summary.TotalWords)
	}
	if sentences > 0 {
		summary.AvgSentenceLength = float64(summary.TotalWords) / float64(sentences)
	}
	return summary
}

// Section returns the stats for key.
func (h HolisticSummary) Section(key string) (SectionStats, bool) {
	i, ok := h.byKey[key]
	if !ok {
		return SectionStats{}, false
	}
	return h.Sections[i], true
}

// Digest renders the summary as a compact block for prompts.
func (h HolisticSummary) Digest() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Article so far: %d words across %d sections.\n", h.TotalWords, len(h.Sections))
	fmt.Fprintf(&b, "Vocabulary diversity (type-token ratio): %.2f. Average sentence length: %.1f words.\n", h.TypeTokenRatio, h.AvgSentenceLength)
	fmt.Fprintf(&b, "Central entity mentions: %d (%.1f per 100 words).\n", h.EntityMentions, h.EntityProminence)
	fmt.Fprintf(&b, "Structured elements: %d lists, %d tables, %d images.\n", h.ListCount, h.TableCount, h.ImageCount)
	if len(h.Headings) > 0 {
		b.WriteString("Section headings: ")
		b.WriteString(strings.Join(h.Headings, " | "))
		b.WriteByte('\n')
	}
	return b.String()
}
