package pipeline

import (
	"articleforge/internal/analysis"
	"articleforge/internal/domain"
	"articleforge/internal/providers/prompt"
	"articleforge/internal/providers/textgen"
)

// selection is one section chosen for a pass, with an optional note that is
// passed to the prompt.
type selection struct {
	Key  string
	Note string
	Auto bool
}

// PassConfig describes one rewrite pass.
type PassConfig struct {
	Number int
	Key    domain.PassKey
	Name   string

	Prompt func(b prompt.Builder, a prompt.Article, s prompt.Section) textgen.Request

	// Batchable passes may combine sections into one request.
	Batchable bool
	// IntroOnly passes process just the introduction section.
	IntroOnly bool
	// UpdatesHeading passes may replace the section heading.
	UpdatesHeading bool
	// Select narrows the sections the pass touches; nil means all.
	Select func(b analysis.FormatBudget, brief domain.ContentBrief) []selection
}

// RewritePasses holds passes 2 to 7 by number.
var RewritePasses = map[int]PassConfig{
	2: {
		Number: 2, Key: domain.PassHeaders, Name: "headers",
		Prompt:         prompt.Builder.Headers,
		UpdatesHeading: true,
	},
	3: {
		Number: 3, Key: domain.PassLists, Name: "lists",
		Prompt:    prompt.Builder.Lists,
		Batchable: true,
		Select:    selectStructure,
	},
	4: {
		Number: 4, Key: domain.PassVisuals, Name: "visuals",
		Prompt: prompt.Builder.Visuals,
		Select: selectImages,
	},
	5: {
		Number: 5, Key: domain.PassMicroSemantics, Name: "microsemantics",
		Prompt:    prompt.Builder.MicroSemantics,
		Batchable: true,
	},
	6: {
		Number: 6, Key: domain.PassDiscourse, Name: "discourse",
		Prompt:    prompt.Builder.Discourse,
		Batchable: true,
		Select:    selectDiscourse,
	},
	7: {
		Number: 7, Key: domain.PassIntro, Name: "introduction",
		Prompt:    prompt.Builder.Introduction,
		IntroOnly: true,
	},
}

// selectStructure picks list and table candidates in section order.
func selectStructure(b analysis.FormatBudget, _ domain.ContentBrief) []selection {
	want := make(map[string]string)
	for _, k := range b.ListCandidates() {
		want[k] = "list"
	}
	for _, k := range b.TableCandidates() {
		if _, ok := want[k]; !ok {
			want[k] = "table"
		}
	}
	var out []selection
	for _, s := range b.Sections {
		if note, ok := want[s.Key]; ok {
			out = append(out, selection{Key: s.Key, Note: note})
		}
	}
	return out
}

func selectImages(b analysis.FormatBudget, brief domain.ContentBrief) []selection {
	picks := b.ImageCandidates(brief)
	out := make([]selection, 0, len(picks))
	for _, p := range picks {
		out = append(out, selection{Key: p.Key, Note: p.Justification, Auto: p.Tier == analysis.TierAutoJustified})
	}
	return out
}

func selectDiscourse(b analysis.FormatBudget, _ domain.ContentBrief) []selection {
	keys := b.DiscourseCandidates()
	out := make([]selection, 0, len(keys))
	for _, k := range keys {
		out = append(out, selection{Key: k})
	}
	return out
}
