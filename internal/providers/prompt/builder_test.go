package prompt

import (
	"strings"
	"testing"

	"articleforge/internal/domain"
)

func testArticle() Article {
	return Article{Title: "Solar panels for homes", Entity: "solar panels", Language: "en", Headings: []string{"Introduction", "Costs", "Types"}}
}

func TestDraftCarriesConventions(t *testing.T) {
	req := Builder{}.Draft(DraftInput{
		Article:     testArticle(),
		Section:     Section{Key: "costs", Heading: "Costs", Format: domain.FormatTable},
		Discourse:   Discourse{LastSentence: "Panels last 25 years.", Subject: "panels", Predicate: "last"},
		TargetWords: 300,
		Fixes:       []string{"first sentence hedges"},
	})
	for _, want := range []string{
		"Article title: Solar panels for homes",
		"Central entity: solar panels",
		"Section heading: Costs",
		"markdown table",
		"about 300 words",
		`"Panels last 25 years."`,
		"- first sentence hedges",
	} {
		if !strings.Contains(req.Prompt, want) {
			t.Fatalf("draft prompt missing %q:\n%s", want, req.Prompt)
		}
	}
	if req.System == "" {
		t.Fatal("expected a system prompt")
	}
}

func TestRewriteWrapsContent(t *testing.T) {
	req := Builder{}.Lists(testArticle(), Section{Key: "types", Heading: "Types", Content: "Mono, poly and thin-film.\n"})
	if !strings.Contains(req.Prompt, "<<<CONTENT\nMono, poly and thin-film.\nCONTENT>>>") {
		t.Fatalf("content block missing:\n%s", req.Prompt)
	}
}

func TestIntroductionListsOtherHeadings(t *testing.T) {
	req := Builder{}.Introduction(testArticle(), Section{Key: "intro", Heading: "Introduction", Content: "Old intro."})
	if !strings.Contains(req.Prompt, "Costs; Types") {
		t.Fatalf("expected heading preview list:\n%s", req.Prompt)
	}
	if strings.Contains(req.Prompt, "Introduction; ") {
		t.Fatalf("intro heading should not preview itself:\n%s", req.Prompt)
	}
}

func TestBatchDelimitsSections(t *testing.T) {
	req := Builder{}.Batch(5, testArticle(), []Section{
		{Key: "costs", Heading: "Costs", Content: "Costs text."},
		{Key: "types", Heading: "Types", Content: "Types text."},
	})
	for _, want := range []string{"[SECTION:costs]", "[/SECTION:costs]", "[SECTION:types]", "Heading: Types", "definitive"} {
		if !strings.Contains(req.Prompt, want) {
			t.Fatalf("batch prompt missing %q:\n%s", want, req.Prompt)
		}
	}
}

func TestAutoFixPrompt(t *testing.T) {
	issue := domain.AuditIssue{
		RuleName:       "Generic Headings",
		Type:           domain.IssueHeadingQuality,
		Severity:       domain.SeverityWarning,
		Description:    "1 generic headings found.",
		CurrentContent: "Overview",
	}
	req := Builder{}.AutoFix(issue, testArticle(), "## Overview\n\nText")
	for _, want := range []string{"Audit rule: Generic Headings", "rewrite the heading", "<<<CONTENT\nOverview\nCONTENT>>>"} {
		if !strings.Contains(req.Prompt, want) {
			t.Fatalf("autofix prompt missing %q:\n%s", want, req.Prompt)
		}
	}
}

func TestArticleFrom(t *testing.T) {
	brief := domain.ContentBrief{
		Title:           "Heat pumps",
		FeaturedSnippet: &domain.FeaturedSnippet{Question: "What is a heat pump?"},
		StructuredOutline: []domain.SectionDefinition{
			{Key: "b", Heading: "Second", Order: 2},
			{Key: "a", Heading: "First", Order: 1},
		},
	}
	a := ArticleFrom(brief, domain.BusinessContext{CentralEntity: "heat pump", Tone: "plain"}, "nl")
	if a.Entity != "heat pump" || a.Language != "nl" || a.Tone != "plain" {
		t.Fatalf("unexpected article context: %+v", a)
	}
	if strings.Join(a.Headings, ",") != "First,Second" {
		t.Fatalf("Headings = %v, want outline order", a.Headings)
	}
	if a.SnippetQuestion != "What is a heat pump?" {
		t.Fatalf("SnippetQuestion = %q", a.SnippetQuestion)
	}
}
