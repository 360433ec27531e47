// Package prompt builds the instruction text sent to the text generation
// service for every pass, for batched passes and for audit repairs.
package prompt

import (
	"fmt"
	"strings"

	"articleforge/internal/domain"
	"articleforge/internal/providers/textgen"
)

const systemPrompt = "You are a senior content writer producing factual, well-structured web articles in markdown. " +
	"Write declaratively, keep the central entity as the grammatical subject where natural, and never add commentary about your own output."

// Article is the article-wide context shared by every prompt.
type Article struct {
	Title           string
	MetaDescription string
	Entity          string
	Language        string
	Audience        string
	Tone            string
	Domain          string
	Headings        []string
	Summary         string
	SnippetQuestion string
	Bridges         []domain.ContextualBridge
}

// Section is the per-section context of a prompt.
type Section struct {
	Key         string
	Heading     string
	Level       int
	Hint        string
	Format      domain.FormatCode
	Content     string
	PrevExcerpt string
	NextExcerpt string
	Note        string
}

// Discourse carries the closing signal of the previously drafted section.
type Discourse struct {
	LastSentence string
	Subject      string
	Predicate    string
}

// DraftInput feeds the draft pass.
type DraftInput struct {
	Article     Article
	Section     Section
	Discourse   Discourse
	TargetWords int
	Fixes       []string
}

// Builder renders prompts. The zero value is ready to use.
type Builder struct{}

// Draft writes a section from its outline entry.
func (Builder) Draft(in DraftInput) textgen.Request {
	var b strings.Builder
	writeArticle(&b, in.Article)
	fmt.Fprintf(&b, "Section heading: %s\n", in.Section.Heading)
	if in.Section.Hint != "" {
		fmt.Fprintf(&b, "Required content: %s\n", in.Section.Hint)
	}
	if in.Section.Format != "" && in.Section.Format != domain.FormatProse {
		fmt.Fprintf(&b, "Preferred format: %s\n", formatLabel(in.Section.Format))
	}
	if in.TargetWords > 0 {
		fmt.Fprintf(&b, "Target length: about %d words.\n", in.TargetWords)
	}
	if in.Discourse.LastSentence != "" {
		fmt.Fprintf(&b, "The previous section ended with: %q\n", in.Discourse.LastSentence)
		if in.Discourse.Subject != "" {
			fmt.Fprintf(&b, "Continue the thread of %q", in.Discourse.Subject)
			if in.Discourse.Predicate != "" {
				fmt.Fprintf(&b, " (%s)", in.Discourse.Predicate)
			}
			b.WriteString(" so the opening sentence connects to it.\n")
		}
	}
	b.WriteString("\nWrite only the body of this section in markdown. Do not repeat the section heading. ")
	b.WriteString("Open with a precise, definitive first sentence that answers the heading. Use subheadings (###) only when the section needs them.\n")
	if len(in.Fixes) > 0 {
		b.WriteString("\nThe previous attempt had these problems; fix all of them:\n")
		for _, f := range in.Fixes {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	return textgen.Request{System: systemPrompt, Prompt: b.String(), Temperature: 0.7}
}

// Headers tightens headings and subheadings.
func (Builder) Headers(a Article, s Section) textgen.Request {
	return rewrite(a, s, fmt.Sprintf("Improve the headings of this section. Start your answer with the improved section heading as a level-%d markdown heading, then the section body. "+
		"Headings must be specific, contain a term of the central entity or topic, avoid generic labels such as \"Overview\" or \"More information\", "+
		"and subheadings must never skip a level. Keep the body text unchanged apart from subheading fixes.", levelOr2(s.Level)))
}

// Lists turns enumerations into structured lists.
func (Builder) Lists(a Article, s Section) textgen.Request {
	return rewrite(a, s, "Convert enumerations in this section into a markdown list (ordered when sequence matters). "+
		"Introduce every list with a complete sentence that states the exact item count and ends with a colon, for example \"The four options are:\". "+
		"Use a table instead only when comparing at least three attributes. Keep the remaining prose intact.")
}

// Visuals places an image placeholder.
func (Builder) Visuals(a Article, s Section) textgen.Request {
	instr := "Add one image placeholder to this section in the form [IMAGE: short description of a useful visual]. " +
		"Place it after the first paragraph, never directly below a heading. If the section already has an image, improve its description instead of adding another."
	if s.Note != "" {
		instr += " Reason for the image: " + s.Note + "."
	}
	return rewrite(a, s, instr)
}

// MicroSemantics rewrites sentences for precision.
func (Builder) MicroSemantics(a Article, s Section) textgen.Request {
	return rewrite(a, s, "Rewrite the sentences of this section for precision: replace hedging words (might, could, perhaps) with definitive statements, "+
		"prefer active voice, make the central entity the subject instead of a pronoun, remove filler words, avoid future tense for facts, "+
		"keep sentences under 30 words, and remove cliches such as \"in today's fast-paced world\" or \"delve into\". Keep structure, lists, tables and images.")
}

// Discourse adds a contextual bridge to the opening of a section.
func (Builder) Discourse(a Article, s Section) textgen.Request {
	return rewrite(a, s, "Rewrite only the opening sentence of this section so it connects to the end of the previous section "+
		"with a transition or a shared term, then leave the rest of the section unchanged.")
}

// Introduction rewrites the introduction after the full draft exists.
func (Builder) Introduction(a Article, s Section) textgen.Request {
	var headings []string
	for _, h := range a.Headings {
		if !strings.EqualFold(h, s.Heading) {
			headings = append(headings, h)
		}
	}
	instr := "Rewrite this introduction. The first sentence must define the central entity with \"is\" or \"are\". " +
		"Within the first 400 characters state what the central entity is. Then preview every section of the article by its key term, in order: " +
		strings.Join(headings, "; ") + ". Do not add links. Keep it to two short paragraphs."
	return rewrite(a, s, instr)
}

// Batch combines several sections into one request with explicit delimiters.
func (bld Builder) Batch(pass int, a Article, sections []Section) textgen.Request {
	var b strings.Builder
	writeArticle(&b, a)
	fmt.Fprintf(&b, "Task: %s\n\n", passInstruction(pass))
	b.WriteString("Process every section below independently. Answer with each rewritten section wrapped in the same delimiter lines it was given, ")
	b.WriteString("keeping the section keys exactly as they are. Do not include section headings inside the delimiters.\n\n")
	for _, s := range sections {
		fmt.Fprintf(&b, "[SECTION:%s]\nHeading: %s\n<<<CONTENT\n%s\nCONTENT>>>\n[/SECTION:%s]\n\n", s.Key, s.Heading, strings.TrimSpace(s.Content), s.Key)
	}
	return textgen.Request{System: systemPrompt, Prompt: b.String(), Temperature: 0.4}
}

// AutoFix asks for a targeted repair of one audit issue.
func (Builder) AutoFix(issue domain.AuditIssue, a Article, context string) textgen.Request {
	var b strings.Builder
	writeArticle(&b, a)
	fmt.Fprintf(&b, "Audit rule: %s (%s, %s)\n", issue.RuleName, issue.Type, issue.Severity)
	fmt.Fprintf(&b, "Problem: %s\n", issue.Description)
	if issue.SuggestedFix != "" {
		fmt.Fprintf(&b, "Guidance: %s\n", issue.SuggestedFix)
	}
	fmt.Fprintf(&b, "Task: %s\n", fixInstruction(issue.Type))
	if context != "" {
		fmt.Fprintf(&b, "Surrounding text:\n%s\n", context)
	}
	if issue.CurrentContent != "" {
		fmt.Fprintf(&b, "Text to replace:\n<<<CONTENT\n%s\nCONTENT>>>\n", issue.CurrentContent)
	}
	b.WriteString("Answer with the replacement markdown only.\n")
	return textgen.Request{System: systemPrompt, Prompt: b.String(), Temperature: 0.3}
}

func rewrite(a Article, s Section, instruction string) textgen.Request {
	var b strings.Builder
	writeArticle(&b, a)
	fmt.Fprintf(&b, "Section heading: %s\n", s.Heading)
	if s.PrevExcerpt != "" {
		fmt.Fprintf(&b, "End of previous section: %s\n", s.PrevExcerpt)
	}
	if s.NextExcerpt != "" {
		fmt.Fprintf(&b, "Start of next section: %s\n", s.NextExcerpt)
	}
	fmt.Fprintf(&b, "Task: %s\n", instruction)
	fmt.Fprintf(&b, "Current section content:\n<<<CONTENT\n%s\nCONTENT>>>\n", strings.TrimSpace(s.Content))
	b.WriteString("Answer with the rewritten markdown only.\n")
	return textgen.Request{System: systemPrompt, Prompt: b.String(), Temperature: 0.4}
}

func writeArticle(b *strings.Builder, a Article) {
	fmt.Fprintf(b, "Article title: %s\n", a.Title)
	if a.Entity != "" {
		fmt.Fprintf(b, "Central entity: %s\n", a.Entity)
	}
	if a.Language != "" {
		fmt.Fprintf(b, "Language: %s\n", a.Language)
	}
	if a.Audience != "" {
		fmt.Fprintf(b, "Audience: %s\n", a.Audience)
	}
	if a.Tone != "" {
		fmt.Fprintf(b, "Tone: %s\n", a.Tone)
	}
	if a.Domain != "" {
		fmt.Fprintf(b, "Website: %s\n", a.Domain)
	}
	if a.MetaDescription != "" {
		fmt.Fprintf(b, "Meta description: %s\n", a.MetaDescription)
	}
	if a.SnippetQuestion != "" {
		fmt.Fprintf(b, "Featured snippet question: %s\n", a.SnippetQuestion)
	}
	if len(a.Bridges) > 0 {
		b.WriteString("Internal links to include where relevant:\n")
		for _, br := range a.Bridges {
			fmt.Fprintf(b, "- [%s](%s)\n", br.AnchorText, br.TargetURL)
		}
	}
	if a.Summary != "" {
		b.WriteString(a.Summary)
	}
}

func passInstruction(pass int) string {
	switch pass {
	case 2:
		return "improve subheadings so they are specific and never skip a level"
	case 3:
		return "convert enumerations into lists introduced by a colon-terminated sentence stating the item count"
	case 4:
		return "add one [IMAGE: description] placeholder after the first paragraph"
	case 5:
		return "rewrite sentences for definitive, active, entity-first phrasing without filler"
	case 6:
		return "rewrite each opening sentence so it bridges from the previous section"
	default:
		return "improve the sections while keeping their meaning"
	}
}

func fixInstruction(t domain.IssueType) string {
	switch t {
	case domain.IssueMissingHeading:
		return "write a missing markdown heading that fits the article structure"
	case domain.IssueWeakIntro:
		return "rewrite the opening so it defines the central entity and previews the sections"
	case domain.IssueNoLists:
		return "restructure the text as a list introduced by a colon-terminated sentence with the item count"
	case domain.IssuePoorFlow, domain.IssueMissingTransition:
		return "rewrite the text with a clear transition from the preceding content"
	case domain.IssueBrokenLink:
		return "rewrite the sentence so the link has a descriptive anchor and sits after the first sentence"
	case domain.IssueMissingImage:
		return "write an [IMAGE: description] placeholder for a useful visual"
	case domain.IssueSectionTooLong:
		return "tighten the text to roughly half its length without losing facts"
	case domain.IssueWeakLanguage:
		return "rewrite the text with definitive, active, precise language"
	case domain.IssueFillerContent:
		return "remove filler words and cliches from the text"
	case domain.IssueHeadingQuality:
		return "rewrite the heading so it is specific and aligned with the central entity"
	case domain.IssueMissingConclusion:
		return "write a short concluding section with a level-2 heading that summarises the key facts"
	case domain.IssueFormatMismatch:
		return "restructure the text into the format the section requires"
	case domain.IssueMissingDefinition:
		return "add a precise definition sentence of the central entity"
	default:
		return "fix the problem described above"
	}
}

func formatLabel(f domain.FormatCode) string {
	switch f {
	case domain.FormatList:
		return "bulleted list introduced by a colon-terminated sentence"
	case domain.FormatOrderedList:
		return "numbered list introduced by a colon-terminated sentence"
	case domain.FormatTable:
		return "markdown table with at least three columns"
	case domain.FormatDefinition:
		return "definition first, then explanation"
	default:
		return "prose"
	}
}

func levelOr2(level int) int {
	if level < 2 || level > 6 {
		return 2
	}
	return level
}

// ArticleFrom builds the article context from a brief and business context.
func ArticleFrom(brief domain.ContentBrief, bc domain.BusinessContext, language string) Article {
	a := Article{
		Title:           brief.Title,
		MetaDescription: brief.MetaDescription,
		Entity:          brief.Entity(bc),
		Language:        language,
		Audience:        bc.Audience,
		Tone:            bc.Tone,
		Domain:          bc.Domain,
		Bridges:         brief.ContextualBridges,
	}
	for _, def := range brief.Sections() {
		a.Headings = append(a.Headings, def.Heading)
	}
	if brief.FeaturedSnippet != nil {
		a.SnippetQuestion = brief.FeaturedSnippet.Question
	}
	return a
}
