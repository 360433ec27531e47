package audit

import (
	"net/url"
	"strings"

	"articleforge/internal/domain"
	"articleforge/internal/markdown"
)

// draftSection is an H2 section of the draft with the outline entry it was
// matched to, if any.
type draftSection struct {
	markdown.Section
	def        *domain.SectionDefinition
	intro      bool
	conclusion bool
}

// article is the parsed form of an Input shared by every rule of a run.
type article struct {
	in        Input
	th        Thresholds
	pat       *Patterns
	doc       *markdown.Document
	sections  []draftSection
	title     string
	entity    string
	prose     string
	sentences []string
	words     []string
	body      string
}

func (e *Engine) prepare(in Input) *article {
	pat := e.patterns
	if pat == nil {
		pat = PatternsFor(domain.ResolveLanguage(in.Language, in.Brief, in.Business, "en"))
	}
	doc := markdown.Parse(in.Draft)
	a := &article{
		in:     in,
		th:     e.thresholds,
		pat:    pat,
		doc:    doc,
		title:  strings.TrimSpace(in.Brief.Title),
		entity: in.Brief.Entity(in.Business),
		prose:  doc.ProseText(),
	}
	if a.title == "" {
		a.title = doc.Title()
	}
	a.sentences = markdown.SplitSentences(a.prose)
	a.words = markdown.Words(a.prose)

	var bodyParts []string
	for _, b := range doc.Blocks {
		if b.Kind == markdown.BlockHeading || b.Kind == markdown.BlockImage || b.Text == "" {
			continue
		}
		bodyParts = append(bodyParts, b.Text)
	}
	a.body = strings.Join(bodyParts, "\n\n")
	a.sections = matchSections(doc.Sections(), in.Brief)
	return a
}

// matchSections pairs H2 sections with level-2 outline entries: by heading
// first, then positionally when the leftovers line up one to one.
func matchSections(sections []markdown.Section, brief domain.ContentBrief) []draftSection {
	var defs []domain.SectionDefinition
	for _, def := range brief.Sections() {
		if def.Level == 2 {
			defs = append(defs, def)
		}
	}
	out := make([]draftSection, len(sections))
	used := make([]bool, len(defs))
	for i, s := range sections {
		out[i] = draftSection{Section: s}
		if s.Level == 0 {
			continue
		}
		h := normalize(s.Heading)
		for j := range defs {
			if !used[j] && normalize(defs[j].Heading) == h {
				used[j] = true
				out[i].def = &defs[j]
				break
			}
		}
	}

	var freeSections, freeDefs []int
	for i := range out {
		if out[i].def == nil && out[i].Level == 2 {
			freeSections = append(freeSections, i)
		}
	}
	for j := range defs {
		if !used[j] {
			freeDefs = append(freeDefs, j)
		}
	}
	if len(freeSections) == len(freeDefs) {
		for k, i := range freeSections {
			out[i].def = &defs[freeDefs[k]]
		}
	}

	for i := range out {
		s := &out[i]
		if s.Level == 0 {
			s.intro = true
			continue
		}
		if s.def != nil {
			s.intro = s.def.IsIntro
			s.conclusion = s.def.IsConclusion
		}
		inferred := domain.SectionDefinition{Heading: s.Heading}.Normalized(i)
		s.intro = s.intro || inferred.IsIntro
		s.conclusion = s.conclusion || inferred.IsConclusion
	}
	// Only the first intro-like section counts as the introduction.
	seenIntro := false
	for i := range out {
		if out[i].intro {
			if seenIntro {
				out[i].intro = false
			}
			seenIntro = true
		}
	}
	return out
}

func (a *article) intro() *draftSection {
	for i := range a.sections {
		if a.sections[i].intro {
			return &a.sections[i]
		}
	}
	return nil
}

// bodySections are the H2 sections that are neither intro nor conclusion.
func (a *article) bodySections() []*draftSection {
	var out []*draftSection
	for i := range a.sections {
		s := &a.sections[i]
		if s.Level == 2 && !s.intro && !s.conclusion {
			out = append(out, s)
		}
	}
	return out
}

func (a *article) isRelatedZone(s *draftSection) bool {
	if s.def != nil && s.def.ContentZone == domain.ZoneSupplementary {
		return true
	}
	h := normalize(s.Heading)
	for _, marker := range a.pat.RelatedHeadings {
		if markdown.ContainsPhrase(h, marker) {
			return true
		}
	}
	return false
}

func (a *article) entityTerms() []string {
	if terms := a.pat.significantTerms(a.entity); len(terms) > 0 {
		return terms
	}
	return a.pat.significantTerms(a.title)
}

// hasDefinition reports whether text defines subject with a definition verb
// close after it.
func (a *article) hasDefinition(text, subject string) bool {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return false
	}
	needle := strings.ToLower(subject)
	for _, sentence := range markdown.SplitSentences(text) {
		lower := strings.ToLower(sentence)
		at := strings.Index(lower, needle)
		if at < 0 {
			continue
		}
		rest := firstRunes(lower[at+len(needle):], 80)
		if containsAnyPhrase(rest, a.pat.DefinitionVerbs) {
			return true
		}
	}
	return false
}

func (a *article) isExternal(raw string) bool {
	for _, br := range a.in.Brief.ContextualBridges {
		if sameURL(br.TargetURL, raw) {
			return false
		}
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	own := hostOf(a.in.Business.Domain)
	return own == "" || trimWWW(u.Hostname()) != own
}

func hostOf(domainOrURL string) string {
	d := strings.TrimSpace(domainOrURL)
	if d == "" {
		return ""
	}
	if !strings.Contains(d, "://") {
		d = "https://" + d
	}
	u, err := url.Parse(d)
	if err != nil {
		return ""
	}
	return trimWWW(u.Hostname())
}

func trimWWW(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

func sameURL(a, b string) bool {
	norm := func(s string) string {
		return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "/")
	}
	return norm(a) != "" && norm(a) == norm(b)
}
