package analysis

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"articleforge/internal/domain"
	"articleforge/internal/markdown"
)

// Budget caps, as a share of all sections. Each cap allows at least one section.
const (
	MaxListRatio     = 0.4
	MaxTableRatio    = 0.2
	MaxImageRatio    = 0.3
	TargetProseRatio = 0.7
)

const (
	listMinWords      = 150
	imageMinWords     = 250
	discourseTailTerm = 5
)

var (
	enumerationPattern = regexp.MustCompile(`(?i)\b(first(ly)?|second(ly)?|third(ly)?|steps?|types of|kinds of|several|various|including|such as|options|stappen|soorten|verschillende|onder andere|zoals)\b`)
	comparisonPattern  = regexp.MustCompile(`(?i)\b(vs\.?|versus|compared|comparison|compare|difference between|differences|pros and cons|vergelijk\w*|verschil\w*)\b`)
	processPattern     = regexp.MustCompile(`(?i)\b(step|steps|process|how to|install\w*|procedure|workflow|stap\w*|proces|installeer\w*)\b`)
	discoursePattern   = regexp.MustCompile(`(?i)^(however|therefore|moreover|furthermore|in addition|additionally|as a result|consequently|building on|beyond|next|similarly|because|while|although|unlike|this|these|daarnaast|bovendien|echter|daarom|vervolgens|hierdoor|naast|dit|deze)\b`)
	commaSeries        = regexp.MustCompile(`\w+, \w+,? (and|or|en|of) \w+`)
)

// ImageTier ranks why a section is considered for an image.
type ImageTier int

const (
	TierDesignated ImageTier = iota + 1
	TierExisting
	TierAutoJustified
)

func (t ImageTier) String() string {
	switch t {
	case TierDesignated:
		return "designated"
	case TierExisting:
		return "existing"
	case TierAutoJustified:
		return "auto-justified"
	default:
		return "unknown"
	}
}

// SectionNeeds classifies what a section carries and what it lacks.
type SectionNeeds struct {
	Key            string
	Words          int
	IsIntro        bool
	IsConclusion   bool
	HasList        bool
	NeedsList      bool
	HasTable       bool
	NeedsTable     bool
	HasImage       bool
	ProcessLike    bool
	NeedsDiscourse bool
	FormatCode     domain.FormatCode
}

// FormatBudget holds the per-section classification and global caps for one pass.
type FormatBudget struct {
	Sections          []SectionNeeds
	MaxListSections   int
	MaxTableSections  int
	MaxImageSections  int
	TargetProseRatio  float64
	CurrentProseRatio float64

	byKey map[string]int
}

// ImagePick is one section selected for the visuals pass.
type ImagePick struct {
	Key           string
	Tier          ImageTier
	Justification string
}

// AnalyzeBudget classifies sections (in assembly order) against the brief's outline.
func AnalyzeBudget(sections []domain.Section, brief domain.ContentBrief) FormatBudget {
	defs := make(map[string]domain.SectionDefinition, len(brief.StructuredOutline))
	for _, def := range brief.Sections() {
		defs[def.Key] = def
	}

	n := len(sections)
	budget := FormatBudget{
		MaxListSections:  capFor(n, MaxListRatio),
		MaxTableSections: capFor(n, MaxTableRatio),
		MaxImageSections: capFor(n, MaxImageRatio),
		TargetProseRatio: TargetProseRatio,
		byKey:            make(map[string]int, n),
	}

	proseWords, allWords := 0, 0
	prevTail := ""
	for i, sec := range sections {
		doc := markdown.Parse(sec.CurrentContent)
		def := defs[sec.Key]
		plain := doc.PlainText()
		prose := doc.ProseText()

		needs := SectionNeeds{
			Key:          sec.Key,
			Words:        markdown.WordCount(plain),
			IsIntro:      def.IsIntro || (i == 0 && !hasIntro(defs)),
			IsConclusion: def.IsConclusion,
			HasList:      len(doc.BlocksOf(markdown.BlockList, markdown.BlockOrderedList)) > 0,
			HasTable:     len(doc.BlocksOf(markdown.BlockTable)) > 0,
			HasImage:     len(doc.Images()) > 0,
			ProcessLike:  processPattern.MatchString(sec.Heading + " " + prose),
			FormatCode:   def.FormatCode,
		}
		listCode := def.FormatCode == domain.FormatList || def.FormatCode == domain.FormatOrderedList
		enumerates := enumerationPattern.MatchString(prose) || commaSeries.MatchString(prose)
		needs.NeedsList = !needs.HasList && (listCode || (needs.Words >= listMinWords && enumerates))
		needs.NeedsTable = !needs.HasTable && (def.FormatCode == domain.FormatTable || comparisonPattern.MatchString(sec.Heading+" "+prose))

		sentences := markdown.SplitSentences(prose)
		if !needs.IsIntro && i > 0 && len(sentences) > 0 {
			needs.NeedsDiscourse = !bridges(sentences[0], prevTail)
		}
		if len(sentences) > 0 {
			prevTail = sentences[len(sentences)-1]
		}

		pw := markdown.WordCount(prose)
		proseWords += pw
		allWords += needs.Words

		budget.byKey[sec.Key] = len(budget.Sections)
		budget.Sections = append(budget.Sections, needs)
	}
	if allWords > 0 {
		budget.CurrentProseRatio = float64(proseWords) / float64(allWords)
	}
	return budget
}

// Needs returns the classification for key.
func (b FormatBudget) Needs(key string) (SectionNeeds, bool) {
	i, ok := b.byKey[key]
	if !ok {
		return SectionNeeds{}, false
	}
	return b.Sections[i], true
}

// ListCandidates returns sections that need a list, capped by the list budget
// minus sections that already carry one.
func (b FormatBudget) ListCandidates() []string {
	used := 0
	for _, s := range b.Sections {
		if s.HasList {
			used++
		}
	}
	return b.pick(b.MaxListSections-used, func(s SectionNeeds) bool { return s.NeedsList && !s.IsIntro })
}

// TableCandidates returns sections that need a table within the table budget.
func (b FormatBudget) TableCandidates() []string {
	used := 0
	for _, s := range b.Sections {
		if s.HasTable {
			used++
		}
	}
	return b.pick(b.MaxTableSections-used, func(s SectionNeeds) bool { return s.NeedsTable && !s.IsIntro })
}

// DiscourseCandidates returns sections whose opening does not bridge from the previous section.
func (b FormatBudget) DiscourseCandidates() []string {
	return b.pick(len(b.Sections), func(s SectionNeeds) bool { return s.NeedsDiscourse })
}

// ImageCandidates fills the image cap from designated and existing-image
// sections first, then from auto-justified ones.
func (b FormatBudget) ImageCandidates(brief domain.ContentBrief) []ImagePick {
	designated := make(map[string]bool, len(brief.VisualHints))
	for _, k := range brief.VisualHints {
		designated[strings.TrimSpace(k)] = true
	}
	snippetTarget := ""
	if brief.FeaturedSnippet != nil {
		snippetTarget = brief.FeaturedSnippet.TargetSectionKey
	}

	var priority, auto []ImagePick
	for _, s := range b.Sections {
		switch {
		case designated[s.Key]:
			priority = append(priority, ImagePick{Key: s.Key, Tier: TierDesignated, Justification: "designated in brief"})
		case s.HasImage:
			priority = append(priority, ImagePick{Key: s.Key, Tier: TierExisting, Justification: "section already carries an image marker"})
		case s.IsIntro || s.IsConclusion:
		case s.Words >= imageMinWords:
			auto = append(auto, ImagePick{Key: s.Key, Tier: TierAutoJustified, Justification: fmt.Sprintf("long section (%d words)", s.Words)})
		case s.ProcessLike:
			auto = append(auto, ImagePick{Key: s.Key, Tier: TierAutoJustified, Justification: "process-like content"})
		case snippetTarget != "" && s.Key == snippetTarget:
			auto = append(auto, ImagePick{Key: s.Key, Tier: TierAutoJustified, Justification: "featured snippet target"})
		}
	}

	limit := b.MaxImageSections
	out := make([]ImagePick, 0, limit)
	for _, group := range [][]ImagePick{priority, auto} {
		for _, p := range group {
			if len(out) >= limit {
				return out
			}
			out = append(out, p)
		}
	}
	return out
}

func (b FormatBudget) pick(limit int, keep func(SectionNeeds) bool) []string {
	var out []string
	for _, s := range b.Sections {
		if len(out) >= limit {
			break
		}
		if keep(s) {
			out = append(out, s.Key)
		}
	}
	return out
}

func capFor(n int, ratio float64) int {
	c := int(math.Floor(float64(n) * ratio))
	if c < 1 {
		return 1
	}
	return c
}

func hasIntro(defs map[string]domain.SectionDefinition) bool {
	for _, d := range defs {
		if d.IsIntro {
			return true
		}
	}
	return false
}

// bridges reports whether opening continues from the previous section's last
// sentence, either with a discourse marker or by reusing one of its terms.
func bridges(opening, prevTail string) bool {
	if discoursePattern.MatchString(strings.TrimSpace(opening)) {
		return true
	}
	if prevTail == "" {
		return true
	}
	openWords := make(map[string]struct{})
	for _, w := range markdown.Words(opening) {
		openWords[strings.ToLower(w)] = struct{}{}
	}
	for _, w := range markdown.Words(prevTail) {
		if len(w) < discourseTailTerm {
			continue
		}
		if _, ok := openWords[strings.ToLower(w)]; ok {
			return true
		}
	}
	return false
}
