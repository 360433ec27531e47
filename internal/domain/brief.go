package domain

import (
	"fmt"
	"sort"
	"strings"
)

// AttributeCategory ranks how central a section's attribute is to the topic.
type AttributeCategory string

const (
	AttributeRoot   AttributeCategory = "ROOT"
	AttributeUnique AttributeCategory = "UNIQUE"
	AttributeRare   AttributeCategory = "RARE"
	AttributeCommon AttributeCategory = "COMMON"
)

// ContentZone separates core content from supplementary material.
type ContentZone string

const (
	ZoneMain          ContentZone = "MAIN"
	ZoneSupplementary ContentZone = "SUPPLEMENTARY"
)

// FormatCode names the structural format a section is expected to carry.
type FormatCode string

const (
	FormatProse       FormatCode = "PROSE"
	FormatList        FormatCode = "LIST"
	FormatOrderedList FormatCode = "ORDERED_LIST"
	FormatTable       FormatCode = "TABLE"
	FormatDefinition  FormatCode = "DEFINITION"
)

// SectionDefinition is one entry of a brief's structured outline.
type SectionDefinition struct {
	Key               string            `json:"key"`
	Heading           string            `json:"heading"`
	Level             int               `json:"level"`
	Order             int               `json:"order"`
	Hint              string            `json:"hint,omitempty"`
	AttributeCategory AttributeCategory `json:"attribute_category,omitempty"`
	ContentZone       ContentZone       `json:"content_zone,omitempty"`
	FormatCode        FormatCode        `json:"format_code,omitempty"`
	IsIntro           bool              `json:"is_intro,omitempty"`
	IsConclusion      bool              `json:"is_conclusion,omitempty"`
}

// FeaturedSnippet describes the search feature the article should win.
type FeaturedSnippet struct {
	Question         string     `json:"question"`
	TargetFormat     FormatCode `json:"target_format,omitempty"`
	TargetSectionKey string     `json:"target_section_key,omitempty"`
}

// ContextualBridge is an internal link the brief expects the article to carry.
type ContextualBridge struct {
	AnchorText string `json:"anchor_text"`
	TargetURL  string `json:"target_url"`
}

// ContentBrief is the read-only input of a generation job.
type ContentBrief struct {
	Title             string              `json:"title"`
	MetaDescription   string              `json:"meta_description,omitempty"`
	Outline           string              `json:"outline,omitempty"`
	StructuredOutline []SectionDefinition `json:"structured_outline"`
	TargetWordCount   int                 `json:"target_word_count,omitempty"`
	CentralEntity     string              `json:"central_entity,omitempty"`
	Language          string              `json:"language,omitempty"`
	FeaturedSnippet   *FeaturedSnippet    `json:"featured_snippet,omitempty"`
	VisualHints       []string            `json:"visual_hints,omitempty"`
	ContextualBridges []ContextualBridge  `json:"contextual_bridges,omitempty"`
}

// BusinessContext carries the per-project settings the pipeline needs.
type BusinessContext struct {
	Domain            string   `json:"domain,omitempty"`
	CentralEntity     string   `json:"central_entity,omitempty"`
	Language          string   `json:"language,omitempty"`
	Audience          string   `json:"audience,omitempty"`
	Tone              string   `json:"tone,omitempty"`
	Provider          string   `json:"provider,omitempty"`
	FallbackProviders []string `json:"fallback_providers,omitempty"`
}

// SemanticTriple is one entity-attribute-value fact the article should state.
type SemanticTriple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

var introMarkers = []string{"intro", "introduction", "inleiding", "overview"}
var conclusionMarkers = []string{"conclusion", "conclusie", "summary", "samenvatting", "final thoughts", "tot slot"}

// Validate rejects briefs the pipeline cannot work from.
func (b ContentBrief) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidBrief)
	}
	if len(b.StructuredOutline) == 0 {
		return fmt.Errorf("%w: structured outline is empty", ErrInvalidBrief)
	}
	seen := make(map[string]struct{}, len(b.StructuredOutline))
	for i, def := range b.StructuredOutline {
		key := strings.TrimSpace(def.Key)
		if key == "" {
			return fmt.Errorf("%w: outline entry %d has no key", ErrInvalidBrief, i)
		}
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: duplicate section key %q", ErrInvalidBrief, key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Sections returns the outline normalized and sorted by order. The brief
// itself is left untouched.
func (b ContentBrief) Sections() []SectionDefinition {
	out := make([]SectionDefinition, len(b.StructuredOutline))
	for i, def := range b.StructuredOutline {
		out[i] = def.Normalized(i)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Entity resolves the central entity, preferring the brief over the business context.
func (b ContentBrief) Entity(bc BusinessContext) string {
	if e := strings.TrimSpace(b.CentralEntity); e != "" {
		return e
	}
	return strings.TrimSpace(bc.CentralEntity)
}

// ResolveLanguage picks the article language: explicit argument, brief, business context, fallback.
func ResolveLanguage(explicit string, b ContentBrief, bc BusinessContext, fallback string) string {
	for _, v := range []string{explicit, b.Language, bc.Language, fallback} {
		if v = strings.TrimSpace(v); v != "" {
			return strings.ToLower(v)
		}
	}
	return "en"
}

// Normalized fills inferred defaults. index is the outline position used when Order is unset.
func (d SectionDefinition) Normalized(index int) SectionDefinition {
	d.Key = strings.TrimSpace(d.Key)
	d.Heading = strings.TrimSpace(d.Heading)
	if d.Level < 2 || d.Level > 6 {
		d.Level = 2
	}
	if d.Order == 0 {
		d.Order = index + 1
	}
	lowered := strings.ToLower(d.Key + " " + d.Heading)
	if !d.IsIntro && containsAny(lowered, introMarkers) {
		d.IsIntro = true
	}
	if !d.IsConclusion && containsAny(lowered, conclusionMarkers) {
		d.IsConclusion = true
	}
	if d.ContentZone == "" {
		d.ContentZone = ZoneMain
	}
	if d.FormatCode == "" {
		d.FormatCode = FormatProse
	}
	if d.AttributeCategory == "" {
		if d.IsIntro {
			d.AttributeCategory = AttributeRoot
		} else {
			d.AttributeCategory = AttributeCommon
		}
	}
	return d
}

// Priority orders attribute classes for the draft pass; lower runs first.
func (c AttributeCategory) Priority() int {
	switch AttributeCategory(strings.ToUpper(string(c))) {
	case AttributeRoot:
		return 0
	case AttributeUnique:
		return 1
	case AttributeRare:
		return 2
	case AttributeCommon:
		return 3
	default:
		return 4
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
