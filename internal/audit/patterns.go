package audit

import (
	"embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed patterns/*.yaml
var patternFS embed.FS

// Intents lists title phrases that imply a query intent.
type Intents struct {
	List          []string `yaml:"list"`
	Instructional []string `yaml:"instructional"`
	Comparison    []string `yaml:"comparison"`
	Definitional  []string `yaml:"definitional"`
}

// Patterns is the language-specific vocabulary the rules match against.
type Patterns struct {
	Language         string   `yaml:"language"`
	Hedges           []string `yaml:"hedges"`
	Fillers          []string `yaml:"fillers"`
	Pronouns         []string `yaml:"pronouns"`
	StopWords        []string `yaml:"stop_words"`
	GenericHeadings  []string `yaml:"generic_headings"`
	Passive          []string `yaml:"passive"`
	Future           []string `yaml:"future"`
	DefinitionVerbs  []string `yaml:"definition_verbs"`
	MetaOpeners      []string `yaml:"meta_openers"`
	Signatures       []string `yaml:"signature_phrases"`
	Positive         []string `yaml:"positive"`
	Negative         []string `yaml:"negative"`
	Instructional    []string `yaml:"instructional"`
	RelatedHeadings  []string `yaml:"related_headings"`
	GenericAnchors   []string `yaml:"generic_anchors"`
	CountWords       []string `yaml:"count_words"`
	Intents          Intents  `yaml:"intents"`

	passive []*regexp.Regexp
	future  []*regexp.Regexp
	stop    map[string]struct{}
}

// ParsePatterns decodes and compiles a pattern table.
func ParsePatterns(data []byte) (*Patterns, error) {
	var p Patterns
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode patterns: %w", err)
	}
	var err error
	if p.passive, err = compileAll(p.Passive); err != nil {
		return nil, fmt.Errorf("passive patterns: %w", err)
	}
	if p.future, err = compileAll(p.Future); err != nil {
		return nil, fmt.Errorf("future patterns: %w", err)
	}
	p.stop = make(map[string]struct{}, len(p.StopWords))
	for _, w := range p.StopWords {
		p.stop[strings.ToLower(w)] = struct{}{}
	}
	return &p, nil
}

func compileAll(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

// IsStopWord reports whether w carries no topical meaning.
func (p *Patterns) IsStopWord(w string) bool {
	_, ok := p.stop[strings.ToLower(w)]
	return ok
}

// IsPassive reports whether sentence matches a passive construction.
func (p *Patterns) IsPassive(sentence string) bool {
	return matchesAny(p.passive, sentence)
}

// IsFuture reports whether sentence uses future tense.
func (p *Patterns) IsFuture(sentence string) bool {
	return matchesAny(p.future, sentence)
}

func matchesAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

var supported = []language.Tag{language.English, language.Dutch}

var (
	tablesOnce sync.Once
	tables     []*Patterns
	tablesErr  error
	matcher    = language.NewMatcher(supported)
)

func loadTables() {
	for _, tag := range supported {
		base, _ := tag.Base()
		data, err := patternFS.ReadFile("patterns/" + base.String() + ".yaml")
		if err != nil {
			tablesErr = err
			return
		}
		p, err := ParsePatterns(data)
		if err != nil {
			tablesErr = fmt.Errorf("%s: %w", base, err)
			return
		}
		tables = append(tables, p)
	}
}

// PatternsFor returns the closest supported table for lang. Unknown or
// empty languages fall back to English.
func PatternsFor(lang string) *Patterns {
	tablesOnce.Do(loadTables)
	if tablesErr != nil {
		panic(fmt.Sprintf("audit: embedded pattern tables: %v", tablesErr))
	}
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return tables[0]
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return tables[0]
	}
	return tables[idx]
}

// SupportedLanguages lists the languages with a pattern table.
func SupportedLanguages() []string {
	out := make([]string, len(supported))
	for i, tag := range supported {
		out[i] = tag.String()
	}
	return out
}
