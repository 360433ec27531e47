// Package audit scores a finished draft against 35 deterministic rules
// grouped in five phases: language and style, structure, links, content
// format balance and template compliance. Rules are pure functions over the
// parsed draft plus a language pattern table.
package audit

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"articleforge/internal/domain"
	"articleforge/internal/infra"
)

// Input is everything a single audit run looks at.
type Input struct {
	Draft    string
	Brief    domain.ContentBrief
	Business domain.BusinessContext
	Language string
	Triples  []domain.SemanticTriple
	Template *TemplateSpec
}

// Engine runs the rule phases. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	thresholds Thresholds
	patterns   *Patterns
	logger     infra.Logger
	phases     []phase
}

// Option configures an Engine.
type Option func(*Engine)

// WithThresholds replaces the default limits.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) { e.thresholds = t }
}

// WithPatterns pins the pattern table instead of resolving it from the language.
func WithPatterns(p *Patterns) Option {
	return func(e *Engine) { e.patterns = p }
}

// WithLogger sets the logger used for rules that fail to evaluate.
func WithLogger(l infra.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New builds an engine with the stock rule set.
func New(opts ...Option) *Engine {
	e := &Engine{
		thresholds: DefaultThresholds(),
		logger:     infra.NopLogger(),
		phases:     rulePhases(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Thresholds returns the limits in effect.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Run evaluates every rule in phase order. It yields the processor between
// phases and never fails: a rule that cannot evaluate reports a neutral pass.
func (e *Engine) Run(in Input) []domain.AuditRuleResult {
	a := e.prepare(in)
	results := make([]domain.AuditRuleResult, 0, RuleCount)
	for i, ph := range e.phases {
		if i > 0 {
			runtime.Gosched()
		}
		for _, r := range ph.rules {
			results = append(results, e.evaluate(r, a))
		}
	}
	return results
}

// Audit runs the rules and wraps the outcome in a report. Issues are left
// for the caller to derive.
func (e *Engine) Audit(in Input) domain.AuditReport {
	results := e.Run(in)
	return domain.AuditReport{
		Score:     Score(results),
		Results:   results,
		Language:  e.languageOf(in),
		AuditedAt: time.Now().UTC(),
	}
}

func (e *Engine) evaluate(r rule, a *article) (res domain.AuditRuleResult) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Warn().Str("rule", r.name).Interface("panic", rec).Msg("audit rule could not evaluate")
			res = pass(r.name, fmt.Sprintf("Rule could not evaluate this draft: %v", rec))
		}
	}()
	return a.verbatim(r.check(a))
}

func (e *Engine) languageOf(in Input) string {
	if e.patterns != nil {
		return e.patterns.Language
	}
	return PatternsFor(domain.ResolveLanguage(in.Language, in.Brief, in.Business, "en")).Language
}

// Score is round(100 * passing / total). Per-rule scores do not contribute.
func Score(results []domain.AuditRuleResult) int {
	if len(results) == 0 {
		return 0
	}
	passing := 0
	for _, r := range results {
		if r.IsPassing {
			passing++
		}
	}
	return int(math.Round(100 * float64(passing) / float64(len(results))))
}
