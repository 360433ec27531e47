// Package pipeline runs the eight generation passes over a job's sections,
// resumes interrupted jobs from the section store and finishes with the
// algorithmic audit.
package pipeline

import (
	"time"

	"articleforge/internal/infra"
)

// Config holds the pipeline tuning knobs.
type Config struct {
	SectionDelay    time.Duration
	MaxAttempts     int
	DraftAttempts   int
	RetryBase       time.Duration
	BatchSize       int
	DefaultLanguage string
}

// DefaultDraftAttempts is the retry budget of the draft pass.
const DefaultDraftAttempts = 3

// ConfigFrom maps the service configuration onto pipeline settings.
func ConfigFrom(cfg *infra.Config) Config {
	return Config{
		SectionDelay:    cfg.SectionDelay,
		MaxAttempts:     cfg.MaxAttempts,
		DraftAttempts:   DefaultDraftAttempts,
		RetryBase:       cfg.RetryBaseDelay,
		BatchSize:       cfg.BatchSize,
		DefaultLanguage: cfg.DefaultLanguage,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 2
	}
	if c.DraftAttempts < 1 {
		c.DraftAttempts = DefaultDraftAttempts
	}
	if c.BatchSize < 1 {
		c.BatchSize = 1
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "en"
	}
	return c
}
