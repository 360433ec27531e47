package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("TEXTGEN_PROVIDER", "")
	t.Setenv("TEXTGEN_FALLBACKS", "")
	t.Setenv("PIPELINE_SECTION_DELAY_MS", "")
	t.Setenv("DEFAULT_LANGUAGE", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.TextGenProvider != "gemini" {
		t.Fatalf("TextGenProvider = %q, want %q", cfg.TextGenProvider, "gemini")
	}
	if len(cfg.TextGenFallbacks) != 2 || cfg.TextGenFallbacks[0] != "openai" || cfg.TextGenFallbacks[1] != "static" {
		t.Fatalf("TextGenFallbacks mismatch: %#v", cfg.TextGenFallbacks)
	}
	if cfg.SectionDelay != 500*time.Millisecond {
		t.Fatalf("SectionDelay = %s, want 500ms", cfg.SectionDelay)
	}
	if cfg.DefaultLanguage != "en" {
		t.Fatalf("DefaultLanguage = %q, want en", cfg.DefaultLanguage)
	}
}

func TestLoadConfigFallbackList(t *testing.T) {
	t.Setenv("TEXTGEN_PROVIDER", "OpenAI")
	t.Setenv("TEXTGEN_FALLBACKS", " qwen , , Static ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.TextGenProvider != "openai" {
		t.Fatalf("TextGenProvider = %q, want openai", cfg.TextGenProvider)
	}
	expected := []string{"qwen", "static"}
	if len(cfg.TextGenFallbacks) != len(expected) {
		t.Fatalf("TextGenFallbacks mismatch: got %#v want %#v", cfg.TextGenFallbacks, expected)
	}
	for i, v := range expected {
		if cfg.TextGenFallbacks[i] != v {
			t.Fatalf("TextGenFallbacks[%d] = %q, want %q", i, cfg.TextGenFallbacks[i], v)
		}
	}
}

func TestLoadConfigRejectsZeroAttempts(t *testing.T) {
	t.Setenv("PIPELINE_MAX_ATTEMPTS", "0")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for zero attempts")
	}
}

func TestRequireDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if err := cfg.RequireDatabase(); err == nil {
		t.Fatal("expected RequireDatabase to fail without DATABASE_URL")
	}
	cfg.DatabaseURL = "postgres://example"
	if err := cfg.RequireDatabase(); err != nil {
		t.Fatalf("RequireDatabase returned error: %v", err)
	}
}
