// Package textgen is the text generation service: interchangeable backends
// behind one interface, a registry keyed by provider id, and a dispatcher
// that degrades from one backend to the next.
package textgen

import (
	"context"
	"regexp"
	"strings"
)

// Request is one generation call.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	// Tags are copied into log lines (job_id, pass, section_key).
	Tags map[string]string
}

// Generator is implemented by every backend.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc struct {
	ID string
	Fn func(ctx context.Context, req Request) (string, error)
}

func (f GeneratorFunc) Name() string { return f.ID }

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f.Fn(ctx, req)
}

var fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\s*\\n?(.*?)\\n?```$")

// TrimCodeFence removes a single wrapping markdown code fence.
func TrimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}
