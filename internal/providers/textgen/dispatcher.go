package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"articleforge/internal/domain"
	"articleforge/internal/infra"
)

// Dispatcher tries its backends in order until one returns non-empty text.
type Dispatcher struct {
	backends []Generator
	logger   infra.Logger

	// OnFallback is called each time a backend fails and the next one is tried.
	OnFallback func(provider string, err error)
}

// NewDispatcher creates a dispatcher over backends.
func NewDispatcher(logger infra.Logger, backends ...Generator) *Dispatcher {
	return &Dispatcher{backends: backends, logger: logger}
}

func (d *Dispatcher) Name() string {
	names := make([]string, 0, len(d.backends))
	for _, b := range d.backends {
		names = append(names, b.Name())
	}
	return "dispatch(" + strings.Join(names, ",") + ")"
}

// Providers lists backend names in dispatch order.
func (d *Dispatcher) Providers() []string {
	out := make([]string, 0, len(d.backends))
	for _, b := range d.backends {
		out = append(out, b.Name())
	}
	return out
}

// Generate returns the first non-empty response. Context cancellation stops
// the chain immediately.
func (d *Dispatcher) Generate(ctx context.Context, req Request) (string, error) {
	if len(d.backends) == 0 {
		return "", domain.ErrNoProviders
	}
	var errs []error
	for i, backend := range d.backends {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := backend.Generate(ctx, req)
		if err == nil && strings.TrimSpace(text) == "" {
			err = domain.ErrEmptyResponse
		}
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		if i < len(d.backends)-1 {
			evt := d.logger.Warn().Err(err).Str("provider", backend.Name()).Str("next", d.backends[i+1].Name())
			for k, v := range req.Tags {
				evt = evt.Str(k, v)
			}
			evt.Msg("text generation failed, falling back")
			if d.OnFallback != nil {
				d.OnFallback(backend.Name(), err)
			}
		}
	}
	return "", fmt.Errorf("%w: %w", domain.ErrProviderFailure, errors.Join(errs...))
}

var _ Generator = (*Dispatcher)(nil)
