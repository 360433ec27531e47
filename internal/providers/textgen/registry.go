package textgen

import (
	"sort"
	"strings"
	"sync"

	"articleforge/internal/domain"
	"articleforge/internal/infra"
)

// Registry maps provider ids to backends.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Generator
	defaults []string
	logger   infra.Logger
}

// NewRegistry creates a registry whose Resolve falls back to defaults, in order.
func NewRegistry(logger infra.Logger, defaults ...string) *Registry {
	return &Registry{
		backends: make(map[string]Generator),
		defaults: normalizeIDs(defaults),
		logger:   logger,
	}
}

// Register adds or replaces a backend under its Name().
func (r *Registry) Register(gen Generator) {
	if gen == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[normalizeID(gen.Name())] = gen
}

// Get returns the backend registered under id.
func (r *Registry) Get(id string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gen, ok := r.backends[normalizeID(id)]
	return gen, ok
}

// Names lists registered provider ids, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for id := range r.backends {
		names = append(names, id)
	}
	sort.Strings(names)
	return names
}

// Resolve builds the dispatch chain for a business context: its provider,
// its fallbacks, then the registry defaults. Duplicates are dropped and
// unknown ids are skipped with a warning.
func (r *Registry) Resolve(bc domain.BusinessContext) *Dispatcher {
	chain := append([]string{bc.Provider}, bc.FallbackProviders...)
	chain = append(chain, r.defaults...)

	seen := make(map[string]struct{}, len(chain))
	var backends []Generator
	for _, id := range chain {
		id = normalizeID(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		gen, ok := r.Get(id)
		if !ok {
			r.logger.Warn().Str("provider", id).Msg("unknown text generation provider skipped")
			continue
		}
		backends = append(backends, gen)
	}
	return NewDispatcher(r.logger, backends...)
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = normalizeID(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
