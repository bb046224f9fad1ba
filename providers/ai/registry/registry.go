package registry

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/llmwire/llmwire/internal/modelcache"
	"github.com/llmwire/llmwire/providers/ai"
)

// Entry describes one registered backend: the metadata a caller needs to
// display it and the credentials gating it, plus the factory that builds the
// adapter.
type Entry struct {
	// ID is the stable identifier used in Resolve. Case-insensitive.
	ID string
	// DisplayName is the human-readable backend name.
	DisplayName string
	// RequiredEnv lists environment variables that must be set before the
	// factory is called. Checked at resolution time.
	RequiredEnv []string
	// OptionalEnv lists variables the backend reads when present (base URL
	// overrides, extra headers). Informational.
	OptionalEnv []string
	// SetupInstructions tells a human how to satisfy RequiredEnv.
	SetupInstructions string
	// EnabledByDefault marks backends usable without explicit opt-in;
	// ListEnabled filters on it.
	EnabledByDefault bool
	// New builds the adapter. Called only after the credential gate passed.
	New func(Options) (ai.Provider, error)
}

// Options carries shared resources injected into every factory. Zero value
// means each adapter uses its own defaults.
type Options struct {
	// HTTPClient replaces each adapter's default client when non-nil.
	HTTPClient *http.Client
	// Cache shares one model-list cache across all resolved adapters.
	Cache *modelcache.Cache
}

// Registry maps backend identifiers to factories with credential gating.
// Registries are explicitly constructed values; there is no package-level
// default instance.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
	options Options
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// WithOptions sets the resources handed to every factory.
func (r *Registry) WithOptions(options Options) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.options = options
	return r
}

// Register adds a backend entry. An entry with an already-registered ID
// replaces the previous one but keeps its position in enumeration order.
// Entries without an ID or a factory are rejected.
func (r *Registry) Register(entry Entry) error {
	if entry.ID == "" {
		return fmt.Errorf("registry entry has no identifier")
	}
	if entry.New == nil {
		return fmt.Errorf("registry entry %q has no factory", entry.ID)
	}

	id := strings.ToLower(entry.ID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[id]; !exists {
		r.order = append(r.order, id)
	}
	r.entries[id] = entry
	return nil
}

// Resolve builds the adapter registered under identifier. Required
// credentials are read from the process environment here, at resolution
// time: when one is missing the call fails with a configuration error naming
// that variable, before the factory runs and before any network I/O.
func (r *Registry) Resolve(_ context.Context, identifier string) (ai.Provider, error) {
	r.mu.RLock()
	entry, exists := r.entries[strings.ToLower(identifier)]
	options := r.options
	r.mu.RUnlock()

	if !exists {
		return nil, &ai.Error{
			Kind:    ai.KindConfiguration,
			Message: fmt.Sprintf("unknown provider %q (registered: %s)", identifier, strings.Join(r.ids(), ", ")),
		}
	}

	for _, envVar := range entry.RequiredEnv {
		if os.Getenv(envVar) == "" {
			return nil, ai.NewConfigurationError(entry.ID, envVar, entry.SetupInstructions)
		}
	}

	return entry.New(options)
}

// List returns every entry in registration order.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		entries = append(entries, r.entries[id])
	}
	return entries
}

// ListEnabled returns the entries usable without explicit opt-in, in
// registration order.
func (r *Registry) ListEnabled() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []Entry
	for _, id := range r.order {
		if entry := r.entries[id]; entry.EnabledByDefault {
			entries = append(entries, entry)
		}
	}
	return entries
}

// ids returns the registered identifiers sorted for stable error messages.
func (r *Registry) ids() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
