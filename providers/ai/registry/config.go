package registry

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/llmwire/llmwire/providers/ai"
	"github.com/llmwire/llmwire/providers/ai/custom"
)

// EndpointConfig declares one OpenAI-compatible backend in an endpoints
// file. Each becomes a registry entry backed by the custom adapter.
type EndpointConfig struct {
	// Name is the registry identifier for this endpoint.
	Name string `yaml:"name"`
	// BaseURL is the endpoint root, e.g. http://localhost:11434/v1.
	BaseURL string `yaml:"base_url"`
	// APIKeyEnv names the environment variable holding the key. Empty means
	// the endpoint needs no credential. The variable is read at resolution
	// time, never stored in the file.
	APIKeyEnv string `yaml:"api_key_env"`
	// Headers are sent on every request to this endpoint.
	Headers map[string]string `yaml:"headers"`
	// BodyOverrides are sjson path/value pairs applied to each serialized
	// request; a null value deletes the path.
	BodyOverrides map[string]any `yaml:"body_overrides"`
}

// endpointsFile is the root of the YAML document.
type endpointsFile struct {
	Endpoints []EndpointConfig `yaml:"endpoints"`
}

// ParseEndpoints decodes an endpoints document and validates it: every
// endpoint needs a name and a base URL, and names must be unique within the
// file.
func ParseEndpoints(data []byte) ([]EndpointConfig, error) {
	var file endpointsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing endpoints file: %w", err)
	}

	seen := make(map[string]bool, len(file.Endpoints))
	for i, endpoint := range file.Endpoints {
		if endpoint.Name == "" {
			return nil, fmt.Errorf("endpoint %d has no name", i)
		}
		if endpoint.BaseURL == "" {
			return nil, fmt.Errorf("endpoint %q has no base_url", endpoint.Name)
		}
		id := strings.ToLower(endpoint.Name)
		if seen[id] {
			return nil, fmt.Errorf("duplicate endpoint name %q", endpoint.Name)
		}
		seen[id] = true
	}

	return file.Endpoints, nil
}

// RegisterEndpoints adds configured endpoints to the registry. Unlike
// Register, a name colliding with an existing entry is an error: an
// endpoints file silently shadowing a built-in backend would be hard to
// debug.
func (r *Registry) RegisterEndpoints(endpoints ...EndpointConfig) error {
	r.mu.RLock()
	existing := make(map[string]bool, len(r.entries))
	for id := range r.entries {
		existing[id] = true
	}
	r.mu.RUnlock()

	for _, endpoint := range endpoints {
		if existing[strings.ToLower(endpoint.Name)] {
			return fmt.Errorf("endpoint %q collides with a registered backend", endpoint.Name)
		}
		if err := r.Register(endpointEntry(endpoint)); err != nil {
			return err
		}
		existing[strings.ToLower(endpoint.Name)] = true
	}
	return nil
}

// LoadEndpointsFile reads, parses and registers an endpoints file.
func (r *Registry) LoadEndpointsFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading endpoints file: %w", err)
	}

	endpoints, err := ParseEndpoints(data)
	if err != nil {
		return err
	}
	return r.RegisterEndpoints(endpoints...)
}

// endpointEntry builds the registry entry for one configured endpoint. The
// factory overrides every construction-time default so ambient CUSTOM_*
// variables cannot leak into file-configured endpoints.
func endpointEntry(endpoint EndpointConfig) Entry {
	var required []string
	setup := fmt.Sprintf("endpoint %q is configured in the endpoints file", endpoint.Name)
	if endpoint.APIKeyEnv != "" {
		required = []string{endpoint.APIKeyEnv}
		setup = fmt.Sprintf("export %s=<key> (credential for configured endpoint %q)", endpoint.APIKeyEnv, endpoint.Name)
	}

	return Entry{
		ID:                endpoint.Name,
		DisplayName:       endpoint.Name,
		RequiredEnv:       required,
		SetupInstructions: setup,
		EnabledByDefault:  true,
		New: func(options Options) (ai.Provider, error) {
			provider := custom.New().
				WithName(endpoint.Name).
				WithBaseURL(endpoint.BaseURL).
				WithAPIKey(os.Getenv(endpoint.APIKeyEnv)).
				WithHeaders(endpoint.Headers).
				WithBodyOverrides(endpoint.BodyOverrides)
			if options.HTTPClient != nil {
				provider.WithHTTPClient(options.HTTPClient)
			}
			if options.Cache != nil {
				provider.WithModelCache(options.Cache)
			}
			return provider, nil
		},
	}
}
