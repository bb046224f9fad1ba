package registry

import (
	"github.com/llmwire/llmwire/providers/ai"
	"github.com/llmwire/llmwire/providers/ai/custom"
	"github.com/llmwire/llmwire/providers/ai/gemini"
	"github.com/llmwire/llmwire/providers/ai/openrouter"
)

// Default returns a registry pre-populated with the built-in backend
// families. It is a constructor: each call builds an independent registry
// that the caller owns and may extend.
func Default() *Registry {
	r := New()

	// Built-in IDs are constants and the factories are non-nil, so
	// registration cannot fail here.
	_ = r.Register(Entry{
		ID:                gemini.Name,
		DisplayName:       "Google Gemini",
		RequiredEnv:       []string{"GEMINI_API_KEY"},
		OptionalEnv:       []string{"GEMINI_API_BASE_URL"},
		SetupInstructions: gemini.SetupInstructions,
		EnabledByDefault:  true,
		New: func(options Options) (ai.Provider, error) {
			provider := gemini.New()
			if options.HTTPClient != nil {
				provider.WithHTTPClient(options.HTTPClient)
			}
			if options.Cache != nil {
				provider.WithModelCache(options.Cache)
			}
			return provider, nil
		},
	})

	_ = r.Register(Entry{
		ID:                openrouter.Name,
		DisplayName:       "OpenRouter",
		RequiredEnv:       []string{"OPENROUTER_API_KEY"},
		OptionalEnv:       []string{"OPENROUTER_API_BASE_URL"},
		SetupInstructions: openrouter.SetupInstructions,
		EnabledByDefault:  true,
		New: func(options Options) (ai.Provider, error) {
			provider := openrouter.New()
			if options.HTTPClient != nil {
				provider.WithHTTPClient(options.HTTPClient)
			}
			if options.Cache != nil {
				provider.WithModelCache(options.Cache)
			}
			return provider, nil
		},
	})

	// The custom family needs an explicit endpoint, so it is registered but
	// not enabled by default; setting CUSTOM_API_BASE_URL is the opt-in.
	_ = r.Register(Entry{
		ID:                custom.Name,
		DisplayName:       "Custom OpenAI-compatible endpoint",
		RequiredEnv:       []string{"CUSTOM_API_BASE_URL"},
		OptionalEnv:       []string{"CUSTOM_API_KEY", "CUSTOM_API_HEADERS"},
		SetupInstructions: custom.SetupInstructions,
		EnabledByDefault:  false,
		New: func(options Options) (ai.Provider, error) {
			provider := custom.New()
			if options.HTTPClient != nil {
				provider.WithHTTPClient(options.HTTPClient)
			}
			if options.Cache != nil {
				provider.WithModelCache(options.Cache)
			}
			return provider, nil
		},
	})

	return r
}
