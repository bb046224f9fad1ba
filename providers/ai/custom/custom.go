package custom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/tidwall/sjson"

	"github.com/llmwire/llmwire/internal/modelcache"
	"github.com/llmwire/llmwire/internal/utils"
	"github.com/llmwire/llmwire/providers/ai"
	"github.com/llmwire/llmwire/providers/ai/normalize"
	"github.com/llmwire/llmwire/providers/observability"
)

const (
	// Name is the default backend identifier. Instances configured from a
	// registry endpoints file carry their own name instead.
	Name = "custom"

	envAPIKey  = "CUSTOM_API_KEY"
	envBaseURL = "CUSTOM_API_BASE_URL"
	envHeaders = "CUSTOM_API_HEADERS"

	// SetupInstructions tells a human how to make this backend usable.
	SetupInstructions = "export CUSTOM_API_BASE_URL=<url> (any OpenAI-compatible endpoint, e.g. http://localhost:11434/v1)"

	// fallbackModelID is the single entry returned when the endpoint does
	// not expose a model list.
	fallbackModelID = "default"
)

// Provider implements [ai.Provider] for an arbitrary OpenAI-compatible
// endpoint.
type Provider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	cache   *modelcache.Cache
	retry   utils.RetryConfig

	headers    []utils.HeaderOption
	headersErr error
	overrides  map[string]any
}

// New creates a custom provider configured from the environment.
// Environment variables:
//   - CUSTOM_API_BASE_URL: endpoint base URL (required)
//   - CUSTOM_API_KEY: API key (optional, many local servers need none)
//   - CUSTOM_API_HEADERS: extra headers as a JSON-encoded map (optional)
func New() *Provider {
	provider := &Provider{
		name:    Name,
		apiKey:  os.Getenv(envAPIKey),
		baseURL: strings.TrimSuffix(os.Getenv(envBaseURL), "/"),
		client:  &http.Client{},
		cache:   modelcache.New(),
	}

	if raw := os.Getenv(envHeaders); raw != "" {
		provider.headers, provider.headersErr = parseHeaders(raw)
	}

	return provider
}

// parseHeaders decodes a JSON-encoded header map into deterministic-order
// header options.
func parseHeaders(raw string) ([]utils.HeaderOption, error) {
	var decoded map[string]string
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("not a JSON object of strings: %w", err)
	}

	keys := make([]string, 0, len(decoded))
	for key := range decoded {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	headers := make([]utils.HeaderOption, 0, len(keys))
	for _, key := range keys {
		headers = append(headers, utils.HeaderOption{Key: key, Value: decoded[key]})
	}
	return headers, nil
}

// WithName sets the backend identifier, used when several custom endpoints
// are registered side by side.
func (p *Provider) WithName(name string) *Provider {
	p.name = name
	return p
}

// WithAPIKey sets the API key for the provider.
func (p *Provider) WithAPIKey(apiKey string) *Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the endpoint base URL.
func (p *Provider) WithBaseURL(baseURL string) *Provider {
	p.baseURL = strings.TrimSuffix(baseURL, "/")
	return p
}

// WithHTTPClient sets a custom HTTP client.
func (p *Provider) WithHTTPClient(client *http.Client) *Provider {
	p.client = client
	return p
}

// WithModelCache shares a model-list cache across providers.
func (p *Provider) WithModelCache(cache *modelcache.Cache) *Provider {
	p.cache = cache
	return p
}

// WithHeaders sets extra headers sent on every request, replacing any parsed
// from the environment.
func (p *Provider) WithHeaders(headers map[string]string) *Provider {
	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	p.headers = p.headers[:0]
	for _, key := range keys {
		p.headers = append(p.headers, utils.HeaderOption{Key: key, Value: headers[key]})
	}
	p.headersErr = nil
	return p
}

// WithBodyOverrides sets sjson path/value pairs applied to every serialized
// request. A nil value deletes the path.
func (p *Provider) WithBodyOverrides(overrides map[string]any) *Provider {
	p.overrides = overrides
	return p
}

// Name implements the ai.Provider interface.
func (p *Provider) Name() string {
	return p.name
}

// Generate implements the ai.Provider interface. The response payload is
// classified structurally by the shared normalizer, so both strict chat
// completions and root-level message dialects work.
func (p *Provider) Generate(ctx context.Context, request ai.Request) (*ai.Response, error) {
	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, p.name),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.String(observability.AttrLLMModel, request.Model),
		)
		defer span.AddEvent(observability.EventLLMRequestEnd)
	}

	if observer != nil {
		observer.Trace(ctx, "custom provider preparing request",
			observability.String(observability.AttrLLMProvider, p.name),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.Int(observability.AttrRequestTurnsCount, len(request.Turns)),
			observability.Int(observability.AttrRequestToolsCount, len(request.Tools)),
		)
	}

	if err := p.requireConfig(); err != nil {
		return nil, err
	}

	body, err := p.requestBody(request, false)
	if err != nil {
		return nil, err
	}

	raw, err := utils.Retry(ctx, p.retry, func() (json.RawMessage, error) {
		_, payload, postErr := utils.DoPostSync[json.RawMessage](
			ctx, p.client, p.name, p.baseURL+"/chat/completions", p.apiKey, body, p.headers...,
		)
		if postErr != nil {
			return nil, postErr
		}
		return *payload, nil
	})
	if err != nil {
		if observer != nil {
			observer.Trace(ctx, "request failed", observability.Error(err))
		}
		return nil, err
	}

	response, err := normalize.Reduce(p.name, raw, normalize.WithModel(request.Model))
	if err != nil {
		return nil, err
	}

	if span != nil {
		span.SetAttributes(observability.String(observability.AttrLLMFinishReason, response.FinishReason))
		if response.Usage != nil {
			span.AddEvent(observability.EventTokensReceived,
				observability.Int(observability.AttrLLMTokensTotal, response.Usage.TotalTokens))
		}
	}

	return response, nil
}

// requestBody serializes the request and applies the configured body
// overrides to the raw JSON.
func (p *Provider) requestBody(request ai.Request, stream bool) (json.RawMessage, error) {
	wireRequest, err := toWire(request, request.Model, stream)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(wireRequest)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	return applyOverrides(body, p.overrides)
}

// applyOverrides applies sjson path/value pairs to a serialized request in
// deterministic path order. A nil value deletes the path.
func applyOverrides(body []byte, overrides map[string]any) ([]byte, error) {
	if len(overrides) == 0 {
		return body, nil
	}

	paths := make([]string, 0, len(overrides))
	for path := range overrides {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var err error
	for _, path := range paths {
		if overrides[path] == nil {
			body, err = sjson.DeleteBytes(body, path)
		} else {
			body, err = sjson.SetBytes(body, path, overrides[path])
		}
		if err != nil {
			return nil, fmt.Errorf("applying body override %q: %w", path, err)
		}
	}
	return body, nil
}

// CountTokens implements the ai.Provider interface with the same estimate
// the rest of the OpenAI-compatible family uses: cl100k_base when the
// encoding loads, the len/4 heuristic otherwise.
func (p *Provider) CountTokens(_ context.Context, text string) (int, error) {
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return len(text) / 4, nil
	}
	return len(encoder.Encode(text, nil, nil)), nil
}

// ListModels implements the ai.Provider interface. Endpoints without a
// /models route get a static single-entry list instead of an error, since
// many self-hosted servers skip the discovery surface entirely. The cache
// key includes the base URL because several custom endpoints may share the
// default name.
func (p *Provider) ListModels(ctx context.Context) ([]ai.ModelInfo, error) {
	if err := p.requireConfig(); err != nil {
		return nil, err
	}
	return p.cache.GetOrFetch(ctx, modelcache.Key(p.name+"@"+p.baseURL, p.apiKey), p.fetchModels)
}

func (p *Provider) fetchModels(ctx context.Context) ([]ai.ModelInfo, error) {
	_, page, err := utils.DoGetSync[modelsResponse](
		ctx, p.client, p.name, p.baseURL+"/models", p.apiKey, p.headers...,
	)
	if err != nil {
		if typed, ok := ai.AsError(err); ok && typed.HTTPStatus == http.StatusNotFound {
			return []ai.ModelInfo{{
				ID:          fallbackModelID,
				DisplayName: "Default model",
				Description: "endpoint does not expose a model list",
				OwnedBy:     p.name,
			}}, nil
		}
		return nil, err
	}
	if page == nil {
		return nil, nil
	}

	models := make([]ai.ModelInfo, 0, len(page.Data))
	for _, model := range page.Data {
		models = append(models, ai.ModelInfo{
			ID:          model.ID,
			DisplayName: model.Name,
			OwnedBy:     model.OwnedBy,
		})
	}
	return models, nil
}

// CheckHealth implements the ai.Provider interface. Configuration problems
// surface before any network call; a reachable endpoint then answers the
// model-list probe (the 404 fallback counts as reachable).
func (p *Provider) CheckHealth(ctx context.Context) ai.HealthStatus {
	if err := p.requireConfig(); err != nil {
		return ai.HealthStatus{
			Error:             err.Error(),
			SetupInstructions: SetupInstructions,
		}
	}
	if _, err := p.ListModels(ctx); err != nil {
		return ai.HealthStatus{
			Error:             err.Error(),
			SetupInstructions: SetupInstructions,
		}
	}
	return ai.HealthStatus{Configured: true}
}

// requireConfig validates the construction-time configuration: the base URL
// is mandatory, and a malformed headers variable is a hard error rather than
// silently dropped headers.
func (p *Provider) requireConfig() error {
	if p.baseURL == "" {
		return ai.NewConfigurationError(p.name, envBaseURL, SetupInstructions)
	}
	if p.headersErr != nil {
		return &ai.Error{
			Kind:              ai.KindConfiguration,
			Provider:          p.name,
			EnvVar:            envHeaders,
			Message:           fmt.Sprintf("%s is malformed: %v", envHeaders, p.headersErr),
			SetupInstructions: `export CUSTOM_API_HEADERS='{"X-Custom-Header": "value"}'`,
		}
	}
	return nil
}
