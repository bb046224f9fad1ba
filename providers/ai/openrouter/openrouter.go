package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/llmwire/llmwire/internal/modelcache"
	"github.com/llmwire/llmwire/internal/utils"
	"github.com/llmwire/llmwire/providers/ai"
	"github.com/llmwire/llmwire/providers/ai/normalize"
	"github.com/llmwire/llmwire/providers/observability"
)

const (
	// Name is the stable backend identifier, used in registry resolution and
	// model-cache keys.
	Name = "openrouter"

	defaultBaseURL = "https://openrouter.ai/api/v1"
	// defaultModel lets OpenRouter pick a backing model when the caller does
	// not name one.
	defaultModel = "openrouter/auto"

	envAPIKey  = "OPENROUTER_API_KEY"
	envBaseURL = "OPENROUTER_API_BASE_URL"

	// SetupInstructions tells a human how to make this backend usable.
	SetupInstructions = "export OPENROUTER_API_KEY=<key> (create one at https://openrouter.ai/keys)"

	defaultReferer = "https://github.com/llmwire/llmwire"
	defaultTitle   = "llmwire"
)

// Provider implements [ai.Provider] for the OpenRouter gateway.
type Provider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cache   *modelcache.Cache
	retry   utils.RetryConfig

	// OpenRouter attribution headers (HTTP-Referer, X-Title).
	referer string
	title   string
}

// New creates an OpenRouter provider configured from the environment.
// Environment variables:
//   - OPENROUTER_API_KEY: API key for authentication
//   - OPENROUTER_API_BASE_URL: base URL override (optional)
func New() *Provider {
	baseURL := os.Getenv(envBaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Provider{
		apiKey:  os.Getenv(envAPIKey),
		baseURL: baseURL,
		client:  &http.Client{},
		cache:   modelcache.New(),
		referer: defaultReferer,
		title:   defaultTitle,
	}
}

// WithAPIKey sets the API key for the provider.
func (p *Provider) WithAPIKey(apiKey string) *Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API.
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

// WithAttribution overrides the HTTP-Referer and X-Title headers OpenRouter
// uses to attribute traffic to an application.
func (p *Provider) WithAttribution(referer, title string) *Provider {
	p.referer = referer
	p.title = title
	return p
}

// Name implements the ai.Provider interface.
func (p *Provider) Name() string {
	return Name
}

// Generate implements the ai.Provider interface against the chat-completions
// endpoint. The complete response payload is handed raw to the shared
// normalizer; transient failures are retried with bounded backoff.
func (p *Provider) Generate(ctx context.Context, request ai.Request) (*ai.Response, error) {
	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	model := request.Model
	if model == "" {
		model = defaultModel
	}

	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, Name),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.String(observability.AttrLLMModel, model),
		)
		defer span.AddEvent(observability.EventLLMRequestEnd)
	}

	if observer != nil {
		observer.Trace(ctx, "OpenRouter provider preparing request",
			observability.String(observability.AttrLLMProvider, Name),
			observability.String(observability.AttrLLMModel, model),
			observability.Int(observability.AttrRequestTurnsCount, len(request.Turns)),
			observability.Int(observability.AttrRequestToolsCount, len(request.Tools)),
		)
	}

	if err := p.requireKey(); err != nil {
		return nil, err
	}

	wireRequest, err := toWire(request, model, false)
	if err != nil {
		return nil, err
	}

	raw, err := utils.Retry(ctx, p.retry, func() (json.RawMessage, error) {
		_, payload, postErr := utils.DoPostSync[json.RawMessage](
			ctx, p.client, Name, p.baseURL+"/chat/completions", p.apiKey, wireRequest, p.attributionHeaders()...,
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

	response, err := normalize.Reduce(Name, raw,
		normalize.WithFormat(ai.FormatChatComplete),
		normalize.WithModel(model),
	)
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

// CountTokens implements the ai.Provider interface. OpenRouter fronts many
// tokenizers, so this is an estimate: cl100k_base when the encoding loads,
// the classic len/4 heuristic otherwise.
func (p *Provider) CountTokens(_ context.Context, text string) (int, error) {
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return estimateTokens(text), nil
	}
	return len(encoder.Encode(text, nil, nil)), nil
}

// estimateTokens approximates English text at four characters per token.
func estimateTokens(text string) int {
	return len(text) / 4
}

// ListModels implements the ai.Provider interface. OpenRouter's catalog is
// large and changes often; results are cached per credential.
func (p *Provider) ListModels(ctx context.Context) ([]ai.ModelInfo, error) {
	return p.cache.GetOrFetch(ctx, modelcache.Key(Name, p.apiKey), p.fetchModels)
}

func (p *Provider) fetchModels(ctx context.Context) ([]ai.ModelInfo, error) {
	_, page, err := utils.DoGetSync[modelsResponse](
		ctx, p.client, Name, p.baseURL+"/models", p.apiKey, p.attributionHeaders()...,
	)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, nil
	}

	models := make([]ai.ModelInfo, 0, len(page.Data))
	for _, model := range page.Data {
		models = append(models, ai.ModelInfo{
			ID:            model.ID,
			DisplayName:   model.Name,
			Description:   model.Description,
			ContextLength: model.ContextLength,
			OwnedBy:       vendorOf(model.ID),
		})
	}
	return models, nil
}

// vendorOf extracts the upstream vendor from an OpenRouter model id, which
// is conventionally "vendor/model-name".
func vendorOf(modelID string) string {
	if vendor, _, found := strings.Cut(modelID, "/"); found {
		return vendor
	}
	return ""
}

// CheckHealth implements the ai.Provider interface. The model listing is
// non-billed and cached, so it doubles as a reachability probe.
func (p *Provider) CheckHealth(ctx context.Context) ai.HealthStatus {
	if p.apiKey == "" {
		return ai.HealthStatus{
			Error:             envAPIKey + " is not set",
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

func (p *Provider) requireKey() error {
	if p.apiKey == "" {
		return ai.NewConfigurationError(Name, envAPIKey, SetupInstructions)
	}
	return nil
}

// attributionHeaders returns the OpenRouter app attribution headers; auth
// itself rides the standard Bearer header.
func (p *Provider) attributionHeaders() []utils.HeaderOption {
	return []utils.HeaderOption{
		{Key: "HTTP-Referer", Value: p.referer},
		{Key: "X-Title", Value: p.title},
	}
}
