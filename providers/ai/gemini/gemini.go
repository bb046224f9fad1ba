package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/llmwire/llmwire/internal/modelcache"
	"github.com/llmwire/llmwire/internal/utils"
	"github.com/llmwire/llmwire/providers/ai"
	"github.com/llmwire/llmwire/providers/ai/normalize"
	"github.com/llmwire/llmwire/providers/observability"
)

const (
	// Name is the stable backend identifier, used in registry resolution and
	// model-cache keys.
	Name = "gemini"

	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.0-flash"

	envAPIKey  = "GEMINI_API_KEY"
	envBaseURL = "GEMINI_API_BASE_URL"

	// SetupInstructions tells a human how to make this backend usable.
	SetupInstructions = "export GEMINI_API_KEY=<key> (create one at https://aistudio.google.com/apikey)"
)

// Provider implements [ai.Provider] for the Gemini API.
type Provider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cache   *modelcache.Cache
	retry   utils.RetryConfig
}

// New creates a Gemini provider configured from the environment.
// Environment variables:
//   - GEMINI_API_KEY: API key for authentication
//   - GEMINI_API_BASE_URL: base URL override (optional, defaults to Google's API)
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

// WithModelCache shares a model-list cache across providers. Without it each
// provider instance keeps its own.
func (p *Provider) WithModelCache(cache *modelcache.Cache) *Provider {
	p.cache = cache
	return p
}

// Name implements the ai.Provider interface.
func (p *Provider) Name() string {
	return Name
}

// Generate implements the ai.Provider interface. The response payload is
// normalized from the candidate-based format; transient failures are retried
// with bounded backoff before surfacing.
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
		observer.Trace(ctx, "Gemini provider preparing request",
			observability.String(observability.AttrLLMProvider, Name),
			observability.String(observability.AttrLLMModel, model),
			observability.Int(observability.AttrRequestTurnsCount, len(request.Turns)),
			observability.Int(observability.AttrRequestToolsCount, len(request.Tools)),
		)
	}

	if err := p.requireKey(); err != nil {
		return nil, err
	}

	wireRequest, err := toWire(request)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, url.PathEscape(model))

	raw, err := utils.Retry(ctx, p.retry, func() (json.RawMessage, error) {
		httpResponse, payload, postErr := utils.DoPostSync[json.RawMessage](
			ctx, p.client, Name, endpoint, "", wireRequest, p.authHeader(),
		)
		if postErr != nil {
			return nil, postErr
		}
		if payload == nil {
			return nil, &ai.Error{
				Kind:       ai.KindProtocol,
				Provider:   Name,
				HTTPStatus: httpResponse.StatusCode,
				Message:    "empty response body",
			}
		}
		return *payload, nil
	})
	if err != nil {
		if observer != nil {
			observer.Trace(ctx, "request failed", observability.Error(err))
		}
		return nil, err
	}

	// A blocked prompt yields no candidates; surface the block reason rather
	// than a generic empty-response error.
	if block := gjson.GetBytes(raw, "promptFeedback.blockReason").Str; block != "" && !gjson.GetBytes(raw, "candidates").IsArray() {
		return nil, &ai.Error{
			Kind:     ai.KindProtocol,
			Provider: Name,
			Message:  "prompt blocked by safety filter",
			Raw:      block,
		}
	}

	response, err := normalize.Reduce(Name, raw,
		normalize.WithFormat(ai.FormatCandidates),
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

// CountTokens implements the ai.Provider interface using the dedicated
// countTokens endpoint, so the result reflects the backend's own tokenizer.
func (p *Provider) CountTokens(ctx context.Context, text string) (int, error) {
	if err := p.requireKey(); err != nil {
		return 0, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:countTokens", p.baseURL, defaultModel)
	body := countTokensRequest{
		Contents: []content{{Parts: []part{{Text: text}}}},
	}

	httpResponse, result, err := utils.DoPostSync[countTokensResponse](
		ctx, p.client, Name, endpoint, "", body, p.authHeader(),
	)
	if err != nil {
		return 0, err
	}
	if result == nil {
		return 0, &ai.Error{
			Kind:       ai.KindProtocol,
			Provider:   Name,
			HTTPStatus: httpResponse.StatusCode,
			Message:    "empty countTokens response",
		}
	}
	return result.TotalTokens, nil
}

// ListModels implements the ai.Provider interface. The listing endpoint is
// paginated; pages are walked to the end and the merged result is cached.
func (p *Provider) ListModels(ctx context.Context) ([]ai.ModelInfo, error) {
	if err := p.requireKey(); err != nil {
		return nil, err
	}
	return p.cache.GetOrFetch(ctx, modelcache.Key(Name, p.apiKey), p.fetchModels)
}

func (p *Provider) fetchModels(ctx context.Context) ([]ai.ModelInfo, error) {
	var models []ai.ModelInfo

	pageToken := ""
	for {
		endpoint := p.baseURL + "/models?pageSize=200"
		if pageToken != "" {
			endpoint += "&pageToken=" + url.QueryEscape(pageToken)
		}

		_, page, err := utils.DoGetSync[modelsPage](ctx, p.client, Name, endpoint, "", p.authHeader())
		if err != nil {
			return nil, err
		}
		if page == nil {
			break
		}

		for _, model := range page.Models {
			models = append(models, ai.ModelInfo{
				ID:            strings.TrimPrefix(model.Name, "models/"),
				DisplayName:   model.DisplayName,
				Description:   model.Description,
				ContextLength: model.InputTokenLimit,
				OwnedBy:       "google",
			})
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	return models, nil
}

// CheckHealth implements the ai.Provider interface. The model list is free
// and cached, so it doubles as a reachability and key-validity probe.
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

// authHeader returns the Gemini-specific authentication header; the shared
// HTTP helpers' Bearer default stays unused.
func (p *Provider) authHeader() utils.HeaderOption {
	return utils.HeaderOption{Key: "x-goog-api-key", Value: p.apiKey}
}
