package custom

import (
	"context"
	"net/http"

	"github.com/llmwire/llmwire/internal/utils"
	"github.com/llmwire/llmwire/providers/ai"
	"github.com/llmwire/llmwire/providers/ai/normalize"
	"github.com/llmwire/llmwire/providers/observability"
)

// GenerateStream implements the ai.Provider interface. No frame format is
// pinned: the normalizer classifies the first decodable frame and sticks
// with it, so endpoints that stream chat deltas and endpoints that stream
// event-typed frames both work unconfigured.
func (p *Provider) GenerateStream(ctx context.Context, request ai.Request) (*ai.Stream, error) {
	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, p.name),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.String(observability.AttrLLMModel, request.Model),
		)
	}

	if observer != nil {
		observer.Trace(ctx, "custom provider preparing streaming request",
			observability.String(observability.AttrLLMProvider, p.name),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.Int(observability.AttrRequestTurnsCount, len(request.Turns)),
			observability.Int(observability.AttrRequestToolsCount, len(request.Tools)),
		)
	}

	if err := p.requireConfig(); err != nil {
		return nil, err
	}

	body, err := p.requestBody(request, true)
	if err != nil {
		return nil, err
	}

	httpResponse, err := utils.Retry(ctx, p.retry, func() (*http.Response, error) {
		return utils.DoPostStream(ctx, p.client, p.name, p.baseURL+"/chat/completions",
			p.apiKey, body, p.headers...)
	})
	if err != nil {
		return nil, err
	}

	return normalize.SSEStream(ctx, p.name, httpResponse.Body,
		normalize.WithModel(request.Model),
	), nil
}
