package openrouter

import (
	"context"
	"net/http"

	"github.com/llmwire/llmwire/internal/utils"
	"github.com/llmwire/llmwire/providers/ai"
	"github.com/llmwire/llmwire/providers/ai/normalize"
	"github.com/llmwire/llmwire/providers/observability"
)

// GenerateStream implements the ai.Provider interface. The request sets
// stream and stream_options.include_usage, so along with the delta frames
// the backend emits one final usage-bearing frame before the DONE sentinel;
// the normalizer turns it into a usage chunk.
func (p *Provider) GenerateStream(ctx context.Context, request ai.Request) (*ai.Stream, error) {
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
			observability.String(observability.AttrStreamFormat, string(ai.FormatChatDelta)),
		)
	}

	if observer != nil {
		observer.Trace(ctx, "OpenRouter provider preparing streaming request",
			observability.String(observability.AttrLLMProvider, Name),
			observability.String(observability.AttrLLMModel, model),
			observability.Int(observability.AttrRequestTurnsCount, len(request.Turns)),
			observability.Int(observability.AttrRequestToolsCount, len(request.Tools)),
		)
	}

	if err := p.requireKey(); err != nil {
		return nil, err
	}

	wireRequest, err := toWire(request, model, true)
	if err != nil {
		return nil, err
	}

	httpResponse, err := utils.Retry(ctx, p.retry, func() (*http.Response, error) {
		return utils.DoPostStream(ctx, p.client, Name, p.baseURL+"/chat/completions",
			p.apiKey, wireRequest, p.attributionHeaders()...)
	})
	if err != nil {
		return nil, err
	}

	return normalize.SSEStream(ctx, Name, httpResponse.Body,
		normalize.WithFormat(ai.FormatChatDelta),
		normalize.WithModel(model),
	), nil
}
