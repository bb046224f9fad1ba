package gemini

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/llmwire/llmwire/internal/utils"
	"github.com/llmwire/llmwire/providers/ai"
	"github.com/llmwire/llmwire/providers/ai/normalize"
	"github.com/llmwire/llmwire/providers/observability"
)

// GenerateStream implements the ai.Provider interface using the
// streamGenerateContent endpoint with alt=sse. Each SSE event carries a
// candidate-shaped payload whose parts are incremental; the shared normalizer
// turns them into chunks.
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
			observability.String(observability.AttrStreamFormat, string(ai.FormatCandidates)),
		)
	}

	if observer != nil {
		observer.Trace(ctx, "Gemini provider preparing streaming request",
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

	endpoint := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", p.baseURL, url.PathEscape(model))

	httpResponse, err := utils.Retry(ctx, p.retry, func() (*http.Response, error) {
		return utils.DoPostStream(ctx, p.client, Name, endpoint, "", wireRequest, p.authHeader())
	})
	if err != nil {
		return nil, err
	}

	return normalize.SSEStream(ctx, Name, httpResponse.Body,
		normalize.WithFormat(ai.FormatCandidates),
		normalize.WithModel(model),
	), nil
}
