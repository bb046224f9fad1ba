package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/llmwire/llmwire/providers/ai"
	"github.com/llmwire/llmwire/providers/observability"
)

// HeaderOption is a single HTTP header applied to an outgoing request after
// the defaults, so it can override Content-Type or Authorization when a
// backend authenticates differently (x-goog-api-key, custom gateways).
type HeaderOption struct {
	Key   string
	Value string
}

// CloseWithLog closes c and logs a warning when Close fails. Meant for defers
// where a close error must not override the primary error of the function.
func CloseWithLog(c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err.Error())
	}
}

// DoPostSync performs a synchronous HTTP POST with a JSON body and parses the
// JSON response into OutputStruct. It handles observability tracing,
// authorization headers, response decompression, and resource cleanup.
//
// Failures are returned as typed [ai.Error] values so callers can branch on
// kind instead of matching message text:
//   - transport failures (dial, TLS, timeout) are transient
//   - non-2xx statuses are classified by [ai.ErrorFromStatus], with any
//     Retry-After header attached
//   - unparseable 2xx bodies are protocol errors carrying a body preview
//
// Context cancellation is propagated as-is. The response body is always
// closed before returning.
func DoPostSync[OutputStruct any](ctx context.Context, client *http.Client, provider, url, apiKey string, body any, headers ...HeaderOption) (*http.Response, *OutputStruct, error) {
	span := observability.SpanFromContext(ctx)

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("error marshaling body: %w", err)
	}

	if span != nil {
		span.AddEvent("http.request.prepared",
			observability.String(observability.AttrHTTPMethod, "POST"),
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPRequestBodySize, len(jsonBody)),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return roundTripJSON[OutputStruct](ctx, client, provider, req, apiKey, headers)
}

// DoGetSync performs a synchronous HTTP GET and parses the JSON response into
// OutputStruct. Used for listing and health endpoints. Error handling matches
// [DoPostSync].
func DoGetSync[OutputStruct any](ctx context.Context, client *http.Client, provider, url, apiKey string, headers ...HeaderOption) (*http.Response, *OutputStruct, error) {
	span := observability.SpanFromContext(ctx)

	if span != nil {
		span.AddEvent("http.request.prepared",
			observability.String(observability.AttrHTTPMethod, "GET"),
			observability.String(observability.AttrHTTPURL, url),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}

	return roundTripJSON[OutputStruct](ctx, client, provider, req, apiKey, headers)
}

// roundTripJSON sends req, reads the (possibly compressed) body, and decodes
// it as JSON. Shared by DoPostSync and DoGetSync.
func roundTripJSON[OutputStruct any](ctx context.Context, client *http.Client, provider string, req *http.Request, apiKey string, headers []HeaderOption) (*http.Response, *OutputStruct, error) {
	span := observability.SpanFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	// Request compressed bodies explicitly. Setting Accept-Encoding disables
	// the transport's transparent gzip, so decompression is handled here.
	req.Header.Set("Accept-Encoding", acceptEncodings)
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}

	requestStart := time.Now()
	res, err := httpClient.Do(req)
	requestDuration := time.Since(requestStart)

	if err != nil {
		if span != nil {
			span.AddEvent("http.request.error",
				observability.Error(err),
				observability.Duration("http.request.duration", requestDuration),
			)
		}
		if errors.Is(err, context.Canceled) {
			return res, nil, err
		}
		return res, nil, ai.TransportError(provider, err)
	}
	defer CloseWithLog(res.Body)

	bodyReader, err := DecompressReader(res.Body, res.Header.Get("Content-Encoding"))
	if err != nil {
		return res, nil, &ai.Error{
			Kind:       ai.KindProtocol,
			Provider:   provider,
			HTTPStatus: res.StatusCode,
			Message:    "failed to decode compressed response",
			Cause:      err,
		}
	}

	respBody, err := io.ReadAll(io.LimitReader(bodyReader, maxResponseBodySize))
	if err != nil {
		return res, nil, ai.TransportError(provider, fmt.Errorf("error reading response body: %w", err))
	}

	if span != nil {
		span.AddEvent("http.response.received",
			observability.Int(observability.AttrHTTPStatusCode, res.StatusCode),
			observability.Int(observability.AttrHTTPResponseBodySize, len(respBody)),
			observability.Duration("http.request.duration", requestDuration),
		)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		statusErr := ai.ErrorFromStatus(provider, res.StatusCode, TruncateStringDefault(string(respBody)))
		statusErr.RetryAfter = ParseRetryAfter(res.Header)
		return res, nil, statusErr
	}

	var resStruct OutputStruct
	if err = json.Unmarshal(respBody, &resStruct); err != nil {
		return res, nil, &ai.Error{
			Kind:       ai.KindProtocol,
			Provider:   provider,
			HTTPStatus: res.StatusCode,
			Message:    "unexpected response shape",
			Raw:        TruncateStringDefault(string(respBody)),
			Cause:      err,
		}
	}

	return res, &resStruct, nil
}
