package utils

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/llmwire/llmwire/providers/ai"
	"github.com/llmwire/llmwire/providers/observability"
)

// DoPostStream performs an HTTP POST and returns the response with the body
// left open for SSE reading. The caller must close the body when done. On
// error paths the body is drained and closed before returning.
//
// Failure classification matches [DoPostSync]: transport failures are
// transient [ai.Error] values, non-2xx statuses go through
// [ai.ErrorFromStatus] with the Retry-After header attached.
func DoPostStream(ctx context.Context, client *http.Client, provider, url, apiKey string, body any, headers ...HeaderOption) (*http.Response, error) {
	span := observability.SpanFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling body: %w", err)
	}

	if span != nil {
		span.AddEvent("http.stream_request.prepared",
			observability.String(observability.AttrHTTPMethod, "POST"),
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPRequestBodySize, len(jsonBody)),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	// Custom headers apply last so they can override Authorization when a
	// backend authenticates differently.
	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}

	requestStart := time.Now()
	response, err := httpClient.Do(req)
	requestDuration := time.Since(requestStart)

	if err != nil {
		if span != nil {
			span.AddEvent("http.stream_request.error",
				observability.Error(err),
				observability.Duration("http.request.duration", requestDuration),
			)
		}
		if errors.Is(err, context.Canceled) {
			return response, err
		}
		return response, ai.TransportError(provider, err)
	}

	// For non-2xx responses, read the body and close it before returning the
	// classified error. Body reads are capped to avoid unbounded allocation.
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		defer CloseWithLog(response.Body)
		errorBody, readErr := io.ReadAll(io.LimitReader(response.Body, maxResponseBodySize))
		if readErr != nil {
			errorBody = []byte(fmt.Sprintf("(failed to read body: %v)", readErr))
		}
		statusErr := ai.ErrorFromStatus(provider, response.StatusCode, TruncateStringDefault(string(errorBody)))
		statusErr.RetryAfter = ParseRetryAfter(response.Header)
		return response, statusErr
	}

	if span != nil {
		span.AddEvent("http.stream_response.started",
			observability.Int(observability.AttrHTTPStatusCode, response.StatusCode),
			observability.Duration("http.request.duration", requestDuration),
		)
	}

	return response, nil
}

// maxSSELineSize is the maximum size of a single SSE line (1 MB).
// The default bufio.Scanner limit is 64 KiB, which is too small for
// large SSE events such as tool-call argument deltas or long completions.
// If a line exceeds this limit the scanner returns a wrapped
// bufio.ErrTooLong via the Next() error path.
const maxSSELineSize = 1 * 1024 * 1024

// maxResponseBodySize is the maximum response body size (10 MB). Enforced via
// io.LimitReader to prevent unbounded memory allocation from rogue responses.
const maxResponseBodySize int64 = 10 * 1024 * 1024

// SSEScanner reads Server-Sent Events from an io.Reader. It handles
// multi-line data fields, skips comments, empty lines, and non-data fields
// (event:, id:, retry:), and detects the [DONE] sentinel used by
// OpenAI-compatible APIs.
type SSEScanner struct {
	scanner *bufio.Scanner
}

// NewSSEScanner creates an SSEScanner reading from reader. Individual SSE
// lines up to maxSSELineSize (1 MB) are supported; longer lines cause Next()
// to return an error wrapping bufio.ErrTooLong.
func NewSSEScanner(reader io.Reader) *SSEScanner {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)
	return &SSEScanner{
		scanner: scanner,
	}
}

// Next returns the next SSE data payload as a string.
// It returns io.EOF when the stream ends or the [DONE] sentinel arrives.
//
// Multi-line data fields (multiple consecutive "data:" lines) are joined
// with newlines into a single payload, per the SSE specification.
func (sseScanner *SSEScanner) Next() (string, error) {
	var dataLines []string

	for sseScanner.scanner.Scan() {
		line := sseScanner.scanner.Text()

		// Empty line ends an event; flush accumulated data lines.
		if line == "" {
			if len(dataLines) > 0 {
				return strings.Join(dataLines, "\n"), nil
			}
			continue
		}

		// SSE comment.
		if strings.HasPrefix(line, ":") {
			continue
		}

		if strings.HasPrefix(line, "data:") {
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

			if data == "[DONE]" {
				return "", io.EOF
			}

			dataLines = append(dataLines, data)
			continue
		}

		// Other SSE fields (event:, id:, retry:) carry no payload here.
	}

	if err := sseScanner.scanner.Err(); err != nil {
		return "", fmt.Errorf("SSE scanner error: %w", err)
	}

	// Flush any data lines left when the stream ended without a blank line.
	if len(dataLines) > 0 {
		return strings.Join(dataLines, "\n"), nil
	}

	return "", io.EOF
}
