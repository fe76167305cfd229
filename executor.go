package x402agent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Response is one HTTP exchange result as seen by the negotiator.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Executor performs a single HTTP round trip. It is an external
// capability: one attempt, no redirects into payment logic, timeout
// bound by the implementation.
type Executor interface {
	Execute(ctx context.Context, method, target string, headers http.Header, body []byte) (*Response, error)
}

// HTTPExecutor is the default Executor backed by net/http.
type HTTPExecutor struct {
	Client *http.Client
}

var _ Executor = (*HTTPExecutor)(nil)

// NewHTTPExecutor creates an executor with the given request timeout.
func NewHTTPExecutor(timeout time.Duration) *HTTPExecutor {
	return &HTTPExecutor{
		Client: &http.Client{Timeout: timeout},
	}
}

// Execute implements Executor.
func (e *HTTPExecutor) Execute(ctx context.Context, method, target string, headers http.Header, body []byte) (*Response, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}, nil
}
