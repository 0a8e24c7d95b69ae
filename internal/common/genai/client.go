// internal/common/genai/client.go
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"intake-workers/internal/common/logger"
)

var (
	ErrCompletionUnavailable = errors.New("COMPLETION_SERVICE_UNAVAILABLE")
	ErrCompletionTimeout     = errors.New("COMPLETION_TIMEOUT")
)

// CompletionRequest is the payload sent to the completion service.
type CompletionRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature,omitempty"`
}

// CompletionResponse is the payload returned by the completion service.
type CompletionResponse struct {
	Response string `json:"response"`
}

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// Client talks to the external completion service. The service is treated
// as unreliable: callers must be prepared for ErrCompletionUnavailable,
// ErrCompletionTimeout, and empty or non-JSON response text.
type Client struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		// No client-level timeout; the per-call context bounds each attempt.
		client: &http.Client{},
		logger: log.With(map[string]interface{}{
			"component": "genai-client",
		}),
	}
}

// Complete issues one completion request with a bounded retry. Each attempt
// after the first waits an exponentially growing, jittered backoff.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompletionUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			backoff += time.Duration(rand.Int63n(int64(50 * time.Millisecond)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrCompletionTimeout
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/api/ai/complete", bytes.NewBuffer(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCompletionUnavailable, err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.config.APIKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		}

		resp, lastErr = c.client.Do(httpReq)

		// If the context expired during the request, report timeout immediately.
		if ctx.Err() != nil ||
			errors.Is(lastErr, context.DeadlineExceeded) ||
			errors.Is(lastErr, context.Canceled) {
			return nil, ErrCompletionTimeout
		}

		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrCompletionTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrCompletionUnavailable, lastErr)
	}

	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrCompletionUnavailable)
	}
	defer resp.Body.Close()

	var out CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrCompletionUnavailable, err)
	}

	c.logger.Debug("completion received", map[string]interface{}{
		"responseLength": len(out.Response),
	})

	return &out, nil
}
