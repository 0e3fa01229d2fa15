// Package quality provides an HTTP client for the external requirement
// quality analyzer service. The service scores a single requirement's
// text 0-100 with a verdict label and improvement suggestions; the
// document validator gates on the score.
package quality

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/c360studio/reqmark/document"
	"github.com/google/uuid"
)

// maxResponseSize limits the analyzer response body to prevent memory
// exhaustion.
const maxResponseSize = 1 * 1024 * 1024 // 1MB

// Client calls the quality analyzer service with retry support.
// It implements document.Analyzer.
type Client struct {
	endpoint    string
	httpClient  *http.Client
	retryConfig RetryConfig
	logger      *slog.Logger
}

// Compile-time check that Client implements document.Analyzer.
var _ document.Analyzer = (*Client)(nil)

// analyzeRequest is the wire request to the analyzer service.
type analyzeRequest struct {
	Text string `json:"text"`
}

// analyzeResponse is the wire response from the analyzer service.
type analyzeResponse struct {
	Score       int      `json:"score"`
	Verdict     string   `json:"verdict"`
	Suggestions []string `json:"suggestions"`
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(cfg RetryConfig) ClientOption {
	return func(client *Client) {
		client.retryConfig = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// NewClient creates a new analyzer client for the given endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    endpoint,
		retryConfig: DefaultRetryConfig(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Analyze submits requirement text for scoring, retrying transient
// failures with exponential backoff.
func (c *Client) Analyze(ctx context.Context, text string) (*document.Analysis, error) {
	if text == "" {
		return nil, NewFatalError(fmt.Errorf("text is required"))
	}

	requestID := uuid.New().String()

	var lastErr error
	for attempt := 1; attempt <= c.retryConfig.MaxAttempts; attempt++ {
		analysis, err := c.doRequest(ctx, requestID, text)
		if err == nil {
			return analysis, nil
		}

		lastErr = err

		if IsFatal(err) {
			return nil, err
		}

		if attempt < c.retryConfig.MaxAttempts {
			backoff := c.calculateBackoff(attempt)
			c.logger.Debug("Analyzer request failed, retrying",
				"request_id", requestID,
				"attempt", attempt,
				"max_attempts", c.retryConfig.MaxAttempts,
				"backoff", backoff,
				"error", err)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("analyzer request %s failed after %d attempts: %w", requestID, c.retryConfig.MaxAttempts, lastErr)
}

// calculateBackoff computes exponential backoff duration with jitter.
// Jitter prevents thundering herd when multiple clients retry simultaneously.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= c.retryConfig.BackoffMultiplier
	}

	backoff := time.Duration(float64(c.retryConfig.BackoffBase) * multiplier)
	if backoff > c.retryConfig.MaxBackoff {
		backoff = c.retryConfig.MaxBackoff
	}

	jitter := float64(backoff) * 0.25 * (rand.Float64()*2 - 1)
	return backoff + time.Duration(jitter)
}

// doRequest executes a single HTTP request to the analyzer endpoint.
func (c *Client) doRequest(ctx context.Context, requestID, text string) (*document.Analysis, error) {
	body, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("create HTTP request: %w", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Network errors are transient
		return nil, NewTransientError(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, NewTransientError(fmt.Errorf("read response body: %w", err))
	}

	switch {
	case httpResp.StatusCode == http.StatusOK:
	case httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500:
		return nil, NewTransientError(fmt.Errorf("analyzer returned status %d: %s", httpResp.StatusCode, respBody))
	default:
		return nil, NewFatalError(fmt.Errorf("analyzer returned status %d: %s", httpResp.StatusCode, respBody))
	}

	var resp analyzeResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, NewFatalError(fmt.Errorf("invalid analyzer response: %w", err))
	}

	if resp.Score < 0 || resp.Score > 100 {
		return nil, NewFatalError(fmt.Errorf("analyzer score %d out of range", resp.Score))
	}

	return &document.Analysis{
		Score:       resp.Score,
		Verdict:     resp.Verdict,
		Suggestions: resp.Suggestions,
	}, nil
}
