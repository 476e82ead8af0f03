// Package llmclient provides the base HTTP client shared by all provider
// variants: request marshaling, standardized error parsing and optional
// retries on transient upstream failures.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"time"

	"sitemind/internal/core"
	"sitemind/internal/httpclient"
)

// Config holds configuration for the LLM client
type Config struct {
	// ProviderName identifies the provider for error messages
	ProviderName string

	// BaseURL is the API base URL
	BaseURL string

	// MaxRetries is the number of retry attempts on retryable statuses.
	// Zero (the default) keeps the one-call-per-operation contract: a
	// completion or connection test consumes exactly one upstream request.
	MaxRetries     int
	InitialBackoff time.Duration
	BackoffFactor  float64
}

// DefaultConfig returns default client configuration
func DefaultConfig(providerName, baseURL string) Config {
	return Config{
		ProviderName:   providerName,
		BaseURL:        baseURL,
		MaxRetries:     0,
		InitialBackoff: time.Second,
		BackoffFactor:  2.0,
	}
}

// HeaderSetter is a function that sets headers on an HTTP request
type HeaderSetter func(req *http.Request)

// Client is a base HTTP client for LLM providers
type Client struct {
	httpClient   *http.Client
	config       Config
	headerSetter HeaderSetter
}

// New creates a new LLM client with the given configuration
func New(config Config, headerSetter HeaderSetter) *Client {
	return &Client{
		httpClient:   httpclient.NewDefaultHTTPClient(),
		config:       config,
		headerSetter: headerSetter,
	}
}

// NewWithHTTPClient creates a new LLM client with a custom HTTP client
func NewWithHTTPClient(httpClient *http.Client, config Config, headerSetter HeaderSetter) *Client {
	if httpClient == nil {
		httpClient = httpclient.NewDefaultHTTPClient()
	}
	return &Client{
		httpClient:   httpClient,
		config:       config,
		headerSetter: headerSetter,
	}
}

// SetBaseURL updates the base URL
func (c *Client) SetBaseURL(url string) {
	c.config.BaseURL = url
}

// BaseURL returns the current base URL
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Request represents an HTTP request to be made
type Request struct {
	Method   string
	Endpoint string
	Body     interface{} // JSON marshaled if not nil
	Headers  map[string]string
	// Query holds query-string parameters (some providers authenticate here)
	Query map[string]string
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
}

// Do executes a request and unmarshals the JSON response into result.
func (c *Client) Do(ctx context.Context, req Request, result interface{}) error {
	resp, err := c.DoRaw(ctx, req)
	if err != nil {
		return err
	}

	if result != nil {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return core.NewProviderError(c.config.ProviderName, http.StatusBadGateway, "failed to unmarshal response: "+err.Error(), err)
		}
	}

	return nil
}

// DoRaw executes a request, retrying on transient statuses when configured,
// and returns the raw response.
func (c *Client) DoRaw(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	maxAttempts := c.config.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.calculateBackoff(attempt)):
			}
		}

		resp, err := c.doRequest(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}

		if c.isRetryable(resp.StatusCode) && attempt < maxAttempts-1 {
			lastErr = core.ParseProviderError(c.config.ProviderName, resp.StatusCode, resp.Body, nil)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, core.ParseProviderError(c.config.ProviderName, resp.StatusCode, resp.Body, nil)
		}

		return resp, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, core.NewProviderError(c.config.ProviderName, http.StatusBadGateway, "request failed after retries", nil)
}

// doRequest executes a single HTTP request without retries
func (c *Client) doRequest(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.NewProviderError(c.config.ProviderName, http.StatusBadGateway, "failed to send request: "+err.Error(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.NewProviderError(c.config.ProviderName, http.StatusBadGateway, "failed to read response: "+err.Error(), err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// buildRequest creates an HTTP request from a Request
func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	url := c.config.BaseURL + req.Endpoint

	var bodyReader io.Reader
	if req.Body != nil {
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			return nil, core.NewProviderError(c.config.ProviderName, http.StatusInternalServerError, "failed to marshal request", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, bodyReader)
	if err != nil {
		return nil, core.NewProviderError(c.config.ProviderName, http.StatusInternalServerError, "failed to create request", err)
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for key, value := range req.Query {
			q.Set(key, value)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	// Provider-specific headers (auth placement differs per provider)
	if c.headerSetter != nil {
		c.headerSetter(httpReq)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	return httpReq, nil
}

// calculateBackoff calculates the backoff duration for a given attempt
func (c *Client) calculateBackoff(attempt int) time.Duration {
	return time.Duration(float64(c.config.InitialBackoff) * math.Pow(c.config.BackoffFactor, float64(attempt-1)))
}

// isRetryable returns true if the status code indicates a retryable error
func (c *Client) isRetryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusBadGateway ||
		statusCode == http.StatusGatewayTimeout
}
