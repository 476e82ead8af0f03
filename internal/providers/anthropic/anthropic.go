// Package anthropic provides the Anthropic client for the AI gateway.
package anthropic

import (
	"context"
	"net/http"

	"sitemind/internal/core"
	"sitemind/internal/llmclient"
	"sitemind/internal/providers"
)

const (
	defaultBaseURL      = "https://api.anthropic.com/v1"
	anthropicAPIVersion = "2023-06-01"
)

func init() {
	// Self-register with the factory
	providers.Register(core.ProviderAnthropic, func(apiKey string, opts providers.Options) core.Client {
		p := New(apiKey)
		if opts.BaseURL != "" {
			p.SetBaseURL(opts.BaseURL)
		}
		return p
	})
}

// Provider implements core.Client for Anthropic.
type Provider struct {
	client *llmclient.Client
	apiKey string
}

// New creates a new Anthropic provider
func New(apiKey string) *Provider {
	p := &Provider{apiKey: apiKey}
	p.client = llmclient.New(llmclient.DefaultConfig("anthropic", defaultBaseURL), p.setHeaders)
	return p
}

// NewWithHTTPClient creates a new Anthropic provider with a custom HTTP client
func NewWithHTTPClient(apiKey string, httpClient *http.Client) *Provider {
	p := &Provider{apiKey: apiKey}
	p.client = llmclient.NewWithHTTPClient(httpClient, llmclient.DefaultConfig("anthropic", defaultBaseURL), p.setHeaders)
	return p
}

// SetBaseURL allows configuring a custom base URL for the provider
func (p *Provider) SetBaseURL(url string) {
	p.client.SetBaseURL(url)
}

// setHeaders sets Anthropic's auth headers. Anthropic uses a custom
// x-api-key header rather than a bearer token.
func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
}

// anthropicRequest represents the Anthropic Messages API request format
type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse represents the Anthropic Messages API response format
type anthropicResponse struct {
	ID      string `json:"id"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete sends one Messages API request to Anthropic
func (p *Provider) Complete(ctx context.Context, prompt, model string) (string, error) {
	req := anthropicRequest{
		Model:       model,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
		MaxTokens:   providers.MaxOutputTokens,
		Temperature: providers.Temperature,
	}

	var resp anthropicResponse
	err := p.client.Do(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/messages",
		Body:     req,
	}, &resp)
	if err != nil {
		return "", err
	}

	if len(resp.Content) == 0 {
		return "", core.NewProviderError("anthropic", http.StatusBadGateway, "response contained no content blocks", nil)
	}
	return resp.Content[0].Text, nil
}

// TestConnection issues a trivial completion against the default model.
// This consumes one real quota unit; there is no cheaper health check.
func (p *Provider) TestConnection(ctx context.Context) error {
	info, _ := core.LookupProvider(core.ProviderAnthropic)
	_, err := p.Complete(ctx, providers.ConnectionTestPrompt, info.DefaultModel)
	return err
}
