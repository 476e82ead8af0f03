// Package openai provides the OpenAI client for the AI gateway.
package openai

import (
	"context"
	"net/http"

	"sitemind/internal/core"
	"sitemind/internal/llmclient"
	"sitemind/internal/providers"
)

const defaultBaseURL = "https://api.openai.com/v1"

func init() {
	// Self-register with the factory
	providers.Register(core.ProviderOpenAI, func(apiKey string, opts providers.Options) core.Client {
		p := New(apiKey)
		if opts.BaseURL != "" {
			p.SetBaseURL(opts.BaseURL)
		}
		return p
	})
}

// Provider implements core.Client for OpenAI.
type Provider struct {
	client *llmclient.Client
	apiKey string
}

// New creates a new OpenAI provider
func New(apiKey string) *Provider {
	p := &Provider{apiKey: apiKey}
	p.client = llmclient.New(llmclient.DefaultConfig("openai", defaultBaseURL), p.setHeaders)
	return p
}

// NewWithHTTPClient creates a new OpenAI provider with a custom HTTP client
func NewWithHTTPClient(apiKey string, httpClient *http.Client) *Provider {
	p := &Provider{apiKey: apiKey}
	p.client = llmclient.NewWithHTTPClient(httpClient, llmclient.DefaultConfig("openai", defaultBaseURL), p.setHeaders)
	return p
}

// SetBaseURL allows configuring a custom base URL for the provider
func (p *Provider) SetBaseURL(url string) {
	p.client.SetBaseURL(url)
}

func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
}

// Complete sends one chat completion request to OpenAI
func (p *Provider) Complete(ctx context.Context, prompt, model string) (string, error) {
	return providers.CompleteChat(ctx, p.client, "openai", prompt, model)
}

// TestConnection issues a trivial completion against the default model.
// This consumes one real quota unit; there is no cheaper health check.
func (p *Provider) TestConnection(ctx context.Context) error {
	info, _ := core.LookupProvider(core.ProviderOpenAI)
	_, err := p.Complete(ctx, providers.ConnectionTestPrompt, info.DefaultModel)
	return err
}
