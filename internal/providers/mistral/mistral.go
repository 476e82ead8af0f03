// Package mistral provides the Mistral AI client for the AI gateway.
package mistral

import (
	"context"
	"net/http"

	"sitemind/internal/core"
	"sitemind/internal/llmclient"
	"sitemind/internal/providers"
)

const defaultBaseURL = "https://api.mistral.ai/v1"

func init() {
	providers.Register(core.ProviderMistral, func(apiKey string, opts providers.Options) core.Client {
		p := New(apiKey)
		if opts.BaseURL != "" {
			p.SetBaseURL(opts.BaseURL)
		}
		return p
	})
}

// Provider implements core.Client for Mistral.
type Provider struct {
	client *llmclient.Client
	apiKey string
}

func New(apiKey string) *Provider {
	p := &Provider{apiKey: apiKey}
	p.client = llmclient.New(llmclient.DefaultConfig("mistral", defaultBaseURL), p.setHeaders)
	return p
}

func NewWithHTTPClient(apiKey string, httpClient *http.Client) *Provider {
	p := &Provider{apiKey: apiKey}
	p.client = llmclient.NewWithHTTPClient(httpClient, llmclient.DefaultConfig("mistral", defaultBaseURL), p.setHeaders)
	return p
}

func (p *Provider) SetBaseURL(url string) {
	p.client.SetBaseURL(url)
}

func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
}

// Complete sends one chat completion request to Mistral
func (p *Provider) Complete(ctx context.Context, prompt, model string) (string, error) {
	return providers.CompleteChat(ctx, p.client, "mistral", prompt, model)
}

// TestConnection issues a trivial completion against the default model
func (p *Provider) TestConnection(ctx context.Context) error {
	info, _ := core.LookupProvider(core.ProviderMistral)
	_, err := p.Complete(ctx, providers.ConnectionTestPrompt, info.DefaultModel)
	return err
}
