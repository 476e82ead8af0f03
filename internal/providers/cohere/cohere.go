// Package cohere provides the Cohere client for the AI gateway.
package cohere

import (
	"context"
	"net/http"

	"sitemind/internal/core"
	"sitemind/internal/llmclient"
	"sitemind/internal/providers"
)

const defaultBaseURL = "https://api.cohere.com/v1"

func init() {
	providers.Register(core.ProviderCohere, func(apiKey string, opts providers.Options) core.Client {
		p := New(apiKey)
		if opts.BaseURL != "" {
			p.SetBaseURL(opts.BaseURL)
		}
		return p
	})
}

// Provider implements core.Client for Cohere.
type Provider struct {
	client *llmclient.Client
	apiKey string
}

func New(apiKey string) *Provider {
	p := &Provider{apiKey: apiKey}
	p.client = llmclient.New(llmclient.DefaultConfig("cohere", defaultBaseURL), p.setHeaders)
	return p
}

func NewWithHTTPClient(apiKey string, httpClient *http.Client) *Provider {
	p := &Provider{apiKey: apiKey}
	p.client = llmclient.NewWithHTTPClient(httpClient, llmclient.DefaultConfig("cohere", defaultBaseURL), p.setHeaders)
	return p
}

func (p *Provider) SetBaseURL(url string) {
	p.client.SetBaseURL(url)
}

func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
}

// cohereRequest is Cohere's chat request: a single message field rather
// than a messages array.
type cohereRequest struct {
	Model       string  `json:"model"`
	Message     string  `json:"message"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// cohereResponse is Cohere's chat response envelope. The reply text lives
// at the top level, not under a choices array.
type cohereResponse struct {
	Text         string `json:"text"`
	GenerationID string `json:"generation_id"`
	FinishReason string `json:"finish_reason"`
	Meta         struct {
		BilledUnits struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"billed_units"`
	} `json:"meta"`
}

// Complete sends one chat request to Cohere
func (p *Provider) Complete(ctx context.Context, prompt, model string) (string, error) {
	req := cohereRequest{
		Model:       model,
		Message:     prompt,
		MaxTokens:   providers.MaxOutputTokens,
		Temperature: providers.Temperature,
	}

	var resp cohereResponse
	err := p.client.Do(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/chat",
		Body:     req,
	}, &resp)
	if err != nil {
		return "", err
	}

	if resp.Text == "" {
		return "", core.NewProviderError("cohere", http.StatusBadGateway, "response contained no text", nil)
	}
	return resp.Text, nil
}

// TestConnection issues a trivial completion against the default model
func (p *Provider) TestConnection(ctx context.Context) error {
	info, _ := core.LookupProvider(core.ProviderCohere)
	_, err := p.Complete(ctx, providers.ConnectionTestPrompt, info.DefaultModel)
	return err
}
