// Package ollama provides the Ollama client for the AI gateway. Ollama is
// the local provider: it requires no credential and talks to a fixed local
// endpoint.
package ollama

import (
	"context"
	"net/http"

	"sitemind/internal/core"
	"sitemind/internal/llmclient"
	"sitemind/internal/providers"
)

const defaultBaseURL = "http://localhost:11434"

func init() {
	providers.Register(core.ProviderOllama, func(apiKey string, opts providers.Options) core.Client {
		p := New()
		if opts.BaseURL != "" {
			p.SetBaseURL(opts.BaseURL)
		}
		return p
	})
}

// Provider implements core.Client for Ollama.
type Provider struct {
	client *llmclient.Client
}

// New creates a new Ollama provider. No API key is needed.
func New() *Provider {
	p := &Provider{}
	p.client = llmclient.New(llmclient.DefaultConfig("ollama", defaultBaseURL), nil)
	return p
}

// NewWithHTTPClient creates a new Ollama provider with a custom HTTP client
func NewWithHTTPClient(httpClient *http.Client) *Provider {
	p := &Provider{}
	p.client = llmclient.NewWithHTTPClient(httpClient, llmclient.DefaultConfig("ollama", defaultBaseURL), nil)
	return p
}

// SetBaseURL allows configuring a custom base URL for the provider
func (p *Provider) SetBaseURL(url string) {
	p.client.SetBaseURL(url)
}

// ollamaRequest is the native /api/generate body: a single prompt field
// with options, not a chat-message array.
type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
}

type ollamaResponse struct {
	Model     string `json:"model"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
	EvalCount int    `json:"eval_count"`
}

// Complete sends one generate request to the local Ollama daemon
func (p *Provider) Complete(ctx context.Context, prompt, model string) (string, error) {
	req := ollamaRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			NumPredict:  providers.MaxOutputTokens,
			Temperature: providers.Temperature,
		},
	}

	var resp ollamaResponse
	err := p.client.Do(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/api/generate",
		Body:     req,
	}, &resp)
	if err != nil {
		return "", err
	}

	if resp.Response == "" {
		return "", core.NewProviderError("ollama", http.StatusBadGateway, "response contained no text", nil)
	}
	return resp.Response, nil
}

// TestConnection issues a trivial completion against the default model
func (p *Provider) TestConnection(ctx context.Context) error {
	info, _ := core.LookupProvider(core.ProviderOllama)
	_, err := p.Complete(ctx, providers.ConnectionTestPrompt, info.DefaultModel)
	return err
}
