// Package gemini provides the Google Gemini client for the AI gateway.
package gemini

import (
	"context"
	"fmt"
	"net/http"

	"sitemind/internal/core"
	"sitemind/internal/llmclient"
	"sitemind/internal/providers"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

func init() {
	providers.Register(core.ProviderGemini, func(apiKey string, opts providers.Options) core.Client {
		p := New(apiKey)
		if opts.BaseURL != "" {
			p.SetBaseURL(opts.BaseURL)
		}
		return p
	})
}

// Provider implements core.Client for Google Gemini using the native
// generateContent API.
type Provider struct {
	client *llmclient.Client
	apiKey string
}

// New creates a new Gemini provider
func New(apiKey string) *Provider {
	p := &Provider{apiKey: apiKey}
	p.client = llmclient.New(llmclient.DefaultConfig("gemini", defaultBaseURL), nil)
	return p
}

// NewWithHTTPClient creates a new Gemini provider with a custom HTTP client
func NewWithHTTPClient(apiKey string, httpClient *http.Client) *Provider {
	p := &Provider{apiKey: apiKey}
	p.client = llmclient.NewWithHTTPClient(httpClient, llmclient.DefaultConfig("gemini", defaultBaseURL), nil)
	return p
}

// SetBaseURL allows configuring a custom base URL for the provider
func (p *Provider) SetBaseURL(url string) {
	p.client.SetBaseURL(url)
}

// geminiRequest is the native generateContent request body: a contents
// array plus a generationConfig object instead of flat parameters.
type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

// geminiResponse is the generateContent response envelope: candidates with
// nested content parts.
type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Complete sends one generateContent request to Gemini.
//
// The API key travels as a query parameter; this is what Google's native
// API requires, and it means the key can end up in proxy and access logs.
func (p *Provider) Complete(ctx context.Context, prompt, model string) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			MaxOutputTokens: providers.MaxOutputTokens,
			Temperature:     providers.Temperature,
		},
	}

	var resp geminiResponse
	err := p.client.Do(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: fmt.Sprintf("/models/%s:generateContent", model),
		Body:     req,
		Query:    map[string]string{"key": p.apiKey},
	}, &resp)
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", core.NewProviderError("gemini", http.StatusBadGateway, "response contained no candidates", nil)
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// TestConnection issues a trivial completion against the default model
func (p *Provider) TestConnection(ctx context.Context) error {
	info, _ := core.LookupProvider(core.ProviderGemini)
	_, err := p.Complete(ctx, providers.ConnectionTestPrompt, info.DefaultModel)
	return err
}
