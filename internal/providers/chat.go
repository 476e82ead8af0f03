package providers

import (
	"context"
	"net/http"

	"sitemind/internal/core"
	"sitemind/internal/llmclient"
)

// ChatMessage is one turn in an OpenAI-style chat request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the OpenAI-style chat-completions request body shared by
// the providers that expose a compatible endpoint.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

// chatResponse is the OpenAI-style chat-completions response envelope.
type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// CompleteChat performs one chat completion against an OpenAI-compatible
// endpoint and extracts the first choice's text. Providers with a
// compatible wire format (OpenAI, Groq, xAI, Mistral, DeepSeek) share this
// path; auth placement stays inside each provider's header setter.
func CompleteChat(ctx context.Context, c *llmclient.Client, name, prompt, model string) (string, error) {
	req := chatRequest{
		Model:       model,
		Messages:    []ChatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   MaxOutputTokens,
		Temperature: Temperature,
	}

	var resp chatResponse
	err := c.Do(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/chat/completions",
		Body:     req,
	}, &resp)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", core.NewProviderError(name, http.StatusBadGateway, "response contained no choices", nil)
	}
	return resp.Choices[0].Message.Content, nil
}
