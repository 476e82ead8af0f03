package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Gemini authenticates via query parameter, not a header
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key query param = %q, want test-key", got)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("unexpected Authorization header")
		}
		if r.URL.Path != "/models/gemini-1.5-flash:generateContent" {
			t.Errorf("path = %q", r.URL.Path)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gc, ok := body["generationConfig"].(map[string]any)
		if !ok {
			t.Fatal("request body missing generationConfig object")
		}
		if gc["maxOutputTokens"].(float64) != 1000 {
			t.Errorf("maxOutputTokens = %v, want 1000", gc["maxOutputTokens"])
		}

		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"parts": [{"text": "Bounce rate looks normal."}], "role": "model"},
				"finishReason": "STOP"
			}],
			"usageMetadata": {"promptTokenCount": 9, "candidatesTokenCount": 6, "totalTokenCount": 15}
		}`))
	}))
	defer server.Close()

	p := New("test-key")
	p.SetBaseURL(server.URL)

	got, err := p.Complete(context.Background(), "Check bounce rate", "gemini-1.5-flash")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "Bounce rate looks normal." {
		t.Errorf("Complete() = %q", got)
	}
}

func TestCompleteNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	p := New("test-key")
	p.SetBaseURL(server.URL)

	if _, err := p.Complete(context.Background(), "hi", "gemini-1.5-flash"); err == nil {
		t.Fatal("expected error for empty candidates")
	}
}
