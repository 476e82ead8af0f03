package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Local provider: no auth of any kind
		if r.Header.Get("Authorization") != "" {
			t.Error("unexpected Authorization header")
		}
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q, want /api/generate", r.URL.Path)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		// Single prompt field, not a messages array
		if _, ok := body["prompt"].(string); !ok {
			t.Error("request body missing prompt field")
		}
		if body["stream"] != false {
			t.Error("stream should be false")
		}

		_, _ = w.Write([]byte(`{"model": "llama3.2", "response": "Sessions are steady.", "done": true, "eval_count": 7}`))
	}))
	defer server.Close()

	p := New()
	p.SetBaseURL(server.URL)

	got, err := p.Complete(context.Background(), "How are sessions?", "llama3.2")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "Sessions are steady." {
		t.Errorf("Complete() = %q", got)
	}
}

func TestTestConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model": "llama3.2", "response": "Hi", "done": true}`))
	}))
	defer server.Close()

	p := New()
	p.SetBaseURL(server.URL)

	if err := p.TestConnection(context.Background()); err != nil {
		t.Fatalf("TestConnection() error = %v", err)
	}
}
