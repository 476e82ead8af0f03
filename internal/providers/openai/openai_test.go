package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"sitemind/internal/core"
)

func TestComplete(t *testing.T) {
	tests := []struct {
		name         string
		statusCode   int
		responseBody string
		want         string
		wantErr      bool
		wantErrType  core.ErrorType
	}{
		{
			name:       "successful request",
			statusCode: http.StatusOK,
			responseBody: `{
				"id": "chatcmpl-123",
				"choices": [{
					"index": 0,
					"message": {"role": "assistant", "content": "Traffic is up 12% week over week."},
					"finish_reason": "stop"
				}],
				"usage": {"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30}
			}`,
			want: "Traffic is up 12% week over week.",
		},
		{
			name:         "invalid API key",
			statusCode:   http.StatusUnauthorized,
			responseBody: `{"error": {"message": "Invalid API key"}}`,
			wantErr:      true,
			wantErrType:  core.ErrorTypeAuthentication,
		},
		{
			name:         "server error",
			statusCode:   http.StatusInternalServerError,
			responseBody: `{"error": {"message": "Internal server error"}}`,
			wantErr:      true,
			wantErrType:  core.ErrorTypeProvider,
		},
		{
			name:         "empty choices",
			statusCode:   http.StatusOK,
			responseBody: `{"id": "chatcmpl-123", "choices": []}`,
			wantErr:      true,
			wantErrType:  core.ErrorTypeProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
					t.Errorf("Authorization = %q, want bearer token", got)
				}
				if r.URL.Path != "/chat/completions" {
					t.Errorf("path = %q, want /chat/completions", r.URL.Path)
				}
				var body map[string]any
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Fatalf("decode request: %v", err)
				}
				if body["model"] != "gpt-4o-mini" {
					t.Errorf("model = %v, want gpt-4o-mini", body["model"])
				}
				if body["max_tokens"].(float64) != 1000 {
					t.Errorf("max_tokens = %v, want 1000", body["max_tokens"])
				}
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			p := New("test-key")
			p.SetBaseURL(server.URL)

			got, err := p.Complete(context.Background(), "How is traffic?", "gpt-4o-mini")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var gerr *core.GatewayError
				if !errors.As(err, &gerr) {
					t.Fatalf("error type = %T, want *core.GatewayError", err)
				}
				if gerr.Type != tt.wantErrType {
					t.Errorf("error type = %s, want %s", gerr.Type, tt.wantErrType)
				}
				return
			}
			if err != nil {
				t.Fatalf("Complete() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Complete() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTestConnection(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "Hi"}}]}`))
	}))
	defer server.Close()

	p := New("test-key")
	p.SetBaseURL(server.URL)

	if err := p.TestConnection(context.Background()); err != nil {
		t.Fatalf("TestConnection() error = %v", err)
	}
	// A connection test is a real completion: exactly one upstream call
	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1", calls)
	}
}

func TestTestConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Invalid API key"}}`))
	}))
	defer server.Close()

	p := New("bad-key")
	p.SetBaseURL(server.URL)

	if err := p.TestConnection(context.Background()); err == nil {
		t.Fatal("expected error for rejected credential")
	}
}
