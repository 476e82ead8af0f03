package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitemind/internal/cache"
	"sitemind/internal/core"
	"sitemind/internal/gateway"
	"sitemind/internal/providers"
	"sitemind/internal/store"
	"sitemind/internal/vault"
)

type stubClient struct {
	reply string
	err   error
	calls int
}

func (s *stubClient) Complete(context.Context, string, string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func (s *stubClient) TestConnection(context.Context) error {
	s.calls++
	return s.err
}

type env struct {
	server *Server
	stub   *stubClient
	vault  *vault.Vault
	store  store.Store
}

func newTestEnv(t *testing.T, stub *stubClient, mutate func(*core.GatewaySettings), cfg *Config) *env {
	t.Helper()
	v := vault.New("server-test-vault-key")

	settings := core.GatewaySettings{
		Enabled:      true,
		Provider:     core.ProviderOpenAI,
		EncryptedKey: v.Encrypt("sk-test-key-1234567890"),
		Features: core.FeatureFlags{
			Queries:         true,
			Alerts:          true,
			Recommendations: true,
		},
	}
	if mutate != nil {
		mutate(&settings)
	}

	gw := gateway.New(settings, gateway.Options{
		Vault: v,
		NewClient: func(core.ProviderIdentity, string, providers.Options) (core.Client, error) {
			return stub, nil
		},
	})

	st, err := store.NewSQLite(store.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close(context.Background()) })

	handler := NewHandler(gw, v, HandlerOptions{
		Store: st,
		Cache: cache.NewMemoryCache(),
	})
	return &env{
		server: New(handler, cfg),
		stub:   stub,
		vault:  v,
		store:  st,
	}
}

func doJSON(t *testing.T, srv *Server, method, target, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var parsed map[string]json.RawMessage
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &parsed)
	}
	return rec, parsed
}

func TestQueryEndpoint(t *testing.T) {
	stub := &stubClient{reply: "Your traffic is up. I recommend reviewing your analytics data for the busiest landing pages to keep momentum."}
	e := newTestEnv(t, stub, nil, nil)

	rec, _ := doJSON(t, e.server, http.MethodPost, "/v1/ai/query", `{"query":"How is my traffic?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp core.AIQueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, stub.reply, resp.Answer)
	assert.InDelta(t, 0.95, resp.Confidence, 0.001)
	assert.Len(t, resp.Suggestions, 3)
}

func TestQueryValidation(t *testing.T) {
	e := newTestEnv(t, &stubClient{reply: "ok"}, nil, nil)

	rec, body := doJSON(t, e.server, http.MethodPost, "/v1/ai/query", `{"query":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(body["error"]), "query is required")
}

func TestQueryGatewayDisabled(t *testing.T) {
	e := newTestEnv(t, &stubClient{reply: "ok"}, func(s *core.GatewaySettings) { s.Enabled = false }, nil)

	rec, body := doJSON(t, e.server, http.MethodPost, "/v1/ai/query", `{"query":"hi"}`)
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Contains(t, string(body["error"]), "configuration_error")
}

func TestAnomaliesEndpointCaches(t *testing.T) {
	stub := &stubClient{reply: `[{"type":"traffic","severity":"high","title":"Drop","description":"Visitors fell sharply."}]`}
	e := newTestEnv(t, stub, nil, nil)

	rec, body := doJSON(t, e.server, http.MethodGet, "/v1/ai/anomalies", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var anomalies []core.AIAnomaly
	require.NoError(t, json.Unmarshal(body["anomalies"], &anomalies))
	require.Len(t, anomalies, 1)
	assert.Equal(t, core.AnomalyTraffic, anomalies[0].Type)

	// Second request is served from cache without another dispatch.
	rec, _ = doJSON(t, e.server, http.MethodGet, "/v1/ai/anomalies", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, stub.calls)
}

func TestRecommendationsEndpointFallsBack(t *testing.T) {
	stub := &stubClient{reply: "no json in this reply at all"}
	e := newTestEnv(t, stub, nil, nil)

	rec, body := doJSON(t, e.server, http.MethodGet, "/v1/ai/recommendations", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var recs []core.AIRecommendation
	require.NoError(t, json.Unmarshal(body["recommendations"], &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, core.RecommendPerformance, recs[0].Category)
	assert.Equal(t, core.RecommendConversion, recs[1].Category)
}

func TestTestConnectionEndpoint(t *testing.T) {
	stub := &stubClient{reply: "Hi!"}
	e := newTestEnv(t, stub, nil, nil)

	rec, _ := doJSON(t, e.server, http.MethodPost, "/v1/ai/test-connection",
		`{"provider":"openai","api_key":"sk-test-key-1234567890"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestTestConnectionEndpointFailure(t *testing.T) {
	stub := &stubClient{err: core.NewAuthenticationError("openai", "invalid api key")}
	e := newTestEnv(t, stub, nil, nil)

	rec, _ := doJSON(t, e.server, http.MethodPost, "/v1/ai/test-connection",
		`{"provider":"openai","api_key":"sk-bad-key-1234567890"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "invalid api key")
}

func TestUsageEndpoint(t *testing.T) {
	stub := &stubClient{reply: "answer"}
	e := newTestEnv(t, stub, nil, nil)

	rec, _ := doJSON(t, e.server, http.MethodPost, "/v1/ai/query", `{"query":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := doJSON(t, e.server, http.MethodGet, "/v1/ai/usage", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var usage core.UsageStats
	require.NoError(t, json.Unmarshal(body["usage"], &usage))
	assert.Equal(t, 1, usage.TotalQueries)

	var windows []core.RateWindow
	require.NoError(t, json.Unmarshal(body["rate_windows"], &windows))
	assert.Len(t, windows, 3)
}

func TestUpdateSettings(t *testing.T) {
	stub := &stubClient{reply: "ok"}
	e := newTestEnv(t, stub, nil, nil)

	rec, _ := doJSON(t, e.server, http.MethodPut, "/v1/ai/settings",
		`{"enabled":true,"provider":"anthropic","model":"claude-3-5-haiku-20241022",
		  "api_key":"sk-ant-REDACTED",
		  "features":{"queries":true,"alerts":true}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp settingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "anthropic", resp.Provider)
	assert.NotContains(t, resp.MaskedKey, "test-key")
	assert.Contains(t, resp.MaskedKey, "...")

	// Persisted to the store.
	saved, found, err := e.store.LoadSettings(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, core.ProviderAnthropic, saved.Provider)
	assert.Equal(t, "sk-ant-REDACTED", e.vault.Decrypt(saved.EncryptedKey))
}

func TestUpdateSettingsValidation(t *testing.T) {
	e := newTestEnv(t, &stubClient{reply: "ok"}, nil, nil)

	rec, _ := doJSON(t, e.server, http.MethodPut, "/v1/ai/settings",
		`{"enabled":true,"provider":"nonsense"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Wrong key prefix for the provider.
	rec, body := doJSON(t, e.server, http.MethodPut, "/v1/ai/settings",
		`{"enabled":true,"provider":"openai","api_key":"not-an-openai-key-but-long-enough"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(body["error"]), "invalid API key")
}

func TestUpdateSettingsKeepsExistingKey(t *testing.T) {
	stub := &stubClient{reply: "ok"}
	e := newTestEnv(t, stub, nil, nil)

	rec, _ := doJSON(t, e.server, http.MethodPut, "/v1/ai/settings",
		`{"enabled":false,"provider":"openai","features":{}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp settingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.MaskedKey, "existing credential should survive a settings update without api_key")
}

func TestProvidersEndpoint(t *testing.T) {
	e := newTestEnv(t, &stubClient{reply: "ok"}, nil, nil)

	rec, body := doJSON(t, e.server, http.MethodGet, "/v1/ai/providers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []core.ProviderInfo
	require.NoError(t, json.Unmarshal(body["providers"], &list))
	assert.Len(t, list, 9)
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestEnv(t, &stubClient{reply: "ok"}, nil, nil)

	rec, _ := doJSON(t, e.server, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
