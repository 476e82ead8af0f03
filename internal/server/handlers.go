// Package server provides HTTP handlers and server setup for the AI gateway.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"sitemind/internal/cache"
	"sitemind/internal/core"
	"sitemind/internal/gateway"
	"sitemind/internal/store"
	"sitemind/internal/vault"
)

// Metrics receives HTTP-layer observations. Implemented by the
// observability collector; may be nil.
type Metrics interface {
	RecordRateLimited()
	RecordCacheHit()
	RecordCacheMiss()
}

// Handler holds the HTTP handlers
type Handler struct {
	gw       *gateway.Gateway
	vault    *vault.Vault
	store    store.Store // optional
	cache    cache.Cache // optional
	cacheTTL time.Duration
	metrics  Metrics // optional
}

// HandlerOptions configures optional handler collaborators.
type HandlerOptions struct {
	Store   store.Store
	Cache   cache.Cache
	Metrics Metrics
}

// NewHandler creates a new handler around the gateway
func NewHandler(gw *gateway.Gateway, v *vault.Vault, opts HandlerOptions) *Handler {
	return &Handler{
		gw:       gw,
		vault:    v,
		store:    opts.Store,
		cache:    opts.Cache,
		cacheTTL: cache.DefaultTTL,
		metrics:  opts.Metrics,
	}
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Query handles POST /v1/ai/query
func (h *Handler) Query(c echo.Context) error {
	var req core.AIQuery
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	if req.Query == "" {
		return badRequest(c, "query is required")
	}

	resp, err := h.gw.ProcessQuery(c.Request().Context(), req)
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Anomalies handles GET /v1/ai/anomalies. Responses are cached per
// provider/model because each miss costs a provider call.
func (h *Handler) Anomalies(c echo.Context) error {
	s := h.gw.Settings()
	key := cache.Key("anomalies", string(s.Provider), s.Model)

	if payload, ok := h.cached(c, key); ok {
		return c.JSONBlob(http.StatusOK, payload)
	}

	anomalies := h.gw.DetectAnomalies(c.Request().Context())
	resp := map[string]interface{}{"anomalies": anomalies}
	h.storeCached(c, key, resp)
	return c.JSON(http.StatusOK, resp)
}

// Recommendations handles GET /v1/ai/recommendations, cached the same way
// as anomalies.
func (h *Handler) Recommendations(c echo.Context) error {
	s := h.gw.Settings()
	key := cache.Key("recommendations", string(s.Provider), s.Model)

	if payload, ok := h.cached(c, key); ok {
		return c.JSONBlob(http.StatusOK, payload)
	}

	recs := h.gw.GenerateRecommendations(c.Request().Context())
	resp := map[string]interface{}{"recommendations": recs}
	h.storeCached(c, key, resp)
	return c.JSON(http.StatusOK, resp)
}

type testConnectionRequest struct {
	Provider string `json:"provider"`
	// APIKey is the plaintext credential being tested (before it is saved).
	APIKey string `json:"api_key"`
	// EncryptedKey may be sent instead of APIKey to re-test a stored credential.
	EncryptedKey string `json:"encrypted_key"`
	Model        string `json:"model"`
}

// TestConnection handles POST /v1/ai/test-connection
func (h *Handler) TestConnection(c echo.Context) error {
	var req testConnectionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	if req.Provider == "" {
		return badRequest(c, "provider is required")
	}

	encrypted := req.EncryptedKey
	if req.APIKey != "" {
		encrypted = h.vault.Encrypt(req.APIKey)
	}

	err := h.gw.TestConnection(c.Request().Context(), core.ProviderIdentity(req.Provider), encrypted, req.Model)
	if err != nil {
		var ge *core.GatewayError
		message := "connection test failed"
		if errors.As(err, &ge) {
			message = ge.Message
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": false,
			"message": message,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "connection successful",
	})
}

// Usage handles GET /v1/ai/usage
func (h *Handler) Usage(c echo.Context) error {
	resp := map[string]interface{}{
		"usage":        h.gw.Usage(),
		"rate_windows": h.gw.RateWindows(),
	}

	if h.store != nil {
		recent, err := h.store.RecentUsage(c.Request().Context(), 50)
		if err == nil {
			resp["recent"] = recent
		}
	}
	return c.JSON(http.StatusOK, resp)
}

type settingsRequest struct {
	Enabled  bool              `json:"enabled"`
	Provider string            `json:"provider"`
	Model    string            `json:"model"`
	Features core.FeatureFlags `json:"features"`
	// APIKey is plaintext; empty keeps the stored credential.
	APIKey string `json:"api_key"`
}

type settingsResponse struct {
	Enabled   bool              `json:"enabled"`
	Provider  string            `json:"provider"`
	Model     string            `json:"model"`
	MaskedKey string            `json:"masked_key,omitempty"`
	Features  core.FeatureFlags `json:"features"`
}

// GetSettings handles GET /v1/ai/settings. The credential is never returned,
// only its masked form.
func (h *Handler) GetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, h.settingsView(h.gw.Settings()))
}

// UpdateSettings handles PUT /v1/ai/settings
func (h *Handler) UpdateSettings(c echo.Context) error {
	var req settingsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	provider := core.ProviderIdentity(req.Provider)
	if _, ok := core.LookupProvider(provider); !ok {
		return badRequest(c, "unknown provider: "+req.Provider)
	}
	if _, ok := core.ResolveModel(provider, req.Model); !ok {
		return badRequest(c, "model "+req.Model+" is not available for "+req.Provider)
	}

	current := h.gw.Settings()
	encrypted := current.EncryptedKey
	if req.APIKey != "" {
		if ok, reason := h.vault.ValidateFormat(req.APIKey, provider); !ok {
			return badRequest(c, "invalid API key: "+reason)
		}
		encrypted = h.vault.Encrypt(req.APIKey)
	}

	settings := core.GatewaySettings{
		Enabled:      req.Enabled,
		Provider:     provider,
		Model:        req.Model,
		EncryptedKey: encrypted,
		Features:     req.Features,
	}

	if h.store != nil {
		if err := h.store.SaveSettings(c.Request().Context(), settings); err != nil {
			return h.handleError(c, err)
		}
	}
	h.gw.UpdateSettings(settings)

	return c.JSON(http.StatusOK, h.settingsView(settings))
}

// Providers handles GET /v1/ai/providers
func (h *Handler) Providers(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"providers": core.Providers()})
}

func (h *Handler) settingsView(s core.GatewaySettings) settingsResponse {
	masked := ""
	if s.EncryptedKey != "" {
		masked = h.vault.Mask(h.vault.Decrypt(s.EncryptedKey))
	}
	return settingsResponse{
		Enabled:   s.Enabled,
		Provider:  string(s.Provider),
		Model:     s.Model,
		MaskedKey: masked,
		Features:  s.Features,
	}
}

func (h *Handler) cached(c echo.Context, key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	payload, found, err := h.cache.Get(c.Request().Context(), key)
	if err != nil || !found {
		if h.metrics != nil {
			h.metrics.RecordCacheMiss()
		}
		return nil, false
	}
	if h.metrics != nil {
		h.metrics.RecordCacheHit()
	}
	return payload, true
}

func (h *Handler) storeCached(c echo.Context, key string, resp interface{}) {
	if h.cache == nil {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	// Cache write failures are not worth failing the request over.
	_ = h.cache.Set(c.Request().Context(), key, payload, h.cacheTTL)
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "invalid_request_error",
			"message": message,
		},
	})
}

// handleError converts gateway errors to appropriate HTTP responses
func (h *Handler) handleError(c echo.Context, err error) error {
	var gatewayErr *core.GatewayError
	if errors.As(err, &gatewayErr) {
		if gatewayErr.Type == core.ErrorTypeRateLimit && h.metrics != nil {
			h.metrics.RecordRateLimited()
		}
		return c.JSON(gatewayErr.HTTPStatusCode(), gatewayErr.ToJSON())
	}

	// Fallback for unexpected errors
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}
