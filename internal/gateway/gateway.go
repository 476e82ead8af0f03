// Package gateway orchestrates the AI layer: it selects the configured
// provider client, enforces rate limits before dispatch, tracks usage after
// dispatch, and shapes free-text model output into typed results for the
// dashboard.
package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"sitemind/internal/core"
	"sitemind/internal/providers"
	"sitemind/internal/ratelimit"
	"sitemind/internal/usage"
	"sitemind/internal/vault"
)

// DefaultTimeout bounds every outbound provider call. The upstream SDKs
// would otherwise block indefinitely on a hung provider.
const DefaultTimeout = 30 * time.Second

// Hooks receives dispatch observations for metrics collection.
type Hooks interface {
	ObserveDispatch(provider, operation string, success bool, elapsed time.Duration)
}

// Dispatch describes one provider call for persistence.
type Dispatch struct {
	ID        string
	Provider  core.ProviderIdentity
	Model     string
	Operation string
	Success   bool
	Latency   time.Duration
	Cost      float64
	Timestamp time.Time
}

// RecordFunc persists one dispatch row. Failures are logged, never
// propagated: persistence must not break the request path.
type RecordFunc func(ctx context.Context, d Dispatch) error

// Options configures a Gateway.
type Options struct {
	Vault    *vault.Vault
	Limits   ratelimit.Limits
	Timeout  time.Duration
	Logger   *slog.Logger
	Hooks    Hooks
	Record   RecordFunc
	BaseURLs map[core.ProviderIdentity]string

	// NewClient overrides the provider factory (tests).
	NewClient func(id core.ProviderIdentity, apiKey string, opts providers.Options) (core.Client, error)
	// Clock overrides the time source (tests).
	Clock func() time.Time
}

// Gateway is the orchestrator. A single instance owns its rate limiter and
// usage tracker; both are internally locked, so the Gateway is safe to
// share across handlers.
type Gateway struct {
	mu       sync.RWMutex
	settings core.GatewaySettings

	vault     *vault.Vault
	limiter   *ratelimit.Limiter
	tracker   *usage.Tracker
	timeout   time.Duration
	log       *slog.Logger
	hooks     Hooks
	record    RecordFunc
	baseURLs  map[core.ProviderIdentity]string
	newClient func(id core.ProviderIdentity, apiKey string, opts providers.Options) (core.Client, error)
	now       func() time.Time
}

// New creates a Gateway operating under the given settings snapshot.
func New(settings core.GatewaySettings, opts Options) *Gateway {
	if opts.Vault == nil {
		opts.Vault = vault.New("")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NewClient == nil {
		opts.NewClient = providers.Create
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	limits := opts.Limits
	if limits.PerMinute == 0 && limits.PerHour == 0 && limits.PerDay == 0 {
		limits = ratelimit.DefaultLimits()
	}

	return &Gateway{
		settings:  settings,
		vault:     opts.Vault,
		limiter:   ratelimit.New(limits),
		tracker:   usage.New(),
		timeout:   opts.Timeout,
		log:       opts.Logger,
		hooks:     opts.Hooks,
		record:    opts.Record,
		baseURLs:  opts.BaseURLs,
		newClient: opts.NewClient,
		now:       opts.Clock,
	}
}

// UpdateSettings replaces the settings snapshot for subsequent calls.
func (g *Gateway) UpdateSettings(settings core.GatewaySettings) {
	g.mu.Lock()
	g.settings = settings
	g.mu.Unlock()
}

// Settings returns the current settings snapshot.
func (g *Gateway) Settings() core.GatewaySettings {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.settings
}

// Usage returns a copy of the running usage aggregates.
func (g *Gateway) Usage() core.UsageStats {
	return g.tracker.Snapshot()
}

// RateWindows returns the current rate-limit window states.
func (g *Gateway) RateWindows() []core.RateWindow {
	return g.limiter.Snapshot()
}

// dispatch runs the shared per-call pipeline: rate check, credential
// decryption, client construction, the single provider round-trip, then
// usage recording. Recording happens on every path that attempted the
// provider; failures before dispatch (rate denial, missing configuration)
// do not record.
func (g *Gateway) dispatch(ctx context.Context, operation string, s core.GatewaySettings, prompt string) (string, error) {
	if !g.limiter.CheckAndReserve() {
		return "", core.NewRateLimitError("AI request rate limit exceeded, retry later")
	}

	info, ok := core.LookupProvider(s.Provider)
	if !ok {
		return "", core.NewConfigurationError("no AI provider selected")
	}

	apiKey := g.vault.Decrypt(s.EncryptedKey)
	if info.RequiresCredential && apiKey == "" {
		return "", core.NewConfigurationError(info.DisplayName + " API key is not configured")
	}

	model, ok := core.ResolveModel(s.Provider, s.Model)
	if !ok {
		return "", core.NewConfigurationError("model " + s.Model + " is not available for " + info.DisplayName)
	}

	client, err := g.newClient(s.Provider, apiKey, providers.Options{BaseURL: g.baseURLs[s.Provider]})
	if err != nil {
		return "", core.NewConfigurationError(err.Error())
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := g.now()
	reply, err := client.Complete(callCtx, prompt, model)
	elapsed := g.now().Sub(start)

	// The tracker is updated on success and failure alike so its
	// aggregates stay consistent with what actually hit the provider.
	success := err == nil
	g.tracker.Record(elapsed, success)
	if g.hooks != nil {
		g.hooks.ObserveDispatch(string(s.Provider), operation, success, elapsed)
	}

	var cost float64
	if success {
		tokens := core.EstimateTokens(prompt) + core.EstimateTokens(reply)
		cost = core.ModelCostPer1K(s.Provider, model) * float64(tokens) / 1000
		g.tracker.AddCredits(cost)
	}

	if g.record != nil {
		row := Dispatch{
			ID:        uuid.NewString(),
			Provider:  s.Provider,
			Model:     model,
			Operation: operation,
			Success:   success,
			Latency:   elapsed,
			Cost:      cost,
			Timestamp: g.now(),
		}
		if rerr := g.record(ctx, row); rerr != nil {
			g.log.Warn("failed to persist usage row", "error", rerr)
		}
	}

	if err != nil {
		return "", err
	}
	return reply, nil
}

// ProcessQuery answers a free-text analytics question. Configuration, rate
// limit and provider errors propagate to the caller as typed failures.
func (g *Gateway) ProcessQuery(ctx context.Context, query core.AIQuery) (*core.AIQueryResponse, error) {
	s := g.Settings()
	if !s.Enabled {
		return nil, core.NewConfigurationError("AI features are disabled")
	}
	if !s.Features.Queries {
		return nil, core.NewConfigurationError("AI queries are disabled")
	}

	reply, err := g.dispatch(ctx, "query", s, buildQueryPrompt(query.Query, query.Context))
	if err != nil {
		return nil, err
	}

	return &core.AIQueryResponse{
		Answer:      reply,
		Confidence:  scoreConfidence(reply),
		Suggestions: suggestFollowups(query.Query),
	}, nil
}

// DetectAnomalies scans the analytics snapshot for anomalies. Best effort:
// once the feature is enabled it never fails. Provider or parse trouble
// yields the deterministic monitoring fallback so the dashboard always has
// something to render. A disabled feature yields an empty list.
func (g *Gateway) DetectAnomalies(ctx context.Context) []core.AIAnomaly {
	s := g.Settings()
	if !s.Enabled || !s.Features.Alerts {
		return []core.AIAnomaly{}
	}

	reply, err := g.dispatch(ctx, "anomalies", s, anomalyPrompt)
	if err != nil {
		g.log.Warn("anomaly detection dispatch failed, using fallback", "error", err)
		return []core.AIAnomaly{fallbackAnomaly(g.now())}
	}

	anomalies, err := parseAnomalies(reply, g.now())
	if err != nil {
		g.log.Warn("anomaly reply unparseable, using fallback", "error", err)
		return []core.AIAnomaly{fallbackAnomaly(g.now())}
	}
	return anomalies
}

// GenerateRecommendations produces improvement suggestions. Best effort in
// the same way as DetectAnomalies: failures yield the two hardcoded
// fallback recommendations, a disabled feature yields an empty list.
func (g *Gateway) GenerateRecommendations(ctx context.Context) []core.AIRecommendation {
	s := g.Settings()
	if !s.Enabled || !s.Features.Recommendations {
		return []core.AIRecommendation{}
	}

	reply, err := g.dispatch(ctx, "recommendations", s, recommendationPrompt)
	if err != nil {
		g.log.Warn("recommendation dispatch failed, using fallback", "error", err)
		return fallbackRecommendations(g.now())
	}

	recs, err := parseRecommendations(reply, g.now())
	if err != nil {
		g.log.Warn("recommendation reply unparseable, using fallback", "error", err)
		return fallbackRecommendations(g.now())
	}
	return recs
}

// TestConnection verifies a credential against a provider with one real
// completion (there is no cheaper health check, so each test consumes one
// quota unit). The settings UI calls this before saving, so provider and
// key are passed explicitly rather than read from the active settings. Any
// failure is wrapped so the upstream message survives for display.
func (g *Gateway) TestConnection(ctx context.Context, provider core.ProviderIdentity, encryptedKey, model string) error {
	info, ok := core.LookupProvider(provider)
	if !ok {
		return core.NewConnectionTestError(string(provider), core.NewConfigurationError("unknown provider"))
	}

	apiKey := g.vault.Decrypt(encryptedKey)
	if info.RequiresCredential && apiKey == "" {
		return core.NewConnectionTestError(string(provider), core.NewConfigurationError("API key is not configured"))
	}

	client, err := g.newClient(provider, apiKey, providers.Options{BaseURL: g.baseURLs[provider]})
	if err != nil {
		return core.NewConnectionTestError(string(provider), err)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := g.now()
	if model != "" {
		resolved, ok := core.ResolveModel(provider, model)
		if !ok {
			return core.NewConnectionTestError(string(provider), core.NewConfigurationError("model "+model+" is not available"))
		}
		_, err = client.Complete(callCtx, providers.ConnectionTestPrompt, resolved)
	} else {
		err = client.TestConnection(callCtx)
	}
	elapsed := g.now().Sub(start)

	g.tracker.Record(elapsed, err == nil)
	if g.hooks != nil {
		g.hooks.ObserveDispatch(string(provider), "test_connection", err == nil, elapsed)
	}

	if err != nil {
		return core.NewConnectionTestError(string(provider), err)
	}
	return nil
}
