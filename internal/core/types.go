// Package core defines the shared types and interfaces for the AI gateway.
package core

import (
	"context"
	"time"
)

// ProviderIdentity identifies one of the supported AI providers.
type ProviderIdentity string

const (
	ProviderOpenAI    ProviderIdentity = "openai"
	ProviderAnthropic ProviderIdentity = "anthropic"
	ProviderGemini    ProviderIdentity = "gemini"
	ProviderGroq      ProviderIdentity = "groq"
	ProviderXAI       ProviderIdentity = "xai"
	ProviderMistral   ProviderIdentity = "mistral"
	ProviderDeepSeek  ProviderIdentity = "deepseek"
	ProviderCohere    ProviderIdentity = "cohere"
	// ProviderOllama talks to a local endpoint and needs no credential.
	ProviderOllama ProviderIdentity = "ollama"
)

// ModelInfo describes one model in a provider's catalog.
type ModelInfo struct {
	ID            string  `json:"id"`
	ContextWindow int     `json:"context_window"`
	CostPer1K     float64 `json:"cost_per_1k"`
}

// ProviderInfo is the compile-time metadata for a provider.
type ProviderInfo struct {
	Identity           ProviderIdentity `json:"identity"`
	DisplayName        string           `json:"display_name"`
	DefaultModel       string           `json:"default_model"`
	RequiresCredential bool             `json:"requires_credential"`
	Models             []ModelInfo      `json:"models"`
}

// FeatureFlags holds the per-feature enable switches from the settings store.
type FeatureFlags struct {
	Analytics       bool `json:"analytics"`
	Recommendations bool `json:"recommendations"`
	Queries         bool `json:"queries"`
	Alerts          bool `json:"alerts"`
	Visualization   bool `json:"visualization"`
}

// GatewaySettings is the configuration snapshot the gateway operates under.
// It is owned and persisted by the settings store; the gateway treats each
// snapshot as immutable and never writes it back.
type GatewaySettings struct {
	Enabled      bool             `json:"enabled"`
	Provider     ProviderIdentity `json:"provider"`
	Model        string           `json:"model,omitempty"` // empty = provider default
	EncryptedKey string           `json:"encrypted_key,omitempty"`
	Features     FeatureFlags     `json:"features"`
}

// RateWindow is a point-in-time view of one rate-limit window.
type RateWindow struct {
	Period  string    `json:"period"` // "minute", "hour" or "day"
	Count   int       `json:"count"`
	Ceiling int       `json:"ceiling"`
	ResetAt time.Time `json:"reset_at"`
}

// UsageStats holds running aggregates maintained by the usage tracker.
type UsageStats struct {
	TotalQueries      int       `json:"total_queries"`
	QueriesThisPeriod int       `json:"queries_this_period"`
	AvgResponseTimeMs float64   `json:"avg_response_time_ms"`
	SuccessRate       float64   `json:"success_rate"`
	CreditsUsed       float64   `json:"credits_used"`
	LastUsed          time.Time `json:"last_used"`
}

// AIQuery is a free-text question from the dashboard.
type AIQuery struct {
	Query   string   `json:"query"`
	Context []string `json:"context,omitempty"`
}

// AIQueryResponse is the structured answer to an AIQuery.
type AIQueryResponse struct {
	Answer      string   `json:"answer"`
	Confidence  float64  `json:"confidence"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// AnomalyType classifies a detected anomaly.
type AnomalyType string

const (
	AnomalyTraffic     AnomalyType = "traffic"
	AnomalyPerformance AnomalyType = "performance"
	AnomalyConversion  AnomalyType = "conversion"
	AnomalyError       AnomalyType = "error"
	AnomalySecurity    AnomalyType = "security"
)

// Severity grades an anomaly.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AIAnomaly is one anomaly synthesized from a model reply.
type AIAnomaly struct {
	ID               string      `json:"id"`
	Type             AnomalyType `json:"type"`
	Severity         Severity    `json:"severity"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	DetectedAt       time.Time   `json:"detected_at"`
	AffectedMetrics  []string    `json:"affected_metrics,omitempty"`
	SuggestedActions []string    `json:"suggested_actions,omitempty"`
	Confidence       float64     `json:"confidence"`
}

// RecommendationCategory classifies a recommendation.
type RecommendationCategory string

const (
	RecommendPerformance RecommendationCategory = "performance"
	RecommendSEO         RecommendationCategory = "seo"
	RecommendConversion  RecommendationCategory = "conversion"
	RecommendContent     RecommendationCategory = "content"
	RecommendSecurity    RecommendationCategory = "security"
)

// Level is a coarse low/medium/high grading used for priority, impact and effort.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// RecommendationStatus tracks the caller-managed lifecycle of a recommendation.
type RecommendationStatus string

const (
	StatusNew        RecommendationStatus = "new"
	StatusInProgress RecommendationStatus = "in_progress"
	StatusCompleted  RecommendationStatus = "completed"
	StatusDismissed  RecommendationStatus = "dismissed"
)

// AIRecommendation is one improvement suggestion synthesized from a model reply.
// The gateway always creates recommendations with status "new"; status is
// caller-managed afterwards.
type AIRecommendation struct {
	ID                   string                 `json:"id"`
	Category             RecommendationCategory `json:"category"`
	Priority             Level                  `json:"priority"`
	Impact               Level                  `json:"impact"`
	Effort               Level                  `json:"effort"`
	Title                string                 `json:"title"`
	Description          string                 `json:"description"`
	EstimatedImprovement string                 `json:"estimated_improvement,omitempty"`
	ActionItems          []string               `json:"action_items,omitempty"`
	Resources            []string               `json:"resources,omitempty"`
	CreatedAt            time.Time              `json:"created_at"`
	Status               RecommendationStatus   `json:"status"`
}

// Client is the capability every provider variant implements. Complete
// performs exactly one synchronous completion call and returns the model's
// text reply. TestConnection issues a trivial completion against the
// provider's default model; there is no lighter-weight health check, so it
// consumes one real quota unit against the provider.
type Client interface {
	Complete(ctx context.Context, prompt, model string) (string, error)
	TestConnection(ctx context.Context) error
}
