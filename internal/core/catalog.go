package core

// catalog is the compile-time provider metadata. Costs are per-1k-token
// estimates used for credit accounting, not billing-grade numbers.
var catalog = map[ProviderIdentity]ProviderInfo{
	ProviderOpenAI: {
		Identity:           ProviderOpenAI,
		DisplayName:        "OpenAI",
		DefaultModel:       "gpt-4o-mini",
		RequiresCredential: true,
		Models: []ModelInfo{
			{ID: "gpt-4o", ContextWindow: 128000, CostPer1K: 0.0050},
			{ID: "gpt-4o-mini", ContextWindow: 128000, CostPer1K: 0.0006},
			{ID: "gpt-4-turbo", ContextWindow: 128000, CostPer1K: 0.0100},
			{ID: "gpt-3.5-turbo", ContextWindow: 16385, CostPer1K: 0.0015},
		},
	},
	ProviderAnthropic: {
		Identity:           ProviderAnthropic,
		DisplayName:        "Anthropic",
		DefaultModel:       "claude-3-5-haiku-20241022",
		RequiresCredential: true,
		Models: []ModelInfo{
			{ID: "claude-3-5-sonnet-20241022", ContextWindow: 200000, CostPer1K: 0.0030},
			{ID: "claude-3-5-haiku-20241022", ContextWindow: 200000, CostPer1K: 0.0008},
			{ID: "claude-3-opus-20240229", ContextWindow: 200000, CostPer1K: 0.0150},
		},
	},
	ProviderGemini: {
		Identity:           ProviderGemini,
		DisplayName:        "Google Gemini",
		DefaultModel:       "gemini-1.5-flash",
		RequiresCredential: true,
		Models: []ModelInfo{
			{ID: "gemini-1.5-pro", ContextWindow: 2097152, CostPer1K: 0.0013},
			{ID: "gemini-1.5-flash", ContextWindow: 1048576, CostPer1K: 0.0001},
			{ID: "gemini-2.0-flash", ContextWindow: 1048576, CostPer1K: 0.0001},
		},
	},
	ProviderGroq: {
		Identity:           ProviderGroq,
		DisplayName:        "Groq",
		DefaultModel:       "llama-3.1-8b-instant",
		RequiresCredential: true,
		Models: []ModelInfo{
			{ID: "llama-3.3-70b-versatile", ContextWindow: 131072, CostPer1K: 0.0006},
			{ID: "llama-3.1-8b-instant", ContextWindow: 131072, CostPer1K: 0.0001},
			{ID: "mixtral-8x7b-32768", ContextWindow: 32768, CostPer1K: 0.0002},
		},
	},
	ProviderXAI: {
		Identity:           ProviderXAI,
		DisplayName:        "xAI",
		DefaultModel:       "grok-2-latest",
		RequiresCredential: true,
		Models: []ModelInfo{
			{ID: "grok-2-latest", ContextWindow: 131072, CostPer1K: 0.0020},
			{ID: "grok-beta", ContextWindow: 131072, CostPer1K: 0.0050},
		},
	},
	ProviderMistral: {
		Identity:           ProviderMistral,
		DisplayName:        "Mistral AI",
		DefaultModel:       "mistral-small-latest",
		RequiresCredential: true,
		Models: []ModelInfo{
			{ID: "mistral-large-latest", ContextWindow: 128000, CostPer1K: 0.0020},
			{ID: "mistral-small-latest", ContextWindow: 32000, CostPer1K: 0.0002},
			{ID: "open-mistral-nemo", ContextWindow: 128000, CostPer1K: 0.0001},
		},
	},
	ProviderDeepSeek: {
		Identity:           ProviderDeepSeek,
		DisplayName:        "DeepSeek",
		DefaultModel:       "deepseek-chat",
		RequiresCredential: true,
		Models: []ModelInfo{
			{ID: "deepseek-chat", ContextWindow: 64000, CostPer1K: 0.0001},
			{ID: "deepseek-reasoner", ContextWindow: 64000, CostPer1K: 0.0006},
		},
	},
	ProviderCohere: {
		Identity:           ProviderCohere,
		DisplayName:        "Cohere",
		DefaultModel:       "command-r",
		RequiresCredential: true,
		Models: []ModelInfo{
			{ID: "command-r-plus", ContextWindow: 128000, CostPer1K: 0.0025},
			{ID: "command-r", ContextWindow: 128000, CostPer1K: 0.0002},
		},
	},
	ProviderOllama: {
		Identity:           ProviderOllama,
		DisplayName:        "Ollama (local)",
		DefaultModel:       "llama3.2",
		RequiresCredential: false,
		Models: []ModelInfo{
			{ID: "llama3.2", ContextWindow: 131072, CostPer1K: 0},
			{ID: "mistral", ContextWindow: 32768, CostPer1K: 0},
			{ID: "phi3", ContextWindow: 128000, CostPer1K: 0},
		},
	},
}

// LookupProvider returns the catalog entry for an identity.
func LookupProvider(id ProviderIdentity) (ProviderInfo, bool) {
	info, ok := catalog[id]
	return info, ok
}

// Providers returns the full catalog in no particular order.
func Providers() []ProviderInfo {
	out := make([]ProviderInfo, 0, len(catalog))
	for _, info := range catalog {
		out = append(out, info)
	}
	return out
}

// ResolveModel returns the model to use for a provider: the requested model
// if it is in the provider's catalog, the provider default when model is
// empty, or false when the combination is unsupported.
func ResolveModel(id ProviderIdentity, model string) (string, bool) {
	info, ok := catalog[id]
	if !ok {
		return "", false
	}
	if model == "" {
		return info.DefaultModel, true
	}
	for _, m := range info.Models {
		if m.ID == model {
			return model, true
		}
	}
	return "", false
}

// ModelCostPer1K returns the per-1k-token cost estimate for a model, or 0
// if the model is not in the catalog.
func ModelCostPer1K(id ProviderIdentity, model string) float64 {
	info, ok := catalog[id]
	if !ok {
		return 0
	}
	for _, m := range info.Models {
		if m.ID == model {
			return m.CostPer1K
		}
	}
	return 0
}

// EstimateTokens is a rough chars/4 token estimate used for credit
// accounting when the provider response omits usage counts.
func EstimateTokens(text string) int {
	return len(text) / 4
}
