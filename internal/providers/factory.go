// Package providers provides a factory for creating provider clients.
package providers

import (
	"fmt"

	"sitemind/internal/core"
)

// Fixed completion parameters shared by every provider variant.
const (
	// MaxOutputTokens caps the length of model replies.
	MaxOutputTokens = 1000
	// Temperature is the sampling temperature for all completions.
	Temperature = 0.7
	// ConnectionTestPrompt is the trivial prompt used by connection tests.
	// A connection test is a real completion against the provider's default
	// model, so each test consumes one quota unit upstream.
	ConnectionTestPrompt = "Hello"
)

// Options carries optional construction parameters for a provider client.
type Options struct {
	// BaseURL overrides the provider's default endpoint (mainly for tests
	// and self-hosted deployments).
	BaseURL string
}

// Builder creates a provider client from an API key and options.
type Builder func(apiKey string, opts Options) core.Client

// registry holds all registered provider builders
var registry = make(map[core.ProviderIdentity]Builder)

// Register allows provider packages to register themselves.
// This should be called from init() functions in provider packages.
func Register(id core.ProviderIdentity, builder Builder) {
	registry[id] = builder
}

// Create instantiates the client for a provider identity.
func Create(id core.ProviderIdentity, apiKey string, opts Options) (core.Client, error) {
	builder, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", id)
	}
	return builder(apiKey, opts), nil
}

// ListRegistered returns all registered provider identities.
func ListRegistered() []core.ProviderIdentity {
	ids := make([]core.ProviderIdentity, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	return ids
}
