package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Overrides holds optional per-provider adjustments loaded from a YAML
// file. Used for self-hosted OpenAI-compatible gateways, corporate proxies
// and non-default Ollama hosts.
type Overrides struct {
	// BaseURLs maps a provider identity to a replacement base URL.
	BaseURLs map[string]string `yaml:"base_urls"`
}

// LoadOverrides reads the overrides file at path. A missing path (or empty
// string) yields empty overrides, not an error.
func LoadOverrides(path string) (*Overrides, error) {
	if path == "" {
		return &Overrides{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Overrides{}, nil
		}
		return nil, fmt.Errorf("failed to read overrides file: %w", err)
	}

	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("failed to parse overrides file: %w", err)
	}
	return &o, nil
}
