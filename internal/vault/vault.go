// Package vault obfuscates provider API keys for storage and validates
// their format per provider.
//
// The cipher is a repeating-key XOR followed by base64. It protects stored
// keys against casual exposure in database dumps and logs only; anyone with
// the ciphertext and the configured key can reverse it. Callers must not
// treat it as cryptographically secure confidentiality.
package vault

import (
	"encoding/base64"
	"fmt"
	"strings"

	"sitemind/internal/core"
)

// Vault obfuscates and validates provider credentials. The key is injected
// at construction so it can be rotated without a rebuild.
type Vault struct {
	key []byte
}

// New creates a Vault with the given obfuscation key. An empty key is
// replaced with a fixed default so decryption still round-trips.
func New(key string) *Vault {
	if key == "" {
		key = "sitemind-default-vault-key"
	}
	return &Vault{key: []byte(key)}
}

// Encrypt obfuscates a plaintext key for storage. Empty input yields empty
// output.
func (v *Vault) Encrypt(plaintext string) string {
	if plaintext == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString(v.xor([]byte(plaintext)))
}

// Decrypt reverses Encrypt. Malformed input degrades to an empty string so
// a corrupted stored key reads as "not configured" instead of crashing the
// gateway.
func (v *Vault) Decrypt(ciphertext string) string {
	if ciphertext == "" {
		return ""
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return ""
	}
	return string(v.xor(raw))
}

func (v *Vault) xor(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ v.key[i%len(v.key)]
	}
	return out
}

// Mask returns a display-safe form of a key: first four and last four
// characters with the middle elided.
func (v *Vault) Mask(plaintext string) string {
	if len(plaintext) <= 8 {
		return strings.Repeat("*", len(plaintext))
	}
	return plaintext[:4] + "..." + plaintext[len(plaintext)-4:]
}

// keyFormat describes the shape a provider's API keys are expected to have.
type keyFormat struct {
	prefix    string
	minLength int
}

// formats holds per-provider key heuristics. These are shape checks only;
// ValidateFormat never contacts the network.
var formats = map[core.ProviderIdentity]keyFormat{
	core.ProviderOpenAI:    {prefix: "sk-", minLength: 20},
	core.ProviderAnthropic: {prefix: "sk-ant-", minLength: 30},
	core.ProviderGemini:    {prefix: "AIza", minLength: 35},
	core.ProviderGroq:      {prefix: "gsk_", minLength: 20},
	core.ProviderXAI:       {prefix: "xai-", minLength: 20},
	core.ProviderMistral:   {minLength: 32},
	core.ProviderDeepSeek:  {prefix: "sk-", minLength: 20},
	core.ProviderCohere:    {minLength: 40},
}

// ValidateFormat checks a plaintext key against the provider's expected
// shape and returns a human-readable reason on failure. The local provider
// requires no credential, so any input (including empty) is valid.
func (v *Vault) ValidateFormat(plaintext string, provider core.ProviderIdentity) (bool, string) {
	f, ok := formats[provider]
	if !ok {
		// Providers without a credential requirement (ollama) accept anything.
		return true, ""
	}
	if f.prefix != "" && !strings.HasPrefix(plaintext, f.prefix) {
		return false, fmt.Sprintf("%s API keys should start with %q", provider, f.prefix)
	}
	if len(plaintext) < f.minLength {
		return false, fmt.Sprintf("%s API keys should be at least %d characters", provider, f.minLength)
	}
	return true, ""
}
