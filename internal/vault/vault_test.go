package vault

import (
	"strings"
	"testing"

	"sitemind/internal/core"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	v := New("unit-test-key")

	tests := []string{
		"sk-abcdef123456",
		"sk-ant-REDACTED",
		"AIzaSyD-1234567890abcdefghijklmnopqrstuv",
		"short",
		"key with spaces and unicode ✓",
	}

	for _, plaintext := range tests {
		enc := v.Encrypt(plaintext)
		if enc == plaintext {
			t.Errorf("Encrypt(%q) returned plaintext unchanged", plaintext)
		}
		if got := v.Decrypt(enc); got != plaintext {
			t.Errorf("Decrypt(Encrypt(%q)) = %q", plaintext, got)
		}
	}
}

func TestDecryptEmptyAndGarbage(t *testing.T) {
	v := New("unit-test-key")

	if got := v.Decrypt(""); got != "" {
		t.Errorf("Decrypt(\"\") = %q, want empty", got)
	}
	// Invalid base64 must degrade to empty, never panic or error
	if got := v.Decrypt("!!!not-base64!!!"); got != "" {
		t.Errorf("Decrypt(garbage) = %q, want empty", got)
	}
}

func TestEncryptEmpty(t *testing.T) {
	v := New("unit-test-key")
	if got := v.Encrypt(""); got != "" {
		t.Errorf("Encrypt(\"\") = %q, want empty", got)
	}
}

func TestDifferentKeysProduceDifferentCiphertexts(t *testing.T) {
	a := New("key-a")
	b := New("key-b")
	if a.Encrypt("sk-abcdef123456") == b.Encrypt("sk-abcdef123456") {
		t.Error("distinct keys produced identical ciphertexts")
	}
}

func TestValidateFormat(t *testing.T) {
	v := New("unit-test-key")

	tests := []struct {
		name       string
		provider   core.ProviderIdentity
		key        string
		valid      bool
		wantReason string
	}{
		{
			name:     "valid openai key",
			provider: core.ProviderOpenAI,
			key:      "sk-abcdefghijklmnopqrstuvwx",
			valid:    true,
		},
		{
			name:       "openai key missing prefix",
			provider:   core.ProviderOpenAI,
			key:        "pk-abcdefghijklmnopqrstuvwx",
			valid:      false,
			wantReason: "should start with",
		},
		{
			name:       "openai key too short",
			provider:   core.ProviderOpenAI,
			key:        "sk-short",
			valid:      false,
			wantReason: "at least",
		},
		{
			name:       "short key rejected with prefix reason",
			provider:   core.ProviderOpenAI,
			key:        "short",
			valid:      false,
			wantReason: "should start with",
		},
		{
			name:     "anthropic key",
			provider: core.ProviderAnthropic,
			key:      "sk-ant-REDACTED",
			valid:    true,
		},
		{
			name:       "anthropic key with plain sk prefix",
			provider:   core.ProviderAnthropic,
			key:        "sk-abcdefghijklmnopqrstuvwxyz1234567890",
			valid:      false,
			wantReason: "should start with",
		},
		{
			name:     "gemini key",
			provider: core.ProviderGemini,
			key:      "AIzaSyD-1234567890abcdefghijklmnopqrstuv",
			valid:    true,
		},
		{
			name:     "mistral has no prefix requirement",
			provider: core.ProviderMistral,
			key:      strings.Repeat("a", 32),
			valid:    true,
		},
		{
			name:     "ollama accepts anything",
			provider: core.ProviderOllama,
			key:      "",
			valid:    true,
		},
		{
			name:     "ollama accepts garbage",
			provider: core.ProviderOllama,
			key:      "not-a-key-at-all",
			valid:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, reason := v.ValidateFormat(tt.key, tt.provider)
			if valid != tt.valid {
				t.Fatalf("ValidateFormat() valid = %v, want %v (reason %q)", valid, tt.valid, reason)
			}
			if tt.wantReason != "" && !strings.Contains(reason, tt.wantReason) {
				t.Errorf("reason = %q, want substring %q", reason, tt.wantReason)
			}
			if tt.valid && reason != "" {
				t.Errorf("valid key returned reason %q", reason)
			}
		})
	}
}

func TestMask(t *testing.T) {
	v := New("unit-test-key")

	tests := []struct {
		in   string
		want string
	}{
		{"sk-abcdef123456", "sk-a...3456"},
		{"short", "*****"},
		{"12345678", "********"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := v.Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
