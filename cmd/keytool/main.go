// Package main implements keytool, a small helper for preparing provider
// API keys: it validates the key format, prints the masked form, and emits
// the encrypted value suitable for seeding the settings store or testing
// the /v1/ai/test-connection endpoint.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"sitemind/internal/core"
	"sitemind/internal/vault"
)

func main() {
	providerFlag := flag.String("provider", "", "Provider identity (openai, anthropic, gemini, groq, xai, mistral, deepseek, cohere, ollama)")
	vaultKeyFlag := flag.String("vault-key", "", "Vault key (defaults to VAULT_KEY environment variable)")
	decryptFlag := flag.String("decrypt", "", "Decrypt the given encrypted value instead of encrypting a new key")
	flag.Parse()

	vaultKey := *vaultKeyFlag
	if vaultKey == "" {
		vaultKey = os.Getenv("VAULT_KEY")
	}
	v := vault.New(vaultKey)
	if vaultKey == "" {
		fmt.Fprintln(os.Stderr, "warning: no vault key given, using the built-in obfuscation key")
	}

	if *decryptFlag != "" {
		plaintext := v.Decrypt(*decryptFlag)
		if plaintext == "" {
			fmt.Fprintln(os.Stderr, "error: value did not decrypt (wrong vault key or corrupted input)")
			os.Exit(1)
		}
		fmt.Printf("masked: %s\n", v.Mask(plaintext))
		return
	}

	provider := core.ProviderIdentity(*providerFlag)
	if _, ok := core.LookupProvider(provider); !ok {
		fmt.Fprintf(os.Stderr, "error: unknown provider %q\n", *providerFlag)
		os.Exit(1)
	}

	apiKey, err := readKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "error: empty API key")
		os.Exit(1)
	}

	if ok, reason := v.ValidateFormat(apiKey, provider); !ok {
		fmt.Fprintf(os.Stderr, "error: invalid key for %s: %s\n", provider, reason)
		os.Exit(1)
	}

	fmt.Printf("provider:  %s\n", provider)
	fmt.Printf("masked:    %s\n", v.Mask(apiKey))
	fmt.Printf("encrypted: %s\n", v.Encrypt(apiKey))
}

// readKey prompts for the API key without echoing when attached to a
// terminal, and falls back to reading a line from stdin when piped.
func readKey() (string, error) {
	fd := int(syscall.Stdin)
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "API key: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read key: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", fmt.Errorf("failed to read key from stdin: %w", err)
	}
	return strings.TrimSpace(line), nil
}
