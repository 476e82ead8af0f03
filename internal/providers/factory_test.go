package providers

import (
	"context"
	"testing"

	"sitemind/internal/core"
)

type stubClient struct{ key string }

func (s *stubClient) Complete(_ context.Context, _, _ string) (string, error) { return "ok", nil }
func (s *stubClient) TestConnection(_ context.Context) error                  { return nil }

func TestRegisterAndCreate(t *testing.T) {
	const id = core.ProviderIdentity("stub")

	Register(id, func(apiKey string, opts Options) core.Client {
		return &stubClient{key: apiKey}
	})

	client, err := Create(id, "secret", Options{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	stub, ok := client.(*stubClient)
	if !ok {
		t.Fatalf("client type = %T, want *stubClient", client)
	}
	if stub.key != "secret" {
		t.Errorf("apiKey = %q, want secret", stub.key)
	}
}

func TestCreateUnknownProvider(t *testing.T) {
	if _, err := Create(core.ProviderIdentity("nope"), "", Options{}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
