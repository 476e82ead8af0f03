package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache(t *testing.T) {
	t.Run("GetSetRoundTrip", func(t *testing.T) {
		c := NewMemoryCache()
		ctx := context.Background()

		_, found, err := c.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if found {
			t.Fatal("found a value in an empty cache")
		}

		if err := c.Set(ctx, "anomalies", []byte(`[{"id":"1"}]`), time.Minute); err != nil {
			t.Fatalf("unexpected error on set: %v", err)
		}

		got, found, err := c.Get(ctx, "anomalies")
		if err != nil {
			t.Fatalf("unexpected error on get: %v", err)
		}
		if !found {
			t.Fatal("expected a cached value")
		}
		if string(got) != `[{"id":"1"}]` {
			t.Errorf("got %q", got)
		}
	})

	t.Run("Expiry", func(t *testing.T) {
		c := NewMemoryCache()
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		c.now = func() time.Time { return now }
		ctx := context.Background()

		if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, found, _ := c.Get(ctx, "k"); !found {
			t.Fatal("entry expired too early")
		}

		now = now.Add(2 * time.Minute)
		if _, found, _ := c.Get(ctx, "k"); found {
			t.Fatal("entry survived past its TTL")
		}
	})

	t.Run("ReturnedValueIsACopy", func(t *testing.T) {
		c := NewMemoryCache()
		ctx := context.Background()

		if err := c.Set(ctx, "k", []byte("abc"), time.Minute); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, _, _ := c.Get(ctx, "k")
		got[0] = 'z'

		again, _, _ := c.Get(ctx, "k")
		if string(again) != "abc" {
			t.Errorf("cached value mutated: %q", again)
		}
	})

	t.Run("CloseIsNoOp", func(t *testing.T) {
		if err := NewMemoryCache().Close(); err != nil {
			t.Fatalf("unexpected error on close: %v", err)
		}
	})
}

func TestKey(t *testing.T) {
	a := Key("anomalies", "openai", "gpt-4o-mini")
	b := Key("anomalies", "openai", "gpt-4o-mini")
	if a != b {
		t.Error("identical inputs produced different keys")
	}

	if Key("anomalies", "openai") == Key("anomalies", "anthropic") {
		t.Error("different inputs produced the same key")
	}
	if Key("anomalies") == Key("recommendations") {
		t.Error("different operations produced the same key")
	}

	// Concatenation must not be ambiguous across part boundaries.
	if Key("q", "ab", "c") == Key("q", "a", "bc") {
		t.Error("part boundaries are ambiguous")
	}
}
