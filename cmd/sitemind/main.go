// Package main is the entry point for the sitemind AI gateway server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"sitemind/config"
	"sitemind/internal/cache"
	"sitemind/internal/core"
	"sitemind/internal/gateway"
	"sitemind/internal/observability"
	"sitemind/internal/ratelimit"
	"sitemind/internal/server"
	"sitemind/internal/store"
	"sitemind/internal/vault"
	"sitemind/internal/version"

	// Import provider packages to trigger their init() registration
	_ "sitemind/internal/providers/anthropic"
	_ "sitemind/internal/providers/cohere"
	_ "sitemind/internal/providers/deepseek"
	_ "sitemind/internal/providers/gemini"
	_ "sitemind/internal/providers/groq"
	_ "sitemind/internal/providers/mistral"
	_ "sitemind/internal/providers/ollama"
	_ "sitemind/internal/providers/openai"
	_ "sitemind/internal/providers/xai"
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	slog.Info("starting sitemind",
		"version", version.Version,
		"commit", version.Commit,
		"build_date", version.Date,
	)

	ctx := context.Background()

	// Storage
	st, err := store.New(ctx, store.Config{
		Type:       cfg.Storage.Type,
		SQLite:     store.SQLiteConfig{Path: cfg.Storage.SQLitePath},
		PostgreSQL: store.PostgreSQLConfig{URL: cfg.Storage.PostgresURL, MaxConns: cfg.Storage.PostgresConns},
		MongoDB:    store.MongoDBConfig{URL: cfg.Storage.MongoURL, Database: cfg.Storage.MongoDatabase},
	})
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer st.Close(ctx)
	slog.Info("storage ready", "type", cfg.Storage.Type)

	// Credential vault
	v := vault.New(cfg.Vault.Key)
	if cfg.Vault.Key == "" {
		slog.Warn("VAULT_KEY not set, falling back to the built-in obfuscation key",
			"recommendation", "set VAULT_KEY to a deployment-specific value")
	}

	// Settings: stored snapshot, or disabled-by-default until configured
	settings, found, err := st.LoadSettings(ctx)
	if err != nil {
		slog.Error("failed to load settings", "error", err)
		os.Exit(1)
	}
	if !found {
		settings = core.GatewaySettings{Provider: core.ProviderOpenAI}
		slog.Info("no stored settings, AI features start disabled")
	}

	// Provider base URL overrides
	overrides, err := config.LoadOverrides(cfg.Gateway.OverridesPath)
	if err != nil {
		slog.Error("failed to load overrides", "error", err)
		os.Exit(1)
	}
	baseURLs := make(map[core.ProviderIdentity]string, len(overrides.BaseURLs))
	for provider, url := range overrides.BaseURLs {
		baseURLs[core.ProviderIdentity(provider)] = url
		slog.Info("provider base URL override", "provider", provider, "base_url", url)
	}

	// Metrics
	var collector *observability.Collector
	if cfg.Server.MetricsEnabled {
		collector = observability.NewCollector()
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Server.MetricsEndpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}

	// Gateway
	gwOpts := gateway.Options{
		Vault: v,
		Limits: ratelimit.Limits{
			PerMinute: cfg.Gateway.RatePerMinute,
			PerHour:   cfg.Gateway.RatePerHour,
			PerDay:    cfg.Gateway.RatePerDay,
		},
		Timeout:  cfg.Timeout(),
		Logger:   logger,
		BaseURLs: baseURLs,
		Record: func(ctx context.Context, d gateway.Dispatch) error {
			return st.AppendUsage(ctx, store.UsageRow{
				ID:        d.ID,
				Provider:  string(d.Provider),
				Model:     d.Model,
				Operation: d.Operation,
				Success:   d.Success,
				LatencyMs: d.Latency.Milliseconds(),
				Cost:      d.Cost,
				Timestamp: d.Timestamp,
			})
		},
	}
	if collector != nil {
		gwOpts.Hooks = collector
	}
	gw := gateway.New(settings, gwOpts)

	// Response cache
	responseCache, err := newCache(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	if responseCache != nil {
		defer responseCache.Close()
	}

	// Security check: warn if no master key is configured
	if cfg.Server.MasterKey == "" {
		slog.Warn("SECURITY WARNING: MASTER_KEY not set - server running in UNSAFE MODE",
			"security_risk", "unauthenticated access allowed",
			"recommendation", "set MASTER_KEY environment variable to secure this gateway")
	} else {
		slog.Info("authentication enabled", "mode", "master_key")
	}

	handlerOpts := server.HandlerOptions{Store: st, Cache: responseCache}
	if collector != nil {
		handlerOpts.Metrics = collector
	}
	handler := server.NewHandler(gw, v, handlerOpts)

	srv := server.New(handler, &server.Config{
		MasterKey:       cfg.Server.MasterKey,
		MetricsEnabled:  cfg.Server.MetricsEnabled,
		MetricsEndpoint: cfg.Server.MetricsEndpoint,
		CacheTTL:        cfg.CacheTTL(),
	})

	// Handle graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	slog.Info("starting server", "address", addr)

	if err := srv.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
		} else {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if cfg.Format == "pretty" {
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: level}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func newCache(cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return cache.NewMemoryCache(), nil
	case "redis":
		return cache.NewRedisCache(cache.RedisConfig{URL: cfg.RedisURL})
	default:
		return nil, fmt.Errorf("unknown cache type: %s (valid: none, memory, redis)", cfg.Type)
	}
}
