// Package config provides configuration management for the application.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig
	Vault   VaultConfig
	Gateway GatewayConfig
	Storage StorageConfig
	Cache   CacheConfig
	Log     LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	MasterKey       string
	MetricsEnabled  bool
	MetricsEndpoint string
}

// VaultConfig holds credential vault configuration
type VaultConfig struct {
	// Key is the obfuscation key for stored API credentials. A stable
	// deployment-specific value; changing it orphans stored credentials.
	Key string
}

// GatewayConfig holds AI gateway tuning
type GatewayConfig struct {
	TimeoutSeconds int
	RatePerMinute  int
	RatePerHour    int
	RatePerDay     int
	// OverridesPath points to an optional YAML file with per-provider
	// base URL overrides (self-hosted gateways, proxies, Ollama hosts).
	OverridesPath string
}

// StorageConfig holds persistence configuration
type StorageConfig struct {
	// Type selects the backend: sqlite, postgresql or mongodb
	Type          string
	SQLitePath    string
	PostgresURL   string
	PostgresConns int
	MongoURL      string
	MongoDatabase string
}

// CacheConfig holds AI response cache configuration
type CacheConfig struct {
	// Type selects the backend: none, memory or redis
	Type       string
	RedisURL   string
	TTLSeconds int
}

// LogConfig holds logging configuration
type LogConfig struct {
	// Format is "json" or "pretty"
	Format string
	Level  string
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	// Load .env file using Viper (optional, won't fail if not found)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if .env file doesn't exist

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("METRICS_ENABLED", true)
	viper.SetDefault("METRICS_ENDPOINT", "/metrics")
	viper.SetDefault("AI_TIMEOUT_SECONDS", 30)
	viper.SetDefault("AI_RATE_PER_MINUTE", 60)
	viper.SetDefault("AI_RATE_PER_HOUR", 1000)
	viper.SetDefault("AI_RATE_PER_DAY", 10000)
	viper.SetDefault("STORAGE_TYPE", "sqlite")
	viper.SetDefault("SQLITE_PATH", "data/sitemind.db")
	viper.SetDefault("POSTGRES_MAX_CONNS", 10)
	viper.SetDefault("MONGO_DATABASE", "sitemind")
	viper.SetDefault("CACHE_TYPE", "memory")
	viper.SetDefault("CACHE_TTL_SECONDS", 300)
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("LOG_LEVEL", "info")

	// Enable automatic environment variable reading
	viper.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:            viper.GetString("PORT"),
			MasterKey:       viper.GetString("MASTER_KEY"),
			MetricsEnabled:  viper.GetBool("METRICS_ENABLED"),
			MetricsEndpoint: viper.GetString("METRICS_ENDPOINT"),
		},
		Vault: VaultConfig{
			Key: viper.GetString("VAULT_KEY"),
		},
		Gateway: GatewayConfig{
			TimeoutSeconds: viper.GetInt("AI_TIMEOUT_SECONDS"),
			RatePerMinute:  viper.GetInt("AI_RATE_PER_MINUTE"),
			RatePerHour:    viper.GetInt("AI_RATE_PER_HOUR"),
			RatePerDay:     viper.GetInt("AI_RATE_PER_DAY"),
			OverridesPath:  viper.GetString("AI_OVERRIDES_PATH"),
		},
		Storage: StorageConfig{
			Type:          viper.GetString("STORAGE_TYPE"),
			SQLitePath:    viper.GetString("SQLITE_PATH"),
			PostgresURL:   viper.GetString("POSTGRES_URL"),
			PostgresConns: viper.GetInt("POSTGRES_MAX_CONNS"),
			MongoURL:      viper.GetString("MONGO_URL"),
			MongoDatabase: viper.GetString("MONGO_DATABASE"),
		},
		Cache: CacheConfig{
			Type:       viper.GetString("CACHE_TYPE"),
			RedisURL:   viper.GetString("REDIS_URL"),
			TTLSeconds: viper.GetInt("CACHE_TTL_SECONDS"),
		},
		Log: LogConfig{
			Format: viper.GetString("LOG_FORMAT"),
			Level:  viper.GetString("LOG_LEVEL"),
		},
	}

	return cfg, nil
}

// Timeout returns the gateway dispatch timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSeconds) * time.Second
}

// CacheTTL returns the AI response cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}
