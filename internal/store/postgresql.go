package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sitemind/internal/core"
)

// postgresStore implements Store for PostgreSQL
type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgreSQL creates a new PostgreSQL store.
// It creates a connection pool for efficient connection reuse.
func NewPostgreSQL(ctx context.Context, cfg PostgreSQLConfig) (Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("PostgreSQL URL is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	} else {
		poolCfg.MaxConns = 10
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	s := &postgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *postgresStore) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS gateway_settings (
	id INT PRIMARY KEY CHECK (id = 1),
	payload JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS usage_log (
	id TEXT PRIMARY KEY,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	operation TEXT NOT NULL,
	success BOOLEAN NOT NULL,
	latency_ms BIGINT NOT NULL,
	cost DOUBLE PRECISION NOT NULL,
	ts TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_log_ts ON usage_log(ts DESC);`

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *postgresStore) LoadSettings(ctx context.Context) (core.GatewaySettings, bool, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM gateway_settings WHERE id = 1`).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.GatewaySettings{}, false, nil
	}
	if err != nil {
		return core.GatewaySettings{}, false, fmt.Errorf("failed to load settings: %w", err)
	}

	var settings core.GatewaySettings
	if err := json.Unmarshal(payload, &settings); err != nil {
		return core.GatewaySettings{}, false, fmt.Errorf("failed to decode settings: %w", err)
	}
	return settings, true, nil
}

func (s *postgresStore) SaveSettings(ctx context.Context, settings core.GatewaySettings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
INSERT INTO gateway_settings (id, payload, updated_at) VALUES (1, $1, now())
ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		payload)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *postgresStore) AppendUsage(ctx context.Context, row UsageRow) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO usage_log (id, provider, model, operation, success, latency_ms, cost, ts)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		row.ID, row.Provider, row.Model, row.Operation, row.Success, row.LatencyMs, row.Cost, row.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append usage row: %w", err)
	}
	return nil
}

func (s *postgresStore) RecentUsage(ctx context.Context, limit int) ([]UsageRow, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
SELECT id, provider, model, operation, success, latency_ms, cost, ts
FROM usage_log ORDER BY ts DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage log: %w", err)
	}
	defer rows.Close()

	var out []UsageRow
	for rows.Next() {
		var r UsageRow
		if err := rows.Scan(&r.ID, &r.Provider, &r.Model, &r.Operation, &r.Success, &r.LatencyMs, &r.Cost, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *postgresStore) Close(context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
