package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"sitemind/internal/core"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// sqliteStore implements Store for SQLite
type sqliteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite store.
// It enables WAL mode for better concurrent read/write performance.
func NewSQLite(cfg SQLiteConfig) (Store, error) {
	if cfg.Path == "" {
		cfg.Path = "data/sitemind.db"
	}

	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// WAL mode allows concurrent reads while writing
	dsn := fmt.Sprintf("%s?_journal=WAL&_busy_timeout=5000&_synchronous=NORMAL", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite only allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	s := &sqliteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *sqliteStore) migrate() error {
	// Settings live in a single-row table as a JSON document so the schema
	// survives new feature flags without migrations.
	const schema = `
CREATE TABLE IF NOT EXISTS gateway_settings (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	payload TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS usage_log (
	id TEXT PRIMARY KEY,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	operation TEXT NOT NULL,
	success INTEGER NOT NULL,
	latency_ms INTEGER NOT NULL,
	cost REAL NOT NULL,
	ts TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_log_ts ON usage_log(ts DESC);`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *sqliteStore) LoadSettings(ctx context.Context) (core.GatewaySettings, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM gateway_settings WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return core.GatewaySettings{}, false, nil
	}
	if err != nil {
		return core.GatewaySettings{}, false, fmt.Errorf("failed to load settings: %w", err)
	}

	var settings core.GatewaySettings
	if err := json.Unmarshal([]byte(payload), &settings); err != nil {
		return core.GatewaySettings{}, false, fmt.Errorf("failed to decode settings: %w", err)
	}
	return settings, true, nil
}

func (s *sqliteStore) SaveSettings(ctx context.Context, settings core.GatewaySettings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO gateway_settings (id, payload, updated_at) VALUES (1, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`,
		string(payload))
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *sqliteStore) AppendUsage(ctx context.Context, row UsageRow) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO usage_log (id, provider, model, operation, success, latency_ms, cost, ts)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.Provider, row.Model, row.Operation, row.Success, row.LatencyMs, row.Cost, row.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append usage row: %w", err)
	}
	return nil
}

func (s *sqliteStore) RecentUsage(ctx context.Context, limit int) ([]UsageRow, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, provider, model, operation, success, latency_ms, cost, ts
FROM usage_log ORDER BY ts DESC LIMIT ?`, limit)
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

func (s *sqliteStore) Close(context.Context) error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
