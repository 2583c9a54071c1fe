package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"flowscreen/internal/config"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS screening_runs (
    run_id      TEXT PRIMARY KEY,
    source      TEXT NOT NULL,
    lines       INTEGER NOT NULL,
    valid       INTEGER NOT NULL,
    malformed   INTEGER NOT NULL,
    duplicates  INTEGER NOT NULL,
    buckets     INTEGER NOT NULL,
    batches     INTEGER NOT NULL,
    flagged     INTEGER NOT NULL,
    entities    INTEGER NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS flagged_transactions (
    run_id      TEXT NOT NULL REFERENCES screening_runs (run_id) ON DELETE CASCADE,
    tx_hash     TEXT NOT NULL,
    day         DATE NOT NULL,
    amount      NUMERIC(20, 2) NOT NULL,
    sender      TEXT NOT NULL,
    receiver    TEXT NOT NULL,
    PRIMARY KEY (run_id, tx_hash)
);

CREATE TABLE IF NOT EXISTS entity_totals (
    run_id      TEXT NOT NULL REFERENCES screening_runs (run_id) ON DELETE CASCADE,
    entity      TEXT NOT NULL,
    sent        INTEGER NOT NULL,
    received    INTEGER NOT NULL,
    total       INTEGER NOT NULL,
    PRIMARY KEY (run_id, entity)
);

CREATE INDEX IF NOT EXISTS screening_runs_created_at_idx ON screening_runs (created_at DESC);
`

// NewPool configures a PostgreSQL connection pool from runtime settings.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the archive tables when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
