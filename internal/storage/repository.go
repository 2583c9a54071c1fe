package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const defaultListLimit = 20

const (
	insertRunSQL = `INSERT INTO screening_runs (
        run_id,
        source,
        lines,
        valid,
        malformed,
        duplicates,
        buckets,
        batches,
        flagged,
        entities
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
    );`

	insertFlaggedSQL = `INSERT INTO flagged_transactions (
        run_id,
        tx_hash,
        day,
        amount,
        sender,
        receiver
    ) VALUES ($1,$2,$3,$4,$5,$6);`

	insertEntityTotalSQL = `INSERT INTO entity_totals (
        run_id,
        entity,
        sent,
        received,
        total
    ) VALUES ($1,$2,$3,$4,$5);`

	listRecentRunsSQL = `SELECT
        run_id,
        source,
        lines,
        valid,
        malformed,
        duplicates,
        buckets,
        batches,
        flagged,
        entities,
        created_at
    FROM screening_runs
    ORDER BY created_at DESC
    LIMIT $1;`

	listEntityTotalsSQL = `SELECT
        run_id,
        entity,
        sent,
        received,
        total
    FROM entity_totals
    WHERE run_id = $1
    ORDER BY total DESC, entity ASC
    LIMIT $2;`
)

// RunStore archives screening runs for auditing.
type RunStore interface {
	InsertRun(ctx context.Context, run RunRecord, flagged []FlaggedTransaction, totals []EntityTotal) error
	ListRecentRuns(ctx context.Context, limit int) ([]RunRecord, error)
	ListEntityTotals(ctx context.Context, runID string, limit int) ([]EntityTotal, error)
}

// Store archives runs in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertRun stores a run with its flagged transactions and entity totals in one transaction.
func (s *Store) InsertRun(ctx context.Context, run RunRecord, flagged []FlaggedTransaction, totals []EntityTotal) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin run insert: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, insertRunSQL,
		run.ID,
		run.Source,
		run.Lines,
		run.Valid,
		run.Malformed,
		run.Duplicates,
		run.Buckets,
		run.Batches,
		run.Flagged,
		run.Entities,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	batch := &pgx.Batch{}
	for _, ft := range flagged {
		batch.Queue(insertFlaggedSQL, run.ID, ft.TxHash, ft.Day, ft.Amount.StringFixed(2), ft.Sender, ft.Receiver)
	}
	for _, et := range totals {
		batch.Queue(insertEntityTotalSQL, run.ID, et.Entity, et.Sent, et.Received, et.Total)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert run rows: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit run insert: %w", err)
	}
	return nil
}

// ListRecentRuns lists the most recent runs, newest first.
func (s *Store) ListRecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, queryErr := pool.Query(ctx, listRecentRunsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent runs: %w", queryErr)
	}
	defer rows.Close()

	runs := make([]RunRecord, 0, limit)
	for rows.Next() {
		var run RunRecord
		if err := rows.Scan(
			&run.ID,
			&run.Source,
			&run.Lines,
			&run.Valid,
			&run.Malformed,
			&run.Duplicates,
			&run.Buckets,
			&run.Batches,
			&run.Flagged,
			&run.Entities,
			&run.CreatedAt,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return runs, nil
}

// ListEntityTotals lists a run's entities by descending involvement.
func (s *Store) ListEntityTotals(ctx context.Context, runID string, limit int) ([]EntityTotal, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, queryErr := pool.Query(ctx, listEntityTotalsSQL, runID, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list entity totals: %w", queryErr)
	}
	defer rows.Close()

	totals := make([]EntityTotal, 0, limit)
	for rows.Next() {
		var et EntityTotal
		if err := rows.Scan(&et.RunID, &et.Entity, &et.Sent, &et.Received, &et.Total); err != nil {
			return nil, err
		}
		totals = append(totals, et)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return totals, nil
}

var _ RunStore = (*Store)(nil)
