package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/susu3304/snacknav/internal/walk"
)

// DB is the Postgres-backed activity ledger.
type DB struct {
	pool *pgxpool.Pool
}

var _ walk.Ledger = (*DB)(nil)

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

// RunMigrations runs database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS walk_events (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			ref_id TEXT NOT NULL,
			points INTEGER NOT NULL,
			balance INTEGER NOT NULL,
			distance_km DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_walk_events_session ON walk_events(session_id, id DESC);
	`)
	return err
}

func (db *DB) Record(ctx context.Context, e walk.Event) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO walk_events (session_id, kind, ref_id, points, balance, distance_km, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.SessionID, string(e.Kind), e.RefID, e.Points, e.Balance, e.DistanceKm, e.At,
	)
	if err != nil {
		return fmt.Errorf("insert walk event: %w", err)
	}
	return nil
}

// History returns the newest events first. limit <= 0 means DefaultHistoryLimit.
func (db *DB) History(ctx context.Context, sessionID string, limit int) ([]walk.Event, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, session_id, kind, ref_id, points, balance, distance_km, created_at
         FROM walk_events WHERE session_id = $1 ORDER BY id DESC LIMIT $2`,
		sessionID, normalizeLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []walk.Event
	for rows.Next() {
		var e walk.Event
		var kind string
		if err := rows.Scan(&e.ID, &e.SessionID, &kind, &e.RefID, &e.Points, &e.Balance, &e.DistanceKm, &e.At); err != nil {
			return nil, err
		}
		e.Kind = walk.EventKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

// DefaultHistoryLimit caps History when no limit is given.
const DefaultHistoryLimit = 50

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return DefaultHistoryLimit
	}
	return limit
}
