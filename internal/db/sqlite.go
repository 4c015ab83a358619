package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/susu3304/snacknav/internal/walk"
)

// SQLite is a single-file activity ledger for deployments without Postgres.
type SQLite struct {
	db *sql.DB
}

var _ walk.Ledger = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database file and its schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	s := &SQLite{db: conn}
	if err := s.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS walk_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			ref_id TEXT NOT NULL,
			points INTEGER NOT NULL,
			balance INTEGER NOT NULL,
			distance_km REAL NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_walk_events_session ON walk_events(session_id, id DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLite) Record(ctx context.Context, e walk.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO walk_events (session_id, kind, ref_id, points, balance, distance_km, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, string(e.Kind), e.RefID, e.Points, e.Balance, e.DistanceKm, e.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert walk event: %w", err)
	}
	return nil
}

func (s *SQLite) History(ctx context.Context, sessionID string, limit int) ([]walk.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, kind, ref_id, points, balance, distance_km, created_at
         FROM walk_events WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, normalizeLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []walk.Event
	for rows.Next() {
		var e walk.Event
		var kind, at string
		if err := rows.Scan(&e.ID, &e.SessionID, &kind, &e.RefID, &e.Points, &e.Balance, &e.DistanceKm, &at); err != nil {
			return nil, err
		}
		e.Kind = walk.EventKind(kind)
		if e.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parse event time: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
