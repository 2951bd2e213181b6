// Package audit persists every resolved tick to SQLite, including the raw
// model text. Audit rows are diagnosis material only; nothing reads them back
// for execution logic.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// Entry is one resolved tick: a decision with its application outcome, or a
// skip with its reason.
type Entry struct {
	RequestID  string
	AccountID  string
	Instrument string
	Cmd        string
	TargetPos  float64
	LatencyMS  int64
	Outcome    string
	RawText    string
	Timestamp  int64
}

// Store wraps the SQLite decision log.
type Store struct {
	db *sql.DB
}

// Open creates or opens the decision log with WAL journaling.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS decisions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL,
			account_id TEXT NOT NULL,
			instrument TEXT NOT NULL,
			cmd TEXT NOT NULL,
			target_pos REAL NOT NULL,
			latency_ms INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			raw_text TEXT NOT NULL,
			ts INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create decisions table: %w", err)
	}

	return &Store{db: db}, nil
}

// Record appends one entry. Timestamp defaults to now.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (request_id, account_id, instrument, cmd, target_pos, latency_ms, outcome, raw_text, ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID, e.AccountID, e.Instrument, e.Cmd, e.TargetPos, e.LatencyMS, e.Outcome, e.RawText, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert decision: %w", err)
	}
	return nil
}

// Recent returns the newest entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT request_id, account_id, instrument, cmd, target_pos, latency_ms, outcome, raw_text, ts
		 FROM decisions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.RequestID, &e.AccountID, &e.Instrument, &e.Cmd, &e.TargetPos, &e.LatencyMS, &e.Outcome, &e.RawText, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
