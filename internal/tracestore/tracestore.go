// Package tracestore persists a stepwise interpreter run's debug trace
// and postmortem heap dump (spec.md §6 "Source-info file... used by
// the host for post-mortem diagnostics"; the CLI's -T/-U options) to a
// SQLite database, so a crashed run can be queried after the fact
// instead of only ever scrolling past it on a terminal.
//
// Grounded on the teacher's domain stack: modernc.org/sqlite is the
// driver (named in the pack's internal/database as the pure-Go sqlite
// binding; used here through database/sql rather than reimplementing
// the sentra-style direct-driver connection pool, since a trace store
// only ever needs one file and one connection). Session ids come from
// github.com/google/uuid the same way the pack's request-handling code
// mints a correlation id per unit of work.
package tracestore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	label TEXT NOT NULL,
	started_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS steps (
	session_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	pc INTEGER NOT NULL,
	state TEXT NOT NULL,
	error_kind TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS heap_entries (
	session_id TEXT NOT NULL,
	idx INTEGER NOT NULL,
	tag TEXT NOT NULL,
	use_count INTEGER NOT NULL,
	repr TEXT NOT NULL
);
`

// Store is a handle on one SQLite-backed trace database.
type Store struct {
	db *sql.DB
}

// Open creates or attaches to the SQLite database at path, applying
// the schema if this is a fresh file.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tracestore: opening %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("tracestore: applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// NewSession starts a trace session under a fresh uuid, for a host to
// hand to Engine.SetTraceID so subsequent steps correlate back to it.
func (s *Store) NewSession(label string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(
		"INSERT INTO sessions (id, label, started_at) VALUES (?, ?, ?)",
		id, label, time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("tracestore: starting session: %w", err)
	}
	return id, nil
}

// RecordStep appends one Step outcome to the session's trace.
func (s *Store) RecordStep(sessionID string, seq int, pc int32, state, errorKind string) error {
	_, err := s.db.Exec(
		"INSERT INTO steps (session_id, seq, pc, state, error_kind) VALUES (?, ?, ?, ?, ?)",
		sessionID, seq, pc, state, errorKind,
	)
	if err != nil {
		return fmt.Errorf("tracestore: recording step %d: %w", seq, err)
	}
	return nil
}

// EntrySnapshot is one data-heap entry captured at dump time.
type EntrySnapshot struct {
	Index    int32
	Tag      string
	UseCount uint32
	Repr     string
}

// DumpHeap persists a postmortem snapshot of every live entry, for the
// CLI's -U dump option to query back after a crashed run.
func (s *Store) DumpHeap(sessionID string, entries []EntrySnapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("tracestore: starting dump transaction: %w", err)
	}
	stmt, err := tx.Prepare(
		"INSERT INTO heap_entries (session_id, idx, tag, use_count, repr) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("tracestore: preparing dump insert: %w", err)
	}
	defer stmt.Close()
	for _, e := range entries {
		if _, err := stmt.Exec(sessionID, e.Index, e.Tag, e.UseCount, e.Repr); err != nil {
			tx.Rollback()
			return fmt.Errorf("tracestore: dumping entry %d: %w", e.Index, err)
		}
	}
	return tx.Commit()
}

// Summary is an aggregate postmortem report for one session.
type Summary struct {
	StepCount  int
	LastPC     int32
	LastState  string
	EntryCount int
}

// Report gathers a Summary for sessionID, for the CLI to print to its
// dump file descriptor.
func (s *Store) Report(sessionID string) (Summary, error) {
	var sum Summary
	row := s.db.QueryRow(
		"SELECT COUNT(*), COALESCE(MAX(pc), 0) FROM steps WHERE session_id = ?", sessionID)
	if err := row.Scan(&sum.StepCount, &sum.LastPC); err != nil {
		return sum, fmt.Errorf("tracestore: summarizing steps: %w", err)
	}
	row = s.db.QueryRow(
		"SELECT state FROM steps WHERE session_id = ? ORDER BY seq DESC LIMIT 1", sessionID)
	if err := row.Scan(&sum.LastState); err != nil && err != sql.ErrNoRows {
		return sum, fmt.Errorf("tracestore: reading last state: %w", err)
	}
	row = s.db.QueryRow(
		"SELECT COUNT(*) FROM heap_entries WHERE session_id = ?", sessionID)
	if err := row.Scan(&sum.EntryCount); err != nil {
		return sum, fmt.Errorf("tracestore: counting dumped entries: %w", err)
	}
	return sum, nil
}
