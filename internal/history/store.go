// Package history archives completed practice sessions locally.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kmercer/greenroom/internal/feedback"
	"github.com/kmercer/greenroom/internal/logging"
)

// Entry is one archived session summary.
type Entry struct {
	ID         string
	Target     string
	StartedAt  time.Time
	FinishedAt time.Time
	Answers    int
}

// Store keeps completed session reports in a local SQLite database so
// practice history survives backend outages.
type Store struct {
	conn *sql.DB
}

// DefaultPath returns the database location under the state directory.
func DefaultPath() (string, error) {
	dir, err := logging.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// Open opens (and if needed creates) the archive at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}

	store := &Store{conn: conn}
	if err := store.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create history tables: %w", err)
	}
	return store, nil
}

func (s *Store) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		answers INTEGER NOT NULL,
		report TEXT NOT NULL
	);
	`
	_, err := s.conn.Exec(query)
	return err
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Save archives one completed session report.
func (s *Store) Save(ctx context.Context, report feedback.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, target, started_at, finished_at, answers, report)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		report.ID, report.Target, report.StartedAt.UTC(), report.FinishedAt.UTC(),
		len(report.QuestionsAnswers), string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Recent returns the most recently finished sessions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, target, started_at, finished_at, answers
		 FROM sessions ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Target, &e.StartedAt, &e.FinishedAt, &e.Answers); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Report loads the full archived report for one session.
func (s *Store) Report(ctx context.Context, id string) (feedback.Report, error) {
	var payload string
	err := s.conn.QueryRowContext(ctx,
		`SELECT report FROM sessions WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		return feedback.Report{}, fmt.Errorf("load session %s: %w", id, err)
	}

	var report feedback.Report
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return feedback.Report{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return report, nil
}
