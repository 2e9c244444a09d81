package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cruciblehq/crucible/internal/caps"
	"github.com/cruciblehq/crucible/internal/history"
	"github.com/cruciblehq/crucible/internal/storage"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements storage.Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and runs migrations.
// Use ":memory:" for an in-memory database (useful for testing).
func Open(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context, sess *storage.Session) error {
	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		sess.ID, sess.Title,
		sess.CreatedAt.Format(time.RFC3339), sess.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*storage.Session, error) {
	// Try exact match first, then prefix match
	sess, err := s.getSessionExact(ctx, id)
	if err == nil {
		return sess, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, created_at, updated_at
		FROM sessions WHERE id LIKE ? || '%'`, id)
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	defer rows.Close()

	var matches []*storage.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, sess)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("session not found: %s", id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous session prefix %q matches %d sessions", id, len(matches))
	}
}

func (s *SQLiteStore) getSessionExact(ctx context.Context, id string) (*storage.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, created_at, updated_at
		FROM sessions WHERE id = ?`, id)
	return scanSessionRow(row)
}

func (s *SQLiteStore) ListSessions(ctx context.Context, opts storage.SessionListOptions) ([]storage.Session, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, created_at, updated_at FROM sessions
		ORDER BY updated_at DESC LIMIT ? OFFSET ?`, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []storage.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) UpdateSession(ctx context.Context, sess *storage.Session) error {
	sess.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET title = ?, updated_at = ? WHERE id = ?`,
		sess.Title, sess.UpdatedAt.Format(time.RFC3339), sess.ID,
	)
	return err
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	// Resolve prefix first
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}

	// Delete records first (foreign key), then session
	_, err = s.db.ExecContext(ctx, `DELETE FROM records WHERE session_id = ?`, sess.ID)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sess.ID)
	return err
}

func (s *SQLiteStore) AppendRecord(ctx context.Context, sessionID string, rec history.Record) error {
	figures, err := json.Marshal(rec.Figures)
	if err != nil {
		return fmt.Errorf("marshaling figures: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (session_id, seq, source, success, output, error_trace, figures, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, rec.Seq, rec.Source, rec.Success, rec.Output, rec.Trace,
		string(figures), createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}

	// Keep the session's recency ordering in sync with activity.
	_, err = s.db.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), sessionID)
	return err
}

func (s *SQLiteStore) LoadRecords(ctx context.Context, sessionID string) ([]history.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, source, success, output, error_trace, figures, created_at
		FROM records WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}
	defer rows.Close()

	var records []history.Record
	for rows.Next() {
		var rec history.Record
		var figures, createdAt string
		if err := rows.Scan(&rec.Seq, &rec.Source, &rec.Success, &rec.Output,
			&rec.Trace, &figures, &createdAt); err != nil {
			return nil, err
		}
		if figures != "" && figures != "null" {
			var figs []caps.Figure
			if err := json.Unmarshal([]byte(figures), &figs); err != nil {
				return nil, fmt.Errorf("unmarshaling figures: %w", err)
			}
			rec.Figures = figs
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) ClearRecords(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE session_id = ?`, sessionID)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Scanner interface to work with both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanSessionFromScanner(s scanner) (*storage.Session, error) {
	var sess storage.Session
	var createdAt, updatedAt string
	err := s.Scan(&sess.ID, &sess.Title, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	sess.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	sess.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &sess, nil
}

func scanSession(rows *sql.Rows) (*storage.Session, error) {
	return scanSessionFromScanner(rows)
}

func scanSessionRow(row *sql.Row) (*storage.Session, error) {
	return scanSessionFromScanner(row)
}
