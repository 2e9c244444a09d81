package storage

import (
	"context"
	"time"

	"github.com/cruciblehq/crucible/internal/history"
)

// Session is the metadata for a saved console session.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionListOptions controls pagination for ListSessions.
type SessionListOptions struct {
	Limit  int
	Offset int
}

// Store is the persistence interface for sessions and their execution
// records. Records are append-only per session; ClearRecords is the only
// bulk mutation, used by the combined session reset.
type Store interface {
	// CreateSession inserts a new session. The ID field must be set by the caller.
	CreateSession(ctx context.Context, s *Session) error

	// GetSession returns a session by ID or unique ID prefix.
	GetSession(ctx context.Context, id string) (*Session, error)

	// ListSessions returns sessions ordered by updated_at descending.
	ListSessions(ctx context.Context, opts SessionListOptions) ([]Session, error)

	// UpdateSession updates mutable fields (title, updated_at).
	UpdateSession(ctx context.Context, s *Session) error

	// DeleteSession removes a session and its records.
	DeleteSession(ctx context.Context, id string) error

	// AppendRecord persists one executed submission.
	AppendRecord(ctx context.Context, sessionID string, rec history.Record) error

	// LoadRecords returns a session's records in execution order.
	LoadRecords(ctx context.Context, sessionID string) ([]history.Record, error)

	// ClearRecords discards all records for a session.
	ClearRecords(ctx context.Context, sessionID string) error

	// Close releases resources.
	Close() error
}
