// Package session ties one interactive context's namespace and history
// together and tracks which sessions are live in memory.
package session

import (
	"context"
	"sync"

	"github.com/cruciblehq/crucible/internal/engine"
	"github.com/cruciblehq/crucible/internal/history"
	"github.com/cruciblehq/crucible/internal/namespace"
	"github.com/cruciblehq/crucible/internal/sandbox"
	"github.com/cruciblehq/crucible/internal/storage"
)

// Session is the persistent context for one interactive user: a namespace
// that survives across runs and the ledger of everything submitted.
// Namespace and ledger are owned exclusively by this session.
type Session struct {
	ID        string
	Namespace *namespace.Store
	Ledger    *history.Ledger

	mu sync.Mutex // one submission at a time
}

// New returns a fresh session with an empty namespace and ledger.
func New(id string) *Session {
	return &Session{
		ID:        id,
		Namespace: namespace.New(),
		Ledger:    history.New(),
	}
}

// Submit runs one snippet through the gatekeeper and, if allowed, the
// engine. Executed submissions are appended to the ledger; rejected ones
// are surfaced through the verdict and leave both namespace and ledger
// untouched. Submissions are serialized per session.
func (s *Session) Submit(pol sandbox.Policy, eng *engine.Engine, source string) (sandbox.Verdict, *history.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	verdict := pol.Evaluate(source)
	if !verdict.Allowed {
		return verdict, nil
	}

	res := eng.Run(source, s.Namespace)

	rec := history.Record{
		Source:  source,
		Success: res.Success,
		Output:  res.Output,
		Figures: res.Figures,
	}
	if res.Trace != nil {
		rec.Trace = res.Trace.String()
	}
	rec = s.Ledger.Append(rec)
	return verdict, &rec
}

// Reset clears the ledger and the namespace together. A subsequent run
// sees no prior bindings.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Ledger.Clear()
	s.Namespace.Reset()
}

// Manager tracks which sessions are live in memory.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Get returns a live session if it exists.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// GetOrCreate returns the live session for the stored metadata, rehydrating
// its ledger from persisted records on first use. The namespace holds
// opaque in-memory values and always starts empty after a process restart.
func (m *Manager) GetOrCreate(ctx context.Context, meta *storage.Session, store storage.Store) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[meta.ID]; ok {
		return sess, nil
	}

	sess := New(meta.ID)
	if store != nil {
		records, err := store.LoadRecords(ctx, meta.ID)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			sess.Ledger.Append(rec)
		}
	}

	m.sessions[meta.ID] = sess
	return sess, nil
}

// Remove drops a session from memory.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// CloseAll drops every live session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.sessions {
		delete(m.sessions, id)
	}
}
