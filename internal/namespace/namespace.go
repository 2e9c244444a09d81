// Package namespace implements the persistent per-session binding store.
//
// The store survives across runs: a variable bound by one snippet stays
// visible to the next. Only the execution engine mutates it, and only after
// a successful run; a failed run leaves the store untouched.
package namespace

import "strings"

// ReservedPrefix marks implementation-internal bindings. Names with this
// prefix are never surfaced by Snapshot, never overwritten by Merge, and
// never serialized into history.
const ReservedPrefix = "__"

// Reserved reports whether a binding name is implementation-internal.
func Reserved(name string) bool {
	return strings.HasPrefix(name, ReservedPrefix)
}

// Store maps binding names to opaque values for one session.
type Store struct {
	bindings map[string]any
}

// New returns an empty store.
func New() *Store {
	return &Store{bindings: make(map[string]any)}
}

// Merge folds updates into the store, adding or overwriting per key.
// Keys already in the store but absent from updates are kept. Reserved
// names in updates are ignored.
func (s *Store) Merge(updates map[string]any) {
	for name, value := range updates {
		if Reserved(name) {
			continue
		}
		s.bindings[name] = value
	}
}

// Snapshot returns a copy of the current bindings, excluding reserved
// names. Mutating the returned map does not affect the store.
func (s *Store) Snapshot() map[string]any {
	out := make(map[string]any, len(s.bindings))
	for name, value := range s.bindings {
		if Reserved(name) {
			continue
		}
		out[name] = value
	}
	return out
}

// Len returns the number of user-visible bindings.
func (s *Store) Len() int {
	n := 0
	for name := range s.bindings {
		if !Reserved(name) {
			n++
		}
	}
	return n
}

// Reset clears all bindings. This is the only way back to an empty
// namespace.
func (s *Store) Reset() {
	s.bindings = make(map[string]any)
}
