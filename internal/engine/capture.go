package engine

import (
	"bytes"
	"strings"
	"sync"
)

// captureGuard owns the redirected output streams for one run. It is a
// scoped resource: exactly one run may hold it at a time, and Release must
// run on every exit path — a leaked capture would corrupt output for every
// subsequent run in the process.
type captureGuard struct {
	mu       *sync.Mutex
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	released bool
}

// acquireCapture blocks until the engine's capture slot is free and returns
// a guard holding fresh buffers.
func (e *Engine) acquireCapture() *captureGuard {
	e.captureMu.Lock()
	return &captureGuard{
		mu:     &e.captureMu,
		stdout: new(bytes.Buffer),
		stderr: new(bytes.Buffer),
	}
}

// Release drops the buffers and frees the capture slot. Safe to call more
// than once; only the first call has effect.
func (g *captureGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.stdout = nil
	g.stderr = nil
	g.mu.Unlock()
}

// Combined returns stdout content followed by stderr content, trimmed.
// Concatenation by stream, not chronological interleaving: a deliberate
// simplification carried over from the capture contract.
func (g *captureGuard) Combined() string {
	return strings.TrimSpace(g.stdout.String() + g.stderr.String())
}
