// Package engine executes approved snippets against a session namespace.
//
// The engine must only see source the gatekeeper has already allowed. It
// partitions statements into imports and code, resolves imports through the
// capability registry into a working copy of the namespace, captures all
// output into scoped buffers, and merges bindings back into the session
// store only when the whole snippet succeeds.
package engine

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"

	"github.com/cruciblehq/crucible/internal/caps"
	"github.com/cruciblehq/crucible/internal/lang"
	"github.com/cruciblehq/crucible/internal/namespace"
)

// NoOutputMessage replaces empty captured output on a successful run.
const NoOutputMessage = "Code executed successfully with no output."

// Result is the outcome of one run.
type Result struct {
	Success bool          `json:"success"`
	Output  string        `json:"output"`
	Trace   *Trace        `json:"trace,omitempty"`
	Figures []caps.Figure `json:"figures,omitempty"`
}

// Engine runs snippets. One engine serializes all runs through its capture
// slot; the snippet language has no cancellation, so a run always proceeds
// to completion or to its first error.
type Engine struct {
	registry  *caps.Registry
	captureMu sync.Mutex
}

// New returns an engine over the given capability registry.
func New(registry *caps.Registry) *Engine {
	return &Engine{registry: registry}
}

// Run executes one snippet against ns. On success the working namespace is
// merged back into ns; on any evaluation error ns is left exactly as it was
// before the run.
func (e *Engine) Run(source string, ns *namespace.Store) *Result {
	guard := e.acquireCapture()
	defer guard.Release()

	rt := &caps.Runtime{Stdout: guard.stdout, Stderr: guard.stderr}
	imports, code := lang.Partition(lang.Classify(source))

	// Working copy: session bindings plus injected helpers. Injected names
	// are tracked so they never merge back into session state.
	env := ns.Snapshot()
	injected := make(map[string]bool)
	for name, fn := range caps.Builtins(rt) {
		env[name] = fn
		injected[name] = true
	}

	// Resolution failures are warnings, not errors: an approved capability
	// the runtime cannot provide must not abort the rest of the snippet.
	for _, stmt := range imports {
		if stmt.Err != nil {
			fmt.Fprintf(rt.Stderr, "warning: line %d: %v\n", stmt.Line, stmt.Err)
			continue
		}
		req := stmt.Import
		value, err := e.registry.Resolve(rt, req.Capability, req.Member)
		if err != nil {
			fmt.Fprintf(rt.Stderr, "warning: line %d: %v\n", stmt.Line, err)
			continue
		}
		name := req.BoundName()
		env[name] = value
		injected[name] = true
	}

	// Single atomic pass over the code statements. The first error discards
	// the working namespace entirely.
	for _, stmt := range code {
		if err := evalStmt(stmt, env); err != nil {
			return &Result{
				Success: false,
				Trace: &Trace{
					Kind:    "eval error",
					Message: err.Error(),
					Frames:  []Frame{{Line: stmt.Line, Source: stmt.Text}},
				},
			}
		}
	}

	updates := make(map[string]any)
	for name, value := range env {
		if injected[name] || namespace.Reserved(name) {
			continue
		}
		updates[name] = value
	}
	ns.Merge(updates)

	output := guard.Combined()
	if output == "" {
		output = NoOutputMessage
	}
	return &Result{Success: true, Output: output, Figures: rt.Figures()}
}

// evalStmt evaluates one code statement against the working namespace.
// Assignments bind the evaluated right-hand side; anything else is a bare
// expression run for its side effects.
func evalStmt(stmt lang.Stmt, env map[string]any) error {
	if name, rhs, ok := lang.SplitAssign(stmt.Text); ok {
		if namespace.Reserved(name) {
			return fmt.Errorf("cannot assign to reserved name %q", name)
		}
		value, err := evalExpr(rhs, env)
		if err != nil {
			return err
		}
		env[name] = value
		return nil
	}

	_, err := evalExpr(stmt.Text, env)
	return err
}

// evalExpr compiles the expression against the working namespace before
// running it, so a reference to a name that isn't bound fails the statement
// instead of silently evaluating to nil.
func evalExpr(src string, env map[string]any) (any, error) {
	program, err := expr.Compile(src, expr.Env(env))
	if err != nil {
		return nil, err
	}
	return expr.Run(program, env)
}
