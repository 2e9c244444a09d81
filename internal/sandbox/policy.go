// Package sandbox decides whether a submitted snippet may run.
//
// The check is a static, pre-execution predicate over the raw source text:
// a deny-list of dangerous syntactic patterns, then an allow-list of
// importable capability names. The deny scan is textual, not semantic — it
// can be bypassed by aliasing or string construction. That weakness is the
// documented contract of this boundary; genuine isolation needs a separate
// execution process or a capability-safe interpreter.
package sandbox

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cruciblehq/crucible/internal/lang"
)

// Verdict is the gatekeeper's decision. Evaluate never fails; a snippet is
// either allowed or rejected with a human-readable reason.
type Verdict struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// DenyPattern is one blocked syntactic construct.
type DenyPattern struct {
	Name string
	re   *regexp.Regexp
}

// DefaultDenyPatterns blocks file access, nested evaluation, OS and process
// interaction, and dynamic capability loading.
func DefaultDenyPatterns() []DenyPattern {
	return []DenyPattern{
		{Name: "file open", re: regexp.MustCompile(`\bopen\s*\(`)},
		{Name: "nested exec", re: regexp.MustCompile(`\bexec\s*\(`)},
		{Name: "nested eval", re: regexp.MustCompile(`\beval\s*\(`)},
		{Name: "process spawn", re: regexp.MustCompile(`\b(spawn|system)\s*\(`)},
		{Name: "os access", re: regexp.MustCompile(`\bimport\s+os\b`)},
		{Name: "system access", re: regexp.MustCompile(`\bimport\s+sys\b`)},
		{Name: "dynamic capability loading", re: regexp.MustCompile(`\b__import__\s*\(`)},
	}
}

// Policy is the process-wide gatekeeper configuration: allowed capability
// name prefixes and denied patterns. Established at startup, read-only
// afterwards.
type Policy struct {
	Allowed []string
	Deny    []DenyPattern
}

// NewPolicy builds a policy over the given capability prefixes with the
// default deny patterns.
func NewPolicy(allowed []string) Policy {
	return Policy{Allowed: allowed, Deny: DefaultDenyPatterns()}
}

// Evaluate checks source text against the policy. Pure predicate: no side
// effects, never panics, always returns a verdict.
func (p Policy) Evaluate(source string) Verdict {
	for _, d := range p.Deny {
		if d.re.MatchString(source) {
			return Verdict{Reason: fmt.Sprintf("unsafe pattern detected: %s", d.Name)}
		}
	}

	// Collect disallowed capability requests, deduplicated in order of
	// first appearance. Malformed import lines carry no name to check;
	// they surface later as resolution warnings.
	var disallowed []string
	seen := make(map[string]bool)
	for _, stmt := range lang.Classify(source) {
		if stmt.Kind != lang.KindImport || stmt.Err != nil {
			continue
		}
		name := stmt.Import.Capability
		if p.CapabilityAllowed(name) || seen[name] {
			continue
		}
		seen[name] = true
		disallowed = append(disallowed, name)
	}

	if len(disallowed) > 0 {
		return Verdict{Reason: fmt.Sprintf("capabilities not allowed: %s", strings.Join(disallowed, ", "))}
	}
	return Verdict{Allowed: true}
}

// CapabilityAllowed reports whether a requested dotted name equals, or is a
// dotted sub-path of, a declared allow-list entry.
func (p Policy) CapabilityAllowed(name string) bool {
	for _, entry := range p.Allowed {
		if name == entry || strings.HasPrefix(name, entry+".") {
			return true
		}
	}
	return false
}
