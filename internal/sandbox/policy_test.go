package sandbox

import (
	"strings"
	"testing"
)

func TestDenyPatterns(t *testing.T) {
	p := NewPolicy([]string{"math"})

	tests := []struct {
		source string
		want   string // substring of the rejection reason
	}{
		{`f = open("data.txt")`, "file open"},
		{`exec("print(1)")`, "nested exec"},
		{`eval("2 + 2")`, "nested eval"},
		{`system("ls")`, "process spawn"},
		{`spawn("worker")`, "process spawn"},
		{"import os", "os access"},
		{"import sys", "system access"},
		{`__import__("shutil")`, "dynamic capability loading"},
	}

	for _, tc := range tests {
		v := p.Evaluate(tc.source)
		if v.Allowed {
			t.Errorf("%q: allowed, want denied", tc.source)
			continue
		}
		if !strings.Contains(v.Reason, tc.want) {
			t.Errorf("%q: reason = %q, want it to name %q", tc.source, v.Reason, tc.want)
		}
	}
}

func TestDenyScanIsTextual(t *testing.T) {
	p := NewPolicy([]string{"math"})

	// The scan matches anywhere in the text, even inside strings or
	// comments. That over-matching is part of the observed contract.
	v := p.Evaluate(`x = "call open( for a surprise"`)
	if v.Allowed {
		t.Error("pattern inside a string literal should still be denied")
	}
}

func TestAllowListPrefixMatching(t *testing.T) {
	p := NewPolicy([]string{"math", "stats"})

	if !p.CapabilityAllowed("math") {
		t.Error("exact match should be allowed")
	}
	if !p.CapabilityAllowed("math.trig") {
		t.Error("dotted sub-path of a declared entry should be allowed")
	}
	if p.CapabilityAllowed("mathx") {
		t.Error("prefix match must respect dotted boundaries")
	}
	if p.CapabilityAllowed("subprocess") {
		t.Error("undeclared capability should be rejected")
	}
}

func TestDisallowedImportsListed(t *testing.T) {
	p := NewPolicy([]string{"math"})

	src := strings.Join([]string{
		"import net",
		"import math",
		"import proc",
		"import net", // duplicate, reported once
	}, "\n")

	v := p.Evaluate(src)
	if v.Allowed {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(v.Reason, "net, proc") {
		t.Errorf("reason = %q, want disallowed names deduplicated in first-appearance order", v.Reason)
	}
}

func TestAllowedSnippet(t *testing.T) {
	p := NewPolicy([]string{"math", "plot"})

	v := p.Evaluate("import math\nx = math.sqrt(4)\nprint(x)")
	if !v.Allowed {
		t.Errorf("rejected: %s", v.Reason)
	}
	if v.Reason != "" {
		t.Errorf("reason = %q on an allowed snippet", v.Reason)
	}
}

func TestEvaluateIsPure(t *testing.T) {
	p := NewPolicy(nil)

	// Degenerate inputs still return a verdict.
	for _, src := range []string{"", "import", "from", "\n\n\n", "import x"} {
		_ = p.Evaluate(src)
	}
}
