package lang

import "testing"

func TestClassifyPartition(t *testing.T) {
	src := `# warm-up
import math
x = 1

from stats import mean as avg
print(x)`

	stmts := Classify(src)
	if len(stmts) != 4 {
		t.Fatalf("got %d statements, want 4", len(stmts))
	}

	imports, code := Partition(stmts)
	if len(imports) != 2 {
		t.Fatalf("got %d imports, want 2", len(imports))
	}
	if len(code) != 2 {
		t.Fatalf("got %d code statements, want 2", len(code))
	}

	// Original line order preserved within each partition.
	if imports[0].Import.Capability != "math" || imports[1].Import.Capability != "stats" {
		t.Errorf("import order = %q, %q", imports[0].Import.Capability, imports[1].Import.Capability)
	}
	if code[0].Text != "x = 1" || code[1].Text != "print(x)" {
		t.Errorf("code order = %q, %q", code[0].Text, code[1].Text)
	}

	// Line numbers refer to the original source.
	if imports[0].Line != 2 {
		t.Errorf("import math line = %d, want 2", imports[0].Line)
	}
	if code[1].Line != 6 {
		t.Errorf("print line = %d, want 6", code[1].Line)
	}
}

func TestParseImportForms(t *testing.T) {
	tests := []struct {
		text  string
		want  ImportReq
		bound string
	}{
		{"import math", ImportReq{Capability: "math"}, "math"},
		{"import math as m", ImportReq{Capability: "math", Alias: "m"}, "m"},
		{"from math import sqrt", ImportReq{Capability: "math", Member: "sqrt"}, "sqrt"},
		{"from stats import mean as avg", ImportReq{Capability: "stats", Member: "mean", Alias: "avg"}, "avg"},
		{"import math.trig", ImportReq{Capability: "math.trig"}, "math.trig"},
	}

	for _, tc := range tests {
		stmts := Classify(tc.text)
		if len(stmts) != 1 || stmts[0].Kind != KindImport {
			t.Fatalf("%q: not classified as a single import", tc.text)
		}
		got := stmts[0].Import
		if stmts[0].Err != nil {
			t.Fatalf("%q: parse error: %v", tc.text, stmts[0].Err)
		}
		if *got != tc.want {
			t.Errorf("%q: parsed %+v, want %+v", tc.text, *got, tc.want)
		}
		if got.BoundName() != tc.bound {
			t.Errorf("%q: bound name %q, want %q", tc.text, got.BoundName(), tc.bound)
		}
	}
}

func TestParseImportMalformed(t *testing.T) {
	for _, text := range []string{"import", "from", "from math", "import a b c", "from math import"} {
		stmts := Classify(text)
		if len(stmts) != 1 || stmts[0].Kind != KindImport {
			t.Fatalf("%q: not classified as a single import", text)
		}
		if stmts[0].Err == nil {
			t.Errorf("%q: expected parse error", text)
		}
	}
}

func TestSplitAssign(t *testing.T) {
	tests := []struct {
		text       string
		name, expr string
		ok         bool
	}{
		{"x = 1", "x", "1", true},
		{"total = a + b", "total", "a + b", true},
		{"x == 1", "", "", false},
		{"print(x)", "", "", false},
		{"2 = x", "", "", false},
	}

	for _, tc := range tests {
		name, expr, ok := SplitAssign(tc.text)
		if ok != tc.ok {
			t.Errorf("%q: ok = %v, want %v", tc.text, ok, tc.ok)
			continue
		}
		if ok && (name != tc.name || expr != tc.expr) {
			t.Errorf("%q: got (%q, %q), want (%q, %q)", tc.text, name, expr, tc.name, tc.expr)
		}
	}
}
