// Package lang classifies snippet source text into typed statements.
//
// A snippet is line-oriented: each non-blank, non-comment line is either an
// import-like statement (binding a capability into the namespace) or a code
// statement evaluated as an expression. The classifier makes one pass over
// the source and tags every line, so the gatekeeper and the engine dispatch
// on statement kind instead of re-parsing raw text.
package lang

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind distinguishes statement variants.
type Kind int

const (
	KindImport Kind = iota
	KindCode
)

// ImportReq is a parsed import-like statement.
type ImportReq struct {
	Capability string // dotted capability name, e.g. "math" or "math.trig"
	Member     string // non-empty for "from X import Y"
	Alias      string // non-empty for "... as Z"
}

// Stmt is one classified statement with its original position.
type Stmt struct {
	Kind   Kind
	Line   int    // 1-based line number in the submitted source
	Text   string // trimmed source text
	Import *ImportReq
	Err    error // non-nil when an import-like line could not be parsed
}

var (
	assignRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=\s*([^=].*)$`)
	identRe  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
)

// Classify splits source into a typed statement list, preserving original
// line order. Blank lines and '#' comments are dropped; line numbers refer
// to the original source so error traces can point at the right line.
func Classify(source string) []Stmt {
	var stmts []Stmt
	for i, raw := range strings.Split(source, "\n") {
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		s := Stmt{Line: i + 1, Text: text}
		// Dispatch on the first word so a bare "import" still surfaces a
		// malformed-import error instead of evaluating as an identifier.
		switch strings.Fields(text)[0] {
		case "import", "from":
			s.Kind = KindImport
			s.Import, s.Err = parseImport(text)
		default:
			s.Kind = KindCode
		}
		stmts = append(stmts, s)
	}
	return stmts
}

// Partition splits classified statements into imports and code, each in
// original line order.
func Partition(stmts []Stmt) (imports, code []Stmt) {
	for _, s := range stmts {
		if s.Kind == KindImport {
			imports = append(imports, s)
		} else {
			code = append(code, s)
		}
	}
	return imports, code
}

// SplitAssign reports whether a code statement is an assignment and, if so,
// returns the target name and the right-hand expression. Comparison
// operators ("==") never match.
func SplitAssign(text string) (name, expr string, ok bool) {
	m := assignRe.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSpace(m[2]), true
}

func parseImport(text string) (*ImportReq, error) {
	fields := strings.Fields(text)

	switch fields[0] {
	case "import":
		// import NAME [as ALIAS]
		switch {
		case len(fields) == 2 && identRe.MatchString(fields[1]):
			return &ImportReq{Capability: fields[1]}, nil
		case len(fields) == 4 && fields[2] == "as" &&
			identRe.MatchString(fields[1]) && identRe.MatchString(fields[3]):
			return &ImportReq{Capability: fields[1], Alias: fields[3]}, nil
		}
	case "from":
		// from NAME import MEMBER [as ALIAS]
		switch {
		case len(fields) == 4 && fields[2] == "import" &&
			identRe.MatchString(fields[1]) && identRe.MatchString(fields[3]):
			return &ImportReq{Capability: fields[1], Member: fields[3]}, nil
		case len(fields) == 6 && fields[2] == "import" && fields[4] == "as" &&
			identRe.MatchString(fields[1]) && identRe.MatchString(fields[3]) &&
			identRe.MatchString(fields[5]):
			return &ImportReq{Capability: fields[1], Member: fields[3], Alias: fields[5]}, nil
		}
	}

	return nil, fmt.Errorf("malformed import statement: %q", text)
}

// BoundName returns the namespace name an import request binds to.
func (r *ImportReq) BoundName() string {
	if r.Alias != "" {
		return r.Alias
	}
	if r.Member != "" {
		return r.Member
	}
	return r.Capability
}
