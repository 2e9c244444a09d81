package engine

import (
	"fmt"
	"strings"
)

// Frame points at one statement in the submitted source.
type Frame struct {
	Line   int    `json:"line"`
	Source string `json:"source"`
}

// Trace is the structured record of a failed run: what kind of error, where
// in the snippet, and the evaluator's message.
type Trace struct {
	Kind    string  `json:"kind"`
	Message string  `json:"message"`
	Frames  []Frame `json:"frames"`
}

// String renders the trace in the form shown to the user.
func (t *Trace) String() string {
	var b strings.Builder
	b.WriteString("trace (most recent statement last):\n")
	for _, f := range t.Frames {
		fmt.Fprintf(&b, "  line %d: %s\n", f.Line, f.Source)
	}
	fmt.Fprintf(&b, "%s: %s", t.Kind, t.Message)
	return b.String()
}
