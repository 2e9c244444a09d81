// Package caps defines the restricted capability surface a snippet may bind
// into its namespace, and the per-run runtime those capabilities write
// through (captured output streams, generated figures).
package caps

import (
	"fmt"
	"io"
)

// Figure is a graphical artifact generated by a snippet via the plot
// capability. Figures are plain data so they can be serialized into history
// records and rendered by the UI.
type Figure struct {
	Seq    int       `json:"seq"`
	Kind   string    `json:"kind"` // line, scatter, bar, hist
	Title  string    `json:"title,omitempty"`
	Labels []string  `json:"labels,omitempty"`
	X      []float64 `json:"x,omitempty"`
	Y      []float64 `json:"y,omitempty"`
	Bins   int       `json:"bins,omitempty"`
}

// Runtime is the per-run context capabilities are bound against. It carries
// the captured output streams and collects figures in creation order.
type Runtime struct {
	Stdout io.Writer
	Stderr io.Writer

	figures []Figure
}

// AddFigure appends a figure and returns its 1-based sequence number.
func (rt *Runtime) AddFigure(f Figure) int {
	f.Seq = len(rt.figures) + 1
	rt.figures = append(rt.figures, f)
	return f.Seq
}

// SetTitle sets the title of the most recently created figure.
func (rt *Runtime) SetTitle(title string) error {
	if len(rt.figures) == 0 {
		return fmt.Errorf("no figure to title")
	}
	rt.figures[len(rt.figures)-1].Title = title
	return nil
}

// Figures returns the collected figures in creation order.
func (rt *Runtime) Figures() []Figure {
	return rt.figures
}

// Builtins returns the helper functions injected into every run's working
// namespace. They are bound under reserved tracking so they never leak into
// persisted session state.
func Builtins(rt *Runtime) map[string]any {
	return map[string]any{
		"print": func(args ...any) any {
			fmt.Fprintln(rt.Stdout, args...)
			return nil
		},
		"eprint": func(args ...any) any {
			fmt.Fprintln(rt.Stderr, args...)
			return nil
		},
	}
}
