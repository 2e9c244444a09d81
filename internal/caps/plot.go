package caps

import "fmt"

// plotCap is the figure-producing capability. Each call appends a Figure to
// the run's collector; figures come back from the engine in creation order.
func plotCap() *Capability {
	return &Capability{
		Name: "plot",
		Doc:  "figure generation (line, xy, scatter, bar, hist, title)",
		Build: func(rt *Runtime) map[string]any {
			return map[string]any{
				"line": func(ys any) (int, error) {
					y, err := toFloats(ys)
					if err != nil {
						return 0, fmt.Errorf("plot.line: %w", err)
					}
					x := make([]float64, len(y))
					for i := range x {
						x[i] = float64(i)
					}
					return rt.AddFigure(Figure{Kind: "line", X: x, Y: y}), nil
				},
				"xy": func(xs, ys any) (int, error) {
					x, err := toFloats(xs)
					if err != nil {
						return 0, fmt.Errorf("plot.xy: %w", err)
					}
					y, err := toFloats(ys)
					if err != nil {
						return 0, fmt.Errorf("plot.xy: %w", err)
					}
					if len(x) != len(y) {
						return 0, fmt.Errorf("plot.xy: x has %d points, y has %d", len(x), len(y))
					}
					return rt.AddFigure(Figure{Kind: "line", X: x, Y: y}), nil
				},
				"scatter": func(xs, ys any) (int, error) {
					x, err := toFloats(xs)
					if err != nil {
						return 0, fmt.Errorf("plot.scatter: %w", err)
					}
					y, err := toFloats(ys)
					if err != nil {
						return 0, fmt.Errorf("plot.scatter: %w", err)
					}
					if len(x) != len(y) {
						return 0, fmt.Errorf("plot.scatter: x has %d points, y has %d", len(x), len(y))
					}
					return rt.AddFigure(Figure{Kind: "scatter", X: x, Y: y}), nil
				},
				"bar": func(labels, values any) (int, error) {
					names, err := toStrings(labels)
					if err != nil {
						return 0, fmt.Errorf("plot.bar: %w", err)
					}
					y, err := toFloats(values)
					if err != nil {
						return 0, fmt.Errorf("plot.bar: %w", err)
					}
					if len(names) != len(y) {
						return 0, fmt.Errorf("plot.bar: %d labels for %d values", len(names), len(y))
					}
					return rt.AddFigure(Figure{Kind: "bar", Labels: names, Y: y}), nil
				},
				"hist": func(values, bins any) (int, error) {
					y, err := toFloats(values)
					if err != nil {
						return 0, fmt.Errorf("plot.hist: %w", err)
					}
					n, err := toInt(bins)
					if err != nil {
						return 0, fmt.Errorf("plot.hist: %w", err)
					}
					if n <= 0 {
						return 0, fmt.Errorf("plot.hist: bins must be positive, got %d", n)
					}
					return rt.AddFigure(Figure{Kind: "hist", Y: y, Bins: n}), nil
				},
				"title": func(s string) (any, error) {
					if err := rt.SetTitle(s); err != nil {
						return nil, fmt.Errorf("plot.title: %w", err)
					}
					return nil, nil
				},
			}
		},
	}
}
