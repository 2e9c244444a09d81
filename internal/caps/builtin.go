package caps

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"time"
)

// unary wraps a float function for expr's reflective call convention.
func unary(f func(float64) float64) func(any) (float64, error) {
	return func(v any) (float64, error) {
		x, err := toFloat(v)
		if err != nil {
			return 0, err
		}
		return f(x), nil
	}
}

func mathCap() *Capability {
	return &Capability{
		Name: "math",
		Doc:  "elementary math functions and constants",
		Build: func(rt *Runtime) map[string]any {
			return map[string]any{
				"pi":    math.Pi,
				"e":     math.E,
				"sqrt":  unary(math.Sqrt),
				"abs":   unary(math.Abs),
				"floor": unary(math.Floor),
				"ceil":  unary(math.Ceil),
				"round": unary(math.Round),
				"exp":   unary(math.Exp),
				"log":   unary(math.Log),
				"log10": unary(math.Log10),
				"sin":   unary(math.Sin),
				"cos":   unary(math.Cos),
				"tan":   unary(math.Tan),
				"atan":  unary(math.Atan),
				"pow": func(a, b any) (float64, error) {
					x, err := toFloat(a)
					if err != nil {
						return 0, err
					}
					y, err := toFloat(b)
					if err != nil {
						return 0, err
					}
					return math.Pow(x, y), nil
				},
			}
		},
	}
}

func stringsCap() *Capability {
	return &Capability{
		Name: "strings",
		Doc:  "string manipulation helpers",
		Build: func(rt *Runtime) map[string]any {
			return map[string]any{
				"upper":      strings.ToUpper,
				"lower":      strings.ToLower,
				"trim":       strings.TrimSpace,
				"fields":     strings.Fields,
				"split":      strings.Split,
				"contains":   strings.Contains,
				"has_prefix": strings.HasPrefix,
				"has_suffix": strings.HasSuffix,
				"replace":    strings.ReplaceAll,
				"repeat":     strings.Repeat,
				"join": func(list any, sep string) (string, error) {
					parts, err := toStrings(list)
					if err != nil {
						return "", err
					}
					return strings.Join(parts, sep), nil
				},
			}
		},
	}
}

func statsCap() *Capability {
	mean := func(xs []float64) float64 {
		total := 0.0
		for _, x := range xs {
			total += x
		}
		return total / float64(len(xs))
	}

	withList := func(f func([]float64) (float64, error)) func(any) (float64, error) {
		return func(v any) (float64, error) {
			xs, err := toFloats(v)
			if err != nil {
				return 0, err
			}
			if len(xs) == 0 {
				return 0, fmt.Errorf("empty list")
			}
			return f(xs)
		}
	}

	return &Capability{
		Name: "stats",
		Doc:  "descriptive statistics over number lists",
		Build: func(rt *Runtime) map[string]any {
			return map[string]any{
				"sum": withList(func(xs []float64) (float64, error) {
					total := 0.0
					for _, x := range xs {
						total += x
					}
					return total, nil
				}),
				"mean": withList(func(xs []float64) (float64, error) {
					return mean(xs), nil
				}),
				"median": withList(func(xs []float64) (float64, error) {
					sorted := append([]float64(nil), xs...)
					sort.Float64s(sorted)
					n := len(sorted)
					if n%2 == 1 {
						return sorted[n/2], nil
					}
					return (sorted[n/2-1] + sorted[n/2]) / 2, nil
				}),
				"variance": withList(func(xs []float64) (float64, error) {
					m := mean(xs)
					total := 0.0
					for _, x := range xs {
						total += (x - m) * (x - m)
					}
					return total / float64(len(xs)), nil
				}),
				"stdev": withList(func(xs []float64) (float64, error) {
					m := mean(xs)
					total := 0.0
					for _, x := range xs {
						total += (x - m) * (x - m)
					}
					return math.Sqrt(total / float64(len(xs))), nil
				}),
				"minimum": withList(func(xs []float64) (float64, error) {
					lo := xs[0]
					for _, x := range xs[1:] {
						lo = math.Min(lo, x)
					}
					return lo, nil
				}),
				"maximum": withList(func(xs []float64) (float64, error) {
					hi := xs[0]
					for _, x := range xs[1:] {
						hi = math.Max(hi, x)
					}
					return hi, nil
				}),
			}
		},
	}
}

func seqCap() *Capability {
	return &Capability{
		Name: "seq",
		Doc:  "number sequence generators",
		Build: func(rt *Runtime) map[string]any {
			return map[string]any{
				// nums(n) is [0, 1, ..., n-1]
				"nums": func(n any) ([]float64, error) {
					count, err := toInt(n)
					if err != nil {
						return nil, err
					}
					if count < 0 {
						return nil, fmt.Errorf("negative count %d", count)
					}
					out := make([]float64, count)
					for i := range out {
						out[i] = float64(i)
					}
					return out, nil
				},
				"linspace": func(a, b, n any) ([]float64, error) {
					lo, err := toFloat(a)
					if err != nil {
						return nil, err
					}
					hi, err := toFloat(b)
					if err != nil {
						return nil, err
					}
					count, err := toInt(n)
					if err != nil {
						return nil, err
					}
					if count < 2 {
						return nil, fmt.Errorf("linspace needs at least 2 points, got %d", count)
					}
					out := make([]float64, count)
					step := (hi - lo) / float64(count-1)
					for i := range out {
						out[i] = lo + float64(i)*step
					}
					return out, nil
				},
				"rev": func(v any) ([]float64, error) {
					xs, err := toFloats(v)
					if err != nil {
						return nil, err
					}
					out := make([]float64, len(xs))
					for i, x := range xs {
						out[len(xs)-1-i] = x
					}
					return out, nil
				},
			}
		},
	}
}

func randCap() *Capability {
	return &Capability{
		Name: "rand",
		Doc:  "pseudo-random numbers; seed() makes a run deterministic",
		Build: func(rt *Runtime) map[string]any {
			rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
			return map[string]any{
				"seed": func(n any) (any, error) {
					s, err := toInt(n)
					if err != nil {
						return nil, err
					}
					rng = rand.New(rand.NewPCG(uint64(s), 0))
					return nil, nil
				},
				"float": func() float64 { return rng.Float64() },
				"norm":  func() float64 { return rng.NormFloat64() },
				"intn": func(n any) (int, error) {
					limit, err := toInt(n)
					if err != nil {
						return 0, err
					}
					if limit <= 0 {
						return 0, fmt.Errorf("intn limit must be positive, got %d", limit)
					}
					return rng.IntN(limit), nil
				},
				"pick": func(v any) (any, error) {
					list, ok := v.([]any)
					if !ok || len(list) == 0 {
						return nil, fmt.Errorf("pick needs a non-empty list")
					}
					return list[rng.IntN(len(list))], nil
				},
			}
		},
	}
}

func timeCap() *Capability {
	return &Capability{
		Name: "timeutil",
		Doc:  "wall-clock helpers",
		Build: func(rt *Runtime) map[string]any {
			return map[string]any{
				"now":   func() string { return time.Now().Format(time.RFC3339) },
				"unix":  func() int64 { return time.Now().Unix() },
				"date":  func() string { return time.Now().Format("2006-01-02") },
				"clock": func() string { return time.Now().Format("15:04:05") },
			}
		},
	}
}

func jsonCap() *Capability {
	return &Capability{
		Name: "jsonutil",
		Doc:  "JSON encoding and decoding",
		Build: func(rt *Runtime) map[string]any {
			return map[string]any{
				"encode": func(v any) (string, error) {
					data, err := json.Marshal(v)
					if err != nil {
						return "", fmt.Errorf("encoding json: %w", err)
					}
					return string(data), nil
				},
				"pretty": func(v any) (string, error) {
					data, err := json.MarshalIndent(v, "", "  ")
					if err != nil {
						return "", fmt.Errorf("encoding json: %w", err)
					}
					return string(data), nil
				},
				"decode": func(s string) (any, error) {
					var v any
					if err := json.Unmarshal([]byte(s), &v); err != nil {
						return nil, fmt.Errorf("decoding json: %w", err)
					}
					return v, nil
				},
			}
		},
	}
}
