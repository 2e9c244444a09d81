package caps

import "fmt"

// toFloat converts the numeric types expr hands to capability functions.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func toInt(v any) (int, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// toFloats converts a list argument into a float slice.
func toFloats(v any) ([]float64, error) {
	switch list := v.(type) {
	case []float64:
		return list, nil
	case []int:
		out := make([]float64, len(list))
		for i, n := range list {
			out[i] = float64(n)
		}
		return out, nil
	case []any:
		out := make([]float64, len(list))
		for i, item := range list {
			f, err := toFloat(item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of numbers, got %T", v)
	}
}

func toStrings(v any) ([]string, error) {
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("element %d: expected a string, got %T", i, item)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", v)
	}
}
