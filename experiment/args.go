package experiment

import "fmt"

// Args holds a call's bound arguments. Values come from YAML, so numbers may
// arrive as int or float64 and lists as []any.
type Args map[string]any

func (a Args) Float(name string) (float64, error) {
	f, ok := toFloat(a[name])
	if !ok {
		return 0, fmt.Errorf("argument %s: want number, got %T", name, a[name])
	}
	return f, nil
}

func (a Args) Int(name string) (int, error) {
	switch v := a[name].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v == float64(int(v)) {
			return int(v), nil
		}
	}
	return 0, fmt.Errorf("argument %s: want integer, got %v", name, a[name])
}

func (a Args) Bool(name string) (bool, error) {
	b, ok := a[name].(bool)
	if !ok {
		return false, fmt.Errorf("argument %s: want bool, got %T", name, a[name])
	}
	return b, nil
}

func (a Args) Floats(name string) ([]float64, error) {
	switch v := a[name].(type) {
	case []float64:
		return append([]float64(nil), v...), nil
	case [2]float64:
		return v[:], nil
	case []any:
		out := make([]float64, len(v))
		for i, x := range v {
			f, ok := toFloat(x)
			if !ok {
				return nil, fmt.Errorf("argument %s[%d]: want number, got %T", name, i, x)
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, fmt.Errorf("argument %s: want list of numbers, got %T", name, a[name])
}

// Range reads a two-element [low, high] list.
func (a Args) Range(name string) ([2]float64, error) {
	v, err := a.Floats(name)
	if err != nil {
		return [2]float64{}, err
	}
	if len(v) != 2 {
		return [2]float64{}, fmt.Errorf("argument %s: want [low, high], got %d values", name, len(v))
	}
	return [2]float64{v[0], v[1]}, nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}
