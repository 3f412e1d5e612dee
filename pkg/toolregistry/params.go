package toolregistry

import (
	"encoding/json"
	"fmt"
	"math"
)

// StringParam returns a required string field from the parameter bag
func StringParam(params map[string]interface{}, name string) (string, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidParameters, name)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidParameters, name, raw)
	}
	return s, nil
}

// OptionalStringParam returns a string field, or fallback when the field is absent
func OptionalStringParam(params map[string]interface{}, name, fallback string) (string, error) {
	if raw, ok := params[name]; !ok || raw == nil {
		return fallback, nil
	}
	return StringParam(params, name)
}

// IntParam returns a required integer field. JSON-decoded numbers arrive as float64 or
// json.Number; both are accepted as long as they carry no fractional part.
func IntParam(params map[string]interface{}, name string) (int, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidParameters, name)
	}

	switch v := raw.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int64ToInt(name, v)
	case float32:
		return floatToInt(name, float64(v))
	case float64:
		return floatToInt(name, v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int64ToInt(name, n)
		}
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer, got %s", ErrInvalidParameters, name, v.String())
		}
		return floatToInt(name, f)
	default:
		return 0, fmt.Errorf("%w: %s must be an integer, got %T", ErrInvalidParameters, name, raw)
	}
}

// Floats at or beyond 2^63 (2^31 on 32-bit) do not fit an int.
const intLimit = -float64(math.MinInt)

func floatToInt(name string, f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidParameters, name, f)
	}
	if f < -intLimit || f >= intLimit {
		return 0, fmt.Errorf("%w: %s is out of range, got %v", ErrInvalidParameters, name, f)
	}
	return int(f), nil
}

func int64ToInt(name string, n int64) (int, error) {
	if n < math.MinInt || n > math.MaxInt {
		return 0, fmt.Errorf("%w: %s is out of range, got %d", ErrInvalidParameters, name, n)
	}
	return int(n), nil
}
