package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateSuffix marks field names whose string values are comma-separated dates
const DateSuffix = "date"

// IsDateField reports whether values for the field name are parsed as dates
func IsDateField(name string) bool {
	return strings.HasSuffix(name, DateSuffix)
}

// ParseDate parses comma-separated integers (year, month, day and optionally
// hour, minute, second, microsecond) into a UTC time.
func ParseDate(s string) (time.Time, error) {
	tokens := strings.Split(s, ",")
	if len(tokens) < 3 || len(tokens) > 7 {
		return time.Time{}, fmt.Errorf("%w: date %q needs 3 to 7 comma-separated integers, got %d", ErrMalformedValue, s, len(tokens))
	}

	parts := make([]int, 7)
	for i, tok := range tokens {
		n, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: date %q: token %q is not an integer", ErrMalformedValue, s, tok)
		}
		parts[i] = n
	}

	if parts[1] < 1 || parts[1] > 12 {
		return time.Time{}, fmt.Errorf("%w: date %q: month out of range", ErrMalformedValue, s)
	}
	if parts[2] < 1 || parts[2] > 31 {
		return time.Time{}, fmt.Errorf("%w: date %q: day out of range", ErrMalformedValue, s)
	}

	return time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], parts[6]*1000, time.UTC), nil
}

// Coerce converts a decoded scalar to the Go type of the kind.
// nil passes through as NULL.
func (k Kind) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch k {
	case KindInt:
		return coerceInt(v)
	case KindFloat:
		return coerceFloat(v)
	case KindBool:
		return coerceBool(v)
	case KindDateTime:
		switch t := v.(type) {
		case time.Time:
			return t.UTC(), nil
		case string:
			return ParseDate(t)
		}
	case KindString:
		switch t := v.(type) {
		case string:
			return t, nil
		case json.Number:
			return t.String(), nil
		case int, int64, float64, bool:
			return fmt.Sprint(t), nil
		}
	}
	return nil, fmt.Errorf("%w: cannot use %v (%T) as %s", ErrMalformedValue, v, v, k)
}

// AsInt reports whether v is an integer value and returns it.
// JSON numbers and integral floats count as integers.
func AsInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) {
			return int64(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	}
	return 0, false
}

func coerceInt(v any) (any, error) {
	if n, ok := AsInt(v); ok {
		return n, nil
	}
	if s, ok := v.(string); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err == nil {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: cannot use %v (%T) as int", ErrMalformedValue, v, v)
}

func coerceFloat(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, nil
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: cannot use %v (%T) as float", ErrMalformedValue, v, v)
}

func coerceBool(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
			return parsed, nil
		}
	}
	if n, ok := AsInt(v); ok && (n == 0 || n == 1) {
		return n == 1, nil
	}
	return nil, fmt.Errorf("%w: cannot use %v (%T) as bool", ErrMalformedValue, v, v)
}
