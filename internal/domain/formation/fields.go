package formation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Fields is the flat, loosely typed field bag a CRM record arrives as.
// Every accessor degrades to a zero value instead of failing.
type Fields map[string]any

func (f Fields) Has(key string) bool {
	if f == nil {
		return false
	}
	v, ok := f[key]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return false
	}
	return true
}

// String returns the trimmed text form of key. Single-element lists (linked
// records, lookups) are unwrapped.
func (f Fields) String(key string) string {
	if f == nil {
		return ""
	}
	return strings.TrimSpace(stringify(f[key]))
}

// Float parses key as a number. "60%", "1,000" and " 0.5 " are accepted.
func (f Fields) Float(key string) (float64, bool) {
	if f == nil {
		return 0, false
	}
	return toFloat(f[key])
}

// Int parses key as a whole number, truncating fractions.
func (f Fields) Int(key string) (int, bool) {
	v, ok := f.Float(key)
	if !ok {
		return 0, false
	}
	return int(v), true
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case []any:
		if len(t) == 0 {
			return ""
		}
		return stringify(t[0])
	case []string:
		if len(t) == 0 {
			return ""
		}
		return t[0]
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// toFloat rejects NaN and the infinities; they would not survive JSON encoding.
func toFloat(v any) (float64, bool) {
	f, ok := parseFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case []any:
		if len(t) == 0 {
			return 0, false
		}
		return parseFloat(t[0])
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimSuffix(s, "%")
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
