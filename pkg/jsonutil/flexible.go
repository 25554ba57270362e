package jsonutil

import (
	"fmt"
	"strconv"
	"strings"
)

// FlexibleString converts a decoded JSON value to a string, handling records
// that store numbers or booleans where a string is expected. Returns empty
// string for nil.
func FlexibleString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// FlexibleNumber converts a decoded JSON value to a float64. Strings are
// parsed, with unit suffixes and surrounding whitespace tolerated
// ("250 mL" -> 250). The second return reports whether a number was found.
func FlexibleNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		return val, true
	case int:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		// Take the leading numeric run so values like "250 mL" parse.
		end := 0
		for end < len(s) && (s[end] == '-' || s[end] == '+' || s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
			end++
		}
		n, err := strconv.ParseFloat(s[:end], 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// FlexibleStringSlice converts a decoded JSON value to a string slice.
// Accepts arrays of any scalar type and single comma-separated strings.
// Returns nil for nil input, never errors.
func FlexibleStringSlice(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := FlexibleString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(val) == "" {
			return nil
		}
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := FlexibleString(val); s != "" {
			return []string{s}
		}
		return nil
	}
}

// FlexibleMap converts a decoded JSON value to a map, returning nil for
// anything that is not an object.
func FlexibleMap(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m
}
