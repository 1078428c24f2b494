// Package config holds the value conversions shared by the config stores.
//
// TOML decodes integers as int64 and YAML as int, while values set at
// runtime may be any Go type, so every store funnels reads through here.
package config

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// String returns val as a string, or "" when it is not one.
func String(val any) string {
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// Int returns val as an int. Numeric strings are accepted.
func Int(val any) int {
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Float returns val as a float64. Numeric strings are accepted.
func Float(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Bool returns val as a bool, or false when it is not one.
func Bool(val any) bool {
	b, ok := val.(bool)
	return ok && b
}

// Duration parses val as a duration. Bare numbers are seconds.
func Duration(val any) time.Duration {
	switch v := val.(type) {
	case time.Duration:
		return v
	case string:
		s := strings.TrimSpace(v)
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
		if n, err := strconv.Atoi(s); err == nil {
			return time.Duration(n) * time.Second
		}
		return 0
	case int, int64, float64:
		return time.Duration(Float(v) * float64(time.Second))
	default:
		return 0
	}
}

// Parse converts a command-line value into the most specific scalar type
// so that it is stored as a TOML integer, float or boolean.
func Parse(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

// Flatten converts nested maps to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func Flatten(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			for k, v := range Flatten(nested, fullKey) {
				result[k] = v
			}
		} else {
			result[fullKey] = value
		}
	}

	return result
}

// Unflatten rebuilds nested tables from dot-notation keys so the file
// keeps its [section] layout. A key that is both a leaf and a prefix keeps
// the nested table.
func Unflatten(flat map[string]any) map[string]any {
	root := make(map[string]any)

	for key, value := range flat {
		parts := strings.Split(key, ".")
		node := root
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		leaf := parts[len(parts)-1]
		if _, isTable := node[leaf].(map[string]any); !isTable {
			node[leaf] = value
		}
	}

	return root
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
