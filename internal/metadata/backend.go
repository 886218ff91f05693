// Package metadata holds the tag, rating and orientation record of a metadata
// source and the adapter that loads and saves it through a Backend.
package metadata

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Backend reads and writes metadata of files on disk. Implementations wrap an
// external tool; every failure is reported as a metadata error.
type Backend interface {
	// Read returns all fields of the file at path.
	Read(ctx context.Context, path string) (Fields, error)
	// Write sets the given fields; fields not listed are left untouched.
	Write(ctx context.Context, path string, fields Fields) error
	// Remove deletes the named fields from the file.
	Remove(ctx context.Context, path string, names []string) error
	// ProposeName renders template against the file's metadata and returns
	// the resulting file stem (without extension).
	ProposeName(ctx context.Context, path, template string) (string, error)
	// CreateSidecar creates target seeded with the named fields of source.
	CreateSidecar(ctx context.Context, source, target string, fields []string) error
}

// Fields is a flat mapping of metadata field names to values as reported by
// the backend. Multi-valued fields hold []string or []any.
type Fields map[string]any

// Clone returns a shallow copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// String returns a field as string.
func (f Fields) String(key string) (string, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return "", false
	}
	switch value := v.(type) {
	case string:
		return value, true
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64), true
	default:
		return fmt.Sprintf("%v", value), true
	}
}

// Strings returns a list field. A single string counts as one element; empty
// entries are dropped.
func (f Fields) Strings(key string) []string {
	v, ok := f[key]
	if !ok || v == nil {
		return nil
	}

	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	switch value := v.(type) {
	case []string:
		for _, s := range value {
			add(s)
		}
	case []any:
		for _, item := range value {
			add(fmt.Sprintf("%v", item))
		}
	case string:
		add(value)
	default:
		add(fmt.Sprintf("%v", value))
	}
	return out
}

// Int returns a numeric field.
func (f Fields) Int(key string) (int, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return 0, false
	}
	switch value := v.(type) {
	case int:
		return value, true
	case int64:
		return int(value), true
	case float64:
		return int(math.Round(value)), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
