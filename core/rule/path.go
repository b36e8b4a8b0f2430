// Package rule - fact path resolution and value comparison
package rule

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"bundle-pricing/internal/errors"
)

// ResolvePath resolves a dotted, optionally indexed path against the
// fact source. The first segment names the root fact; the remaining
// segments navigate string-keyed maps and indexed slices. A path that
// leads nowhere resolves to nil, never to an error.
func ResolvePath(ctx context.Context, facts FactSource, path string) (interface{}, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	root, err := facts.Fact(ctx, segments[0].name)
	if err != nil {
		return nil, err
	}

	value := indexInto(root, segments[0].indexes)
	for _, seg := range segments[1:] {
		value = navigate(value, seg.name)
		value = indexInto(value, seg.indexes)
		if value == nil {
			return nil, nil
		}
	}
	return value, nil
}

type pathSegment struct {
	name    string
	indexes []int
}

func splitPath(path string) ([]pathSegment, error) {
	if path == "" {
		return nil, errors.Validation("empty condition path")
	}

	parts := strings.Split(path, ".")
	segments := make([]pathSegment, 0, len(parts))
	for _, part := range parts {
		seg := pathSegment{name: part}
		for {
			open := strings.IndexByte(seg.name, '[')
			if open < 0 {
				break
			}
			end := strings.IndexByte(seg.name, ']')
			if end < open {
				return nil, errors.Validationf("malformed path segment: %s", part)
			}
			idx, err := strconv.Atoi(seg.name[open+1 : end])
			if err != nil {
				return nil, errors.Validationf("malformed path index: %s", part)
			}
			seg.indexes = append(seg.indexes, idx)
			seg.name = seg.name[:open] + seg.name[end+1:]
		}
		if seg.name == "" {
			return nil, errors.Validationf("empty path segment in %q", path)
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func navigate(value interface{}, key string) interface{} {
	m, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	return m[key]
}

func indexInto(value interface{}, indexes []int) interface{} {
	for _, idx := range indexes {
		switch s := value.(type) {
		case []interface{}:
			if idx < 0 || idx >= len(s) {
				return nil
			}
			value = s[idx]
		case []string:
			if idx < 0 || idx >= len(s) {
				return nil
			}
			value = s[idx]
		default:
			return nil
		}
	}
	return value
}

// compareEqual compares two values, treating numerics numerically
// and everything else by string form
func compareEqual(a, b interface{}) bool {
	da, aok := toDecimal(a)
	db, bok := toDecimal(b)
	if aok && bok {
		return da.Equal(db)
	}
	return toString(a) == toString(b)
}

// compareNumeric returns the sign of a-b; ok is false when either
// value is not numeric
func compareNumeric(a, b interface{}) (int, bool) {
	da, aok := toDecimal(a)
	db, bok := toDecimal(b)
	if !aok || !bok {
		return 0, false
	}
	return da.Cmp(db), true
}

func containedIn(value, list interface{}) bool {
	switch items := list.(type) {
	case []interface{}:
		for _, item := range items {
			if compareEqual(value, item) {
				return true
			}
		}
	case []string:
		for _, item := range items {
			if compareEqual(value, item) {
				return true
			}
		}
	}
	return false
}

func between(value, bounds interface{}) bool {
	pair, ok := bounds.([]interface{})
	if !ok || len(pair) != 2 {
		return false
	}
	v, vok := toDecimal(value)
	lo, lok := toDecimal(pair[0])
	hi, hok := toDecimal(pair[1])
	if !vok || !lok || !hok {
		return false
	}
	return v.GreaterThanOrEqual(lo) && v.LessThanOrEqual(hi)
}

func toDecimal(v interface{}) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case float64:
		return decimal.NewFromFloat(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

func toString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		if s {
			return "true"
		}
		return "false"
	case decimal.Decimal:
		return s.String()
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case nil:
		return ""
	}
	return ""
}
