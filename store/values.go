package store

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"
)

// TimestampLayout is the interchange format of timestamps
const TimestampLayout = time.RFC3339Nano

// EncodeTimestamps returns a copy of v where every time.Time is replaced by
// its UTC RFC 3339 string.
func EncodeTimestamps(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(TimestampLayout)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = EncodeTimestamps(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = EncodeTimestamps(val)
		}
		return out
	default:
		return v
	}
}

// RestoreTimestamps returns a copy of m where strings stored under keys
// ending in "At" that parse as RFC 3339 become time.Time again. It is the
// inverse of EncodeTimestamps for documents following the field naming of
// this store.
func RestoreTimestamps(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = restoreValue(k, v)
	}
	return out
}

func restoreValue(key string, v any) any {
	switch t := v.(type) {
	case string:
		if strings.HasSuffix(key, "At") {
			if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
				return ts.UTC()
			}
		}
		return t
	case map[string]any:
		return RestoreTimestamps(t)
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = restoreValue(key, val)
		}
		return out
	default:
		return v
	}
}

// toMap converts a tagged struct or map into a plain JSON-shaped map
func toMap(data any) (map[string]any, error) {
	if m, ok := data.(map[string]any); ok {
		data = EncodeTimestamps(m)
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	delete(m, "id")
	return m, nil
}

// lookup resolves a dotted field path
func lookup(m map[string]any, path string) (any, bool) {
	var cur any = m
	for _, part := range strings.Split(path, ".") {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = mm[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func scalar(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case string:
		if ts, ok := parseTime(t); ok {
			return ts
		}
		return t
	default:
		return v
	}
}

func parseTime(s string) (time.Time, bool) {
	// cheap shape check before parsing: 2006-01-02T
	if len(s) < 20 || s[4] != '-' || s[10] != 'T' {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// compareValues orders two scalar values of the same kind
func compareValues(a, b any) (int, bool) {
	a, b = scalar(a), scalar(b)
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	case nil:
		if b == nil {
			return 0, true
		}
		return -1, true
	}
	return 0, false
}

func equalValues(a, b any) bool {
	c, ok := compareValues(a, b)
	return ok && c == 0
}

func matchFilter(doc map[string]any, f Filter) bool {
	v, ok := lookup(doc, f.Field)
	switch f.Op {
	case OpEqual:
		if !ok {
			return f.Value == nil
		}
		return equalValues(v, f.Value)
	case OpArrayContains:
		arr, isArr := v.([]any)
		if !ok || !isArr {
			return false
		}
		for _, el := range arr {
			if equalValues(el, f.Value) {
				return true
			}
		}
		return false
	case OpIn:
		if !ok {
			return false
		}
		rv := reflect.ValueOf(f.Value)
		if rv.Kind() != reflect.Slice {
			return false
		}
		for i := 0; i < rv.Len(); i++ {
			if equalValues(v, rv.Index(i).Interface()) {
				return true
			}
		}
		return false
	case OpGreater, OpGreaterEqual, OpLess, OpLessEqual:
		if !ok {
			return false
		}
		c, comparable := compareValues(v, f.Value)
		if !comparable {
			return false
		}
		switch f.Op {
		case OpGreater:
			return c > 0
		case OpGreaterEqual:
			return c >= 0
		case OpLess:
			return c < 0
		default:
			return c <= 0
		}
	}
	return false
}
