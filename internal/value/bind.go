// Package value turns decoded documents into the typed values that encoder
// trees accept.
//
// Decoders (JSON, YAML, msgpack) produce generic documents: nil, bool,
// string, numbers, []byte, time.Time, []any and Entries. Bind walks such a
// document alongside a schema descriptor and converts every position to the
// exact Go type its encoder expects (int32 for int, []any for records, ...).
package value

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/roach88/shapejson/internal/schema"
)

// BindError reports a document position that cannot be bound to its descriptor.
type BindError struct {
	Path string
	Msg  string
}

func (e *BindError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

func bindErrorf(path, format string, args ...any) *BindError {
	return &BindError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// Bind converts a decoded document into the value contract for d.
//
// Records bind from objects by field name (missing fields become nil) or from
// arrays positionally. Integers accept any Go integer or float without a
// fractional part, and json.Number; they are range-checked for their kind.
// Timestamps accept time.Time, RFC 3339 strings and integer Unix seconds.
// Binary accepts []byte or a standard base64 string. nil binds to nil
// everywhere.
func Bind(d schema.Descriptor, raw any) (any, error) {
	return bind("$", d, raw)
}

func bind(path string, d schema.Descriptor, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch t := d.(type) {
	case schema.Map:
		return bindMap(path, t, raw)
	case schema.List:
		return bindList(path, t, raw)
	case schema.Record:
		return bindRecord(path, t, raw)
	case schema.Primitive:
		return bindPrimitive(path, t.Kind, raw)
	default:
		return nil, bindErrorf(path, "cannot bind to %v", d)
	}
}

func bindMap(path string, t schema.Map, raw any) (any, error) {
	childPath := schema.MapValuePath(path)
	switch m := raw.(type) {
	case Entries:
		out := make(Entries, len(m))
		for i, kv := range m {
			v, err := bind(childPath, t.Value, kv.Value)
			if err != nil {
				return nil, err
			}
			out[i] = Entry{Key: kv.Key, Value: v}
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			v, err := bind(childPath, t.Value, val)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	default:
		return nil, bindErrorf(path, "expected object, got %T", raw)
	}
}

func bindList(path string, t schema.List, raw any) (any, error) {
	l, ok := raw.([]any)
	if !ok {
		return nil, bindErrorf(path, "expected array, got %T", raw)
	}
	childPath := schema.ElemPath(path)
	out := make([]any, len(l))
	for i, elem := range l {
		v, err := bind(childPath, t.Elem, elem)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func bindRecord(path string, t schema.Record, raw any) (any, error) {
	lookup, err := recordLookup(path, t, raw)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(t.Fields))
	for i, f := range t.Fields {
		v, err := bind(schema.FieldPath(path, f.Name), f.Type, lookup(i, f.Name))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// recordLookup returns a field accessor for an object or positional array.
func recordLookup(path string, t schema.Record, raw any) (func(i int, name string) any, error) {
	switch r := raw.(type) {
	case Entries:
		return func(_ int, name string) any {
			v, _ := r.Get(name)
			return v
		}, nil
	case map[string]any:
		return func(_ int, name string) any {
			return r[name]
		}, nil
	case []any:
		if len(r) != len(t.Fields) {
			return nil, bindErrorf(path, "expected %d positional field(s), got %d", len(t.Fields), len(r))
		}
		return func(i int, _ string) any {
			return r[i]
		}, nil
	default:
		return nil, bindErrorf(path, "expected object or array for record, got %T", raw)
	}
}

func bindPrimitive(path string, k schema.Kind, raw any) (any, error) {
	switch k {
	case schema.String:
		s, ok := raw.(string)
		if !ok {
			return nil, bindErrorf(path, "expected string, got %T", raw)
		}
		return s, nil
	case schema.Boolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, bindErrorf(path, "expected boolean, got %T", raw)
		}
		return b, nil
	case schema.Int8:
		n, err := toInt(path, raw, math.MinInt8, math.MaxInt8)
		return int8(n), err
	case schema.Int16:
		n, err := toInt(path, raw, math.MinInt16, math.MaxInt16)
		return int16(n), err
	case schema.Int32:
		n, err := toInt(path, raw, math.MinInt32, math.MaxInt32)
		return int32(n), err
	case schema.Int64:
		return toInt(path, raw, math.MinInt64, math.MaxInt64)
	case schema.Float32:
		f, err := toFloat(path, raw)
		if err != nil {
			return nil, err
		}
		if !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
			return nil, bindErrorf(path, "%v overflows float", f)
		}
		return float32(f), nil
	case schema.Float64:
		return toFloat(path, raw)
	case schema.Binary:
		return toBinary(path, raw)
	case schema.Timestamp:
		return toTime(path, raw)
	default:
		return nil, bindErrorf(path, "unknown kind %v", k)
	}
}

func toInt(path string, raw any, lo, hi int64) (int64, error) {
	var n int64
	switch v := raw.(type) {
	case int:
		n = int64(v)
	case int8:
		n = int64(v)
	case int16:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, bindErrorf(path, "%d out of range", v)
		}
		n = int64(v)
	case uint8:
		n = int64(v)
	case uint16:
		n = int64(v)
	case uint32:
		n = int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return 0, bindErrorf(path, "%d out of range", v)
		}
		n = int64(v)
	case float32:
		return toInt(path, float64(v), lo, hi)
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, bindErrorf(path, "%v is not an integer", v)
		}
		n = int64(v)
	case json.Number:
		i, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return 0, bindErrorf(path, "%s is not an integer in range", v)
		}
		n = i
	default:
		return 0, bindErrorf(path, "expected integer, got %T", raw)
	}
	if n < lo || n > hi {
		return 0, bindErrorf(path, "%d out of range [%d, %d]", n, lo, hi)
	}
	return n, nil
}

func toFloat(path string, raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, bindErrorf(path, "%s is not a number", v)
		}
		return f, nil
	default:
		return 0, bindErrorf(path, "expected number, got %T", raw)
	}
}

func toBinary(path string, raw any) ([]byte, error) {
	switch v := raw.(type) {
	case []byte:
		return v, nil
	case string:
		b, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, bindErrorf(path, "invalid base64: %v", err)
		}
		return b, nil
	default:
		return nil, bindErrorf(path, "expected bytes or base64 string, got %T", raw)
	}
}

func toTime(path string, raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, bindErrorf(path, "invalid timestamp %q: want RFC 3339", v)
		}
		return t, nil
	default:
		secs, err := toInt(path, raw, math.MinInt64, math.MaxInt64)
		if err != nil {
			return time.Time{}, bindErrorf(path, "expected timestamp, got %T", raw)
		}
		return time.Unix(secs, 0).UTC(), nil
	}
}
