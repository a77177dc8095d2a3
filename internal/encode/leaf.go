package encode

import (
	"fmt"
	"time"

	"github.com/roach88/shapejson/internal/schema"
)

// TimestampLayout is the wire format for Timestamp leaves. Values are
// converted to UTC first, so the zone always renders as "Z"; sub-second
// precision is dropped.
const TimestampLayout = "2006-01-02T15:04:05Z07:00"

// FormatTimestamp renders t the way Timestamp leaves do. It does not check
// the year; Timestamp leaves reject years outside 0000-9999 before calling it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

type stringLeaf struct{}

func (stringLeaf) node()                    {}
func (stringLeaf) Shape() schema.Descriptor { return schema.Prim(schema.String) }

func (stringLeaf) Encode(w Writer, v any) error {
	switch s := v.(type) {
	case nil:
		return w.Null()
	case string:
		return w.String(s)
	default:
		return &TypeError{Want: schema.String.String(), Got: v}
	}
}

type int8Leaf struct{}

func (int8Leaf) node()                    {}
func (int8Leaf) Shape() schema.Descriptor { return schema.Prim(schema.Int8) }

func (int8Leaf) Encode(w Writer, v any) error {
	switch n := v.(type) {
	case nil:
		return w.Null()
	case int8:
		return w.Int(int64(n))
	default:
		return &TypeError{Want: schema.Int8.String(), Got: v}
	}
}

type int16Leaf struct{}

func (int16Leaf) node()                    {}
func (int16Leaf) Shape() schema.Descriptor { return schema.Prim(schema.Int16) }

func (int16Leaf) Encode(w Writer, v any) error {
	switch n := v.(type) {
	case nil:
		return w.Null()
	case int16:
		return w.Int(int64(n))
	default:
		return &TypeError{Want: schema.Int16.String(), Got: v}
	}
}

type int32Leaf struct{}

func (int32Leaf) node()                    {}
func (int32Leaf) Shape() schema.Descriptor { return schema.Prim(schema.Int32) }

func (int32Leaf) Encode(w Writer, v any) error {
	switch n := v.(type) {
	case nil:
		return w.Null()
	case int32:
		return w.Int(int64(n))
	default:
		return &TypeError{Want: schema.Int32.String(), Got: v}
	}
}

type int64Leaf struct{}

func (int64Leaf) node()                    {}
func (int64Leaf) Shape() schema.Descriptor { return schema.Prim(schema.Int64) }

func (int64Leaf) Encode(w Writer, v any) error {
	switch n := v.(type) {
	case nil:
		return w.Null()
	case int64:
		return w.Int(n)
	default:
		return &TypeError{Want: schema.Int64.String(), Got: v}
	}
}

type float32Leaf struct{}

func (float32Leaf) node()                    {}
func (float32Leaf) Shape() schema.Descriptor { return schema.Prim(schema.Float32) }

func (float32Leaf) Encode(w Writer, v any) error {
	switch f := v.(type) {
	case nil:
		return w.Null()
	case float32:
		return w.Float32(f)
	default:
		return &TypeError{Want: schema.Float32.String(), Got: v}
	}
}

type float64Leaf struct{}

func (float64Leaf) node()                    {}
func (float64Leaf) Shape() schema.Descriptor { return schema.Prim(schema.Float64) }

func (float64Leaf) Encode(w Writer, v any) error {
	switch f := v.(type) {
	case nil:
		return w.Null()
	case float64:
		return w.Float64(f)
	default:
		return &TypeError{Want: schema.Float64.String(), Got: v}
	}
}

type boolLeaf struct{}

func (boolLeaf) node()                    {}
func (boolLeaf) Shape() schema.Descriptor { return schema.Prim(schema.Boolean) }

func (boolLeaf) Encode(w Writer, v any) error {
	switch b := v.(type) {
	case nil:
		return w.Null()
	case bool:
		return w.Bool(b)
	default:
		return &TypeError{Want: schema.Boolean.String(), Got: v}
	}
}

type binaryLeaf struct{}

func (binaryLeaf) node()                    {}
func (binaryLeaf) Shape() schema.Descriptor { return schema.Prim(schema.Binary) }

func (binaryLeaf) Encode(w Writer, v any) error {
	switch b := v.(type) {
	case nil:
		return w.Null()
	case []byte:
		if b == nil {
			return w.Null()
		}
		return w.Binary(b)
	default:
		return &TypeError{Want: schema.Binary.String(), Got: v}
	}
}

type timestampLeaf struct{}

func (timestampLeaf) node()                    {}
func (timestampLeaf) Shape() schema.Descriptor { return schema.Prim(schema.Timestamp) }

func (timestampLeaf) Encode(w Writer, v any) error {
	switch t := v.(type) {
	case nil:
		return w.Null()
	case time.Time:
		if y := t.UTC().Year(); y < 0 || y > 9999 {
			return fmt.Errorf("%w: %d", ErrTimestampRange, y)
		}
		return w.String(FormatTimestamp(t))
	default:
		return &TypeError{Want: schema.Timestamp.String(), Got: v}
	}
}
