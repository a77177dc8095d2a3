package value

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shapejson/internal/schema"
)

func TestBind_Primitives(t *testing.T) {
	tests := []struct {
		name string
		kind schema.Kind
		raw  any
		want any
	}{
		{"string", schema.String, "x", "x"},
		{"bool", schema.Boolean, true, true},
		{"tinyint_from_number", schema.Int8, json.Number("-12"), int8(-12)},
		{"smallint_from_int64", schema.Int16, int64(300), int16(300)},
		{"int_from_float", schema.Int32, float64(7), int32(7)},
		{"bigint_from_uint64", schema.Int64, uint64(1 << 40), int64(1 << 40)},
		{"float_from_number", schema.Float32, json.Number("0.5"), float32(0.5)},
		{"double_from_int", schema.Float64, int64(3), float64(3)},
		{"binary_from_bytes", schema.Binary, []byte{1, 2}, []byte{1, 2}},
		{"binary_from_base64", schema.Binary, "AP8=", []byte{0x00, 0xff}},
		{"timestamp_from_rfc3339", schema.Timestamp, "1970-01-01T00:00:01Z", time.Unix(1, 0).UTC()},
		{"timestamp_from_seconds", schema.Timestamp, json.Number("1"), time.Unix(1, 0).UTC()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Bind(schema.Prim(tt.kind), tt.raw)
			require.NoError(t, err)
			if want, ok := tt.want.(time.Time); ok {
				require.IsType(t, time.Time{}, got)
				assert.True(t, want.Equal(got.(time.Time)), "got %v, want %v", got, want)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBind_PrimitiveErrors(t *testing.T) {
	tests := []struct {
		name    string
		kind    schema.Kind
		raw     any
		wantMsg string
	}{
		{"string_from_number", schema.String, json.Number("1"), "$: expected string, got json.Number"},
		{"tinyint_overflow", schema.Int8, json.Number("128"), "$: 128 out of range [-128, 127]"},
		{"int_fraction", schema.Int32, float64(1.5), "$: 1.5 is not an integer"},
		{"bigint_not_integer", schema.Int64, json.Number("1e3"), "$: 1e3 is not an integer in range"},
		{"float_overflow", schema.Float32, float64(math.MaxFloat64), "$: 1.7976931348623157e+308 overflows float"},
		{"bool_from_string", schema.Boolean, "true", "$: expected boolean, got string"},
		{"bad_base64", schema.Binary, "@@", "$: invalid base64: illegal base64 data at input byte 0"},
		{"bad_timestamp", schema.Timestamp, "yesterday", `$: invalid timestamp "yesterday": want RFC 3339`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Bind(schema.Prim(tt.kind), tt.raw)
			require.Error(t, err)

			var be *BindError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestBind_Nil(t *testing.T) {
	for _, d := range []schema.Descriptor{
		schema.Prim(schema.Int32),
		schema.List{Elem: schema.Prim(schema.Int32)},
		schema.StringMap(schema.Prim(schema.Int32)),
		schema.NewRecord(schema.F("a", schema.Prim(schema.Int32))),
	} {
		got, err := Bind(d, nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
}

func TestBind_RecordFromObject(t *testing.T) {
	d := schema.NewRecord(
		schema.F("a", schema.Prim(schema.Int32)),
		schema.F("b", schema.Prim(schema.String)),
		schema.F("c", schema.List{Elem: schema.Prim(schema.Boolean)}),
	)

	got, err := Bind(d, Entries{
		{Key: "b", Value: "x"},
		{Key: "extra", Value: "ignored"},
		{Key: "a", Value: json.Number("1")},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{int32(1), "x", nil}, got)

	got, err = Bind(d, map[string]any{"a": 2, "c": []any{true}})
	require.NoError(t, err)
	assert.Equal(t, []any{int32(2), nil, []any{true}}, got)
}

func TestBind_RecordFromArray(t *testing.T) {
	d := schema.NewRecord(
		schema.F("a", schema.Prim(schema.Int32)),
		schema.F("b", schema.Prim(schema.String)),
	)

	got, err := Bind(d, []any{json.Number("1"), "x"})
	require.NoError(t, err)
	assert.Equal(t, []any{int32(1), "x"}, got)

	_, err = Bind(d, []any{json.Number("1")})
	require.Error(t, err)
	assert.Equal(t, "$: expected 2 positional field(s), got 1", err.Error())
}

func TestBind_Map(t *testing.T) {
	d := schema.StringMap(schema.Prim(schema.Int64))

	got, err := Bind(d, Entries{{Key: "z", Value: json.Number("1")}, {Key: "a", Value: nil}})
	require.NoError(t, err)
	assert.Equal(t, Entries{{Key: "z", Value: int64(1)}, {Key: "a", Value: nil}}, got)

	got, err = Bind(d, map[string]any{"k": 5})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": int64(5)}, got)

	_, err = Bind(d, []any{})
	assert.EqualError(t, err, "$: expected object, got []interface {}")
}

func TestBind_NestedPaths(t *testing.T) {
	d := schema.NewRecord(
		schema.F("rows", schema.List{Elem: schema.StringMap(schema.Prim(schema.Int8))}),
	)

	_, err := Bind(d, Entries{{Key: "rows", Value: []any{
		Entries{{Key: "ok", Value: json.Number("1")}},
		Entries{{Key: "bad", Value: json.Number("1000")}},
	}}})
	require.Error(t, err)
	assert.Equal(t, "[1]: $.rows[]{}: 1000 out of range [-128, 127]", err.Error())

	var be *BindError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "$.rows[]{}", be.Path)
}

func TestBind_UnsupportedDescriptor(t *testing.T) {
	_, err := Bind(schema.Opaque{Name: "date"}, "2024-01-01")
	assert.EqualError(t, err, "$: cannot bind to date")
}

func TestEntries(t *testing.T) {
	e := Entries{{Key: "a", Value: 1}, {Key: "b", Value: 2}, {Key: "a", Value: 3}}

	v, ok := e.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = e.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, map[string]any{"a": 3, "b": 2}, e.Map())
}
