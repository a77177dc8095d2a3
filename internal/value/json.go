package value

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

// JSONDecoder reads concatenated or newline-delimited JSON documents.
// Object keys keep their document order (as Entries) and numbers are kept
// as json.Number so that Bind can range-check them exactly.
type JSONDecoder struct {
	iter *jsoniter.Iterator
}

// NewJSONDecoder returns a decoder reading from r.
func NewJSONDecoder(r io.Reader) *JSONDecoder {
	return &JSONDecoder{iter: jsoniter.Parse(jsoniter.ConfigCompatibleWithStandardLibrary, r, 4096)}
}

// Next returns the next document or io.EOF.
func (d *JSONDecoder) Next() (any, error) {
	if d.iter.WhatIsNext() == jsoniter.InvalidValue {
		switch {
		case errors.Is(d.iter.Error, io.EOF):
			return nil, io.EOF
		case d.iter.Error != nil:
			return nil, d.iter.Error
		default:
			// A stray byte leaves no error behind; report it with its position.
			d.iter.ReportError("Next", "invalid character")
			return nil, d.iter.Error
		}
	}

	v, ok := readJSON(d.iter)
	if !ok || d.iter.Error != nil && !errors.Is(d.iter.Error, io.EOF) {
		if d.iter.Error == nil || errors.Is(d.iter.Error, io.EOF) {
			return nil, fmt.Errorf("truncated JSON document")
		}
		return nil, d.iter.Error
	}
	return v, nil
}

// readJSON reads one value; ok is false if the iterator reported a failure.
func readJSON(iter *jsoniter.Iterator) (any, bool) {
	switch iter.WhatIsNext() {
	case jsoniter.NilValue:
		iter.ReadNil()
		return nil, true
	case jsoniter.BoolValue:
		return iter.ReadBool(), true
	case jsoniter.StringValue:
		return iter.ReadString(), true
	case jsoniter.NumberValue:
		return iter.ReadNumber(), true
	case jsoniter.ArrayValue:
		arr := []any{}
		ok := iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			v, ok := readJSON(it)
			arr = append(arr, v)
			return ok
		})
		return arr, ok
	case jsoniter.ObjectValue:
		obj := Entries{}
		ok := iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
			v, ok := readJSON(it)
			obj = append(obj, Entry{Key: key, Value: v})
			return ok
		})
		return obj, ok
	default:
		iter.ReportError("readJSON", "unexpected token")
		return nil, false
	}
}
