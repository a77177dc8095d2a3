package encode

import (
	"fmt"

	"github.com/roach88/shapejson/internal/schema"
	"github.com/roach88/shapejson/internal/value"
)

// MapNode encodes string-keyed maps as JSON objects.
//
// Accepts map[string]any, written in Go's iteration order, and value.Entries,
// written in slice order. Keys are never sorted.
type MapNode struct {
	value Node
}

func (*MapNode) node() {}

func (n *MapNode) Shape() schema.Descriptor {
	return schema.Map{Key: schema.String, Value: n.value.Shape()}
}

func (n *MapNode) Encode(w Writer, v any) error {
	switch m := v.(type) {
	case nil:
		return w.Null()
	case map[string]any:
		if m == nil {
			return w.Null()
		}
		if err := w.BeginObject(); err != nil {
			return err
		}
		for k, val := range m {
			if err := n.pair(w, k, val); err != nil {
				return err
			}
		}
		return w.EndObject()
	case value.Entries:
		if m == nil {
			return w.Null()
		}
		if err := w.BeginObject(); err != nil {
			return err
		}
		for _, kv := range m {
			if err := n.pair(w, kv.Key, kv.Value); err != nil {
				return err
			}
		}
		return w.EndObject()
	default:
		return &TypeError{Want: n.Shape().String(), Got: v}
	}
}

func (n *MapNode) pair(w Writer, key string, val any) error {
	if err := w.Field(key); err != nil {
		return err
	}
	if err := n.value.Encode(w, val); err != nil {
		return fmt.Errorf("map[%q]: %w", key, err)
	}
	return nil
}

// ListNode encodes []any as a JSON array, element by element.
type ListNode struct {
	elem Node
}

func (*ListNode) node() {}

func (n *ListNode) Shape() schema.Descriptor {
	return schema.List{Elem: n.elem.Shape()}
}

func (n *ListNode) Encode(w Writer, v any) error {
	switch l := v.(type) {
	case nil:
		return w.Null()
	case []any:
		if l == nil {
			return w.Null()
		}
		if err := w.BeginArray(); err != nil {
			return err
		}
		for i, elem := range l {
			if err := n.elem.Encode(w, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		return w.EndArray()
	default:
		return &TypeError{Want: n.Shape().String(), Got: v}
	}
}

type fieldNode struct {
	name string
	node Node
}

// RecordNode encodes a positional []any as a JSON object whose keys are the
// compiled field names, in declaration order.
//
// The value must have exactly one element per field; a length mismatch is
// reported as *FieldCountError before anything is written.
type RecordNode struct {
	fields []fieldNode
}

func (*RecordNode) node() {}

func (n *RecordNode) Shape() schema.Descriptor {
	var rec schema.Record
	for _, f := range n.fields {
		rec.Fields = append(rec.Fields, schema.Field{Name: f.name, Type: f.node.Shape()})
	}
	return rec
}

// FieldNames returns the compiled field names in order.
func (n *RecordNode) FieldNames() []string {
	names := make([]string, len(n.fields))
	for i, f := range n.fields {
		names[i] = f.name
	}
	return names
}

func (n *RecordNode) Encode(w Writer, v any) error {
	switch vals := v.(type) {
	case nil:
		return w.Null()
	case []any:
		if vals == nil {
			return w.Null()
		}
		if len(vals) != len(n.fields) {
			return &FieldCountError{Want: len(n.fields), Got: len(vals)}
		}
		if err := w.BeginObject(); err != nil {
			return err
		}
		for i, f := range n.fields {
			if err := w.Field(f.name); err != nil {
				return err
			}
			if err := f.node.Encode(w, vals[i]); err != nil {
				return fmt.Errorf("field %q: %w", f.name, err)
			}
		}
		return w.EndObject()
	default:
		return &TypeError{Want: n.Shape().String(), Got: v}
	}
}
