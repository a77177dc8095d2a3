package encode

import (
	"github.com/roach88/shapejson/internal/schema"
)

// Node is a compiled, immutable encoder for one descriptor position.
// Only the node types in this package implement it.
type Node interface {
	// Encode writes v to w. A nil v (or nil slice/map) is written as null.
	Encode(w Writer, v any) error

	// Shape returns the descriptor this node was compiled from.
	Shape() schema.Descriptor

	node() // Sealed
}

// Compile builds the encoder tree for d.
//
// Children are compiled before their parents are wrapped. Record fields keep
// their declaration order and names are passed through unchanged, duplicates
// included. Compile is pure and never looks at values.
func Compile(d schema.Descriptor) (Node, error) {
	return compile("$", d)
}

// MustCompile is like Compile but panics on error.
func MustCompile(d schema.Descriptor) Node {
	n, err := Compile(d)
	if err != nil {
		panic(err)
	}
	return n
}

func compile(path string, d schema.Descriptor) (Node, error) {
	switch t := d.(type) {
	case schema.Map:
		if t.Key != schema.String {
			return nil, &SchemaError{Code: CodeUnsupportedKeyType, Path: path, Detail: t.String()}
		}
		value, err := compile(schema.MapValuePath(path), t.Value)
		if err != nil {
			return nil, err
		}
		return &MapNode{value: value}, nil

	case schema.List:
		elem, err := compile(schema.ElemPath(path), t.Elem)
		if err != nil {
			return nil, err
		}
		return &ListNode{elem: elem}, nil

	case schema.Record:
		fields := make([]fieldNode, len(t.Fields))
		for i, f := range t.Fields {
			child, err := compile(schema.FieldPath(path, f.Name), f.Type)
			if err != nil {
				return nil, err
			}
			fields[i] = fieldNode{name: f.Name, node: child}
		}
		return &RecordNode{fields: fields}, nil

	case schema.Primitive:
		if leaf := leafFor(t.Kind); leaf != nil {
			return leaf, nil
		}
		return nil, &SchemaError{Code: CodeUnsupportedShape, Path: path, Detail: t.String()}

	case nil:
		return nil, &SchemaError{Code: CodeUnsupportedShape, Path: path, Detail: "<nil>"}

	default:
		return nil, &SchemaError{Code: CodeUnsupportedShape, Path: path, Detail: d.String()}
	}
}

// leafFor returns the shared leaf for k, or nil for an invalid kind.
// Leaves are stateless, so one instance per kind serves every tree.
func leafFor(k schema.Kind) Node {
	switch k {
	case schema.String:
		return stringLeaf{}
	case schema.Int8:
		return int8Leaf{}
	case schema.Int16:
		return int16Leaf{}
	case schema.Int32:
		return int32Leaf{}
	case schema.Int64:
		return int64Leaf{}
	case schema.Float32:
		return float32Leaf{}
	case schema.Float64:
		return float64Leaf{}
	case schema.Boolean:
		return boolLeaf{}
	case schema.Binary:
		return binaryLeaf{}
	case schema.Timestamp:
		return timestampLeaf{}
	default:
		return nil
	}
}
