package schema

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// TypeAttr is the CUE field attribute that overrides a primitive's kind,
// e.g. `count: int @type(int32)` or `at: string @type(timestamp)`.
const TypeAttr = "type"

// DefinitionError reports a CUE value that cannot be read as a Descriptor.
type DefinitionError struct {
	Path    string // descriptor path ("$.items[]") or CUE path for lookups
	Message string
	Pos     token.Pos
}

func (e *DefinitionError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// LoadCUE compiles a CUE file and converts the value at def (for example
// "#Row") into a Descriptor. An empty def converts the file's root value.
func LoadCUE(file, def string) (Descriptor, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading CUE schema: %w", err)
	}

	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(file))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err, file)
	}

	if def != "" {
		v = v.LookupPath(cue.ParsePath(def))
		if !v.Exists() {
			return nil, &DefinitionError{
				Path:    def,
				Message: fmt.Sprintf("definition not found in %s", file),
			}
		}
	}
	return FromCUE(v)
}

// FromCUE converts a CUE value into a Descriptor.
//
// Mapping:
//   - string, bool, bytes: String, Boolean, Binary
//   - int: Int64; float and number: Float64
//   - [...T]: List(T)
//   - struct with regular or optional fields: Record, in declaration order
//   - struct whose only member is a [string]: T pattern: Map(String, T)
//
// "T | null" maps to T; every position accepts null anyway. A @type(kind)
// attribute on a primitive field selects the exact kind.
func FromCUE(v cue.Value) (Descriptor, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err, "$")
	}
	return fromCUE("$", v)
}

func fromCUE(path string, v cue.Value) (Descriptor, error) {
	kind := v.IncompleteKind() &^ cue.NullKind

	if attr := v.Attribute(TypeAttr); attr.Err() == nil {
		return attributeKind(path, v, attr, kind)
	}

	switch kind {
	case cue.StringKind:
		return Primitive{Kind: String}, nil
	case cue.BoolKind:
		return Primitive{Kind: Boolean}, nil
	case cue.BytesKind:
		return Primitive{Kind: Binary}, nil
	case cue.IntKind:
		return Primitive{Kind: Int64}, nil
	case cue.FloatKind, cue.NumberKind:
		return Primitive{Kind: Float64}, nil
	case cue.ListKind:
		elem, ok := v.Elem()
		if !ok {
			return nil, &DefinitionError{
				Path:    path,
				Message: "list must be open ([...T]) to describe its element type",
				Pos:     v.Pos(),
			}
		}
		d, err := fromCUE(ElemPath(path), elem)
		if err != nil {
			return nil, err
		}
		return List{Elem: d}, nil
	case cue.StructKind:
		return structFromCUE(path, v)
	default:
		return nil, &DefinitionError{
			Path:    path,
			Message: fmt.Sprintf("unsupported CUE kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

func structFromCUE(path string, v cue.Value) (Descriptor, error) {
	iter, err := v.Fields(cue.Optional(true))
	if err != nil {
		return nil, formatCUEError(err, path)
	}

	rec := Record{}
	for iter.Next() {
		name := iter.Label()
		d, err := fromCUE(FieldPath(path, name), iter.Value())
		if err != nil {
			return nil, err
		}
		rec.Fields = append(rec.Fields, Field{Name: name, Type: d})
	}
	if len(rec.Fields) > 0 {
		return rec, nil
	}

	// No declared fields: a [string]: T pattern makes this a map.
	if elem, ok := v.Elem(); ok {
		d, err := fromCUE(MapValuePath(path), elem)
		if err != nil {
			return nil, err
		}
		return Map{Key: String, Value: d}, nil
	}
	return rec, nil
}

// attributeKind resolves @type(kind) on a primitive CUE value.
func attributeKind(path string, v cue.Value, attr cue.Attribute, kind cue.Kind) (Descriptor, error) {
	name, err := attr.String(0)
	if err != nil {
		return nil, &DefinitionError{Path: path, Message: fmt.Sprintf("@%s: %v", TypeAttr, err), Pos: v.Pos()}
	}
	k, ok := ParseKind(name)
	if !ok {
		return nil, &DefinitionError{
			Path:    path,
			Message: fmt.Sprintf("@%s(%s): unknown kind", TypeAttr, name),
			Pos:     v.Pos(),
		}
	}
	if kind&^(cue.StringKind|cue.BytesKind|cue.NumberKind|cue.BoolKind) != 0 {
		return nil, &DefinitionError{
			Path:    path,
			Message: fmt.Sprintf("@%s applies to primitive fields only, got %v", TypeAttr, kind),
			Pos:     v.Pos(),
		}
	}
	return Primitive{Kind: k}, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error, path string) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &DefinitionError{
			Path:    path,
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return &DefinitionError{Path: path, Message: first.Error()}
}
