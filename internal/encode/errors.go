package encode

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedKeyType is matched by schema errors for maps whose key kind is not String.
	ErrUnsupportedKeyType = errors.New("unsupported map key type")

	// ErrUnsupportedShape is matched by schema errors for descriptors with no encoder.
	ErrUnsupportedShape = errors.New("unsupported descriptor shape")

	// ErrUnsupportedFloat is returned when encoding NaN or an infinity.
	ErrUnsupportedFloat = errors.New("unsupported float value")

	// ErrTimestampRange is returned for timestamps whose UTC year is outside 0000-9999.
	ErrTimestampRange = errors.New("timestamp year out of range")
)

// SchemaErrorCode categorizes compile-time failures.
type SchemaErrorCode string

const (
	// CodeUnsupportedKeyType indicates a map key kind other than String.
	CodeUnsupportedKeyType SchemaErrorCode = "UNSUPPORTED_KEY_TYPE"

	// CodeUnsupportedShape indicates a descriptor the compiler has no node for.
	CodeUnsupportedShape SchemaErrorCode = "UNSUPPORTED_SHAPE"
)

// SchemaError is returned by Compile. It is discovered once, before any value
// is encoded.
type SchemaError struct {
	Code   SchemaErrorCode
	Path   string // descriptor path of the failing node, e.g. "$.attrs{}"
	Detail string // description of the offending descriptor
}

func (e *SchemaError) Error() string {
	switch e.Code {
	case CodeUnsupportedKeyType:
		return fmt.Sprintf("%s: only maps with string keys can be converted to JSON, got %s", e.Path, e.Detail)
	default:
		return fmt.Sprintf("%s: don't know how to encode %s", e.Path, e.Detail)
	}
}

// Unwrap returns the sentinel matching e.Code so callers can use errors.Is.
func (e *SchemaError) Unwrap() error {
	switch e.Code {
	case CodeUnsupportedKeyType:
		return ErrUnsupportedKeyType
	case CodeUnsupportedShape:
		return ErrUnsupportedShape
	default:
		return nil
	}
}

// TypeError reports a value whose Go type does not match its descriptor.
// This is a caller contract violation, not a data condition.
type TypeError struct {
	Want string // descriptor kind, e.g. "int", "map<string,...>"
	Got  any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("expected %s value, got %T", e.Want, e.Got)
}

// FieldCountError reports a record value whose length differs from the
// compiled field list.
type FieldCountError struct {
	Want int
	Got  int
}

func (e *FieldCountError) Error() string {
	return fmt.Sprintf("record has %d field(s), value has %d", e.Want, e.Got)
}
