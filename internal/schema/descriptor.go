package schema

import (
	"fmt"
	"strings"
)

// Kind identifies one of the ten primitive leaf categories.
type Kind int

const (
	String Kind = iota
	Int8
	Int16
	Int32
	Int64
	Float32
	Float64
	Boolean
	Binary
	Timestamp
)

// kindNames are the canonical (Hive) spellings, indexed by Kind.
var kindNames = [...]string{
	String:    "string",
	Int8:      "tinyint",
	Int16:     "smallint",
	Int32:     "int",
	Int64:     "bigint",
	Float32:   "float",
	Float64:   "double",
	Boolean:   "boolean",
	Binary:    "binary",
	Timestamp: "timestamp",
}

// kindAliases maps every accepted spelling to its Kind.
var kindAliases = map[string]Kind{
	"string":    String,
	"tinyint":   Int8,
	"int8":      Int8,
	"smallint":  Int16,
	"int16":     Int16,
	"int":       Int32,
	"int32":     Int32,
	"bigint":    Int64,
	"int64":     Int64,
	"float":     Float32,
	"float32":   Float32,
	"double":    Float64,
	"float64":   Float64,
	"boolean":   Boolean,
	"bool":      Boolean,
	"binary":    Binary,
	"bytes":     Binary,
	"timestamp": Timestamp,
}

// Valid reports whether k is one of the ten primitive kinds.
func (k Kind) Valid() bool {
	return k >= String && k <= Timestamp
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind resolves a kind name or alias (case-insensitive).
func ParseKind(name string) (Kind, bool) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

// Descriptor is a sealed interface describing the shape of a value.
// Only Map, List, Record, Primitive and Opaque implement it.
type Descriptor interface {
	fmt.Stringer
	descriptor() // Sealed
}

// Map describes a map from keys of kind Key to values of shape Value.
// Only String keys can be encoded as JSON object keys; other key kinds are
// representable so that the compiler can reject them with a schema error.
type Map struct {
	Key   Kind
	Value Descriptor
}

func (Map) descriptor() {}

func (m Map) String() string {
	return "map<" + m.Key.String() + "," + describe(m.Value) + ">"
}

// List describes an ordered sequence of Elem-shaped values.
type List struct {
	Elem Descriptor
}

func (List) descriptor() {}

func (l List) String() string {
	return "array<" + describe(l.Elem) + ">"
}

// Field is one named member of a Record.
type Field struct {
	Name string
	Type Descriptor
}

// Record describes a value with a fixed, ordered list of named fields.
// Field names are not deduplicated.
type Record struct {
	Fields []Field
}

func (Record) descriptor() {}

func (r Record) String() string {
	var b strings.Builder
	b.WriteString("struct<")
	for i, f := range r.Fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quoteName(f.Name))
		b.WriteByte(':')
		b.WriteString(describe(f.Type))
	}
	b.WriteByte('>')
	return b.String()
}

// Primitive describes a leaf value of the given Kind.
type Primitive struct {
	Kind Kind
}

func (Primitive) descriptor() {}

func (p Primitive) String() string {
	return p.Kind.String()
}

// Opaque is a type the schema system knows about but which has no JSON
// encoding (date, decimal, varchar, uniontype, ...). Name holds its spelling.
type Opaque struct {
	Name string
}

func (Opaque) descriptor() {}

func (o Opaque) String() string {
	return o.Name
}

// Prim is shorthand for Primitive{Kind: k}.
func Prim(k Kind) Primitive {
	return Primitive{Kind: k}
}

// F is shorthand for a record Field.
// Example: Record{Fields: []Field{F("a", Prim(Int32)), F("b", Prim(String))}}
func F(name string, t Descriptor) Field {
	return Field{Name: name, Type: t}
}

// NewRecord creates a Record from fields in declaration order.
func NewRecord(fields ...Field) Record {
	return Record{Fields: fields}
}

// StringMap creates a Map with String keys.
func StringMap(value Descriptor) Map {
	return Map{Key: String, Value: value}
}

func describe(d Descriptor) string {
	if d == nil {
		return "<nil>"
	}
	return d.String()
}

// quoteName backquotes field names that are not plain identifiers so that
// String output can be fed back into Parse. A backquote inside the name is
// doubled.
func quoteName(name string) string {
	if isIdent(name) {
		return name
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
