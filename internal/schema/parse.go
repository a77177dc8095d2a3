package schema

import (
	"fmt"
	"strings"
)

// ParseError reports a malformed type string.
type ParseError struct {
	Input  string
	Offset int // byte offset into Input
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("type %q: offset %d: %s", e.Input, e.Offset, e.Msg)
}

// Parse parses a Hive-style type string into a Descriptor.
//
// Supported forms (keywords are case-insensitive, whitespace is ignored):
//
//	string tinyint smallint int bigint float double boolean binary timestamp
//	array<T>  list<T>  map<K,V>  struct<name:T,...>
//
// Field names may be backquoted to carry characters outside [A-Za-z0-9_].
// date, void, interval_*, decimal(p,s), char(n), varchar(n) and uniontype<...>
// parse to Opaque descriptors; they are valid schema but not encodable.
func Parse(s string) (Descriptor, error) {
	p := &parser{src: s}
	d, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q after type", p.src[p.pos:])
	}
	return d, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level schema constants.
func MustParse(s string) Descriptor {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) *ParseError {
	return &ParseError{Input: p.src, Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// peek reports whether the next non-space byte is c.
func (p *parser) peek(c byte) bool {
	p.skipSpace()
	return p.pos < len(p.src) && p.src[p.pos] == c
}

func (p *parser) expect(c byte) error {
	if !p.peek(c) {
		if p.pos >= len(p.src) {
			return p.errorf("expected %q, got end of input", c)
		}
		return p.errorf("expected %q, got %q", c, p.src[p.pos])
	}
	p.pos++
	return nil
}

func (p *parser) ident() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	if start == p.pos {
		if p.pos >= len(p.src) {
			return "", p.errorf("expected type name, got end of input")
		}
		return "", p.errorf("expected type name, got %q", p.src[p.pos])
	}
	return p.src[start:p.pos], nil
}

// fieldName reads a plain or backquoted struct field name.
func (p *parser) fieldName() (string, error) {
	if !p.peek('`') {
		return p.ident()
	}
	p.pos++
	var name strings.Builder
	for {
		end := strings.IndexByte(p.src[p.pos:], '`')
		if end < 0 {
			return "", p.errorf("unterminated backquoted field name")
		}
		name.WriteString(p.src[p.pos : p.pos+end])
		p.pos += end + 1
		// A doubled backquote stands for one backquote in the name.
		if p.pos >= len(p.src) || p.src[p.pos] != '`' {
			return name.String(), nil
		}
		name.WriteByte('`')
		p.pos++
	}
}

func (p *parser) parseType() (Descriptor, error) {
	start := p.pos
	word, err := p.ident()
	if err != nil {
		return nil, err
	}
	name := strings.ToLower(word)

	switch name {
	case "array", "list":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		return List{Elem: elem}, nil

	case "map":
		return p.parseMap()

	case "struct":
		return p.parseStruct()

	case "uniontype":
		return p.parseUnion()

	case "decimal", "char", "varchar":
		args, err := p.parseTypeArgs()
		if err != nil {
			return nil, err
		}
		return Opaque{Name: name + args}, nil

	case "date", "void":
		return Opaque{Name: name}, nil
	}

	if strings.HasPrefix(name, "interval_") {
		return Opaque{Name: name}, nil
	}
	if k, ok := ParseKind(name); ok {
		return Primitive{Kind: k}, nil
	}
	p.pos = start
	p.skipSpace()
	return nil, p.errorf("unknown type %q", word)
}

func (p *parser) parseMap() (Descriptor, error) {
	if err := p.expect('<'); err != nil {
		return nil, err
	}
	p.skipSpace()
	keyPos := p.pos
	keyName, err := p.ident()
	if err != nil {
		return nil, err
	}
	key, ok := ParseKind(keyName)
	if !ok || p.peek('<') || p.peek('(') {
		p.pos = keyPos
		return nil, p.errorf("map key must be a primitive type, got %q", keyName)
	}
	if err := p.expect(','); err != nil {
		return nil, err
	}
	val, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expect('>'); err != nil {
		return nil, err
	}
	return Map{Key: key, Value: val}, nil
}

func (p *parser) parseStruct() (Descriptor, error) {
	if err := p.expect('<'); err != nil {
		return nil, err
	}
	rec := Record{}
	if p.peek('>') {
		p.pos++
		return rec, nil
	}
	for {
		name, err := p.fieldName()
		if err != nil {
			return nil, err
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		rec.Fields = append(rec.Fields, Field{Name: name, Type: t})
		if p.peek(',') {
			p.pos++
			continue
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		return rec, nil
	}
}

func (p *parser) parseUnion() (Descriptor, error) {
	if err := p.expect('<'); err != nil {
		return nil, err
	}
	var members []string
	for {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		members = append(members, t.String())
		if p.peek(',') {
			p.pos++
			continue
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		return Opaque{Name: "uniontype<" + strings.Join(members, ",") + ">"}, nil
	}
}

// parseTypeArgs reads an optional "(n[,m...])" suffix and returns it verbatim
// without whitespace.
func (p *parser) parseTypeArgs() (string, error) {
	if !p.peek('(') {
		return "", nil
	}
	p.pos++
	var args []string
	for {
		p.skipSpace()
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		if start == p.pos {
			return "", p.errorf("expected digits in type arguments")
		}
		args = append(args, p.src[start:p.pos])
		if p.peek(',') {
			p.pos++
			continue
		}
		if err := p.expect(')'); err != nil {
			return "", err
		}
		return "(" + strings.Join(args, ",") + ")", nil
	}
}
