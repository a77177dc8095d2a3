package schema

// WalkFunc is called for every descriptor node visited by Walk.
// Returning false skips the node's children.
type WalkFunc func(path string, d Descriptor) bool

// Walk visits d and its children depth-first, in declaration order.
//
// Paths start at "$". Record fields append ".name", list elements append "[]"
// and map values append "{}": struct<a:array<map<string,int>>> yields
// "$", "$.a", "$.a[]", "$.a[]{}".
func Walk(d Descriptor, fn WalkFunc) {
	walk("$", d, fn)
}

func walk(path string, d Descriptor, fn WalkFunc) {
	if !fn(path, d) {
		return
	}
	switch t := d.(type) {
	case Map:
		walk(MapValuePath(path), t.Value, fn)
	case List:
		walk(ElemPath(path), t.Elem, fn)
	case Record:
		for _, f := range t.Fields {
			walk(FieldPath(path, f.Name), f.Type, fn)
		}
	}
}

// FieldPath returns the path of a record field below parent.
func FieldPath(parent, name string) string {
	return parent + "." + name
}

// ElemPath returns the path of list elements below parent.
func ElemPath(parent string) string {
	return parent + "[]"
}

// MapValuePath returns the path of map values below parent.
func MapValuePath(parent string) string {
	return parent + "{}"
}
