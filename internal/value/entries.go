package value

// Entry is one key/value pair of an ordered map value.
type Entry struct {
	Key   string
	Value any
}

// Entries is a map value whose pairs encode in slice order.
// Decoders produce Entries so that documents keep their key order.
type Entries []Entry

// Get returns the value of the first entry with the given key.
func (e Entries) Get(key string) (any, bool) {
	for _, kv := range e {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// Map copies the entries into a Go map. Later duplicates win.
func (e Entries) Map() map[string]any {
	m := make(map[string]any, len(e))
	for _, kv := range e {
		m[kv.Key] = kv.Value
	}
	return m
}
