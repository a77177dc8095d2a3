package value

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// YAMLDecoder reads a stream of YAML documents separated by "---".
// Mappings keep their document order (as Entries); !!binary scalars decode
// to []byte and !!timestamp scalars to time.Time.
type YAMLDecoder struct {
	dec *yaml.Decoder
}

// NewYAMLDecoder returns a decoder reading from r.
func NewYAMLDecoder(r io.Reader) *YAMLDecoder {
	return &YAMLDecoder{dec: yaml.NewDecoder(r)}
}

// Next returns the next document or io.EOF.
func (d *YAMLDecoder) Next() (any, error) {
	var doc yaml.Node
	if err := d.dec.Decode(&doc); err != nil {
		return nil, err
	}
	return fromYAML(&doc)
}

func fromYAML(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromYAML(n.Content[0])

	case yaml.AliasNode:
		return fromYAML(n.Alias)

	case yaml.SequenceNode:
		arr := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := fromYAML(c)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = v
		}
		return arr, nil

	case yaml.MappingNode:
		obj := make(Entries, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
			}
			val, err := fromYAML(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k.Value, err)
			}
			obj = append(obj, Entry{Key: k.Value, Value: val})
		}
		return obj, nil

	case yaml.ScalarNode:
		return yamlScalar(n)

	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %v", n.Line, n.Kind)
	}
}

func yamlScalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		err := n.Decode(&b)
		return b, err
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return i, nil
		}
		var u uint64
		if err := n.Decode(&u); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return u, nil
	case "!!float":
		var f float64
		err := n.Decode(&f)
		return f, err
	case "!!timestamp":
		var t time.Time
		err := n.Decode(&t)
		return t, err
	case "!!binary":
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid !!binary: %w", n.Line, err)
		}
		return b, nil
	default:
		return n.Value, nil
	}
}
