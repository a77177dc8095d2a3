package value

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Decoder reads a stream of documents.
// Next returns io.EOF once the stream is exhausted.
type Decoder interface {
	Next() (any, error)
}

// Input formats understood by NewDecoder.
const (
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatMsgpack = "msgpack"
)

// Formats lists the supported input formats.
var Formats = []string{FormatJSON, FormatYAML, FormatMsgpack}

// NewDecoder returns a Decoder for the named format.
func NewDecoder(format string, r io.Reader) (Decoder, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "jsonl", "ndjson":
		return NewJSONDecoder(r), nil
	case FormatYAML, "yml":
		return NewYAMLDecoder(r), nil
	case FormatMsgpack, "mp":
		return NewMsgpackDecoder(r), nil
	default:
		return nil, fmt.Errorf("unknown input format %q: must be one of %v", format, Formats)
	}
}

// FormatFromPath guesses the input format from a file extension.
// Unknown extensions and "-" (stdin) default to JSON.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".msgpack", ".mp", ".mpk":
		return FormatMsgpack
	default:
		return FormatJSON
	}
}

// DecodeAll reads every remaining document from d.
func DecodeAll(d Decoder) ([]any, error) {
	var docs []any
	for {
		doc, err := d.Next()
		if err == io.EOF {
			return docs, nil
		}
		if err != nil {
			return docs, fmt.Errorf("document %d: %w", len(docs), err)
		}
		docs = append(docs, doc)
	}
}
