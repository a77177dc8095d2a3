package encode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
)

// Writer is the streaming JSON token contract driven by encoder nodes.
//
// Implementations place separators themselves: callers only announce
// structure (begin/end, field names) and values. Any method may report a
// failure of the underlying sink; nodes propagate it unchanged.
type Writer interface {
	BeginObject() error
	EndObject() error
	BeginArray() error
	EndArray() error
	Field(name string) error
	String(s string) error
	Int(n int64) error
	Float32(f float32) error
	Float64(f float64) error
	Bool(b bool) error
	Binary(b []byte) error
	Null() error
}

var errUnbalanced = errors.New("unbalanced object/array end")

// frame tracks one open object or array.
type frame struct {
	array bool
	n     int // members written so far
}

// StreamWriter implements Writer on top of a json-iterator Stream.
//
// Strings are escaped by the stream (quote, backslash and control characters;
// no HTML escaping). Invalid UTF-8 in strings and field names is replaced
// with U+FFFD. Binary values are written as standard base64 strings.
// A StreamWriter is not safe for concurrent use.
type StreamWriter struct {
	stream  *jsoniter.Stream
	frames  []frame
	flushAt int
}

var _ Writer = (*StreamWriter)(nil)

// NewStreamWriter wraps stream. The caller owns the stream and is
// responsible for flushing or reading its buffer.
func NewStreamWriter(stream *jsoniter.Stream) *StreamWriter {
	return &StreamWriter{stream: stream, frames: make([]frame, 0, 8)}
}

// SetFlushThreshold makes the writer flush the stream to its io.Writer
// whenever n or more bytes are buffered. Zero disables intermediate flushes.
func (w *StreamWriter) SetFlushThreshold(n int) {
	w.flushAt = n
}

// Flush writes buffered output to the stream's io.Writer, if it has one.
func (w *StreamWriter) Flush() error {
	return w.stream.Flush()
}

// Depth returns the number of open objects and arrays.
func (w *StreamWriter) Depth() int {
	return len(w.frames)
}

// beginValue writes the array separator when a value follows another element.
func (w *StreamWriter) beginValue() {
	if len(w.frames) == 0 {
		return
	}
	top := &w.frames[len(w.frames)-1]
	if !top.array {
		return
	}
	if top.n > 0 {
		w.stream.WriteMore()
	}
	top.n++
}

func (w *StreamWriter) done() error {
	if w.stream.Error != nil {
		return w.stream.Error
	}
	if w.flushAt > 0 && len(w.stream.Buffer()) >= w.flushAt {
		return w.stream.Flush()
	}
	return nil
}

func (w *StreamWriter) BeginObject() error {
	w.beginValue()
	w.frames = append(w.frames, frame{})
	w.stream.WriteObjectStart()
	return w.done()
}

func (w *StreamWriter) EndObject() error {
	if len(w.frames) == 0 || w.frames[len(w.frames)-1].array {
		return errUnbalanced
	}
	w.frames = w.frames[:len(w.frames)-1]
	w.stream.WriteObjectEnd()
	return w.done()
}

func (w *StreamWriter) BeginArray() error {
	w.beginValue()
	w.frames = append(w.frames, frame{array: true})
	w.stream.WriteArrayStart()
	return w.done()
}

func (w *StreamWriter) EndArray() error {
	if len(w.frames) == 0 || !w.frames[len(w.frames)-1].array {
		return errUnbalanced
	}
	w.frames = w.frames[:len(w.frames)-1]
	w.stream.WriteArrayEnd()
	return w.done()
}

func (w *StreamWriter) Field(name string) error {
	if len(w.frames) == 0 || w.frames[len(w.frames)-1].array {
		return fmt.Errorf("field %q outside of an object", name)
	}
	top := &w.frames[len(w.frames)-1]
	if top.n > 0 {
		w.stream.WriteMore()
	}
	top.n++
	w.stream.WriteObjectField(validUTF8(name))
	return w.done()
}

func (w *StreamWriter) String(s string) error {
	w.beginValue()
	w.stream.WriteString(validUTF8(s))
	return w.done()
}

// validUTF8 replaces invalid byte sequences, which the stream copies through.
func validUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "\uFFFD")
}

func (w *StreamWriter) Int(n int64) error {
	w.beginValue()
	w.stream.WriteInt64(n)
	return w.done()
}

func (w *StreamWriter) Float32(f float32) error {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return fmt.Errorf("%w: %v", ErrUnsupportedFloat, f)
	}
	w.beginValue()
	w.stream.WriteFloat32(f)
	return w.done()
}

func (w *StreamWriter) Float64(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %v", ErrUnsupportedFloat, f)
	}
	w.beginValue()
	w.stream.WriteFloat64(f)
	return w.done()
}

func (w *StreamWriter) Bool(b bool) error {
	w.beginValue()
	w.stream.WriteBool(b)
	return w.done()
}

func (w *StreamWriter) Binary(b []byte) error {
	w.beginValue()
	w.stream.WriteString(base64.StdEncoding.EncodeToString(b))
	return w.done()
}

func (w *StreamWriter) Null() error {
	w.beginValue()
	w.stream.WriteNil()
	return w.done()
}
