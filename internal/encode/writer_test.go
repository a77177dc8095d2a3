package encode

import (
	"bytes"
	"errors"
	"math"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shapejson/internal/schema"
)

var errSink = errors.New("sink closed")

type failingSink struct{}

func (failingSink) Write([]byte) (int, error) { return 0, errSink }

func newTestWriter(out *bytes.Buffer) (*StreamWriter, *jsoniter.Stream) {
	stream := jsoniter.NewStream(jsoniter.ConfigCompatibleWithStandardLibrary, out, 64)
	return NewStreamWriter(stream), stream
}

func TestStreamWriter_Separators(t *testing.T) {
	var out bytes.Buffer
	w, _ := newTestWriter(&out)

	require.NoError(t, w.BeginObject())
	require.NoError(t, w.Field("a"))
	require.NoError(t, w.BeginArray())
	require.NoError(t, w.Int(1))
	require.NoError(t, w.BeginObject())
	require.NoError(t, w.EndObject())
	require.NoError(t, w.Null())
	require.NoError(t, w.EndArray())
	require.NoError(t, w.Field("b"))
	require.NoError(t, w.Bool(false))
	require.NoError(t, w.EndObject())
	require.NoError(t, w.Flush())

	assert.Equal(t, `{"a":[1,{},null],"b":false}`, out.String())
	assert.Zero(t, w.Depth())
}

func TestStreamWriter_Unbalanced(t *testing.T) {
	var out bytes.Buffer

	w, _ := newTestWriter(&out)
	assert.Error(t, w.EndObject())
	assert.Error(t, w.EndArray())

	w, _ = newTestWriter(&out)
	require.NoError(t, w.BeginArray())
	assert.Error(t, w.EndObject())
	assert.Error(t, w.Field("x"), "fields are only valid inside objects")
	assert.Equal(t, 1, w.Depth())
}

func TestStreamWriter_FlushThreshold(t *testing.T) {
	var out bytes.Buffer
	w, _ := newTestWriter(&out)
	w.SetFlushThreshold(4)

	require.NoError(t, w.BeginArray())
	require.NoError(t, w.String("abcdef"))
	assert.Equal(t, `["abcdef"`, out.String(), "buffer past threshold must reach the sink")

	require.NoError(t, w.EndArray())
	require.NoError(t, w.Flush())
	assert.Equal(t, `["abcdef"]`, out.String())
}

func TestStreamWriter_NoThresholdBuffersEverything(t *testing.T) {
	var out bytes.Buffer
	w, _ := newTestWriter(&out)

	require.NoError(t, w.String("abcdef"))
	assert.Empty(t, out.String())
	require.NoError(t, w.Flush())
	assert.Equal(t, `"abcdef"`, out.String())
}

func TestStreamWriter_SinkErrorPropagates(t *testing.T) {
	stream := jsoniter.NewStream(jsoniter.ConfigCompatibleWithStandardLibrary, failingSink{}, 64)
	w := NewStreamWriter(stream)
	w.SetFlushThreshold(1)

	n := MustCompile(schema.NewRecord(schema.F("a", schema.Prim(schema.Int32))))
	err := n.Encode(w, []any{int32(1)})
	assert.ErrorIs(t, err, errSink)
}

func TestStreamWriter_FloatRejectsNaN(t *testing.T) {
	var out bytes.Buffer
	w, _ := newTestWriter(&out)

	require.NoError(t, w.BeginArray())
	err := w.Float64(0)
	require.NoError(t, err)
	err = w.Float32(float32(math.NaN()))
	assert.ErrorIs(t, err, ErrUnsupportedFloat)
	require.NoError(t, w.EndArray())
	require.NoError(t, w.Flush())
	assert.Equal(t, `[0]`, out.String(), "a rejected float writes nothing")
}

func TestStreamWriter_Binary(t *testing.T) {
	var out bytes.Buffer
	w, _ := newTestWriter(&out)

	require.NoError(t, w.Binary([]byte("hi?")))
	require.NoError(t, w.Flush())
	assert.Equal(t, `"aGk/"`, out.String())
}

func TestStreamWriter_UTF8(t *testing.T) {
	var out bytes.Buffer
	w, _ := newTestWriter(&out)

	require.NoError(t, w.BeginObject())
	require.NoError(t, w.Field("größe"))
	require.NoError(t, w.String("日本"))
	require.NoError(t, w.Field("bad"))
	require.NoError(t, w.String("a\xc3"))
	require.NoError(t, w.EndObject())
	require.NoError(t, w.Flush())
	assert.Equal(t, "{\"größe\":\"日本\",\"bad\":\"a�\"}", out.String())
}
