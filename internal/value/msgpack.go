package value

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// MsgpackDecoder reads a stream of concatenated MessagePack values.
// Maps keep their encoded order (as Entries); bin values decode to []byte
// and timestamp extensions to time.Time. Integers decode as int64/uint64.
type MsgpackDecoder struct {
	dec *msgpack.Decoder
}

// NewMsgpackDecoder returns a decoder reading from r.
func NewMsgpackDecoder(r io.Reader) *MsgpackDecoder {
	dec := msgpack.NewDecoder(r)
	dec.UseLooseInterfaceDecoding(true)
	return &MsgpackDecoder{dec: dec}
}

// Next returns the next value or io.EOF.
func (d *MsgpackDecoder) Next() (any, error) {
	if _, err := d.dec.PeekCode(); err != nil {
		return nil, err
	}
	return d.read()
}

func (d *MsgpackDecoder) read() (any, error) {
	code, err := d.dec.PeekCode()
	if err != nil {
		return nil, err
	}

	switch {
	case msgpcode.IsFixedMap(code) || code == msgpcode.Map16 || code == msgpcode.Map32:
		n, err := d.dec.DecodeMapLen()
		if err != nil {
			return nil, err
		}
		obj := make(Entries, 0, n)
		for i := 0; i < n; i++ {
			key, err := d.dec.DecodeString()
			if err != nil {
				return nil, fmt.Errorf("map key %d: %w", i, err)
			}
			val, err := d.read()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			obj = append(obj, Entry{Key: key, Value: val})
		}
		return obj, nil

	case msgpcode.IsFixedArray(code) || code == msgpcode.Array16 || code == msgpcode.Array32:
		n, err := d.dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		arr := make([]any, n)
		for i := range arr {
			v, err := d.read()
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = v
		}
		return arr, nil

	case code == msgpcode.Bin8 || code == msgpcode.Bin16 || code == msgpcode.Bin32:
		// Loose decoding would hand bin back as a string.
		return d.dec.DecodeBytes()

	default:
		return d.dec.DecodeInterfaceLoose()
	}
}
