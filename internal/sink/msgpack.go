package sink

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/mr-karan/zosavro/pkg/hostnum"
	"github.com/mr-karan/zosavro/pkg/schema"
	"github.com/mr-karan/zosavro/pkg/zos"
	"github.com/vmihailenco/msgpack/v5"
)

/*
Each record is one frame: a big-endian payload length followed by a msgpack
map of offset, size and record.

	----------------------------------
	| length(4) | msgpack payload .. |
	----------------------------------

Records are maps in schema field order. Decimals are strings carrying their
scale, as in the JSON output.
*/
const (
	LengthPrefixSize = 4
	MaxPayloadSize   = 16<<20 - LengthPrefixSize
)

var ErrFrameTooLarge = errors.New("frame exceeds the maximum payload size")

// MsgpackWriter writes length-prefixed msgpack frames.
type MsgpackWriter struct {
	out io.Writer
	bw  *bufio.Writer
	buf bytes.Buffer
	enc *msgpack.Encoder
}

func NewMsgpack(w io.Writer) *MsgpackWriter {
	m := &MsgpackWriter{out: w, bw: bufio.NewWriter(w)}
	m.enc = msgpack.NewEncoder(&m.buf)
	return m
}

func (m *MsgpackWriter) Write(d zos.Datum) error {
	m.buf.Reset()
	if err := EncodeDatum(m.enc, d); err != nil {
		return errors.Wrapf(err, "encoding record at offset %d", d.Offset)
	}
	if m.buf.Len() > MaxPayloadSize {
		return errors.Wrapf(ErrFrameTooLarge, "%d bytes", m.buf.Len())
	}

	var prefix [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(m.buf.Len()))
	if _, err := m.bw.Write(prefix[:]); err != nil {
		return err
	}
	_, err := m.bw.Write(m.buf.Bytes())
	return err
}

func (m *MsgpackWriter) Close() error {
	if err := m.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing records")
	}
	return closeWriter(m.out)
}

// ReadFrame reads the payload of one frame. It returns io.EOF at a clean end
// of stream.
func ReadFrame(r io.Reader) ([]byte, error) {
	var prefix [LengthPrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "reading frame length")
	}

	n := binary.BigEndian.Uint32(prefix[:])
	if n > MaxPayloadSize {
		return nil, errors.Wrapf(ErrFrameTooLarge, "%d bytes", n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, errors.Wrap(err, "reading frame payload")
	}
	return payload, nil
}

// EncodeDatum encodes d as a map of offset, size and record.
func EncodeDatum(enc *msgpack.Encoder, d zos.Datum) error {
	if err := enc.EncodeMapLen(3); err != nil {
		return err
	}
	if err := enc.EncodeString("offset"); err != nil {
		return err
	}
	if err := enc.EncodeInt(d.Offset); err != nil {
		return err
	}
	if err := enc.EncodeString("size"); err != nil {
		return err
	}
	if err := enc.EncodeInt(int64(d.Size)); err != nil {
		return err
	}
	if err := enc.EncodeString("record"); err != nil {
		return err
	}
	return encodeValue(enc, nil, d.Value)
}

func encodeValue(enc *msgpack.Encoder, s *schema.Schema, v any) error {
	switch uv, tagged := v.(schema.UnionValue); {
	case s != nil && s.Type == schema.Union:
		i, bv, ok := s.Resolve(v)
		if !ok {
			return errors.Newf("union: no branch for %T", v)
		}
		s, v = s.Types[i], bv
	case tagged:
		v = uv.Value
	}

	switch x := v.(type) {
	case *schema.RecordValue:
		if err := enc.EncodeMapLen(len(x.Schema().Fields)); err != nil {
			return err
		}
		for f, fv := range x.All() {
			if err := enc.EncodeString(f.Name); err != nil {
				return err
			}
			if err := encodeValue(enc, f.Schema, fv); err != nil {
				return errors.Wrapf(err, "%s", f.Name)
			}
		}
		return nil

	case []any:
		var items *schema.Schema
		if s != nil && s.Type == schema.Array {
			items = s.Items
		}
		if err := enc.EncodeArrayLen(len(x)); err != nil {
			return err
		}
		for i, it := range x {
			if err := encodeValue(enc, items, it); err != nil {
				return errors.Wrapf(err, "[%d]", i)
			}
		}
		return nil

	case []byte:
		if s != nil && s.Type == schema.Decimal {
			return enc.EncodeString(hostnum.DecimalFromBytes(x, s.Scale).String())
		}
		return enc.EncodeBytes(x)
	}
	return enc.Encode(v)
}
