// Package sink writes decoded records out as JSON lines or as
// length-prefixed msgpack frames.
package sink

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mr-karan/zosavro/pkg/zos"
)

// Writer writes decoded records.
type Writer interface {
	Write(d zos.Datum) error
	// Close flushes buffered records and closes the underlying writer if
	// it is an io.Closer.
	Close() error
}

// Format names an output encoding.
type Format string

const (
	JSONL   Format = "jsonl"
	Msgpack Format = "msgpack"
)

// ParseFormat maps a case insensitive format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case JSONL, Msgpack:
		return f, nil
	case "", "json":
		return JSONL, nil
	}
	return "", errors.Newf("unknown output format %q", s)
}

// New returns a Writer of format f to w.
func New(w io.Writer, f Format) (Writer, error) {
	switch f {
	case JSONL:
		return NewJSONL(w), nil
	case Msgpack:
		return NewMsgpack(w), nil
	}
	return nil, errors.Newf("unknown output format %q", f)
}

// PartName is the file name of the output of split i.
func PartName(i int, f Format) string {
	return fmt.Sprintf("part-%05d.%s", i, f)
}

func closeWriter(w io.Writer) error {
	if c, ok := w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
