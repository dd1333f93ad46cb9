package cobol

import (
	"bytes"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mr-karan/zosavro/pkg/hostnum"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Context holds the host character set and numeric sign conventions a
// record was written with.
type Context struct {
	Name    string
	Charset encoding.Encoding
	Packed  hostnum.Nibbles
	Zoned   hostnum.ZonedFormat
}

// EBCDIC returns the z/OS context: code page 037 with C/D/F signs.
func EBCDIC() Context {
	return Context{
		Name:    "ebcdic",
		Charset: charmap.CodePage037,
		Packed:  hostnum.EBCDICNibbles,
		Zoned:   hostnum.EBCDICZoned,
	}
}

// ASCII returns a context for data transcoded to Latin-1 on the way off the
// host. Zoned digits carry a 0x3 zone and a 0x7 zone for negative values.
func ASCII() Context {
	return Context{
		Name:    "ascii",
		Charset: charmap.ISO8859_1,
		Packed:  hostnum.EBCDICNibbles,
		Zoned: hostnum.ZonedFormat{
			Zone:  0x03,
			Signs: hostnum.Nibbles{Positive: 0x03, Negative: 0x07, Unsigned: 0x03},
			Plus:  '+',
			Minus: '-',
		},
	}
}

// ParseContext returns the named context.
func ParseContext(name string) (Context, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ebcdic", "cp037":
		return EBCDIC(), nil
	case "ascii", "latin1":
		return ASCII(), nil
	default:
		return Context{}, errors.Newf("unknown host context %q", name)
	}
}

// ZonedFormat returns the zoned layout of an item under this context.
func (c Context) ZonedFormat(p PrimitiveSpec) hostnum.ZonedFormat {
	f := c.Zoned
	f.SignLeading = p.SignLeading
	f.SignSeparate = p.SignSeparate
	return f
}

// DecodeString decodes host characters, dropping trailing spaces and NULs.
func (c Context) DecodeString(b []byte) (string, error) {
	out, err := c.Charset.NewDecoder().Bytes(b)
	if err != nil {
		return "", errors.Wrap(err, "decoding host string")
	}
	return string(bytes.TrimRight(out, " \x00")), nil
}

// EncodeString encodes s on exactly n host characters, space padded.
func (c Context) EncodeString(s string, n int) ([]byte, error) {
	out, err := c.Charset.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, errors.Wrap(err, "encoding host string")
	}
	if len(out) > n {
		return nil, errors.Newf("string of %d characters exceeds %d", len(out), n)
	}
	space, err := c.Charset.NewEncoder().Bytes([]byte(" "))
	if err != nil {
		return nil, errors.Wrap(err, "encoding host space")
	}
	return append(out, bytes.Repeat(space, n-len(out))...), nil
}
