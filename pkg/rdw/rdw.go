// Package rdw encodes and decodes the Record Descriptor Word that prefixes
// variable length host records.
package rdw

import (
	"encoding/binary"
	"strings"

	"github.com/cockroachdb/errors"
)

// PrefixLen is the size of a Record Descriptor Word in bytes.
const PrefixLen = 4

// MaxLen is the largest record length, prefix included, an RDW can carry.
const MaxLen = 1<<16 - 1

/*
An RDW is a 4 byte word. Two of its bytes hold the big-endian record length,
prefix included. The other two are reserved: ignored on decode and written
as zero on encode.

Low (default):
----------------------------------
| reserved(2) | length(2) | data |
----------------------------------

High (z/OS native):
----------------------------------
| length(2) | reserved(2) | data |
----------------------------------
*/
type Layout int

const (
	Low Layout = iota
	High
)

var ErrInvalidLength = errors.New("invalid record descriptor word length")

// ParseLayout maps "low" / "high" (case insensitive) to a Layout. An empty
// string selects Low.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "low":
		return Low, nil
	case "high":
		return High, nil
	default:
		return Low, errors.Newf("unknown rdw layout %q", s)
	}
}

func (l Layout) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

func (l Layout) offset() int {
	if l == High {
		return 0
	}
	return 2
}

// Len returns the record length stored in the first PrefixLen bytes of b.
// It panics if b is shorter than PrefixLen.
func (l Layout) Len(b []byte) int {
	_ = b[PrefixLen-1]
	o := l.offset()
	return int(binary.BigEndian.Uint16(b[o : o+2]))
}

// Put writes an RDW for a record of n bytes, prefix included, into b.
func (l Layout) Put(b []byte, n int) error {
	if len(b) < PrefixLen {
		return errors.Newf("rdw needs %d bytes, got %d", PrefixLen, len(b))
	}
	if n < PrefixLen || n > MaxLen {
		return errors.Wrapf(ErrInvalidLength, "%d", n)
	}
	clear(b[:PrefixLen])
	o := l.offset()
	binary.BigEndian.PutUint16(b[o:o+2], uint16(n))
	return nil
}

// Append appends an RDW announcing payloadLen bytes of data followed by the
// payload itself.
func (l Layout) Append(dst, payload []byte) ([]byte, error) {
	var word [PrefixLen]byte
	if err := l.Put(word[:], len(payload)+PrefixLen); err != nil {
		return dst, err
	}
	dst = append(dst, word[:]...)
	return append(dst, payload...), nil
}
