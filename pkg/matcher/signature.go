package matcher

import (
	"github.com/mr-karan/zosavro/pkg/hostnum"
	"github.com/mr-karan/zosavro/pkg/rdw"
)

// Check tests one sub-field of a signature window.
type Check interface {
	// End is the offset just past the last byte the check reads.
	End() int
	Match(window []byte) bool
}

// Signature matches when every one of its checks does. Its length is the
// furthest byte any check reads.
type Signature struct {
	checks []Check
	length int
}

// NewSignature returns a matcher made of checks.
func NewSignature(checks ...Check) *Signature {
	s := &Signature{checks: checks}
	for _, c := range checks {
		s.length = max(s.length, c.End())
	}
	return s
}

func (s *Signature) SignatureLen() int {
	return s.length
}

func (s *Signature) Match(window []byte) bool {
	if len(window) < s.length || len(s.checks) == 0 {
		return false
	}
	for _, c := range s.checks {
		if !c.Match(window) {
			return false
		}
	}
	return true
}

// RDWRange checks that the window starts with an RDW whose length lies in
// [Min, Max].
type RDWRange struct {
	Layout   rdw.Layout
	Min, Max int
}

func (c RDWRange) End() int { return rdw.PrefixLen }

func (c RDWRange) Match(w []byte) bool {
	n := c.Layout.Len(w)
	return n >= max(c.Min, rdw.PrefixLen) && n <= c.Max
}

// IntRange checks that Width bytes at Offset hold a big-endian binary
// integer in [Min, Max].
type IntRange struct {
	Offset   int
	Width    int
	Signed   bool
	Min, Max int64
}

func (c IntRange) End() int { return c.Offset + c.Width }

func (c IntRange) Match(w []byte) bool {
	v, err := hostnum.DecodeBinaryInt(w[c.Offset:c.End()], c.Signed)
	return err == nil && v >= c.Min && v <= c.Max
}

// Digits checks that Length bytes at Offset are unsigned zoned digits.
// Zone is 0xF for EBCDIC and 0x3 for ASCII.
type Digits struct {
	Offset int
	Length int
	Zone   byte
}

func (c Digits) End() int { return c.Offset + c.Length }

func (c Digits) Match(w []byte) bool {
	for _, b := range w[c.Offset:c.End()] {
		if b>>4 != c.Zone || b&0x0F > 9 {
			return false
		}
	}
	return true
}

// ByteRange checks that every byte of Length bytes at Offset lies in
// [Min, Max], typically printable characters.
type ByteRange struct {
	Offset   int
	Length   int
	Min, Max byte
}

func (c ByteRange) End() int { return c.Offset + c.Length }

func (c ByteRange) Match(w []byte) bool {
	for _, b := range w[c.Offset:c.End()] {
		if b < c.Min || b > c.Max {
			return false
		}
	}
	return true
}
