// Package matcher recognizes the first bytes of a host record. It is used to
// find a record boundary when reading starts at an arbitrary offset.
package matcher

import (
	"github.com/mr-karan/zosavro/pkg/rdw"
)

// Matcher decides whether a window of exactly SignatureLen bytes is the
// start of a record. Matching is heuristic: a matcher is tuned by its user
// to be unique for a given record format, not guaranteed to be.
type Matcher interface {
	SignatureLen() int
	Match(window []byte) bool
}

// Find returns the first offset at or after start where m matches buf, or
// -1 when no complete window matches.
func Find(m Matcher, buf []byte, start int) int {
	n := m.SignatureLen()
	if n <= 0 {
		return -1
	}
	for pos := max(start, 0); len(buf)-pos >= n; pos++ {
		if m.Match(buf[pos : pos+n]) {
			return pos
		}
	}
	return -1
}

// RDW accepts any Record Descriptor Word announcing a length between the
// prefix size and Max, inclusive.
type RDW struct {
	Layout rdw.Layout
	Max    int
}

// NewRDW returns an RDW matcher for records of at most maxLen bytes,
// prefix included.
func NewRDW(layout rdw.Layout, maxLen int) *RDW {
	return &RDW{Layout: layout, Max: maxLen}
}

func (m *RDW) SignatureLen() int {
	return rdw.PrefixLen
}

func (m *RDW) Match(window []byte) bool {
	if len(window) < rdw.PrefixLen {
		return false
	}
	n := m.Layout.Len(window)
	return n >= rdw.PrefixLen && n <= m.Max
}
