package decoder

import "github.com/cockroachdb/errors"

// cursor walks the host bytes of one record.
type cursor struct {
	host []byte
	pos  int
}

// take returns the next n bytes and advances past them.
func (c *cursor) take(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.host) {
		return nil, errors.Wrapf(ErrShortRecord, "need %d bytes at offset %d, have %d", n, c.pos, len(c.host)-c.pos)
	}
	b := c.host[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// skipTo moves the cursor to pos, or to the end of the buffer if pos lies
// beyond it.
func (c *cursor) skipTo(pos int) {
	c.pos = min(pos, len(c.host))
}
