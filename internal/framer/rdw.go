package framer

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/mr-karan/zosavro/pkg/matcher"
	"github.com/mr-karan/zosavro/pkg/rdw"
)

// RDW frames records preceded by a Record Descriptor Word. The prefix is
// read first, then exactly the rest of the record. Next returns the data
// without its prefix and the whole frame counts as processed.
type RDW struct {
	window
	layout rdw.Layout
	frame  int // Length of the frame returned by the last Next.
	err    error
}

// NewRDW returns a framer for records of at most maxLen data bytes.
func NewRDW(r io.Reader, maxLen int, layout rdw.Layout) *RDW {
	return &RDW{window: newWindow(r, maxLen+rdw.PrefixLen), layout: layout}
}

func (f *RDW) Next() ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.frame > 0 {
		// Bytes prefetched while seeking may run past a short record.
		f.have = shiftResidual(f.buf, f.frame, f.have)
		f.frame = 0
	}

	if err := f.fill(rdw.PrefixLen); err != nil {
		return nil, err
	}
	switch {
	case f.have == 0:
		return nil, io.EOF
	case f.have < rdw.PrefixLen:
		return nil, f.truncated(errors.Wrapf(ErrShortRead, "%d byte descriptor at offset %d", f.have, f.processed))
	}
	f.started = true

	n := f.layout.Len(f.buf)
	if n < rdw.PrefixLen || n > len(f.buf) {
		return nil, f.fail(errors.Wrapf(ErrInvalidRDW, "length %d at offset %d, max %d", n, f.processed, len(f.buf)))
	}
	if err := f.fill(n); err != nil {
		return nil, err
	}
	if f.have < n {
		return nil, f.truncated(errors.Wrapf(ErrShortRead, "%d of %d bytes at offset %d", f.have, n, f.processed))
	}

	f.frame = n
	f.processed += int64(n)
	return f.buf[rdw.PrefixLen:n], nil
}

// truncated drops a partial record at the end of the stream. The next call
// reports io.EOF.
func (f *RDW) truncated(err error) error {
	f.have = 0
	return err
}

// fail makes framing errors sticky: once the descriptor chain is broken no
// later record can be located.
func (f *RDW) fail(err error) error {
	f.have = 0
	f.err = err
	return err
}

// Commit checks n against the current frame. The frame length, not n,
// decides where the next record starts.
func (f *RDW) Commit(n int) error {
	if n < 0 || n > f.frame-rdw.PrefixLen {
		return errors.Wrapf(ErrInvalidCommit, "%d of %d bytes", n, f.frame-rdw.PrefixLen)
	}
	return nil
}

func (f *RDW) SeekRecordStart(m matcher.Matcher) (int64, error) {
	return f.seek(m)
}
