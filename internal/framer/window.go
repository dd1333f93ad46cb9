// Package framer cuts a host byte stream into records. A framer owns one
// buffer, sized once to the largest record plus any prefix, and keeps
// the byte counts callers need to track their position in the stream.
package framer

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/mr-karan/zosavro/pkg/matcher"
)

var (
	ErrNoRecordBoundaryFound = errors.New("no record boundary found")
	ErrShortRead             = errors.New("stream ended inside a record")
	ErrInvalidRDW            = errors.New("invalid record descriptor word")
	ErrPrefetchAfterRead     = errors.New("record start sought after records were read")
	ErrInvalidCommit         = errors.New("commit beyond the buffered record")
)

// Framer hands out one record's worth of bytes at a time.
type Framer interface {
	// Next returns the bytes of the next record, or io.EOF once the stream
	// is exhausted. The slice is only valid until the following call.
	Next() ([]byte, error)
	// Commit reports how many of the bytes returned by Next made up the
	// record.
	Commit(n int) error
	// SeekRecordStart skips bytes until m matches and returns the number
	// of bytes skipped. It may only be called before the first Next.
	SeekRecordStart(m matcher.Matcher) (int64, error)
	// BytesRead is the number of bytes pulled from the stream.
	BytesRead() int64
	// BytesProcessed is the number of bytes before the start of the next
	// record.
	BytesProcessed() int64
}

// window is the buffer and counters shared by both framers.
type window struct {
	r    io.Reader
	buf  []byte
	have int  // Valid bytes at the start of buf.
	eof  bool // r is exhausted.

	read      int64
	processed int64
	started   bool
}

func newWindow(r io.Reader, size int) window {
	return window{r: r, buf: make([]byte, size)}
}

/*
shiftResidual moves the unconsumed tail of a buffer to its front and
returns the residual length.

	before:  | consumed ......... | residual | stale |
	         0                  from        to
	after:   | residual | ..................       |
	         0      to-from
*/
func shiftResidual(buf []byte, from, to int) int {
	if from <= 0 {
		return to
	}
	return copy(buf, buf[from:to])
}

// fill reads until n bytes are buffered or the stream ends. Hitting the end
// of the stream is not an error; callers check w.have.
func (w *window) fill(n int) error {
	if w.have >= n || w.eof {
		return nil
	}
	m, err := io.ReadFull(w.r, w.buf[w.have:n])
	w.have += m
	w.read += int64(m)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		w.eof = true
		return nil
	default:
		return errors.Wrap(err, "reading host stream")
	}
}

// seek slides a signature sized window one byte at a time until m matches.
// The matched bytes stay buffered as the start of the first record.
func (w *window) seek(m matcher.Matcher) (int64, error) {
	if w.started || w.have > 0 {
		return 0, ErrPrefetchAfterRead
	}
	n := m.SignatureLen()
	if n <= 0 || n > len(w.buf) {
		return 0, errors.Newf("signature of %d bytes for a %d byte buffer", n, len(w.buf))
	}

	for {
		if err := w.fill(n); err != nil {
			return 0, err
		}
		if w.have < n {
			w.have = 0
			return 0, errors.Wrapf(ErrNoRecordBoundaryFound, "after scanning %d bytes", w.read)
		}
		if m.Match(w.buf[:n]) {
			break
		}
		w.have = shiftResidual(w.buf, 1, n)
	}

	skipped := w.read - int64(n)
	w.processed = skipped
	return skipped, nil
}

func (w *window) BytesRead() int64 {
	return w.read
}

func (w *window) BytesProcessed() int64 {
	return w.processed
}
