package framer

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/mr-karan/zosavro/pkg/matcher"
)

// Variable frames records that carry no length prefix. Each Next tops the
// buffer up to capacity; the decoder then tells, through Commit, how many
// bytes the record it decoded used. The rest is carried over to the next
// call.
type Variable struct {
	window
	consumed int
}

// NewVariable returns a framer for records of at most maxLen bytes.
func NewVariable(r io.Reader, maxLen int) *Variable {
	return &Variable{window: newWindow(r, maxLen)}
}

func (f *Variable) Next() ([]byte, error) {
	if f.consumed > 0 {
		f.have = shiftResidual(f.buf, f.consumed, f.have)
		f.consumed = 0
	}
	if err := f.fill(len(f.buf)); err != nil {
		return nil, err
	}
	if f.have == 0 {
		return nil, io.EOF
	}
	f.started = true
	return f.buf[:f.have], nil
}

func (f *Variable) Commit(n int) error {
	if n <= 0 || n > f.have-f.consumed {
		return errors.Wrapf(ErrInvalidCommit, "%d of %d bytes", n, f.have-f.consumed)
	}
	f.consumed += n
	f.processed += int64(n)
	return nil
}

func (f *Variable) SeekRecordStart(m matcher.Matcher) (int64, error) {
	return f.seek(m)
}
