package framer

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
	"testing/iotest"

	"github.com/cockroachdb/errors"
	"github.com/mr-karan/zosavro/pkg/matcher"
	"github.com/mr-karan/zosavro/pkg/rdw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// selfSized builds records whose first byte is their own length, followed by
// that many bytes of the record index.
func selfSized(lengths ...int) ([]byte, [][]byte) {
	var (
		stream  []byte
		records [][]byte
	)
	for i, n := range lengths {
		rec := bytes.Repeat([]byte{byte(i)}, n)
		rec[0] = byte(n)
		records = append(records, rec)
		stream = append(stream, rec...)
	}
	return stream, records
}

func rdwStream(layout rdw.Layout, payloads ...[]byte) []byte {
	var out []byte
	for _, p := range payloads {
		var err error
		out, err = layout.Append(out, p)
		if err != nil {
			panic(err)
		}
	}
	return out
}

// drainVariable plays the decoder: it commits as many bytes as the first
// byte of each record announces.
func drainVariable(t *testing.T, f *Variable) [][]byte {
	t.Helper()
	var out [][]byte
	for {
		b, err := f.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		n := int(b[0])
		require.LessOrEqual(t, n, len(b))
		out = append(out, bytes.Clone(b[:n]))
		require.NoError(t, f.Commit(n))
	}
}

func TestShiftResidual(t *testing.T) {
	var (
		assert = assert.New(t)
		rnd    = rand.New(rand.NewSource(7))
	)

	for i := 0; i < 500; i++ {
		size := 1 + rnd.Intn(64)
		buf := make([]byte, size)
		rnd.Read(buf)

		to := rnd.Intn(size + 1)
		from := rnd.Intn(to + 1)
		want := bytes.Clone(buf[from:to])

		n := shiftResidual(buf, from, to)
		assert.Equal(to-from, n)
		assert.Equal(want, buf[:n])

		// Refilling the tail leaves the residual untouched.
		rnd.Read(buf[n:])
		assert.Equal(want, buf[:n])
	}
}

func TestVariable(t *testing.T) {
	assert := assert.New(t)

	t.Run("FrameExactness", func(t *testing.T) {
		lengths := []int{5, 17, 3, 32, 1, 9, 32, 2}
		stream, want := selfSized(lengths...)

		for name, r := range map[string]io.Reader{
			"Plain":   bytes.NewReader(stream),
			"OneByte": iotest.OneByteReader(bytes.NewReader(stream)),
			"Half":    iotest.HalfReader(bytes.NewReader(stream)),
		} {
			f := NewVariable(r, 32)
			got := drainVariable(t, f)
			assert.Equal(want, got, name)
			assert.Equal(int64(len(stream)), f.BytesProcessed(), name)
			assert.Equal(int64(len(stream)), f.BytesRead(), name)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := NewVariable(bytes.NewReader(nil), 8).Next()
		assert.True(errors.Is(err, io.EOF))
	})

	t.Run("ResidualAfterEOF", func(t *testing.T) {
		stream, want := selfSized(4, 4, 4)
		f := NewVariable(bytes.NewReader(stream), 16)

		b, err := f.Next()
		assert.NoError(err)
		assert.Len(b, 12)
		assert.NoError(f.Commit(4))

		// Nothing left to read; the two remaining records come from the buffer.
		assert.Equal(want[1:], drainVariable(t, f))
	})

	t.Run("InvalidCommit", func(t *testing.T) {
		f := NewVariable(bytes.NewReader([]byte{1, 2, 3}), 8)
		_, err := f.Next()
		assert.NoError(err)
		assert.True(errors.Is(f.Commit(4), ErrInvalidCommit))
		assert.True(errors.Is(f.Commit(0), ErrInvalidCommit))
	})

	t.Run("ReadError", func(t *testing.T) {
		f := NewVariable(iotest.ErrReader(errors.New("boom")), 8)
		_, err := f.Next()
		assert.ErrorContains(err, "boom")
	})
}

// leadingLen matches a window whose first byte is a plausible selfSized
// length and whose remaining bytes all carry the same record index.
type leadingLen struct{ n int }

func (m leadingLen) SignatureLen() int { return m.n }

func (m leadingLen) Match(w []byte) bool {
	if int(w[0]) < m.n || w[0] > 32 {
		return false
	}
	for _, b := range w[2:m.n] {
		if b != w[1] {
			return false
		}
	}
	return true
}

func TestVariableSeek(t *testing.T) {
	assert := assert.New(t)

	t.Run("Prefetched", func(t *testing.T) {
		stream, want := selfSized(8, 12, 6)
		garbage := []byte{0xFF, 0xFE, 0xFD}
		f := NewVariable(bytes.NewReader(append(garbage, stream...)), 16)

		skipped, err := f.SeekRecordStart(leadingLen{4})
		assert.NoError(err)
		assert.Equal(int64(3), skipped)
		assert.Equal(int64(3), f.BytesProcessed())
		assert.Equal(int64(7), f.BytesRead())

		assert.Equal(want, drainVariable(t, f))
		assert.Equal(int64(len(garbage)+len(stream)), f.BytesProcessed())
	})

	t.Run("AfterRead", func(t *testing.T) {
		stream, _ := selfSized(8)
		f := NewVariable(bytes.NewReader(stream), 16)
		_, err := f.Next()
		assert.NoError(err)

		_, err = f.SeekRecordStart(leadingLen{4})
		assert.True(errors.Is(err, ErrPrefetchAfterRead))
	})

	t.Run("NotFound", func(t *testing.T) {
		noise := bytes.Repeat([]byte{0xFF}, 1000)
		f := NewVariable(iotest.OneByteReader(bytes.NewReader(noise)), 16)

		_, err := f.SeekRecordStart(leadingLen{4})
		assert.True(errors.Is(err, ErrNoRecordBoundaryFound))
		assert.Equal(int64(len(noise)), f.BytesRead())

		_, err = f.Next()
		assert.True(errors.Is(err, io.EOF))
	})

	t.Run("SignatureTooLong", func(t *testing.T) {
		f := NewVariable(bytes.NewReader(nil), 4)
		_, err := f.SeekRecordStart(leadingLen{5})
		assert.Error(err)
	})
}

func TestRDW(t *testing.T) {
	assert := assert.New(t)
	payloads := [][]byte{[]byte("alpha"), []byte("b"), []byte("charlie!"), {}}

	for _, layout := range []rdw.Layout{rdw.Low, rdw.High} {
		t.Run("Frames_"+layout.String(), func(t *testing.T) {
			stream := rdwStream(layout, payloads...)
			f := NewRDW(iotest.HalfReader(bytes.NewReader(stream)), 8, layout)

			var got [][]byte
			for {
				b, err := f.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				require.NoError(t, err)
				require.NoError(t, f.Commit(len(b)))
				got = append(got, bytes.Clone(b))
			}
			assert.Equal(payloads, got)
			assert.Equal(int64(len(stream)), f.BytesProcessed())
			assert.Equal(int64(len(stream)), f.BytesRead())
		})
	}

	t.Run("SeekWithLongSignature", func(t *testing.T) {
		// The 10 byte signature covers the whole 6 byte first frame and the
		// start of the second one.
		stream := rdwStream(rdw.Low, []byte("ab"), []byte("cdefgh"), []byte("ij"))
		garbage := []byte{0x00, 0x00, 0xFF}
		sig := matcher.NewSignature(
			matcher.RDWRange{Layout: rdw.Low, Min: 4, Max: 12},
			matcher.ByteRange{Offset: 4, Length: 2, Min: 'a', Max: 'b'},
			matcher.ByteRange{Offset: 6, Length: 4, Min: 0, Max: 0xFF},
		)

		f := NewRDW(bytes.NewReader(append(garbage, stream...)), 8, rdw.Low)
		skipped, err := f.SeekRecordStart(sig)
		assert.NoError(err)
		assert.Equal(int64(3), skipped)

		var got []string
		for {
			b, err := f.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			require.NoError(t, err)
			got = append(got, string(b))
		}
		assert.Equal([]string{"ab", "cdefgh", "ij"}, got)
		assert.Equal(int64(len(garbage)+len(stream)), f.BytesProcessed())
	})

	t.Run("Truncated", func(t *testing.T) {
		stream := rdwStream(rdw.Low, []byte("whole"), []byte("partial"))
		f := NewRDW(bytes.NewReader(stream[:len(stream)-3]), 16, rdw.Low)

		b, err := f.Next()
		assert.NoError(err)
		assert.Equal("whole", string(b))

		_, err = f.Next()
		assert.True(errors.Is(err, ErrShortRead))

		_, err = f.Next()
		assert.True(errors.Is(err, io.EOF))
	})

	t.Run("TruncatedDescriptor", func(t *testing.T) {
		f := NewRDW(bytes.NewReader([]byte{0, 0}), 16, rdw.Low)
		_, err := f.Next()
		assert.True(errors.Is(err, ErrShortRead))
	})

	t.Run("InvalidDescriptor", func(t *testing.T) {
		f := NewRDW(bytes.NewReader([]byte{0, 0, 0, 200, 1, 2, 3}), 16, rdw.Low)
		_, err := f.Next()
		assert.True(errors.Is(err, ErrInvalidRDW))

		// Sticky.
		_, err = f.Next()
		assert.True(errors.Is(err, ErrInvalidRDW))
	})

	t.Run("InvalidCommit", func(t *testing.T) {
		f := NewRDW(bytes.NewReader(rdwStream(rdw.Low, []byte("abc"))), 16, rdw.Low)
		_, err := f.Next()
		assert.NoError(err)
		assert.True(errors.Is(f.Commit(4), ErrInvalidCommit))
		assert.NoError(f.Commit(2))
	})
}
