// Package split cuts a host file into byte ranges read by independent
// workers.
//
// A worker opens its range one byte early and seeks the first record start
// from there, then keeps every record starting before the byte preceding
// the next range. A record spanning two ranges is therefore read once, by
// the range in which it starts.
package split

import (
	"context"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// Split is the nominal byte range [Start, End) of a file.
type Split struct {
	Index int
	Start int64
	End   int64
	Last  bool
}

// Window returns where a reader of the split opens the file, the number of
// bytes it treats as its own for progress, and the limit on record starts
// relative to the opening offset. The last split has no limit.
func (s Split) Window() (offset, length, limit int64) {
	offset = max(s.Start-1, 0)
	length = s.End - offset
	if !s.Last {
		limit = s.End - 1 - offset
	}
	return offset, length, limit
}

// Seek reports whether the reader must seek a record start before reading.
func (s Split) Seek() bool {
	return s.Start > 0
}

// Plan cuts size bytes into at most count splits. No split is shorter than
// maxRecordLen: a shorter tail is merged into the split before it.
func Plan(size int64, count, maxRecordLen int) ([]Split, error) {
	if size < 0 {
		return nil, errors.Newf("negative size %d", size)
	}
	if count <= 0 {
		return nil, errors.Newf("split count %d", count)
	}
	if maxRecordLen <= 0 {
		return nil, errors.Newf("max record length %d", maxRecordLen)
	}
	if size == 0 {
		return []Split{{Last: true}}, nil
	}

	var (
		out  []Split
		n    = max((size+int64(count)-1)/int64(count), int64(maxRecordLen))
		tail = int64(maxRecordLen)
	)
	for start := int64(0); start < size; {
		end := min(start+n, size)
		if size-end < tail {
			end = size
		}
		out = append(out, Split{Index: len(out), Start: start, End: end})
		start = end
	}
	out[len(out)-1].Last = true
	return out, nil
}

// Run calls fn for every split with at most workers calls in flight. The
// first error cancels the context handed to the other calls and is
// returned.
func Run(ctx context.Context, workers int, splits []Split, fn func(context.Context, Split) error) error {
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, s := range splits {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, s); err != nil {
				return errors.Wrapf(err, "split %d [%d, %d)", s.Index, s.Start, s.End)
			}
			return nil
		})
	}
	return g.Wait()
}
