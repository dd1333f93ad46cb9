package split

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/mr-karan/zosavro/internal/testutil"
	"github.com/mr-karan/zosavro/pkg/schema"
	"github.com/mr-karan/zosavro/pkg/zos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan(t *testing.T) {
	assert := assert.New(t)

	t.Run("Even", func(t *testing.T) {
		splits, err := Plan(1000, 4, 100)
		require.NoError(t, err)
		assert.Equal([]Split{
			{Index: 0, Start: 0, End: 250},
			{Index: 1, Start: 250, End: 500},
			{Index: 2, Start: 500, End: 750},
			{Index: 3, Start: 750, End: 1000, Last: true},
		}, splits)
	})

	t.Run("ShortTail", func(t *testing.T) {
		splits, err := Plan(1050, 5, 100)
		require.NoError(t, err)
		require.Len(t, splits, 5)
		assert.Equal(int64(840), splits[4].Start)
		assert.Equal(int64(1050), splits[4].End)
	})

	t.Run("MergedTail", func(t *testing.T) {
		splits, err := Plan(530, 2, 300)
		require.NoError(t, err)
		assert.Equal([]Split{{Index: 0, Start: 0, End: 530, Last: true}}, splits)
	})

	t.Run("RecordBound", func(t *testing.T) {
		splits, err := Plan(1000, 100, 300)
		require.NoError(t, err)
		assert.Len(splits, 3)
		for _, s := range splits {
			assert.GreaterOrEqual(s.End-s.Start, int64(300))
		}
	})

	t.Run("Empty", func(t *testing.T) {
		splits, err := Plan(0, 4, 100)
		require.NoError(t, err)
		assert.Equal([]Split{{Last: true}}, splits)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := Plan(-1, 1, 1)
		assert.Error(err)
		_, err = Plan(1, 0, 1)
		assert.Error(err)
		_, err = Plan(1, 1, 0)
		assert.Error(err)
	})
}

func TestWindow(t *testing.T) {
	assert := assert.New(t)

	off, length, limit := Split{Start: 0, End: 250}.Window()
	assert.Equal([]int64{0, 250, 249}, []int64{off, length, limit})
	assert.False(Split{Start: 0, End: 250}.Seek())

	off, length, limit = Split{Start: 250, End: 500}.Window()
	assert.Equal([]int64{249, 251, 250}, []int64{off, length, limit})
	assert.True(Split{Start: 250, End: 500}.Seek())

	off, length, limit = Split{Start: 750, End: 1000, Last: true}.Window()
	assert.Equal([]int64{749, 251, 0}, []int64{off, length, limit})
}

func TestRun(t *testing.T) {
	assert := assert.New(t)
	splits, err := Plan(1000, 10, 10)
	require.NoError(t, err)

	t.Run("Limit", func(t *testing.T) {
		var (
			running, peak atomic.Int32
			seen          sync.Map
		)
		err := Run(context.Background(), 3, splits, func(_ context.Context, s Split) error {
			n := running.Add(1)
			defer running.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			seen.Store(s.Index, true)
			return nil
		})
		require.NoError(t, err)
		assert.LessOrEqual(peak.Load(), int32(3))
		for _, s := range splits {
			_, ok := seen.Load(s.Index)
			assert.True(ok, "split %d not run", s.Index)
		}
	})

	t.Run("Error", func(t *testing.T) {
		boom := errors.New("boom")
		err := Run(context.Background(), 2, splits, func(_ context.Context, s Split) error {
			if s.Index == 4 {
				return boom
			}
			return nil
		})
		assert.ErrorIs(err, boom)
		assert.Contains(err.Error(), "split 4")
	})
}

// Reading every split of a plan yields the records of the whole file, once
// each and in order.
func TestRunCustdat(t *testing.T) {
	var (
		typ  = testutil.Custdat()
		recs [][]byte
	)
	sc, err := schema.FromCobol(typ)
	require.NoError(t, err)
	for i := 0; i < 40; i++ {
		recs = append(recs, testutil.Customer(t, int64(1000+i), fmt.Sprintf("NAME %d", i), i%6))
	}
	data := bytes.Join(recs, nil)

	for _, count := range []int{1, 2, 3, 7, 16} {
		t.Run(fmt.Sprintf("Splits%d", count), func(t *testing.T) {
			splits, err := Plan(int64(len(data)), count, testutil.CustdatMaxLen)
			require.NoError(t, err)

			ids := make([][]int32, len(splits))
			err = Run(context.Background(), 4, splits, func(_ context.Context, s Split) error {
				off, length, limit := s.Window()
				r, err := zos.NewReader(bytes.NewReader(data[off:]),
					zos.WithLayout(typ, sc),
					zos.WithMatcher(testutil.CustdatMatcher()),
					zos.WithRange(off, length, limit),
				)
				if err != nil {
					return err
				}
				if s.Seek() {
					if _, err := r.SeekRecordStart(); err != nil {
						return err
					}
				}
				for d, err := range r.Records() {
					if err != nil {
						return err
					}
					id, _ := d.Value.(*schema.RecordValue).Get("CustomerId")
					ids[s.Index] = append(ids[s.Index], id.(int32))
				}
				return nil
			})
			require.NoError(t, err)

			var got []int32
			for _, part := range ids {
				got = append(got, part...)
			}
			require.Len(t, got, len(recs))
			for i, id := range got {
				assert.Equal(t, int32(1000+i), id)
			}
		})
	}
}
