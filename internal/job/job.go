// Package job decodes one split of a host file into a sink.
package job

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/mr-karan/zosavro/internal/sink"
	"github.com/mr-karan/zosavro/internal/source"
	"github.com/mr-karan/zosavro/internal/split"
	"github.com/mr-karan/zosavro/pkg/decoder"
	"github.com/mr-karan/zosavro/pkg/layout"
	"github.com/mr-karan/zosavro/pkg/zos"
	"github.com/zerodha/logf"
)

// Stats counts the outcome of reading a split.
type Stats struct {
	Records int64 // Records written.
	Errors  int64 // Records that failed to decode.
	Skipped int64 // Bytes skipped looking for the first record.
	Bytes   int64 // Bytes processed, skipped bytes included.
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Records += o.Records
	s.Errors += o.Errors
	s.Skipped += o.Skipped
	s.Bytes += o.Bytes
}

// Input is a host file and the layout of its records.
type Input struct {
	Opener  *source.Opener
	URI     string
	Layout  *layout.Layout
	Decoder *decoder.Decoder
	Logger  *logf.Logger // Optional.

	// MaxRecords stops a split after that many records when positive.
	MaxRecords int64
}

// NewDecoder builds the decoder for the records of l.
func NewDecoder(l *layout.Layout) (*decoder.Decoder, error) {
	return decoder.New(decoder.Config{
		Type:    l.Type,
		Schema:  l.Schema,
		Context: &l.Context,
	})
}

// Read decodes the records owned by s and writes them to w. Records that
// fail to decode are counted and skipped when they carry a descriptor word.
// Without one the split stops with an error, as the rest of it can no
// longer be framed.
func (in Input) Read(ctx context.Context, s split.Split, w sink.Writer) (Stats, error) {
	var st Stats

	lo := logf.New(logf.Opts{})
	if in.Logger != nil {
		lo = *in.Logger
	}

	off, length, limit := s.Window()
	rc, err := in.Opener.Open(ctx, in.URI, off)
	if err != nil {
		return st, err
	}
	defer rc.Close()

	cfg := []zos.Config{
		zos.WithDecoder(in.Decoder),
		zos.WithLogger(lo),
		zos.WithRange(off, length, limit),
	}
	if in.Layout.RDW {
		cfg = append(cfg, zos.WithRDW(in.Layout.RDWLayout))
	}
	if in.Layout.Matcher != nil {
		cfg = append(cfg, zos.WithMatcher(in.Layout.Matcher))
	}
	r, err := zos.NewReader(rc, cfg...)
	if err != nil {
		return st, err
	}

	if s.Seek() {
		st.Skipped, err = r.SeekRecordStart()
		if errors.Is(err, zos.ErrNoRecordBoundaryFound) {
			// No record starts in this split.
			lo.Debug("no record start in split", "split", s.Index, "offset", off)
			st.Bytes = r.BytesRead()
			return st, nil
		}
		if err != nil {
			return st, err
		}
	}

	for d, err := range r.Records() {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		var re *zos.RecordError
		switch {
		case errors.As(err, &re) && in.Layout.RDW && !errors.Is(err, zos.ErrShortRead):
			st.Errors++
			lo.Error("skipping record", "split", s.Index, "offset", re.Offset, "error", re.Err)
			continue
		case err != nil:
			st.Errors++
			return st, err
		}

		if err := w.Write(d); err != nil {
			return st, err
		}
		st.Records++
		if in.MaxRecords > 0 && st.Records >= in.MaxRecords {
			break
		}
	}
	st.Bytes = r.BytesProcessed()
	return st, nil
}
