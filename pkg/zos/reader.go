// Package zos reads host records from a byte stream and decodes each one to
// a schema value. A Reader may cover a whole file or only a range of it, in
// which case it first seeks the start of a record and stops once the next
// record starts past its range.
package zos

import (
	"bufio"
	"io"
	"iter"

	"github.com/cockroachdb/errors"
	"github.com/mr-karan/zosavro/internal/framer"
	"github.com/mr-karan/zosavro/pkg/decoder"
	"github.com/mr-karan/zosavro/pkg/matcher"
	"github.com/mr-karan/zosavro/pkg/rdw"
	"github.com/zerodha/logf"
)

// Datum is one decoded record.
type Datum struct {
	Value  any   // *schema.RecordValue for a group layout.
	Offset int64 // Offset of the record in the file.
	Size   int   // Host bytes used, descriptor word included.
}

type Reader struct {
	lo   logf.Logger
	opts *Options
	dec  *decoder.Decoder
	fr   framer.Framer

	next    Datum
	nextErr error
	peeked  bool
	done    bool
	records int64
}

// initLogger initializes logger instance.
func initLogger(debug bool) logf.Logger {
	opts := logf.Opts{EnableCaller: true}
	if debug {
		opts.Level = logf.DebugLevel
	}
	return logf.New(opts)
}

// NewReader returns a reader of the host records in r.
func NewReader(r io.Reader, cfg ...Config) (*Reader, error) {
	opts := DefaultOptions()
	for _, c := range cfg {
		if err := c(opts); err != nil {
			return nil, err
		}
	}
	if r == nil {
		return nil, errors.Wrap(ErrInvalidConfiguration, "no host stream")
	}

	dec := opts.decoder
	if dec == nil {
		var err error
		dec, err = decoder.New(decoder.Config{
			Type:           opts.typ,
			Schema:         opts.schema,
			Context:        opts.context,
			ChoiceStrategy: opts.strategy,
			Tracked:        opts.tracked,
		})
		if err != nil {
			return nil, err
		}
	}
	if dec.MaxLen() <= 0 {
		return nil, errors.Wrap(ErrInvalidConfiguration, "record layout of zero bytes")
	}

	// Seeking reads one byte at a time.
	if opts.readBufferSize > 0 {
		r = bufio.NewReaderSize(r, opts.readBufferSize)
	}

	var fr framer.Framer
	if opts.rdw {
		fr = framer.NewRDW(r, dec.MaxLen(), opts.rdwLayout)
		if opts.matcher == nil {
			opts.matcher = matcher.NewRDW(opts.rdwLayout, dec.MaxLen()+rdw.PrefixLen)
		}
	} else {
		fr = framer.NewVariable(r, dec.MaxLen())
	}

	lo := initLogger(opts.debug)
	if opts.logger != nil {
		lo = *opts.logger
	}

	return &Reader{
		lo:   lo,
		opts: opts,
		dec:  dec,
		fr:   fr,
	}, nil
}

// SeekRecordStart skips to the first record start of the stream, as
// recognized by the configured matcher, and returns the number of bytes
// skipped. It must be called before any record is read.
func (r *Reader) SeekRecordStart() (int64, error) {
	if r.opts.matcher == nil {
		return 0, errors.Wrap(ErrInvalidConfiguration, "seeking a record start needs a matcher")
	}
	if r.peeked || r.records > 0 {
		return 0, ErrPrefetchAfterRead
	}

	skipped, err := r.fr.SeekRecordStart(r.opts.matcher)
	if err != nil {
		r.done = true
		return 0, errors.Wrapf(err, "seeking from offset %d", r.opts.offset)
	}
	r.lo.Debug("found record start", "offset", r.opts.offset+skipped, "skipped", skipped)
	return skipped, nil
}

// HasNext reports whether Next returns a record or a record error.
func (r *Reader) HasNext() bool {
	if !r.peeked {
		r.next, r.nextErr = r.read()
		r.peeked = true
	}
	return !errors.Is(r.nextErr, io.EOF)
}

// Next returns the next record, or io.EOF once the stream or the range is
// exhausted. A *RecordError reports a record that could not be decoded.
func (r *Reader) Next() (Datum, error) {
	if r.peeked {
		r.peeked = false
		return r.next, r.nextErr
	}
	return r.read()
}

// Records iterates over the remaining records.
func (r *Reader) Records() iter.Seq2[Datum, error] {
	return func(yield func(Datum, error) bool) {
		for r.HasNext() {
			if !yield(r.Next()) {
				return
			}
		}
	}
}

func (r *Reader) read() (Datum, error) {
	if r.done {
		return Datum{}, io.EOF
	}

	start := r.fr.BytesProcessed()
	if r.opts.limit > 0 && start >= r.opts.limit {
		r.lo.Debug("reached end of range", "offset", r.opts.offset+start, "records", r.records)
		r.done = true
		return Datum{}, io.EOF
	}

	off := r.opts.offset + start
	host, err := r.fr.Next()
	switch {
	case errors.Is(err, io.EOF):
		r.done = true
		return Datum{}, io.EOF
	case errors.Is(err, framer.ErrShortRead):
		r.done = true
		return Datum{}, &RecordError{Offset: off, Err: err}
	case err != nil:
		r.done = true
		return Datum{}, errors.Wrapf(err, "reading record at offset %d", off)
	}

	res, err := r.dec.Decode(host)
	if err != nil {
		r.lo.Debug("error decoding record", "offset", off, "error", err)
		// Without a descriptor word the next record cannot be located.
		if !r.opts.rdw {
			r.done = true
		}
		return Datum{}, &RecordError{Offset: off, Err: err}
	}
	if err := r.fr.Commit(res.Consumed); err != nil {
		r.done = true
		return Datum{}, &RecordError{Offset: off, Err: err}
	}

	r.records++
	d := Datum{
		Value:  res.Value,
		Offset: off,
		Size:   int(r.fr.BytesProcessed() - start),
	}
	r.lo.Debug("decoded record", "offset", d.Offset, "size", d.Size)
	return d, nil
}

// Count is the number of records decoded so far.
func (r *Reader) Count() int64 {
	return r.records
}

// Progress is the fraction of the range processed so far, between 0 and 1.
func (r *Reader) Progress() float64 {
	total := r.opts.length
	if total <= 0 {
		total = r.opts.limit
	}
	if total <= 0 {
		if r.done {
			return 1
		}
		return 0
	}
	return min(float64(r.fr.BytesProcessed())/float64(total), 1)
}

// BytesRead is the number of bytes pulled from the stream.
func (r *Reader) BytesRead() int64 {
	return r.fr.BytesRead()
}

// BytesProcessed is the number of bytes before the next record.
func (r *Reader) BytesProcessed() int64 {
	return r.fr.BytesProcessed()
}
