package zos

import (
	"github.com/mr-karan/zosavro/pkg/cobol"
	"github.com/mr-karan/zosavro/pkg/decoder"
	"github.com/mr-karan/zosavro/pkg/matcher"
	"github.com/mr-karan/zosavro/pkg/rdw"
	"github.com/mr-karan/zosavro/pkg/schema"
	"github.com/zerodha/logf"
)

const (
	defaultReadBufferSize = 64 << 10 // 64KB.
)

// Options represents configuration options for reading a host stream.
type Options struct {
	debug          bool                   // Enable debug logging.
	logger         *logf.Logger           // Logger to use instead of a fresh one.
	typ            *cobol.Type            // Record layout.
	schema         *schema.Schema         // Target schema.
	context        *cobol.Context         // Host charset and signs. Defaults to EBCDIC.
	strategy       decoder.ChoiceStrategy // Picks choice alternatives.
	tracked        []string               // Items collected for the choice strategy.
	decoder        *decoder.Decoder       // Prebuilt decoder, shared between readers.
	rdw            bool                   // Records carry a descriptor word.
	rdwLayout      rdw.Layout             // Where the descriptor word holds the length.
	matcher        matcher.Matcher        // Recognizes a record start when seeking.
	offset         int64                  // Position of the stream in the whole file.
	length         int64                  // Length of the range, for progress.
	limit          int64                  // Records starting at or past limit belong to the next range.
	readBufferSize int                    // Size of the read-ahead buffer in front of the stream.
}

// Config is a function on the Options for a Reader.
// These are used to configure particular options.
type Config func(*Options) error

func DefaultOptions() *Options {
	return &Options{
		debug:          false,
		rdw:            false,
		rdwLayout:      rdw.Low,
		readBufferSize: defaultReadBufferSize,
	}
}

func WithDebug() Config {
	return func(o *Options) error {
		o.debug = true
		return nil
	}
}

func WithLogger(lo logf.Logger) Config {
	return func(o *Options) error {
		o.logger = &lo
		return nil
	}
}

// WithLayout sets the record layout and the schema records are decoded to.
func WithLayout(t *cobol.Type, s *schema.Schema) Config {
	return func(o *Options) error {
		o.typ = t
		o.schema = s
		return nil
	}
}

func WithContext(c cobol.Context) Config {
	return func(o *Options) error {
		o.context = &c
		return nil
	}
}

func WithChoiceStrategy(s decoder.ChoiceStrategy, tracked ...string) Config {
	return func(o *Options) error {
		o.strategy = s
		o.tracked = append(o.tracked, tracked...)
		return nil
	}
}

// WithDecoder reuses a decoder built once for many readers. It takes
// precedence over the layout, context and choice options.
func WithDecoder(d *decoder.Decoder) Config {
	return func(o *Options) error {
		o.decoder = d
		return nil
	}
}

// WithRDW reads records preceded by a Record Descriptor Word.
func WithRDW(layout rdw.Layout) Config {
	return func(o *Options) error {
		o.rdw = true
		o.rdwLayout = layout
		return nil
	}
}

func WithMatcher(m matcher.Matcher) Config {
	return func(o *Options) error {
		o.matcher = m
		return nil
	}
}

// WithRange tells the reader its stream starts at offset in the whole file.
// length is used for progress. A positive limit stops reading once the
// next record would start limit bytes or more into the stream.
func WithRange(offset, length, limit int64) Config {
	return func(o *Options) error {
		if offset < 0 || length < 0 || limit < 0 {
			return ErrInvalidConfiguration
		}
		o.offset = offset
		o.length = length
		o.limit = limit
		return nil
	}
}

func WithReadBufferSize(size int) Config {
	return func(o *Options) error {
		o.readBufferSize = size
		return nil
	}
}
