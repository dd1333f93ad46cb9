package zos

import (
	"fmt"

	"github.com/mr-karan/zosavro/internal/framer"
	"github.com/mr-karan/zosavro/pkg/decoder"
	"github.com/mr-karan/zosavro/pkg/hostnum"
)

var (
	ErrInvalidConfiguration  = decoder.ErrInvalidConfiguration
	ErrMalformedNumeric      = hostnum.ErrMalformedNumeric
	ErrUnsupportedWidth      = hostnum.ErrUnsupportedWidth
	ErrOverflow              = hostnum.ErrOverflow
	ErrNoAlternativeSelected = decoder.ErrNoAlternativeSelected
	ErrShortRecord           = decoder.ErrShortRecord
	ErrSchemaMismatch        = decoder.ErrSchemaMismatch
	ErrInvalidOccurs         = decoder.ErrInvalidOccurs
	ErrNoRecordBoundaryFound = framer.ErrNoRecordBoundaryFound
	ErrShortRead             = framer.ErrShortRead
	ErrInvalidRDW            = framer.ErrInvalidRDW
	ErrPrefetchAfterRead     = framer.ErrPrefetchAfterRead
)

// RecordError is a failure to decode the record starting at Offset. With
// descriptor words the reader moves on to the next record; without them the
// record length is unknown and the reader stops.
type RecordError struct {
	Offset int64
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record at offset %d: %v", e.Offset, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
