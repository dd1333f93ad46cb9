package decoder

import "github.com/cockroachdb/errors"

var (
	ErrInvalidConfiguration  = errors.New("invalid decoder configuration")
	ErrNoAlternativeSelected = errors.New("no choice alternative selected")
	ErrShortRecord           = errors.New("record shorter than its layout")
	ErrSchemaMismatch        = errors.New("layout does not match schema")
	ErrInvalidOccurs         = errors.New("invalid array occurrence count")
)
