package hostnum

import "github.com/cockroachdb/errors"

var (
	ErrMalformedNumeric = errors.New("malformed host numeric")
	ErrUnsupportedWidth = errors.New("unsupported binary width")
	ErrOverflow         = errors.New("numeric value does not fit the host field")
)
