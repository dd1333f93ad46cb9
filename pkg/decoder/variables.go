package decoder

import (
	"maps"

	"github.com/mr-karan/zosavro/pkg/hostnum"
)

// Variables holds the values of tracked items decoded so far in a record.
// Numeric items are stored as hostnum.Decimal, strings as string, floats as
// float32 or float64.
type Variables map[string]any

// Int returns a tracked integer value.
func (v Variables) Int(name string) (int64, bool) {
	switch x := v[name].(type) {
	case hostnum.Decimal:
		return x.Int64()
	case int64:
		return x, true
	case int32:
		return int64(x), true
	}
	return 0, false
}

// String returns a tracked string value.
func (v Variables) String(name string) (string, bool) {
	s, ok := v[name].(string)
	return s, ok
}

func (v Variables) clone() Variables {
	return maps.Clone(v)
}
