// Package testutil builds host records for tests.
package testutil

import (
	"encoding/binary"
	"testing"

	"github.com/mr-karan/zosavro/pkg/cobol"
	"github.com/mr-karan/zosavro/pkg/hostnum"
	"github.com/mr-karan/zosavro/pkg/matcher"
	"github.com/mr-karan/zosavro/pkg/rdw"
	"github.com/stretchr/testify/require"
)

// Builder appends EBCDIC encoded items to a byte slice.
type Builder struct {
	t   testing.TB
	ctx cobol.Context
	b   []byte
}

// NewBuilder returns an empty EBCDIC record builder.
func NewBuilder(t testing.TB) *Builder {
	return &Builder{t: t, ctx: cobol.EBCDIC()}
}

// Bytes returns the record built so far.
func (h *Builder) Bytes() []byte {
	return h.b
}

// Len returns the number of bytes built so far.
func (h *Builder) Len() int {
	return len(h.b)
}

func (h *Builder) String(s string, n int) *Builder {
	h.t.Helper()
	out, err := h.ctx.EncodeString(s, n)
	require.NoError(h.t, err)
	h.b = append(h.b, out...)
	return h
}

func (h *Builder) Packed(v int64, digits, scale int, signed bool) *Builder {
	h.t.Helper()
	out, err := hostnum.EncodePacked(hostnum.NewDecimal(v, scale), digits, signed, h.ctx.Packed)
	require.NoError(h.t, err)
	h.b = append(h.b, out...)
	return h
}

func (h *Builder) Zoned(v int64, digits int, signed bool) *Builder {
	h.t.Helper()
	out, err := hostnum.EncodeZoned(hostnum.NewDecimal(v, 0), digits, signed, h.ctx.Zoned)
	require.NoError(h.t, err)
	h.b = append(h.b, out...)
	return h
}

func (h *Builder) Binary(v int64, width int) *Builder {
	h.t.Helper()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	h.b = append(h.b, buf[8-width:]...)
	return h
}

func (h *Builder) Raw(b ...byte) *Builder {
	h.b = append(h.b, b...)
	return h
}

// Custdat returns the customer record layout used across tests: an
// identifier, a personal data group and up to five transactions whose count
// is held by TransactionNbr.
func Custdat() *cobol.Type {
	return cobol.NewComplex("CustomerData",
		cobol.NewZoned("CustomerId", 6, 0, false),
		cobol.NewComplex("PersonalData",
			cobol.NewString("CustomerName", 20),
			cobol.NewString("CustomerAddress", 20),
			cobol.NewString("CustomerPhone", 8),
		),
		cobol.NewComplex("Transactions",
			cobol.NewBinary("TransactionNbr", 9, 0, false),
			cobol.NewVarArray("Transaction", cobol.NewComplex("Transaction",
				cobol.NewChoice("",
					cobol.NewString("TransactionDateString", 8),
					cobol.NewComplex("TransactionDate",
						cobol.NewString("TransactionDay", 2),
						cobol.NewOctets("Filler1", 1),
						cobol.NewString("TransactionMonth", 2),
						cobol.NewOctets("Filler2", 1),
						cobol.NewString("TransactionYear", 2),
					),
				),
				cobol.NewPacked("TransactionAmount", 15, 2, true),
				cobol.NewString("TransactionComment", 9),
			), 0, 5, "TransactionNbr"),
		),
	)
}

// CustdatMaxLen is the byte length of a Custdat record with five
// transactions.
const CustdatMaxLen = 183

// Customer builds one Custdat record with n transactions. Amounts are
// id*100+i cents.
func Customer(t testing.TB, id int64, name string, n int) []byte {
	t.Helper()
	h := NewBuilder(t).
		Zoned(id, 6, false).
		String(name, 20).
		String("1 MAIN STREET", 20).
		String("555-0100", 8).
		Binary(int64(n), 4)
	for i := 0; i < n; i++ {
		h.String("01/02/03", 8).
			Packed(id*100+int64(i), 15, 2, true).
			String("NOTE", 9)
	}
	return h.Bytes()
}

// CustomerLen is the length of a Custdat record with n transactions.
func CustomerLen(n int) int {
	return 58 + 25*n
}

// CustdatMatcher recognizes the start of a Custdat record: a numeric
// identifier, printable personal data and a transaction count of 0 to 5.
func CustdatMatcher() matcher.Matcher {
	return matcher.NewSignature(
		matcher.Digits{Offset: 0, Length: 6, Zone: 0xF},
		matcher.ByteRange{Offset: 6, Length: 48, Min: 0x40, Max: 0xFE},
		matcher.IntRange{Offset: 54, Width: 4, Min: 0, Max: 5},
	)
}

// WithRDW prefixes each record with a low layout descriptor word and
// concatenates them.
func WithRDW(t testing.TB, records ...[]byte) []byte {
	t.Helper()
	var out []byte
	for _, r := range records {
		var err error
		out, err = rdw.Low.Append(out, r)
		require.NoError(t, err)
	}
	return out
}
