package cobol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func custdat() *Type {
	return NewComplex("CustomerData",
		NewZoned("CustomerId", 6, 0, false),
		NewComplex("PersonalData",
			NewString("CustomerName", 20),
			NewString("CustomerAddress", 20),
			NewString("CustomerPhone", 8),
		),
		NewComplex("Transactions",
			NewBinary("TransactionNbr", 9, 0, false),
			NewVarArray("Transaction", NewComplex("Transaction",
				NewChoice("",
					NewString("TransactionDateString", 8),
					NewComplex("TransactionDate",
						NewString("TransactionDay", 2),
						NewOctets("Filler1", 1),
						NewString("TransactionMonth", 2),
						NewOctets("Filler2", 1),
						NewString("TransactionYear", 2),
					),
				),
				NewPacked("TransactionAmount", 15, 2, true),
				NewString("TransactionComment", 9),
			), 0, 5, "TransactionNbr"),
		),
	)
}

func TestByteLen(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(3, NewPacked("p", 5, 0, true).ByteLen())
	assert.Equal(3, NewPacked("p", 4, 0, true).ByteLen())
	assert.Equal(7, NewZoned("z", 7, 2, true).ByteLen())
	assert.Equal(2, NewBinary("b", 4, 0, true).ByteLen())
	assert.Equal(4, NewBinary("b", 9, 0, true).ByteLen())
	assert.Equal(8, NewBinary("b", 18, 0, true).ByteLen())
	assert.Equal(4, NewFloat("f").ByteLen())
	assert.Equal(8, NewDouble("d").ByteLen())

	sep := NewZoned("z", 5, 0, true)
	sep.Prim.SignSeparate = true
	assert.Equal(6, sep.ByteLen())

	choice := NewChoice("c", NewString("a", 3), NewString("b", 9))
	assert.Equal(9, choice.ByteLen())
	assert.Equal(27, NewArray("a", choice, 3).ByteLen())

	// 6 + 48 + 4 + 5 * (8 + 8 + 9)
	assert.Equal(183, custdat().ByteLen())
}

func TestValidate(t *testing.T) {
	assert := assert.New(t)

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(custdat().Validate())
	})

	t.Run("Invalid", func(t *testing.T) {
		assert.Error((*Type)(nil).Validate())
		assert.Error(NewPacked("p", 0, 0, true).Validate())
		assert.Error(NewPacked("p", 3, 4, true).Validate())
		assert.Error(NewBinary("b", 19, 0, true).Validate())
		assert.Error(NewString("s", 0).Validate())
		assert.Error(NewChoice("c").Validate())
		assert.Error(NewComplex("r", NewString("a", 1), NewString("a", 1)).Validate())
		assert.Error(NewVarArray("a", NewString("s", 1), 0, 3, "").Validate())
		assert.Error(NewVarArray("a", NewString("s", 1), 4, 3, "n").Validate())
	})

	t.Run("ChoiceName", func(t *testing.T) {
		c := NewChoice("", NewString("Alpha", 1))
		assert.Equal("AlphaChoice", c.ChoiceName())
		assert.Equal("Named", NewChoice("Named", NewString("Alpha", 1)).ChoiceName())
	})

	t.Run("DependingOn", func(t *testing.T) {
		assert.Equal([]string{"TransactionNbr"}, custdat().DependingOnNames())
	})
}

func TestContext(t *testing.T) {
	assert := assert.New(t)

	t.Run("EBCDICStrings", func(t *testing.T) {
		ctx := EBCDIC()
		b, err := ctx.EncodeString("AB1", 5)
		assert.NoError(err)
		assert.Equal([]byte{0xC1, 0xC2, 0xF1, 0x40, 0x40}, b)

		s, err := ctx.DecodeString(b)
		assert.NoError(err)
		assert.Equal("AB1", s)

		_, err = ctx.EncodeString("TOOLONG", 3)
		assert.Error(err)
	})

	t.Run("ASCIIStrings", func(t *testing.T) {
		s, err := ASCII().DecodeString([]byte("hi\x00\x00"))
		assert.NoError(err)
		assert.Equal("hi", s)
	})

	t.Run("Parse", func(t *testing.T) {
		ctx, err := ParseContext("ASCII")
		assert.NoError(err)
		assert.Equal("ascii", ctx.Name)

		ctx, err = ParseContext("")
		assert.NoError(err)
		assert.Equal("ebcdic", ctx.Name)

		_, err = ParseContext("utf-16")
		assert.Error(err)
	})

	t.Run("ZonedFormat", func(t *testing.T) {
		f := EBCDIC().ZonedFormat(PrimitiveSpec{Kind: Zoned, SignLeading: true})
		assert.True(f.SignLeading)
		assert.False(f.SignSeparate)
		assert.Equal(byte(0x0F), f.Zone)
	})
}
