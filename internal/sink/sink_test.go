package sink

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/mr-karan/zosavro/internal/testutil"
	"github.com/mr-karan/zosavro/pkg/hostnum"
	"github.com/mr-karan/zosavro/pkg/schema"
	"github.com/mr-karan/zosavro/pkg/zos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

// records decodes two Custdat records.
func records(t *testing.T) []zos.Datum {
	t.Helper()
	typ := testutil.Custdat()
	sc, err := schema.FromCobol(typ)
	require.NoError(t, err)

	data := append(testutil.Customer(t, 123, "ACME", 1), testutil.Customer(t, 124, "GLOBEX", 0)...)
	r, err := zos.NewReader(bytes.NewReader(data), zos.WithLayout(typ, sc))
	require.NoError(t, err)

	var out []zos.Datum
	for d, err := range r.Records() {
		require.NoError(t, err)
		out = append(out, d)
	}
	require.Len(t, out, 2)
	return out
}

type frame struct {
	Offset int64          `msgpack:"offset" json:"offset"`
	Size   int            `msgpack:"size" json:"size"`
	Record map[string]any `msgpack:"record" json:"record"`
}

func TestMsgpack(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	w := NewMsgpack(&buf)
	for _, d := range records(t) {
		require.NoError(t, w.Write(d))
	}
	require.NoError(t, w.Close())

	var frames []frame
	for {
		payload, err := ReadFrame(&buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		var f frame
		require.NoError(t, msgpack.Unmarshal(payload, &f))
		frames = append(frames, f)
	}
	require.Len(t, frames, 2)

	assert.Equal(int64(0), frames[0].Offset)
	assert.Equal(83, frames[0].Size)
	assert.Equal(int64(83), frames[1].Offset)

	personal := frames[0].Record["PersonalData"].(map[string]any)
	assert.Equal("ACME", personal["CustomerName"])

	txns := frames[0].Record["Transactions"].(map[string]any)["Transaction"].([]any)
	require.Len(t, txns, 1)
	assert.Equal("123.00", txns[0].(map[string]any)["TransactionAmount"])
	assert.Empty(frames[1].Record["Transactions"].(map[string]any)["Transaction"])

	t.Run("Truncated", func(t *testing.T) {
		_, err := ReadFrame(bytes.NewReader([]byte{0, 0, 0, 9, 1, 2}))
		assert.Error(err)
		_, err = ReadFrame(bytes.NewReader([]byte{0, 0}))
		assert.Error(err)
		_, err = ReadFrame(bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF}))
		assert.ErrorIs(err, ErrFrameTooLarge)
	})
}

func TestMsgpackUnion(t *testing.T) {
	assert := assert.New(t)

	rec := schema.NewRecord("R", schema.Field{Name: "Amount", Schema: schema.NewUnion(schema.NewDecimal(5, 2), schema.NewDecimal(5, 1))})
	unscaled := hostnum.NewDecimal(12345, 0).Bytes()

	var buf bytes.Buffer
	w := NewMsgpack(&buf)
	for i := range 2 {
		rv := schema.NewRecordValue(rec)
		require.NoError(t, rv.Put("Amount", schema.UnionValue{Branch: i, Value: unscaled}))
		require.NoError(t, w.Write(zos.Datum{Value: rv, Offset: int64(3 * i), Size: 3}))
	}
	require.NoError(t, w.Close())

	for _, want := range []string{"123.45", "1234.5"} {
		payload, err := ReadFrame(&buf)
		require.NoError(t, err)
		var f frame
		require.NoError(t, msgpack.Unmarshal(payload, &f))
		assert.Equal(want, f.Record["Amount"])
	}
}

func TestJSONL(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	w, err := New(&buf, JSONL)
	require.NoError(t, err)
	for _, d := range records(t) {
		require.NoError(t, w.Write(d))
	}
	require.NoError(t, w.Close())

	var (
		sc    = bufio.NewScanner(&buf)
		lines []frame
	)
	for sc.Scan() {
		var f frame
		require.NoError(t, json.Unmarshal(sc.Bytes(), &f))
		lines = append(lines, f)
	}
	require.Len(t, lines, 2)
	assert.Equal(float64(123), lines[0].Record["CustomerId"])
	assert.Equal(float64(124), lines[1].Record["CustomerId"])
	assert.Equal(58, lines[1].Size)
}

func TestFormat(t *testing.T) {
	assert := assert.New(t)

	for in, want := range map[string]Format{"": JSONL, "JSON": JSONL, "jsonl": JSONL, " MsgPack ": Msgpack} {
		f, err := ParseFormat(in)
		assert.NoError(err)
		assert.Equal(want, f)
	}
	_, err := ParseFormat("avro")
	assert.Error(err)
	_, err = New(io.Discard, Format("csv"))
	assert.Error(err)

	assert.Equal("part-00007.msgpack", PartName(7, Msgpack))
}

func TestLockDir(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	f, err := LockDir(dir)
	require.NoError(t, err)

	_, err = LockDir(dir)
	assert.Error(err)

	require.NoError(t, UnlockDir(f))
	_, err = os.Stat(filepath.Join(dir, lockFile))
	assert.True(os.IsNotExist(err))

	f, err = LockDir(dir)
	require.NoError(t, err)
	assert.NoError(UnlockDir(f))
}
