package sink

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/mr-karan/zosavro/pkg/zos"
)

// JSONLWriter writes one JSON object per record and line.
type JSONLWriter struct {
	out io.Writer
	bw  *bufio.Writer
	enc *json.Encoder
}

type jsonRecord struct {
	Offset int64 `json:"offset"`
	Size   int   `json:"size"`
	Record any   `json:"record"`
}

func NewJSONL(w io.Writer) *JSONLWriter {
	bw := bufio.NewWriter(w)
	return &JSONLWriter{out: w, bw: bw, enc: json.NewEncoder(bw)}
}

func (j *JSONLWriter) Write(d zos.Datum) error {
	if err := j.enc.Encode(jsonRecord{Offset: d.Offset, Size: d.Size, Record: d.Value}); err != nil {
		return errors.Wrapf(err, "encoding record at offset %d", d.Offset)
	}
	return nil
}

func (j *JSONLWriter) Close() error {
	if err := j.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing records")
	}
	return closeWriter(j.out)
}
