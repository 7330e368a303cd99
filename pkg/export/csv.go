package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"reflect"

	"github.com/gocarina/gocsv"
)

// CSVRenderer marshals slices of csv-tagged structs.
type CSVRenderer struct {
	delimiter rune
}

// NewCSVRenderer builds a renderer using the given delimiter; zero means comma.
func NewCSVRenderer(delimiter rune) *CSVRenderer {
	if delimiter == 0 {
		delimiter = ','
	}
	return &CSVRenderer{delimiter: delimiter}
}

// Render encodes rows, which must be a slice of structs or struct pointers, with a header line.
func (r *CSVRenderer) Render(rows interface{}) ([]byte, error) {
	v := reflect.ValueOf(rows)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("csv rows must be a slice, got %T", rows)
	}

	buf := &bytes.Buffer{}
	if err := gocsv.MarshalCSV(rows, r.writer(buf)); err != nil {
		return nil, fmt.Errorf("marshal csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads csv-tagged rows from in into out, a pointer to a slice.
func (r *CSVRenderer) Decode(in io.Reader, out interface{}) error {
	reader := csv.NewReader(in)
	reader.Comma = r.delimiter
	reader.TrimLeadingSpace = true
	if err := gocsv.UnmarshalCSV(reader, out); err != nil {
		return fmt.Errorf("unmarshal csv: %w", err)
	}
	return nil
}

func (r *CSVRenderer) writer(out io.Writer) *gocsv.SafeCSVWriter {
	w := csv.NewWriter(out)
	w.Comma = r.delimiter
	return gocsv.NewSafeCSVWriter(w)
}
