// Package tabular turns an uploaded CSV byte buffer into an ordered
// sequence of header-keyed row records. The first line establishes the
// column headers, every following non-empty line produces one row, and
// blank lines are skipped. Column counts are strict: a row with more or
// fewer fields than the header is rejected with ErrMalformed rather
// than padded or truncated. The whole sequence is materialized in
// memory because the caller needs positional correspondence with the
// scorer's output array.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ErrMalformed reports structurally inconsistent input: a missing
// header line, a row whose field count differs from the header, or a
// quoting error.
var ErrMalformed = errors.New("malformed tabular data")

// Row maps a column header to the row's string value for that column.
// Values are kept as strings; numeric interpretation is the scorer's
// concern.
type Row map[string]string

// Decode parses buf into rows. The returned slice preserves the input
// row order. An input containing only a header (or only blank lines
// after it) yields an empty, non-nil slice.
func Decode(buf []byte) ([]Row, error) {
	r := csv.NewReader(bytes.NewReader(buf))
	// FieldsPerRecord defaults to the first record's width, so the
	// reader itself enforces the strict column-count policy.

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing header line", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	rows := []Row{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) && errors.Is(perr.Err, csv.ErrFieldCount) {
				return nil, fmt.Errorf("%w: line %d has %d fields, header has %d",
					ErrMalformed, perr.Line, len(record), len(header))
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		row := make(Row, len(header))
		for i, h := range header {
			row[h] = record[i]
		}
		rows = append(rows, row)
	}
}
