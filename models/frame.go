// SPDX-License-Identifier: EUPL-1.2

package models

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Frame is a small column-ordered table decoded from or encoded to CSV. It
// backs the engine's tabular payloads: carrier curves, export tables and
// interpolated series. Cells are kept as strings; numeric columns are parsed
// on demand via FloatColumn.
type Frame struct {
	Columns []string
	Records [][]string

	// Comma is the field separator used when encoding. Zero means ','.
	Comma rune
}

// NewFrame returns an empty frame with the given header.
func NewFrame(columns ...string) *Frame {
	return &Frame{Columns: columns}
}

// ReadFrame parses comma-separated CSV from r. The first record is taken as
// the header.
func ReadFrame(r io.Reader) (*Frame, error) {
	return ReadFrameComma(r, ',')
}

// ReadFrameComma parses CSV from r using the given field separator.
func ReadFrameComma(r io.Reader, comma rune) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("models: empty csv document")
	}
	if err != nil {
		return nil, fmt.Errorf("models: read csv header: %w", err)
	}

	f := &Frame{Columns: header, Comma: comma}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("models: read csv record: %w", err)
		}
		f.Records = append(f.Records, record)
	}
	return f, nil
}

// Append adds one record. The record must match the header width.
func (f *Frame) Append(record ...string) error {
	if len(record) != len(f.Columns) {
		return fmt.Errorf("models: record has %d fields, frame has %d columns", len(record), len(f.Columns))
	}
	f.Records = append(f.Records, record)
	return nil
}

// AppendFloats adds one record of numeric cells.
func (f *Frame) AppendFloats(values ...float64) error {
	record := make([]string, len(values))
	for i, v := range values {
		record[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return f.Append(record...)
}

// NumRows returns the number of data records, excluding the header.
func (f *Frame) NumRows() int { return len(f.Records) }

// NumCols returns the number of columns.
func (f *Frame) NumCols() int { return len(f.Columns) }

// ColumnIndex returns the position of the named column.
func (f *Frame) ColumnIndex(name string) (int, bool) {
	for i, c := range f.Columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// Column returns the raw cells of the named column.
func (f *Frame) Column(name string) ([]string, bool) {
	idx, ok := f.ColumnIndex(name)
	if !ok {
		return nil, false
	}
	cells := make([]string, len(f.Records))
	for i, record := range f.Records {
		cells[i] = record[idx]
	}
	return cells, true
}

// FloatColumn parses the named column as float64 values.
func (f *Frame) FloatColumn(name string) ([]float64, error) {
	cells, ok := f.Column(name)
	if !ok {
		return nil, fmt.Errorf("models: no column %q", name)
	}
	values := make([]float64, len(cells))
	for i, cell := range cells {
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("models: column %q row %d: %w", name, i, err)
		}
		values[i] = v
	}
	return values, nil
}

// Row returns the i-th record.
func (f *Frame) Row(i int) []string { return f.Records[i] }

// Encode writes the frame as CSV to w, header first.
func (f *Frame) Encode(w io.Writer) error {
	cw := csv.NewWriter(w)
	if f.Comma != 0 {
		cw.Comma = f.Comma
	}
	if err := cw.Write(f.Columns); err != nil {
		return fmt.Errorf("models: write csv header: %w", err)
	}
	for i, record := range f.Records {
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("models: write csv record %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("models: flush csv: %w", err)
	}
	return nil
}
