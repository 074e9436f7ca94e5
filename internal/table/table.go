// Package table holds an in-memory spreadsheet and reads/writes it as XLSX or
// CSV. The first row of a file is the header.
package table

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a header plus string rows. Every row has len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New builds a Table from a header and rows, padding or truncating each row to
// the header width.
func New(columns []string, rows [][]string) *Table {
	t := &Table{Columns: append([]string(nil), columns...)}
	t.Rows = make([][]string, len(rows))
	for i, r := range rows {
		t.Rows[i] = normalize(r, len(columns))
	}
	return t
}

// FromRecords treats the first record as the header.
func FromRecords(records [][]string) *Table {
	if len(records) == 0 {
		return &Table{}
	}
	return New(records[0], records[1:])
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// Column returns a copy of the named column's values.
func (t *Table) Column(name string) ([]string, bool) {
	idx, ok := t.ColumnIndex(name)
	if !ok {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out, true
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	return New(t.Columns, t.Rows)
}

// SetColumn overwrites the named column in place, or appends it when absent.
// values must have one entry per row.
func (t *Table) SetColumn(name string, values []string) error {
	if len(values) != len(t.Rows) {
		return eris.Errorf("table: column %q has %d values for %d rows", name, len(values), len(t.Rows))
	}
	if idx, ok := t.ColumnIndex(name); ok {
		for i := range t.Rows {
			t.Rows[i][idx] = values[i]
		}
		return nil
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], values[i])
	}
	return nil
}

// Records returns the header followed by all rows.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Columns)
	out = append(out, t.Rows...)
	return out
}

// Read loads a table from path, choosing the format by extension.
func Read(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSXFile(path, XLSXOptions{})
	case ".csv":
		return ReadCSVFile(path, CSVOptions{})
	default:
		return nil, eris.Errorf("table: unsupported file type %q", filepath.Ext(path))
	}
}

// Write saves t to path, choosing the format by extension.
func Write(path string, t *Table) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return WriteXLSXFile(path, t)
	case ".csv":
		return WriteCSVFile(path, t)
	default:
		return eris.Errorf("table: unsupported file type %q", filepath.Ext(path))
	}
}

func normalize(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}
