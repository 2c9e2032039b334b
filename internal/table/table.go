// Package table holds the in-memory representation of a delimited or
// spreadsheet file: a header row and string cells, read and written without
// interpreting values.
package table

import (
	"fmt"
	"slices"
	"strings"
)

// Table is a header plus rows of raw string cells. Every row has exactly
// len(Header) cells once loaded.
type Table struct {
	Header []string
	Rows   [][]string
	// Sheet is the worksheet name for spreadsheet sources, empty for CSV.
	Sheet string
}

// New builds a table, padding short rows to the header width.
func New(header []string, rows [][]string) (*Table, error) {
	t := &Table{Header: header, Rows: make([][]string, 0, len(rows))}
	for i, row := range rows {
		if len(row) > len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+1, len(row), len(header))
		}
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			row = padded
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Len returns the number of data rows
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of the first column called name, or -1.
func (t *Table) Index(name string) int {
	return slices.Index(t.Header, name)
}

// Has reports whether the table carries a column called name.
func (t *Table) Has(name string) bool {
	return t.Index(name) >= 0
}

// Column returns a copy of the cells of column name, or nil if absent.
func (t *Table) Column(name string) []string {
	idx := t.Index(name)
	if idx < 0 {
		return nil
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out
}

// Rename changes the first column called from to to. It reports whether a
// column was renamed.
func (t *Table) Rename(from, to string) bool {
	idx := t.Index(from)
	if idx < 0 {
		return false
	}
	header := slices.Clone(t.Header)
	header[idx] = to
	t.Header = header
	return true
}

// Project returns a new table holding only the listed columns that exist in
// t, in the listed order. Missing columns are skipped, not created.
func (t *Table) Project(columns []string) *Table {
	var (
		header []string
		idx    []int
	)
	for _, name := range columns {
		if i := t.Index(name); i >= 0 && !slices.Contains(header, name) {
			header = append(header, name)
			idx = append(idx, i)
		}
	}

	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		out := make([]string, len(idx))
		for c, i := range idx {
			out[c] = row[i]
		}
		rows[r] = out
	}
	return &Table{Header: header, Rows: rows, Sheet: t.Sheet}
}

// Equal reports whether both tables have the same header and cells.
func (t *Table) Equal(other *Table) bool {
	if other == nil {
		return false
	}
	if !slices.Equal(t.Header, other.Header) || len(t.Rows) != len(other.Rows) {
		return false
	}
	for i := range t.Rows {
		if !slices.Equal(t.Rows[i], other.Rows[i]) {
			return false
		}
	}
	return true
}

// normalizeHeader trims whitespace and a leading byte order mark from names.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return out
}
