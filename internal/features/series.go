package features

import (
	"math"
	"slices"
	"strconv"
	"time"

	"nepsecli/internal/standardizer"
	"nepsecli/internal/table"
)

// Date layouts written back to files
const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Series is one symbol's cleaned, date-ordered rows plus derived columns.
// Numeric columns hold NaN for missing values. A Series returned by Run is
// not modified afterwards; accessors return copies.
type Series struct {
	symbol  string
	columns []string
	dates   []time.Time
	text    map[string][]string
	numeric map[string][]float64
	derived []string
}

func newSeries(symbol string) *Series {
	return &Series{
		symbol:  symbol,
		text:    make(map[string][]string),
		numeric: make(map[string][]float64),
	}
}

// Symbol returns the series' symbol
func (s *Series) Symbol() string { return s.symbol }

// Len returns the number of rows
func (s *Series) Len() int { return len(s.dates) }

// Columns returns the source columns followed by the derived columns.
func (s *Series) Columns() []string {
	return append(slices.Clone(s.columns), s.derived...)
}

// Derived returns the names of the derived columns in the order they were added.
func (s *Series) Derived() []string {
	return slices.Clone(s.derived)
}

// Dates returns a copy of the row dates
func (s *Series) Dates() []time.Time {
	return slices.Clone(s.dates)
}

// Float returns a copy of a numeric column
func (s *Series) Float(name string) ([]float64, bool) {
	v, ok := s.numeric[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(v), true
}

// Text returns a copy of a text column
func (s *Series) Text(name string) ([]string, bool) {
	v, ok := s.text[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(v), true
}

// setDerived adds or replaces a derived numeric column. A source column with
// the same name is superseded.
func (s *Series) setDerived(name string, values []float64) {
	if i := slices.Index(s.columns, name); i >= 0 {
		s.columns = slices.Delete(slices.Clone(s.columns), i, i+1)
		delete(s.text, name)
	}
	if !slices.Contains(s.derived, name) {
		s.derived = append(s.derived, name)
	}
	s.numeric[name] = values
}

// close returns the Close column without copying; callers must not modify it.
func (s *Series) close() []float64 {
	return s.numeric[standardizer.ColClose]
}

func (s *Series) dateFormat() string {
	for _, d := range s.dates {
		if d.Hour() != 0 || d.Minute() != 0 || d.Second() != 0 {
			return dateTimeLayout
		}
	}
	return dateLayout
}

// Rows returns the last tail rows (all rows when tail <= 0) as JSON-ready
// values in Columns order. Missing numbers are nil.
func (s *Series) Rows(tail int) [][]any {
	columns := s.Columns()
	start := 0
	if tail > 0 && tail < s.Len() {
		start = s.Len() - tail
	}
	layout := s.dateFormat()

	rows := make([][]any, 0, s.Len()-start)
	for i := start; i < s.Len(); i++ {
		row := make([]any, len(columns))
		for c, name := range columns {
			switch {
			case name == standardizer.ColDate:
				row[c] = s.dates[i].Format(layout)
			case s.numeric[name] != nil:
				if v := s.numeric[name][i]; !math.IsNaN(v) && !math.IsInf(v, 0) {
					row[c] = v
				}
			default:
				row[c] = s.text[name][i]
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Table renders the series as a table: dates as YYYY-MM-DD, numbers in
// shortest round-trip form, missing numbers as empty cells.
func (s *Series) Table() *table.Table {
	columns := s.Columns()
	layout := s.dateFormat()

	rows := make([][]string, s.Len())
	for i := range rows {
		row := make([]string, len(columns))
		for c, name := range columns {
			switch {
			case name == standardizer.ColDate:
				row[c] = s.dates[i].Format(layout)
			case s.numeric[name] != nil:
				row[c] = formatFloat(s.numeric[name][i])
			default:
				row[c] = s.text[name][i]
			}
		}
		rows[i] = row
	}
	return &table.Table{Header: columns, Rows: rows}
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
