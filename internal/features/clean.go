package features

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "nepsecli/internal/errors"
	"nepsecli/internal/files"
	"nepsecli/internal/standardizer"
	"nepsecli/internal/table"
)

// NumericColumns are coerced to numbers when present.
var NumericColumns = []string{
	standardizer.ColVolume,
	standardizer.ColTurnOver,
	standardizer.ColPercentChange,
	standardizer.ColOpen,
	standardizer.ColHigh,
	standardizer.ColLow,
	standardizer.ColClose,
}

var dateLayouts = []string{
	"2006-1-2",
	"2006-1-2 15:04:05",
	"2006-1-2T15:04:05",
	time.RFC3339,
	"2006/1/2",
	"1/2/2006",
	"2006.1.2",
	"Jan 2, 2006",
	"January 2, 2006",
	"02 Jan 2006",
	"02-Jan-2006",
}

// ParseDate parses the date formats found in scraped price files.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseNumber strips thousands separators and percent signs and parses the
// remainder. Anything that still fails to parse, such as "-" used for days
// without trades, is NaN. So are values too large for a float64.
func ParseNumber(s string) float64 {
	cleaned := strings.TrimSpace(strings.NewReplacer(",", "", "%", "").Replace(s))
	if cleaned == "" {
		return math.NaN()
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return math.NaN()
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// ingest loads path, validates the schema, orders rows by date and coerces
// numeric columns.
func ingest(path string) (*Series, error) {
	t, err := table.Read(path)
	if err != nil {
		return nil, err
	}
	return clean(t, files.SymbolFromPath(path))
}

func clean(t *table.Table, fallbackSymbol string) (*Series, error) {
	for _, required := range []string{standardizer.ColDate, standardizer.ColClose} {
		if !t.Has(required) {
			return nil, apperrors.NewSchemaError(required)
		}
	}

	rawDates := t.Column(standardizer.ColDate)
	dates := make([]time.Time, len(rawDates))
	for i, raw := range rawDates {
		d, err := ParseDate(raw)
		if err != nil {
			// Data rows are numbered from 1 after the header line.
			return nil, apperrors.NewParsingError("unparseable date", err).
				WithContext("row", i+1).
				WithContext("value", raw)
		}
		dates[i] = d
	}

	order := make([]int, len(dates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dates[order[a]].Before(dates[order[b]])
	})

	s := newSeries(fallbackSymbol)
	s.dates = make([]time.Time, len(order))
	for i, src := range order {
		s.dates[i] = dates[src]
	}

	seen := make(map[string]bool, len(t.Header))
	for _, name := range t.Header {
		if seen[name] || name == "" {
			continue
		}
		seen[name] = true
		s.columns = append(s.columns, name)
		if name == standardizer.ColDate {
			continue
		}

		raw := t.Column(name)
		if slices.Contains(NumericColumns, name) {
			values := make([]float64, len(order))
			for i, src := range order {
				values[i] = ParseNumber(raw[src])
			}
			s.numeric[name] = values
			continue
		}

		values := make([]string, len(order))
		for i, src := range order {
			values[i] = raw[src]
		}
		s.text[name] = values
	}

	if symbols := s.text[standardizer.ColSymbol]; len(symbols) > 0 {
		if sym := strings.TrimSpace(symbols[0]); sym != "" {
			s.symbol = strings.ToUpper(sym)
		}
	}

	return s, nil
}
