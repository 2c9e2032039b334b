package features

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "nepsecli/internal/errors"
	"nepsecli/internal/indicators"
	"nepsecli/internal/table"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// genCSV writes n rows in reverse chronological order, as scraped.
func genCSV(t *testing.T, dir, name string, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Symbol,Date,Open,High,Low,Close,Percent Change,Volume,Turn Over\n")
	for i := n - 1; i >= 0; i-- {
		price := 1000 + 40*math.Sin(float64(i)/3) + float64(i)
		fmt.Fprintf(&b, "NABIL,2024-%02d-%02d,%.2f,%.2f,%.2f,\"%s\",%.2f%%,\"1,%03d\",\"12,345.6\"\n",
			1+i/28, 1+i%28, price-1, price+5, price-5, formatThousands(price), math.Sin(float64(i)), i%1000)
	}
	return writeCSV(t, dir, name, b.String())
}

func formatThousands(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	if v >= 1000 {
		return s[:len(s)-6] + "," + s[len(s)-6:]
	}
	return s
}

func newPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline(DefaultOptions(), nil)
	require.NoError(t, err)
	return p
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1,234.50", 1234.50},
		{"12.3%", 12.3},
		{"-0.5%", -0.5},
		{" 4,050 ", 4050},
		{"1,000,000", 1000000},
		{"-", math.NaN()},
		{"", math.NaN()},
		{"N/A", math.NaN()},
		{"1e400", math.NaN()},
		{"-1e400", math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseNumber(tt.in)
			if math.IsNaN(tt.want) {
				assert.True(t, math.IsNaN(got))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{
		"2024-01-02", "2024/01/02", "01/02/2024", "Jan 2, 2024", "02 Jan 2024", "2024-01-02T00:00:00Z",
		"2024-1-2", "2024/1/2", "1/2/2024", "2024.1.2", "2024-1-2 00:00:00",
	} {
		d, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, "2024-01-02", d.Format("2006-01-02"), in)
	}

	_, err := ParseDate("yesterday")
	assert.Error(t, err)
	_, err = ParseDate("  ")
	assert.Error(t, err)
}

func TestRun_IngestAndClean(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "NABIL.csv", `Symbol,Date,Close,Percent Change,Volume,Note
NABIL,2024-01-03,"1,234.50",12.3%,"4,050",c
NABIL,2024-01-01,1200,-,-,a
NABIL,2024-01-02,1210.5,0.9%,100,b
`)

	s, err := newPipeline(t).Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "NABIL", s.Symbol())
	require.Equal(t, 3, s.Len())

	dates := s.Dates()
	for i := 1; i < len(dates); i++ {
		assert.False(t, dates[i].Before(dates[i-1]))
	}

	closes, ok := s.Float("Close")
	require.True(t, ok)
	assert.Equal(t, []float64{1200, 1210.5, 1234.5}, closes)

	pct, _ := s.Float("Percent Change")
	assert.True(t, math.IsNaN(pct[0]))
	assert.Equal(t, 12.3, pct[2])

	notes, ok := s.Text("Note")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, notes, "text columns follow the sort")

	assert.Equal(t, []string{"Symbol", "Date", "Close", "Percent Change", "Volume", "Note",
		"SMA_20", "EMA_12", "EMA_26", "RSI", "MACD", "MACD_Signal", "MACD_Hist"}, s.Columns())
}

func TestRun_StableSortKeepsDuplicates(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "X.csv", "Date,Close\n2024-01-02,1\n2024-01-01,2\n2024-01-02,3\n")

	s, err := newPipeline(t).Run(context.Background(), path)
	require.NoError(t, err)

	closes, _ := s.Float("Close")
	assert.Equal(t, []float64{2, 1, 3}, closes)
}

func TestRun_Chronology(t *testing.T) {
	path := genCSV(t, t.TempDir(), "NABIL.csv", 120)

	s, err := newPipeline(t).Run(context.Background(), path)
	require.NoError(t, err)

	dates := s.Dates()
	require.Len(t, dates, 120)
	for i := 1; i < len(dates); i++ {
		assert.False(t, dates[i].Before(dates[i-1]), "row %d", i)
	}
}

func TestRun_Indicators(t *testing.T) {
	path := genCSV(t, t.TempDir(), "NABIL.csv", 120)

	s, err := newPipeline(t).Run(context.Background(), path)
	require.NoError(t, err)

	closes, _ := s.Float("Close")
	sma, _ := s.Float("SMA_20")
	wantSMA, _ := indicators.SMA(closes, 20)
	for i := range sma {
		if i < 19 {
			assert.True(t, math.IsNaN(sma[i]))
			continue
		}
		assert.InDelta(t, wantSMA[i], sma[i], 1e-9)
	}

	ema12, _ := s.Float("EMA_12")
	assert.Equal(t, closes[0], ema12[0])

	rsi, _ := s.Float("RSI")
	for i, v := range rsi {
		if i < 14 {
			assert.True(t, math.IsNaN(v), "row %d", i)
			continue
		}
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}

	macd, _ := s.Float("MACD")
	signal, _ := s.Float("MACD_Signal")
	hist, _ := s.Float("MACD_Hist")
	ema26, _ := s.Float("EMA_26")
	for i := range macd {
		assert.InDelta(t, ema12[i]-ema26[i], macd[i], 1e-9)
		assert.InDelta(t, macd[i]-signal[i], hist[i], 1e-9)
	}
}

func TestRun_ShortSeries(t *testing.T) {
	path := genCSV(t, t.TempDir(), "NABIL.csv", 10)

	s, err := newPipeline(t).Run(context.Background(), path)
	require.NoError(t, err)

	sma, _ := s.Float("SMA_20")
	require.Len(t, sma, 10)
	for _, v := range sma {
		assert.True(t, math.IsNaN(v))
	}
}

func TestRun_CustomWindows(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "X.csv", "Date,Close\n2024-01-01,10\n2024-01-02,12\n2024-01-03,11\n2024-01-04,13\n2024-01-05,12\n")

	p, err := NewPipeline(Options{SMAWindow: 2, RSIWindow: 2, FastSpan: 3, SlowSpan: 5, SignalSpan: 3}, nil)
	require.NoError(t, err)

	s, err := p.Run(context.Background(), path)
	require.NoError(t, err)

	ema3, ok := s.Float("EMA_3")
	require.True(t, ok)
	assert.Equal(t, []float64{10, 11, 11, 12, 12}, ema3)

	_, ok = s.Float("SMA_2")
	assert.True(t, ok)
	_, ok = s.Float("SMA_20")
	assert.False(t, ok)
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	p := newPipeline(t)

	tests := []struct {
		name    string
		content string
		errType apperrors.ErrorType
		column  string
	}{
		{"missing close", "Date,Open\n2024-01-01,1\n", apperrors.ErrTypeSchema, "Close"},
		{"missing date", "Close\n1\n", apperrors.ErrTypeSchema, "Date"},
		{"bad date", "Date,Close\n2024-01-01,1\nnot-a-date,2\n", apperrors.ErrTypeParsing, ""},
		{"blank date", "Date,Close\n,1\n", apperrors.ErrTypeParsing, ""},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, dir, fmt.Sprintf("f%d.csv", i), tt.content)
			s, err := p.Run(context.Background(), path)
			require.Error(t, err)
			assert.Nil(t, s)
			assert.True(t, apperrors.IsType(err, tt.errType), err.Error())
			if tt.column != "" {
				assert.Contains(t, err.Error(), tt.column)
			}
		})
	}

	_, err := p.Run(context.Background(), filepath.Join(dir, "missing.csv"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIO))
}

func TestRun_BadDateReportsRow(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "X.csv", "Date,Close\n2024-01-01,1\n31/31/2024,2\n")

	_, err := newPipeline(t).Run(context.Background(), path)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 2, appErr.Context["row"])
}

func TestRun_Cancelled(t *testing.T) {
	path := genCSV(t, t.TempDir(), "NABIL.csv", 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPipeline(t).Run(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())

	bad := DefaultOptions()
	bad.RSIWindow = 0
	assert.True(t, apperrors.IsType(bad.Validate(), apperrors.ErrTypeValidation))

	bad = DefaultOptions()
	bad.FastSpan = bad.SlowSpan
	assert.Error(t, bad.Validate())

	_, err := NewPipeline(bad, nil)
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "X.csv", "Symbol,Date,Close\nX,2024-01-02,\"1,001.5\"\nX,2024-01-01,-\n")

	p, err := NewPipeline(Options{SMAWindow: 2, RSIWindow: 1, FastSpan: 1, SlowSpan: 2, SignalSpan: 1}, nil)
	require.NoError(t, err)
	s, err := p.Run(context.Background(), path)
	require.NoError(t, err)

	out := filepath.Join(dir, "out", "X_features.csv")
	require.NoError(t, WriteCSV(out, s))

	got, err := table.Read(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"Symbol", "Date", "Close", "SMA_2", "EMA_1", "EMA_2", "RSI", "MACD", "MACD_Signal", "MACD_Hist"}, got.Header)
	assert.Equal(t, []string{"X", "2024-01-01", "", "", "", "", "", "", "", ""}, got.Rows[0])
	assert.Equal(t, "2024-01-02", got.Rows[1][1])
	assert.Equal(t, "1001.5", got.Rows[1][2])
}

func TestSeriesRows(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "X.csv", "Date,Close\n2024-01-01,10\n2024-01-02,12\n2024-01-03,11\n")

	s, err := newPipeline(t).Run(context.Background(), path)
	require.NoError(t, err)

	rows := s.Rows(2)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01-02", rows[0][0])
	assert.Equal(t, 12.0, rows[0][1])
	assert.Nil(t, rows[0][2], "SMA_20 is missing and rendered as nil")

	assert.Len(t, s.Rows(0), 3)
}

func TestSeriesRows_EncodesAsJSON(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "X.csv", "Date,Close,Volume\n2024-01-01,1e400,5\n2024-01-02,10,1e999\n")

	s, err := newPipeline(t).Run(context.Background(), path)
	require.NoError(t, err)

	rows := s.Rows(0)
	assert.Nil(t, rows[0][1], "overflowing close is missing")
	assert.Nil(t, rows[1][2], "overflowing volume is missing")

	_, err = json.Marshal(rows)
	assert.NoError(t, err)
}

func TestRunTable(t *testing.T) {
	tbl, err := table.New(
		[]string{"Date", "Close", "Volume"},
		[][]string{
			{"2024-1-3", "13", "1,000"},
			{"2024-1-1", "10", "-"},
			{"2024-1-2", "12", "900"},
		},
	)
	require.NoError(t, err)

	s, err := newPipeline(t).RunTable(context.Background(), tbl, "NICA")
	require.NoError(t, err)
	assert.Equal(t, "NICA", s.Symbol())

	closes, _ := s.Float("Close")
	assert.Equal(t, []float64{10, 12, 13}, closes)
	ema, ok := s.Float(EMAColumn(12))
	require.True(t, ok)
	assert.Equal(t, 10.0, ema[0])
	assert.Len(t, s.Derived(), 7)

	noClose, err := table.New([]string{"Date", "Open"}, [][]string{{"2024-01-01", "1"}})
	require.NoError(t, err)
	_, err = newPipeline(t).RunTable(context.Background(), noClose, "NICA")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
}

func TestSeriesAccessorsCopy(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "X.csv", "Date,Close\n2024-01-01,10\n")
	s, err := newPipeline(t).Run(context.Background(), path)
	require.NoError(t, err)

	closes, _ := s.Float("Close")
	closes[0] = 99
	again, _ := s.Float("Close")
	assert.Equal(t, 10.0, again[0])
}
