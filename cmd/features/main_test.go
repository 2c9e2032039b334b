package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nepsecli/internal/config"
	"nepsecli/internal/infrastructure"
)

func writeSeries(t *testing.T, dir, symbol string, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Symbol,Date,Open,High,Low,Close,Percent Change,Volume,Turn Over\n")
	for i := n; i >= 1; i-- {
		fmt.Fprintf(&b, "%s,2024-03-%02d,10,11,9,\"1,%03d.00\",1.2%%,\"1,000\",-\n", symbol, i, 200+i*3%7)
	}
	path := filepath.Join(dir, symbol+".csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestParseFlags(t *testing.T) {
	_, err := parseFlags([]string{}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = parseFlags([]string{"-in", "a.csv", "-dir", "d"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = parseFlags([]string{"-in", "a.csv", "-tail", "-1"}, &bytes.Buffer{})
	assert.Error(t, err)

	o, err := parseFlags([]string{"-in", "a.csv", "-sma", "5", "-signal", "3"}, &bytes.Buffer{})
	require.NoError(t, err)
	opts := o.pipelineOptions(config.Default().Indicators)
	assert.Equal(t, 5, opts.SMAWindow)
	assert.Equal(t, 3, opts.SignalSpan)
	assert.Equal(t, config.DefaultRSIWindow, opts.RSIWindow)
	assert.Equal(t, config.DefaultSlowSpan, opts.SlowSpan)
}

func TestRun_Single(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	dir := t.TempDir()
	in := writeSeries(t, dir, "NABIL", 30)
	out := filepath.Join(dir, "out", "nabil.csv")

	var stdout bytes.Buffer
	code := run(context.Background(), []string{"-in", in, "-out", out, "-tail", "2", "-sma", "5"}, &stdout, &bytes.Buffer{})
	require.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "NABIL: 30 rows written")
	assert.Contains(t, stdout.String(), "SMA_5")

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	header := strings.SplitN(string(raw), "\n", 2)[0]
	assert.Equal(t, "Symbol,Date,Open,High,Low,Close,Percent Change,Volume,Turn Over,SMA_5,EMA_12,EMA_26,RSI,MACD,MACD_Signal,MACD_Hist", header)
	assert.True(t, strings.Contains(string(raw), "NABIL,2024-03-01,"))
}

func TestRun_SingleMissingClose(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	dir := t.TempDir()
	in := filepath.Join(dir, "BAD.csv")
	require.NoError(t, os.WriteFile(in, []byte("Symbol,Date,Open\nBAD,2024-01-01,1\n"), 0o644))

	code := run(context.Background(), []string{"-in", in, "-out", filepath.Join(dir, "o.csv")}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, 1, code)
	assert.NoFileExists(t, filepath.Join(dir, "o.csv"))
}

func TestRun_InvalidWindows(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	code := run(context.Background(), []string{"-in", "x.csv", "-fast", "30", "-slow", "10"}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, 2, code)
}

func TestRun_Batch(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	in := t.TempDir()
	out := t.TempDir()
	writeSeries(t, in, "NABIL", 20)
	writeSeries(t, in, "NICA", 20)

	var stdout bytes.Buffer
	code := run(context.Background(), []string{"-dir", in, "-out", out}, &stdout, &bytes.Buffer{})
	require.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "2 of 2 symbols enriched")
	assert.FileExists(t, filepath.Join(out, "NABIL_features.csv"))
	assert.FileExists(t, filepath.Join(out, "NICA_features.csv"))
}
