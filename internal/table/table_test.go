package table

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "nepsecli/internal/errors"
)

func TestReadCSV(t *testing.T) {
	input := "\ufeff Symbol ,Date,Close\nNABIL,2024-01-02,\"1,234.50\"\nNABIL,2024-01-03\n"

	tbl, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Symbol", "Date", "Close"}, tbl.Header)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "1,234.50", tbl.Rows[0][2])
	assert.Equal(t, []string{"NABIL", "2024-01-03", ""}, tbl.Rows[1], "short rows are padded")
}

func TestReadCSV_RowTooLong(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("A,B\n1,2,3\n"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestReadCSV_Empty(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, tbl.Header)
	assert.Zero(t, tbl.Len())
}

func TestProject(t *testing.T) {
	tbl, err := New([]string{"Close", "Extra", "Date", "Close"}, [][]string{{"10", "x", "2024-01-01", "99"}})
	require.NoError(t, err)

	out := tbl.Project([]string{"Date", "Open", "Close"})
	assert.Equal(t, []string{"Date", "Close"}, out.Header)
	assert.Equal(t, [][]string{{"2024-01-01", "10"}}, out.Rows, "first duplicate wins, absent columns are not created")
	assert.Equal(t, []string{"Close", "Extra", "Date", "Close"}, tbl.Header, "source is untouched")
}

func TestRename(t *testing.T) {
	tbl := &Table{Header: []string{"Date", "Turnover"}}
	assert.True(t, tbl.Rename("Turnover", "Turn Over"))
	assert.Equal(t, []string{"Date", "Turn Over"}, tbl.Header)
	assert.False(t, tbl.Rename("Volume", "Vol"))
}

func TestColumn(t *testing.T) {
	tbl, err := New([]string{"Date", "Close"}, [][]string{{"d1", "1"}, {"d2", "2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, tbl.Column("Close"))
	assert.Nil(t, tbl.Column("Open"))
}

func TestEqual(t *testing.T) {
	a, _ := New([]string{"A"}, [][]string{{"1"}})
	b, _ := New([]string{"A"}, [][]string{{"1"}})
	c, _ := New([]string{"A"}, [][]string{{"2"}})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}

func TestWriteAndReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "NABIL.csv")
	tbl, err := New([]string{"Date", "Close"}, [][]string{{"2024-01-01", "1,234.50"}})
	require.NoError(t, err)

	require.NoError(t, Write(path, tbl))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Date,Close\n2024-01-01,\"1,234.50\"\n", string(data))

	back, err := Read(path)
	require.NoError(t, err)
	assert.True(t, tbl.Equal(back))
}

func TestWriteAndReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "NABIL.xlsx")
	tbl, err := New([]string{"Symbol", "Date", "Close"}, [][]string{
		{"NABIL", "2024-01-01", "512"},
		{"NABIL", "2024-01-02", "515.5"},
	})
	require.NoError(t, err)
	tbl.Sheet = "Prices"

	require.NoError(t, Write(path, tbl))

	back, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "Prices", back.Sheet)
	assert.Equal(t, tbl.Header, back.Header)
	assert.Equal(t, tbl.Rows, back.Rows)
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Read(filepath.Join(dir, "missing.csv"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIO))

	_, err = Read(filepath.Join(dir, "data.json"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, &Table{Header: []string{"Date"}}))
	assert.Equal(t, "Date\n", buf.String())
}
