package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	apperrors "nepsecli/internal/errors"
	"nepsecli/internal/files"
)

// Supported formats
const (
	FormatCSV  = ".csv"
	FormatXLSX = ".xlsx"
)

const defaultSheet = "Sheet1"

// FormatOf returns the format implied by the path's extension.
func FormatOf(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case FormatCSV, FormatXLSX:
		return ext, nil
	default:
		return "", apperrors.NewValidationError(fmt.Sprintf("unsupported file type %q", ext)).
			WithContext("path", path)
	}
}

// Read loads the table stored at path. A missing or unreadable file is an IO
// error; content that cannot be parsed is a parsing error.
func Read(path string) (*Table, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewIOError("file not found", err).WithContext("path", path)
		}
		return nil, apperrors.NewIOError("failed to stat file", err).WithContext("path", path)
	}

	switch format {
	case FormatXLSX:
		return readXLSX(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, apperrors.NewIOError("failed to open file", err).WithContext("path", path)
		}
		defer f.Close()

		t, err := ReadCSV(f)
		if err != nil {
			if appErr, ok := err.(*apperrors.AppError); ok {
				return nil, appErr.WithContext("path", path)
			}
			return nil, err
		}
		return t, nil
	}
}

// ReadCSV parses comma-delimited content with a header row. A UTF-8 or
// UTF-16 byte order mark is honoured and stripped. Empty input yields an
// empty table.
func ReadCSV(r io.Reader) (*Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("malformed CSV content", err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	t, err := New(normalizeHeader(records[0]), records[1:])
	if err != nil {
		return nil, apperrors.NewParsingError("malformed CSV content", err)
	}
	return t, nil
}

func readXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Table{}, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read worksheet", err).
			WithContext("path", path).WithContext("sheet", sheets[0])
	}
	if len(rows) == 0 {
		return &Table{Sheet: sheets[0]}, nil
	}

	t, err := New(normalizeHeader(rows[0]), rows[1:])
	if err != nil {
		return nil, apperrors.NewParsingError("malformed worksheet", err).WithContext("path", path)
	}
	t.Sheet = sheets[0]
	return t, nil
}

// Write replaces the file at path with t, in the format implied by the
// extension. The replacement is atomic.
func Write(path string, t *Table) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	err = files.WriteAtomic(path, func(w io.Writer) error {
		if format == FormatXLSX {
			return WriteXLSX(w, t)
		}
		return WriteCSV(w, t)
	})
	if err != nil {
		return apperrors.NewIOError("failed to write file", err).WithContext("path", path)
	}
	return nil
}

// WriteCSV writes the header and rows as comma-delimited text.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if len(t.Header) > 0 {
		if err := cw.Write(t.Header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for i, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes t as a single-sheet workbook. Cells that parse as numbers
// are stored as numbers.
func WriteXLSX(w io.Writer, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := defaultSheet
	if t.Sheet != "" && t.Sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, t.Sheet); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
		sheet = t.Sheet
	}

	writeRow := func(r int, cells []string, typed bool) error {
		values := make([]interface{}, len(cells))
		for i, c := range cells {
			values[i] = c
			if typed {
				if v, err := strconv.ParseFloat(c, 64); err == nil {
					values[i] = v
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r)
		if err != nil {
			return err
		}
		return f.SetSheetRow(sheet, cell, &values)
	}

	if len(t.Header) > 0 {
		if err := writeRow(1, t.Header, false); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for i, row := range t.Rows {
		if err := writeRow(i+2, row, true); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	return f.Write(w)
}
