// Package metadata loads the symbol listing (metadata.csv) produced by the
// company crawler: one row per listed company with its symbol and name.
package metadata

import (
	"os"
	"sort"
	"strings"

	apperrors "nepsecli/internal/errors"
	"nepsecli/internal/table"
)

// Column names in metadata.csv
const (
	ColSymbol      = "Symbol"
	ColCompanyName = "Company_Name"
)

// Company is one listed company
type Company struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Index maps upper-cased symbols to companies.
type Index map[string]Company

// Lookup finds a company by symbol, case-insensitively.
func (idx Index) Lookup(symbol string) (Company, bool) {
	c, ok := idx[strings.ToUpper(strings.TrimSpace(symbol))]
	return c, ok
}

// Load reads the metadata file. Rows with an empty symbol or name are
// dropped, the first row wins for a repeated symbol, and the result is
// sorted by symbol.
func Load(path string) ([]Company, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, apperrors.NewNotFoundError("metadata file").WithContext("path", path)
	}

	t, err := table.Read(path)
	if err != nil {
		return nil, err
	}

	for _, col := range []string{ColSymbol, ColCompanyName} {
		if !t.Has(col) {
			return nil, apperrors.NewSchemaError(col).WithContext("path", path)
		}
	}

	symbols := t.Column(ColSymbol)
	names := t.Column(ColCompanyName)

	seen := make(map[string]bool, len(symbols))
	companies := make([]Company, 0, len(symbols))
	for i := range symbols {
		symbol := strings.ToUpper(strings.TrimSpace(symbols[i]))
		name := strings.TrimSpace(names[i])
		if symbol == "" || name == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		companies = append(companies, Company{Symbol: symbol, Name: name})
	}

	sort.Slice(companies, func(i, j int) bool {
		return companies[i].Symbol < companies[j].Symbol
	})
	return companies, nil
}

// LoadIndex reads the metadata file into an Index.
func LoadIndex(path string) (Index, error) {
	companies, err := Load(path)
	if err != nil {
		return nil, err
	}
	idx := make(Index, len(companies))
	for _, c := range companies {
		idx[c.Symbol] = c
	}
	return idx, nil
}
