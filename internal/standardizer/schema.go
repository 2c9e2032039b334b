package standardizer

import "nepsecli/internal/table"

// Canonical column names
const (
	ColSymbol        = "Symbol"
	ColDate          = "Date"
	ColOpen          = "Open"
	ColHigh          = "High"
	ColLow           = "Low"
	ColClose         = "Close"
	ColPercentChange = "Percent Change"
	ColVolume        = "Volume"
	ColTurnOver      = "Turn Over"
)

// CanonicalColumns is the full canonical schema in output order.
var CanonicalColumns = []string{
	ColSymbol,
	ColDate,
	ColOpen,
	ColHigh,
	ColLow,
	ColClose,
	ColPercentChange,
	ColVolume,
	ColTurnOver,
}

// Synonym maps alternative spellings seen in scraped files to a canonical column.
type Synonym struct {
	Canonical string
	Aliases   []string
}

// Synonyms is consulted in order; adding a new spelling is a data change here.
var Synonyms = []Synonym{
	{Canonical: ColTurnOver, Aliases: []string{"Turnover"}},
}

// IsCanonical reports whether name belongs to the canonical schema.
func IsCanonical(name string) bool {
	for _, c := range CanonicalColumns {
		if c == name {
			return true
		}
	}
	return false
}

// Standardize resolves synonyms and projects t onto the canonical columns it
// carries, in canonical order. An alias is renamed only when its canonical
// column is absent; otherwise the alias is dropped by the projection.
// Canonical columns missing from t are not created. t is not modified.
func Standardize(t *table.Table) *table.Table {
	working := &table.Table{Header: t.Header, Rows: t.Rows, Sheet: t.Sheet}

	for _, syn := range Synonyms {
		if working.Has(syn.Canonical) {
			continue
		}
		for _, alias := range syn.Aliases {
			if working.Rename(alias, syn.Canonical) {
				break
			}
		}
	}

	return working.Project(CanonicalColumns)
}
