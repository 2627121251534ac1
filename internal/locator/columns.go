package locator

import (
	"strings"

	"github.com/creditops/warranty-credit-processor/internal/config"
	"github.com/creditops/warranty-credit-processor/internal/tokenindex"
)

// ColumnSet holds the x-coordinates of the three table columns the
// line-item extractor needs. A column that could not be located has its
// Has flag false; line-item extraction requires at least the code and
// amount columns.
type ColumnSet struct {
	CodeX   float64
	AmountX float64
	DescX   float64

	HasCode   bool
	HasAmount bool
	HasDesc   bool
}

// Usable reports whether line-item extraction can proceed at all.
func (c ColumnSet) Usable() bool {
	return c.HasCode && c.HasAmount
}

// LocateColumns finds the table header tokens by exact case-normalized
// match (code column also by uppercase prefix) and returns the x of the
// first match for each header.
func LocateColumns(ix *tokenindex.Index, cols config.Columns) ColumnSet {
	var out ColumnSet
	for _, t := range ix.All() {
		upper := strings.ToUpper(strings.TrimSpace(t.Text))

		if !out.HasCode && isCodeHeader(upper, cols) {
			out.CodeX = t.X
			out.HasCode = true
		}
		if !out.HasAmount && upper == strings.ToUpper(cols.AmountHeader) {
			out.AmountX = t.X
			out.HasAmount = true
		}
		if !out.HasDesc && upper == strings.ToUpper(cols.DescriptionHeader) {
			out.DescX = t.X
			out.HasDesc = true
		}
	}
	return out
}

func isCodeHeader(upper string, cols config.Columns) bool {
	for _, h := range cols.CodeHeaders {
		if upper == strings.ToUpper(h) {
			return true
		}
	}
	for _, p := range cols.CodeHeaderPrefixes {
		if strings.HasPrefix(upper, strings.ToUpper(p)) {
			return true
		}
	}
	return false
}
