package lineitem

import (
	"math"

	"github.com/creditops/warranty-credit-processor/internal/config"
	"github.com/creditops/warranty-credit-processor/internal/locator"
	"github.com/creditops/warranty-credit-processor/internal/models"
	"github.com/creditops/warranty-credit-processor/internal/tokenindex"
)

// Extractor resolves line items for one document. It is built per
// invocation and holds no state across documents.
type Extractor struct {
	index *tokenindex.Index
	cols  locator.ColumnSet
	tol   config.Tolerances
	pats  *Patterns
}

// NewExtractor wires an extractor over a located document.
func NewExtractor(ix *tokenindex.Index, cols locator.ColumnSet, tol config.Tolerances, pats *Patterns) *Extractor {
	return &Extractor{index: ix, cols: cols, tol: tol, pats: pats}
}

// Extract walks the code column and returns the deduplicated line items.
// A missing code or amount column short-circuits to an empty set: partial
// extraction against an unrecognized table layout is worse than none.
func (e *Extractor) Extract() []models.LineItem {
	if !e.cols.Usable() {
		return nil
	}

	var accepted []models.LineItem
	for _, t := range e.index.InColumn(e.cols.CodeX, e.tol.ColumnBandX) {
		if item, ok := e.resolveRow(t); ok {
			accepted = append(accepted, item)
		}
	}

	// No code-column token yielded a value: fall back to codes embedded in
	// description cells, anchored on the rows that carry amounts.
	if len(accepted) == 0 {
		accepted = e.descriptionFallback()
	}

	return dedupe(accepted)
}

// resolveRow turns one code-column token into a line item. Any panic while
// resolving a single row drops that row only; sibling rows are unaffected.
func (e *Extractor) resolveRow(t models.PositionedToken) (item models.LineItem, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	code, found := e.resolveCode(t)
	if !found {
		return item, false
	}
	amount, found := e.amountForRow(t.Y)
	if !found {
		// A row without an amount contributes nothing.
		return item, false
	}

	return models.LineItem{
		Code:               code,
		Amount:             amount,
		OriginalBillNumber: e.billNumberForRow(t.Y),
		RowY:               t.Y,
	}, true
}

// resolveCode validates a candidate code token, stitching in the next
// physical line when the value is split. The stitched form is preferred;
// acceptance always requires a complete-pattern match on whichever form
// is returned.
func (e *Extractor) resolveCode(t models.PositionedToken) (string, bool) {
	raw := NormalizeCode(t.Text)
	if !e.pats.MatchesComplete(raw) && !e.pats.MatchesContinuation(raw) {
		return "", false
	}

	stitched := e.stitchNextLine(t)
	if stitched != raw && e.pats.MatchesComplete(stitched) {
		return stitched, true
	}
	if e.pats.MatchesComplete(raw) {
		return raw, true
	}
	return "", false
}

// stitchNextLine concatenates the nearest token directly below the
// candidate in the same column band. With no continuation token in range
// the original text comes back unchanged.
func (e *Extractor) stitchNextLine(t models.PositionedToken) string {
	next, ok := e.index.NearestBelow(e.cols.CodeX, t.Y, e.tol.ColumnBandX, e.tol.NextLineMaxY)
	if !ok {
		return NormalizeCode(t.Text)
	}
	return NormalizeCode(t.Text + next.Text)
}

// amountForRow returns the first amount-column token aligned with the
// given row, as printed.
func (e *Extractor) amountForRow(y float64) (string, bool) {
	for _, t := range e.index.InColumn(e.cols.AmountX, e.tol.ColumnBandX) {
		if math.Abs(t.Y-y) < e.tol.RowAlignY {
			return t.Text, true
		}
	}
	return "", false
}

// billNumberForRow resolves the original bill number referenced by a row's
// description cell, stitching the nearest next-line description text
// before searching, because bill numbers regularly wrap.
func (e *Extractor) billNumberForRow(y float64) string {
	if !e.cols.HasDesc {
		return ""
	}

	combined := ""
	for _, t := range e.index.InColumn(e.cols.DescX, e.tol.ColumnBandX) {
		if math.Abs(t.Y-y) < e.tol.RowAlignY {
			combined = t.Text
			break
		}
	}
	if next, ok := e.index.NearestBelow(e.cols.DescX, y, e.tol.ColumnBandX, e.tol.NextLineMaxY); ok {
		if combined == "" {
			combined = next.Text
		} else {
			combined += " " + next.Text
		}
	}
	if combined == "" {
		return ""
	}
	return e.pats.FindBillNumber(combined)
}

// descriptionFallback builds candidates from codes embedded in description
// text, one per amount-bearing row. The last embedded match on a row wins.
func (e *Extractor) descriptionFallback() []models.LineItem {
	if !e.cols.HasDesc {
		return nil
	}

	var out []models.LineItem
	for _, amt := range e.index.InColumn(e.cols.AmountX, e.tol.ColumnBandX) {
		item, ok := e.resolveFallbackRow(amt)
		if ok {
			out = append(out, item)
		}
	}
	return out
}

func (e *Extractor) resolveFallbackRow(amt models.PositionedToken) (item models.LineItem, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	combined := ""
	for _, t := range e.index.InColumn(e.cols.DescX, e.tol.ColumnBandX) {
		if math.Abs(t.Y-amt.Y) < e.tol.RowAlignY {
			combined = t.Text
			break
		}
	}
	if next, nok := e.index.NearestBelow(e.cols.DescX, amt.Y, e.tol.ColumnBandX, e.tol.NextLineMaxY); nok {
		combined += " " + next.Text
	}

	code := e.pats.LastEmbedded(combined)
	if code == "" {
		return item, false
	}

	return models.LineItem{
		Code:               code,
		Amount:             amt.Text,
		OriginalBillNumber: e.pats.FindBillNumber(combined),
		RowY:               amt.Y,
	}, true
}

// dedupe collapses candidates sharing a rounded row coordinate. The one
// with the strictly longer bill number survives; ties keep the first seen.
func dedupe(items []models.LineItem) []models.LineItem {
	if len(items) == 0 {
		return nil
	}

	byRow := make(map[int64]int, len(items))
	var out []models.LineItem
	for _, it := range items {
		key := int64(math.Round(it.RowY))
		if idx, seen := byRow[key]; seen {
			if len(it.OriginalBillNumber) > len(out[idx].OriginalBillNumber) {
				out[idx] = it
			}
			continue
		}
		byRow[key] = len(out)
		out = append(out, it)
	}
	return out
}
