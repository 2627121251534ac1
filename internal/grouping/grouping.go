// Package grouping aggregates accepted line items along the two dimensions
// downstream posting needs: by NARDA code, and — for vendor-credit codes
// only — by the original bill number their descriptions reference.
package grouping

import (
	"github.com/creditops/warranty-credit-processor/internal/models"
)

// BuildCodeGroups folds line items into per-code groups in first-seen
// order. Group totals are sums of absolute amounts; items whose printed
// amount does not parse contribute nothing and are kept for traceability.
func BuildCodeGroups(items []models.LineItem) []*models.CodeGroup {
	byCode := make(map[string]*models.CodeGroup)
	var ordered []*models.CodeGroup

	for _, it := range items {
		g, ok := byCode[it.Code]
		if !ok {
			g = &models.CodeGroup{Code: it.Code}
			byCode[it.Code] = g
			ordered = append(ordered, g)
		}

		g.Items = append(g.Items, it)
		if amt, parsed := it.AbsAmount(); parsed {
			g.TotalAmount = g.TotalAmount.Add(amt)
		}
		if it.OriginalBillNumber != "" && !contains(g.BillNumbers, it.OriginalBillNumber) {
			g.BillNumbers = append(g.BillNumbers, it.OriginalBillNumber)
		}
	}
	return ordered
}

// BuildBillNumberGroups layers the second grouping dimension over the code
// groups: for every distinct bill number referenced by a vendor-credit
// group, the union of all vendor-credit items carrying that bill number.
// isVendorCredit decides which codes participate.
func BuildBillNumberGroups(groups []*models.CodeGroup, isVendorCredit func(code string) bool) []*models.BillNumberGroup {
	byBill := make(map[string]*models.BillNumberGroup)
	var ordered []*models.BillNumberGroup

	for _, g := range groups {
		if !isVendorCredit(g.Code) {
			continue
		}
		for _, it := range g.Items {
			if it.OriginalBillNumber == "" {
				continue
			}
			bg, ok := byBill[it.OriginalBillNumber]
			if !ok {
				bg = &models.BillNumberGroup{BillNumber: it.OriginalBillNumber}
				byBill[it.OriginalBillNumber] = bg
				ordered = append(ordered, bg)
			}

			bg.Items = append(bg.Items, it)
			if amt, parsed := it.AbsAmount(); parsed {
				bg.TotalAmount = bg.TotalAmount.Add(amt)
			}
			if !contains(bg.Codes, g.Code) {
				bg.Codes = append(bg.Codes, g.Code)
			}
		}
	}
	return ordered
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
