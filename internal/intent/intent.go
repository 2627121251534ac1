// Package intent turns classified, reconciled groups into downstream
// posting requests. Nothing here talks to the ledger; intents are handed
// to the ledger boundary by the pipeline.
package intent

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/creditops/warranty-credit-processor/internal/models"
)

// JournalTranID derives the journal-entry transaction id from the invoice
// number.
func JournalTranID(invoiceNumber string) string {
	return invoiceNumber + " CM"
}

// BuildJournalIntent merges every journal-eligible code group into one
// transaction: a single aggregate debit line and one credit line per
// contributing code. The memo label distinguishes multiple codes
// ("multi-group"), one code with several items ("consolidated"), and one
// code with a single item ("single"). Returns false when no journal
// groups exist.
func BuildJournalIntent(fields models.DocumentFields, groups []*models.CodeGroup) (models.TransactionIntent, bool) {
	if len(groups) == 0 {
		return models.TransactionIntent{}, false
	}

	grand := decimal.Zero
	codes := make([]string, 0, len(groups))
	lines := make([]models.IntentLine, 0, len(groups)+1)
	for _, g := range groups {
		grand = grand.Add(g.TotalAmount)
		codes = append(codes, g.Code)
	}

	lines = append(lines, models.IntentLine{Side: "debit", Amount: grand})
	for _, g := range groups {
		lines = append(lines, models.IntentLine{Side: "credit", Code: g.Code, Amount: g.TotalAmount})
	}

	var label string
	switch {
	case len(groups) > 1:
		label = "multi-group"
	case len(groups[0].Items) > 1:
		label = "consolidated"
	default:
		label = "single"
	}

	return models.TransactionIntent{
		Kind:   models.IntentJournalEntry,
		TranID: JournalTranID(fields.InvoiceNumber),
		Date:   fields.InvoiceDate,
		Memo:   fmt.Sprintf("Warranty credit %s %s", label, strings.Join(codes, ", ")),
		Lines:  lines,
	}, true
}

// BuildVendorCreditIntent shapes a vendor-credit posting from a validated
// reconciliation outcome.
func BuildVendorCreditIntent(fields models.DocumentFields, bg *models.BillNumberGroup, outcome models.ReconcileOutcome) models.TransactionIntent {
	return models.TransactionIntent{
		Kind:         models.IntentVendorCredit,
		TranID:       fields.InvoiceNumber,
		Date:         fields.InvoiceDate,
		Memo:         fmt.Sprintf("Vendor credit %s bill %s", strings.Join(bg.Codes, ", "), bg.BillNumber),
		MatchedPairs: outcome.Pairs,
		AuthParentID: outcome.ParentID,
	}
}

// SkipForOutcome converts a failed reconciliation into its skip record,
// carrying the computed discrepancy for mismatches.
func SkipForOutcome(bg *models.BillNumberGroup, outcome models.ReconcileOutcome) models.SkipRecord {
	switch outcome.Reason {
	case models.NoMatchTotalMismatch:
		worst := closestAttempt(outcome.Attempts)
		return models.SkipRecord{
			BillNumber: bg.BillNumber,
			Category:   models.SkipCategoryMismatch,
			Reason: fmt.Sprintf("matched total %s disagrees with expected %s (discrepancy %s)",
				worst.MatchedTotal, outcome.ExpectedTotal, worst.Discrepancy),
		}
	default:
		return models.SkipRecord{
			BillNumber: bg.BillNumber,
			Category:   models.SkipCategoryNoMatch,
			Reason:     fmt.Sprintf("no authorization lines overlap bill %s", bg.BillNumber),
		}
	}
}

// closestAttempt picks the attempt with the smallest absolute discrepancy
// among those that paired anything; reporting the nearest miss is the most
// useful thing a reviewer can act on.
func closestAttempt(attempts []models.ParentAttempt) models.ParentAttempt {
	var best models.ParentAttempt
	found := false
	for _, a := range attempts {
		if a.Pairs == 0 {
			continue
		}
		if !found || a.Discrepancy.Abs().LessThan(best.Discrepancy.Abs()) {
			best = a
			found = true
		}
	}
	return best
}
