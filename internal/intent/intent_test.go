package intent

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/creditops/warranty-credit-processor/internal/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func group(code string, total string, n int) *models.CodeGroup {
	g := &models.CodeGroup{Code: code, TotalAmount: dec(total)}
	for i := 0; i < n; i++ {
		g.Items = append(g.Items, models.LineItem{Code: code})
	}
	return g
}

func TestBuildJournalIntent_MultiGroup(t *testing.T) {
	fields := models.DocumentFields{InvoiceNumber: "67891234", InvoiceDate: "3/15/2024"}
	groups := []*models.CodeGroup{
		group("J1001", "50.00", 1),
		group("J1002", "75.00", 1),
	}

	in, ok := BuildJournalIntent(fields, groups)
	if !ok {
		t.Fatal("expected an intent")
	}
	if in.TranID != "67891234 CM" {
		t.Errorf("tran id: got %q, want %q", in.TranID, "67891234 CM")
	}
	if len(in.Lines) != 3 {
		t.Fatalf("lines: got %d, want 3", len(in.Lines))
	}
	if in.Lines[0].Side != "debit" || !in.Lines[0].Amount.Equal(dec("125.00")) {
		t.Errorf("debit line: got %+v", in.Lines[0])
	}
	if !in.Lines[1].Amount.Equal(dec("50.00")) || !in.Lines[2].Amount.Equal(dec("75.00")) {
		t.Errorf("credit lines: got %+v", in.Lines[1:])
	}
	if !strings.Contains(in.Memo, "multi-group") {
		t.Errorf("memo: got %q, want multi-group label", in.Memo)
	}
}

func TestBuildJournalIntent_ConsolidatedAndSingle(t *testing.T) {
	fields := models.DocumentFields{InvoiceNumber: "61112222"}

	in, _ := BuildJournalIntent(fields, []*models.CodeGroup{group("J1001", "50.00", 3)})
	if !strings.Contains(in.Memo, "consolidated") {
		t.Errorf("memo for multi-item single code: got %q", in.Memo)
	}

	in, _ = BuildJournalIntent(fields, []*models.CodeGroup{group("J1001", "50.00", 1)})
	if !strings.Contains(in.Memo, "single") {
		t.Errorf("memo for single item: got %q", in.Memo)
	}
}

func TestBuildJournalIntent_Empty(t *testing.T) {
	if _, ok := BuildJournalIntent(models.DocumentFields{}, nil); ok {
		t.Error("no journal groups must produce no intent")
	}
}

func TestBuildVendorCreditIntent(t *testing.T) {
	fields := models.DocumentFields{InvoiceNumber: "67891234", InvoiceDate: "3/15/2024"}
	bg := &models.BillNumberGroup{
		BillNumber: "1234567",
		Codes:      []string{"CONCDA", "CORE"},
	}
	outcome := models.ReconcileOutcome{
		Matched:  true,
		ParentID: "P2",
		Pairs:    []models.MatchedPair{{}},
	}

	in := BuildVendorCreditIntent(fields, bg, outcome)
	if in.TranID != "67891234" {
		t.Errorf("tran id: got %q, want invoice number unchanged", in.TranID)
	}
	if in.AuthParentID != "P2" {
		t.Errorf("auth parent: got %q", in.AuthParentID)
	}
	if !strings.Contains(in.Memo, "CONCDA") || !strings.Contains(in.Memo, "1234567") {
		t.Errorf("memo: got %q", in.Memo)
	}
}

func TestSkipForOutcome(t *testing.T) {
	bg := &models.BillNumberGroup{BillNumber: "1234567"}

	mismatch := models.ReconcileOutcome{
		Reason:        models.NoMatchTotalMismatch,
		ExpectedTotal: dec("120.00"),
		Attempts: []models.ParentAttempt{
			{ParentID: "P0", Pairs: 0},
			{ParentID: "P1", Pairs: 1, MatchedTotal: dec("100.00"), Discrepancy: dec("20.00")},
		},
	}
	skip := SkipForOutcome(bg, mismatch)
	if skip.Category != models.SkipCategoryMismatch {
		t.Errorf("category: got %q", skip.Category)
	}
	if !strings.Contains(skip.Reason, "20") {
		t.Errorf("reason should carry the discrepancy: got %q", skip.Reason)
	}

	none := models.ReconcileOutcome{Reason: models.NoMatchNoOverlap}
	skip = SkipForOutcome(bg, none)
	if skip.Category != models.SkipCategoryNoMatch {
		t.Errorf("category: got %q", skip.Category)
	}
}
