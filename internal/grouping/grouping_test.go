package grouping

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/creditops/warranty-credit-processor/internal/models"
)

func item(code, amount, bill string, y float64) models.LineItem {
	return models.LineItem{Code: code, Amount: amount, OriginalBillNumber: bill, RowY: y}
}

func TestBuildCodeGroups(t *testing.T) {
	items := []models.LineItem{
		item("CONCDA", "-45.00", "1234567", 100),
		item("CORE", "12.99", "7654321", 112),
		item("CONCDA", "(5.00)", "1234567", 124),
		item("CONCDA", "n/a", "8887776", 136), // unparseable, still kept
	}

	groups := BuildCodeGroups(items)
	if len(groups) != 2 {
		t.Fatalf("groups: got %d, want 2", len(groups))
	}

	g := groups[0]
	if g.Code != "CONCDA" {
		t.Fatalf("first group: got %q, want CONCDA", g.Code)
	}
	if len(g.Items) != 3 {
		t.Errorf("CONCDA items: got %d, want 3", len(g.Items))
	}
	// |-45.00| + |(5.00)| = 50.00; the unparseable row adds nothing
	if !g.TotalAmount.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("CONCDA total: got %s, want 50.00", g.TotalAmount)
	}
	if len(g.BillNumbers) != 2 {
		t.Errorf("CONCDA bill numbers: got %v, want deduplicated pair", g.BillNumbers)
	}
}

func TestBuildBillNumberGroups(t *testing.T) {
	vendor := map[string]bool{"CONCDA": true, "CORE": true}
	isVendor := func(code string) bool { return vendor[code] }

	items := []models.LineItem{
		item("CONCDA", "40.00", "1234567", 100),
		item("CORE", "10.00", "1234567", 112),  // same bill, different code
		item("CONCDA", "25.00", "9998887", 124),
		item("J1001", "99.00", "1234567", 136), // not vendor-credit: excluded
		item("CONCDA", "7.00", "", 148),        // no bill reference
	}

	groups := BuildBillNumberGroups(BuildCodeGroups(items), isVendor)
	if len(groups) != 2 {
		t.Fatalf("bill groups: got %d, want 2", len(groups))
	}

	bg := groups[0]
	if bg.BillNumber != "1234567" {
		t.Fatalf("first bill group: got %q", bg.BillNumber)
	}
	if len(bg.Items) != 2 {
		t.Errorf("bill 1234567 items: got %d, want 2", len(bg.Items))
	}
	if !bg.TotalAmount.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("bill 1234567 total: got %s, want 50.00", bg.TotalAmount)
	}
	if len(bg.Codes) != 2 || bg.Codes[0] != "CONCDA" || bg.Codes[1] != "CORE" {
		t.Errorf("contributing codes: got %v", bg.Codes)
	}

	if groups[1].BillNumber != "9998887" {
		t.Errorf("second bill group: got %q", groups[1].BillNumber)
	}
}

func TestBuildBillNumberGroups_ItemsNotDuplicated(t *testing.T) {
	isVendor := func(string) bool { return true }

	items := []models.LineItem{
		item("CONCDA", "40.00", "1234567", 100),
	}
	code := BuildCodeGroups(items)
	bill := BuildBillNumberGroups(code, isVendor)

	// Both groupings see the same single item.
	if len(code[0].Items) != 1 || len(bill[0].Items) != 1 {
		t.Fatalf("item visible from both groupings exactly once")
	}
	if code[0].Items[0] != bill[0].Items[0] {
		t.Error("groupings must reference the same underlying item")
	}
}
