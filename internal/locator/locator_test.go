package locator

import (
	"testing"

	"github.com/creditops/warranty-credit-processor/internal/config"
	"github.com/creditops/warranty-credit-processor/internal/models"
	"github.com/creditops/warranty-credit-processor/internal/tokenindex"
)

func tok(text string, x, y float64) models.PositionedToken {
	return models.PositionedToken{Text: text, X: x, Y: y}
}

func TestFieldLocator_InvoiceNumber(t *testing.T) {
	ix := tokenindex.New([]models.PositionedToken{
		tok("Invoice Number", 10, 50),
		tok("67891234", 40, 50),
	})

	fields := NewFieldLocator(ix, 2).Locate()
	if fields.InvoiceNumber != "67891234" {
		t.Errorf("invoice number: got %q, want %q", fields.InvoiceNumber, "67891234")
	}
}

func TestFieldLocator_ValueMustBeRightOfLabel(t *testing.T) {
	ix := tokenindex.New([]models.PositionedToken{
		tok("67891234", 5, 50), // left of the label: not a candidate
		tok("Invoice Number", 10, 50),
	})

	fields := NewFieldLocator(ix, 2).Locate()
	if fields.InvoiceNumber != "" {
		t.Errorf("expected empty invoice number, got %q", fields.InvoiceNumber)
	}
}

func TestFieldLocator_ValueMustBeSameRow(t *testing.T) {
	ix := tokenindex.New([]models.PositionedToken{
		tok("Invoice Number", 10, 50),
		tok("67891234", 40, 52), // 2 units away: different row
	})

	fields := NewFieldLocator(ix, 2).Locate()
	if fields.InvoiceNumber != "" {
		t.Errorf("expected empty invoice number, got %q", fields.InvoiceNumber)
	}
}

func TestFieldLocator_FormatRejectionTriesNextCandidate(t *testing.T) {
	ix := tokenindex.New([]models.PositionedToken{
		tok("Invoice Number", 10, 50),
		tok("ABC", 30, 50),      // fails the format predicate
		tok("12345678", 35, 50), // wrong leading digit
		tok("61234567", 40, 50), // accepted
	})

	fields := NewFieldLocator(ix, 2).Locate()
	if fields.InvoiceNumber != "61234567" {
		t.Errorf("invoice number: got %q, want %q", fields.InvoiceNumber, "61234567")
	}
}

func TestFieldLocator_SecondLabelOccurrenceWins(t *testing.T) {
	// First label hit has no valid value on its row; the second does.
	ix := tokenindex.New([]models.PositionedToken{
		tok("Invoice Number", 10, 50),
		tok("pending", 40, 50),
		tok("Invoice Number", 10, 80),
		tok("71112222", 40, 80),
	})

	fields := NewFieldLocator(ix, 2).Locate()
	if fields.InvoiceNumber != "71112222" {
		t.Errorf("invoice number: got %q, want %q", fields.InvoiceNumber, "71112222")
	}
}

func TestFieldLocator_DateAndDeliveryAmount(t *testing.T) {
	ix := tokenindex.New([]models.PositionedToken{
		tok("Invoice Date", 10, 60),
		tok("Posted 3/15/2024", 60, 60),
		tok("Delivery Charge", 10, 70),
		tok("$12.50", 60, 70),
	})

	fields := NewFieldLocator(ix, 2).Locate()
	if fields.InvoiceDate != "Posted 3/15/2024" {
		t.Errorf("invoice date: got %q", fields.InvoiceDate)
	}
	if fields.DeliveryAmount != "$12.50" {
		t.Errorf("delivery amount: got %q", fields.DeliveryAmount)
	}
}

func TestLocateColumns(t *testing.T) {
	ix := tokenindex.New([]models.PositionedToken{
		tok("NARDA #", 50, 90),
		tok("DESCRIPTION", 150, 90),
		tok("Total", 320, 90),
	})

	cols := LocateColumns(ix, config.Default().Columns)
	if !cols.Usable() {
		t.Fatal("expected usable column set")
	}
	if cols.CodeX != 50 || cols.AmountX != 320 || cols.DescX != 150 {
		t.Errorf("column positions: got (%v, %v, %v)", cols.CodeX, cols.AmountX, cols.DescX)
	}
}

func TestLocateColumns_CodeHeaderPrefix(t *testing.T) {
	ix := tokenindex.New([]models.PositionedToken{
		tok("NARDA#/CODE", 45, 90),
		tok("TOTAL", 320, 90),
	})

	cols := LocateColumns(ix, config.Default().Columns)
	if !cols.HasCode || cols.CodeX != 45 {
		t.Errorf("prefixed code header not found: %+v", cols)
	}
}

func TestLocateColumns_MissingAmountColumn(t *testing.T) {
	ix := tokenindex.New([]models.PositionedToken{
		tok("NARDA", 50, 90),
		tok("DESCRIPTION", 150, 90),
	})

	cols := LocateColumns(ix, config.Default().Columns)
	if cols.Usable() {
		t.Error("column set without amount header must not be usable")
	}
}

func TestLocateColumns_FirstMatchWins(t *testing.T) {
	ix := tokenindex.New([]models.PositionedToken{
		tok("TOTAL", 320, 90),
		tok("TOTAL", 400, 90), // summary header further right; ignored
		tok("NARDA", 50, 90),
	})

	cols := LocateColumns(ix, config.Default().Columns)
	if cols.AmountX != 320 {
		t.Errorf("amount column: got %v, want 320", cols.AmountX)
	}
}
