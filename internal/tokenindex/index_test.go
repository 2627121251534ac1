package tokenindex

import (
	"testing"

	"github.com/creditops/warranty-credit-processor/internal/models"
)

func tok(text string, x, y float64) models.PositionedToken {
	return models.PositionedToken{Text: text, X: x, Y: y}
}

func TestNewDropsEmptyTokens(t *testing.T) {
	ix := New([]models.PositionedToken{
		tok("  ", 10, 10),
		tok("INVOICE", 20, 10),
		tok("", 30, 10),
		tok("  67123456 ", 40, 10),
	})

	if ix.Len() != 2 {
		t.Fatalf("len: got %d, want 2", ix.Len())
	}
	if ix.All()[1].Text != "67123456" {
		t.Errorf("text not trimmed: got %q", ix.All()[1].Text)
	}
}

func TestSameRowTolerance(t *testing.T) {
	ix := New([]models.PositionedToken{
		tok("a", 10, 50.0),
		tok("b", 200, 51.9), // within 2 units
		tok("c", 10, 52.0),  // exactly 2 units away: different row
		tok("d", 10, 48.1),
	})

	row := ix.SameRow(50.0, 2.0)
	if len(row) != 3 {
		t.Fatalf("same-row count: got %d, want 3", len(row))
	}
	for _, r := range row {
		if r.Text == "c" {
			t.Error("token exactly 2 units away must not be same-row")
		}
	}
}

func TestInColumn(t *testing.T) {
	ix := New([]models.PositionedToken{
		tok("in1", 50, 100),
		tok("in2", 54.9, 200),
		tok("edge", 55, 300), // exactly 5 off: outside the band
		tok("far", 120, 100),
	})

	col := ix.InColumn(50, 5)
	if len(col) != 2 {
		t.Fatalf("column count: got %d, want 2", len(col))
	}
}

func TestNearestBelow(t *testing.T) {
	ix := New([]models.PositionedToken{
		tok("same", 50, 100),   // not strictly below
		tok("near", 50, 108),   // 8 below
		tok("nearer", 51, 103), // 3 below: the winner
		tok("toofar", 50, 116), // 16 below: out of range
		tok("othercol", 80, 103),
	})

	got, ok := ix.NearestBelow(50, 100, 5, 15)
	if !ok {
		t.Fatal("expected a token below")
	}
	if got.Text != "nearer" {
		t.Errorf("nearest below: got %q, want %q", got.Text, "nearer")
	}
}

func TestNearestBelowNone(t *testing.T) {
	ix := New([]models.PositionedToken{
		tok("above", 50, 90),
		tok("same", 50, 100),
	})

	if _, ok := ix.NearestBelow(50, 100, 5, 15); ok {
		t.Error("expected no token below")
	}
}

func TestRowText(t *testing.T) {
	ix := New([]models.PositionedToken{
		tok("credit", 120, 200),
		tok("HN1234567", 240, 200.5),
		tok("warranty", 60, 199.5),
		tok("elsewhere", 60, 250),
	})

	got := ix.RowText(200, 2.0)
	want := "warranty credit HN1234567"
	if got != want {
		t.Errorf("row text: got %q, want %q", got, want)
	}
}
