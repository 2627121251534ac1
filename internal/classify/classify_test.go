package classify

import (
	"testing"

	"github.com/creditops/warranty-credit-processor/internal/config"
	"github.com/creditops/warranty-credit-processor/internal/models"
)

func TestClassify(t *testing.T) {
	c, err := New(config.Default().Vocabulary)
	if err != nil {
		t.Fatalf("build classifier: %v", err)
	}

	tests := []struct {
		code string
		want models.Verdict
	}{
		{"CONCDA", models.VerdictVendorCredit},
		{"CONCDAM", models.VerdictVendorCredit},
		{"NF", models.VerdictVendorCredit},
		{"CORE", models.VerdictVendorCredit},
		{"CONCESSION", models.VerdictVendorCredit},
		{"concda", models.VerdictVendorCredit}, // case-insensitive
		{"J1683", models.VerdictJournalEntry},
		{"J168366", models.VerdictJournalEntry},
		{"INV8842", models.VerdictJournalEntry},
		{"SHORT", models.VerdictSkipShortShip},
		{"BOX", models.VerdictSkipShortShip},
		{"J168", models.VerdictSkipUnidentified},     // too few digits
		{"J1683667", models.VerdictSkipUnidentified}, // too many digits
		{"WIDGET", models.VerdictSkipUnidentified},
		{"", models.VerdictSkipUnidentified},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := c.Classify(tt.code); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c, err := New(config.Default().Vocabulary)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if got := c.Classify("J1683"); got != models.VerdictJournalEntry {
			t.Fatalf("pass %d: got %q", i, got)
		}
	}
}

func TestCustomVocabulary(t *testing.T) {
	v := config.Vocabulary{
		VendorCreditCodes: []string{"REFUND"},
		JournalPatterns:   []string{`^Q\d{3}$`},
		ShortShipCodes:    []string{"MISSING"},
	}
	c, err := New(v)
	if err != nil {
		t.Fatal(err)
	}

	if got := c.Classify("REFUND"); got != models.VerdictVendorCredit {
		t.Errorf("REFUND: got %q", got)
	}
	if got := c.Classify("Q123"); got != models.VerdictJournalEntry {
		t.Errorf("Q123: got %q", got)
	}
	if got := c.Classify("MISSING"); got != models.VerdictSkipShortShip {
		t.Errorf("MISSING: got %q", got)
	}
	if got := c.Classify("CONCDA"); got != models.VerdictSkipUnidentified {
		t.Errorf("CONCDA under custom vocabulary: got %q", got)
	}
}

func TestIsVendorCredit(t *testing.T) {
	c, err := New(config.Default().Vocabulary)
	if err != nil {
		t.Fatal(err)
	}
	if !c.IsVendorCredit("core") {
		t.Error("core should be vendor-credit")
	}
	if c.IsVendorCredit("J1683") {
		t.Error("J1683 is journal-entry, not vendor-credit")
	}
}
