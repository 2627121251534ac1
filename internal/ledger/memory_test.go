package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/creditops/warranty-credit-processor/internal/models"
)

func TestMemoryLedger_CandidatesForBill(t *testing.T) {
	m := NewMemoryLedger()
	m.AddAuthorization("RA for HN1234567", models.AuthorizationLine{ParentID: "P1", LineNumber: 1, Amount: decimal.RequireFromString("45.00")})
	m.AddAuthorization("RA for HN1234567", models.AuthorizationLine{ParentID: "P2", LineNumber: 1, Amount: decimal.RequireFromString("45.00")})
	m.AddAuthorization("RA for W9999999", models.AuthorizationLine{ParentID: "P3", LineNumber: 1, Amount: decimal.RequireFromString("10.00")})

	got, err := m.CandidatesForBill(context.Background(), "1234567")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("candidates: got %d, want 2", len(got))
	}
	if got[0].ParentID != "P1" || got[1].ParentID != "P2" {
		t.Errorf("recorded order not preserved: %+v", got)
	}

	got, _ = m.CandidatesForBill(context.Background(), "")
	if got != nil {
		t.Error("empty bill number must return nothing")
	}
}

func TestMemoryLedger_DuplicateCreate(t *testing.T) {
	m := NewMemoryLedger()
	in := models.TransactionIntent{TranID: "67891234 CM", Kind: models.IntentJournalEntry}

	if err := m.Create(context.Background(), in); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := m.Create(context.Background(), in)
	if !errors.Is(err, ErrDuplicateTransaction) {
		t.Errorf("second create: got %v, want ErrDuplicateTransaction", err)
	}

	if _, ok := m.Created("67891234 CM"); !ok {
		t.Error("created intent not retrievable")
	}
}
