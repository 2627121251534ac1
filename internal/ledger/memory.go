package ledger

import (
	"context"
	"strings"
	"sync"

	"github.com/creditops/warranty-credit-processor/internal/models"
)

// MemoryLedger is an in-process AuthorizationSource and TransactionSink
// used for tests and dry runs.
type MemoryLedger struct {
	mu      sync.Mutex
	entries []memoryEntry
	created map[string]models.TransactionIntent
}

type memoryEntry struct {
	billRef string
	line    models.AuthorizationLine
}

// NewMemoryLedger returns an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{created: make(map[string]models.TransactionIntent)}
}

// AddAuthorization records one candidate line under the given bill
// reference text.
func (m *MemoryLedger) AddAuthorization(billRef string, line models.AuthorizationLine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, memoryEntry{billRef: billRef, line: line})
}

// CandidatesForBill returns every line whose bill reference contains the
// bill number, in recorded order.
func (m *MemoryLedger) CandidatesForBill(_ context.Context, billNumber string) ([]models.AuthorizationLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if billNumber == "" {
		return nil, nil
	}
	var out []models.AuthorizationLine
	for _, e := range m.entries {
		if strings.Contains(e.billRef, billNumber) {
			out = append(out, e.line)
		}
	}
	return out, nil
}

// Create stores an intent, refusing duplicate transaction ids.
func (m *MemoryLedger) Create(_ context.Context, in models.TransactionIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.created[in.TranID]; exists {
		return ErrDuplicateTransaction
	}
	m.created[in.TranID] = in
	return nil
}

// Created returns the intent stored under id, if any.
func (m *MemoryLedger) Created(id string) (models.TransactionIntent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.created[id]
	return in, ok
}
