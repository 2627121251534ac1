// Package ledger is the boundary to the accounting system. The pipeline
// only ever sees these interfaces; everything behind them is thin I/O.
package ledger

import (
	"context"
	"errors"

	"github.com/creditops/warranty-credit-processor/internal/models"
)

// ErrDuplicateTransaction is returned by a sink when the transaction id
// already exists downstream. Callers surface it as its own skip category,
// never conflated with other failures.
var ErrDuplicateTransaction = errors.New("transaction id already exists")

// AuthorizationSource looks up candidate authorization lines. The lookup
// is keyed by bill-number substring match against the stored bill
// reference text; result order is the order candidates were recorded,
// which the matcher preserves when trying parents.
type AuthorizationSource interface {
	CandidatesForBill(ctx context.Context, billNumber string) ([]models.AuthorizationLine, error)
}

// TransactionSink accepts posting intents.
type TransactionSink interface {
	Create(ctx context.Context, in models.TransactionIntent) error
}
