package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creditops/warranty-credit-processor/internal/models"
)

// PostgresLedger implements the ledger boundary against the accounting
// staging schema. Expected tables:
//
//	authorization_lines(id serial, bill_reference text, parent_id text,
//	    line_number int, amount numeric, item_identity text, status_text text)
//	transaction_intents(tran_id text primary key, kind text, tran_date text,
//	    memo text, payload jsonb)
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresLedger connects a ledger to an existing pool.
func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

// Connect opens a pool from a database URL and wraps it.
func Connect(ctx context.Context, url string) (*PostgresLedger, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect ledger database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping ledger database: %w", err)
	}
	return &PostgresLedger{pool: pool}, nil
}

// Close releases the underlying pool.
func (p *PostgresLedger) Close() {
	p.pool.Close()
}

// CandidatesForBill fetches candidate lines by bill-reference substring,
// in insertion order so the matcher tries older authorizations first.
func (p *PostgresLedger) CandidatesForBill(ctx context.Context, billNumber string) ([]models.AuthorizationLine, error) {
	if billNumber == "" {
		return nil, nil
	}

	rows, err := p.pool.Query(ctx, `
		SELECT parent_id, line_number, amount, COALESCE(item_identity, ''), COALESCE(status_text, '')
		FROM authorization_lines
		WHERE bill_reference LIKE '%' || $1 || '%'
		ORDER BY id`, billNumber)
	if err != nil {
		return nil, fmt.Errorf("query authorization lines for %q: %w", billNumber, err)
	}
	defer rows.Close()

	var out []models.AuthorizationLine
	for rows.Next() {
		var line models.AuthorizationLine
		if err := rows.Scan(&line.ParentID, &line.LineNumber, &line.Amount, &line.ItemIdentity, &line.StatusText); err != nil {
			return nil, fmt.Errorf("scan authorization line: %w", err)
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

// Create inserts an intent. A primary-key collision on tran_id maps to
// ErrDuplicateTransaction so callers can report it as its own category.
func (p *PostgresLedger) Create(ctx context.Context, in models.TransactionIntent) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode intent %q: %w", in.TranID, err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO transaction_intents (tran_id, kind, tran_date, memo, payload)
		VALUES ($1, $2, $3, $4, $5)`,
		in.TranID, string(in.Kind), in.Date, in.Memo, payload)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateTransaction
		}
		return fmt.Errorf("insert intent %q: %w", in.TranID, err)
	}
	return nil
}
