// Package pipeline runs the extraction-classification-reconciliation
// sequence for one document at a time. Stages run strictly in order and
// share nothing across documents; a document always yields a result,
// possibly all-skip, and never aborts the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/creditops/warranty-credit-processor/internal/classify"
	"github.com/creditops/warranty-credit-processor/internal/config"
	"github.com/creditops/warranty-credit-processor/internal/grouping"
	"github.com/creditops/warranty-credit-processor/internal/intent"
	"github.com/creditops/warranty-credit-processor/internal/ledger"
	"github.com/creditops/warranty-credit-processor/internal/lineitem"
	"github.com/creditops/warranty-credit-processor/internal/locator"
	"github.com/creditops/warranty-credit-processor/internal/models"
	"github.com/creditops/warranty-credit-processor/internal/reconcile"
	"github.com/creditops/warranty-credit-processor/internal/tokenindex"
)

// Pipeline holds the compiled configuration and the ledger boundary.
// It is safe to reuse across documents.
type Pipeline struct {
	cfg        *config.Config
	pats       *lineitem.Patterns
	classifier *classify.Classifier
	matcher    *reconcile.Matcher
	auth       ledger.AuthorizationSource
	sink       ledger.TransactionSink
}

// New compiles vocabularies and tolerances once for the whole batch.
func New(cfg *config.Config, auth ledger.AuthorizationSource, sink ledger.TransactionSink) (*Pipeline, error) {
	pats, err := lineitem.CompilePatterns(cfg.Vocabulary)
	if err != nil {
		return nil, fmt.Errorf("compile code patterns: %w", err)
	}
	classifier, err := classify.New(cfg.Vocabulary)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}
	tol, err := decimal.NewFromString(cfg.Tolerances.Amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount tolerance %q: %w", cfg.Tolerances.Amount, err)
	}

	return &Pipeline{
		cfg:        cfg,
		pats:       pats,
		classifier: classifier,
		matcher:    reconcile.NewMatcher(tol),
		auth:       auth,
		sink:       sink,
	}, nil
}

// ProcessTokens runs the full pipeline over a document's token stream.
func (p *Pipeline) ProcessTokens(ctx context.Context, docID string, tokens []models.PositionedToken) *models.DocumentResult {
	ix := tokenindex.New(tokens)
	tol := p.cfg.Tolerances

	fields := locator.NewFieldLocator(ix, tol.RowAlignY).Locate()
	cols := locator.LocateColumns(ix, p.cfg.Columns)
	items := lineitem.NewExtractor(ix, cols, tol, p.pats).Extract()

	return p.run(ctx, docID, fields, items, reconcile.ByAmount)
}

// ProcessCreditRows runs the CSV-sourced variant. Row identity matching
// replaces amount matching, and the document id stands in for the invoice
// number when deriving transaction ids.
func (p *Pipeline) ProcessCreditRows(ctx context.Context, docID string, rows []models.CreditRow) *models.DocumentResult {
	fields := models.DocumentFields{InvoiceNumber: docID}
	items := make([]models.LineItem, 0, len(rows))
	for i, row := range rows {
		if fields.InvoiceDate == "" && row.DateOrdered != "" {
			fields.InvoiceDate = row.DateOrdered
		}
		items = append(items, models.LineItem{
			Code:               lineitem.NormalizeCode(row.NardaNumber),
			Amount:             row.Total,
			OriginalBillNumber: p.billNumberFromRow(row),
			ItemIdentity:       row.Part,
			RowY:               float64(i),
		})
	}

	return p.run(ctx, docID, fields, items, reconcile.ByIdentity)
}

// billNumberFromRow mirrors the description search of the token variant:
// the description text first, then the order number when it is itself a
// plain 7-10 digit reference.
func (p *Pipeline) billNumberFromRow(row models.CreditRow) string {
	if bill := p.pats.FindBillNumber(row.Description); bill != "" {
		return bill
	}
	if n := len(row.OrderNo); n >= 7 && n <= 10 && allDigits(row.OrderNo) {
		return row.OrderNo
	}
	return ""
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// run is the shared back half: grouping, classification, journal intent,
// and per-bill-number reconciliation.
func (p *Pipeline) run(ctx context.Context, docID string, fields models.DocumentFields, items []models.LineItem, strategy reconcile.Strategy) *models.DocumentResult {
	result := &models.DocumentResult{
		DocumentID: docID,
		Fields:     fields,
		Items:      items,
	}

	codeGroups := grouping.BuildCodeGroups(items)

	var journalGroups []*models.CodeGroup
	for _, g := range codeGroups {
		switch p.classifier.Classify(g.Code) {
		case models.VerdictJournalEntry:
			journalGroups = append(journalGroups, g)
		case models.VerdictSkipShortShip:
			result.Skips = append(result.Skips, models.SkipRecord{
				Code:     g.Code,
				Category: models.SkipCategoryShortShip,
				Reason:   fmt.Sprintf("short-ship code %s is handled outside credit posting", g.Code),
			})
		case models.VerdictSkipUnidentified:
			result.Skips = append(result.Skips, models.SkipRecord{
				Code:     g.Code,
				Category: models.SkipCategoryUnidentified,
				Reason:   fmt.Sprintf("code %s is not in the posting vocabulary", g.Code),
			})
		}
	}

	if in, ok := intent.BuildJournalIntent(fields, journalGroups); ok {
		p.post(ctx, result, in, "", journalGroups[0].Code)
	}

	billGroups := grouping.BuildBillNumberGroups(codeGroups, p.classifier.IsVendorCredit)
	for _, bg := range billGroups {
		p.reconcileBillGroup(ctx, result, fields, bg, strategy)
	}

	return result
}

// reconcileBillGroup handles one bill-number group end to end. A panic
// anywhere inside is converted to a skip for this group only.
func (p *Pipeline) reconcileBillGroup(ctx context.Context, result *models.DocumentResult, fields models.DocumentFields, bg *models.BillNumberGroup, strategy reconcile.Strategy) {
	defer func() {
		if r := recover(); r != nil {
			result.Skips = append(result.Skips, models.SkipRecord{
				BillNumber: bg.BillNumber,
				Category:   models.SkipCategoryError,
				Reason:     fmt.Sprintf("bill %s: %v", bg.BillNumber, r),
			})
		}
	}()

	candidates, err := p.auth.CandidatesForBill(ctx, bg.BillNumber)
	if err != nil {
		result.Skips = append(result.Skips, models.SkipRecord{
			BillNumber: bg.BillNumber,
			Category:   models.SkipCategoryError,
			Reason:     fmt.Sprintf("authorization lookup for bill %s: %v", bg.BillNumber, err),
		})
		return
	}

	outcome := p.matcher.Match(bg.Items, bg.TotalAmount, candidates, strategy)
	if !outcome.Matched {
		result.Skips = append(result.Skips, intent.SkipForOutcome(bg, outcome))
		return
	}

	p.post(ctx, result, intent.BuildVendorCreditIntent(fields, bg, outcome), bg.BillNumber, "")
}

// post hands an intent to the sink. Duplicate ids become their own skip
// category; any other sink failure becomes a processing-error skip. The
// intent is recorded on the result either way except on hard failure.
func (p *Pipeline) post(ctx context.Context, result *models.DocumentResult, in models.TransactionIntent, billNumber, code string) {
	err := p.sink.Create(ctx, in)
	switch {
	case err == nil:
		result.Intents = append(result.Intents, in)
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		result.Skips = append(result.Skips, models.SkipRecord{
			Code:       code,
			BillNumber: billNumber,
			Category:   models.SkipCategoryDuplicate,
			Reason:     fmt.Sprintf("transaction %s already exists", in.TranID),
		})
	default:
		result.Skips = append(result.Skips, models.SkipRecord{
			Code:       code,
			BillNumber: billNumber,
			Category:   models.SkipCategoryError,
			Reason:     fmt.Sprintf("create transaction %s: %v", in.TranID, err),
		})
	}
}
