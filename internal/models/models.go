package models

import "github.com/shopspring/decimal"

// PositionedToken is one text fragment from a rendered invoice page,
// located by its horizontal and vertical coordinate. Tokens carry no
// ordering guarantee; every lookup is by coordinate or content.
type PositionedToken struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// DocumentFields holds the document-level scalars located by label-anchored
// scanning. Each field is independently optional; an empty string means the
// label or a valid value was not found, which is not an error.
type DocumentFields struct {
	InvoiceNumber  string `json:"invoiceNumber,omitempty"`
	InvoiceDate    string `json:"invoiceDate,omitempty"`
	DeliveryAmount string `json:"deliveryAmount,omitempty"`
}

// LineItem is one credit line reconstructed from a table row.
// RowY is the row's vertical position and serves as the row identity
// for deduplication.
type LineItem struct {
	Code               string  `json:"code"`
	Amount             string  `json:"amount"` // signed currency text as printed
	OriginalBillNumber string  `json:"originalBillNumber,omitempty"`
	RowY               float64 `json:"rowY"`
	// ItemIdentity is the part identity carried by CSV-sourced items;
	// empty for items extracted from a token stream.
	ItemIdentity string `json:"itemIdentity,omitempty"`
}

// AbsAmount parses the printed amount text and returns its absolute value.
// Unparseable text yields (zero, false); callers skip such items rather
// than failing the document.
func (li LineItem) AbsAmount() (decimal.Decimal, bool) {
	d, err := ParseMoney(li.Amount)
	if err != nil {
		return decimal.Zero, false
	}
	return d.Abs(), true
}

// CodeGroup aggregates all line items sharing one NARDA code.
type CodeGroup struct {
	Code        string          `json:"code"`
	Items       []LineItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"` // sum of absolute amounts
	BillNumbers []string        `json:"billNumbers"` // deduplicated, first-seen order
}

// BillNumberGroup aggregates vendor-credit line items across codes that
// reference the same original bill number. It layers on top of CodeGroup;
// both groupings reference the same underlying items.
type BillNumberGroup struct {
	BillNumber  string          `json:"billNumber"`
	Items       []LineItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Codes       []string        `json:"codes"` // contributing codes, first-seen order
}

// Verdict classifies a code group into a transaction-creation strategy.
type Verdict string

const (
	VerdictJournalEntry     Verdict = "journal-entry"
	VerdictVendorCredit     Verdict = "vendor-credit"
	VerdictSkipShortShip    Verdict = "skip-short-ship"
	VerdictSkipUnidentified Verdict = "skip-unidentified"
)

// AuthorizationLine is one externally sourced candidate record line used to
// validate and source a vendor credit. ParentID identifies the authorization
// record the line belongs to.
type AuthorizationLine struct {
	ParentID     string          `json:"parentId"`
	LineNumber   int             `json:"lineNumber"`
	Amount       decimal.Decimal `json:"amount"`
	ItemIdentity string          `json:"itemIdentity,omitempty"`
	StatusText   string          `json:"statusText,omitempty"`
}

// MatchedPair links one extracted line item to the authorization line that
// sourced it. An authorization line appears in at most one pair per
// matching attempt.
type MatchedPair struct {
	Item LineItem          `json:"item"`
	Auth AuthorizationLine `json:"auth"`
}

// NoMatchReason distinguishes the ways a reconciliation can come up empty.
type NoMatchReason string

const (
	// NoMatchNoOverlap: no candidate parent produced even one pair.
	NoMatchNoOverlap NoMatchReason = "no-overlap"
	// NoMatchTotalMismatch: at least one parent paired some lines but the
	// matched total never agreed with the expected total.
	NoMatchTotalMismatch NoMatchReason = "total-mismatch"
)

// ParentAttempt records what happened against one candidate authorization
// parent during reconciliation.
type ParentAttempt struct {
	ParentID     string          `json:"parentId"`
	Pairs        int             `json:"pairs"`
	MatchedTotal decimal.Decimal `json:"matchedTotal"`
	Discrepancy  decimal.Decimal `json:"discrepancy"` // expected − matched
	Accepted     bool            `json:"accepted"`
}

// ReconcileOutcome is the result of matching one bill-number group against
// all of its candidate authorization parents.
type ReconcileOutcome struct {
	Matched       bool            `json:"matched"`
	ParentID      string          `json:"parentId,omitempty"`
	Pairs         []MatchedPair   `json:"pairs,omitempty"`
	MatchedTotal  decimal.Decimal `json:"matchedTotal"`
	ExpectedTotal decimal.Decimal `json:"expectedTotal"`
	Reason        NoMatchReason   `json:"reason,omitempty"`
	Attempts      []ParentAttempt `json:"attempts,omitempty"`
}

// IntentKind is the shape of a transaction intent.
type IntentKind string

const (
	IntentJournalEntry IntentKind = "journal-entry"
	IntentVendorCredit IntentKind = "vendor-credit"
)

// IntentLine is one debit or credit line on a transaction intent.
type IntentLine struct {
	Side   string          `json:"side"` // "debit" or "credit"
	Code   string          `json:"code,omitempty"`
	Amount decimal.Decimal `json:"amount"`
}

// TransactionIntent is the downstream posting request produced by the
// pipeline. Journal entries derive their id as invoiceNumber+" CM";
// vendor credits use the invoice number unchanged.
type TransactionIntent struct {
	Kind         IntentKind    `json:"kind"`
	TranID       string        `json:"tranId"`
	Date         string        `json:"date,omitempty"`
	Memo         string        `json:"memo"`
	Lines        []IntentLine  `json:"lines,omitempty"`
	MatchedPairs []MatchedPair `json:"matchedPairs,omitempty"`
	AuthParentID string        `json:"authParentId,omitempty"`
}

// Skip categories reported alongside intents.
const (
	SkipCategoryShortShip    = "short-ship"
	SkipCategoryUnidentified = "unidentified"
	SkipCategoryNoMatch      = "no-match"
	SkipCategoryMismatch     = "total-mismatch"
	SkipCategoryDuplicate    = "duplicate-transaction"
	SkipCategoryError        = "processing-error"
)

// SkipRecord explains why a code or bill-number group did not become a
// transaction intent.
type SkipRecord struct {
	Code       string `json:"code,omitempty"`
	BillNumber string `json:"billNumber,omitempty"`
	Category   string `json:"category"`
	Reason     string `json:"reason"`
}

// CreditRow is one record from a vendor return/credit CSV or XLSX file,
// the CSV-sourced variant of the invoice token stream.
type CreditRow struct {
	OrderNo     string `json:"orderNo"`
	NardaNumber string `json:"nardaNumber"`
	Part        string `json:"part"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Quantity    string `json:"quantity"`
	Total       string `json:"total"`
	DateOrdered string `json:"dateOrdered"`
}

// DocumentResult is the complete outcome for one processed document.
// A document always produces a result, possibly all-skip.
type DocumentResult struct {
	DocumentID string              `json:"documentId"`
	Fields     DocumentFields      `json:"fields"`
	Items      []LineItem          `json:"items"`
	Intents    []TransactionIntent `json:"intents"`
	Skips      []SkipRecord        `json:"skips"`
}
