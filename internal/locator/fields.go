// Package locator finds document-level scalar fields and table column
// positions in the spatial token index. Everything here is label-anchored:
// a known label token is found first, then values are resolved relative to
// its position.
package locator

import (
	"regexp"
	"strings"

	"github.com/creditops/warranty-credit-processor/internal/models"
	"github.com/creditops/warranty-credit-processor/internal/tokenindex"
)

// Value format predicates for the supported invoice family.
var (
	invoiceNumberPattern  = regexp.MustCompile(`^[67]\d{7}$`)
	invoiceDatePattern    = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)
	deliveryAmountPattern = regexp.MustCompile(`\$\d+\.\d{2}`)
)

// fieldSpec describes how one scalar field is located: which label tokens
// anchor it and which format its value must satisfy.
type fieldSpec struct {
	containsLabels []string // lowercased label hit if token text contains one
	exactLabels    []string // lowercased label hit if token text equals one
	pattern        *regexp.Regexp
}

var fieldSpecs = map[string]fieldSpec{
	"invoiceNumber": {
		containsLabels: []string{"invoice number"},
		exactLabels:    []string{"invoice:", "invoice #"},
		pattern:        invoiceNumberPattern,
	},
	"invoiceDate": {
		containsLabels: []string{"invoice date"},
		exactLabels:    []string{"date:"},
		pattern:        invoiceDatePattern,
	},
	"deliveryAmount": {
		containsLabels: []string{"delivery"},
		pattern:        deliveryAmountPattern,
	},
}

// FieldLocator extracts document-level scalars by scanning for label
// tokens and accepting the first same-row value to their right that
// satisfies the field's format. A field that cannot be located stays
// empty; that is a valid outcome, not an error.
type FieldLocator struct {
	index     *tokenindex.Index
	rowAlignY float64
}

// NewFieldLocator builds a locator over the given index. rowAlignY is the
// same-row tolerance (two tokens are same-row when |y1-y2| < rowAlignY).
func NewFieldLocator(ix *tokenindex.Index, rowAlignY float64) *FieldLocator {
	return &FieldLocator{index: ix, rowAlignY: rowAlignY}
}

// Locate resolves all document fields.
func (fl *FieldLocator) Locate() models.DocumentFields {
	return models.DocumentFields{
		InvoiceNumber:  fl.locate(fieldSpecs["invoiceNumber"]),
		InvoiceDate:    fl.locate(fieldSpecs["invoiceDate"]),
		DeliveryAmount: fl.locate(fieldSpecs["deliveryAmount"]),
	}
}

// locate tries every label occurrence in token order until one yields an
// accepted value. For a given label hit the candidate value must sit on
// the same row, strictly to the right, and match the field pattern; the
// first such token wins.
func (fl *FieldLocator) locate(spec fieldSpec) string {
	for _, label := range fl.index.All() {
		if !matchesLabel(label.Text, spec) {
			continue
		}
		for _, cand := range fl.index.SameRow(label.Y, fl.rowAlignY) {
			if cand.X <= label.X {
				continue
			}
			if spec.pattern.MatchString(cand.Text) {
				return cand.Text
			}
		}
	}
	return ""
}

func matchesLabel(text string, spec fieldSpec) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, l := range spec.containsLabels {
		if strings.Contains(lower, l) {
			return true
		}
	}
	for _, l := range spec.exactLabels {
		if lower == l {
			return true
		}
	}
	return false
}
