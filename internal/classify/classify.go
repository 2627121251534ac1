// Package classify assigns each NARDA code to a transaction-creation
// strategy. The classifier is a pure function of its vocabulary; the same
// code always yields the same verdict.
package classify

import (
	"regexp"
	"strings"

	"github.com/creditops/warranty-credit-processor/internal/config"
	"github.com/creditops/warranty-credit-processor/internal/models"
)

// Classifier evaluates codes against an immutable vocabulary. Rule order
// is fixed: vendor-credit check, then journal patterns, then short-ship,
// then unidentified.
type Classifier struct {
	vendorCredit map[string]bool
	journal      []*regexp.Regexp
	shortShip    map[string]bool
}

// New compiles a classifier from the vocabulary configuration.
func New(v config.Vocabulary) (*Classifier, error) {
	c := &Classifier{
		vendorCredit: make(map[string]bool, len(v.VendorCreditCodes)),
		shortShip:    make(map[string]bool, len(v.ShortShipCodes)),
	}
	for _, code := range v.VendorCreditCodes {
		c.vendorCredit[strings.ToUpper(code)] = true
	}
	for _, code := range v.ShortShipCodes {
		c.shortShip[strings.ToUpper(code)] = true
	}
	for _, expr := range v.JournalPatterns {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, err
		}
		c.journal = append(c.journal, re)
	}
	return c, nil
}

// Classify maps a code to exactly one verdict. Unknown codes land on
// SkipUnidentified.
func (c *Classifier) Classify(code string) models.Verdict {
	upper := strings.ToUpper(strings.TrimSpace(code))

	if c.vendorCredit[upper] {
		return models.VerdictVendorCredit
	}
	for _, re := range c.journal {
		if re.MatchString(upper) {
			return models.VerdictJournalEntry
		}
	}
	if c.shortShip[upper] {
		return models.VerdictSkipShortShip
	}
	return models.VerdictSkipUnidentified
}

// IsVendorCredit reports whether the code belongs to the vendor-credit
// vocabulary; the grouping engine uses this to decide which codes join
// bill-number groups.
func (c *Classifier) IsVendorCredit(code string) bool {
	return c.vendorCredit[strings.ToUpper(strings.TrimSpace(code))]
}
