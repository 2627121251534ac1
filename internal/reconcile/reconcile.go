// Package reconcile pairs extracted line items against externally sourced
// authorization-record lines. A single bill number can have several
// historical authorization records, some already consumed by earlier runs,
// so the matcher tries each candidate parent in turn instead of giving up
// after the first.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/creditops/warranty-credit-processor/internal/models"
)

// Strategy selects how an item is paired to an authorization line.
type Strategy int

const (
	// ByAmount pairs on absolute amount within the matcher tolerance.
	// This is the PDF-sourced variant.
	ByAmount Strategy = iota
	// ByIdentity pairs on item identity (part number). This is the
	// CSV-sourced variant.
	ByIdentity
)

// Matcher reconciles one bill-number group per call. It carries only the
// money tolerance and is safe to share.
type Matcher struct {
	tolerance decimal.Decimal
}

// NewMatcher builds a matcher with the given money tolerance.
func NewMatcher(tolerance decimal.Decimal) *Matcher {
	return &Matcher{tolerance: tolerance}
}

// Match attempts to pair every line item against one candidate parent's
// lines, one-to-one, no candidate reused within an attempt. Parents are
// tried in the order candidates were supplied. A parent that pairs nothing
// is skipped; a parent whose matched total disagrees with expected is
// recorded and skipped; the first parent that pairs at least one line and
// lands on the expected total wins. Exhausting all parents yields a typed
// no-match outcome, never an error.
func (m *Matcher) Match(items []models.LineItem, expected decimal.Decimal, candidates []models.AuthorizationLine, strategy Strategy) models.ReconcileOutcome {
	outcome := models.ReconcileOutcome{ExpectedTotal: expected}

	sawPairs := false
	for _, parent := range partitionByParent(candidates) {
		pairs, matchedTotal := m.attempt(items, parent.lines, strategy)

		attempt := models.ParentAttempt{
			ParentID:     parent.id,
			Pairs:        len(pairs),
			MatchedTotal: matchedTotal,
			Discrepancy:  expected.Sub(matchedTotal),
		}

		if len(pairs) == 0 {
			outcome.Attempts = append(outcome.Attempts, attempt)
			continue
		}
		sawPairs = true

		if models.WithinTolerance(matchedTotal, expected, m.tolerance) {
			attempt.Accepted = true
			outcome.Attempts = append(outcome.Attempts, attempt)
			outcome.Matched = true
			outcome.ParentID = parent.id
			outcome.Pairs = pairs
			outcome.MatchedTotal = matchedTotal
			return outcome
		}

		// Validation failure for this parent only; keep trying.
		outcome.Attempts = append(outcome.Attempts, attempt)
	}

	if sawPairs {
		outcome.Reason = models.NoMatchTotalMismatch
	} else {
		outcome.Reason = models.NoMatchNoOverlap
	}
	return outcome
}

// attempt pairs items to unused lines of a single parent and returns the
// pairs with the aggregate matched amount.
func (m *Matcher) attempt(items []models.LineItem, lines []models.AuthorizationLine, strategy Strategy) ([]models.MatchedPair, decimal.Decimal) {
	used := make([]bool, len(lines))
	var pairs []models.MatchedPair
	total := decimal.Zero

	for _, item := range items {
		for i, line := range lines {
			if used[i] || !m.pairs(item, line, strategy) {
				continue
			}
			used[i] = true
			pairs = append(pairs, models.MatchedPair{Item: item, Auth: line})
			total = total.Add(line.Amount.Abs())
			break
		}
	}
	return pairs, total
}

func (m *Matcher) pairs(item models.LineItem, line models.AuthorizationLine, strategy Strategy) bool {
	switch strategy {
	case ByIdentity:
		return item.ItemIdentity != "" && item.ItemIdentity == line.ItemIdentity
	default:
		amt, ok := item.AbsAmount()
		if !ok {
			return false
		}
		return models.WithinTolerance(amt, line.Amount.Abs(), m.tolerance)
	}
}

type parentGroup struct {
	id    string
	lines []models.AuthorizationLine
}

// partitionByParent splits candidates by parent id, preserving both the
// order parents first appear and the order of lines within each parent.
func partitionByParent(candidates []models.AuthorizationLine) []parentGroup {
	index := make(map[string]int)
	var groups []parentGroup
	for _, c := range candidates {
		i, ok := index[c.ParentID]
		if !ok {
			i = len(groups)
			index[c.ParentID] = i
			groups = append(groups, parentGroup{id: c.ParentID})
		}
		groups[i].lines = append(groups[i].lines, c)
	}
	return groups
}
