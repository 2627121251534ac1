// Package tokenindex holds the spatial token index: the flat, read-only
// collection of positioned text fragments that every extraction step
// queries by coordinate.
//
// Coordinates are screen-oriented: y grows downward, so "next line" means
// a larger y. The extractor is responsible for flipping PDF-space
// coordinates before tokens get here.
package tokenindex

import (
	"math"
	"strings"

	"github.com/creditops/warranty-credit-processor/internal/models"
)

// Index is an immutable, order-preserving collection of tokens for a
// single document. It is safe for concurrent reads.
type Index struct {
	tokens []models.PositionedToken
}

// New normalizes the raw token stream: whitespace-trimmed text, empty
// fragments dropped. Input order is preserved; no sorting is assumed
// anywhere downstream.
func New(raw []models.PositionedToken) *Index {
	tokens := make([]models.PositionedToken, 0, len(raw))
	for _, t := range raw {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		tokens = append(tokens, models.PositionedToken{Text: text, X: t.X, Y: t.Y})
	}
	return &Index{tokens: tokens}
}

// All returns every token in original order. Callers must not mutate the
// returned slice.
func (ix *Index) All() []models.PositionedToken {
	return ix.tokens
}

// Len returns the number of tokens in the index.
func (ix *Index) Len() int {
	return len(ix.tokens)
}

// SameRow returns all tokens whose y is within tol of y, in index order.
// Tokens exactly tol apart are on different rows.
func (ix *Index) SameRow(y, tol float64) []models.PositionedToken {
	var out []models.PositionedToken
	for _, t := range ix.tokens {
		if math.Abs(t.Y-y) < tol {
			out = append(out, t)
		}
	}
	return out
}

// InColumn returns all tokens whose x is within band of columnX, in
// index order.
func (ix *Index) InColumn(columnX, band float64) []models.PositionedToken {
	var out []models.PositionedToken
	for _, t := range ix.tokens {
		if math.Abs(t.X-columnX) < band {
			out = append(out, t)
		}
	}
	return out
}

// NearestBelow finds the token closest below (columnX, y): same column
// band, strictly greater y, and no more than maxDY below. Reports false
// when no token qualifies.
func (ix *Index) NearestBelow(columnX, y, band, maxDY float64) (models.PositionedToken, bool) {
	var best models.PositionedToken
	bestDY := math.Inf(1)
	found := false
	for _, t := range ix.tokens {
		if math.Abs(t.X-columnX) >= band {
			continue
		}
		dy := t.Y - y
		if dy <= 0 || dy > maxDY {
			continue
		}
		if dy < bestDY {
			best = t
			bestDY = dy
			found = true
		}
	}
	return best, found
}

// RowText joins the text of all tokens on the row at y (within tol),
// ordered left to right, separated by single spaces.
func (ix *Index) RowText(y, tol float64) string {
	row := ix.SameRow(y, tol)
	if len(row) == 0 {
		return ""
	}
	// insertion sort by x; rows are short
	for i := 1; i < len(row); i++ {
		for j := i; j > 0 && row[j].X < row[j-1].X; j-- {
			row[j], row[j-1] = row[j-1], row[j]
		}
	}
	parts := make([]string, len(row))
	for i, t := range row {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}
