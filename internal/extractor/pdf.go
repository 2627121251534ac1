// Package extractor turns invoice PDFs into positioned token streams.
// Tokens carry page coordinates in screen orientation: y grows downward
// and pages are stacked vertically, so downstream spatial lookups never
// need to know about page boundaries.
package extractor

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/creditops/warranty-credit-processor/internal/models"
)

// Text runs closer than this on the same row belong to the same token.
// Wider gaps are column separators.
const mergeGapX = 8.0

// Runs within this vertical distance sit on the same visual row.
const rowSnapY = 2.0

// Vertical padding inserted between stacked pages.
const pageGapY = 20.0

// ExtractTokens reads every page of a PDF and returns one token stream.
func ExtractTokens(filePath string) (tokens []models.PositionedToken, err error) {
	// The pdf library panics on malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library crashed on %q: %v", filePath, r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open pdf %q: %w", filePath, err)
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("pdf %q has no pages", filePath)
	}

	var yOffset float64
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageTokens, pageHeight := tokensFromRuns(page.Content().Text, yOffset)
		tokens = append(tokens, pageTokens...)
		yOffset += pageHeight + pageGapY
	}

	if !looksLikeInvoice(tokens) {
		return nil, fmt.Errorf("no readable invoice text in %q; the file may be scanned or use undecodable font encodings", filePath)
	}
	return tokens, nil
}

// tokensFromRuns converts one page worth of text runs. PDF y grows
// upward from the page bottom, so the page is flipped before the offset
// for previous pages is added. Runs on the same row separated by less
// than mergeGapX merge into a single token. Returns the tokens and the
// height consumed by this page.
func tokensFromRuns(runs []pdf.Text, yOffset float64) ([]models.PositionedToken, float64) {
	type run struct {
		x, y, endX float64
		s          string
	}

	var items []run
	maxY := 0.0
	for _, t := range runs {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		if t.Y > maxY {
			maxY = t.Y
		}
		items = append(items, run{x: t.X, y: t.Y, endX: t.X + t.W, s: t.S})
	}
	if len(items) == 0 {
		return nil, 0
	}

	// Flip to screen orientation before grouping.
	for i := range items {
		items[i].y = maxY - items[i].y
	}
	sort.Slice(items, func(a, b int) bool {
		if math.Abs(items[a].y-items[b].y) >= rowSnapY {
			return items[a].y < items[b].y
		}
		return items[a].x < items[b].x
	})

	var tokens []models.PositionedToken
	cur := items[0]
	flush := func() {
		if s := strings.TrimSpace(cur.s); s != "" {
			tokens = append(tokens, models.PositionedToken{Text: s, X: cur.x, Y: cur.y + yOffset})
		}
	}
	for _, it := range items[1:] {
		sameRow := math.Abs(it.y-cur.y) < rowSnapY
		if sameRow && it.x-cur.endX < mergeGapX {
			if it.x > cur.endX+0.5 {
				cur.s += " "
			}
			cur.s += it.s
			if it.endX > cur.endX {
				cur.endX = it.endX
			}
			continue
		}
		flush()
		cur = it
	}
	flush()

	return tokens, maxY
}

// Words expected somewhere on any vendor credit invoice. A stream with
// none of them is treated as extraction garbage rather than passed on.
var invoiceWords = []string{
	"invoice", "total", "amount", "description", "date", "credit",
	"narda", "number", "page", "warranty", "qty", "part",
}

func looksLikeInvoice(tokens []models.PositionedToken) bool {
	if len(tokens) == 0 {
		return false
	}
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(strings.ToLower(t.Text))
		b.WriteByte(' ')
	}
	combined := b.String()
	for _, w := range invoiceWords {
		if strings.Contains(combined, w) {
			return true
		}
	}
	return false
}
