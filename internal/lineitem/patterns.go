// Package lineitem reconstructs credit line items from the spatial token
// index: one item per table row, keyed by a NARDA code that may be split
// across two physical lines, with the row's amount and the original bill
// number cross-referenced from the description cell.
package lineitem

import (
	"regexp"
	"strings"

	"github.com/creditops/warranty-credit-processor/internal/config"
)

// Patterns is the compiled code vocabulary for one invoice family.
type Patterns struct {
	complete     []*regexp.Regexp
	continuation []*regexp.Regexp
	embedded     *regexp.Regexp
	bills        []billMatcher
}

// CompilePatterns builds the matcher set from configuration. The embedded
// regex covers every known code prefix for the description-cell fallback.
func CompilePatterns(v config.Vocabulary) (*Patterns, error) {
	p := &Patterns{bills: compileBillMatchers(v.BillNumberPrefixes)}

	for _, expr := range v.CompleteCodes {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, err
		}
		p.complete = append(p.complete, re)
	}
	for _, expr := range v.ContinuationCodes {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, err
		}
		p.continuation = append(p.continuation, re)
	}

	// Combined alternation like (CONCDA\w*|CONCES\w*|INV\d+|...) searched
	// inside free text. Prefixes that are whole words get \w* so partial
	// renders like CONCDAM still hit.
	alts := make([]string, 0, len(v.DescriptionPrefix))
	for _, pre := range v.DescriptionPrefix {
		switch pre {
		case "INV", "J":
			alts = append(alts, regexp.QuoteMeta(pre)+`\d+`)
		default:
			alts = append(alts, regexp.QuoteMeta(pre)+`\w*`)
		}
	}
	re, err := regexp.Compile(`(` + strings.Join(alts, "|") + `)`)
	if err != nil {
		return nil, err
	}
	p.embedded = re

	return p, nil
}

// NormalizeCode uppercases a candidate code and repairs the known render
// artifacts of this invoice family (tripled S in CONCESSION).
func NormalizeCode(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "CONCESSSION", "CONCESSION")
	return s
}

// MatchesComplete reports whether s (already normalized) is a complete,
// postable code value.
func (p *Patterns) MatchesComplete(s string) bool {
	for _, re := range p.complete {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// MatchesContinuation reports whether s could be the first half of a code
// split across two physical lines.
func (p *Patterns) MatchesContinuation(s string) bool {
	for _, re := range p.continuation {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// LastEmbedded finds the last code substring embedded in free text, or ""
// when none is present. Taking the last occurrence matches the observed
// behavior of the source documents; it is a policy choice, not a proven
// invariant.
func (p *Patterns) LastEmbedded(text string) string {
	matches := p.embedded.FindAllString(strings.ToUpper(text), -1)
	if len(matches) == 0 {
		return ""
	}
	return NormalizeCode(matches[len(matches)-1])
}
