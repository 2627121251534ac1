package lineitem

import (
	"regexp"
	"strings"
)

// billMatcher matches one prefixed digit group. The digit run is captured
// greedily and length-validated afterwards so that over-long runs are
// discarded instead of silently truncated.
type billMatcher struct {
	prefix string
	re     *regexp.Regexp
}

func compileBillMatchers(prefixes []string) []billMatcher {
	out := make([]billMatcher, 0, len(prefixes))
	for _, p := range prefixes {
		out = append(out, billMatcher{
			prefix: p,
			re:     regexp.MustCompile(regexp.QuoteMeta(p) + `\s?(\d+)`),
		})
	}
	return out
}

// FindBillNumber searches combined description text for an original bill
// number: a 7-10 digit group prefixed by one of the configured prefixes,
// tried in strict priority order (HN before W before N). Within one prefix
// class the last occurrence wins. Returns the digit sequence only, or ""
// when nothing valid is present.
func (p *Patterns) FindBillNumber(text string) string {
	upper := strings.ToUpper(text)
	for _, m := range p.bills {
		var last string
		for _, hit := range m.re.FindAllStringSubmatch(upper, -1) {
			digits := hit[1]
			if len(digits) < 7 || len(digits) > 10 {
				continue
			}
			last = digits
		}
		if last != "" {
			return last
		}
	}
	return ""
}
