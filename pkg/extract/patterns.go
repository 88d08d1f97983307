package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// RateMatch is a recognized conversion statement: one unit of Source equals
// Rate units of Target. Names are raw here; canonicalization happens in the
// normalizer.
type RateMatch struct {
	Source string
	Target string
	Rate   float64
}

// Textual grammar, tried in fixed priority order. Amounts accept "." or ","
// as the decimal separator; resource names are a leading letter followed by
// letters, spaces, and hyphens, which keeps numeric-only and symbol-laden
// text from misparsing.
const (
	amountExpr = `(\d+(?:[.,]\d+)?)`
	nameExpr   = `([a-z][a-z -]*?)`
)

// equalityPattern: "<a1> [x|×]? <source> (=|=>|→|to) <a2> <target>",
// e.g. "2 Gems = 300 Coins". Rate = a2/a1.
var equalityPattern = regexp.MustCompile(
	`(?i)^\s*` + amountExpr + `\s*(?:[x×]\s*)?` + nameExpr +
		`\s*(?:=>|=|→|\bto\b)\s*` + amountExpr + `\s*` + nameExpr + `\s*$`)

// ratioPattern: "<source> (to|→|->|:)\n<target> [:|-|space] <a1> [:|/] <a2>",
// spanning two lines joined by a literal line break, e.g.
// "Gems to\nCoins: 1:150". Rate = a2/a1.
var ratioPattern = regexp.MustCompile(
	`(?i)^\s*` + nameExpr + `\s*(?:to|→|->|:)\s*\n\s*` + nameExpr +
		`(?:\s*[:-]\s*|\s+)` + amountExpr + `\s*[:/]\s*` + amountExpr + `\s*$`)

type pattern struct {
	re *regexp.Regexp
	// build maps capture groups to a match; reports false when validation
	// fails (zero divisor, non-positive rate).
	build func(groups []string) (RateMatch, bool)
}

var patterns = []pattern{
	{
		re: equalityPattern,
		build: func(g []string) (RateMatch, bool) {
			return buildMatch(g[2], g[4], g[1], g[3])
		},
	},
	{
		re: ratioPattern,
		build: func(g []string) (RateMatch, bool) {
			return buildMatch(g[1], g[2], g[3], g[4])
		},
	},
}

// MatchLine tries each pattern against one candidate line and returns the
// first match that validates. Most lines match nothing; that is the normal
// case, not an error.
func MatchLine(line string) (RateMatch, bool) {
	for _, p := range patterns {
		groups := p.re.FindStringSubmatch(line)
		if groups == nil {
			continue
		}
		if m, ok := p.build(groups); ok {
			return m, true
		}
	}
	return RateMatch{}, false
}

func buildMatch(source, target, a1, a2 string) (RateMatch, bool) {
	from, err := parseAmount(a1)
	if err != nil {
		return RateMatch{}, false
	}
	to, err := parseAmount(a2)
	if err != nil {
		return RateMatch{}, false
	}
	if from == 0 {
		return RateMatch{}, false
	}
	rate := to / from
	if rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
		return RateMatch{}, false
	}
	return RateMatch{Source: source, Target: target, Rate: rate}, true
}

// parseAmount parses a numeric amount, normalizing a comma decimal
// separator to a point.
func parseAmount(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}
