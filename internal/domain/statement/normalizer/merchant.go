// Package normalizer reduces raw, noisy statement descriptions to canonical
// merchant names. Cleanup is a pure, idempotent function over static rule
// tables: reference numbers, store codes, phone numbers, postal codes and
// trailing city/province suffixes are stripped, then known merchant
// prefixes are replaced with their canonical form.
package normalizer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// passthroughPhrases are banking-transaction-type prefixes that carry
// meaning on their own. Descriptions starting with one of these keep the
// phrase verbatim; only trailing reference numbers are stripped, so the
// generic merchant rules below cannot destroy them.
var passthroughPhrases = []string{
	"INTERNET TRANSFER",
	"E-TRANSFER",
	"PAYROLL DEPOSIT",
	"SERVICE CHARGE",
	"BILL PAYMENT",
	"TELEPHONE BILL PMT",
	"MISC PAYMENT",
	"PREAUTHORIZED DEBIT",
	"DEPOSIT",
}

// refNumberPattern strips reference numbers appearing after a passthrough
// phrase ("INTERNET TRANSFER 000000101667", "E-TRANSFER 011238461904 NAME").
var refNumberPattern = regexp.MustCompile(`\s+\d{6,}\b`)

var cleanupPatterns = []*regexp.Regexp{
	// Parking-lot codes glued to the operator name (IMPARK00120172H).
	regexp.MustCompile(`(?i)\b(IMPARK)\s*\d+[A-Z]*`),
	// Store/location numbers after '#', including glued location suffixes
	// (WALMART SUPERCENTER#1007KITCHENER).
	regexp.MustCompile(`#\s*\d+[A-Za-z]*`),
	// Vendor trip/order codes.
	regexp.MustCompile(`(?i)\*\s*TRIP\s*[\w-]*`),
	regexp.MustCompile(`(?i)\bORDER\s+\w*\d\w*$`),
	// Tagged reference codes.
	regexp.MustCompile(`(?i)\b(?:REF|AUTH|TRANS)[.:#]?\s+[\w-]+$`),
	// Phone numbers.
	regexp.MustCompile(`\b\d{3}[-.\s]\d{3}[-.\s]\d{4}\b`),
	// Canadian postal codes.
	regexp.MustCompile(`\b[A-Za-z]\d[A-Za-z]\s?\d[A-Za-z]\d\b`),
	// Parenthesized location codes.
	regexp.MustCompile(`\([^)]*\)`),
}

var provincePattern = `(?:AB|BC|MB|NB|NL|NS|NT|NU|ON|PE|QC|SK|YT)`

// cities is the fixed list of Canadian city names stripped from merchant
// tails. Not exhaustive; extended as statements surface new ones.
var cities = []string{
	"TORONTO", "MISSISSAUGA", "KITCHENER", "WATERLOO", "OTTAWA", "HAMILTON",
	"LONDON", "GUELPH", "CAMBRIDGE", "BRAMPTON", "MARKHAM", "SCARBOROUGH",
	"VANCOUVER", "CALGARY", "EDMONTON", "WINNIPEG", "HALIFAX", "MONTREAL",
	"QUEBEC", "VICTORIA", "SASKATOON", "REGINA", "BURLINGTON", "OAKVILLE",
}

var (
	trailingDigitsPattern   = regexp.MustCompile(`\s+\d{4,}$`)
	trailingCityPattern     = regexp.MustCompile(`(?i)\s+(?:` + strings.Join(cities, "|") + `)(?:\s+` + provincePattern + `)?$`)
	trailingProvincePattern = regexp.MustCompile(`\s+` + provincePattern + `$`)
)

// canonicalMerchants maps known merchant prefixes to canonical names.
// Checked longest-prefix-first so specific entries ("COSTCO GAS") win over
// general ones ("COSTCO").
var canonicalMerchants = map[string]string{
	"COSTCO GASOLINE": "COSTCO GAS",
	"COSTCO FUEL":     "COSTCO GAS",
	"COSTCO GAS":      "COSTCO GAS",
	"COSTCO":          "COSTCO",
	"PRESTO AUTO":     "PRESTO AUTO",
	"PRESTO FARE":     "PRESTO",
	"PETRO-CANADA":    "PETRO CANADA",
	"PETRO CANADA":    "PETRO CANADA",
	"PIONEER":         "PIONEER",
	"ESSO":            "ESSO",
	"SHELL":           "SHELL",
	"ULTRAMAR":        "ULTRAMAR",
	"HUSKY":           "HUSKY",
	"IMPARK":          "IMPARK",
	"TIM HORTONS":     "TIM HORTONS",
	"MCDONALDS":       "MCDONALDS",
	"MCDONALD'S":      "MCDONALDS",
	"LCBO":            "LCBO",
	"NO FRILLS":       "NO FRILLS",
	"LOBLAWS":         "LOBLAWS",
}

// canonicalPrefixes is canonicalMerchants' keys sorted longest-first,
// computed once at init.
var canonicalPrefixes = func() []string {
	keys := make([]string, 0, len(canonicalMerchants))
	for k := range canonicalMerchants {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// Clean normalizes a raw statement description to a merchant name.
// Deterministic, side-effect free, and idempotent: Clean(Clean(x)) == Clean(x).
func Clean(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}

	upper := strings.ToUpper(name)
	for _, phrase := range passthroughPhrases {
		if strings.HasPrefix(upper, phrase) {
			return collapse(refNumberPattern.ReplaceAllString(name, ""))
		}
	}

	for _, re := range cleanupPatterns {
		name = re.ReplaceAllString(name, "$1")
	}

	// Trailing tokens can stack (refs, then city, then province), so sweep
	// until the tail is stable.
	for {
		prev := name
		name = trailingDigitsPattern.ReplaceAllString(name, "")
		name = trailingCityPattern.ReplaceAllString(name, "")
		name = trailingProvincePattern.ReplaceAllString(name, "")
		name = strings.TrimRight(name, " -#*,.;:")
		if name == prev {
			break
		}
	}

	name = collapse(name)
	if canonical, ok := lookupCanonical(name); ok {
		return canonical
	}
	return name
}

func lookupCanonical(name string) (string, bool) {
	upper := strings.ToUpper(name)
	for _, prefix := range canonicalPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return canonicalMerchants[prefix], true
		}
	}
	return "", false
}

// Suggest proposes a canonical merchant for a cleaned name that no prefix
// matched, using fuzzy ranking. Meant for review flows, never applied
// automatically: Clean stays deterministic.
func Suggest(name string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if upper == "" {
		return "", false
	}

	best := ""
	bestRank := -1
	for _, prefix := range canonicalPrefixes {
		rank := fuzzy.RankMatchNormalizedFold(prefix, upper)
		if rank < 0 {
			continue
		}
		if bestRank == -1 || rank < bestRank {
			bestRank = rank
			best = canonicalMerchants[prefix]
		}
	}
	// Wide edits are noise, not matches.
	if bestRank < 0 || bestRank > 2 {
		return "", false
	}
	return best, true
}

func collapse(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimRight(s, " -#*,.;:")
}
