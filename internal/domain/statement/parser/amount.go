package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountPattern matches a locale-formatted statement amount, optionally
// prefixed with a dollar sign: "45.67", "$2,345.22", "1,125.40".
var amountPattern = regexp.MustCompile(`\$?\d{1,3}(?:,\d{3})*\.\d{2}`)

// parseAmount converts a statement amount token to an exact decimal
// magnitude. Thousands separators and currency symbols are stripped; sign
// markers are handled by the direction resolver, never here.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Abs(), nil
}

// trailingAmounts returns the positions of every amount token in line and
// reports whether the final token sits at the end of the line. Chequing
// units are recognized by two trailing amounts: transaction amount followed
// by the running balance.
func trailingAmounts(line string) (tokens []string, descEnd int, trailing bool) {
	locs := amountPattern.FindAllStringIndex(line, -1)
	if len(locs) == 0 {
		return nil, len(line), false
	}

	for _, loc := range locs {
		tokens = append(tokens, line[loc[0]:loc[1]])
	}

	// A lone "-" after the final amount is RBC's debit marker, not body text.
	last := locs[len(locs)-1]
	rest := strings.TrimSpace(line[last[1]:])
	trailing = rest == "" || rest == "-"

	descEnd = locs[0][0]
	if len(locs) >= 2 {
		descEnd = locs[len(locs)-2][0]
	}
	return tokens, descEnd, trailing
}
