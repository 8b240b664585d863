package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Field is the intermediate record pulled out of a RawUnit before the
// direction resolver assigns a sign. Amount and Balance are unsigned
// magnitudes.
type Field struct {
	Date          time.Time
	DateConfident bool
	Description   string // cleaned-up transaction text
	Raw           string // full original unit text, kept for keyword heuristics
	Amount        decimal.Decimal
	Balance       decimal.Decimal
	HasBalance    bool
	PrevBalance   decimal.Decimal
	HasPrev       bool
	// ExplicitNegative is set when the statement itself prints a minus
	// marker against the amount (RBC chequing does this).
	ExplicitNegative bool
	// Payment marks a credit-card payment line, which is never an expense.
	Payment      bool
	CategoryHint string
	Bank         Bank // bank whose layout produced this field
}

var provinceCodes = map[string]bool{
	"AB": true, "BC": true, "MB": true, "NB": true, "NL": true, "NS": true,
	"NT": true, "NU": true, "ON": true, "PE": true, "QC": true, "SK": true,
	"YT": true,
}

// categoryHints maps location-segment keywords to the coarse labels a
// credit statement's merchant column implies. The labels are mapped to real
// category ids by the categorizer's configuration, not here.
var categoryHints = []struct {
	label    string
	keywords []string
}{
	{"restaurants", []string{"RESTAURANT", "PIZZA", "CAFE", "COFFEE", "BAR ", "DINER", "SHAWARMA", "SUSHI"}},
	{"transportation", []string{"UBER", "TAXI", "TRANSIT", "PARKING", "PRESTO"}},
	{"grocery", []string{"GROCERY", "SUPERMARKET", "FOODS", "MARKET", "SUPERCENTER"}},
	{"entertainment", []string{"CINEMA", "THEATRE", "MOVIE", "NETFLIX", "SPOTIFY"}},
	{"gas", []string{"GAS", "PETRO", "ESSO", "SHELL", "FUEL"}},
}

var multiSpaceSplit = regexp.MustCompile(`\s{2,}`)

// extractCredit parses a credit-card statement line of the shape
//
//	<trans_date> [<processing_date>] <merchant and location> <amount> [<balance>]
//
// using the given bank layout. Returns false for noise lines.
func extractCredit(unit RawUnit, l layout, ref time.Time) (Field, bool) {
	line := unit.Text

	m := l.dateRe.FindStringSubmatch(line)
	if m == nil {
		return Field{}, false
	}
	date, err := ParseDate(strings.TrimSpace(m[1]), ref.Year())
	if err != nil {
		return Field{}, false
	}
	body := line[len(m[0]):]

	// Credit statements print a transaction date and a processing date; the
	// second one is discarded. Only consume it when it really is a date, so
	// merchant text that happens to resemble the pattern survives.
	if m2 := l.dateRe.FindStringSubmatch(body); m2 != nil {
		if _, err := ParseDate(strings.TrimSpace(m2[1]), ref.Year()); err == nil {
			body = body[len(m2[0]):]
		}
	}

	tokens, _, trailing := trailingAmounts(body)
	if len(tokens) == 0 || !trailing {
		return Field{}, false
	}

	// First amount is the transaction; a further trailing amount is the
	// running balance column some issuers include.
	amount, err := parseAmount(tokens[0])
	if err != nil {
		return Field{}, false
	}

	firstLoc := amountPattern.FindStringIndex(body)
	desc := strings.TrimSpace(body[:firstLoc[0]])
	if desc == "" {
		return Field{}, false
	}

	f := Field{
		Date:          date,
		DateConfident: true,
		Raw:           line,
		Amount:        amount,
		Bank:          l.bank,
	}

	if len(tokens) >= 2 {
		if bal, err := parseAmount(tokens[len(tokens)-1]); err == nil {
			f.Balance = bal
			f.HasBalance = true
		}
	}

	if strings.Contains(strings.ToUpper(desc), "PAYMENT") {
		f.Payment = true
		f.Description = "PAYMENT"
		return f, true
	}

	merchant, location := splitMerchantLocation(desc)
	f.Description = merchant
	f.CategoryHint = hintForLocation(location, merchant)
	return f, true
}

// splitMerchantLocation partitions a credit line's free text into merchant
// and location segments. Columnar statements separate the two with runs of
// spaces; when the PDF extraction collapsed those, fall back to partitioning
// around a two-letter province code, then to the first three words.
func splitMerchantLocation(desc string) (merchant, location string) {
	parts := multiSpaceSplit.Split(desc, -1)
	if len(parts) >= 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(strings.Join(parts[1:], " "))
	}

	words := strings.Fields(desc)
	for i, w := range words {
		if i > 0 && provinceCodes[strings.ToUpper(w)] {
			return strings.Join(words[:i], " "), strings.Join(words[i:], " ")
		}
	}

	if len(words) > 3 {
		return strings.Join(words[:3], " "), strings.Join(words[3:], " ")
	}
	return desc, ""
}

func hintForLocation(location, merchant string) string {
	haystack := strings.ToUpper(location + " " + merchant)
	for _, h := range categoryHints {
		for _, kw := range h.keywords {
			if strings.Contains(haystack, kw) {
				return h.label
			}
		}
	}
	return ""
}

// extractChecking turns a tokenized chequing unit into a field. The
// tokenizer has already isolated the amount tokens; the last is the running
// balance and the second-to-last the transaction amount.
func extractChecking(unit RawUnit, bank Bank) (Field, bool) {
	if len(unit.Amounts) == 0 {
		return Field{}, false
	}

	f := Field{
		Date:          unit.Date,
		DateConfident: unit.DateConfident,
		Raw:           unit.Text,
		Bank:          bank,
	}

	amountTok := unit.Amounts[len(unit.Amounts)-1]
	if len(unit.Amounts) >= 2 {
		amountTok = unit.Amounts[len(unit.Amounts)-2]
		bal, err := parseAmount(unit.Amounts[len(unit.Amounts)-1])
		if err != nil {
			return Field{}, false
		}
		f.Balance = bal
		f.HasBalance = true
	}

	amount, err := parseAmount(amountTok)
	if err != nil {
		return Field{}, false
	}
	f.Amount = amount

	if unit.PrevBalance != "" {
		if prev, err := parseAmount(unit.PrevBalance); err == nil {
			f.PrevBalance = prev
			f.HasPrev = true
		}
	}

	f.ExplicitNegative = unit.Negative
	desc := cleanCheckingDescription(unit.Text)
	if desc == "" {
		return Field{}, false
	}
	f.Description = desc
	return f, true
}

// cleanCheckingDescription strips the placeholder noise chequing statements
// embed in the description column.
func cleanCheckingDescription(desc string) string {
	desc = strings.ReplaceAll(desc, "N/A", " ")
	desc = strings.TrimRight(desc, ".;:- ")
	desc = strings.Join(strings.Fields(desc), " ")
	return strings.TrimSpace(desc)
}
