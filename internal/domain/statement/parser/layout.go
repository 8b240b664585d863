package parser

import "regexp"

// layout is the declarative per-bank configuration consumed by the generic
// credit-card line extractor: how the bank prints dates, and whether the
// printed day/month carries an implied year. Keeping the per-bank variation
// in data rather than per-bank functions is what lets one engine serve
// every family.
type layout struct {
	bank Bank
	// dateRe matches the bank's transaction-date token at the start of a line.
	dateRe *regexp.Regexp
	// yearImplied is true for month-day dates ("Jan 15") that need the
	// reference year injected.
	yearImplied bool
}

var (
	monthDayDateRe = regexp.MustCompile(`^([A-Za-z]{3}\.?\s*\d{1,2})\s+`)
	slashYMDDateRe = regexp.MustCompile(`^(\d{4}/\d{1,2}/\d{1,2})\s+`)
	slashDMYDateRe = regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{4})\s+`)
)

// layouts lists the bank families with a dedicated credit-line format.
// BMO, Scotiabank and Tangerine statements are recognized by the detector
// but have no dedicated layout; they go through the fallback that tries
// every entry here in order.
var layouts = []layout{
	{bank: BankCIBC, dateRe: monthDayDateRe, yearImplied: true},
	{bank: BankRBC, dateRe: slashYMDDateRe},
	{bank: BankAMEX, dateRe: monthDayDateRe, yearImplied: true},
	{bank: BankTD, dateRe: slashDMYDateRe},
}

// layoutFor returns the layouts to try for a profile: the bank's own layout
// when it has one, otherwise all of them in declaration order.
func layoutFor(bank Bank) []layout {
	for _, l := range layouts {
		if l.bank == bank {
			return []layout{l}
		}
	}
	return layouts
}
