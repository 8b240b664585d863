// Package categorize assigns category identifiers to parsed transactions
// from keyword rules over the normalized description. The rule tables are
// immutable after construction; matching uses a single Aho-Corasick pass so
// cost is independent of the number of keywords.
//
// Category identifiers live in a small integer namespace owned by the
// category-management subsystem; the defaults here must be kept in sync
// with it by configuration.
package categorize

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/shopspring/decimal"
)

// Config carries the category-id mapping and the self-transfer allowlist.
// Self-name fragments identify transfers between the user's own accounts
// and are deployment configuration, never library constants.
type Config struct {
	IncomeID       int
	BillsID        int
	ETransferID    int
	SelfTransferID int
	// SelfNameFragments are uppercase-insensitive substrings of the
	// account holder's own name(s) as they appear on e-transfer lines.
	SelfNameFragments []string
	// HintCategories maps the extractor's coarse location hints
	// (restaurants, grocery, gas, ...) to category ids. Unmapped hints are
	// left for manual categorization.
	HintCategories map[string]int
}

// DefaultConfig returns the id assignments used by the stock category
// seed data: Income=1, Bills=13, Interac E-Transfer=27, E-Transfer Self=28.
func DefaultConfig() Config {
	return Config{
		IncomeID:       1,
		BillsID:        13,
		ETransferID:    27,
		SelfTransferID: 28,
	}
}

// keyword kinds, in match priority order.
const (
	kindETransfer = iota
	kindSelfTransfer
	kindSelfName
	kindBills
	kindIncome
)

type keywordEntry struct {
	pattern string
	kind    int
}

var baseKeywords = []keywordEntry{
	{"E-TRANSFER", kindETransfer},
	{"ETRANSFER", kindETransfer},
	{"INTERAC TRANSFER", kindETransfer},
	// Internet transfers move money between the user's own accounts.
	{"INTERNET TRANSFER", kindSelfTransfer},

	{"SERVICE CHARGE", kindBills},
	{"MONTHLY FEE", kindBills},
	{"ACCOUNT FEE", kindBills},
	{"BILL PAYMENT", kindBills},
	{"BILL PMT", kindBills},
	{"BILL PYMT", kindBills},
	{"UTILITY", kindBills},
	{"HYDRO", kindBills},
	{"FIDO", kindBills},
	{"ROGERS", kindBills},
	{"BELL CANADA", kindBills},
	{"TELUS", kindBills},
	{"KOODO", kindBills},
	{"INSURANCE", kindBills},

	{"PAYROLL", kindIncome},
	{"PAY DEPOSIT", kindIncome},
	{"SALARY", kindIncome},
	{"DIRECT DEPOSIT", kindIncome},
}

// Categorizer matches descriptions against the keyword tables. Safe for
// concurrent use once built.
type Categorizer struct {
	cfg     Config
	matcher *ahocorasick.Matcher
	entries []keywordEntry
}

// New builds a categorizer from the configuration.
func New(cfg Config) *Categorizer {
	entries := make([]keywordEntry, 0, len(baseKeywords)+len(cfg.SelfNameFragments))
	entries = append(entries, baseKeywords...)
	for _, frag := range cfg.SelfNameFragments {
		frag = strings.ToUpper(strings.TrimSpace(frag))
		if frag != "" {
			entries = append(entries, keywordEntry{frag, kindSelfName})
		}
	}

	patterns := make([][]byte, len(entries))
	for i, e := range entries {
		patterns[i] = []byte(e.pattern)
	}

	return &Categorizer{
		cfg:     cfg,
		matcher: ahocorasick.NewMatcher(patterns),
		entries: entries,
	}
}

// Categorize returns the category id for a description, or false when no
// rule matches. The signed amount is available to rules but unused by the
// current tables; it is part of the contract so sign-sensitive rules can be
// added without changing callers.
func (c *Categorizer) Categorize(description string, amount decimal.Decimal) (int, bool) {
	_ = amount

	upper := strings.ToUpper(description)
	hits := c.matcher.Match([]byte(upper))

	var etransfer, self, bills, income bool
	for _, idx := range hits {
		switch c.entries[idx].kind {
		case kindETransfer:
			etransfer = true
		case kindSelfTransfer:
			etransfer = true
			self = true
		case kindSelfName:
			self = true
		case kindBills:
			bills = true
		case kindIncome:
			income = true
		}
	}

	switch {
	case etransfer && self:
		return c.cfg.SelfTransferID, true
	case etransfer:
		return c.cfg.ETransferID, true
	case bills:
		return c.cfg.BillsID, true
	case income:
		return c.cfg.IncomeID, true
	}
	return 0, false
}

// CategorizeHint maps a coarse extractor hint (restaurants, gas, ...) to a
// configured category id.
func (c *Categorizer) CategorizeHint(hint string) (int, bool) {
	id, ok := c.cfg.HintCategories[hint]
	return id, ok
}
