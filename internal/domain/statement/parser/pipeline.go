package parser

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mapleledger/mapleledger/internal/domain/statement/categorize"
	"github.com/mapleledger/mapleledger/internal/domain/statement/normalizer"
)

// maxDescriptionLen caps the cleaned description on output records.
const maxDescriptionLen = 200

// Transaction is the canonical record emitted by the pipeline. Immutable
// once emitted; ownership passes to the persistence layer.
type Transaction struct {
	Date time.Time
	// DateConfident is false when the date came from the default-date
	// fallback and should be flagged for manual review.
	DateConfident bool
	Description   string
	// Amount is signed: negative for debits/expenses, positive for
	// credits/deposits.
	Amount      decimal.Decimal
	Bank        Bank
	AccountType AccountType
	CategoryID  *int
	// CategoryHint is the coarse label pulled from a credit statement's
	// location column when no keyword rule produced a category id.
	CategoryHint string
}

// Pipeline runs the full text-to-transactions conversion: detect, tokenize,
// extract, sign, clean, categorize. A pipeline instance holds only
// immutable rule tables and an injected clock, so one instance may serve
// concurrent statements; within a statement, processing is strictly
// sequential because date context and balance series carry across lines.
type Pipeline struct {
	now         func() time.Time
	resolver    *Resolver
	categorizer *categorize.Categorizer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock injects the reference clock used for implied statement years
// and the default-date fallback. Tests pin it for determinism.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithResolver replaces the default direction rule chain.
func WithResolver(r *Resolver) Option {
	return func(p *Pipeline) { p.resolver = r }
}

// WithCategorizer replaces the default categorizer.
func WithCategorizer(c *categorize.Categorizer) Option {
	return func(p *Pipeline) { p.categorizer = c }
}

// NewPipeline builds a pipeline with default rule tables.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		now:         time.Now,
		resolver:    NewResolver(ResolverConfig{}),
		categorizer: categorize.New(categorize.DefaultConfig()),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse converts statement text into an ordered sequence of canonical
// transactions. It never fails: noise lines are dropped and an empty result
// is a valid outcome the caller decides how to treat.
func (p *Pipeline) Parse(text string) []Transaction {
	profile := Detect(text)
	ref := p.now()
	lines := strings.Split(text, "\n")

	if profile.Bank == BankUnknown {
		return p.parseUnknown(lines, profile, ref)
	}
	if profile.AccountType == AccountCredit {
		return p.parseCredit(tokenizeCredit(lines), profile, lines, ref)
	}
	return p.parseChecking(tokenizeChecking(lines, ref), profile, lines, ref)
}

func (p *Pipeline) parseCredit(units []RawUnit, profile Profile, lines []string, ref time.Time) []Transaction {
	candidates := layoutFor(profile.Bank)

	var txns []Transaction
	var prevBal decimal.Decimal
	var hasPrev bool

	for _, unit := range units {
		var field Field
		matched := false
		for _, l := range candidates {
			if f, ok := extractCredit(unit, l, ref); ok {
				field = f
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		// Some issuers print a running balance on credit statements too;
		// chain it so the delta rule can use it.
		if field.HasBalance {
			field.PrevBalance, field.HasPrev = prevBal, hasPrev
			prevBal, hasPrev = field.Balance, true
		}

		if tx, ok := p.finalize(&field, profile, AccountCredit, lines, unit.Line); ok {
			txns = append(txns, tx)
		}
	}
	return txns
}

func (p *Pipeline) parseChecking(units []RawUnit, profile Profile, lines []string, ref time.Time) []Transaction {
	var txns []Transaction
	for _, unit := range units {
		field, ok := extractChecking(unit, profile.Bank)
		if !ok {
			continue
		}
		if tx, ok := p.finalize(&field, profile, AccountChecking, lines, unit.Line); ok {
			txns = append(txns, tx)
		}
	}
	return txns
}

// parseUnknown handles statements whose bank could not be identified: every
// credit layout is attempted per line, and if none of them yields anything
// the text is re-scanned as a chequing statement.
func (p *Pipeline) parseUnknown(lines []string, profile Profile, ref time.Time) []Transaction {
	txns := p.parseCredit(tokenizeCredit(lines), profile, lines, ref)
	if len(txns) > 0 {
		return txns
	}
	return p.parseChecking(tokenizeChecking(lines, ref), profile, lines, ref)
}

// finalize runs the back half of the pipeline on one extracted field:
// direction, merchant cleanup, categorization, invariant checks.
func (p *Pipeline) finalize(f *Field, profile Profile, accountType AccountType, lines []string, lineNo int) (Transaction, bool) {
	signed := p.resolver.Resolve(f, profile, neighborWindow(lines, lineNo))

	desc := normalizer.Clean(f.Description)
	if desc == "" {
		desc = strings.TrimSpace(f.Description)
	}
	if desc == "" {
		return Transaction{}, false
	}
	if len(desc) > maxDescriptionLen {
		desc = desc[:maxDescriptionLen]
	}

	bank := profile.Bank
	if bank == BankUnknown && f.Bank != "" {
		bank = f.Bank
	}
	if profile.AccountType != AccountUnknown {
		accountType = profile.AccountType
	}

	tx := Transaction{
		Date:          f.Date,
		DateConfident: f.DateConfident,
		Description:   desc,
		Amount:        signed,
		Bank:          bank,
		AccountType:   accountType,
		CategoryHint:  f.CategoryHint,
	}

	if id, ok := p.categorizer.Categorize(desc, signed); ok {
		tx.CategoryID = &id
	} else if f.CategoryHint != "" {
		if id, ok := p.categorizer.CategorizeHint(f.CategoryHint); ok {
			tx.CategoryID = &id
		}
	}
	return tx, true
}

// neighborWindow returns the statement lines around lineNo for the
// reference-number heuristic.
func neighborWindow(lines []string, lineNo int) []string {
	lo := lineNo - 2
	if lo < 0 {
		lo = 0
	}
	hi := lineNo + 3
	if hi > len(lines) {
		hi = len(lines)
	}
	return lines[lo:hi]
}
