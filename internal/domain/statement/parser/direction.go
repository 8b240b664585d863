package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Sign is a resolved transaction direction. SignNone means the rule did not
// match and the chain should continue.
type Sign int

const (
	SignNone   Sign = 0
	SignCredit Sign = 1  // money in
	SignDebit  Sign = -1 // money out
)

// SignContext carries everything a direction rule may inspect: the
// extracted field, the statement profile, and a window of neighboring
// statement lines for reference-number heuristics.
type SignContext struct {
	Field   *Field
	Profile Profile
	Window  []string
}

// SignRule is one heuristic in the direction chain. Rules are ordered;
// the first non-SignNone answer wins.
type SignRule interface {
	Name() string
	Resolve(ctx SignContext) Sign
}

// ReferencePrefixes describes a bank's e-transfer reference-number families.
// Statements tag incoming and outgoing Interac transfers with reference
// numbers whose leading digits differ; the families are layout-specific and
// inherently heuristic.
type ReferencePrefixes struct {
	Incoming []string
	Outgoing []string
}

// ResolverConfig holds the configurable inputs of the direction chain.
// Personal names are weak priors for transfer direction and belong in
// deployment configuration, never in code.
type ResolverConfig struct {
	IncomingNames     []string
	OutgoingNames     []string
	ReferencePrefixes map[Bank]ReferencePrefixes
}

// DefaultReferencePrefixes covers the reference families observed on CIBC
// chequing statements. Other banks omit the reference column entirely.
func DefaultReferencePrefixes() map[Bank]ReferencePrefixes {
	return map[Bank]ReferencePrefixes{
		BankCIBC: {Incoming: []string{"011"}, Outgoing: []string{"010"}},
	}
}

// Resolver applies an ordered chain of direction heuristics. The default
// chain is: statement markers, category keywords, balance delta, e-transfer
// references, known names, and finally a debit default. Balance delta sits
// ahead of the reference and name heuristics because a balance series is
// the only signal that is reliable when present.
type Resolver struct {
	rules []SignRule
}

// NewResolver builds a resolver with the default rule chain.
func NewResolver(cfg ResolverConfig) *Resolver {
	prefixes := cfg.ReferencePrefixes
	if prefixes == nil {
		prefixes = DefaultReferencePrefixes()
	}
	return &Resolver{rules: []SignRule{
		markerRule{},
		keywordRule{},
		balanceDeltaRule{},
		referenceRule{prefixes: prefixes},
		knownNameRule{incoming: upperAll(cfg.IncomingNames), outgoing: upperAll(cfg.OutgoingNames)},
		defaultRule{},
	}}
}

// NewResolverWithRules builds a resolver from an explicit chain, letting
// callers disable or reorder individual heuristics.
func NewResolverWithRules(rules ...SignRule) *Resolver {
	return &Resolver{rules: rules}
}

// Resolve returns the signed transaction amount for a field.
func (r *Resolver) Resolve(f *Field, profile Profile, window []string) decimal.Decimal {
	ctx := SignContext{Field: f, Profile: profile, Window: window}
	for _, rule := range r.rules {
		switch rule.Resolve(ctx) {
		case SignCredit:
			return f.Amount
		case SignDebit:
			return f.Amount.Neg()
		}
	}
	// Unreachable with the default chain; kept for custom chains without a
	// terminal rule.
	return f.Amount.Neg()
}

// markerRule honors explicit markers printed by the statement itself: a
// minus against the amount, or a credit-card payment line.
type markerRule struct{}

func (markerRule) Name() string { return "marker" }

func (markerRule) Resolve(ctx SignContext) Sign {
	if ctx.Field.ExplicitNegative {
		return SignDebit
	}
	if ctx.Field.Payment {
		return SignCredit
	}
	return SignNone
}

var creditKeywords = []string{"DEPOSIT", "TPS/GST", "GST REFUND", "REFUND"}

var debitKeywords = []string{
	"PURCHASE", "FEE", "WITHDRAWAL", "SERVICE CHARGE",
	"PREAUTHORIZED DEBIT", "INTERNET TRANSFER",
}

// keywordRule signs a transaction from explicit banking vocabulary in the
// unit text.
type keywordRule struct{}

func (keywordRule) Name() string { return "keyword" }

func (keywordRule) Resolve(ctx SignContext) Sign {
	upper := strings.ToUpper(ctx.Field.Raw)
	if containsAny(upper, creditKeywords) {
		return SignCredit
	}
	if containsAny(upper, debitKeywords) {
		return SignDebit
	}
	return SignNone
}

// balanceDeltaRule infers direction from the running-balance series on
// chequing statements: balance up means money in.
type balanceDeltaRule struct{}

func (balanceDeltaRule) Name() string { return "balance-delta" }

func (balanceDeltaRule) Resolve(ctx SignContext) Sign {
	f := ctx.Field
	if !f.HasBalance || !f.HasPrev {
		return SignNone
	}
	switch f.Balance.Cmp(f.PrevBalance) {
	case 1:
		return SignCredit
	case -1:
		return SignDebit
	}
	return SignNone
}

var referenceNumberRe = regexp.MustCompile(`\b(\d{9,12})\b`)

// referenceRule matches e-transfer reference numbers against the configured
// per-bank incoming/outgoing prefix families, scanning the neighbor window.
type referenceRule struct {
	prefixes map[Bank]ReferencePrefixes
}

func (referenceRule) Name() string { return "reference" }

func (r referenceRule) Resolve(ctx SignContext) Sign {
	if !strings.Contains(strings.ToUpper(ctx.Field.Raw), "E-TRANSFER") {
		return SignNone
	}
	fam, ok := r.prefixes[ctx.Profile.Bank]
	if !ok {
		return SignNone
	}

	lines := append([]string{ctx.Field.Raw}, ctx.Window...)
	for _, line := range lines {
		for _, ref := range referenceNumberRe.FindAllString(line, -1) {
			for _, p := range fam.Incoming {
				if strings.HasPrefix(ref, p) {
					return SignCredit
				}
			}
			for _, p := range fam.Outgoing {
				if strings.HasPrefix(ref, p) {
					return SignDebit
				}
			}
		}
	}
	return SignNone
}

// knownNameRule uses configured counterparty names as weak direction
// priors for transfers.
type knownNameRule struct {
	incoming []string
	outgoing []string
}

func (knownNameRule) Name() string { return "known-name" }

func (r knownNameRule) Resolve(ctx SignContext) Sign {
	upper := strings.ToUpper(ctx.Field.Raw)
	if containsAny(upper, r.incoming) {
		return SignCredit
	}
	if containsAny(upper, r.outgoing) {
		return SignDebit
	}
	return SignNone
}

// defaultRule terminates the chain: unclassified ledger lines are almost
// always debits.
type defaultRule struct{}

func (defaultRule) Name() string { return "default" }

func (defaultRule) Resolve(SignContext) Sign { return SignDebit }

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}
