// Package parser converts raw statement text extracted from Canadian bank
// documents into canonical transactions. It detects the issuing bank and
// account type, tokenizes the text into candidate transaction units,
// extracts date/description/amount fields, and resolves the transaction
// direction through an ordered rule chain.
//
// The package is pure: it performs no I/O, never returns an error from the
// top-level pipeline, and treats unparseable lines as expected statement
// noise to be dropped silently.
package parser

// Bank identifies the issuing institution of a statement.
type Bank string

const (
	BankCIBC      Bank = "CIBC"
	BankRBC       Bank = "RBC"
	BankAMEX      Bank = "AMEX"
	BankTD        Bank = "TD"
	BankBMO       Bank = "BMO"
	BankScotia    Bank = "SCOTIA"
	BankTangerine Bank = "TANGERINE"
	BankUnknown   Bank = "UNKNOWN"
)

// AccountType distinguishes the two statement layouts we understand:
// checking statements carry a running balance per line, credit statements
// carry a single amount per line.
type AccountType string

const (
	AccountChecking AccountType = "CHECKING"
	AccountCredit   AccountType = "CREDIT"
	AccountUnknown  AccountType = "UNKNOWN"
)

// Profile is the result of statement detection. It is derived once per
// statement and is immutable for the duration of parsing; every downstream
// stage branches on it.
type Profile struct {
	Bank        Bank
	AccountType AccountType
}
