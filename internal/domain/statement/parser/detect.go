package parser

import "strings"

// bankMarkers lists the literal markers that identify each bank, in
// detection precedence order. The first bank with a matching marker wins,
// so more specific institutions come before ones whose markers could
// appear in other banks' statements.
var bankMarkers = []struct {
	bank    Bank
	markers []string
}{
	{BankCIBC, []string{"CIBC", "CANADIAN IMPERIAL BANK"}},
	{BankRBC, []string{"ROYAL BANK", "RBC"}},
	{BankAMEX, []string{"AMERICAN EXPRESS", "AMEX"}},
	{BankTD, []string{"TD CANADA TRUST", "TD BANK"}},
	{BankBMO, []string{"BANK OF MONTREAL", "BMO"}},
	{BankScotia, []string{"SCOTIABANK", "SCOTIA"}},
	{BankTangerine, []string{"TANGERINE"}},
}

// checkingMarkers indicate a chequing-account statement layout.
var checkingMarkers = []string{
	"CHEQUING",
	"CHECKING ACCOUNT",
	"WITHDRAWALS",
	"DEPOSITS",
	"OPENING BALANCE",
	"CLOSING BALANCE",
}

// creditMarkers indicate a credit-card statement. They are only trusted
// when the statement also shows purchase/payment activity, since "VISA"
// shows up in chequing statements as a point-of-sale descriptor.
var creditMarkers = []string{
	"CREDIT CARD",
	"VISA",
	"MASTERCARD",
	"CREDIT LIMIT",
	"MINIMUM PAYMENT",
}

// Detect classifies statement text by issuing bank and account type.
// It is a pure function over its input and always returns a profile,
// defaulting to UNKNOWN/UNKNOWN when no bank marker is present.
func Detect(text string) Profile {
	upper := strings.ToUpper(text)

	bank := BankUnknown
	for _, entry := range bankMarkers {
		if containsAny(upper, entry.markers) {
			bank = entry.bank
			break
		}
	}

	if bank == BankUnknown {
		return Profile{Bank: BankUnknown, AccountType: AccountUnknown}
	}

	return Profile{Bank: bank, AccountType: detectAccountType(upper, bank)}
}

func detectAccountType(upper string, bank Bank) AccountType {
	// AMEX issues no deposit accounts in Canada.
	if bank == BankAMEX {
		return AccountCredit
	}

	if containsAny(upper, checkingMarkers) {
		return AccountChecking
	}

	if containsAny(upper, creditMarkers) &&
		strings.Contains(upper, "PURCHASE") && strings.Contains(upper, "PAYMENT") {
		return AccountCredit
	}

	// Ambiguous statements default to chequing.
	return AccountChecking
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
