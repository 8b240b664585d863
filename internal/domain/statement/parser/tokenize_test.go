package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRef = time.Date(2025, time.July, 10, 12, 0, 0, 0, time.UTC)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"Jul 4", time.Date(2025, time.July, 4, 0, 0, 0, 0, time.UTC)},
		{"JAN 15", time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)},
		{"Jul 4, 2024", time.Date(2024, time.July, 4, 0, 0, 0, 0, time.UTC)},
		{"2025/01/15", time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)},
		{"15/01/2025", time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)},
		{"2025-01-15", time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in, testRef.Year())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseDate("not a date", testRef.Year())
	assert.Error(t, err)
	_, err = ParseDate("", testRef.Year())
	assert.Error(t, err)
}

func TestTrailingAmounts(t *testing.T) {
	tests := []struct {
		name         string
		line         string
		wantTokens   []string
		wantTrailing bool
	}{
		{
			name:         "amount and balance",
			line:         "E-TRANSFER MARIA 597.00 1,125.40",
			wantTokens:   []string{"597.00", "1,125.40"},
			wantTrailing: true,
		},
		{
			name:         "glued amount",
			line:         "LINGUTLA.597.00 1,125.40",
			wantTokens:   []string{"597.00", "1,125.40"},
			wantTrailing: true,
		},
		{
			name:         "dollar sign",
			line:         "PURCHASE $2,345.22",
			wantTokens:   []string{"$2,345.22"},
			wantTrailing: true,
		},
		{
			name:         "explicit minus marker still trails",
			line:         "WITHDRAWAL 45.00 1,000.00 -",
			wantTokens:   []string{"45.00", "1,000.00"},
			wantTrailing: true,
		},
		{
			name:         "amount mid-line is not trailing",
			line:         "45.67 is the fee you were charged",
			wantTokens:   []string{"45.67"},
			wantTrailing: false,
		},
		{
			name:         "no amounts",
			line:         "DATE DESCRIPTION BALANCE",
			wantTrailing: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, _, trailing := trailingAmounts(tt.line)
			assert.Equal(t, tt.wantTokens, tokens)
			assert.Equal(t, tt.wantTrailing, trailing)
		})
	}
}

func TestStepCheckingDateContext(t *testing.T) {
	st := scanState{}

	st, unit := stepChecking(st, "Jul 4", 0, testRef)
	assert.Nil(t, unit, "a bare date line yields no unit")
	assert.True(t, st.dateSeen)

	st, unit = stepChecking(st, "E-TRANSFER 011238461904 MARIA 597.00 1,125.40", 1, testRef)
	require.NotNil(t, unit)
	assert.Equal(t, time.Date(2025, time.July, 4, 0, 0, 0, 0, time.UTC), unit.Date)
	assert.True(t, unit.DateConfident)
	assert.Equal(t, "E-TRANSFER 011238461904 MARIA", unit.Text)
	assert.Equal(t, []string{"597.00", "1,125.40"}, unit.Amounts)

	// Context carries over to the next body line until a new date appears.
	st, unit = stepChecking(st, "INTERNET TRANSFER 000000101667 200.00 925.40", 2, testRef)
	require.NotNil(t, unit)
	assert.Equal(t, time.Date(2025, time.July, 4, 0, 0, 0, 0, time.UTC), unit.Date)
	assert.Equal(t, "1,125.40", unit.PrevBalance)
}

func TestStepCheckingDefaultDate(t *testing.T) {
	st, unit := stepChecking(scanState{}, "MISC PAYMENT ACME 50.00 1,000.00", 0, testRef)
	require.NotNil(t, unit)
	assert.False(t, unit.DateConfident)
	assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), unit.Date)
	assert.True(t, st.dateSeen == false)
}

func TestStepCheckingLeadingDateSingleAmount(t *testing.T) {
	// RBC prints deposits without the balance column; a line opening with
	// its own date is trusted with a single amount.
	_, unit := stepChecking(scanState{}, "Jul 7 Payroll Deposit ACME 1,250.00", 0, testRef)
	require.NotNil(t, unit)
	assert.Equal(t, time.Date(2025, time.July, 7, 0, 0, 0, 0, time.UTC), unit.Date)
	assert.Equal(t, []string{"1,250.00"}, unit.Amounts)

	// Without a leading date a lone amount is not enough.
	_, unit = stepChecking(scanState{}, "Payroll Deposit ACME 1,250.00", 0, testRef)
	assert.Nil(t, unit)
}

func TestStepCheckingSkipLines(t *testing.T) {
	st, unit := stepChecking(scanState{}, "Opening balance  528.40", 0, testRef)
	assert.Nil(t, unit)
	assert.Equal(t, "528.40", st.prevBal, "balance headers seed the running balance")

	for _, line := range []string{
		"DATE DESCRIPTION WITHDRAWALS ($) DEPOSITS ($) BALANCE ($)",
		"continued on next page",
		"Page 2 of 4",
		"TOTAL WITHDRAWALS 1,234.00",
	} {
		_, unit := stepChecking(scanState{}, line, 0, testRef)
		assert.Nil(t, unit, line)
	}
}

func TestStepCheckingNegativeMarker(t *testing.T) {
	_, unit := stepChecking(scanState{}, "Jul 7 WWW PAYMENT UTIL 45.00 955.00 -", 0, testRef)
	require.NotNil(t, unit)
	assert.True(t, unit.Negative)
}

func TestTokenizeCreditOneUnitPerLine(t *testing.T) {
	lines := []string{
		"CIBC CREDIT CARD STATEMENT",
		"",
		"Jan 15  GROCERY STORE     45.67",
		"TRANS POST DESCRIPTION AMOUNT",
		"Jan 16  COFFEE SHOP       4.50",
	}
	units := tokenizeCredit(lines)
	require.Len(t, units, 3)
	assert.Equal(t, "Jan 15  GROCERY STORE     45.67", units[1].Text)
	assert.Equal(t, 2, units[1].Line)
	assert.Equal(t, 4, units[2].Line)
}
