package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func creditUnit(text string) RawUnit {
	return RawUnit{Text: text, DateConfident: true}
}

func TestExtractCredit(t *testing.T) {
	cibc := layoutFor(BankCIBC)[0]

	t.Run("merchant line with trailing balance", func(t *testing.T) {
		f, ok := extractCredit(creditUnit("Jan 15  GROCERY STORE PURCHASE     45.67         2,345.22"), cibc, testRef)
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), f.Date)
		assert.True(t, f.DateConfident)
		assert.Equal(t, "GROCERY STORE PURCHASE", f.Description)
		assert.Equal(t, "45.67", f.Amount.String())
		require.True(t, f.HasBalance)
		assert.Equal(t, "2345.22", f.Balance.String())
		assert.Equal(t, BankCIBC, f.Bank)
	})

	t.Run("two leading dates", func(t *testing.T) {
		f, ok := extractCredit(creditUnit("Jan 15 Jan 16 TIM HORTONS #2741 KITCHENER ON  4.50"), cibc, testRef)
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), f.Date)
		assert.Contains(t, f.Description, "TIM HORTONS")
	})

	t.Run("payment line", func(t *testing.T) {
		f, ok := extractCredit(creditUnit("Jan 20 Jan 21 PAYMENT THANK YOU  500.00"), cibc, testRef)
		require.True(t, ok)
		assert.True(t, f.Payment)
		assert.Equal(t, "PAYMENT", f.Description)
		assert.Equal(t, "500", f.Amount.String())
	})

	t.Run("rbc slash dates", func(t *testing.T) {
		rbc := layoutFor(BankRBC)[0]
		f, ok := extractCredit(creditUnit("2025/01/15  INTERAC E-TRANSFER  25.00    2,320.55"), rbc, testRef)
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), f.Date)
		assert.Equal(t, "INTERAC E-TRANSFER", f.Description)
		assert.Equal(t, "25", f.Amount.String())
	})

	t.Run("noise lines are dropped", func(t *testing.T) {
		for _, line := range []string{
			"CREDIT LIMIT 5,000.00",           // no leading date
			"Jan 15  MEMBERSHIP REWARDS",      // no amount
			"Jan 15  45.67",                   // no description
			"Interest charges may apply here", // nothing
		} {
			_, ok := extractCredit(creditUnit(line), cibc, testRef)
			assert.False(t, ok, line)
		}
	})
}

func TestSplitMerchantLocation(t *testing.T) {
	tests := []struct {
		name         string
		in           string
		wantMerchant string
		wantLocation string
	}{
		{
			name:         "column gap",
			in:           "TIM HORTONS #2741    KITCHENER ON",
			wantMerchant: "TIM HORTONS #2741",
			wantLocation: "KITCHENER ON",
		},
		{
			name:         "province partition when columns collapsed",
			in:           "SHELL C02045 ON TORONTO",
			wantMerchant: "SHELL C02045",
			wantLocation: "ON TORONTO",
		},
		{
			name:         "first three words fallback",
			in:           "SOME LONG MERCHANT NAME HERE",
			wantMerchant: "SOME LONG MERCHANT",
			wantLocation: "NAME HERE",
		},
		{
			name:         "short text stays whole",
			in:           "NETFLIX.COM",
			wantMerchant: "NETFLIX.COM",
			wantLocation: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merchant, location := splitMerchantLocation(tt.in)
			assert.Equal(t, tt.wantMerchant, merchant)
			assert.Equal(t, tt.wantLocation, location)
		})
	}
}

func TestHintForLocation(t *testing.T) {
	assert.Equal(t, "restaurants", hintForLocation("KITCHENER ON", "SHAWARMA PALACE"))
	assert.Equal(t, "gas", hintForLocation("", "PETRO CANADA"))
	assert.Equal(t, "grocery", hintForLocation("SUPERMARKET TORONTO", "FRESHCO"))
	assert.Equal(t, "", hintForLocation("KITCHENER ON", "ACME WIDGETS"))
}

func TestExtractChecking(t *testing.T) {
	jul4 := time.Date(2025, time.July, 4, 0, 0, 0, 0, time.UTC)

	t.Run("amount and balance", func(t *testing.T) {
		unit := RawUnit{
			Text:          "E-TRANSFER 011238461904 MARIA",
			Date:          jul4,
			DateConfident: true,
			Amounts:       []string{"597.00", "1,125.40"},
			PrevBalance:   "528.40",
		}
		f, ok := extractChecking(unit, BankCIBC)
		require.True(t, ok)
		assert.Equal(t, "597", f.Amount.String())
		require.True(t, f.HasBalance)
		assert.Equal(t, "1125.4", f.Balance.String())
		require.True(t, f.HasPrev)
		assert.Equal(t, "528.4", f.PrevBalance.String())
		assert.Equal(t, jul4, f.Date)
	})

	t.Run("single amount has no balance", func(t *testing.T) {
		unit := RawUnit{Text: "Payroll Deposit ACME", Date: jul4, DateConfident: true, Amounts: []string{"1,250.00"}}
		f, ok := extractChecking(unit, BankRBC)
		require.True(t, ok)
		assert.Equal(t, "1250", f.Amount.String())
		assert.False(t, f.HasBalance)
	})

	t.Run("placeholder noise stripped from description", func(t *testing.T) {
		unit := RawUnit{Text: "INTERNET TRANSFER N/A 000000101667.", Date: jul4, Amounts: []string{"200.00", "925.40"}}
		f, ok := extractChecking(unit, BankCIBC)
		require.True(t, ok)
		assert.Equal(t, "INTERNET TRANSFER 000000101667", f.Description)
	})

	t.Run("explicit minus marker", func(t *testing.T) {
		unit := RawUnit{Text: "WWW PAYMENT UTIL", Date: jul4, Amounts: []string{"45.00", "955.00"}, Negative: true}
		f, ok := extractChecking(unit, BankRBC)
		require.True(t, ok)
		assert.True(t, f.ExplicitNegative)
	})

	t.Run("no amounts", func(t *testing.T) {
		_, ok := extractChecking(RawUnit{Text: "nothing here"}, BankCIBC)
		assert.False(t, ok)
	})
}
