package parser

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestResolverChain(t *testing.T) {
	r := NewResolver(ResolverConfig{
		IncomingNames: []string{"ACME CORP"},
		OutgoingNames: []string{"LANDLORD PROPERTIES"},
	})
	cibcChequing := Profile{Bank: BankCIBC, AccountType: AccountChecking}

	tests := []struct {
		name    string
		field   Field
		profile Profile
		window  []string
		want    string
	}{
		{
			name:    "explicit minus marker wins over everything",
			field:   Field{Raw: "DEPOSIT REVERSAL", Amount: dec("45.00"), ExplicitNegative: true},
			profile: cibcChequing,
			want:    "-45",
		},
		{
			name:    "credit card payment is money in",
			field:   Field{Raw: "PAYMENT THANK YOU", Amount: dec("500.00"), Payment: true},
			profile: Profile{Bank: BankCIBC, AccountType: AccountCredit},
			want:    "500",
		},
		{
			name:    "deposit keyword",
			field:   Field{Raw: "Payroll Deposit ACME", Amount: dec("1250.00")},
			profile: cibcChequing,
			want:    "1250",
		},
		{
			name:    "gst refund keyword",
			field:   Field{Raw: "TPS/GST CANADA", Amount: dec("116.50")},
			profile: cibcChequing,
			want:    "116.5",
		},
		{
			name:    "withdrawal keyword",
			field:   Field{Raw: "ATM WITHDRAWAL", Amount: dec("100.00")},
			profile: cibcChequing,
			want:    "-100",
		},
		{
			name:    "internet transfer keyword is money out",
			field:   Field{Raw: "INTERNET TRANSFER 000000101667", Amount: dec("200.00")},
			profile: cibcChequing,
			want:    "-200",
		},
		{
			name: "balance rising means money in",
			field: Field{
				Raw: "E-TRANSFER MARIA", Amount: dec("597.00"),
				Balance: dec("1125.40"), HasBalance: true,
				PrevBalance: dec("528.40"), HasPrev: true,
			},
			profile: cibcChequing,
			want:    "597",
		},
		{
			name: "balance falling means money out",
			field: Field{
				Raw: "E-TRANSFER MARIA", Amount: dec("50.00"),
				Balance: dec("478.40"), HasBalance: true,
				PrevBalance: dec("528.40"), HasPrev: true,
			},
			profile: cibcChequing,
			want:    "-50",
		},
		{
			name:    "incoming e-transfer reference prefix",
			field:   Field{Raw: "E-TRANSFER 011238461904", Amount: dec("597.00")},
			profile: cibcChequing,
			want:    "597",
		},
		{
			name:    "outgoing e-transfer reference prefix",
			field:   Field{Raw: "E-TRANSFER 010934080165", Amount: dec("75.00")},
			profile: cibcChequing,
			want:    "-75",
		},
		{
			name:    "reference found in neighboring lines",
			field:   Field{Raw: "E-TRANSFER MARIA", Amount: dec("597.00")},
			profile: cibcChequing,
			window:  []string{"ref 011238461904"},
			want:    "597",
		},
		{
			name:    "reference prefixes are bank specific",
			field:   Field{Raw: "E-TRANSFER 011238461904", Amount: dec("25.00")},
			profile: Profile{Bank: BankRBC, AccountType: AccountChecking},
			want:    "-25",
		},
		{
			name:    "known incoming name",
			field:   Field{Raw: "TRANSFER ACME CORP", Amount: dec("300.00")},
			profile: cibcChequing,
			want:    "300",
		},
		{
			name:    "known outgoing name",
			field:   Field{Raw: "TRANSFER LANDLORD PROPERTIES", Amount: dec("1800.00")},
			profile: cibcChequing,
			want:    "-1800",
		},
		{
			name:    "unclassified defaults to expense",
			field:   Field{Raw: "SOMETHING UNRECOGNIZED", Amount: dec("12.34")},
			profile: cibcChequing,
			want:    "-12.34",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.field
			got := r.Resolve(&f, tt.profile, tt.window)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestResolverCustomChain(t *testing.T) {
	// A chain without the keyword rule should let balance delta speak first.
	r := NewResolverWithRules(balanceDeltaRule{}, defaultRule{})
	f := Field{
		Raw: "ATM WITHDRAWAL", Amount: dec("100.00"),
		Balance: dec("1100.00"), HasBalance: true,
		PrevBalance: dec("1000.00"), HasPrev: true,
	}
	got := r.Resolve(&f, Profile{Bank: BankCIBC, AccountType: AccountChecking}, nil)
	assert.Equal(t, "100", got.String())
}

func TestResolverBalanceDeltaBeatsReference(t *testing.T) {
	r := NewResolver(ResolverConfig{})
	// The reference says incoming but the balance series says otherwise;
	// the balance is the more reliable signal.
	f := Field{
		Raw: "E-TRANSFER 011238461904", Amount: dec("50.00"),
		Balance: dec("478.40"), HasBalance: true,
		PrevBalance: dec("528.40"), HasPrev: true,
	}
	got := r.Resolve(&f, Profile{Bank: BankCIBC, AccountType: AccountChecking}, nil)
	assert.Equal(t, "-50", got.String())
}
