package ledger

import (
	"errors"
	"testing"

	"github.com/cashbook-app/cashbook/pkg/money"
)

func mustMoney(t *testing.T, amount, currency string) money.Money {
	t.Helper()
	m, err := money.New(amount, currency)
	if err != nil {
		t.Fatalf("money.New(%q, %q): %v", amount, currency, err)
	}
	return m
}

func TestNewSplitValidation(t *testing.T) {
	amount := mustMoney(t, "50.00", "USD")

	if _, err := NewSplit(amount, ""); !errors.Is(err, ErrDanglingReference) {
		t.Errorf("NewSplit without account error = %v, expected ErrDanglingReference", err)
	}

	negative := mustMoney(t, "-50.00", "USD")
	if _, err := NewSplit(negative, "acct-1"); err == nil {
		t.Error("NewSplit with negative magnitude should fail")
	}

	split, err := NewSplit(amount, "acct-1")
	if err != nil {
		t.Fatalf("NewSplit: %v", err)
	}
	if split.UID == "" {
		t.Error("NewSplit should assign a UID")
	}
	if split.Type != TypeDebit {
		t.Errorf("default split type = %s, expected DEBIT", split.Type)
	}
}

func TestContributionPolarityTable(t *testing.T) {
	tests := []struct {
		name        string
		splitType   TransactionType
		debitNormal bool
		expected    string
	}{
		{"debit split on debit-normal account", TypeDebit, true, "50.00"},
		{"credit split on debit-normal account", TypeCredit, true, "-50.00"},
		{"debit split on credit-normal account", TypeDebit, false, "-50.00"},
		{"credit split on credit-normal account", TypeCredit, false, "50.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split, err := NewSplit(mustMoney(t, "50.00", "USD"), "acct-1")
			if err != nil {
				t.Fatal(err)
			}
			split.Type = tt.splitType

			if got := split.Contribution(tt.debitNormal).String(); got != tt.expected {
				t.Errorf("Contribution() = %s, expected %s", got, tt.expected)
			}
		})
	}
}

func TestContributionInversionAntisymmetry(t *testing.T) {
	// Flipping the split type must negate the contribution under either polarity.
	for _, polarity := range []bool{true, false} {
		split, err := NewSplit(mustMoney(t, "13.37", "USD"), "acct-1")
		if err != nil {
			t.Fatal(err)
		}
		split.Type = TypeDebit

		inverted := *split
		inverted.Type = split.Type.Invert()

		want := split.Contribution(polarity).Neg()
		if got := inverted.Contribution(polarity); !got.Equal(want) {
			t.Errorf("polarity %v: inverted contribution = %s, expected %s", polarity, got, want)
		}
	}
}

func TestCreatePair(t *testing.T) {
	split, err := NewSplit(mustMoney(t, "25.50", "USD"), "acct-a")
	if err != nil {
		t.Fatal(err)
	}
	split.Type = TypeCredit
	split.Memo = "lunch"

	pair, err := split.CreatePair("acct-b")
	if err != nil {
		t.Fatalf("CreatePair: %v", err)
	}

	if !pair.Amount.Abs().Equal(split.Amount.Abs()) {
		t.Errorf("pair amount = %s, expected %s", pair.Amount, split.Amount)
	}
	if pair.Type != TypeDebit {
		t.Errorf("pair type = %s, expected DEBIT", pair.Type)
	}
	if pair.Memo != "lunch" {
		t.Errorf("pair memo = %q, expected %q", pair.Memo, "lunch")
	}
	if pair.AccountUID != "acct-b" {
		t.Errorf("pair account = %q, expected acct-b", pair.AccountUID)
	}
	if pair.UID == split.UID {
		t.Error("pair must receive its own UID")
	}

	// Both legs against same-polarity accounts must net to zero.
	legA := split.Contribution(true)
	legB := pair.Contribution(true)
	sum, err := legA.Add(legB)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.IsZero() {
		t.Errorf("pair legs sum = %s, expected zero", sum)
	}

	// Inverting the type and flipping the polarity is the identity.
	if got := pair.Contribution(false); !got.Equal(legA) {
		t.Errorf("pair contribution under flipped polarity = %s, expected %s", got, legA)
	}
}

func TestTransactionTypeInvert(t *testing.T) {
	if TypeDebit.Invert() != TypeCredit {
		t.Error("DEBIT.Invert() should be CREDIT")
	}
	if TypeCredit.Invert() != TypeDebit {
		t.Error("CREDIT.Invert() should be DEBIT")
	}
}

func TestAccountTypePolarity(t *testing.T) {
	debitNormalTypes := []AccountType{
		AccountCash, AccountBank, AccountAsset, AccountReceivable,
		AccountExpense, AccountCurrency, AccountStock, AccountMutual, AccountRoot,
	}
	creditNormalTypes := []AccountType{
		AccountCredit, AccountLiability, AccountPayable, AccountEquity, AccountIncome,
	}

	for _, at := range debitNormalTypes {
		if !at.HasDebitNormalBalance() {
			t.Errorf("%s should be debit-normal", at)
		}
	}
	for _, at := range creditNormalTypes {
		if at.HasDebitNormalBalance() {
			t.Errorf("%s should be credit-normal", at)
		}
	}
}

func TestParseAccountType(t *testing.T) {
	if _, err := ParseAccountType("BANK"); err != nil {
		t.Errorf("ParseAccountType(BANK): %v", err)
	}
	if _, err := ParseAccountType("CHECKING"); err == nil {
		t.Error("ParseAccountType(CHECKING) should fail")
	}
}
