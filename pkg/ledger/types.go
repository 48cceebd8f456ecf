// Package ledger implements the double-entry bookkeeping core: transactions
// composed of splits, the debit/credit polarity algebra that maps a split's
// stored magnitude onto a signed balance movement, and the account type
// classification that drives it.
package ledger

import "fmt"

// TransactionType is the side of a double-entry posting.
type TransactionType string

const (
	TypeDebit  TransactionType = "DEBIT"
	TypeCredit TransactionType = "CREDIT"
)

// Invert returns the opposite posting side.
func (t TransactionType) Invert() TransactionType {
	if t == TypeDebit {
		return TypeCredit
	}
	return TypeDebit
}

// ParseTransactionType parses a persisted transaction type string.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(s) {
	case TypeDebit, TypeCredit:
		return TransactionType(s), nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// AccountType classifies an account. The classification is fixed: each type
// either increases on the debit side (debit-normal) or on the credit side.
type AccountType string

const (
	AccountCash       AccountType = "CASH"
	AccountBank       AccountType = "BANK"
	AccountCredit     AccountType = "CREDIT"
	AccountAsset      AccountType = "ASSET"
	AccountLiability  AccountType = "LIABILITY"
	AccountPayable    AccountType = "PAYABLE"
	AccountReceivable AccountType = "RECEIVABLE"
	AccountEquity     AccountType = "EQUITY"
	AccountIncome     AccountType = "INCOME"
	AccountExpense    AccountType = "EXPENSE"
	AccountCurrency   AccountType = "CURRENCY"
	AccountStock      AccountType = "STOCK"
	AccountMutual     AccountType = "MUTUAL"
	AccountRoot       AccountType = "ROOT"
)

// debitNormal is the static polarity table. Types not listed here are
// credit-normal (liabilities, equity, income and the payable class).
var debitNormal = map[AccountType]bool{
	AccountCash:       true,
	AccountBank:       true,
	AccountAsset:      true,
	AccountReceivable: true,
	AccountExpense:    true,
	AccountCurrency:   true,
	AccountStock:      true,
	AccountMutual:     true,
	AccountRoot:       true,
}

// HasDebitNormalBalance reports whether the account type's conventional
// "increase" direction is a debit.
func (a AccountType) HasDebitNormalBalance() bool {
	return debitNormal[a]
}

// ParseAccountType parses a persisted account type string.
func ParseAccountType(s string) (AccountType, error) {
	switch AccountType(s) {
	case AccountCash, AccountBank, AccountCredit, AccountAsset, AccountLiability,
		AccountPayable, AccountReceivable, AccountEquity, AccountIncome,
		AccountExpense, AccountCurrency, AccountStock, AccountMutual, AccountRoot:
		return AccountType(s), nil
	}
	return "", fmt.Errorf("unknown account type %q", s)
}
