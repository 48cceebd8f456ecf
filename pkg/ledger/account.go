package ledger

import "github.com/google/uuid"

// AccountNameSeparator joins ancestor names into a fully qualified account
// name, e.g. "Assets:Bank:Checking".
const AccountNameSeparator = ":"

// Account is a node in the account tree. Accounts are independently persisted
// and long-lived; splits reference them by UID only.
type Account struct {
	ID           int64
	UID          string
	Name         string
	Type         AccountType
	CurrencyCode string

	// ParentUID is empty for top level accounts (or accounts parented
	// directly under the ROOT account, which is excluded from full names).
	ParentUID string

	// Placeholder accounts exist only to structure the tree and hold no
	// transactions of their own.
	Placeholder bool

	// DefaultTransferUID is the account preselected as the second leg when
	// composing a transaction in this account.
	DefaultTransferUID string

	// FullName is the denormalized colon-separated ancestor chain, backfilled
	// by the migration engine and maintained by the accounts repository.
	FullName string

	ColorCode string
	Favorite  bool
}

// NewAccount creates an account with a fresh UID.
func NewAccount(name string, accountType AccountType, currencyCode string) *Account {
	return &Account{
		UID:          uuid.NewString(),
		Name:         name,
		Type:         accountType,
		CurrencyCode: currencyCode,
	}
}
