package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cashbook-app/cashbook/pkg/money"
)

// Transaction is the aggregate root of a posting: an ordered set of splits
// sharing one currency and timestamp. Split order is only significant for
// display. For a well-formed double-entry transaction the signed contributions
// of all splits net to zero across accounts; that is a property of good data,
// not an enforced invariant, since legacy single-entry rows may violate it
// transiently during migration.
type Transaction struct {
	ID           int64
	UID          string
	Name         string
	Description  string
	Timestamp    time.Time
	Exported     bool
	CurrencyCode string

	// RecurrencePeriod is the repeat interval for template transactions.
	// Zero means non-recurring.
	RecurrencePeriod time.Duration

	splits []*Split
}

// NewTransaction creates a transaction with a fresh UID, the current time and
// the given currency.
func NewTransaction(name, currencyCode string) *Transaction {
	return &Transaction{
		UID:          uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Timestamp:    time.Now(),
		CurrencyCode: currencyCode,
	}
}

// Clone copies a transaction and its splits. When newUID is true the copy and
// its splits receive fresh UIDs, otherwise identifiers are preserved.
func (t *Transaction) Clone(newUID bool) *Transaction {
	clone := &Transaction{
		UID:              t.UID,
		Name:             t.Name,
		Description:      t.Description,
		Timestamp:        t.Timestamp,
		Exported:         t.Exported,
		CurrencyCode:     t.CurrencyCode,
		RecurrencePeriod: t.RecurrencePeriod,
	}
	if newUID {
		clone.UID = uuid.NewString()
	}
	for _, split := range t.splits {
		copied := *split
		copied.ID = 0
		copied.TransactionUID = clone.UID
		if newUID {
			copied.UID = uuid.NewString()
		}
		clone.splits = append(clone.splits, &copied)
	}
	return clone
}

// Splits returns the splits of this transaction in insertion order.
func (t *Transaction) Splits() []*Split {
	return t.splits
}

// SplitsForAccount returns the splits touching the given account. Used for
// per-account display and for the single-account QIF/OFX export views.
func (t *Transaction) SplitsForAccount(accountUID string) []*Split {
	var matched []*Split
	for _, split := range t.splits {
		if split.AccountUID == accountUID {
			matched = append(matched, split)
		}
	}
	return matched
}

// AddSplit coerces the split into the transaction's currency, stamps the
// transaction reference and appends it. There is no limit on split count.
// A split whose magnitude carries a different currency is rejected: there is
// no conversion path inside the core.
func (t *Transaction) AddSplit(split *Split) error {
	if code := split.Amount.CurrencyCode(); code != "" && code != t.CurrencyCode {
		return fmt.Errorf("cannot attach %s split to %s transaction: %w",
			code, t.CurrencyCode, ErrCurrencyMismatch)
	}
	split.Amount = split.Amount.WithCurrency(t.CurrencyCode)
	split.TransactionUID = t.UID
	t.splits = append(t.splits, split)
	return nil
}

// SetSplits replaces the split set, re-stamping every split.
func (t *Transaction) SetSplits(splits []*Split) error {
	t.splits = nil
	for _, split := range splits {
		if err := t.AddSplit(split); err != nil {
			return err
		}
	}
	return nil
}

// Balance returns the signed sum of this transaction's splits touching the
// given account, under that account's polarity, in the account's currency.
// An account with no matching splits yields a zero balance, not an error.
func (t *Transaction) Balance(account *Account) money.Money {
	return ComputeBalance(account.UID, account.Type, account.CurrencyCode, t.splits)
}

// ComputeBalance sums the polarity-adjusted contributions of the splits
// matching accountUID. Splits of other accounts are ignored.
func ComputeBalance(accountUID string, accountType AccountType, currencyCode string, splits []*Split) money.Money {
	debitNormalBalance := accountType.HasDebitNormalBalance()
	balance := money.Zero(currencyCode)
	for _, split := range splits {
		if split.AccountUID != accountUID {
			continue
		}
		contribution := split.Contribution(debitNormalBalance).WithCurrency(currencyCode)
		// Same currency by construction, the error path is unreachable.
		balance, _ = balance.Add(contribution)
	}
	return balance
}

// TypeForAccount reports which side of the ledger this transaction sits on for
// the given account. With exactly one matching split this is that split's
// type. Otherwise the type is inferred from the sign of the computed balance
// (negative means DEBIT). The inference is a heuristic carried over from the
// legacy single-split export path; for transactions with three or more legs
// across mixed-polarity accounts it has no principled meaning.
func (t *Transaction) TypeForAccount(account *Account) TransactionType {
	matched := t.SplitsForAccount(account.UID)
	if len(matched) == 1 {
		return matched[0].Type
	}
	if t.Balance(account).IsNegative() {
		return TypeDebit
	}
	return TypeCredit
}

// TypeForBalance returns the posting side that moves an account of the given
// type in the requested direction.
func TypeForBalance(accountType AccountType, shouldReduceBalance bool) TransactionType {
	if accountType.HasDebitNormalBalance() == shouldReduceBalance {
		return TypeCredit
	}
	return TypeDebit
}
