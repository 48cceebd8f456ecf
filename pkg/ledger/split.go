package ledger

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cashbook-app/cashbook/pkg/money"
)

// Split is one leg of a double-entry posting. The amount is always stored as a
// non-negative magnitude; the signed effect on an account balance is derived
// from the split type combined with the account's polarity, never from the
// sign of the amount.
type Split struct {
	ID             int64
	UID            string
	TransactionUID string
	AccountUID     string
	Amount         money.Money
	Type           TransactionType
	Memo           string
}

// NewSplit creates a split against an account. Negative input amounts must be
// normalized by the caller: the sign belongs in the split type, so a negative
// magnitude is rejected here rather than silently folded.
func NewSplit(amount money.Money, accountUID string) (*Split, error) {
	if accountUID == "" {
		return nil, fmt.Errorf("split requires an account: %w", ErrDanglingReference)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("split amount must be a non-negative magnitude, got %s", amount)
	}
	return &Split{
		UID:        uuid.NewString(),
		AccountUID: accountUID,
		Amount:     amount,
		Type:       TypeDebit,
	}, nil
}

// CreatePair derives the balancing second leg of this split: same magnitude
// and memo, inverted type, targeting a different account. This is how a
// single-entry user action is expanded into a balanced two-leg posting.
func (s *Split) CreatePair(accountUID string) (*Split, error) {
	pair, err := NewSplit(s.Amount, accountUID)
	if err != nil {
		return nil, err
	}
	pair.Type = s.Type.Invert()
	pair.Memo = s.Memo
	return pair, nil
}

// Contribution returns the signed effect of the split on a balance, given the
// polarity of the account the balance belongs to. This table is the crux of
// double-entry correctness: identical split data moves a debit-normal and a
// credit-normal account in opposite directions.
func (s *Split) Contribution(debitNormalBalance bool) money.Money {
	magnitude := s.Amount.Abs()
	isDebitSplit := s.Type == TypeDebit
	if debitNormalBalance == isDebitSplit {
		return magnitude
	}
	return magnitude.Neg()
}
