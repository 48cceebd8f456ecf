package ledger

import (
	"errors"
	"fmt"

	"github.com/cashbook-app/cashbook/pkg/money"
)

var (
	// ErrCurrencyMismatch is returned when a split cannot be coerced into its
	// transaction's currency, or when balance arithmetic crosses currencies.
	// It aliases the money package sentinel so errors.Is works across layers.
	ErrCurrencyMismatch = money.ErrCurrencyMismatch

	// ErrInvalidAmountFormat is returned when a persisted amount string cannot
	// be parsed. Aliases the money package sentinel.
	ErrInvalidAmountFormat = money.ErrInvalidAmountFormat

	// ErrDanglingReference is returned when a split references an account or
	// transaction UID that cannot be resolved.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrCycleDetected is returned when walking parent account references
	// revisits an account, which the legacy data model does not prevent.
	ErrCycleDetected = errors.New("account parent cycle detected")

	// ErrOrphanTransaction is an internal guard: a delete would leave a
	// transaction with zero splits without deleting the transaction itself.
	ErrOrphanTransaction = errors.New("transaction would be left with no splits")
)

// MigrationStepError reports a schema upgrade step that could not complete.
// The step is not marked as applied; RowID identifies the offending row when
// the failure was data-related (zero otherwise).
type MigrationStepError struct {
	FromVersion int
	RowID       int64
	Err         error
}

func (e *MigrationStepError) Error() string {
	if e.RowID != 0 {
		return fmt.Sprintf("migration step from version %d failed on row %d: %v", e.FromVersion, e.RowID, e.Err)
	}
	return fmt.Sprintf("migration step from version %d failed: %v", e.FromVersion, e.Err)
}

func (e *MigrationStepError) Unwrap() error {
	return e.Err
}
