package db

import (
	"database/sql"
	"fmt"

	"github.com/cashbook-app/cashbook/pkg/ledger"
	"github.com/cashbook-app/cashbook/pkg/money"
)

// SplitsRepo provides access to individual transaction splits.
type SplitsRepo struct {
	conn *Connection
}

// NewSplitsRepo creates a new splits repository.
func NewSplitsRepo(conn *Connection) *SplitsRepo {
	return &SplitsRepo{conn: conn}
}

// splitColumns joins the owning account to recover the split currency;
// the stored amount is a bare decimal string.
const splitColumns = `s.id, s.uid, IFNULL(s.memo, ''), s.type, s.amount,
	s.account_uid, s.transaction_uid, a.currency_code`

// Save inserts the split or updates the existing row with the same UID.
func (r *SplitsRepo) Save(split *ledger.Split) error {
	query := `
		INSERT INTO splits (uid, memo, type, amount, account_uid, transaction_uid)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET
			memo = excluded.memo,
			type = excluded.type,
			amount = excluded.amount,
			account_uid = excluded.account_uid,
			transaction_uid = excluded.transaction_uid
	`
	_, err := r.conn.Exec(query,
		split.UID,
		split.Memo,
		string(split.Type),
		split.Amount.Abs().String(),
		split.AccountUID,
		split.TransactionUID,
	)
	if err != nil {
		return fmt.Errorf("failed to save split %s: %w", split.UID, err)
	}
	return nil
}

// ForTransaction returns the splits belonging to a transaction.
func (r *SplitsRepo) ForTransaction(transactionUID string) ([]*ledger.Split, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM splits s
		JOIN accounts a ON a.uid = s.account_uid
		WHERE s.transaction_uid = ?
		ORDER BY s.id`, splitColumns)
	return r.query(query, transactionUID)
}

// ForAccount returns the splits posted against an account.
func (r *SplitsRepo) ForAccount(accountUID string) ([]*ledger.Split, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM splits s
		JOIN accounts a ON a.uid = s.account_uid
		WHERE s.account_uid = ?
		ORDER BY s.id`, splitColumns)
	return r.query(query, accountUID)
}

// BalanceForAccount computes the signed balance of an account from all of
// its stored splits, applying the account's normal-balance polarity.
func (r *SplitsRepo) BalanceForAccount(accountUID string) (money.Money, error) {
	accounts := NewAccountsRepo(r.conn)
	account, err := accounts.GetByUID(accountUID)
	if err != nil {
		return money.Money{}, err
	}

	splits, err := r.ForAccount(accountUID)
	if err != nil {
		return money.Money{}, err
	}

	return ledger.ComputeBalance(accountUID, account.Type, account.CurrencyCode, splits), nil
}

// Delete removes a split. A transaction cannot outlive its last split: when
// the removed split was the only one, the owning transaction goes with it.
func (r *SplitsRepo) Delete(uid string) error {
	return r.conn.Transaction(func(tx *sql.Tx) error {
		var transactionUID string
		err := tx.QueryRow(
			"SELECT transaction_uid FROM splits WHERE uid = ?", uid,
		).Scan(&transactionUID)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to look up split %s: %w", uid, err)
		}

		if _, err := tx.Exec("DELETE FROM splits WHERE uid = ?", uid); err != nil {
			return fmt.Errorf("failed to delete split %s: %w", uid, err)
		}

		var remaining int
		err = tx.QueryRow(
			"SELECT COUNT(*) FROM splits WHERE transaction_uid = ?", transactionUID,
		).Scan(&remaining)
		if err != nil {
			return fmt.Errorf("failed to count remaining splits: %w", err)
		}
		if remaining == 0 {
			if _, err := tx.Exec(
				"DELETE FROM transactions WHERE uid = ?", transactionUID,
			); err != nil {
				return fmt.Errorf("failed to delete emptied transaction %s: %w", transactionUID, err)
			}
		}
		return nil
	})
}

// Count returns the number of stored splits.
func (r *SplitsRepo) Count() (int, error) {
	var count int
	if err := r.conn.QueryRow("SELECT COUNT(*) FROM splits").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count splits: %w", err)
	}
	return count, nil
}

func (r *SplitsRepo) query(query string, args ...interface{}) ([]*ledger.Split, error) {
	rows, err := r.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query splits: %w", err)
	}
	defer rows.Close()

	var splits []*ledger.Split
	for rows.Next() {
		var split ledger.Split
		var splitType, amount, currencyCode string
		err := rows.Scan(
			&split.ID,
			&split.UID,
			&split.Memo,
			&splitType,
			&amount,
			&split.AccountUID,
			&split.TransactionUID,
			&currencyCode,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}

		parsedType, err := ledger.ParseTransactionType(splitType)
		if err != nil {
			return nil, err
		}
		split.Type = parsedType

		split.Amount, err = money.New(amount, currencyCode)
		if err != nil {
			return nil, fmt.Errorf("split %s amount %q: %w", split.UID, amount, err)
		}
		splits = append(splits, &split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating splits: %w", err)
	}
	return splits, nil
}
