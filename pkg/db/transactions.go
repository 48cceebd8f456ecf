package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cashbook-app/cashbook/pkg/ledger"
)

// TransactionsRepo provides access to transactions and their splits.
type TransactionsRepo struct {
	conn   *Connection
	splits *SplitsRepo
}

// NewTransactionsRepo creates a new transactions repository.
func NewTransactionsRepo(conn *Connection) *TransactionsRepo {
	return &TransactionsRepo{conn: conn, splits: NewSplitsRepo(conn)}
}

const transactionColumns = `id, uid, IFNULL(name, ''), IFNULL(description, ''),
	timestamp, exported, currency_code, recurrence_period`

// Save persists the transaction header and all of its splits atomically.
// Splits previously stored for the transaction but absent from the aggregate
// are removed, so the stored posting always mirrors the in-memory one.
func (r *TransactionsRepo) Save(txn *ledger.Transaction) error {
	if len(txn.Splits()) == 0 {
		return fmt.Errorf("transaction %s: %w", txn.UID, ledger.ErrOrphanTransaction)
	}
	return r.conn.Transaction(func(tx *sql.Tx) error {
		query := `
			INSERT INTO transactions (uid, name, description, timestamp,
				exported, currency_code, recurrence_period)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(uid) DO UPDATE SET
				name = excluded.name,
				description = excluded.description,
				timestamp = excluded.timestamp,
				exported = excluded.exported,
				currency_code = excluded.currency_code,
				recurrence_period = excluded.recurrence_period
		`
		_, err := tx.Exec(query,
			txn.UID,
			txn.Name,
			txn.Description,
			txn.Timestamp.UnixMilli(),
			boolToInt(txn.Exported),
			txn.CurrencyCode,
			txn.RecurrencePeriod.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", txn.UID, err)
		}

		if _, err := tx.Exec("DELETE FROM splits WHERE transaction_uid = ?", txn.UID); err != nil {
			return fmt.Errorf("failed to replace splits for %s: %w", txn.UID, err)
		}
		for _, split := range txn.Splits() {
			if err := insertSplit(tx, split); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByUID retrieves a transaction with its splits by UID.
func (r *TransactionsRepo) GetByUID(uid string) (*ledger.Transaction, error) {
	query := fmt.Sprintf("SELECT %s FROM transactions WHERE uid = ?", transactionColumns)
	row := r.conn.QueryRow(query, uid)

	txn, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %s: %w", uid, ledger.ErrDanglingReference)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", uid, err)
	}

	splits, err := r.splits.ForTransaction(uid)
	if err != nil {
		return nil, err
	}
	if err := txn.SetSplits(splits); err != nil {
		return nil, fmt.Errorf("transaction %s: %w", uid, err)
	}
	return txn, nil
}

// All returns every transaction with splits, newest first.
func (r *TransactionsRepo) All() ([]*ledger.Transaction, error) {
	return r.list(fmt.Sprintf(
		"SELECT %s FROM transactions ORDER BY timestamp DESC", transactionColumns))
}

// ForAccount returns the transactions that have at least one split against
// the given account, newest first.
func (r *TransactionsRepo) ForAccount(accountUID string) ([]*ledger.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE uid IN (SELECT DISTINCT transaction_uid FROM splits WHERE account_uid = ?)
		ORDER BY timestamp DESC`, transactionColumns)
	return r.list(query, accountUID)
}

// Unexported returns the transactions not yet marked as exported, oldest
// first so exports replay in posting order.
func (r *TransactionsRepo) Unexported() ([]*ledger.Transaction, error) {
	return r.list(fmt.Sprintf(
		"SELECT %s FROM transactions WHERE exported = 0 ORDER BY timestamp", transactionColumns))
}

// MarkExported flags the given transactions as exported.
func (r *TransactionsRepo) MarkExported(uids []string) error {
	return r.conn.Transaction(func(tx *sql.Tx) error {
		for _, uid := range uids {
			if _, err := tx.Exec(
				"UPDATE transactions SET exported = 1 WHERE uid = ?", uid,
			); err != nil {
				return fmt.Errorf("failed to mark transaction %s exported: %w", uid, err)
			}
		}
		return nil
	})
}

// Delete removes the transaction and all of its splits.
func (r *TransactionsRepo) Delete(uid string) error {
	return r.conn.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM splits WHERE transaction_uid = ?", uid); err != nil {
			return fmt.Errorf("failed to delete splits for %s: %w", uid, err)
		}
		if _, err := tx.Exec("DELETE FROM transactions WHERE uid = ?", uid); err != nil {
			return fmt.Errorf("failed to delete transaction %s: %w", uid, err)
		}
		return nil
	})
}

// Count returns the number of stored transactions.
func (r *TransactionsRepo) Count() (int, error) {
	var count int
	if err := r.conn.QueryRow("SELECT COUNT(*) FROM transactions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func (r *TransactionsRepo) list(query string, args ...interface{}) ([]*ledger.Transaction, error) {
	rows, err := r.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []*ledger.Transaction
	for rows.Next() {
		txn, err := scanTransactionRows(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	for _, txn := range txns {
		splits, err := r.splits.ForTransaction(txn.UID)
		if err != nil {
			return nil, err
		}
		if err := txn.SetSplits(splits); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", txn.UID, err)
		}
	}
	return txns, nil
}

func scanTransaction(row *sql.Row) (*ledger.Transaction, error) {
	var txn ledger.Transaction
	var timestampMillis, recurrenceMillis int64
	var exported int
	err := row.Scan(
		&txn.ID,
		&txn.UID,
		&txn.Name,
		&txn.Description,
		&timestampMillis,
		&exported,
		&txn.CurrencyCode,
		&recurrenceMillis,
	)
	if err != nil {
		return nil, err
	}
	txn.Timestamp = time.UnixMilli(timestampMillis)
	txn.Exported = exported != 0
	txn.RecurrencePeriod = time.Duration(recurrenceMillis) * time.Millisecond
	return &txn, nil
}

func scanTransactionRows(rows *sql.Rows) (*ledger.Transaction, error) {
	var txn ledger.Transaction
	var timestampMillis, recurrenceMillis int64
	var exported int
	err := rows.Scan(
		&txn.ID,
		&txn.UID,
		&txn.Name,
		&txn.Description,
		&timestampMillis,
		&exported,
		&txn.CurrencyCode,
		&recurrenceMillis,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	txn.Timestamp = time.UnixMilli(timestampMillis)
	txn.Exported = exported != 0
	txn.RecurrencePeriod = time.Duration(recurrenceMillis) * time.Millisecond
	return &txn, nil
}
