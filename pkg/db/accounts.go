package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/cashbook-app/cashbook/pkg/ledger"
)

// AccountsRepo provides access to the account tree.
type AccountsRepo struct {
	conn *Connection
}

// NewAccountsRepo creates a new accounts repository.
func NewAccountsRepo(conn *Connection) *AccountsRepo {
	return &AccountsRepo{conn: conn}
}

const accountColumns = `id, uid, name, type, currency_code,
	IFNULL(color_code, ''), favorite, IFNULL(full_name, ''), placeholder,
	IFNULL(parent_account_uid, ''), IFNULL(default_transfer_account_uid, '')`

// Save inserts the account or updates the existing row with the same UID.
// The fully qualified name is recomputed from the parent chain on every save
// so the cached full_name column never goes stale on rename or re-parenting.
func (r *AccountsRepo) Save(account *ledger.Account) error {
	fullName, err := r.qualifiedName(account)
	if err != nil {
		return err
	}
	account.FullName = fullName

	query := `
		INSERT INTO accounts (uid, name, type, currency_code, color_code,
			favorite, full_name, placeholder, parent_account_uid,
			default_transfer_account_uid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			currency_code = excluded.currency_code,
			color_code = excluded.color_code,
			favorite = excluded.favorite,
			full_name = excluded.full_name,
			placeholder = excluded.placeholder,
			parent_account_uid = excluded.parent_account_uid,
			default_transfer_account_uid = excluded.default_transfer_account_uid
	`
	_, err = r.conn.Exec(query,
		account.UID,
		account.Name,
		string(account.Type),
		account.CurrencyCode,
		account.ColorCode,
		boolToInt(account.Favorite),
		account.FullName,
		boolToInt(account.Placeholder),
		account.ParentUID,
		account.DefaultTransferUID,
	)
	if err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.UID, err)
	}
	return nil
}

// GetByUID retrieves an account by its UID.
func (r *AccountsRepo) GetByUID(uid string) (*ledger.Account, error) {
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE uid = ?", accountColumns)
	account, err := scanAccount(r.conn.QueryRow(query, uid))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %s: %w", uid, ledger.ErrDanglingReference)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", uid, err)
	}
	return account, nil
}

// GetByFullName retrieves an account by its fully qualified name.
func (r *AccountsRepo) GetByFullName(fullName string) (*ledger.Account, error) {
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE full_name = ?", accountColumns)
	account, err := scanAccount(r.conn.QueryRow(query, fullName))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %q: %w", fullName, ledger.ErrDanglingReference)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %q: %w", fullName, err)
	}
	return account, nil
}

// List returns all accounts ordered by fully qualified name.
func (r *AccountsRepo) List() ([]*ledger.Account, error) {
	query := fmt.Sprintf("SELECT %s FROM accounts ORDER BY full_name", accountColumns)
	rows, err := r.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()
	return scanAccounts(rows)
}

// Children returns the direct child accounts of the given account.
func (r *AccountsRepo) Children(parentUID string) ([]*ledger.Account, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM accounts WHERE parent_account_uid = ? ORDER BY name", accountColumns)
	rows, err := r.conn.Query(query, parentUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list child accounts: %w", err)
	}
	defer rows.Close()
	return scanAccounts(rows)
}

// RootUID returns the UID of the root account, or empty string if the
// account tree has no designated root.
func (r *AccountsRepo) RootUID() (string, error) {
	var uid string
	err := r.conn.QueryRow(
		"SELECT uid FROM accounts WHERE type = ?", string(ledger.AccountRoot),
	).Scan(&uid)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find root account: %w", err)
	}
	return uid, nil
}

// CurrencyCode returns the currency of the account with the given UID.
func (r *AccountsRepo) CurrencyCode(uid string) (string, error) {
	var code string
	err := r.conn.QueryRow("SELECT currency_code FROM accounts WHERE uid = ?", uid).Scan(&code)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("account %s: %w", uid, ledger.ErrDanglingReference)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get account currency: %w", err)
	}
	return code, nil
}

// Type returns the account type of the account with the given UID.
func (r *AccountsRepo) Type(uid string) (ledger.AccountType, error) {
	var raw string
	err := r.conn.QueryRow("SELECT type FROM accounts WHERE uid = ?", uid).Scan(&raw)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("account %s: %w", uid, ledger.ErrDanglingReference)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get account type: %w", err)
	}
	return ledger.ParseAccountType(raw)
}

// Delete removes the account. Splits referencing it are left in place; the
// foreign key constraint rejects the delete while postings still exist.
func (r *AccountsRepo) Delete(uid string) error {
	if _, err := r.conn.Exec("DELETE FROM accounts WHERE uid = ?", uid); err != nil {
		return fmt.Errorf("failed to delete account %s: %w", uid, err)
	}
	return nil
}

// qualifiedName computes the colon-separated ancestor chain for an account
// that may not be persisted yet, walking stored parents. The root account is
// excluded. Parent cycles fail with ErrCycleDetected.
func (r *AccountsRepo) qualifiedName(account *ledger.Account) (string, error) {
	names := []string{account.Name}
	visited := map[string]bool{account.UID: true}
	parentUID := account.ParentUID

	for depth := 0; parentUID != ""; depth++ {
		if depth > maxAccountDepth || visited[parentUID] {
			return "", fmt.Errorf("account %s: %w", account.UID, ledger.ErrCycleDetected)
		}
		visited[parentUID] = true

		var name, accType string
		var nextParent sql.NullString
		err := r.conn.QueryRow(
			"SELECT name, type, parent_account_uid FROM accounts WHERE uid = ?", parentUID,
		).Scan(&name, &accType, &nextParent)
		if err == sql.ErrNoRows {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to resolve parent account %s: %w", parentUID, err)
		}
		if accType == string(ledger.AccountRoot) {
			break
		}
		names = append([]string{name}, names...)
		parentUID = nextParent.String
	}

	return strings.Join(names, ledger.AccountNameSeparator), nil
}

func scanAccount(row *sql.Row) (*ledger.Account, error) {
	var account ledger.Account
	var accType string
	var favorite, placeholder int
	err := row.Scan(
		&account.ID,
		&account.UID,
		&account.Name,
		&accType,
		&account.CurrencyCode,
		&account.ColorCode,
		&favorite,
		&account.FullName,
		&placeholder,
		&account.ParentUID,
		&account.DefaultTransferUID,
	)
	if err != nil {
		return nil, err
	}
	account.Type = ledger.AccountType(accType)
	account.Favorite = favorite != 0
	account.Placeholder = placeholder != 0
	return &account, nil
}

func scanAccounts(rows *sql.Rows) ([]*ledger.Account, error) {
	var accounts []*ledger.Account
	for rows.Next() {
		var account ledger.Account
		var accType string
		var favorite, placeholder int
		err := rows.Scan(
			&account.ID,
			&account.UID,
			&account.Name,
			&accType,
			&account.CurrencyCode,
			&account.ColorCode,
			&favorite,
			&account.FullName,
			&placeholder,
			&account.ParentUID,
			&account.DefaultTransferUID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		account.Type = ledger.AccountType(accType)
		account.Favorite = favorite != 0
		account.Placeholder = placeholder != 0
		accounts = append(accounts, &account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
