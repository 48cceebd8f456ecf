package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cashbook-app/cashbook/pkg/ledger"
	"github.com/cashbook-app/cashbook/pkg/money"
)

// maxAccountDepth bounds the parent-account walk during full name
// resolution. The legacy data model does not structurally prevent cycles,
// so the walk must terminate even on corrupt data.
const maxAccountDepth = 100

// migrationStep upgrades the database from exactly FromVersion to
// FromVersion+1. Each step runs inside a single SQL transaction together with
// the version bump, so a failure leaves the store at the prior version.
type migrationStep struct {
	FromVersion int
	Description string
	Apply       func(tx *sql.Tx) error
}

// migrationSteps is the forward-only upgrade chain. Steps are gated on the
// persisted version, which makes re-running the migration a no-op once the
// version has advanced.
var migrationSteps = []migrationStep{
	{
		FromVersion: 1,
		Description: "double-entry account column and account hierarchy",
		Apply:       migrateDoubleEntryColumns,
	},
	{
		FromVersion: 2,
		Description: "placeholder account flag",
		Apply:       migratePlaceholderFlag,
	},
	{
		FromVersion: 3,
		Description: "recurrence period, default transfer account and account color",
		Apply:       migrateRecurrenceAndDefaults,
	},
	{
		FromVersion: 4,
		Description: "favorite account flag",
		Apply:       migrateFavoriteFlag,
	},
	{
		FromVersion: 5,
		Description: "denormalized fully qualified account names",
		Apply:       migrateFullAccountNames,
	},
	{
		FromVersion: 6,
		Description: "split-based multi-currency ledger",
		Apply:       migrateSingleEntryToSplits,
	},
}

// Migrate brings the database forward to SchemaVersion by applying the
// pending upgrade steps in order. Already-applied steps remain applied; there
// is no rollback across steps. If the chain ends short of the target version
// the mismatch is reported as a warning rather than an error, matching the
// store-open contract: the caller decides whether to continue degraded.
func Migrate(conn *Connection, log *slog.Logger) error {
	current, err := conn.SchemaVersion()
	if err != nil {
		return err
	}
	if current >= SchemaVersion {
		log.Debug("Schema is current", "version", current)
		return nil
	}

	log.Info("Upgrading ledger database", "from", current, "to", SchemaVersion)

	for _, step := range migrationSteps {
		if step.FromVersion != current || current >= SchemaVersion {
			continue
		}

		log.Info("Applying migration step",
			"from", step.FromVersion,
			"to", step.FromVersion+1,
			"description", step.Description,
		)

		err := conn.Transaction(func(tx *sql.Tx) error {
			if err := step.Apply(tx); err != nil {
				return err
			}
			if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", step.FromVersion+1)); err != nil {
				return fmt.Errorf("failed to advance schema version: %w", err)
			}
			return nil
		})
		if err != nil {
			var stepErr *ledger.MigrationStepError
			if errors.As(err, &stepErr) {
				return err
			}
			return &ledger.MigrationStepError{FromVersion: step.FromVersion, Err: err}
		}

		current = step.FromVersion + 1
	}

	if current != SchemaVersion {
		log.Warn("Migration ended short of the target version",
			"reached", current,
			"target", SchemaVersion,
		)
	}
	return nil
}

func migrateDoubleEntryColumns(tx *sql.Tx) error {
	stmts := []string{
		"ALTER TABLE transactions ADD COLUMN double_account_uid VARCHAR(255)",
		"ALTER TABLE accounts ADD COLUMN parent_account_uid VARCHAR(255)",
		// Pre-double-entry databases only knew a single checking-style kind;
		// remap everything to CASH before account types become meaningful.
		fmt.Sprintf("UPDATE accounts SET type = '%s'", ledger.AccountCash),
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to exec %q: %w", stmt, err)
		}
	}
	return nil
}

func migratePlaceholderFlag(tx *sql.Tx) error {
	_, err := tx.Exec("ALTER TABLE accounts ADD COLUMN placeholder TINYINT DEFAULT 0")
	if err != nil {
		return fmt.Errorf("failed to add placeholder column: %w", err)
	}
	return nil
}

func migrateRecurrenceAndDefaults(tx *sql.Tx) error {
	stmts := []string{
		"ALTER TABLE transactions ADD COLUMN recurrence_period INTEGER DEFAULT 0",
		"ALTER TABLE accounts ADD COLUMN default_transfer_account_uid VARCHAR(255)",
		"ALTER TABLE accounts ADD COLUMN color_code VARCHAR(255)",
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to exec %q: %w", stmt, err)
		}
	}
	return nil
}

func migrateFavoriteFlag(tx *sql.Tx) error {
	_, err := tx.Exec("ALTER TABLE accounts ADD COLUMN favorite TINYINT DEFAULT 0")
	if err != nil {
		return fmt.Errorf("failed to add favorite column: %w", err)
	}
	return nil
}

// migrateFullAccountNames adds the full_name cache column and backfills it
// for every account by walking the parent chain up to the root account.
func migrateFullAccountNames(tx *sql.Tx) error {
	if _, err := tx.Exec("ALTER TABLE accounts ADD COLUMN full_name VARCHAR(255)"); err != nil {
		return fmt.Errorf("failed to add full_name column: %w", err)
	}

	accounts, err := loadAccountNodes(tx)
	if err != nil {
		return err
	}
	rootUID := findRootUID(accounts)

	for _, account := range accounts {
		fullName, err := qualifiedNameFromNodes(accounts, account.uid, rootUID)
		if err != nil {
			return &ledger.MigrationStepError{FromVersion: 5, RowID: account.id, Err: err}
		}
		if _, err := tx.Exec("UPDATE accounts SET full_name = ? WHERE id = ?", fullName, account.id); err != nil {
			return fmt.Errorf("failed to backfill full name for account %s: %w", account.uid, err)
		}
	}
	return nil
}

// legacyTransactionRow is a pre-split transaction row: a single signed amount
// against one account, with an optional second double-entry account.
type legacyTransactionRow struct {
	id               int64
	uid              string
	description      sql.NullString
	amount           string
	txType           string
	accountUID       sql.NullString
	doubleAccountUID sql.NullString
}

// migrateSingleEntryToSplits converts every legacy single-amount transaction
// row into one or two splits, resolving the currency from the primary account
// and backfilling it onto the transaction. A row that cannot be converted
// aborts the step identifying the offending row: silently dropping postings
// would corrupt the ledger balance invariant.
func migrateSingleEntryToSplits(tx *sql.Tx) error {
	stmts := []string{
		strings.TrimSpace(Schema), // creates the splits table; other tables exist
		"ALTER TABLE transactions ADD COLUMN currency_code VARCHAR(255)",
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to exec migration DDL: %w", err)
		}
	}

	legacyRows, err := loadLegacyTransactionRows(tx)
	if err != nil {
		return err
	}

	for _, row := range legacyRows {
		if err := convertLegacyRow(tx, row); err != nil {
			var stepErr *ledger.MigrationStepError
			if errors.As(err, &stepErr) {
				return err
			}
			return &ledger.MigrationStepError{FromVersion: 6, RowID: row.id, Err: err}
		}
	}
	return nil
}

func loadLegacyTransactionRows(tx *sql.Tx) ([]legacyTransactionRow, error) {
	rows, err := tx.Query(
		`SELECT id, uid, description, amount, type, account_uid, double_account_uid FROM transactions`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query legacy transactions: %w", err)
	}
	defer rows.Close()

	var result []legacyTransactionRow
	for rows.Next() {
		var row legacyTransactionRow
		if err := rows.Scan(
			&row.id,
			&row.uid,
			&row.description,
			&row.amount,
			&row.txType,
			&row.accountUID,
			&row.doubleAccountUID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan legacy transaction: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating legacy transactions: %w", err)
	}
	return result, nil
}

func convertLegacyRow(tx *sql.Tx, row legacyTransactionRow) error {
	if !row.accountUID.Valid || row.accountUID.String == "" {
		return fmt.Errorf("transaction references no account: %w", ledger.ErrDanglingReference)
	}

	currencyCode, err := accountCurrency(tx, row.accountUID.String)
	if err != nil {
		return err
	}

	amount, err := money.New(row.amount, currencyCode)
	if err != nil {
		return fmt.Errorf("legacy amount %q: %w", row.amount, err)
	}

	splitType, err := ledger.ParseTransactionType(row.txType)
	if err != nil {
		return err
	}

	split, err := ledger.NewSplit(amount.Abs(), row.accountUID.String)
	if err != nil {
		return err
	}
	split.TransactionUID = row.uid
	split.Type = splitType
	if row.description.Valid {
		split.Memo = row.description.String
	}

	if err := insertSplit(tx, split); err != nil {
		return err
	}

	if row.doubleAccountUID.Valid && row.doubleAccountUID.String != "" {
		pair, err := split.CreatePair(row.doubleAccountUID.String)
		if err != nil {
			return err
		}
		pair.TransactionUID = row.uid
		if err := insertSplit(tx, pair); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(
		"UPDATE transactions SET currency_code = ? WHERE uid = ?", currencyCode, row.uid,
	); err != nil {
		return fmt.Errorf("failed to backfill transaction currency: %w", err)
	}
	return nil
}

func insertSplit(tx *sql.Tx, split *ledger.Split) error {
	_, err := tx.Exec(
		`INSERT INTO splits (uid, memo, type, amount, account_uid, transaction_uid)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		split.UID,
		split.Memo,
		string(split.Type),
		split.Amount.Abs().String(),
		split.AccountUID,
		split.TransactionUID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert split: %w", err)
	}
	return nil
}

func accountCurrency(tx *sql.Tx, accountUID string) (string, error) {
	var currencyCode string
	err := tx.QueryRow(
		"SELECT currency_code FROM accounts WHERE uid = ?", accountUID,
	).Scan(&currencyCode)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("account %s: %w", accountUID, ledger.ErrDanglingReference)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve account currency: %w", err)
	}
	return currencyCode, nil
}

// accountNode is the in-memory shape of an account row during migration.
type accountNode struct {
	id        int64
	uid       string
	name      string
	accType   string
	parentUID string
}

func loadAccountNodes(tx *sql.Tx) (map[string]accountNode, error) {
	rows, err := tx.Query(
		"SELECT id, uid, name, type, IFNULL(parent_account_uid, '') FROM accounts",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	nodes := make(map[string]accountNode)
	for rows.Next() {
		var node accountNode
		if err := rows.Scan(&node.id, &node.uid, &node.name, &node.accType, &node.parentUID); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		nodes[node.uid] = node
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return nodes, nil
}

func findRootUID(nodes map[string]accountNode) string {
	for _, node := range nodes {
		if node.accType == string(ledger.AccountRoot) {
			return node.uid
		}
	}
	return ""
}

// qualifiedNameFromNodes walks the parent chain of an account and joins the
// ancestor names with ":". The root account terminates the walk and is
// excluded from the name. Revisiting an account or exceeding the depth bound
// fails with ErrCycleDetected instead of recursing forever.
func qualifiedNameFromNodes(nodes map[string]accountNode, accountUID, rootUID string) (string, error) {
	node, ok := nodes[accountUID]
	if !ok {
		return "", fmt.Errorf("account %s: %w", accountUID, ledger.ErrDanglingReference)
	}

	names := []string{node.name}
	visited := map[string]bool{accountUID: true}

	for depth := 0; ; depth++ {
		if depth > maxAccountDepth {
			return "", fmt.Errorf("account %s exceeds depth %d: %w", accountUID, maxAccountDepth, ledger.ErrCycleDetected)
		}
		parentUID := node.parentUID
		if parentUID == "" || parentUID == rootUID {
			break
		}
		parent, ok := nodes[parentUID]
		if !ok {
			// A missing parent terminates the chain like the root does;
			// the leaf side of the name is still meaningful.
			break
		}
		if visited[parentUID] {
			return "", fmt.Errorf("account %s: %w", accountUID, ledger.ErrCycleDetected)
		}
		visited[parentUID] = true
		names = append([]string{parent.name}, names...)
		node = parent
	}

	return strings.Join(names, ledger.AccountNameSeparator), nil
}
