// Package db provides SQLite persistence for the ledger: accounts,
// transactions and splits, plus the schema migration engine that brings
// databases created by older releases forward to the current layout.
package db

import "fmt"

// SchemaVersion is the schema version this release reads and writes.
// Databases at a lower version are upgraded by the migration engine.
const SchemaVersion = 7

// Schema defines the SQL statements to create the current database tables.
const Schema = `
-- Account tree
-- full_name is the denormalized colon-separated ancestor chain
CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uid VARCHAR(255) NOT NULL,
    name VARCHAR(255) NOT NULL,
    type VARCHAR(255) NOT NULL,
    currency_code VARCHAR(255) NOT NULL,
    color_code VARCHAR(255),
    favorite TINYINT DEFAULT 0,
    full_name VARCHAR(255),
    placeholder TINYINT DEFAULT 0,
    parent_account_uid VARCHAR(255),
    default_transfer_account_uid VARCHAR(255),
    UNIQUE (uid)
);

-- Transaction headers; amounts live in the splits table
CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uid VARCHAR(255) NOT NULL,
    name VARCHAR(255),
    description TEXT,
    timestamp INTEGER NOT NULL,          -- milliseconds since epoch
    exported TINYINT DEFAULT 0,
    currency_code VARCHAR(255) NOT NULL,
    recurrence_period INTEGER DEFAULT 0, -- milliseconds, 0 = non-recurring
    UNIQUE (uid)
);

-- Double-entry legs
-- amount is a non-negative decimal string; the sign lives in type
CREATE TABLE IF NOT EXISTS splits (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uid VARCHAR(255) NOT NULL,
    memo TEXT,
    type VARCHAR(255) NOT NULL,
    amount VARCHAR(255) NOT NULL,
    account_uid VARCHAR(255) NOT NULL,
    transaction_uid VARCHAR(255) NOT NULL,
    FOREIGN KEY (account_uid) REFERENCES accounts (uid),
    FOREIGN KEY (transaction_uid) REFERENCES transactions (uid),
    UNIQUE (uid)
);

CREATE INDEX IF NOT EXISTS idx_splits_transaction_uid
    ON splits(transaction_uid);

CREATE INDEX IF NOT EXISTS idx_splits_account_uid
    ON splits(account_uid);
`

// EnsureSchema creates the current schema on fresh databases and stamps them
// with SchemaVersion. Databases that already contain ledger tables are left
// untouched so the migration engine can inspect their persisted version.
func EnsureSchema(conn *Connection) error {
	var tables int
	err := conn.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'accounts'`,
	).Scan(&tables)
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}
	if tables > 0 {
		return nil
	}

	if _, err := conn.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return fmt.Errorf("failed to stamp schema version: %w", err)
	}
	return nil
}
