package db

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/cashbook-app/cashbook/pkg/ledger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newLegacyDB creates a database file with the given pre-split schema and
// version stamp, then opens it through the normal connection path.
func newLegacyDB(t *testing.T, version int, schema string, seed func(*sql.DB)) *Connection {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "legacy.db")
	raw, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := raw.Exec(schema); err != nil {
		t.Fatalf("failed to create legacy schema: %v", err)
	}
	if seed != nil {
		seed(raw)
	}
	if _, err := raw.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		t.Fatal(err)
	}
	if err := raw.Close(); err != nil {
		t.Fatal(err)
	}

	conn, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open legacy database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

const legacyV1Schema = `
CREATE TABLE accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uid VARCHAR(255) NOT NULL UNIQUE,
    name VARCHAR(255) NOT NULL,
    type VARCHAR(255) NOT NULL,
    currency_code VARCHAR(255) NOT NULL
);
CREATE TABLE transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uid VARCHAR(255) NOT NULL UNIQUE,
    name VARCHAR(255),
    description TEXT,
    amount VARCHAR(255) NOT NULL,
    type VARCHAR(255) NOT NULL,
    timestamp INTEGER NOT NULL,
    exported TINYINT DEFAULT 0,
    account_uid VARCHAR(255)
);
`

const legacyV2Schema = `
CREATE TABLE accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uid VARCHAR(255) NOT NULL UNIQUE,
    name VARCHAR(255) NOT NULL,
    type VARCHAR(255) NOT NULL,
    currency_code VARCHAR(255) NOT NULL,
    parent_account_uid VARCHAR(255)
);
CREATE TABLE transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uid VARCHAR(255) NOT NULL UNIQUE,
    name VARCHAR(255),
    description TEXT,
    amount VARCHAR(255) NOT NULL,
    type VARCHAR(255) NOT NULL,
    timestamp INTEGER NOT NULL,
    exported TINYINT DEFAULT 0,
    account_uid VARCHAR(255),
    double_account_uid VARCHAR(255)
);
`

func TestMigrateFromV1(t *testing.T) {
	conn := newLegacyDB(t, 1, legacyV1Schema, func(raw *sql.DB) {
		mustExec(t, raw,
			`INSERT INTO accounts (uid, name, type, currency_code)
			 VALUES ('acct-checking', 'Checking', 'CHECKING', 'USD')`)
		mustExec(t, raw,
			`INSERT INTO transactions (uid, name, description, amount, type, timestamp, account_uid)
			 VALUES ('txn-1', 'Groceries', 'weekly shop', '50.00', 'DEBIT', 1700000000000, 'acct-checking')`)
	})

	if err := Migrate(conn, testLogger()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	version, err := conn.SchemaVersion()
	if err != nil {
		t.Fatal(err)
	}
	if version != SchemaVersion {
		t.Errorf("schema version = %d, expected %d", version, SchemaVersion)
	}

	// Pre-double-entry account kinds collapse to CASH.
	var accType string
	if err := conn.QueryRow(
		"SELECT type FROM accounts WHERE uid = 'acct-checking'").Scan(&accType); err != nil {
		t.Fatal(err)
	}
	if accType != "CASH" {
		t.Errorf("migrated account type = %q, expected CASH", accType)
	}

	// A single-account legacy row converts into exactly one split.
	splits, err := NewSplitsRepo(conn).ForTransaction("txn-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(splits) != 1 {
		t.Fatalf("split count = %d, expected 1", len(splits))
	}
	split := splits[0]
	if split.Type != ledger.TypeDebit {
		t.Errorf("split type = %s, expected DEBIT", split.Type)
	}
	if split.Amount.String() != "50.00" {
		t.Errorf("split amount = %s, expected 50.00", split.Amount)
	}
	if split.Memo != "weekly shop" {
		t.Errorf("split memo = %q, expected description carried over", split.Memo)
	}

	var currencyCode string
	if err := conn.QueryRow(
		"SELECT currency_code FROM transactions WHERE uid = 'txn-1'").Scan(&currencyCode); err != nil {
		t.Fatal(err)
	}
	if currencyCode != "USD" {
		t.Errorf("backfilled currency = %q, expected USD", currencyCode)
	}
}

func TestMigrateConvertsDoubleEntryRowToPairedSplits(t *testing.T) {
	conn := newLegacyDB(t, 2, legacyV2Schema, func(raw *sql.DB) {
		mustExec(t, raw,
			`INSERT INTO accounts (uid, name, type, currency_code) VALUES
			 ('acct-checking', 'Checking', 'CASH', 'USD'),
			 ('acct-groceries', 'Groceries', 'EXPENSE', 'USD')`)
		mustExec(t, raw,
			`INSERT INTO transactions (uid, name, amount, type, timestamp, account_uid, double_account_uid)
			 VALUES ('txn-1', 'Groceries', '50.00', 'DEBIT', 1700000000000, 'acct-checking', 'acct-groceries')`)
	})

	if err := Migrate(conn, testLogger()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	splits, err := NewSplitsRepo(conn).ForTransaction("txn-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(splits) != 2 {
		t.Fatalf("split count = %d, expected 2", len(splits))
	}

	primary, pair := splits[0], splits[1]
	if primary.AccountUID != "acct-checking" || primary.Type != ledger.TypeDebit {
		t.Errorf("primary split = %s on %s, expected DEBIT on acct-checking",
			primary.Type, primary.AccountUID)
	}
	if pair.AccountUID != "acct-groceries" || pair.Type != ledger.TypeCredit {
		t.Errorf("pair split = %s on %s, expected CREDIT on acct-groceries",
			pair.Type, pair.AccountUID)
	}

	// Both accounts are debit-normal so the contributions must cancel.
	sum, err := primary.Contribution(true).Add(pair.Contribution(true))
	if err != nil {
		t.Fatal(err)
	}
	if !sum.IsZero() {
		t.Errorf("converted pair nets %s, expected zero", sum)
	}
}

func TestMigrateBackfillsQualifiedNames(t *testing.T) {
	conn := newLegacyDB(t, 2, legacyV2Schema, func(raw *sql.DB) {
		mustExec(t, raw,
			`INSERT INTO accounts (uid, name, type, currency_code, parent_account_uid) VALUES
			 ('acct-root', 'Root', 'ROOT', 'USD', NULL),
			 ('acct-assets', 'Assets', 'ASSET', 'USD', 'acct-root'),
			 ('acct-checking', 'Checking', 'BANK', 'USD', 'acct-assets')`)
	})

	if err := Migrate(conn, testLogger()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	tests := []struct {
		uid      string
		expected string
	}{
		{"acct-root", "Root"},
		{"acct-assets", "Assets"},
		{"acct-checking", "Assets:Checking"},
	}
	for _, tt := range tests {
		var fullName string
		if err := conn.QueryRow(
			"SELECT full_name FROM accounts WHERE uid = ?", tt.uid).Scan(&fullName); err != nil {
			t.Fatal(err)
		}
		if fullName != tt.expected {
			t.Errorf("full_name of %s = %q, expected %q", tt.uid, fullName, tt.expected)
		}
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	conn := newLegacyDB(t, 2, legacyV2Schema, func(raw *sql.DB) {
		mustExec(t, raw,
			`INSERT INTO accounts (uid, name, type, currency_code) VALUES
			 ('acct-checking', 'Checking', 'CASH', 'USD')`)
		mustExec(t, raw,
			`INSERT INTO transactions (uid, amount, type, timestamp, account_uid)
			 VALUES ('txn-1', '10.00', 'CREDIT', 1700000000000, 'acct-checking')`)
	})

	if err := Migrate(conn, testLogger()); err != nil {
		t.Fatalf("first Migrate: %v", err)
	}
	if err := Migrate(conn, testLogger()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	count, err := NewSplitsRepo(conn).Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("split count after re-run = %d, expected 1", count)
	}
}

func TestMigrateReportsDanglingAccount(t *testing.T) {
	conn := newLegacyDB(t, 2, legacyV2Schema, func(raw *sql.DB) {
		mustExec(t, raw,
			`INSERT INTO transactions (uid, amount, type, timestamp, account_uid)
			 VALUES ('txn-bad', '10.00', 'DEBIT', 1700000000000, 'acct-missing')`)
	})

	err := Migrate(conn, testLogger())
	if err == nil {
		t.Fatal("Migrate should fail on a transaction with a missing account")
	}

	var stepErr *ledger.MigrationStepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("error = %v, expected *MigrationStepError", err)
	}
	if stepErr.FromVersion != 6 {
		t.Errorf("failing step = %d, expected 6", stepErr.FromVersion)
	}
	if stepErr.RowID == 0 {
		t.Error("step error should identify the offending row")
	}
	if !errors.Is(err, ledger.ErrDanglingReference) {
		t.Errorf("error = %v, expected to wrap ErrDanglingReference", err)
	}

	// The row-level step error surfaces once; it must not be rewrapped in a
	// second step error on the way out.
	var nested *ledger.MigrationStepError
	if errors.As(stepErr.Err, &nested) {
		t.Errorf("step error is double-wrapped: %v", err)
	}

	// The failed step must roll back entirely.
	version, err := conn.SchemaVersion()
	if err != nil {
		t.Fatal(err)
	}
	if version != 6 {
		t.Errorf("version after failed step = %d, expected 6", version)
	}
}

func TestMigrateReportsMalformedAmount(t *testing.T) {
	conn := newLegacyDB(t, 2, legacyV2Schema, func(raw *sql.DB) {
		mustExec(t, raw,
			`INSERT INTO accounts (uid, name, type, currency_code) VALUES
			 ('acct-checking', 'Checking', 'CASH', 'USD')`)
		mustExec(t, raw,
			`INSERT INTO transactions (uid, amount, type, timestamp, account_uid)
			 VALUES ('txn-bad', 'fifty', 'DEBIT', 1700000000000, 'acct-checking')`)
	})

	err := Migrate(conn, testLogger())
	if !errors.Is(err, ledger.ErrInvalidAmountFormat) {
		t.Errorf("error = %v, expected to wrap ErrInvalidAmountFormat", err)
	}
}

func TestMigrateDetectsParentCycle(t *testing.T) {
	conn := newLegacyDB(t, 2, legacyV2Schema, func(raw *sql.DB) {
		mustExec(t, raw,
			`INSERT INTO accounts (uid, name, type, currency_code, parent_account_uid) VALUES
			 ('acct-a', 'A', 'CASH', 'USD', 'acct-b'),
			 ('acct-b', 'B', 'CASH', 'USD', 'acct-a')`)
	})

	err := Migrate(conn, testLogger())
	if !errors.Is(err, ledger.ErrCycleDetected) {
		t.Errorf("error = %v, expected to wrap ErrCycleDetected", err)
	}

	var stepErr *ledger.MigrationStepError
	if errors.As(err, &stepErr) && stepErr.FromVersion != 5 {
		t.Errorf("failing step = %d, expected 5", stepErr.FromVersion)
	}
}

func TestFreshDatabaseNeedsNoMigration(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fresh.db")
	conn, err := Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	version, err := conn.SchemaVersion()
	if err != nil {
		t.Fatal(err)
	}
	if version != SchemaVersion {
		t.Errorf("fresh database version = %d, expected %d", version, SchemaVersion)
	}

	if err := Migrate(conn, testLogger()); err != nil {
		t.Errorf("Migrate on current database: %v", err)
	}
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...interface{}) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}
