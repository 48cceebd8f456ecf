package chart

import (
	"path/filepath"
	"testing"

	"github.com/cashbook-app/cashbook/pkg/db"
	"github.com/cashbook-app/cashbook/pkg/ledger"
)

const testChart = `
currency: USD
accounts:
  - name: Assets
    type: ASSET
    placeholder: true
    children:
      - name: Checking
        type: BANK
      - name: Wallet
        type: CASH
  - name: Expenses
    type: EXPENSE
    placeholder: true
    children:
      - name: Groceries
        type: EXPENSE
  - name: Travel Fund
    type: BANK
    currency: EUR
`

func newTestConnection(t *testing.T) *db.Connection {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "chart.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestParseRejectsUnknownType(t *testing.T) {
	_, err := Parse([]byte("currency: USD\naccounts:\n  - name: Stuff\n    type: JUNK\n"))
	if err == nil {
		t.Error("Parse should reject an unknown account type")
	}
}

func TestParseRejectsMissingCurrency(t *testing.T) {
	_, err := Parse([]byte("accounts:\n  - name: Assets\n    type: ASSET\n"))
	if err == nil {
		t.Error("Parse should reject a chart without a currency")
	}
}

func TestSeedCreatesAccountTree(t *testing.T) {
	chart, err := Parse([]byte(testChart))
	if err != nil {
		t.Fatal(err)
	}
	conn := newTestConnection(t)

	created, err := chart.Seed(conn)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if created != 6 {
		t.Errorf("created = %d, expected 6", created)
	}

	repo := db.NewAccountsRepo(conn)

	rootUID, err := repo.RootUID()
	if err != nil {
		t.Fatal(err)
	}
	if rootUID == "" {
		t.Fatal("Seed should create a root account")
	}

	checking, err := repo.GetByFullName("Assets:Checking")
	if err != nil {
		t.Fatal(err)
	}
	if checking.Type != ledger.AccountBank || checking.CurrencyCode != "USD" {
		t.Errorf("Assets:Checking = %s %s, expected BANK USD", checking.Type, checking.CurrencyCode)
	}

	assets, err := repo.GetByFullName("Assets")
	if err != nil {
		t.Fatal(err)
	}
	if !assets.Placeholder {
		t.Error("Assets should be a placeholder")
	}
	if checking.ParentUID != assets.UID {
		t.Error("Checking should be parented under Assets")
	}
	if assets.ParentUID != rootUID {
		t.Error("top-level entries should be parented under the root")
	}

	// Per-entry currency overrides the chart currency.
	travel, err := repo.GetByFullName("Travel Fund")
	if err != nil {
		t.Fatal(err)
	}
	if travel.CurrencyCode != "EUR" {
		t.Errorf("Travel Fund currency = %s, expected EUR", travel.CurrencyCode)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	chart, err := Parse([]byte(testChart))
	if err != nil {
		t.Fatal(err)
	}
	conn := newTestConnection(t)

	if _, err := chart.Seed(conn); err != nil {
		t.Fatal(err)
	}
	created, err := chart.Seed(conn)
	if err != nil {
		t.Fatal(err)
	}
	if created != 0 {
		t.Errorf("second seed created %d accounts, expected 0", created)
	}

	accounts, err := db.NewAccountsRepo(conn).List()
	if err != nil {
		t.Fatal(err)
	}
	// 6 chart accounts plus the root.
	if len(accounts) != 7 {
		t.Errorf("account count = %d, expected 7", len(accounts))
	}
}
