package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/cashbook-app/cashbook/pkg/db"
	"github.com/cashbook-app/cashbook/pkg/ledger"
)

// beancountAmountColumn is the column postings are padded to so amounts
// line up.
const beancountAmountColumn = 50

// BeancountExporter writes the ledger as Beancount plain-text directives,
// one transaction per directive with a posting per split.
type BeancountExporter struct {
	conn   *db.Connection
	params Params
}

// NewBeancountExporter creates a Beancount exporter.
func NewBeancountExporter(conn *db.Connection, params Params) *BeancountExporter {
	return &BeancountExporter{conn: conn, params: params}
}

// Generate writes the Beancount document.
func (e *BeancountExporter) Generate(w io.Writer) ([]string, error) {
	txns, err := transactionsFor(e.conn, e.params)
	if err != nil {
		return nil, err
	}
	accounts, err := db.NewAccountsRepo(e.conn).List()
	if err != nil {
		return nil, err
	}
	namesByUID := make(map[string]string, len(accounts))
	for _, account := range accounts {
		namesByUID[account.UID] = beancountAccountName(account.FullName)
	}

	var b strings.Builder
	var uids []string
	for _, txn := range txns {
		e.writeTransaction(&b, txn, namesByUID)
		uids = append(uids, txn.UID)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return nil, fmt.Errorf("failed to write Beancount output: %w", err)
	}
	return uids, nil
}

func (e *BeancountExporter) writeTransaction(b *strings.Builder, txn *ledger.Transaction, namesByUID map[string]string) {
	b.WriteString(txn.Timestamp.UTC().Format("2006-01-02"))
	b.WriteString(" *")
	b.WriteString(fmt.Sprintf(" %q", txn.Name))
	b.WriteString("\n")

	for _, split := range txn.Splits() {
		account := namesByUID[split.AccountUID]
		if account == "" {
			account = beancountAccountName(imbalanceAccountName(txn.CurrencyCode))
		}

		b.WriteString("  ")
		b.WriteString(account)
		if padding := beancountAmountColumn - 2 - len(account); padding > 0 {
			b.WriteString(strings.Repeat(" ", padding))
		} else {
			b.WriteString(" ")
		}

		// Beancount postings are signed on the debit side.
		amount := split.Contribution(true)
		b.WriteString(fmt.Sprintf("%s %s", amount.String(), split.Amount.CurrencyCode()))
		if split.Memo != "" {
			b.WriteString(fmt.Sprintf(" ; %s", split.Memo))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// beancountAccountName makes a fully qualified name legal in Beancount:
// colon-separated segments with no spaces.
func beancountAccountName(fullName string) string {
	return strings.ReplaceAll(fullName, " ", "-")
}
