package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/cashbook-app/cashbook/pkg/db"
	"github.com/cashbook-app/cashbook/pkg/ledger"
)

// QIF line prefixes.
const (
	qifAccountHeader = "!Account"
	qifDatePrefix    = "D"
	qifPayeePrefix   = "P"
	qifAmountPrefix  = "T"
	qifMemoPrefix    = "M"
	qifSplitCategory = "S"
	qifSplitMemo     = "E"
	qifSplitAmount   = "$"
	qifEntryEnd      = "^"
	qifDateLayout    = "2006/01/02"
)

// QIFExporter writes one QIF account section per account that has pending
// transactions, with each transaction's counter-legs as QIF splits.
type QIFExporter struct {
	conn   *db.Connection
	params Params
}

// NewQIFExporter creates a QIF exporter.
func NewQIFExporter(conn *db.Connection, params Params) *QIFExporter {
	return &QIFExporter{conn: conn, params: params}
}

// Generate writes the QIF document.
func (e *QIFExporter) Generate(w io.Writer) ([]string, error) {
	txns, err := transactionsFor(e.conn, e.params)
	if err != nil {
		return nil, err
	}

	accountsRepo := db.NewAccountsRepo(e.conn)
	accounts, err := accountsRepo.List()
	if err != nil {
		return nil, err
	}

	exported := map[string]bool{}
	var b strings.Builder
	for _, account := range accounts {
		if account.Type == ledger.AccountRoot || account.Placeholder {
			continue
		}

		var section []*ledger.Transaction
		for _, txn := range txns {
			if len(txn.SplitsForAccount(account.UID)) > 0 {
				section = append(section, txn)
			}
		}
		if len(section) == 0 {
			continue
		}

		writeQIFAccountHeader(&b, account)
		for _, txn := range section {
			if err := e.writeTransaction(&b, accountsRepo, account, txn); err != nil {
				return nil, err
			}
			exported[txn.UID] = true
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return nil, fmt.Errorf("failed to write QIF output: %w", err)
	}

	uids := make([]string, 0, len(exported))
	for _, txn := range txns {
		if exported[txn.UID] {
			uids = append(uids, txn.UID)
		}
	}
	return uids, nil
}

func writeQIFAccountHeader(b *strings.Builder, account *ledger.Account) {
	fmt.Fprintf(b, "%s\n", qifAccountHeader)
	fmt.Fprintf(b, "N%s\n", account.FullName)
	fmt.Fprintf(b, "T%s\n", qifAccountType(account.Type))
	fmt.Fprintf(b, "%s\n", qifEntryEnd)
	fmt.Fprintf(b, "!Type:%s\n", qifAccountType(account.Type))
}

func (e *QIFExporter) writeTransaction(b *strings.Builder, accountsRepo *db.AccountsRepo, account *ledger.Account, txn *ledger.Transaction) error {
	fmt.Fprintf(b, "%s%s\n", qifDatePrefix, txn.Timestamp.UTC().Format(qifDateLayout))
	if txn.Name != "" {
		fmt.Fprintf(b, "%s%s\n", qifPayeePrefix, txn.Name)
	}
	if txn.Description != "" {
		fmt.Fprintf(b, "%s%s\n", qifMemoPrefix, txn.Description)
	}

	balance := txn.Balance(account)
	fmt.Fprintf(b, "%s%s\n", qifAmountPrefix, balance.String())

	// The counter-legs become QIF splits, negated so they sum back to the
	// transaction amount from this account's point of view.
	for _, split := range txn.Splits() {
		if split.AccountUID == account.UID {
			continue
		}

		category := imbalanceAccountName(txn.CurrencyCode)
		if split.AccountUID != "" {
			other, err := accountsRepo.GetByUID(split.AccountUID)
			if err != nil {
				return err
			}
			category = other.FullName
		}
		fmt.Fprintf(b, "%s%s\n", qifSplitCategory, category)
		if split.Memo != "" {
			fmt.Fprintf(b, "%s%s\n", qifSplitMemo, split.Memo)
		}
		fmt.Fprintf(b, "%s%s\n", qifSplitAmount, split.Contribution(account.Type.HasDebitNormalBalance()).String())
	}

	fmt.Fprintf(b, "%s\n", qifEntryEnd)
	return nil
}

// qifAccountType maps account types onto the QIF type vocabulary.
func qifAccountType(t ledger.AccountType) string {
	switch t {
	case ledger.AccountCash:
		return "Cash"
	case ledger.AccountBank, ledger.AccountCurrency, ledger.AccountMutual, ledger.AccountStock:
		return "Bank"
	case ledger.AccountCredit:
		return "CCard"
	case ledger.AccountLiability, ledger.AccountPayable, ledger.AccountEquity:
		return "Oth L"
	default:
		return "Oth A"
	}
}

// imbalanceAccountName is the fallback category for splits that reference
// no account.
func imbalanceAccountName(currencyCode string) string {
	return "Imbalance-" + currencyCode
}
