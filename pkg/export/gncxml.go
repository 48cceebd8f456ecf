package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/cashbook-app/cashbook/pkg/db"
	"github.com/cashbook-app/cashbook/pkg/ledger"
	"github.com/cashbook-app/cashbook/pkg/money"
)

const (
	gncBookVersion    = "2.0.0"
	gncTimeLayout     = "2006-01-02 15:04:05 -0700"
	gncCommoditySpace = "ISO4217"
)

type gncDocument struct {
	XMLName xml.Name `xml:"gnc-v2"`
	Book    gncBook  `xml:"gnc:book"`
}

type gncBook struct {
	Version      string           `xml:"version,attr"`
	ID           gncGUID          `xml:"book:id"`
	Counts       []gncCountData   `xml:"gnc:count-data"`
	Accounts     []gncAccount     `xml:"gnc:account"`
	Transactions []gncTransaction `xml:"gnc:transaction"`
}

type gncGUID struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

func guid(value string) gncGUID {
	return gncGUID{Type: "guid", Value: value}
}

type gncCountData struct {
	Type  string `xml:"cd:type,attr"`
	Value int    `xml:",chardata"`
}

type gncCommodity struct {
	Space string `xml:"cmdty:space"`
	ID    string `xml:"cmdty:id"`
}

type gncAccount struct {
	Version     string       `xml:"version,attr"`
	Name        string       `xml:"act:name"`
	ID          gncGUID      `xml:"act:id"`
	Type        string       `xml:"act:type"`
	Commodity   gncCommodity `xml:"act:commodity"`
	SCU         int64        `xml:"act:commodity-scu"`
	Description string       `xml:"act:description,omitempty"`
	Parent      *gncGUID     `xml:"act:parent,omitempty"`
}

type gncTimestamp struct {
	Date string `xml:"ts:date"`
}

type gncTransaction struct {
	Version     string       `xml:"version,attr"`
	ID          gncGUID      `xml:"trn:id"`
	Currency    gncCommodity `xml:"trn:currency"`
	DatePosted  gncTimestamp `xml:"trn:date-posted"`
	DateEntered gncTimestamp `xml:"trn:date-entered"`
	Description string       `xml:"trn:description"`
	Splits      gncSplits    `xml:"trn:splits"`
}

type gncSplits struct {
	Splits []gncSplit `xml:"trn:split"`
}

type gncSplit struct {
	ID              gncGUID `xml:"split:id"`
	Memo            string  `xml:"split:memo,omitempty"`
	ReconciledState string  `xml:"split:reconciled-state"`
	Value           string  `xml:"split:value"`
	Quantity        string  `xml:"split:quantity"`
	Account         gncGUID `xml:"split:account"`
}

// XMLExporter writes the whole ledger as a GnuCash v2 book: the full account
// tree followed by every exported transaction with its splits. Amounts are
// written as integer fractions over the currency's smallest unit.
type XMLExporter struct {
	conn   *db.Connection
	params Params
	now    func() time.Time
}

// NewXMLExporter creates a GnuCash XML exporter.
func NewXMLExporter(conn *db.Connection, params Params) *XMLExporter {
	return &XMLExporter{conn: conn, params: params, now: time.Now}
}

// Generate writes the GnuCash book document.
func (e *XMLExporter) Generate(w io.Writer) ([]string, error) {
	accounts, err := db.NewAccountsRepo(e.conn).List()
	if err != nil {
		return nil, err
	}
	txns, err := transactionsFor(e.conn, e.params)
	if err != nil {
		return nil, err
	}

	book := gncBook{
		Version: gncBookVersion,
		ID:      guid(uuid.NewString()),
		Counts: []gncCountData{
			{Type: "account", Value: len(accounts)},
			{Type: "transaction", Value: len(txns)},
		},
	}

	for _, account := range accounts {
		book.Accounts = append(book.Accounts, e.accountNode(account))
	}

	var uids []string
	for _, txn := range txns {
		node, err := e.transactionNode(txn)
		if err != nil {
			return nil, err
		}
		book.Transactions = append(book.Transactions, *node)
		uids = append(uids, txn.UID)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return nil, fmt.Errorf("failed to write XML header: %w", err)
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(gncDocument{Book: book}); err != nil {
		return nil, fmt.Errorf("failed to encode GnuCash book: %w", err)
	}
	return uids, nil
}

func (e *XMLExporter) accountNode(account *ledger.Account) gncAccount {
	node := gncAccount{
		Version: gncBookVersion,
		Name:    account.Name,
		ID:      guid(account.UID),
		Type:    string(account.Type),
		Commodity: gncCommodity{
			Space: gncCommoditySpace,
			ID:    account.CurrencyCode,
		},
		SCU: smallestCurrencyUnit(account.CurrencyCode),
	}
	if account.ParentUID != "" {
		parent := guid(account.ParentUID)
		node.Parent = &parent
	}
	return node
}

func (e *XMLExporter) transactionNode(txn *ledger.Transaction) (*gncTransaction, error) {
	node := &gncTransaction{
		Version: gncBookVersion,
		ID:      guid(txn.UID),
		Currency: gncCommodity{
			Space: gncCommoditySpace,
			ID:    txn.CurrencyCode,
		},
		DatePosted:  gncTimestamp{Date: txn.Timestamp.UTC().Format(gncTimeLayout)},
		DateEntered: gncTimestamp{Date: e.now().UTC().Format(gncTimeLayout)},
		Description: txn.Name,
	}

	for _, split := range txn.Splits() {
		// Split values are signed on the debit side: debits positive,
		// credits negative, independent of the account's polarity.
		value := split.Contribution(true)
		node.Splits.Splits = append(node.Splits.Splits, gncSplit{
			ID:              guid(split.UID),
			Memo:            split.Memo,
			ReconciledState: "n",
			Value:           value.Fraction(),
			Quantity:        value.Fraction(),
			Account:         guid(split.AccountUID),
		})
	}
	return node, nil
}

// smallestCurrencyUnit is the denominator of amounts in the currency, e.g.
// 100 for cent-based currencies.
func smallestCurrencyUnit(currencyCode string) int64 {
	unit := int64(1)
	for i := int32(0); i < money.Scale(currencyCode); i++ {
		unit *= 10
	}
	return unit
}
