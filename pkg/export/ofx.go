package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/cashbook-app/cashbook/pkg/db"
	"github.com/cashbook-app/cashbook/pkg/ledger"
)

const (
	// ofxBankID identifies this application as the statement issuer.
	ofxBankID = "cashbook"

	ofxTimeLayout = "20060102150405.000"

	// ofxProcessingInstruction is the OFX 2.x declaration that follows the
	// XML header.
	ofxProcessingInstruction = `<?OFX OFXHEADER="200" VERSION="211" SECURITY="NONE" OLDFILEUID="NONE" NEWFILEUID="NONE"?>`
)

type ofxDocument struct {
	XMLName      xml.Name        `xml:"OFX"`
	BankMessages ofxBankMessages `xml:"BANKMSGSRSV1"`
}

type ofxBankMessages struct {
	Statements []ofxStatementResponse `xml:"STMTTRNRS"`
}

type ofxStatementResponse struct {
	UID       string       `xml:"TRNUID"`
	Statement ofxStatement `xml:"STMTRS"`
}

type ofxStatement struct {
	Currency        string             `xml:"CURDEF"`
	Account         ofxBankAccount     `xml:"BANKACCTFROM"`
	TransactionList ofxTransactionList `xml:"BANKTRANLIST"`
	Balance         ofxLedgerBalance   `xml:"LEDGERBAL"`
}

type ofxBankAccount struct {
	BankID      string `xml:"BANKID"`
	AccountID   string `xml:"ACCTID"`
	AccountType string `xml:"ACCTTYPE"`
}

type ofxTransactionList struct {
	Start        string           `xml:"DTSTART"`
	End          string           `xml:"DTEND"`
	Transactions []ofxTransaction `xml:"STMTTRN"`
}

type ofxTransaction struct {
	Type       string          `xml:"TRNTYPE"`
	DatePosted string          `xml:"DTPOSTED"`
	DateUser   string          `xml:"DTUSER"`
	Amount     string          `xml:"TRNAMT"`
	FITID      string          `xml:"FITID"`
	Name       string          `xml:"NAME"`
	Memo       string          `xml:"MEMO,omitempty"`
	AccountTo  *ofxBankAccount `xml:"BANKACCTTO,omitempty"`
}

type ofxLedgerBalance struct {
	Amount string `xml:"BALAMT"`
	AsOf   string `xml:"DTASOF"`
}

// OFXExporter writes an OFX 2.x statement per account with pending
// transactions. OFX has no native split concept, so each transaction appears
// as its signed balance effect on the statement account, with the
// counter-account noted as the transfer target when there is exactly one.
type OFXExporter struct {
	conn   *db.Connection
	params Params
	now    func() time.Time
}

// NewOFXExporter creates an OFX exporter.
func NewOFXExporter(conn *db.Connection, params Params) *OFXExporter {
	return &OFXExporter{conn: conn, params: params, now: time.Now}
}

// Generate writes the OFX document.
func (e *OFXExporter) Generate(w io.Writer) ([]string, error) {
	txns, err := transactionsFor(e.conn, e.params)
	if err != nil {
		return nil, err
	}
	accounts, err := db.NewAccountsRepo(e.conn).List()
	if err != nil {
		return nil, err
	}
	accountsByUID := make(map[string]*ledger.Account, len(accounts))
	for _, account := range accounts {
		accountsByUID[account.UID] = account
	}

	doc := ofxDocument{}
	exported := map[string]bool{}

	for _, account := range accounts {
		if account.Type == ledger.AccountRoot || account.Placeholder {
			continue
		}

		statement, wrote, err := e.statementFor(account, accountsByUID, txns)
		if err != nil {
			return nil, err
		}
		if statement == nil {
			continue
		}
		doc.BankMessages.Statements = append(doc.BankMessages.Statements, *statement)
		for uid := range wrote {
			exported[uid] = true
		}
	}

	if _, err := io.WriteString(w, xml.Header+ofxProcessingInstruction+"\n"); err != nil {
		return nil, fmt.Errorf("failed to write OFX header: %w", err)
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode OFX document: %w", err)
	}

	uids := make([]string, 0, len(exported))
	for _, txn := range txns {
		if exported[txn.UID] {
			uids = append(uids, txn.UID)
		}
	}
	return uids, nil
}

func (e *OFXExporter) statementFor(account *ledger.Account, accountsByUID map[string]*ledger.Account, txns []*ledger.Transaction) (*ofxStatementResponse, map[string]bool, error) {
	var section []*ledger.Transaction
	for _, txn := range txns {
		if len(txn.SplitsForAccount(account.UID)) > 0 {
			section = append(section, txn)
		}
	}
	if len(section) == 0 {
		return nil, nil, nil
	}

	list := ofxTransactionList{
		Start: section[0].Timestamp.UTC().Format(ofxTimeLayout),
		End:   section[len(section)-1].Timestamp.UTC().Format(ofxTimeLayout),
	}

	wrote := map[string]bool{}
	for _, txn := range section {
		entry := ofxTransaction{
			Type:       string(txn.TypeForAccount(account)),
			DatePosted: txn.Timestamp.UTC().Format(ofxTimeLayout),
			DateUser:   txn.Timestamp.UTC().Format(ofxTimeLayout),
			Amount:     txn.Balance(account).String(),
			FITID:      txn.UID,
			Name:       txn.Name,
		}
		if memo := firstMemo(txn.SplitsForAccount(account.UID)); memo != "" {
			entry.Memo = memo
		}
		if counter := counterAccount(txn, account.UID, accountsByUID); counter != nil {
			entry.AccountTo = &ofxBankAccount{
				BankID:      ofxBankID,
				AccountID:   counter.UID,
				AccountType: ofxAccountType(counter.Type),
			}
		}
		list.Transactions = append(list.Transactions, entry)
		wrote[txn.UID] = true
	}

	balance, err := db.NewSplitsRepo(e.conn).BalanceForAccount(account.UID)
	if err != nil {
		return nil, nil, err
	}

	return &ofxStatementResponse{
		UID: account.UID,
		Statement: ofxStatement{
			Currency: account.CurrencyCode,
			Account: ofxBankAccount{
				BankID:      ofxBankID,
				AccountID:   account.UID,
				AccountType: ofxAccountType(account.Type),
			},
			TransactionList: list,
			Balance: ofxLedgerBalance{
				Amount: balance.String(),
				AsOf:   e.now().UTC().Format(ofxTimeLayout),
			},
		},
	}, wrote, nil
}

func firstMemo(splits []*ledger.Split) string {
	for _, split := range splits {
		if split.Memo != "" {
			return split.Memo
		}
	}
	return ""
}

// counterAccount resolves the transfer target of a two-leg transaction.
func counterAccount(txn *ledger.Transaction, accountUID string, accountsByUID map[string]*ledger.Account) *ledger.Account {
	var other *ledger.Account
	for _, split := range txn.Splits() {
		if split.AccountUID == accountUID {
			continue
		}
		if other != nil {
			return nil
		}
		other = accountsByUID[split.AccountUID]
	}
	return other
}

// ofxAccountType maps account types onto the OFX account type vocabulary.
func ofxAccountType(t ledger.AccountType) string {
	switch t {
	case ledger.AccountCredit, ledger.AccountLiability, ledger.AccountPayable:
		return "CREDITLINE"
	case ledger.AccountBank:
		return "BANK"
	default:
		return "CHECKING"
	}
}
