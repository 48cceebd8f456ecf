// Package export renders the ledger into interchange formats: QIF for
// finance tools, OFX bank statements and GnuCash book XML.
package export

import (
	"fmt"
	"io"

	"github.com/cashbook-app/cashbook/pkg/db"
	"github.com/cashbook-app/cashbook/pkg/ledger"
)

// Format identifies an export output format.
type Format string

const (
	FormatQIF       Format = "qif"
	FormatOFX       Format = "ofx"
	FormatXML       Format = "xml"
	FormatBeancount Format = "beancount"
)

// ParseFormat parses a format name as given on the command line.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatQIF, FormatOFX, FormatXML, FormatBeancount:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Extension returns the conventional file extension for the format.
func (f Format) Extension() string {
	return string(f)
}

// Params controls what an exporter emits.
type Params struct {
	// ExportAll includes transactions already flagged as exported.
	// When false only pending transactions are written.
	ExportAll bool
}

// Exporter renders ledger contents to a writer. Generate returns the UIDs of
// the transactions it wrote so the caller can flag them as exported.
type Exporter interface {
	Generate(w io.Writer) ([]string, error)
}

// New returns the exporter for the requested format.
func New(format Format, conn *db.Connection, params Params) (Exporter, error) {
	switch format {
	case FormatQIF:
		return NewQIFExporter(conn, params), nil
	case FormatOFX:
		return NewOFXExporter(conn, params), nil
	case FormatXML:
		return NewXMLExporter(conn, params), nil
	case FormatBeancount:
		return NewBeancountExporter(conn, params), nil
	}
	return nil, fmt.Errorf("unknown export format %q", format)
}

// transactionsFor loads the transactions an exporter should emit, oldest
// first so statements replay in posting order.
func transactionsFor(conn *db.Connection, params Params) ([]*ledger.Transaction, error) {
	if !params.ExportAll {
		return db.NewTransactionsRepo(conn).Unexported()
	}

	txns, err := db.NewTransactionsRepo(conn).All()
	if err != nil {
		return nil, err
	}
	// All() is newest first.
	for i, j := 0, len(txns)-1; i < j; i, j = i+1, j-1 {
		txns[i], txns[j] = txns[j], txns[i]
	}
	return txns, nil
}
