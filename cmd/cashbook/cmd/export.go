package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cashbook-app/cashbook/pkg/db"
	"github.com/cashbook-app/cashbook/pkg/export"
)

var (
	exportFormat string
	exportAll    bool
	exportOut    string
)

// exportCmd represents the export command.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export transactions as QIF, OFX, GnuCash XML or Beancount",
	Long: `Export ledger transactions to an interchange format.

By default only transactions not yet exported are written, and written
transactions are flagged so the next export skips them. Use --all to
export everything regardless of the flag.

Example:
  cashbook export --format qif
  cashbook export --format xml --all --out book.xml`,
	Run: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "qif", "export format: qif, ofx, xml or beancount")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "include transactions already exported")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default is a timestamped file in the export directory)")
}

func runExport(cmd *cobra.Command, args []string) {
	_, paths := loadPaths()

	format, err := export.ParseFormat(exportFormat)
	exitOnError(err, "invalid export format")

	conn, err := db.Open(paths.DatabasePath())
	exitOnError(err, "failed to open database")
	defer conn.Close()

	exitOnError(db.Migrate(conn, slog.Default()), "failed to upgrade database")

	outPath := exportOut
	if outPath == "" {
		outPath = paths.ExportFilePath(format.Extension(), time.Now())
	}
	exitOnError(paths.EnsureParentDir(outPath), "failed to create export directory")

	file, err := os.Create(outPath)
	exitOnError(err, "failed to create export file")

	exporter, err := export.New(format, conn, export.Params{ExportAll: exportAll})
	exitOnError(err, "failed to create exporter")

	slog.Info("Exporting transactions", "format", format, "out", outPath)
	uids, err := exporter.Generate(file)
	if err != nil {
		file.Close()
	}
	exitOnError(err, "failed to generate export")
	exitOnError(file.Close(), "failed to write export file")

	if !exportAll {
		exitOnError(db.NewTransactionsRepo(conn).MarkExported(uids),
			"failed to flag exported transactions")
	}

	fmt.Printf("Exported %d transactions to %s\n", len(uids), outPath)
	slog.Info("Export complete", "transactions", len(uids), "out", outPath)
}
