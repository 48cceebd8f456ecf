package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cashbook-app/cashbook/pkg/db"
)

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Upgrade the ledger database to the current schema",
	Long: `Upgrade a ledger database created by an older release to the current
schema version.

Upgrades are applied step by step and each step runs in its own SQL
transaction, so a failure leaves the database at the last completed
version. Running migrate on a current database is a no-op.

Example:
  cashbook migrate`,
	Run: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) {
	_, paths := loadPaths()

	dbPath := paths.DatabasePath()
	slog.Debug("Opening database", "path", dbPath)
	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	before, err := conn.SchemaVersion()
	exitOnError(err, "failed to read schema version")

	exitOnError(db.Migrate(conn, slog.Default()), "failed to upgrade database")

	after, err := conn.SchemaVersion()
	exitOnError(err, "failed to read schema version")

	if before == after {
		fmt.Printf("Database is already at version %d\n", after)
	} else {
		fmt.Printf("Database upgraded from version %d to %d\n", before, after)
	}
}
