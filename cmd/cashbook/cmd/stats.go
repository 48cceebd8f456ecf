package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cashbook-app/cashbook/pkg/db"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display ledger statistics",
	Long: `Display statistics about the ledger database.

Shows:
- Schema version
- Number of accounts
- Number of transactions and splits
- Balance per non-placeholder account

Example:
  cashbook stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	_, paths := loadPaths()

	dbPath := paths.DatabasePath()
	slog.Debug("Opening database", "path", dbPath)

	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	stats, err := db.GetStats(conn)
	exitOnError(err, "failed to get statistics")

	fmt.Println("\n=== Ledger Statistics ===")
	fmt.Printf("Schema version: %d\n", stats.SchemaVersion)
	fmt.Printf("Accounts:       %d\n", stats.Accounts)
	fmt.Printf("Transactions:   %d\n", stats.Transactions)
	fmt.Printf("Splits:         %d\n", stats.Splits)

	accounts, err := db.NewAccountsRepo(conn).List()
	exitOnError(err, "failed to list accounts")

	splitsRepo := db.NewSplitsRepo(conn)
	fmt.Println("\nBalances:")
	for _, account := range accounts {
		if account.Placeholder {
			continue
		}
		balance, err := splitsRepo.BalanceForAccount(account.UID)
		exitOnError(err, "failed to compute balance")
		fmt.Printf("  %-40s %s\n", account.FullName, balance.Display())
	}
	fmt.Println()
}
