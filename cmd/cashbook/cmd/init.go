package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cashbook-app/cashbook/pkg/chart"
	"github.com/cashbook-app/cashbook/pkg/db"
)

var initChartFile string

// initCmd represents the init command.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a ledger database from a chart of accounts",
	Long: `Create the ledger database and seed it with the account tree from a
chart-of-accounts YAML file.

Running init on an existing ledger is safe: accounts that already exist
are left untouched and only missing ones are created.

Example:
  cashbook init --chart chart.yaml`,
	Run: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initChartFile, "chart", "", "chart-of-accounts YAML file (default is {root}/chart.yaml)")
}

func runInit(cmd *cobra.Command, args []string) {
	_, paths := loadPaths()

	chartPath := initChartFile
	if chartPath == "" {
		chartPath = paths.ChartPath()
	}

	slog.Info("Loading chart of accounts", "path", chartPath)
	accountChart, err := chart.Load(chartPath)
	exitOnError(err, "failed to load chart of accounts")

	dbPath := paths.DatabasePath()
	slog.Debug("Opening database", "path", dbPath)
	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	exitOnError(db.Migrate(conn, slog.Default()), "failed to upgrade database")

	created, err := accountChart.Seed(conn)
	exitOnError(err, "failed to seed accounts")

	fmt.Printf("Ledger initialized at %s (%d accounts created)\n", dbPath, created)
	slog.Info("Ledger initialized", "path", dbPath, "created", created)
}
