// Package chart loads a chart-of-accounts definition from YAML and seeds a
// ledger database with the resulting account tree.
package chart

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cashbook-app/cashbook/pkg/db"
	"github.com/cashbook-app/cashbook/pkg/ledger"
)

// Entry is one account definition in the chart. Children inherit the chart
// currency unless they declare their own.
type Entry struct {
	Name        string  `yaml:"name"`
	Type        string  `yaml:"type"`
	Currency    string  `yaml:"currency"`
	Color       string  `yaml:"color"`
	Placeholder bool    `yaml:"placeholder"`
	Children    []Entry `yaml:"children"`
}

// Chart is a complete chart-of-accounts definition.
type Chart struct {
	Currency string  `yaml:"currency"`
	Accounts []Entry `yaml:"accounts"`
}

// Load reads a chart definition from a YAML file.
func Load(path string) (*Chart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart file: %w", err)
	}
	return Parse(data)
}

// Parse parses a chart definition from YAML bytes and validates every
// account type before anything touches the database.
func Parse(data []byte) (*Chart, error) {
	var chart Chart
	if err := yaml.Unmarshal(data, &chart); err != nil {
		return nil, fmt.Errorf("failed to parse chart YAML: %w", err)
	}
	if chart.Currency == "" {
		return nil, fmt.Errorf("chart declares no currency")
	}
	if err := validateEntries(chart.Accounts); err != nil {
		return nil, err
	}
	return &chart, nil
}

func validateEntries(entries []Entry) error {
	for _, entry := range entries {
		if entry.Name == "" {
			return fmt.Errorf("chart entry without a name")
		}
		if _, err := ledger.ParseAccountType(entry.Type); err != nil {
			return fmt.Errorf("chart entry %q: %w", entry.Name, err)
		}
		if err := validateEntries(entry.Children); err != nil {
			return err
		}
	}
	return nil
}

// Seed creates the chart's account tree in the database under a root
// account, creating the root if the database does not have one yet.
// Existing accounts with the same fully qualified name are left untouched,
// so seeding an already-initialized ledger is safe.
func (c *Chart) Seed(conn *db.Connection) (created int, err error) {
	repo := db.NewAccountsRepo(conn)

	rootUID, err := repo.RootUID()
	if err != nil {
		return 0, err
	}
	if rootUID == "" {
		root := ledger.NewAccount("Root Account", ledger.AccountRoot, c.Currency)
		root.Placeholder = true
		if err := repo.Save(root); err != nil {
			return 0, err
		}
		rootUID = root.UID
	}

	return c.seedEntries(repo, c.Accounts, rootUID, "")
}

func (c *Chart) seedEntries(repo *db.AccountsRepo, entries []Entry, parentUID, parentName string) (int, error) {
	created := 0
	for _, entry := range entries {
		fullName := entry.Name
		if parentName != "" {
			fullName = parentName + ledger.AccountNameSeparator + entry.Name
		}

		existing, err := repo.GetByFullName(fullName)
		if err != nil && !isDangling(err) {
			return created, err
		}

		var uid string
		if existing != nil {
			uid = existing.UID
		} else {
			currency := entry.Currency
			if currency == "" {
				currency = c.Currency
			}
			accType, err := ledger.ParseAccountType(entry.Type)
			if err != nil {
				return created, err
			}

			account := ledger.NewAccount(entry.Name, accType, currency)
			account.ParentUID = parentUID
			account.Placeholder = entry.Placeholder
			account.ColorCode = entry.Color
			if err := repo.Save(account); err != nil {
				return created, err
			}
			uid = account.UID
			created++
		}

		n, err := c.seedEntries(repo, entry.Children, uid, fullName)
		created += n
		if err != nil {
			return created, err
		}
	}
	return created, nil
}

func isDangling(err error) bool {
	return errors.Is(err, ledger.ErrDanglingReference)
}
