package db

import "fmt"

// Stats summarizes the contents of a ledger database.
type Stats struct {
	SchemaVersion int
	Accounts      int
	Transactions  int
	Splits        int
}

// GetStats collects row counts and the persisted schema version.
func GetStats(conn *Connection) (*Stats, error) {
	stats := &Stats{}

	version, err := conn.SchemaVersion()
	if err != nil {
		return nil, err
	}
	stats.SchemaVersion = version

	counts := []struct {
		table  string
		target *int
	}{
		{"accounts", &stats.Accounts},
		{"transactions", &stats.Transactions},
		{"splits", &stats.Splits},
	}
	for _, c := range counts {
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", c.table)
		if err := conn.QueryRow(query).Scan(c.target); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}
	return stats, nil
}
