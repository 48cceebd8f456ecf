// Package pathutil provides centralized path management for the ledger
// database, chart file and export outputs.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PathResolver manages the on-disk layout of a cashbook root directory.
type PathResolver struct {
	root      string
	dbPath    string
	exportDir string
	chartPath string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// Root is the directory for all cashbook files (e.g. ~/cashbook)
	Root string
	// DBPath is the path to the SQLite ledger database file
	DBPath string
	// ExportDir is the directory export files are written to
	ExportDir string
	// ChartPath is the chart-of-accounts YAML file
	ChartPath string
}

// New creates a new PathResolver with the given configuration.
// If DBPath is empty, it defaults to {Root}/cashbook.db
// If ExportDir is empty, it defaults to {Root}/exports
// If ChartPath is empty, it defaults to {Root}/chart.yaml
func New(config Config) *PathResolver {
	dbPath := config.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(config.Root, "cashbook.db")
	}

	exportDir := config.ExportDir
	if exportDir == "" {
		exportDir = filepath.Join(config.Root, "exports")
	}

	chartPath := config.ChartPath
	if chartPath == "" {
		chartPath = filepath.Join(config.Root, "chart.yaml")
	}

	return &PathResolver{
		root:      config.Root,
		dbPath:    dbPath,
		exportDir: exportDir,
		chartPath: chartPath,
	}
}

// Root returns the cashbook root directory.
func (p *PathResolver) Root() string {
	return p.root
}

// DatabasePath returns the ledger database file path.
func (p *PathResolver) DatabasePath() string {
	return p.dbPath
}

// ExportDir returns the export output directory.
func (p *PathResolver) ExportDir() string {
	return p.exportDir
}

// ChartPath returns the chart-of-accounts file path.
func (p *PathResolver) ChartPath() string {
	return p.chartPath
}

// ExportFilePath returns a timestamped export file path for the given
// extension. Example: exports/cashbook-20231114-120000.qif
func (p *PathResolver) ExportFilePath(extension string, at time.Time) string {
	filename := fmt.Sprintf("cashbook-%s.%s", at.Format("20060102-150405"), extension)
	return filepath.Join(p.exportDir, filename)
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	return p.EnsureDir(filepath.Dir(filePath))
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
