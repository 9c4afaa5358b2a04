// Package export renders the ledger's month groups into a CSV document
// suitable for spreadsheet import. Amounts are passed through exactly as
// stored; nothing is recomputed here.
package export

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"familybudget/internal/core"
)

// Row is one CSV line: a single expense attributed to its month.
type Row struct {
	Month    string `csv:"month"`
	Category string `csv:"category"`
	Amount   int64  `csv:"amount"`
}

// Rows flattens month groups into CSV rows, months in the order given.
func Rows(groups []core.MonthGroup) []Row {
	var rows []Row
	for _, g := range groups {
		for _, e := range g.Entries {
			rows = append(rows, Row{
				Month:    g.Month,
				Category: e.Category,
				Amount:   e.Amount,
			})
		}
	}
	return rows
}

// Write renders the groups as CSV to w.
func Write(w io.Writer, groups []core.MonthGroup) error {
	rows := Rows(groups)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("marshal csv: %w", err)
	}
	return nil
}

// WriteFile writes the CSV report into dir as budget_YYYY-MM-DD.csv and
// returns the file's path.
func WriteFile(dir string, groups []core.MonthGroup, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("budget_%s.csv", now.Format("2006-01-02")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}

	if err := Write(f, groups); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}

	slog.Info("Export written", "path", path, "months", len(groups))
	return path, nil
}
