package storage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Snapshot copies the database file into dir as budget_YYYY-MM-DD.db and
// returns the copy's path. The copy is the backup unit an external
// collaborator can ship elsewhere; a same-day snapshot is overwritten.
func (r *SQLiteRepository) Snapshot(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	src, err := os.Open(r.path)
	if err != nil {
		return "", fmt.Errorf("open database file: %w", err)
	}
	defer src.Close()

	target := filepath.Join(dir, fmt.Sprintf("budget_%s.db", r.now().Format("2006-01-02")))
	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(target)
		return "", fmt.Errorf("copy database file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close backup file: %w", err)
	}

	slog.Info("Database snapshot written", "path", target)
	return target, nil
}
