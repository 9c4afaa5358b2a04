// Package storage is the durable ledger over a single SQLite file. The
// file is the whole persisted state, which is what makes the backup
// surface a plain file copy.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"familybudget/internal/core"

	_ "modernc.org/sqlite"
)

const (
	timeLayout = "2006-01-02 15:04:05"

	// Every statement runs under this deadline so a wedged database
	// surfaces as a failed operation instead of a hang.
	opTimeout = 5 * time.Second
)

type SQLiteRepository struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection serializes writers; SQLite allows a single writer
	// anyway and this avoids SQLITE_BUSY between concurrent inserts.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:   db,
		path: dbPath,
		now:  time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

// Insert persists a single expense atomically and returns it with its
// assigned id and timestamp. The category must already be resolved.
func (r *SQLiteRepository) Insert(ctx context.Context, amount int64, cat core.Category, ownerID int64, rawText string) (core.Expense, error) {
	return r.insertAt(ctx, amount, cat, ownerID, rawText, r.now())
}

func (r *SQLiteRepository) insertAt(ctx context.Context, amount int64, cat core.Category, ownerID int64, rawText string, createdAt time.Time) (core.Expense, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	created := createdAt.Format(timeLayout)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expense (amount, owner_id, created_at, category_codename, raw_text)
		 VALUES (?, ?, ?, ?, ?)`,
		amount, ownerID, created, cat.Codename, rawText)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense insert id: %w", err)
	}

	e := core.Expense{
		ID:               id,
		Amount:           amount,
		CategoryCodename: cat.Codename,
		CategoryName:     cat.Name,
		CreatedAt:        createdAt,
		OwnerID:          ownerID,
		RawText:          rawText,
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"amount", e.Amount,
		"category", e.CategoryCodename,
		"owner_id", e.OwnerID)

	return e, nil
}

// DeleteByID removes an expense. Deleting an id that does not exist
// reports core.ErrNotFound, not a failure.
func (r *SQLiteRepository) DeleteByID(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM expense WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

// Recent returns the latest expenses ordered by id descending, which is
// insertion order and stays stable under same-second bursts.
func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]core.Expense, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT e.id, e.amount, e.owner_id, e.created_at, e.category_codename,
		        COALESCE(c.name, e.category_codename), e.raw_text
		 FROM expense e
		 LEFT JOIN category c ON c.codename = e.category_codename
		 ORDER BY e.id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e       core.Expense
			created string
		)
		if err := rows.Scan(&e.ID, &e.Amount, &e.OwnerID, &created,
			&e.CategoryCodename, &e.CategoryName, &e.RawText); err != nil {
			return nil, fmt.Errorf("scan expense row: %w", err)
		}
		e.CreatedAt, err = time.ParseInLocation(timeLayout, created, time.Local)
		if err != nil {
			return nil, fmt.Errorf("parse expense timestamp %q: %w", created, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent expenses: %w", err)
	}
	return out, nil
}

// SumForDay sums all expenses recorded on the given local calendar day.
// Returns 0 when the day has no entries.
func (r *SQLiteRepository) SumForDay(ctx context.Context, day time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM expense WHERE substr(created_at, 1, 10) = ?`,
		day.Format("2006-01-02")).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum for day: %w", err)
	}
	return total, nil
}

// SumForMonth sums all expenses recorded at or after monthStart.
func (r *SQLiteRepository) SumForMonth(ctx context.Context, monthStart time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM expense WHERE created_at >= ?`,
		monthStart.Format(timeLayout)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum for month: %w", err)
	}
	return total, nil
}

// MonthBreakdown groups the month's expenses by category with exact sums
// and percentages of the month total, ranked by sum descending and by
// catalog position on equal sums. An empty month yields an empty slice,
// never a division error.
func (r *SQLiteRepository) MonthBreakdown(ctx context.Context, monthStart time.Time) ([]core.CategoryBreakdown, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	since := monthStart.Format(timeLayout)
	rows, err := r.db.QueryContext(ctx,
		`SELECT e.category_codename,
		        COALESCE(c.name, e.category_codename) AS name,
		        SUM(e.amount) AS total,
		        100.0 * SUM(e.amount) / t.month_sum AS percentage
		 FROM expense e
		 LEFT JOIN category c ON c.codename = e.category_codename
		 JOIN (SELECT SUM(amount) AS month_sum FROM expense WHERE created_at >= ?) t
		   ON t.month_sum > 0
		 WHERE e.created_at >= ?
		 GROUP BY e.category_codename
		 ORDER BY total DESC, COALESCE(c.position, 1000000) ASC`,
		since, since)
	if err != nil {
		return nil, fmt.Errorf("query month breakdown: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryBreakdown
	for rows.Next() {
		var b core.CategoryBreakdown
		if err := rows.Scan(&b.Codename, &b.Name, &b.Sum, &b.Percentage); err != nil {
			return nil, fmt.Errorf("scan breakdown row: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate month breakdown: %w", err)
	}
	return out, nil
}

// GroupByMonth returns every month that has expenses, keyed "MM.YYYY" in
// chronological order, each with its (category, amount) entries. Used by
// the bulk export.
func (r *SQLiteRepository) GroupByMonth(ctx context.Context) ([]core.MonthGroup, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT substr(e.created_at, 1, 7) AS ym,
		        COALESCE(c.name, e.category_codename),
		        e.amount
		 FROM expense e
		 LEFT JOIN category c ON c.codename = e.category_codename
		 ORDER BY ym ASC, e.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query expenses by month: %w", err)
	}
	defer rows.Close()

	var out []core.MonthGroup
	for rows.Next() {
		var (
			ym    string
			entry core.MonthEntry
		)
		if err := rows.Scan(&ym, &entry.Category, &entry.Amount); err != nil {
			return nil, fmt.Errorf("scan month row: %w", err)
		}
		key := monthKey(ym)
		if len(out) == 0 || out[len(out)-1].Month != key {
			out = append(out, core.MonthGroup{Month: key})
		}
		out[len(out)-1].Entries = append(out[len(out)-1].Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses by month: %w", err)
	}
	return out, nil
}

// monthKey converts the stored "YYYY-MM" prefix to the "MM.YYYY" key.
func monthKey(ym string) string {
	if len(ym) != 7 {
		return ym
	}
	return ym[5:7] + "." + ym[0:4]
}

// Categories loads the catalog in its defined order.
func (r *SQLiteRepository) Categories(ctx context.Context) ([]core.Category, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT codename, name, aliases, position FROM category ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c       core.Category
			aliases string
		)
		if err := rows.Scan(&c.Codename, &c.Name, &aliases, &c.Position); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		c.Aliases = splitAliases(aliases)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func splitAliases(s string) []string {
	var out []string
	for _, alias := range strings.Split(s, ",") {
		if alias = strings.TrimSpace(alias); alias != "" {
			out = append(out, alias)
		}
	}
	return out
}
