// Package services wires parsing, classification, storage and event
// publishing into the ledger's public contract. Every operation is a
// short synchronous unit; callers decide when and how often to invoke.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"familybudget/internal/amqp"
	"familybudget/internal/catalog"
	"familybudget/internal/core"
	"familybudget/internal/storage"
)

type LedgerService struct {
	store   *storage.SQLiteRepository
	catalog *catalog.Catalog
	events  *amqp.Publisher // optional, nil disables publishing
	now     func() time.Time
}

func NewLedgerService(store *storage.SQLiteRepository, cat *catalog.Catalog, events *amqp.Publisher) *LedgerService {
	return &LedgerService{
		store:   store,
		catalog: cat,
		events:  events,
		now:     time.Now,
	}
}

// RecordExpense ingests one raw message line: parse, classify, persist.
// On success the confirmation carries the stored expense and the new
// total for its day. Parse failures never reach storage.
func (s *LedgerService) RecordExpense(ctx context.Context, ownerID int64, text string) (core.Confirmation, error) {
	entry, err := core.ParseEntry(text)
	if err != nil {
		return core.Confirmation{}, err
	}

	cat := s.catalog.Resolve(entry.CategoryText)
	if entry.CategoryText != "" && cat.Codename == core.FallbackCodename {
		slog.DebugContext(ctx, "Category text did not match any alias",
			"text", entry.CategoryText)
	}

	expense, err := s.store.Insert(ctx, entry.Amount, cat, ownerID, text)
	if err != nil {
		return core.Confirmation{}, fmt.Errorf("record expense: %w", err)
	}

	dayTotal, err := s.store.SumForDay(ctx, expense.CreatedAt)
	if err != nil {
		return core.Confirmation{}, fmt.Errorf("day total after record: %w", err)
	}

	s.publishRecorded(ctx, expense)

	return core.Confirmation{Expense: expense, DayTotal: dayTotal}, nil
}

// DeleteExpense removes an expense by id. A missing id surfaces as
// core.ErrNotFound.
func (s *LedgerService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.publishDeleted(ctx, id)
	return nil
}

// RecentExpenses lists the latest entries, newest first.
func (s *LedgerService) RecentExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.store.Recent(ctx, limit)
}

// TodaySum is the total recorded on the current local day.
func (s *LedgerService) TodaySum(ctx context.Context) (int64, error) {
	return s.store.SumForDay(ctx, s.now())
}

// CurrentMonthSum is the total recorded since the start of this month.
func (s *LedgerService) CurrentMonthSum(ctx context.Context) (int64, error) {
	return s.store.SumForMonth(ctx, monthStart(s.now()))
}

// CurrentMonthBreakdown ranks this month's spending per category.
func (s *LedgerService) CurrentMonthBreakdown(ctx context.Context) ([]core.CategoryBreakdown, error) {
	return s.store.MonthBreakdown(ctx, monthStart(s.now()))
}

// MonthlyGroups returns every month with data, for the bulk export.
func (s *LedgerService) MonthlyGroups(ctx context.Context) ([]core.MonthGroup, error) {
	return s.store.GroupByMonth(ctx)
}

// Categories passes the catalog through for display.
func (s *LedgerService) Categories() []core.Category {
	return s.catalog.All()
}

// Snapshot writes a backup copy of the ledger file into dir.
func (s *LedgerService) Snapshot(dir string) (string, error) {
	return s.store.Snapshot(dir)
}

func (s *LedgerService) publishRecorded(ctx context.Context, e core.Expense) {
	if s.events == nil {
		return
	}
	msg := &amqp.ExpenseRecordedMessage{
		ID:        e.ID,
		Amount:    e.Amount,
		Category:  e.CategoryCodename,
		OwnerID:   e.OwnerID,
		Timestamp: e.CreatedAt,
	}
	// The expense is committed; a lost event must not fail the caller.
	if err := s.events.PublishExpenseRecorded(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense recorded event",
			"id", e.ID, "error", err)
	}
}

func (s *LedgerService) publishDeleted(ctx context.Context, id int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishExpenseDeleted(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense deleted event",
			"id", id, "error", err)
	}
}

// Close releases the storage and broker handles.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
