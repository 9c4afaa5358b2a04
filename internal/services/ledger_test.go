package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"familybudget/internal/catalog"
	"familybudget/internal/core"
	"familybudget/internal/storage"
)

func newTestService(t *testing.T) *LedgerService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "budget.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	cats, err := repo.Categories(context.Background())
	if err != nil {
		t.Fatalf("load categories: %v", err)
	}
	cat, err := catalog.New(cats)
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	svc := NewLedgerService(repo, cat, nil)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestRecordExpense(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	conf, err := svc.RecordExpense(ctx, 42, "1500 продукты")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if conf.Expense.Amount != 1500 {
		t.Fatalf("amount = %d, want 1500", conf.Expense.Amount)
	}
	if conf.Expense.CategoryCodename != "products" || conf.Expense.CategoryName != "продукты" {
		t.Fatalf("category = %q/%q, want products/продукты",
			conf.Expense.CategoryCodename, conf.Expense.CategoryName)
	}
	if conf.DayTotal != 1500 {
		t.Fatalf("day total = %d, want 1500", conf.DayTotal)
	}
	if conf.Expense.RawText != "1500 продукты" {
		t.Fatalf("raw text = %q", conf.Expense.RawText)
	}

	// A second entry on the same day raises the reported total.
	conf, err = svc.RecordExpense(ctx, 42, "500 кофе")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if conf.DayTotal != 2000 {
		t.Fatalf("day total = %d, want 2000", conf.DayTotal)
	}
}

func TestRecordExpenseFallbackCategory(t *testing.T) {
	svc := newTestService(t)

	cases := []string{"700 что-то странное", "700"}
	for _, text := range cases {
		t.Run(text, func(t *testing.T) {
			conf, err := svc.RecordExpense(context.Background(), 1, text)
			if err != nil {
				t.Fatalf("record: %v", err)
			}
			if conf.Expense.CategoryCodename != core.FallbackCodename {
				t.Fatalf("category = %q, want fallback", conf.Expense.CategoryCodename)
			}
		})
	}
}

func TestRecordExpenseRejectsBadFormat(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.RecordExpense(ctx, 1, "кофе 100"); !errors.Is(err, core.ErrInvalidFormat) {
		t.Fatalf("err = %v, want ErrInvalidFormat", err)
	}
	if _, err := svc.RecordExpense(ctx, 1, "0 кофе"); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}

	// Nothing must have reached storage.
	recent, err := svc.RecentExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 0 {
		t.Fatalf("rejected input was stored: %+v", recent)
	}
}

func TestRecordThenRecentRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	conf, err := svc.RecordExpense(ctx, 7, "250 такси")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	recent, err := svc.RecentExpenses(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("len(recent) = %d, want 1", len(recent))
	}
	if recent[0].ID != conf.Expense.ID || recent[0].Amount != 250 || recent[0].CategoryCodename != "taxi" {
		t.Fatalf("round trip mismatch: %+v", recent[0])
	}
}

func TestDeleteExpense(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	conf, err := svc.RecordExpense(ctx, 1, "300 кофе")
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := svc.DeleteExpense(ctx, conf.Expense.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteExpense(ctx, conf.Expense.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}

	total, err := svc.TodaySum(ctx)
	if err != nil {
		t.Fatalf("today sum: %v", err)
	}
	if total != 0 {
		t.Fatalf("today sum after delete = %d, want 0", total)
	}
}

func TestCurrentMonthQueries(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.RecordExpense(ctx, 1, "300 кофе"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := svc.RecordExpense(ctx, 1, "700 такси"); err != nil {
		t.Fatalf("record: %v", err)
	}

	total, err := svc.CurrentMonthSum(ctx)
	if err != nil {
		t.Fatalf("month sum: %v", err)
	}
	if total != 1000 {
		t.Fatalf("month sum = %d, want 1000", total)
	}

	rows, err := svc.CurrentMonthBreakdown(ctx)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].Codename != "taxi" || rows[0].Percentage != 70.0 {
		t.Fatalf("row 0 = %+v", rows[0])
	}
	if rows[1].Codename != "coffee" || rows[1].Percentage != 30.0 {
		t.Fatalf("row 1 = %+v", rows[1])
	}
}

func TestCategoriesPassthrough(t *testing.T) {
	svc := newTestService(t)

	cats := svc.Categories()
	if len(cats) == 0 {
		t.Fatal("no categories")
	}
	if cats[len(cats)-1].Codename != core.FallbackCodename {
		t.Fatalf("last category = %q, want fallback", cats[len(cats)-1].Codename)
	}
}

func TestMonthStart(t *testing.T) {
	now := time.Date(2026, 8, 29, 15, 4, 5, 0, time.Local)
	got := monthStart(now)
	want := time.Date(2026, 8, 1, 0, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("monthStart = %v, want %v", got, want)
	}
}
