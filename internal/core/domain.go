package core

import (
	"errors"
	"time"
)

// FallbackCodename is the reserved category every unmatched entry lands in.
// The catalog must always contain it.
const FallbackCodename = "other"

type (
	// Category is a named spending bucket. Codename is the stable machine
	// identifier, Name is shown to users, Aliases map free text onto the
	// category during classification.
	Category struct {
		Codename string
		Name     string
		Aliases  []string
		Position int // catalog order, also the tiebreak for rankings
	}

	// Expense is one recorded spending event. Amount is whole rubles.
	Expense struct {
		ID               int64
		Amount           int64
		CategoryCodename string
		CategoryName     string
		CreatedAt        time.Time
		OwnerID          int64
		RawText          string
	}

	// ParsedEntry is the outcome of parsing a raw message line.
	ParsedEntry struct {
		Amount       int64
		CategoryText string
	}

	// Confirmation is returned after an expense is recorded.
	Confirmation struct {
		Expense  Expense
		DayTotal int64
	}

	// CategoryBreakdown is one row of the monthly per-category statistic.
	CategoryBreakdown struct {
		Codename   string
		Name       string
		Sum        int64
		Percentage float64
	}

	// MonthEntry is a single (category, amount) pair in a month group.
	MonthEntry struct {
		Category string
		Amount   int64
	}

	// MonthGroup holds all entries of one calendar month, keyed "MM.YYYY".
	MonthGroup struct {
		Month   string
		Entries []MonthEntry
	}
)

var (
	ErrInvalidFormat = errors.New("message does not start with an amount")
	ErrInvalidAmount = errors.New("amount must be a positive integer")
	ErrNotFound      = errors.New("expense not found")
)

func (c Category) Validate() error {
	if c.Codename == "" {
		return errors.New("category codename cannot be empty")
	}
	if c.Name == "" {
		return errors.New("category name cannot be empty")
	}
	return nil
}

func (e Expense) Validate() error {
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if e.CategoryCodename == "" {
		return errors.New("expense category codename cannot be empty")
	}
	if e.CreatedAt.IsZero() {
		return errors.New("expense timestamp cannot be zero")
	}
	return nil
}
