package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("09:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Hour != 9 || got.Minute != 30 {
		t.Fatalf("got %+v, want 09:30", got)
	}

	for _, bad := range []string{"", "9am", "25:00", "09:65"} {
		if _, err := ParseTimeOfDay(bad); err == nil {
			t.Fatalf("ParseTimeOfDay(%q) expected error", bad)
		}
	}
}

func TestNextDaily(t *testing.T) {
	at := TimeOfDay{Hour: 9, Minute: 0}

	before := time.Date(2026, 5, 14, 8, 0, 0, 0, time.Local)
	if got := nextDaily(before, at); !got.Equal(time.Date(2026, 5, 14, 9, 0, 0, 0, time.Local)) {
		t.Fatalf("before trigger: got %v", got)
	}

	after := time.Date(2026, 5, 14, 10, 0, 0, 0, time.Local)
	if got := nextDaily(after, at); !got.Equal(time.Date(2026, 5, 15, 9, 0, 0, 0, time.Local)) {
		t.Fatalf("after trigger: got %v", got)
	}

	exact := time.Date(2026, 5, 14, 9, 0, 0, 0, time.Local)
	if got := nextDaily(exact, at); !got.Equal(time.Date(2026, 5, 15, 9, 0, 0, 0, time.Local)) {
		t.Fatalf("at trigger: got %v", got)
	}
}

func TestNextMonthly(t *testing.T) {
	at := TimeOfDay{Hour: 12, Minute: 0}

	// First of month, before the trigger time: fires today.
	first := time.Date(2026, 5, 1, 9, 0, 0, 0, time.Local)
	if got := nextMonthly(first, at); !got.Equal(time.Date(2026, 5, 1, 12, 0, 0, 0, time.Local)) {
		t.Fatalf("first of month: got %v", got)
	}

	// Mid-month: fires on the 1st of the next month.
	mid := time.Date(2026, 5, 14, 9, 0, 0, 0, time.Local)
	if got := nextMonthly(mid, at); !got.Equal(time.Date(2026, 6, 1, 12, 0, 0, 0, time.Local)) {
		t.Fatalf("mid-month: got %v", got)
	}

	// December rolls into January.
	dec := time.Date(2026, 12, 14, 9, 0, 0, 0, time.Local)
	if got := nextMonthly(dec, at); !got.Equal(time.Date(2027, 1, 1, 12, 0, 0, 0, time.Local)) {
		t.Fatalf("december: got %v", got)
	}
}

type countingNotifier struct {
	daily   atomic.Int32
	monthly atomic.Int32
	onDaily func()
}

func (n *countingNotifier) SendDailyReminder(context.Context) error {
	n.daily.Add(1)
	if n.onDaily != nil {
		n.onDaily()
	}
	return nil
}

func (n *countingNotifier) SendMonthlyReport(context.Context) error {
	n.monthly.Add(1)
	return nil
}

func TestSchedulerRunFiresDueJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &countingNotifier{onDaily: cancel}
	s := NewScheduler(notifier,
		TimeOfDay{Hour: 9, Minute: 0},
		TimeOfDay{Hour: 20, Minute: 0},
		TimeOfDay{Hour: 12, Minute: 0})

	// Freeze "now" just before the morning trigger, well in the past, so
	// the first timer is already due and fires immediately.
	base := time.Date(2020, 5, 14, 8, 59, 59, 0, time.Local)
	s.now = func() time.Time { return base }

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daily reminder never fired")
	}
	if notifier.daily.Load() == 0 {
		t.Fatal("daily reminder never fired")
	}
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	notifier := &countingNotifier{}
	s := NewScheduler(notifier,
		TimeOfDay{Hour: 9, Minute: 0},
		TimeOfDay{Hour: 20, Minute: 0},
		TimeOfDay{Hour: 12, Minute: 0})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
