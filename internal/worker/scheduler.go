// Package worker runs the recurring triggers: daily fill-in reminders and
// the monthly statistic broadcast. It only decides WHEN; what gets sent
// lives behind the Notifier interface.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Notifier is the narrow callback surface the scheduler fires into,
// implemented by the bot.
type Notifier interface {
	SendDailyReminder(ctx context.Context) error
	SendMonthlyReport(ctx context.Context) error
}

// TimeOfDay is a local wall-clock trigger time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

type Scheduler struct {
	notifier Notifier
	morning  TimeOfDay
	evening  TimeOfDay
	report   TimeOfDay
	now      func() time.Time
}

func NewScheduler(notifier Notifier, morning, evening, report TimeOfDay) *Scheduler {
	return &Scheduler{
		notifier: notifier,
		morning:  morning,
		evening:  evening,
		report:   report,
		now:      time.Now,
	}
}

type job struct {
	name string
	next time.Time
	fire func(context.Context) error
	then func(time.Time) time.Time
}

// Run blocks until ctx is done, firing each trigger at its scheduled
// time. A failed notification is logged and the trigger rescheduled; the
// loop itself never stops on notification errors.
func (s *Scheduler) Run(ctx context.Context) error {
	now := s.now()
	jobs := []*job{
		{
			name: "morning reminder",
			next: nextDaily(now, s.morning),
			fire: s.notifier.SendDailyReminder,
			then: func(t time.Time) time.Time { return nextDaily(t, s.morning) },
		},
		{
			name: "evening reminder",
			next: nextDaily(now, s.evening),
			fire: s.notifier.SendDailyReminder,
			then: func(t time.Time) time.Time { return nextDaily(t, s.evening) },
		},
		{
			name: "monthly report",
			next: nextMonthly(now, s.report),
			fire: s.notifier.SendMonthlyReport,
			then: func(t time.Time) time.Time { return nextMonthly(t, s.report) },
		},
	}

	slog.Info("Scheduler started",
		"morning", jobs[0].next,
		"evening", jobs[1].next,
		"monthly", jobs[2].next)

	for {
		due := jobs[0]
		for _, j := range jobs[1:] {
			if j.next.Before(due.next) {
				due = j
			}
		}

		timer := time.NewTimer(time.Until(due.next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err := due.fire(ctx); err != nil {
			slog.Error("Scheduled trigger failed", "job", due.name, "error", err)
		}
		due.next = due.then(s.now())
		slog.Debug("Trigger rescheduled", "job", due.name, "next", due.next)
	}
}

// nextDaily is the next occurrence of the given time of day strictly
// after now.
func nextDaily(now time.Time, at TimeOfDay) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour, at.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// nextMonthly is the next 1st-of-month occurrence of the given time of
// day strictly after now.
func nextMonthly(now time.Time, at TimeOfDay) time.Time {
	next := time.Date(now.Year(), now.Month(), 1, at.Hour, at.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 1, 0)
	}
	return next
}
