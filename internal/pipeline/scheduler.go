package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"go-usage-stats/internal/logging"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now in UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// IngestionPaths are the two jobs a tick may run.
type IngestionPaths interface {
	IngestMonthly(ctx context.Context) (IngestResult, error)
	IngestHourly(ctx context.Context, now time.Time) (IngestResult, error)
}

// SchedulerState holds the last successful run of each path. A marker only
// moves forward after its path succeeded.
type SchedulerState struct {
	LastMonth time.Time
	LastHour  time.Time
}

// NewSchedulerState seeds both markers with baseline.
func NewSchedulerState(baseline time.Time) *SchedulerState {
	return &SchedulerState{LastMonth: baseline, LastHour: baseline}
}

// MonthlyDue reports whether now is in a later calendar month than LastMonth.
func (s *SchedulerState) MonthlyDue(now time.Time) bool {
	now, last := now.UTC(), s.LastMonth.UTC()
	if now.Year() != last.Year() {
		return now.Year() > last.Year()
	}
	return now.Month() > last.Month()
}

// HourlyDue reports whether at least one whole hour has passed since LastHour.
func (s *SchedulerState) HourlyDue(now time.Time) bool {
	next := s.LastHour.Truncate(time.Hour).Add(time.Hour)
	return !now.Truncate(time.Hour).Before(next)
}

// TickResult reports what one tick did.
type TickResult struct {
	Now        time.Time
	MonthlyRan bool
	MonthlyErr error
	HourlyRan  bool
	HourlyErr  error
}

// Scheduler decides on each tick which ingestion paths are due.
type Scheduler struct {
	paths    IngestionPaths
	clock    Clock
	interval time.Duration
	log      *logrus.Entry
}

// NewScheduler creates a scheduler; a nil clock means SystemClock.
func NewScheduler(paths IngestionPaths, clock Clock, interval time.Duration) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{
		paths:    paths,
		clock:    clock,
		interval: interval,
		log:      logging.Component("scheduler"),
	}
}

// Tick runs the monthly path when a new month started and the hourly path
// when a new hour started, advancing the matching marker on success.
// Failures leave the marker so the next tick retries.
func (s *Scheduler) Tick(ctx context.Context, state *SchedulerState) TickResult {
	now := s.clock.Now()
	res := TickResult{Now: now}

	if state.MonthlyDue(now) {
		res.MonthlyRan = true
		if _, err := s.paths.IngestMonthly(ctx); err != nil {
			res.MonthlyErr = err
			s.log.WithError(err).Warn("monthly path failed, will retry next tick")
		} else {
			state.LastMonth = now
		}
	}

	if state.HourlyDue(now) {
		res.HourlyRan = true
		if _, err := s.paths.IngestHourly(ctx, now); err != nil {
			res.HourlyErr = err
			s.log.WithError(err).Warn("hourly path failed, will retry next tick")
		} else {
			state.LastHour = now
		}
	}

	s.log.WithFields(logrus.Fields{
		"monthly":    res.MonthlyRan,
		"hourly":     res.HourlyRan,
		"last_month": state.LastMonth.Format("2006-01"),
		"last_hour":  state.LastHour.Format(time.RFC3339),
	}).Debug("tick")
	return res
}

// Run ticks once immediately and then every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context, state *SchedulerState) error {
	s.log.WithField("interval", s.interval).Info("scheduler started")
	s.Tick(ctx, state)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx, state)
		}
	}
}
