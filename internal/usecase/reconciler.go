package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"StoryPress/internal/domain"
	"StoryPress/internal/metrics"
	"StoryPress/internal/ports"
)

// errorMessageLimit bounds the failure description persisted on a
// scheduled-generation entry.
const errorMessageLimit = 500

// ReconcilerDeps wires the reconciler's collaborators.
type ReconcilerDeps struct {
	Schedules ports.ScheduleRepository
	Weekly    ports.WeeklyScheduleRepository
	Engine    *Lifecycle
	Metrics   *metrics.Metrics
	Logger    *slog.Logger

	// Location interprets schedule dates and times; nil means UTC.
	Location *time.Location
	// TickInterval is the window used to match weekly occurrences.
	TickInterval time.Duration
}

// Reconciler turns due schedules into generated stories on each tick. It
// holds no state between ticks; everything is re-read from the
// repositories.
type Reconciler struct {
	schedules ports.ScheduleRepository
	weekly    ports.WeeklyScheduleRepository
	engine    *Lifecycle
	metrics   *metrics.Metrics
	logger    *slog.Logger
	location  *time.Location
	interval  time.Duration
}

// NewReconciler constructs the reconciler.
func NewReconciler(deps ReconcilerDeps) *Reconciler {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Reconciler{
		schedules: deps.Schedules,
		weekly:    deps.Weekly,
		engine:    deps.Engine,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		location:  loc,
		interval:  deps.TickInterval,
	}
}

// Tick runs one reconciliation pass: weekly rules are materialized into
// concrete pending entries, then every due pending entry is executed in
// ascending due order. A failing entry is marked failed and never retried
// automatically; it also never halts the rest of the tick.
func (r *Reconciler) Tick(ctx context.Context, now time.Time) error {
	if r.schedules == nil || r.engine == nil {
		return nil
	}

	r.metrics.ReconcilerTick()
	now = now.In(r.location)

	if err := r.materializeWeekly(ctx, now); err != nil {
		r.log("weekly materialization failed", "error", err)
	}

	due, err := r.schedules.ListDue(ctx, now)
	if err != nil {
		return fmt.Errorf("list due schedules: %w", err)
	}

	for _, entry := range due {
		r.execute(ctx, entry)
	}
	return nil
}

// execute fulfills one due entry, recording the outcome on the entry
// itself so the audit trail stays the single source of truth.
func (r *Reconciler) execute(ctx context.Context, entry domain.ScheduledGeneration) {
	story, err := r.engine.CreateStory(ctx, entry.Genre, ports.GenerationOptions{}, ModeDirect)
	if err != nil {
		r.metrics.ScheduleOutcome(string(domain.GenerationFailed))
		r.log("scheduled generation failed", "id", entry.ID, "genre", entry.Genre, "error", err)
		if _, uerr := r.schedules.UpdateStatus(ctx, entry.ID, domain.GenerationFailed, "", truncate(err.Error(), errorMessageLimit)); uerr != nil {
			r.log("cannot record failure", "id", entry.ID, "error", uerr)
		}
		return
	}

	r.metrics.ScheduleOutcome(string(domain.GenerationGenerated))
	if _, err := r.schedules.UpdateStatus(ctx, entry.ID, domain.GenerationGenerated, story.ID, ""); err != nil {
		r.log("cannot record fulfillment", "id", entry.ID, "story", story.ID, "error", err)
		return
	}
	r.log("scheduled generation fulfilled", "id", entry.ID, "story", story.ID, "genre", entry.Genre)
}

// materializeWeekly converts each weekly rule whose occurrence falls
// inside (now-interval, now] into a concrete pending entry, unless one
// already exists for that date and time.
func (r *Reconciler) materializeWeekly(ctx context.Context, now time.Time) error {
	if r.weekly == nil {
		return nil
	}

	rules, err := r.weekly.List(ctx)
	if err != nil {
		return fmt.Errorf("list weekly schedules: %w", err)
	}

	for _, rule := range rules {
		occurrence, err := lastOccurrence(rule, now)
		if err != nil {
			r.log("skip malformed weekly rule", "id", rule.ID, "error", err)
			continue
		}

		if occurrence.After(now) || !occurrence.After(now.Add(-r.windowSize())) {
			continue
		}

		date := occurrence.Format(domain.DateLayout)
		exists, err := r.schedules.ExistsAt(ctx, date, rule.Time)
		if err != nil {
			r.log("cannot check existing entry", "id", rule.ID, "error", err)
			continue
		}
		if exists {
			continue
		}

		entry, err := r.schedules.Add(ctx, domain.NewScheduledGeneration{
			ScheduledDate: date,
			ScheduledTime: rule.Time,
			Genre:         rule.Genre,
		})
		if err != nil {
			r.log("cannot materialize weekly rule", "id", rule.ID, "error", err)
			continue
		}
		r.log("weekly rule materialized", "rule", rule.ID, "entry", entry.ID, "due", date+" "+rule.Time)
	}
	return nil
}

func (r *Reconciler) windowSize() time.Duration {
	if r.interval > 0 {
		return r.interval
	}
	return time.Minute
}

// lastOccurrence finds the most recent instant at or before now matching
// the rule's day-of-week and time-of-day.
func lastOccurrence(rule domain.WeeklyScheduleItem, now time.Time) (time.Time, error) {
	at, err := time.ParseInLocation(domain.TimeLayout, rule.Time, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("parse rule time %q: %w", rule.Time, err)
	}

	candidate := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	dayDelta := int(now.Weekday() - rule.DayOfWeek)
	if dayDelta < 0 {
		dayDelta += 7
	}
	candidate = candidate.AddDate(0, 0, -dayDelta)
	if candidate.After(now) {
		candidate = candidate.AddDate(0, 0, -7)
	}
	return candidate, nil
}

// truncate bounds s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func (r *Reconciler) log(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}
