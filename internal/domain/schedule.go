package domain

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the calendar-date format used by schedule entries.
	DateLayout = "2006-01-02"
	// TimeLayout is the time-of-day format used by schedule entries.
	TimeLayout = "15:04"
)

// GenerationStatus enumerates outcomes of a scheduled generation entry.
type GenerationStatus string

const (
	GenerationPending   GenerationStatus = "pending"
	GenerationGenerated GenerationStatus = "generated"
	GenerationFailed    GenerationStatus = "failed"
)

// IsValid reports whether the status is a known fulfillment state.
func (s GenerationStatus) IsValid() bool {
	switch s {
	case GenerationPending, GenerationGenerated, GenerationFailed:
		return true
	}
	return false
}

// ScheduledGeneration is a one-off, time-stamped request to generate a
// story, together with its execution outcome.
//
// GeneratedStoryID is set only when Status == GenerationGenerated;
// ErrorMessage only when Status == GenerationFailed. A status change away
// from failed clears any previous message.
type ScheduledGeneration struct {
	ID               string
	ScheduledDate    string // DateLayout
	ScheduledTime    string // TimeLayout
	Genre            Genre
	Status           GenerationStatus
	GeneratedStoryID string
	ErrorMessage     string
	CreatedAt        time.Time
}

// DueAt resolves the entry's composite due instant in the given location.
func (s ScheduledGeneration) DueAt(loc *time.Location) (time.Time, error) {
	return ParseDueAt(s.ScheduledDate, s.ScheduledTime, loc)
}

// ParseDueAt combines a DateLayout date and TimeLayout time-of-day into a
// single instant in the given location.
func ParseDueAt(date, timeOfDay string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	due, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+timeOfDay, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse due instant %q %q: %w", date, timeOfDay, err)
	}
	return due, nil
}

// NewScheduledGeneration carries caller-supplied fields for a new entry.
// Status is always forced to pending on insert.
type NewScheduledGeneration struct {
	ScheduledDate string
	ScheduledTime string
	Genre         Genre
}

// WeeklyScheduleItem is a recurring generation rule. At most one item
// exists per (DayOfWeek, Time) pair; the pair acts as a natural key even
// though ID is the surrogate.
type WeeklyScheduleItem struct {
	ID        string
	DayOfWeek time.Weekday
	Time      string // TimeLayout
	Genre     Genre
	CreatedAt time.Time
	UpdatedAt time.Time
}
