package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	sq "github.com/Masterminds/squirrel"

	"StoryPress/internal/domain"
	"StoryPress/internal/ports"
)

var weeklyColumns = []string{
	"id", "day_of_week", "time_of_day", "genre", "created_at", "updated_at",
}

// WeeklyRepository persists weekly schedule rules in Postgres. The
// (day_of_week, time_of_day) unique constraint enforces the natural key.
type WeeklyRepository struct {
	db DB
}

var _ ports.WeeklyScheduleRepository = (*WeeklyRepository)(nil)

// NewWeeklyRepository wires a pool implementation.
func NewWeeklyRepository(db DB) *WeeklyRepository {
	return &WeeklyRepository{db: db}
}

// List returns all rules ordered by day of week, then time.
func (r *WeeklyRepository) List(ctx context.Context) ([]domain.WeeklyScheduleItem, error) {
	query, args, err := builder.Select(weeklyColumns...).
		From("weekly_schedules").
		OrderBy("day_of_week ASC", "time_of_day ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build weekly query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query weekly schedules: %w", err)
	}
	defer rows.Close()

	var items []domain.WeeklyScheduleItem
	for rows.Next() {
		var (
			item  domain.WeeklyScheduleItem
			day   int
			genre string
		)
		if err := rows.Scan(&item.ID, &day, &item.Time, &genre, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan weekly schedule: %w", err)
		}
		item.DayOfWeek = time.Weekday(day)
		item.Genre = domain.Genre(genre)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weekly schedules: %w", err)
	}
	return items, nil
}

// Upsert updates the genre of an existing (day, time) rule in place,
// advancing updated_at, or inserts a new rule.
func (r *WeeklyRepository) Upsert(ctx context.Context, day time.Weekday, timeOfDay string, genre domain.Genre) (domain.WeeklyScheduleItem, error) {
	now := time.Now()
	query, args, err := builder.Insert("weekly_schedules").
		Columns(weeklyColumns...).
		Values(uuid.NewString(), int(day), timeOfDay, string(genre), now, now).
		Suffix(`ON CONFLICT (day_of_week, time_of_day) DO UPDATE
                SET genre = EXCLUDED.genre, updated_at = EXCLUDED.updated_at
                RETURNING ` + columnList(weeklyColumns)).
		ToSql()
	if err != nil {
		return domain.WeeklyScheduleItem{}, fmt.Errorf("build weekly upsert: %w", err)
	}

	var (
		item     domain.WeeklyScheduleItem
		dayValue int
		genreRaw string
	)
	err = r.db.QueryRow(ctx, query, args...).
		Scan(&item.ID, &dayValue, &item.Time, &genreRaw, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return domain.WeeklyScheduleItem{}, fmt.Errorf("upsert weekly schedule: %w", err)
	}
	item.DayOfWeek = time.Weekday(dayValue)
	item.Genre = domain.Genre(genreRaw)
	return item, nil
}

// DeleteByDayTime removes the rule for the natural key; a missing rule
// reports false, never an error.
func (r *WeeklyRepository) DeleteByDayTime(ctx context.Context, day time.Weekday, timeOfDay string) (bool, error) {
	query, args, err := builder.Delete("weekly_schedules").
		Where(sq.Eq{"day_of_week": int(day), "time_of_day": timeOfDay}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build weekly delete: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete weekly schedule: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
