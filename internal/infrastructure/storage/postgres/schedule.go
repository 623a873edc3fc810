package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"StoryPress/internal/domain"
	"StoryPress/internal/ports"
)

var scheduleColumns = []string{
	"id", "scheduled_date", "scheduled_time", "genre", "status",
	"generated_story_id", "error_message", "created_at",
}

// ScheduleRepository persists scheduled generations in Postgres.
type ScheduleRepository struct {
	db       DB
	location *time.Location
}

var _ ports.ScheduleRepository = (*ScheduleRepository)(nil)

// NewScheduleRepository wires a pool implementation; loc interprets due
// instants (nil means UTC).
func NewScheduleRepository(db DB, loc *time.Location) *ScheduleRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &ScheduleRepository{db: db, location: loc}
}

// List returns all entries ascending by their composite due instant.
func (r *ScheduleRepository) List(ctx context.Context) ([]domain.ScheduledGeneration, error) {
	return r.selectEntries(ctx, r.base())
}

// ListDue returns pending entries due at or before now, ascending.
func (r *ScheduleRepository) ListDue(ctx context.Context, now time.Time) ([]domain.ScheduledGeneration, error) {
	now = now.In(r.location)
	date := now.Format(domain.DateLayout)
	timeOfDay := now.Format(domain.TimeLayout)

	return r.selectEntries(ctx, r.base().
		Where(sq.Eq{"status": string(domain.GenerationPending)}).
		Where(sq.Or{
			sq.Lt{"scheduled_date": date},
			sq.And{
				sq.Eq{"scheduled_date": date},
				sq.LtOrEq{"scheduled_time": timeOfDay},
			},
		}))
}

// GetByID returns a single entry or domain.ErrNotFound.
func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (domain.ScheduledGeneration, error) {
	query, args, err := r.base().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.ScheduledGeneration{}, fmt.Errorf("build schedule query: %w", err)
	}

	entry, err := scanSchedule(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ScheduledGeneration{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ScheduledGeneration{}, fmt.Errorf("get schedule %s: %w", id, err)
	}
	return entry, nil
}

// Add inserts a new entry; status is forced to pending and CreatedAt
// stamped regardless of input.
func (r *ScheduleRepository) Add(ctx context.Context, entry domain.NewScheduledGeneration) (domain.ScheduledGeneration, error) {
	created := domain.ScheduledGeneration{
		ID:            uuid.NewString(),
		ScheduledDate: entry.ScheduledDate,
		ScheduledTime: entry.ScheduledTime,
		Genre:         entry.Genre,
		Status:        domain.GenerationPending,
		CreatedAt:     time.Now(),
	}

	query, args, err := builder.Insert("scheduled_generations").
		Columns(scheduleColumns...).
		Values(created.ID, created.ScheduledDate, created.ScheduledTime,
			string(created.Genre), string(created.Status), "", "", created.CreatedAt).
		ToSql()
	if err != nil {
		return domain.ScheduledGeneration{}, fmt.Errorf("build schedule insert: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return domain.ScheduledGeneration{}, fmt.Errorf("insert schedule: %w", err)
	}
	return created, nil
}

// UpdateStatus moves an entry to a new fulfillment state; the error
// message is overwritten when supplied and cleared otherwise.
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, id string, status domain.GenerationStatus, storyID, errorMessage string) (domain.ScheduledGeneration, error) {
	query, args, err := builder.Update("scheduled_generations").
		Set("status", string(status)).
		Set("generated_story_id", storyID).
		Set("error_message", errorMessage).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + columnList(scheduleColumns)).
		ToSql()
	if err != nil {
		return domain.ScheduledGeneration{}, fmt.Errorf("build schedule update: %w", err)
	}

	entry, err := scanSchedule(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ScheduledGeneration{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ScheduledGeneration{}, fmt.Errorf("update schedule %s: %w", id, err)
	}
	return entry, nil
}

// DeleteByID removes the entry; a missing id reports false, never an error.
func (r *ScheduleRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	query, args, err := builder.Delete("scheduled_generations").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build schedule delete: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete schedule %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ExistsAt reports whether any entry, in any status, occupies the given
// date and time.
func (r *ScheduleRepository) ExistsAt(ctx context.Context, date, timeOfDay string) (bool, error) {
	query, args, err := builder.Select("COUNT(*)").
		From("scheduled_generations").
		Where(sq.Eq{"scheduled_date": date, "scheduled_time": timeOfDay}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build schedule exists query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("count schedules at %s %s: %w", date, timeOfDay, err)
	}
	return count > 0, nil
}

func (r *ScheduleRepository) base() sq.SelectBuilder {
	return builder.Select(scheduleColumns...).
		From("scheduled_generations").
		OrderBy("scheduled_date ASC", "scheduled_time ASC")
}

func (r *ScheduleRepository) selectEntries(ctx context.Context, sb sq.SelectBuilder) ([]domain.ScheduledGeneration, error) {
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build schedules query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	var entries []domain.ScheduledGeneration
	for rows.Next() {
		entry, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}
	return entries, nil
}

func scanSchedule(row pgx.Row) (domain.ScheduledGeneration, error) {
	var (
		entry  domain.ScheduledGeneration
		genre  string
		status string
	)
	err := row.Scan(&entry.ID, &entry.ScheduledDate, &entry.ScheduledTime,
		&genre, &status, &entry.GeneratedStoryID, &entry.ErrorMessage, &entry.CreatedAt)
	if err != nil {
		return domain.ScheduledGeneration{}, err
	}
	entry.Genre = domain.Genre(genre)
	entry.Status = domain.GenerationStatus(status)
	return entry, nil
}
