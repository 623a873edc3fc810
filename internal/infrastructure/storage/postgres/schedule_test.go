package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StoryPress/internal/domain"
)

func TestScheduleListDueFiltersPending(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewScheduleRepository(mock, time.UTC)

	rows := pgxmock.NewRows(scheduleColumns).AddRow(
		"sched-1", "2026-05-01", "08:00", string(domain.GenreMacera),
		string(domain.GenerationPending), "", "",
		time.Date(2026, time.April, 30, 12, 0, 0, 0, time.UTC),
	)

	mock.ExpectQuery("SELECT (.+) FROM scheduled_generations").
		WithArgs(string(domain.GenerationPending), "2026-05-02", "2026-05-02", "09:30").
		WillReturnRows(rows)

	now := time.Date(2026, time.May, 2, 9, 30, 0, 0, time.UTC)
	due, err := repo.ListDue(context.Background(), now)
	require.NoError(t, err)

	require.Len(t, due, 1)
	assert.Equal(t, "sched-1", due[0].ID)
	assert.Equal(t, domain.GenerationPending, due[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleUpdateStatusClearsMessage(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewScheduleRepository(mock, time.UTC)

	rows := pgxmock.NewRows(scheduleColumns).AddRow(
		"sched-1", "2026-05-01", "08:00", string(domain.GenreMacera),
		string(domain.GenerationGenerated), "story-9", "",
		time.Date(2026, time.April, 30, 12, 0, 0, 0, time.UTC),
	)

	mock.ExpectQuery("UPDATE scheduled_generations SET (.+) RETURNING").
		WithArgs(string(domain.GenerationGenerated), "story-9", "", "sched-1").
		WillReturnRows(rows)

	entry, err := repo.UpdateStatus(context.Background(), "sched-1", domain.GenerationGenerated, "story-9", "")
	require.NoError(t, err)

	assert.Equal(t, "story-9", entry.GeneratedStoryID)
	assert.Empty(t, entry.ErrorMessage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleExistsAt(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewScheduleRepository(mock, time.UTC)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("2026-05-01", "08:00").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.ExistsAt(context.Background(), "2026-05-01", "08:00")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeeklyUpsertReturnsStoredRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWeeklyRepository(mock)

	created := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	updated := time.Date(2026, time.March, 8, 10, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows(weeklyColumns).AddRow(
		"weekly-1", int(time.Friday), "18:30", string(domain.GenreKorku), created, updated,
	)

	mock.ExpectQuery("INSERT INTO weekly_schedules (.+) ON CONFLICT").
		WithArgs(pgxmock.AnyArg(), int(time.Friday), "18:30", string(domain.GenreKorku),
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(rows)

	item, err := repo.Upsert(context.Background(), time.Friday, "18:30", domain.GenreKorku)
	require.NoError(t, err)

	assert.Equal(t, "weekly-1", item.ID)
	assert.Equal(t, time.Friday, item.DayOfWeek)
	assert.Equal(t, domain.GenreKorku, item.Genre)
	assert.Equal(t, created, item.CreatedAt)
	assert.Equal(t, updated, item.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
