package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"StoryPress/internal/domain"
	"StoryPress/internal/ports"
)

// WeeklyStore is a mutex-guarded in-memory weekly-schedule repository.
// The (day-of-week, time) pair acts as the natural key.
type WeeklyStore struct {
	mu    sync.RWMutex
	items map[string]domain.WeeklyScheduleItem
	now   func() time.Time
}

var _ ports.WeeklyScheduleRepository = (*WeeklyStore)(nil)

// NewWeeklyStore builds an empty store.
func NewWeeklyStore() *WeeklyStore {
	return &WeeklyStore{
		items: map[string]domain.WeeklyScheduleItem{},
		now:   time.Now,
	}
}

// List returns all rules ordered by day of week, then time.
func (s *WeeklyStore) List(ctx context.Context) ([]domain.WeeklyScheduleItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.WeeklyScheduleItem, 0, len(s.items))
	for _, item := range s.items {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek < result[j].DayOfWeek
		}
		return result[i].Time < result[j].Time
	})
	return result, nil
}

// Upsert updates the genre of an existing (day, time) rule in place,
// advancing UpdatedAt, or inserts a new rule.
func (s *WeeklyStore) Upsert(ctx context.Context, day time.Weekday, timeOfDay string, genre domain.Genre) (domain.WeeklyScheduleItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, item := range s.items {
		if item.DayOfWeek == day && item.Time == timeOfDay {
			item.Genre = genre
			item.UpdatedAt = s.now()
			s.items[id] = item
			return item, nil
		}
	}

	now := s.now()
	created := domain.WeeklyScheduleItem{
		ID:        uuid.NewString(),
		DayOfWeek: day,
		Time:      timeOfDay,
		Genre:     genre,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.items[created.ID] = created
	return created, nil
}

// DeleteByDayTime removes the rule for the natural key; a missing rule
// reports false, never an error.
func (s *WeeklyStore) DeleteByDayTime(ctx context.Context, day time.Weekday, timeOfDay string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, item := range s.items {
		if item.DayOfWeek == day && item.Time == timeOfDay {
			delete(s.items, id)
			return true, nil
		}
	}
	return false, nil
}
