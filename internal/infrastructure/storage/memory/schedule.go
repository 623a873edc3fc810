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

// ScheduleStore is a mutex-guarded in-memory scheduled-generation
// repository.
type ScheduleStore struct {
	mu       sync.RWMutex
	entries  map[string]domain.ScheduledGeneration
	now      func() time.Time
	location *time.Location
}

var _ ports.ScheduleRepository = (*ScheduleStore)(nil)

// NewScheduleStore builds an empty store interpreting due instants in the
// given location (nil means UTC).
func NewScheduleStore(loc *time.Location) *ScheduleStore {
	if loc == nil {
		loc = time.UTC
	}
	return &ScheduleStore{
		entries:  map[string]domain.ScheduledGeneration{},
		now:      time.Now,
		location: loc,
	}
}

// List returns all entries ascending by their composite due instant.
func (s *ScheduleStore) List(ctx context.Context) ([]domain.ScheduledGeneration, error) {
	return s.sorted(func(domain.ScheduledGeneration) bool { return true }), nil
}

// ListDue returns pending entries due at or before now, ascending.
func (s *ScheduleStore) ListDue(ctx context.Context, now time.Time) ([]domain.ScheduledGeneration, error) {
	return s.sorted(func(entry domain.ScheduledGeneration) bool {
		if entry.Status != domain.GenerationPending {
			return false
		}
		due, err := entry.DueAt(s.location)
		if err != nil {
			return false
		}
		return !due.After(now)
	}), nil
}

// GetByID returns a single entry or domain.ErrNotFound.
func (s *ScheduleStore) GetByID(ctx context.Context, id string) (domain.ScheduledGeneration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return domain.ScheduledGeneration{}, domain.ErrNotFound
	}
	return entry, nil
}

// Add inserts a new entry; status is forced to pending and CreatedAt
// stamped regardless of input.
func (s *ScheduleStore) Add(ctx context.Context, entry domain.NewScheduledGeneration) (domain.ScheduledGeneration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := domain.ScheduledGeneration{
		ID:            uuid.NewString(),
		ScheduledDate: entry.ScheduledDate,
		ScheduledTime: entry.ScheduledTime,
		Genre:         entry.Genre,
		Status:        domain.GenerationPending,
		CreatedAt:     s.now(),
	}
	s.entries[created.ID] = created
	return created, nil
}

// UpdateStatus moves an entry to a new fulfillment state. The error
// message is overwritten when supplied and cleared otherwise, so a status
// change away from failed never leaves a stale message behind.
func (s *ScheduleStore) UpdateStatus(ctx context.Context, id string, status domain.GenerationStatus, storyID, errorMessage string) (domain.ScheduledGeneration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return domain.ScheduledGeneration{}, domain.ErrNotFound
	}

	entry.Status = status
	entry.GeneratedStoryID = storyID
	entry.ErrorMessage = errorMessage

	s.entries[id] = entry
	return entry, nil
}

// DeleteByID removes the entry; a missing id reports false, never an error.
func (s *ScheduleStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return false, nil
	}
	delete(s.entries, id)
	return true, nil
}

// ExistsAt reports whether any entry, in any status, occupies the given
// date and time. The reconciler uses this as its materialization guard.
func (s *ScheduleStore) ExistsAt(ctx context.Context, date, timeOfDay string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries {
		if entry.ScheduledDate == date && entry.ScheduledTime == timeOfDay {
			return true, nil
		}
	}
	return false, nil
}

func (s *ScheduleStore) sorted(keep func(domain.ScheduledGeneration) bool) []domain.ScheduledGeneration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ScheduledGeneration, 0, len(s.entries))
	for _, entry := range s.entries {
		if keep(entry) {
			result = append(result, entry)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ScheduledDate != result[j].ScheduledDate {
			return result[i].ScheduledDate < result[j].ScheduledDate
		}
		return result[i].ScheduledTime < result[j].ScheduledTime
	})
	return result
}
