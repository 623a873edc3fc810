package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"StoryPress/internal/domain"
	"StoryPress/internal/ports"
)

// StoryStore is a mutex-guarded in-memory story repository. Every read
// returns a detached copy, so callers can only mutate stored state through
// the write operations.
type StoryStore struct {
	mu      sync.RWMutex
	stories map[string]domain.Story
	now     func() time.Time
}

var _ ports.StoryRepository = (*StoryStore)(nil)

// NewStoryStore builds an empty store.
func NewStoryStore() *StoryStore {
	return &StoryStore{
		stories: map[string]domain.Story{},
		now:     time.Now,
	}
}

// List returns all stories, newest first.
func (s *StoryStore) List(ctx context.Context) ([]domain.Story, error) {
	return s.filtered(func(domain.Story) bool { return true }), nil
}

// ListByGenre returns stories of one genre, newest first.
func (s *StoryStore) ListByGenre(ctx context.Context, genre domain.Genre) ([]domain.Story, error) {
	return s.filtered(func(story domain.Story) bool { return story.Genre == genre }), nil
}

// ListByStatus returns stories in one lifecycle state, newest first.
func (s *StoryStore) ListByStatus(ctx context.Context, status domain.StoryStatus) ([]domain.Story, error) {
	return s.filtered(func(story domain.Story) bool { return story.Status == status }), nil
}

// Search matches the query case-insensitively against title and content.
func (s *StoryStore) Search(ctx context.Context, query string) ([]domain.Story, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return s.List(ctx)
	}
	return s.filtered(func(story domain.Story) bool {
		return strings.Contains(strings.ToLower(story.Title), needle) ||
			strings.Contains(strings.ToLower(story.Content), needle)
	}), nil
}

// GetByID returns a single story or domain.ErrNotFound.
func (s *StoryStore) GetByID(ctx context.Context, id string) (domain.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	story, ok := s.stories[id]
	if !ok {
		return domain.Story{}, domain.ErrNotFound
	}
	return copyStory(story), nil
}

// Create assigns ID and CreatedAt, deriving the summary when absent.
func (s *StoryStore) Create(ctx context.Context, story domain.NewStory) (domain.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := story.Summary
	if summary == "" {
		summary = domain.Summarize(story.Content, domain.SummaryTokenLimit)
	}

	status := story.Status
	if status == "" {
		status = domain.StatusPending
	}

	created := domain.Story{
		ID:              uuid.NewString(),
		Title:           story.Title,
		Content:         story.Content,
		Summary:         summary,
		ImageURL:        story.ImageURL,
		Genre:           story.Genre,
		Status:          status,
		CreatedAt:       s.now(),
		ScheduledAtDate: story.ScheduledAtDate,
		ScheduledAtTime: story.ScheduledAtTime,
	}
	s.stories[created.ID] = created
	return copyStory(created), nil
}

// Update merges the supplied partial fields. A content change without an
// explicit summary recomputes the summary from the new content.
func (s *StoryStore) Update(ctx context.Context, id string, update domain.StoryUpdate) (domain.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	story, ok := s.stories[id]
	if !ok {
		return domain.Story{}, domain.ErrNotFound
	}

	if update.Title != nil {
		story.Title = *update.Title
	}
	if update.Content != nil {
		story.Content = *update.Content
		if update.Summary == nil {
			story.Summary = domain.Summarize(*update.Content, domain.SummaryTokenLimit)
		}
	}
	if update.Summary != nil {
		story.Summary = *update.Summary
	}
	if update.ImageURL != nil {
		story.ImageURL = *update.ImageURL
	}
	if update.Genre != nil {
		story.Genre = *update.Genre
	}
	if update.Status != nil {
		story.Status = *update.Status
	}
	if update.PublishedAt != nil && story.PublishedAt == nil {
		at := *update.PublishedAt
		story.PublishedAt = &at
	}
	if update.ScheduledAtDate != nil {
		story.ScheduledAtDate = *update.ScheduledAtDate
	}
	if update.ScheduledAtTime != nil {
		story.ScheduledAtTime = *update.ScheduledAtTime
	}

	s.stories[id] = story
	return copyStory(story), nil
}

// DeleteByID removes the story; a missing id reports false, never an error.
func (s *StoryStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stories[id]; !ok {
		return false, nil
	}
	delete(s.stories, id)
	return true, nil
}

func (s *StoryStore) filtered(keep func(domain.Story) bool) []domain.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Story, 0, len(s.stories))
	for _, story := range s.stories {
		if keep(story) {
			result = append(result, copyStory(story))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func copyStory(story domain.Story) domain.Story {
	if story.PublishedAt != nil {
		at := *story.PublishedAt
		story.PublishedAt = &at
	}
	return story
}
