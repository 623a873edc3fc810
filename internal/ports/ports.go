package ports

import (
	"context"
	"time"

	"StoryPress/internal/domain"
)

// StoryRepository persists stories and serves the filtered reads the
// admin and public surfaces consume. All reads return detached copies.
type StoryRepository interface {
	List(ctx context.Context) ([]domain.Story, error)
	ListByGenre(ctx context.Context, genre domain.Genre) ([]domain.Story, error)
	ListByStatus(ctx context.Context, status domain.StoryStatus) ([]domain.Story, error)
	Search(ctx context.Context, query string) ([]domain.Story, error)
	GetByID(ctx context.Context, id string) (domain.Story, error)
	Create(ctx context.Context, story domain.NewStory) (domain.Story, error)
	Update(ctx context.Context, id string, update domain.StoryUpdate) (domain.Story, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// ScheduleRepository stores one-off generation requests and their
// fulfillment outcomes. List and ListDue order ascending by due instant.
type ScheduleRepository interface {
	List(ctx context.Context) ([]domain.ScheduledGeneration, error)
	ListDue(ctx context.Context, now time.Time) ([]domain.ScheduledGeneration, error)
	GetByID(ctx context.Context, id string) (domain.ScheduledGeneration, error)
	Add(ctx context.Context, entry domain.NewScheduledGeneration) (domain.ScheduledGeneration, error)
	UpdateStatus(ctx context.Context, id string, status domain.GenerationStatus, storyID, errorMessage string) (domain.ScheduledGeneration, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	ExistsAt(ctx context.Context, date, timeOfDay string) (bool, error)
}

// WeeklyScheduleRepository stores recurring generation rules keyed by
// their (day-of-week, time) natural key.
type WeeklyScheduleRepository interface {
	List(ctx context.Context) ([]domain.WeeklyScheduleItem, error)
	Upsert(ctx context.Context, day time.Weekday, timeOfDay string, genre domain.Genre) (domain.WeeklyScheduleItem, error)
	DeleteByDayTime(ctx context.Context, day time.Weekday, timeOfDay string) (bool, error)
}

// GenerationOptions refine a text-generation request. Zero values mean
// model defaults.
type GenerationOptions struct {
	SubGenre       string
	Length         string
	Complexity     string
	TargetAudience string
}

// TextGenerator produces a story title and body for a genre. Both fields
// must be non-empty on success; an empty field is a failure even when the
// underlying call succeeded.
type TextGenerator interface {
	GenerateStory(ctx context.Context, genre domain.Genre, opts GenerationOptions) (domain.GeneratedText, error)
}

// ImageGenerator produces a cover-image URL (remote or data URI) from a
// prompt. The URL must be non-empty on success.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Notifier dispatches best-effort notifications about new stories.
// Failures must never block or fail the primary operation.
type Notifier interface {
	NotifyStoryCreated(ctx context.Context, title, snippet string) error
}

// ViewInvalidator drops cached presentation views after mutations.
type ViewInvalidator interface {
	Invalidate(ctx context.Context, views ...string) error
}

// View keys handed to the ViewInvalidator.
const (
	ViewHome  = "views:home"
	ViewAdmin = "views:admin"
)

// StoryView returns the cache key of a single story's detail view.
func StoryView(id string) string {
	return "views:story:" + id
}

// GenreView returns the cache key of a genre listing.
func GenreView(genre domain.Genre) string {
	return "views:genre:" + string(genre)
}

// TickDriver controls when reconciliation runs.
type TickDriver interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
