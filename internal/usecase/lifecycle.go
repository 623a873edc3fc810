package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"StoryPress/internal/domain"
	"StoryPress/internal/metrics"
	"StoryPress/internal/ports"
)

// CreationMode selects the initial status of a generated story.
type CreationMode string

const (
	// ModeDirect creates stories straight into the publish queue.
	ModeDirect CreationMode = "direct"
	// ModeGated creates stories awaiting an asynchronous approve/reject
	// decision from the mail channel.
	ModeGated CreationMode = "gated"
)

func (m CreationMode) initialStatus() domain.StoryStatus {
	if m == ModeGated {
		return domain.StatusAwaitingApproval
	}
	return domain.StatusPending
}

// Outcome classifies the result of a lifecycle transition attempt.
type Outcome string

const (
	OutcomeApplied      Outcome = "applied"
	OutcomeAlreadyDone  Outcome = "already_handled"
	OutcomeNotFound     Outcome = "not_found"
	OutcomeInvalidState Outcome = "invalid_state"
)

// TransitionResult reports what a transition attempt did. Status carries
// the story's current status whenever the record still exists, so a user
// following a stale link gets an accurate explanation.
type TransitionResult struct {
	Outcome Outcome
	Status  domain.StoryStatus
	Story   *domain.Story
}

// LifecycleDeps wires collaborators into the lifecycle engine. Notifier,
// Views and Metrics are optional; the engine tolerates their absence.
type LifecycleDeps struct {
	Stories  ports.StoryRepository
	TextGen  ports.TextGenerator
	ImageGen ports.ImageGenerator
	Notifier ports.Notifier
	Views    ports.ViewInvalidator
	Metrics  *metrics.Metrics
	Logger   *slog.Logger

	// GenTimeout bounds each collaborator call; zero disables the bound.
	GenTimeout time.Duration
}

// Lifecycle is the state machine governing story status transitions and
// the create-story orchestration. It holds no cross-call state beyond the
// per-record locks serializing read-modify-write sequences.
type Lifecycle struct {
	stories    ports.StoryRepository
	textGen    ports.TextGenerator
	imageGen   ports.ImageGenerator
	notifier   ports.Notifier
	views      ports.ViewInvalidator
	metrics    *metrics.Metrics
	logger     *slog.Logger
	genTimeout time.Duration
	locks      keyedLocker
}

// NewLifecycle constructs the engine.
func NewLifecycle(deps LifecycleDeps) *Lifecycle {
	return &Lifecycle{
		stories:    deps.Stories,
		textGen:    deps.TextGen,
		imageGen:   deps.ImageGen,
		notifier:   deps.Notifier,
		views:      deps.Views,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		genTimeout: deps.GenTimeout,
	}
}

// CreateStory runs the full generation orchestration: text, then image,
// then a single all-or-nothing persist. A failure at any step leaves no
// partial story behind. Retry policy is the caller's concern.
func (l *Lifecycle) CreateStory(ctx context.Context, genre domain.Genre, opts ports.GenerationOptions, mode CreationMode) (domain.Story, error) {
	if !genre.IsValid() {
		return domain.Story{}, fmt.Errorf("unknown genre %q", genre)
	}
	if l.textGen == nil || l.imageGen == nil {
		return domain.Story{}, errors.New("generation collaborators are not configured")
	}

	text, err := l.generateText(ctx, genre, opts)
	if err != nil {
		l.metrics.GenerationFailed("text")
		return domain.Story{}, &domain.GenerationError{Stage: "text", Err: err}
	}

	imageURL, err := l.generateImage(ctx, text.Title+"\n\n"+text.Content)
	if err != nil {
		l.metrics.GenerationFailed("image")
		return domain.Story{}, &domain.GenerationError{Stage: "image", Err: err}
	}

	story, err := l.stories.Create(ctx, domain.NewStory{
		Title:    text.Title,
		Content:  text.Content,
		ImageURL: imageURL,
		Genre:    genre,
		Status:   mode.initialStatus(),
	})
	if err != nil {
		return domain.Story{}, fmt.Errorf("persist story: %w", err)
	}

	l.metrics.StoryCreated(string(mode))
	l.invalidate(ctx, ports.ViewAdmin)
	l.notify(ctx, story)

	l.log("story created", "id", story.ID, "genre", genre, "status", story.Status)
	return story, nil
}

// Publish moves a story from pending or awaiting_approval into published,
// stamping PublishedAt exactly once. Publishing an already-published story
// is a reported no-op.
func (l *Lifecycle) Publish(ctx context.Context, id string) (TransitionResult, error) {
	unlock := l.locks.lock(id)
	defer unlock()

	story, err := l.stories.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return TransitionResult{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return TransitionResult{}, fmt.Errorf("load story %s: %w", id, err)
	}

	if story.Status == domain.StatusPublished {
		return TransitionResult{Outcome: OutcomeAlreadyDone, Status: story.Status, Story: &story}, nil
	}

	now := time.Now()
	status := domain.StatusPublished
	updated, err := l.stories.Update(ctx, id, domain.StoryUpdate{
		Status:      &status,
		PublishedAt: &now,
	})
	if errors.Is(err, domain.ErrNotFound) {
		return TransitionResult{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return TransitionResult{}, fmt.Errorf("publish story %s: %w", id, err)
	}

	l.invalidate(ctx, ports.ViewHome, ports.ViewAdmin, ports.StoryView(id), ports.GenreView(updated.Genre))
	l.log("story published", "id", id, "genre", updated.Genre)
	return TransitionResult{Outcome: OutcomeApplied, Status: updated.Status, Story: &updated}, nil
}

// Approve moves an awaiting_approval story into the normal publish queue.
// Any other current state is a reported no-op.
func (l *Lifecycle) Approve(ctx context.Context, id string) (TransitionResult, error) {
	unlock := l.locks.lock(id)
	defer unlock()

	story, err := l.stories.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return TransitionResult{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return TransitionResult{}, fmt.Errorf("load story %s: %w", id, err)
	}

	if story.Status != domain.StatusAwaitingApproval {
		return TransitionResult{Outcome: OutcomeAlreadyDone, Status: story.Status, Story: &story}, nil
	}

	status := domain.StatusPending
	updated, err := l.stories.Update(ctx, id, domain.StoryUpdate{Status: &status})
	if errors.Is(err, domain.ErrNotFound) {
		return TransitionResult{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return TransitionResult{}, fmt.Errorf("approve story %s: %w", id, err)
	}

	l.invalidate(ctx, ports.ViewAdmin, ports.StoryView(id))
	l.log("story approved", "id", id)
	return TransitionResult{Outcome: OutcomeApplied, Status: updated.Status, Story: &updated}, nil
}

// Reject deletes a story only when it is awaiting approval; any other
// state is a reported no-op so stale mail links stay harmless.
func (l *Lifecycle) Reject(ctx context.Context, id string) (TransitionResult, error) {
	unlock := l.locks.lock(id)
	defer unlock()

	story, err := l.stories.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return TransitionResult{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return TransitionResult{}, fmt.Errorf("load story %s: %w", id, err)
	}

	if story.Status != domain.StatusAwaitingApproval {
		return TransitionResult{Outcome: OutcomeInvalidState, Status: story.Status, Story: &story}, nil
	}

	if _, err := l.stories.DeleteByID(ctx, id); err != nil {
		return TransitionResult{}, fmt.Errorf("reject story %s: %w", id, err)
	}

	l.invalidate(ctx, ports.ViewHome, ports.ViewAdmin)
	l.log("story rejected", "id", id)
	return TransitionResult{Outcome: OutcomeApplied}, nil
}

// Delete removes a story unconditionally. Deleting a missing story is not
// an error; it reports false.
func (l *Lifecycle) Delete(ctx context.Context, id string) (bool, error) {
	unlock := l.locks.lock(id)
	defer unlock()

	deleted, err := l.stories.DeleteByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete story %s: %w", id, err)
	}
	if deleted {
		l.invalidate(ctx, ports.ViewHome, ports.ViewAdmin)
		l.log("story deleted", "id", id)
	}
	return deleted, nil
}

// ChangeGenre edits the genre field in any status. This is a plain field
// update, not a lifecycle transition, but both the old and the new genre
// listings go stale.
func (l *Lifecycle) ChangeGenre(ctx context.Context, id string, genre domain.Genre) (TransitionResult, error) {
	if !genre.IsValid() {
		return TransitionResult{}, fmt.Errorf("unknown genre %q", genre)
	}

	unlock := l.locks.lock(id)
	defer unlock()

	story, err := l.stories.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return TransitionResult{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return TransitionResult{}, fmt.Errorf("load story %s: %w", id, err)
	}

	oldGenre := story.Genre
	updated, err := l.stories.Update(ctx, id, domain.StoryUpdate{Genre: &genre})
	if errors.Is(err, domain.ErrNotFound) {
		return TransitionResult{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return TransitionResult{}, fmt.Errorf("change genre of story %s: %w", id, err)
	}

	views := []string{ports.ViewAdmin, ports.StoryView(id), ports.GenreView(oldGenre), ports.GenreView(genre)}
	if updated.Status == domain.StatusPublished {
		views = append(views, ports.ViewHome)
	}
	l.invalidate(ctx, views...)

	l.log("story genre changed", "id", id, "from", oldGenre, "to", genre)
	return TransitionResult{Outcome: OutcomeApplied, Status: updated.Status, Story: &updated}, nil
}

// RegenerateImage replaces the cover image in any status without touching
// the lifecycle state.
func (l *Lifecycle) RegenerateImage(ctx context.Context, id string) (TransitionResult, error) {
	if l.imageGen == nil {
		return TransitionResult{}, errors.New("image generator is not configured")
	}

	unlock := l.locks.lock(id)
	defer unlock()

	story, err := l.stories.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return TransitionResult{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return TransitionResult{}, fmt.Errorf("load story %s: %w", id, err)
	}

	imageURL, err := l.generateImage(ctx, story.Title+"\n\n"+story.Content)
	if err != nil {
		l.metrics.GenerationFailed("image")
		return TransitionResult{}, &domain.GenerationError{Stage: "image", Err: err}
	}

	updated, err := l.stories.Update(ctx, id, domain.StoryUpdate{ImageURL: &imageURL})
	if errors.Is(err, domain.ErrNotFound) {
		return TransitionResult{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return TransitionResult{}, fmt.Errorf("update story image %s: %w", id, err)
	}

	views := []string{ports.ViewAdmin, ports.StoryView(id)}
	if updated.Status == domain.StatusPublished {
		views = append(views, ports.ViewHome, ports.GenreView(updated.Genre))
	}
	l.invalidate(ctx, views...)

	l.log("story image regenerated", "id", id)
	return TransitionResult{Outcome: OutcomeApplied, Status: updated.Status, Story: &updated}, nil
}

func (l *Lifecycle) generateText(ctx context.Context, genre domain.Genre, opts ports.GenerationOptions) (domain.GeneratedText, error) {
	ctx, cancel := l.bound(ctx)
	defer cancel()

	text, err := l.textGen.GenerateStory(ctx, genre, opts)
	if err != nil {
		return domain.GeneratedText{}, err
	}
	if strings.TrimSpace(text.Title) == "" || strings.TrimSpace(text.Content) == "" {
		return domain.GeneratedText{}, errors.New("generator returned an empty title or content")
	}
	return text, nil
}

func (l *Lifecycle) generateImage(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := l.bound(ctx)
	defer cancel()

	url, err := l.imageGen.GenerateImage(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(url) == "" {
		return "", errors.New("generator returned an empty image url")
	}
	return url, nil
}

func (l *Lifecycle) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.genTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, l.genTimeout)
}

func (l *Lifecycle) invalidate(ctx context.Context, views ...string) {
	if l.views == nil {
		return
	}
	if err := l.views.Invalidate(ctx, views...); err != nil {
		l.log("view invalidation failed", "views", views, "error", err)
	}
}

func (l *Lifecycle) notify(ctx context.Context, story domain.Story) {
	if l.notifier == nil {
		return
	}
	snippet := domain.Summarize(story.Content, domain.SummaryTokenLimit)
	if err := l.notifier.NotifyStoryCreated(ctx, story.Title, snippet); err != nil {
		l.log("notification failed", "id", story.ID, "error", err)
	}
}

func (l *Lifecycle) log(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Info(msg, args...)
	}
}
