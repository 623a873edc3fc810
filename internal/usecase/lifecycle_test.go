package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StoryPress/internal/domain"
	"StoryPress/internal/infrastructure/storage/memory"
	"StoryPress/internal/ports"
)

func TestCreateStoryDirect(t *testing.T) {
	t.Parallel()

	engine, stories, _, _, views, notifier := newEngine()
	ctx := context.Background()

	story, err := engine.CreateStory(ctx, domain.GenreMacera, ports.GenerationOptions{}, ModeDirect)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, story.Status)
	assert.Equal(t, domain.GenreMacera, story.Genre)
	assert.Equal(t, "https://img.example.org/cover.png", story.ImageURL)
	assert.Nil(t, story.PublishedAt)

	stored, err := stories.GetByID(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, story.Title, stored.Title)

	assert.Contains(t, views.all(), ports.ViewAdmin)
	assert.Equal(t, []string{"Kayip Sehir"}, notifier.titles)
}

func TestCreateStoryGated(t *testing.T) {
	t.Parallel()

	engine, _, _, _, _, _ := newEngine()

	story, err := engine.CreateStory(context.Background(), domain.GenreKorku, ports.GenerationOptions{}, ModeGated)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingApproval, story.Status)
}

func TestCreateStoryRejectsUnknownGenre(t *testing.T) {
	t.Parallel()

	engine, _, text, _, _, _ := newEngine()

	_, err := engine.CreateStory(context.Background(), domain.Genre("Western"), ports.GenerationOptions{}, ModeDirect)
	assert.Error(t, err)
	assert.Zero(t, text.calls)
}

func TestCreateStoryAllOrNothingOnImageFailure(t *testing.T) {
	t.Parallel()

	engine, stories, _, image, _, notifier := newEngine()
	image.err = errBoom

	_, err := engine.CreateStory(context.Background(), domain.GenreMacera, ports.GenerationOptions{}, ModeDirect)

	require.Error(t, err)
	assert.True(t, domain.IsGenerationError(err))

	all, listErr := stories.List(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, all, "no partial story may survive a failed orchestration")
	assert.Empty(t, notifier.titles)
}

func TestCreateStoryEmptyContentIsGenerationFailure(t *testing.T) {
	t.Parallel()

	engine, stories, text, image, _, _ := newEngine()
	text.text = domain.GeneratedText{Title: "Basliksiz", Content: "   "}

	_, err := engine.CreateStory(context.Background(), domain.GenreGizem, ports.GenerationOptions{}, ModeDirect)

	require.Error(t, err)
	assert.True(t, domain.IsGenerationError(err))
	assert.Zero(t, image.calls, "image generation must not run after invalid text")

	all, listErr := stories.List(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, all)
}

func TestCreateStoryNotificationFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	engine, stories, _, _, _, notifier := newEngine()
	notifier.err = errBoom

	story, err := engine.CreateStory(context.Background(), domain.GenreMasal, ports.GenerationOptions{}, ModeDirect)
	require.NoError(t, err)

	_, err = stories.GetByID(context.Background(), story.ID)
	assert.NoError(t, err)
}

func TestPublishStampsPublishedAtOnce(t *testing.T) {
	t.Parallel()

	engine, _, _, _, _, _ := newEngine()
	ctx := context.Background()

	story, err := engine.CreateStory(ctx, domain.GenreMacera, ports.GenerationOptions{}, ModeDirect)
	require.NoError(t, err)

	first, err := engine.Publish(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, first.Outcome)
	require.NotNil(t, first.Story)
	require.NotNil(t, first.Story.PublishedAt)
	publishedAt := *first.Story.PublishedAt

	second, err := engine.Publish(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyDone, second.Outcome)
	assert.Equal(t, domain.StatusPublished, second.Status)
	require.NotNil(t, second.Story)
	require.NotNil(t, second.Story.PublishedAt)
	assert.Equal(t, publishedAt, *second.Story.PublishedAt)
}

func TestPublishFromAwaitingApproval(t *testing.T) {
	t.Parallel()

	engine, _, _, _, _, _ := newEngine()
	ctx := context.Background()

	story, err := engine.CreateStory(ctx, domain.GenreKorku, ports.GenerationOptions{}, ModeGated)
	require.NoError(t, err)

	result, err := engine.Publish(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)
	assert.Equal(t, domain.StatusPublished, result.Status)
}

func TestPublishNotFound(t *testing.T) {
	t.Parallel()

	engine, _, _, _, _, _ := newEngine()

	result, err := engine.Publish(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, result.Outcome)
}

func TestPublishInvalidatesViews(t *testing.T) {
	t.Parallel()

	engine, _, _, _, views, _ := newEngine()
	ctx := context.Background()

	story, err := engine.CreateStory(ctx, domain.GenreMacera, ports.GenerationOptions{}, ModeDirect)
	require.NoError(t, err)

	_, err = engine.Publish(ctx, story.ID)
	require.NoError(t, err)

	all := views.all()
	assert.Contains(t, all, ports.ViewHome)
	assert.Contains(t, all, ports.StoryView(story.ID))
	assert.Contains(t, all, ports.GenreView(domain.GenreMacera))
}

func TestApproveMovesGatedStoryToPending(t *testing.T) {
	t.Parallel()

	engine, _, _, _, _, _ := newEngine()
	ctx := context.Background()

	story, err := engine.CreateStory(ctx, domain.GenreGizem, ports.GenerationOptions{}, ModeGated)
	require.NoError(t, err)

	result, err := engine.Approve(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)
	assert.Equal(t, domain.StatusPending, result.Status)
}

func TestApproveIsNoOpOutsideAwaitingApproval(t *testing.T) {
	t.Parallel()

	engine, _, _, _, _, _ := newEngine()
	ctx := context.Background()

	story, err := engine.CreateStory(ctx, domain.GenreGizem, ports.GenerationOptions{}, ModeDirect)
	require.NoError(t, err)
	_, err = engine.Publish(ctx, story.ID)
	require.NoError(t, err)

	result, err := engine.Approve(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyDone, result.Outcome)
	assert.Equal(t, domain.StatusPublished, result.Status)
}

func TestRejectDeletesOnlyAwaitingApproval(t *testing.T) {
	t.Parallel()

	engine, stories, _, _, _, _ := newEngine()
	ctx := context.Background()

	gated, err := engine.CreateStory(ctx, domain.GenreKorku, ports.GenerationOptions{}, ModeGated)
	require.NoError(t, err)
	direct, err := engine.CreateStory(ctx, domain.GenreKorku, ports.GenerationOptions{}, ModeDirect)
	require.NoError(t, err)

	result, err := engine.Reject(ctx, gated.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)
	_, err = stories.GetByID(ctx, gated.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	result, err = engine.Reject(ctx, direct.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalidState, result.Outcome)
	assert.Equal(t, domain.StatusPending, result.Status)
	_, err = stories.GetByID(ctx, direct.ID)
	assert.NoError(t, err, "reject must not touch stories outside awaiting_approval")
}

func TestRejectNotFound(t *testing.T) {
	t.Parallel()

	engine, _, _, _, _, _ := newEngine()

	result, err := engine.Reject(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, result.Outcome)
}

func TestDeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	engine, _, _, _, _, _ := newEngine()
	ctx := context.Background()

	story, err := engine.CreateStory(ctx, domain.GenreMacera, ports.GenerationOptions{}, ModeDirect)
	require.NoError(t, err)

	deleted, err := engine.Delete(ctx, story.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = engine.Delete(ctx, story.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestChangeGenreInvalidatesBothGenres(t *testing.T) {
	t.Parallel()

	engine, _, _, _, views, _ := newEngine()
	ctx := context.Background()

	story, err := engine.CreateStory(ctx, domain.GenreMacera, ports.GenerationOptions{}, ModeDirect)
	require.NoError(t, err)
	_, err = engine.Publish(ctx, story.ID)
	require.NoError(t, err)

	views.batches = nil
	result, err := engine.ChangeGenre(ctx, story.ID, domain.GenreKorku)
	require.NoError(t, err)

	assert.Equal(t, OutcomeApplied, result.Outcome)
	require.NotNil(t, result.Story)
	assert.Equal(t, domain.GenreKorku, result.Story.Genre)
	assert.Equal(t, domain.StatusPublished, result.Story.Status, "genre change is not a lifecycle transition")

	all := views.all()
	assert.Contains(t, all, ports.GenreView(domain.GenreMacera))
	assert.Contains(t, all, ports.GenreView(domain.GenreKorku))
	assert.Contains(t, all, ports.ViewHome)
}

func TestRegenerateImageKeepsStatus(t *testing.T) {
	t.Parallel()

	engine, _, _, image, _, _ := newEngine()
	ctx := context.Background()

	story, err := engine.CreateStory(ctx, domain.GenreMasal, ports.GenerationOptions{}, ModeDirect)
	require.NoError(t, err)

	image.url = "https://img.example.org/other.png"
	result, err := engine.RegenerateImage(ctx, story.ID)
	require.NoError(t, err)

	assert.Equal(t, OutcomeApplied, result.Outcome)
	require.NotNil(t, result.Story)
	assert.Equal(t, "https://img.example.org/other.png", result.Story.ImageURL)
	assert.Equal(t, domain.StatusPending, result.Story.Status)
}

// newBareEngine builds an engine with only the store wired so concurrent
// callers exercise nothing but the transition path.
func newBareEngine(status domain.StoryStatus) (*Lifecycle, *memory.StoryStore, domain.Story) {
	stories := memory.NewStoryStore()
	story, err := stories.Create(context.Background(), domain.NewStory{
		Title:   "Kayip Sehir",
		Content: "Kum ve ruzgar arasinda bir sehir.",
		Genre:   domain.GenreMacera,
		Status:  status,
	})
	if err != nil {
		panic(err)
	}
	return NewLifecycle(LifecycleDeps{Stories: stories}), stories, story
}

func TestPublishConcurrentCallersApplyOnce(t *testing.T) {
	t.Parallel()

	engine, stories, story := newBareEngine(domain.StatusPending)
	ctx := context.Background()

	const callers = 16
	outcomes := make([]Outcome, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := engine.Publish(ctx, story.ID)
			outcomes[i], errs[i] = result.Outcome, err
		}(i)
	}
	wg.Wait()

	applied := 0
	for i, outcome := range outcomes {
		require.NoError(t, errs[i])
		switch outcome {
		case OutcomeApplied:
			applied++
		case OutcomeAlreadyDone:
		default:
			t.Fatalf("unexpected outcome %q", outcome)
		}
	}
	assert.Equal(t, 1, applied, "exactly one caller may perform the transition")

	published, err := stories.GetByID(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)
}

func TestRejectConcurrentCallersApplyOnce(t *testing.T) {
	t.Parallel()

	engine, stories, story := newBareEngine(domain.StatusAwaitingApproval)
	ctx := context.Background()

	const callers = 16
	outcomes := make([]Outcome, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := engine.Reject(ctx, story.ID)
			outcomes[i], errs[i] = result.Outcome, err
		}(i)
	}
	wg.Wait()

	applied := 0
	for i, outcome := range outcomes {
		require.NoError(t, errs[i])
		switch outcome {
		case OutcomeApplied:
			applied++
		case OutcomeNotFound:
		default:
			t.Fatalf("unexpected outcome %q", outcome)
		}
	}
	assert.Equal(t, 1, applied, "exactly one caller may delete the story")

	_, err := stories.GetByID(ctx, story.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
