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

var storyColumns = []string{
	"id", "title", "content", "summary", "image_url", "genre", "status",
	"created_at", "published_at", "scheduled_at_date", "scheduled_at_time",
}

// StoryRepository persists stories in Postgres.
type StoryRepository struct {
	db DB
}

var _ ports.StoryRepository = (*StoryRepository)(nil)

// NewStoryRepository wires a pool implementation.
func NewStoryRepository(db DB) *StoryRepository {
	return &StoryRepository{db: db}
}

// List returns all stories, newest first.
func (r *StoryRepository) List(ctx context.Context) ([]domain.Story, error) {
	return r.selectStories(ctx, r.base())
}

// ListByGenre returns stories of one genre, newest first.
func (r *StoryRepository) ListByGenre(ctx context.Context, genre domain.Genre) ([]domain.Story, error) {
	return r.selectStories(ctx, r.base().Where(sq.Eq{"genre": string(genre)}))
}

// ListByStatus returns stories in one lifecycle state, newest first.
func (r *StoryRepository) ListByStatus(ctx context.Context, status domain.StoryStatus) ([]domain.Story, error) {
	return r.selectStories(ctx, r.base().Where(sq.Eq{"status": string(status)}))
}

// Search matches the query case-insensitively against title and content.
func (r *StoryRepository) Search(ctx context.Context, query string) ([]domain.Story, error) {
	pattern := "%" + query + "%"
	return r.selectStories(ctx, r.base().Where(sq.Or{
		sq.ILike{"title": pattern},
		sq.ILike{"content": pattern},
	}))
}

// GetByID returns a single story or domain.ErrNotFound.
func (r *StoryRepository) GetByID(ctx context.Context, id string) (domain.Story, error) {
	query, args, err := r.base().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Story{}, fmt.Errorf("build story query: %w", err)
	}

	story, err := scanStory(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Story{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Story{}, fmt.Errorf("get story %s: %w", id, err)
	}
	return story, nil
}

// Create inserts a story, assigning ID and CreatedAt and deriving the
// summary when absent.
func (r *StoryRepository) Create(ctx context.Context, story domain.NewStory) (domain.Story, error) {
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
		CreatedAt:       time.Now(),
		ScheduledAtDate: story.ScheduledAtDate,
		ScheduledAtTime: story.ScheduledAtTime,
	}

	query, args, err := builder.Insert("stories").
		Columns(storyColumns...).
		Values(created.ID, created.Title, created.Content, created.Summary,
			created.ImageURL, string(created.Genre), string(created.Status),
			created.CreatedAt, nil, created.ScheduledAtDate, created.ScheduledAtTime).
		ToSql()
	if err != nil {
		return domain.Story{}, fmt.Errorf("build story insert: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return domain.Story{}, fmt.Errorf("insert story: %w", err)
	}
	return created, nil
}

// Update merges the supplied partial fields. A content change without an
// explicit summary recomputes the summary from the new content.
func (r *StoryRepository) Update(ctx context.Context, id string, update domain.StoryUpdate) (domain.Story, error) {
	ub := builder.Update("stories").Where(sq.Eq{"id": id})

	touched := false
	set := func(column string, value any) {
		ub = ub.Set(column, value)
		touched = true
	}

	if update.Title != nil {
		set("title", *update.Title)
	}
	if update.Content != nil {
		set("content", *update.Content)
		if update.Summary == nil {
			set("summary", domain.Summarize(*update.Content, domain.SummaryTokenLimit))
		}
	}
	if update.Summary != nil {
		set("summary", *update.Summary)
	}
	if update.ImageURL != nil {
		set("image_url", *update.ImageURL)
	}
	if update.Genre != nil {
		set("genre", string(*update.Genre))
	}
	if update.Status != nil {
		set("status", string(*update.Status))
	}
	if update.PublishedAt != nil {
		// Set exactly once: an existing publication timestamp wins.
		ub = ub.Set("published_at", sq.Expr("COALESCE(published_at, ?)", *update.PublishedAt))
		touched = true
	}
	if update.ScheduledAtDate != nil {
		set("scheduled_at_date", *update.ScheduledAtDate)
	}
	if update.ScheduledAtTime != nil {
		set("scheduled_at_time", *update.ScheduledAtTime)
	}

	if !touched {
		return r.GetByID(ctx, id)
	}

	query, args, err := ub.Suffix("RETURNING " + columnList(storyColumns)).ToSql()
	if err != nil {
		return domain.Story{}, fmt.Errorf("build story update: %w", err)
	}

	story, err := scanStory(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Story{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Story{}, fmt.Errorf("update story %s: %w", id, err)
	}
	return story, nil
}

// DeleteByID removes the story; a missing id reports false, never an error.
func (r *StoryRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	query, args, err := builder.Delete("stories").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build story delete: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete story %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *StoryRepository) base() sq.SelectBuilder {
	return builder.Select(storyColumns...).From("stories").OrderBy("created_at DESC")
}

func (r *StoryRepository) selectStories(ctx context.Context, sb sq.SelectBuilder) ([]domain.Story, error) {
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stories query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stories: %w", err)
	}
	defer rows.Close()

	var stories []domain.Story
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, story)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stories: %w", err)
	}
	return stories, nil
}

func scanStory(row pgx.Row) (domain.Story, error) {
	var (
		story  domain.Story
		genre  string
		status string
	)
	err := row.Scan(&story.ID, &story.Title, &story.Content, &story.Summary,
		&story.ImageURL, &genre, &status, &story.CreatedAt, &story.PublishedAt,
		&story.ScheduledAtDate, &story.ScheduledAtTime)
	if err != nil {
		return domain.Story{}, err
	}
	story.Genre = domain.Genre(genre)
	story.Status = domain.StoryStatus(status)
	return story, nil
}

func columnList(columns []string) string {
	list := columns[0]
	for _, column := range columns[1:] {
		list += ", " + column
	}
	return list
}
