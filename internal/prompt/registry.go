package prompt

import (
	"fmt"
	"strings"

	"StoryPress/internal/domain"
	"StoryPress/internal/ports"
)

// Builder composes the system and user messages for one genre.
type Builder interface {
	Genre() domain.Genre
	Build(opts ports.GenerationOptions) (system string, user string)
}

// Registry keeps a mapping from genres to their prompt builders.
type Registry struct {
	builders map[domain.Genre]Builder
}

// NewRegistry builds a registry pre-populated with a builder per genre.
func NewRegistry() *Registry {
	r := &Registry{builders: map[domain.Genre]Builder{}}
	for genre, directive := range genreDirectives {
		r.Register(genreBuilder{genre: genre, directive: directive})
	}
	return r
}

// Register adds or replaces a builder for its genre.
func (r *Registry) Register(builder Builder) {
	if r.builders == nil {
		r.builders = map[domain.Genre]Builder{}
	}
	r.builders[builder.Genre()] = builder
}

// Resolve returns the builder for a genre or an error if it is absent.
func (r *Registry) Resolve(genre domain.Genre) (Builder, error) {
	if builder, ok := r.builders[genre]; ok {
		return builder, nil
	}
	return nil, fmt.Errorf("no prompt builder registered for genre %s", genre)
}

var genreDirectives = map[domain.Genre]string{
	domain.GenreMacera:     "an adventure full of movement, danger, and a protagonist chasing a concrete goal",
	domain.GenreBilimKurgu: "a science-fiction piece anchored in one speculative idea and its human cost",
	domain.GenreFantastik:  "a fantasy tale with one clear magical rule that drives the plot",
	domain.GenreGizem:      "a mystery with a question posed early and answered in the final lines",
	domain.GenreRomantik:   "a romance centered on a single meeting, choice, or parting",
	domain.GenreKorku:      "a horror piece building dread through restraint rather than gore",
	domain.GenreMasal:      "a fairy tale with folk-story cadence and a gentle moral",
}

type genreBuilder struct {
	genre     domain.Genre
	directive string
}

func (b genreBuilder) Genre() domain.Genre {
	return b.genre
}

func (b genreBuilder) Build(opts ports.GenerationOptions) (string, string) {
	system := "You are a fiction writer producing short-form stories in Turkish. " +
		"Respond with a single JSON object {\"title\": string, \"content\": string} and nothing else. " +
		"Both fields must be non-empty plain text."

	var req strings.Builder
	fmt.Fprintf(&req, "Write %s.", b.directive)
	if opts.SubGenre != "" {
		fmt.Fprintf(&req, " Sub-genre: %s.", opts.SubGenre)
	}
	if opts.Length != "" {
		fmt.Fprintf(&req, " Length: %s.", opts.Length)
	}
	if opts.Complexity != "" {
		fmt.Fprintf(&req, " Complexity: %s.", opts.Complexity)
	}
	if opts.TargetAudience != "" {
		fmt.Fprintf(&req, " Target audience: %s.", opts.TargetAudience)
	}
	return system, req.String()
}
