package domain

import "time"

// Genre is the fixed category set a story or schedule rule belongs to.
type Genre string

const (
	GenreMacera     Genre = "Macera"
	GenreBilimKurgu Genre = "Bilim Kurgu"
	GenreFantastik  Genre = "Fantastik"
	GenreGizem      Genre = "Gizem"
	GenreRomantik   Genre = "Romantik"
	GenreKorku      Genre = "Korku"
	GenreMasal      Genre = "Masal"
)

// AllGenres lists every supported genre in display order.
var AllGenres = []Genre{
	GenreMacera,
	GenreBilimKurgu,
	GenreFantastik,
	GenreGizem,
	GenreRomantik,
	GenreKorku,
	GenreMasal,
}

// IsValid reports whether the genre belongs to the fixed enumeration.
func (g Genre) IsValid() bool {
	for _, known := range AllGenres {
		if g == known {
			return true
		}
	}
	return false
}

func (g Genre) String() string {
	return string(g)
}

// StoryStatus enumerates lifecycle states of a story.
type StoryStatus string

const (
	// StatusPending marks a story waiting in the publish queue.
	StatusPending StoryStatus = "pending"
	// StatusAwaitingApproval marks a story created through the gated
	// channel, waiting for an asynchronous approve/reject decision.
	StatusAwaitingApproval StoryStatus = "awaiting_approval"
	// StatusPublished marks a story visible to public readers.
	StatusPublished StoryStatus = "published"
)

// IsValid reports whether the status is one of the known lifecycle states.
func (s StoryStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusAwaitingApproval, StatusPublished:
		return true
	}
	return false
}

// Story is a generated narrative item with lifecycle status.
//
// PublishedAt is set exactly once, on the transition into published, and is
// present if and only if Status == StatusPublished. ScheduledAtDate and
// ScheduledAtTime are advisory publication hints; nothing in the core acts
// on them.
type Story struct {
	ID              string
	Title           string
	Content         string
	Summary         string
	ImageURL        string
	Genre           Genre
	Status          StoryStatus
	CreatedAt       time.Time
	PublishedAt     *time.Time
	ScheduledAtDate string
	ScheduledAtTime string
}

// NewStory carries the fields callers supply when persisting a story.
// ID and CreatedAt are assigned by the repository; Summary is derived from
// Content when left empty.
type NewStory struct {
	Title           string
	Content         string
	Summary         string
	ImageURL        string
	Genre           Genre
	Status          StoryStatus
	ScheduledAtDate string
	ScheduledAtTime string
}

// StoryUpdate is a partial update; nil fields are left untouched. When
// Content changes and Summary is not supplied in the same call, the
// repository recomputes Summary from the new content.
type StoryUpdate struct {
	Title           *string
	Content         *string
	Summary         *string
	ImageURL        *string
	Genre           *Genre
	Status          *StoryStatus
	PublishedAt     *time.Time
	ScheduledAtDate *string
	ScheduledAtTime *string
}

// GeneratedText is the payload returned by the text-generation collaborator.
type GeneratedText struct {
	Title   string
	Content string
}
