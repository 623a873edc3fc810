package usecase

import (
	"context"
	"errors"
	"time"

	"StoryPress/internal/domain"
	"StoryPress/internal/infrastructure/storage/memory"
	"StoryPress/internal/ports"
)

type stubTextGen struct {
	text  domain.GeneratedText
	err   error
	calls int
}

func (s *stubTextGen) GenerateStory(ctx context.Context, genre domain.Genre, opts ports.GenerationOptions) (domain.GeneratedText, error) {
	s.calls++
	return s.text, s.err
}

type stubImageGen struct {
	url   string
	err   error
	calls int
}

func (s *stubImageGen) GenerateImage(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.url, s.err
}

type recordingViews struct {
	batches [][]string
}

func (r *recordingViews) Invalidate(ctx context.Context, views ...string) error {
	r.batches = append(r.batches, views)
	return nil
}

func (r *recordingViews) all() []string {
	var flat []string
	for _, batch := range r.batches {
		flat = append(flat, batch...)
	}
	return flat
}

type recordingNotifier struct {
	titles []string
	err    error
}

func (r *recordingNotifier) NotifyStoryCreated(ctx context.Context, title, snippet string) error {
	r.titles = append(r.titles, title)
	return r.err
}

// newEngine builds a lifecycle engine on fresh in-memory stores with
// working generator stubs.
func newEngine() (*Lifecycle, *memory.StoryStore, *stubTextGen, *stubImageGen, *recordingViews, *recordingNotifier) {
	stories := memory.NewStoryStore()
	text := &stubTextGen{text: domain.GeneratedText{Title: "Kayip Sehir", Content: "Kum ve ruzgar arasinda bir sehir."}}
	image := &stubImageGen{url: "https://img.example.org/cover.png"}
	views := &recordingViews{}
	notifier := &recordingNotifier{}

	engine := NewLifecycle(LifecycleDeps{
		Stories:    stories,
		TextGen:    text,
		ImageGen:   image,
		Notifier:   notifier,
		Views:      views,
		GenTimeout: time.Second,
	})
	return engine, stories, text, image, views, notifier
}

var errBoom = errors.New("boom")
