package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"StoryPress/internal/config"
	"StoryPress/internal/ports"
)

// Mailer sends new-story notifications through a mail-API webhook. The
// channel is best-effort: callers log failures and move on.
type Mailer struct {
	endpoint string
	apiKey   string
	from     string
	to       string
	client   *http.Client
}

var _ ports.Notifier = (*Mailer)(nil)

// NewMailer registers the webhook endpoint and addressing.
func NewMailer(cfg config.MailConfig) *Mailer {
	return &Mailer{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		from:     cfg.From,
		to:       cfg.To,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// NotifyStoryCreated posts a JSON mail request with the story title and a
// content snippet.
func (m *Mailer) NotifyStoryCreated(ctx context.Context, title, snippet string) error {
	if m.endpoint == "" || m.to == "" || m.client == nil {
		return fmt.Errorf("mail notifier misconfigured")
	}

	body, err := json.Marshal(map[string]string{
		"from":    m.from,
		"to":      m.to,
		"subject": "New story awaiting review: " + title,
		"text":    snippet,
	})
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("mail api error: %s", resp.Status)
	}

	return nil
}
