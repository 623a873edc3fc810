package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"StoryPress/internal/config"
	"StoryPress/internal/domain"
	"StoryPress/internal/ports"
	"StoryPress/internal/prompt"
)

// TextClient implements ports.TextGenerator backed by OpenAI-compatible
// chat-completion APIs.
type TextClient struct {
	endpoint   string
	model      string
	apiKey     string
	prompts    *prompt.Registry
	httpClient *http.Client
}

var _ ports.TextGenerator = (*TextClient)(nil)

// NewTextClient builds a client from configuration.
func NewTextClient(cfg config.OpenAIConfig, prompts *prompt.Registry) *TextClient {
	return &TextClient{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		prompts:  prompts,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateStory requests a title and body for the genre and decodes the
// model's JSON payload. An empty title or content is a failure even when
// the call itself succeeded.
func (c *TextClient) GenerateStory(ctx context.Context, genre domain.Genre, opts ports.GenerationOptions) (domain.GeneratedText, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return domain.GeneratedText{}, fmt.Errorf("text client misconfigured")
	}
	if c.prompts == nil {
		return domain.GeneratedText{}, fmt.Errorf("prompt registry is not configured")
	}

	builder, err := c.prompts.Resolve(genre)
	if err != nil {
		return domain.GeneratedText{}, err
	}
	system, user := builder.Build(opts)

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"response_format": map[string]string{"type": "json_object"},
	})
	if err != nil {
		return domain.GeneratedText{}, fmt.Errorf("marshal chat payload: %w", err)
	}

	raw, err := c.post(ctx, body)
	if err != nil {
		return domain.GeneratedText{}, err
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return domain.GeneratedText{}, fmt.Errorf("decode chat response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return domain.GeneratedText{}, fmt.Errorf("chat response contains no choices")
	}

	var text domain.GeneratedText
	content := stripFences(decoded.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}{&text.Title, &text.Content}); err != nil {
		return domain.GeneratedText{}, fmt.Errorf("decode story payload: %w", err)
	}

	if strings.TrimSpace(text.Title) == "" || strings.TrimSpace(text.Content) == "" {
		return domain.GeneratedText{}, fmt.Errorf("model returned an empty title or content")
	}
	return text, nil
}

func (c *TextClient) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call chat api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("chat api error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}
	return raw, nil
}

// stripFences removes a markdown code fence some models wrap around JSON.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
