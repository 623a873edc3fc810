package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"StoryPress/internal/config"
	"StoryPress/internal/ports"
)

// promptLimit keeps image prompts inside the API's accepted length.
const promptLimit = 900

// ImageClient implements ports.ImageGenerator backed by OpenAI-compatible
// image APIs.
type ImageClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.ImageGenerator = (*ImageClient)(nil)

// NewImageClient builds a client from configuration.
func NewImageClient(cfg config.OpenAIConfig) *ImageClient {
	return &ImageClient{
		endpoint: cfg.ImageEndpoint,
		model:    cfg.ImageModel,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

type imageResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// GenerateImage requests a single cover image for the prompt and returns
// its URL, falling back to a data URI when the API responds with base64
// content.
func (c *ImageClient) GenerateImage(ctx context.Context, promptText string) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("image client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model":  c.model,
		"prompt": "Cover illustration for a short story. " + clip(promptText, promptLimit),
		"n":      1,
		"size":   "1024x1024",
	})
	if err != nil {
		return "", fmt.Errorf("marshal image payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call image api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("image api error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode image response: %w", err)
	}
	if len(decoded.Data) == 0 {
		return "", fmt.Errorf("image response contains no data")
	}

	if url := strings.TrimSpace(decoded.Data[0].URL); url != "" {
		return url, nil
	}
	if b64 := strings.TrimSpace(decoded.Data[0].B64JSON); b64 != "" {
		return "data:image/png;base64," + b64, nil
	}
	return "", fmt.Errorf("image response contains neither url nor content")
}

// clip bounds s to at most limit bytes without splitting a rune.
func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
