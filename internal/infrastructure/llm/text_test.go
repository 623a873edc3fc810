package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StoryPress/internal/config"
	"StoryPress/internal/domain"
	"StoryPress/internal/ports"
	"StoryPress/internal/prompt"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Messages, 2)
		assert.Equal(t, "system", payload.Messages[0].Role)

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": content}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func newTestClient(endpoint string) *TextClient {
	return NewTextClient(config.OpenAIConfig{
		Endpoint: endpoint,
		Model:    "gpt-4o-mini",
		APIKey:   "test-key",
	}, prompt.NewRegistry())
}

func TestGenerateStory(t *testing.T) {
	t.Parallel()

	server := chatServer(t, `{"title": "Kayip Sehir", "content": "Kum ve ruzgar."}`)
	defer server.Close()

	client := newTestClient(server.URL)
	text, err := client.GenerateStory(context.Background(), domain.GenreMacera, ports.GenerationOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Kayip Sehir", text.Title)
	assert.Equal(t, "Kum ve ruzgar.", text.Content)
}

func TestGenerateStoryStripsCodeFences(t *testing.T) {
	t.Parallel()

	server := chatServer(t, "```json\n{\"title\": \"Gece\", \"content\": \"Sessizlik.\"}\n```")
	defer server.Close()

	client := newTestClient(server.URL)
	text, err := client.GenerateStory(context.Background(), domain.GenreKorku, ports.GenerationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Gece", text.Title)
}

func TestGenerateStoryEmptyContentFails(t *testing.T) {
	t.Parallel()

	server := chatServer(t, `{"title": "Bos", "content": ""}`)
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GenerateStory(context.Background(), domain.GenreGizem, ports.GenerationOptions{})
	assert.Error(t, err)
}

func TestGenerateStoryHTTPErrorFails(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GenerateStory(context.Background(), domain.GenreMasal, ports.GenerationOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGenerateStoryMisconfigured(t *testing.T) {
	t.Parallel()

	client := NewTextClient(config.OpenAIConfig{}, prompt.NewRegistry())
	_, err := client.GenerateStory(context.Background(), domain.GenreMacera, ports.GenerationOptions{})
	assert.Error(t, err)
}

func TestGenerateImage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"data": []map[string]string{{"url": "https://img.example.org/a.png"}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := NewImageClient(config.OpenAIConfig{
		ImageEndpoint: server.URL,
		ImageModel:    "dall-e-3",
		APIKey:        "test-key",
	})

	url, err := client.GenerateImage(context.Background(), "a lost city in the desert")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.org/a.png", url)
}

func TestGenerateImageBase64Fallback(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"data": []map[string]string{{"b64_json": "aGVsbG8="}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := NewImageClient(config.OpenAIConfig{
		ImageEndpoint: server.URL,
		ImageModel:    "dall-e-3",
		APIKey:        "test-key",
	})

	url, err := client.GenerateImage(context.Background(), "cover")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", url)
}

func TestGenerateImageEmptyDataFails(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"data": []any{}}))
	}))
	defer server.Close()

	client := NewImageClient(config.OpenAIConfig{
		ImageEndpoint: server.URL,
		ImageModel:    "dall-e-3",
		APIKey:        "test-key",
	})

	_, err := client.GenerateImage(context.Background(), "cover")
	assert.Error(t, err)
}

func TestClipKeepsRuneBoundaries(t *testing.T) {
	t.Parallel()

	// "ş" is two bytes; an odd limit lands mid-rune.
	prompt := strings.Repeat("ş", promptLimit)
	got := clip(prompt, promptLimit-1)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, promptLimit-2, len(got))

	assert.Equal(t, "kisa", clip("kisa", promptLimit))
}
