package generator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"ceritaku/internal/model"
)

func TestTemplateStory(t *testing.T) {
	draft, err := Template{}.GenerateStory(context.Background(), "  Sains ", model.LevelIntermediate)
	require.NoError(t, err)
	assert.Equal(t, "Petualangan Sains", draft.Title)
	assert.Contains(t, draft.Content, "cerita tentang Sains")
	assert.Contains(t, draft.Content, "level Menengah")
	assert.Equal(t, DefaultStoryImageURL, draft.ImageURL)

	_, err = Template{}.GenerateStory(context.Background(), " ", model.LevelBeginner)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestTemplateAnswer(t *testing.T) {
	draft, err := Template{}.AnswerQuestion(context.Background(), "Why is the sky blue?", model.LevelBeginner)
	require.NoError(t, err)
	assert.Contains(t, draft.Answer, `"Why is the sky blue?"`)
	assert.Equal(t, DefaultAnswerImageURL, draft.ImageURL)
}

func TestParseStoryContentFromFencedJSON(t *testing.T) {
	content := "```json\n{\"title\":\"Robot Baik\",\"content\":\"Pada suatu hari...\"}\n```"
	got, err := parseStoryContent(content)
	require.NoError(t, err)
	assert.Equal(t, "Robot Baik", got.Title)
	assert.Equal(t, "Pada suatu hari...", got.Content)
}

func TestParseStoryContentFromTruncatedJSON(t *testing.T) {
	content := `{"title":"Hutan Ajaib","content":"Kancil berlari.\nIa bertemu`
	got, err := parseStoryContent(content)
	require.NoError(t, err)
	assert.Equal(t, "Hutan Ajaib", got.Title)
	assert.Equal(t, "Kancil berlari.\nIa bertemu", got.Content)
}

func TestParseStoryContentMissingFields(t *testing.T) {
	_, err := parseStoryContent(`{"title":"Only title"}`)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestParseAnswerContent(t *testing.T) {
	got, err := parseAnswerContent(`Here you go: {"answer":"Karena cahaya biru dihamburkan."}`)
	require.NoError(t, err)
	assert.Equal(t, "Karena cahaya biru dihamburkan.", got.Answer)

	_, err = parseAnswerContent("no json at all")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

type scriptedCompleter struct {
	replies []string
	errs    []error
	calls   int
}

func (s *scriptedCompleter) complete(_ context.Context, _ string, _ string) (string, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	reply := ""
	if i < len(s.replies) {
		reply = s.replies[i]
	}
	return reply, err
}

type stubIllustrator struct {
	url string
	err error
}

func (s stubIllustrator) illustrate(context.Context, string) (string, error) {
	return s.url, s.err
}

func TestLLMGeneratorRetriesThenSucceeds(t *testing.T) {
	c := &scriptedCompleter{
		errs:    []error{errors.New("timeout"), nil},
		replies: []string{"", `{"title":"T","content":"C"}`},
	}
	g := newLLMGenerator(c, Config{MaxRetries: 3, Timeout: time.Second}, nil)

	draft, err := g.GenerateStory(context.Background(), "Binatang", model.LevelBeginner)
	require.NoError(t, err)
	assert.Equal(t, "T", draft.Title)
	assert.Equal(t, DefaultStoryImageURL, draft.ImageURL)
	assert.Equal(t, 2, c.calls)
}

func TestLLMGeneratorGivesUp(t *testing.T) {
	boom := errors.New("boom")
	c := &scriptedCompleter{errs: []error{boom, boom}}
	g := newLLMGenerator(c, Config{MaxRetries: 2, Timeout: time.Second}, nil)

	_, err := g.AnswerQuestion(context.Background(), "Apa itu pelangi?", model.LevelBeginner)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, c.calls)
}

func TestLLMGeneratorIllustration(t *testing.T) {
	c := &scriptedCompleter{replies: []string{`{"title":"T","content":"C"}`, `{"title":"T","content":"C"}`}}
	g := newLLMGenerator(c, Config{Timeout: time.Second}, nil)

	g.images = stubIllustrator{url: "https://img.example/1.png"}
	draft, err := g.GenerateStory(context.Background(), "Fantasi", model.LevelAdvanced)
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/1.png", draft.ImageURL)

	g.images = stubIllustrator{err: errors.New("quota")}
	draft, err = g.GenerateStory(context.Background(), "Fantasi", model.LevelAdvanced)
	require.NoError(t, err)
	assert.Equal(t, DefaultStoryImageURL, draft.ImageURL)
}

type failingGenerator struct{}

func (failingGenerator) GenerateStory(context.Context, string, model.ReadingLevel) (StoryDraft, error) {
	return StoryDraft{}, errors.New("down")
}

func (failingGenerator) AnswerQuestion(context.Context, string, model.ReadingLevel) (AnswerDraft, error) {
	return AnswerDraft{}, errors.New("down")
}

func TestFallbackUsesSecondary(t *testing.T) {
	g := NewFallback(failingGenerator{}, Template{}, nil)

	story, err := g.GenerateStory(context.Background(), "Olahraga", model.LevelBeginner)
	require.NoError(t, err)
	assert.Equal(t, "Petualangan Olahraga", story.Title)

	answer, err := g.AnswerQuestion(context.Background(), "Siapa penemu lampu?", model.LevelBeginner)
	require.NoError(t, err)
	assert.NotEmpty(t, answer.Answer)
}

func TestOpenAIGeneratorAgainstFakeServer(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		content := `{"answer":"Langit biru karena cahaya matahari dihamburkan udara."}`
		if len(req.Messages) == 2 && strings.Contains(req.Messages[1].Content, "Topik:") {
			content = "```json\n{\"title\":\"Si Kancil\",\"content\":\"Kancil yang cerdik.\"}\n```"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	defer server.Close()

	g, err := New(context.Background(), Config{
		Provider: ProviderOpenAI,
		APIKey:   "test-key",
		BaseURL:  server.URL + "/v1/",
		Timeout:  5 * time.Second,
	}, nil)
	require.NoError(t, err)

	story, err := g.GenerateStory(context.Background(), "Cerita Rakyat", model.LevelBeginner)
	require.NoError(t, err)
	assert.Equal(t, "Si Kancil", story.Title)
	assert.Equal(t, "Kancil yang cerdik.", story.Content)
	assert.Equal(t, DefaultStoryImageURL, story.ImageURL)

	answer, err := g.AnswerQuestion(context.Background(), "Kenapa langit biru?", model.LevelBeginner)
	require.NoError(t, err)
	assert.Contains(t, answer.Answer, "dihamburkan")
	assert.Equal(t, int32(2), hits.Load())
}

func TestNewRejectsUnknownProviderAndMissingKey(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "llama"}, nil)
	require.Error(t, err)

	_, err = New(context.Background(), Config{Provider: ProviderOpenAI}, nil)
	require.Error(t, err)

	g, err := New(context.Background(), Config{}, nil)
	require.NoError(t, err)
	assert.IsType(t, Template{}, g)
}

type recordingUploader struct {
	data        []byte
	contentType string
}

func (u *recordingUploader) Upload(_ context.Context, data []byte, _ string, contentType string) (string, error) {
	u.data = data
	u.contentType = contentType
	return "https://cdn.example.com/stories/illustration.png", nil
}

func TestOpenAIIllustrationIsUploaded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images/generations" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			ResponseFormat string `json:"response_format"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ResponseFormat != openai.CreateImageResponseFormatB64JSON {
			t.Errorf("unexpected response_format %q", req.ResponseFormat)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": 1700000000,
			"data":    []map[string]any{{"b64_json": base64.StdEncoding.EncodeToString([]byte("png"))}},
		})
	}))
	defer server.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	uploader := &recordingUploader{}
	c := &openAIClient{
		client:     openai.NewClientWithConfig(cfg),
		imageModel: "dall-e-3",
		uploader:   uploader,
	}

	url, err := c.illustrate(context.Background(), illustrationPrompt("Hewan"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/stories/illustration.png", url)
	assert.Equal(t, []byte("png"), uploader.data)
	assert.Equal(t, "image/png", uploader.contentType)
}

func TestGeminiGeneratorAgainstFakeServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": `{"answer":"Hujan turun dari awan."}`}},
				},
				"finishReason": "STOP",
			}},
		})
	}))
	defer server.Close()

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: server.URL + "/"},
	})
	require.NoError(t, err)
	g := &Gemini{llmGenerator: newLLMGenerator(&geminiClient{client: client, model: defaultGeminiModel}, Config{Timeout: 5 * time.Second}, nil)}

	answer, err := g.AnswerQuestion(context.Background(), "Dari mana hujan?", model.LevelBeginner)
	require.NoError(t, err)
	assert.Equal(t, "Hujan turun dari awan.", answer.Answer)
	assert.Equal(t, DefaultAnswerImageURL, answer.ImageURL)
}
