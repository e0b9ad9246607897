package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ceritaku/internal/model"
)

// completer sends one system+user prompt pair and returns the raw assistant text.
type completer interface {
	complete(ctx context.Context, system string, user string) (string, error)
}

// illustrator returns an image URL for a prompt.
type illustrator interface {
	illustrate(ctx context.Context, prompt string) (string, error)
}

// llmGenerator turns completer output into drafts. Provider-specific types embed it.
type llmGenerator struct {
	completer  completer
	images     illustrator
	timeout    time.Duration
	maxRetries int
	logger     *zap.Logger
}

const (
	storySystemPrompt  = "Kamu adalah penulis cerita anak Indonesia. Tulis cerita yang ramah anak, positif, dan mudah dipahami. Jawab hanya dengan JSON tanpa penjelasan tambahan."
	answerSystemPrompt = "Kamu adalah guru SD yang sabar. Jawab pertanyaan anak dengan jujur, singkat, dan mudah dipahami. Jawab hanya dengan JSON tanpa penjelasan tambahan."
)

func levelGuide(level model.ReadingLevel) string {
	switch level {
	case model.LevelIntermediate:
		return "pembaca menengah: 150-200 kata, kalimat sedang, boleh ada beberapa kata baru"
	case model.LevelAdvanced:
		return "pembaca mahir: 250-300 kata, alur lebih kaya, kosakata lebih beragam"
	default:
		return "pembaca pemula: 80-120 kata, kalimat pendek dan kata sehari-hari"
	}
}

func storyUserPrompt(topic string, level model.ReadingLevel) string {
	return fmt.Sprintf(
		"Topik: %s\nLevel: %s (%s)\nBuat JSON dengan field: title (judul singkat), content (isi cerita, paragraf dipisah baris baru).",
		topic, level, levelGuide(level),
	)
}

func answerUserPrompt(question string, level model.ReadingLevel) string {
	return fmt.Sprintf(
		"Pertanyaan anak: %s\nLevel: %s (%s)\nBuat JSON dengan field: answer (2-5 kalimat).",
		question, level, levelGuide(level),
	)
}

func illustrationPrompt(topic string) string {
	return fmt.Sprintf("Ilustrasi buku cerita anak berwarna cerah tentang %s, gaya kartun, tanpa teks", topic)
}

func (g *llmGenerator) GenerateStory(ctx context.Context, topic string, level model.ReadingLevel) (StoryDraft, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return StoryDraft{}, ErrEmptyInput
	}
	content, err := g.completeWithRetry(ctx, storySystemPrompt, storyUserPrompt(topic, level))
	if err != nil {
		return StoryDraft{}, err
	}
	draft, err := parseStoryContent(content)
	if err != nil {
		return StoryDraft{}, err
	}
	draft.ImageURL = g.illustrationFor(ctx, topic)
	return draft, nil
}

func (g *llmGenerator) AnswerQuestion(ctx context.Context, question string, level model.ReadingLevel) (AnswerDraft, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return AnswerDraft{}, ErrEmptyInput
	}
	content, err := g.completeWithRetry(ctx, answerSystemPrompt, answerUserPrompt(question, level))
	if err != nil {
		return AnswerDraft{}, err
	}
	draft, err := parseAnswerContent(content)
	if err != nil {
		return AnswerDraft{}, err
	}
	draft.ImageURL = DefaultAnswerImageURL
	return draft, nil
}

func (g *llmGenerator) illustrationFor(ctx context.Context, topic string) string {
	if g.images == nil {
		return DefaultStoryImageURL
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	url, err := g.images.illustrate(ctx, illustrationPrompt(topic))
	if err != nil || strings.TrimSpace(url) == "" {
		g.logger.Warn("illustration failed, using default image", zap.String("topic", topic), zap.Error(err))
		return DefaultStoryImageURL
	}
	return url
}

func (g *llmGenerator) completeWithRetry(ctx context.Context, system string, user string) (string, error) {
	attempts := g.maxRetries
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		content, err := g.completer.complete(callCtx, system, user)
		cancel()
		if err == nil && strings.TrimSpace(content) != "" {
			return content, nil
		}
		if err == nil {
			err = ErrInvalidResponse
		}
		lastErr = err
		g.logger.Warn("completion attempt failed", zap.Int("attempt", attempt), zap.Int("max_attempts", attempts), zap.Error(err))
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("completion failed after %d attempts: %w", attempts, lastErr)
}

func parseStoryContent(content string) (StoryDraft, error) {
	var parsed struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(extractJSONPayload(content)), &parsed); err != nil {
		parsed.Title = extractJSONField(content, "title")
		parsed.Content = extractJSONField(content, "content")
	}
	draft := StoryDraft{
		Title:   strings.TrimSpace(parsed.Title),
		Content: strings.TrimSpace(parsed.Content),
	}
	if draft.Title == "" || draft.Content == "" {
		return StoryDraft{}, ErrInvalidResponse
	}
	return draft, nil
}

func parseAnswerContent(content string) (AnswerDraft, error) {
	var parsed struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal([]byte(extractJSONPayload(content)), &parsed); err != nil {
		parsed.Answer = extractJSONField(content, "answer")
	}
	answer := strings.TrimSpace(parsed.Answer)
	if answer == "" {
		return AnswerDraft{}, ErrInvalidResponse
	}
	return AnswerDraft{Answer: answer}, nil
}
