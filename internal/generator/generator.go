// Package generator produces story and answer content for a topic and reading level.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ceritaku/internal/media"
	"ceritaku/internal/model"
)

const (
	ProviderTemplate = "template"
	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"
)

var (
	ErrInvalidResponse = errors.New("invalid generator response")
	ErrEmptyInput      = errors.New("generator input is empty")
)

type StoryDraft struct {
	Title    string
	Content  string
	ImageURL string
}

type AnswerDraft struct {
	Answer   string
	ImageURL string
}

type Generator interface {
	GenerateStory(ctx context.Context, topic string, level model.ReadingLevel) (StoryDraft, error)
	AnswerQuestion(ctx context.Context, question string, level model.ReadingLevel) (AnswerDraft, error)
}

type Config struct {
	Provider   string
	APIKey     string
	BaseURL    string
	Model      string
	ImageModel string
	Timeout    time.Duration
	MaxRetries int
	// FallbackToTemplate serves template content when the remote provider fails.
	FallbackToTemplate bool
	// Uploader, when set, keeps generated images in our own storage instead of
	// linking to the provider's short-lived URLs.
	Uploader media.Uploader
}

// New builds the generator selected by cfg.Provider.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var remote Generator
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderTemplate:
		return Template{}, nil
	case ProviderOpenAI:
		g, err := NewOpenAI(cfg, logger)
		if err != nil {
			return nil, err
		}
		remote = g
	case ProviderGemini:
		g, err := NewGemini(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		remote = g
	default:
		return nil, fmt.Errorf("unsupported generator provider: %s", cfg.Provider)
	}
	if cfg.FallbackToTemplate {
		return NewFallback(remote, Template{}, logger), nil
	}
	return remote, nil
}
