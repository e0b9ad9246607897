package generator

import (
	"context"

	"go.uber.org/zap"

	"ceritaku/internal/model"
)

// Fallback tries primary first and serves secondary's content when primary fails.
type Fallback struct {
	primary   Generator
	secondary Generator
	logger    *zap.Logger
}

func NewFallback(primary Generator, secondary Generator, logger *zap.Logger) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{primary: primary, secondary: secondary, logger: logger.Named("generator")}
}

func (f *Fallback) GenerateStory(ctx context.Context, topic string, level model.ReadingLevel) (StoryDraft, error) {
	draft, err := f.primary.GenerateStory(ctx, topic, level)
	if err == nil {
		return draft, nil
	}
	f.logger.Warn("story generation failed, using fallback", zap.String("topic", topic), zap.Error(err))
	return f.secondary.GenerateStory(ctx, topic, level)
}

func (f *Fallback) AnswerQuestion(ctx context.Context, question string, level model.ReadingLevel) (AnswerDraft, error) {
	draft, err := f.primary.AnswerQuestion(ctx, question, level)
	if err == nil {
		return draft, nil
	}
	f.logger.Warn("answer generation failed, using fallback", zap.Error(err))
	return f.secondary.AnswerQuestion(ctx, question, level)
}
