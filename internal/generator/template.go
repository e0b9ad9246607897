package generator

import (
	"context"
	"fmt"
	"strings"

	"ceritaku/internal/model"
)

const (
	DefaultStoryImageURL  = "https://images.pexels.com/photos/1029141/pexels-photo-1029141.jpeg?auto=compress&cs=tinysrgb&w=400"
	DefaultAnswerImageURL = "https://images.pexels.com/photos/5212345/pexels-photo-5212345.jpeg?auto=compress&cs=tinysrgb&w=400"
)

// Template fills fixed sentences with the topic. It needs no network and never fails
// on non-empty input.
type Template struct{}

func (Template) GenerateStory(_ context.Context, topic string, level model.ReadingLevel) (StoryDraft, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return StoryDraft{}, ErrEmptyInput
	}
	return StoryDraft{
		Title: "Petualangan " + topic,
		Content: fmt.Sprintf(
			"Ini adalah cerita tentang %s. Cerita ini dibuat khusus untuk level %s dan disesuaikan dengan minat kamu. Mari kita mulai petualangan yang seru!",
			topic, level,
		),
		ImageURL: DefaultStoryImageURL,
	}, nil
}

func (Template) AnswerQuestion(_ context.Context, question string, _ model.ReadingLevel) (AnswerDraft, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return AnswerDraft{}, ErrEmptyInput
	}
	return AnswerDraft{
		Answer: fmt.Sprintf(
			"Terima kasih sudah bertanya tentang \"%s\". Ini adalah jawaban yang disesuaikan dengan level pemahaman kamu. Pertanyaan yang bagus!",
			question,
		),
		ImageURL: DefaultAnswerImageURL,
	}, nil
}
