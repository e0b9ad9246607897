package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"ceritaku/internal/generator"
	"ceritaku/internal/model"
	"ceritaku/internal/progress"
)

var (
	ErrTopicRequired    = errors.New("Pilih minat atau masukkan topik cerita!")
	ErrQuestionRequired = errors.New("Tulis pertanyaan dulu ya!")
	ErrStoryNotFound    = errors.New("Cerita tidak ditemukan")
	ErrInvalidProfile   = errors.New("Profil tidak valid")
	ErrInvalidState     = errors.New("Data progres tidak valid")
	ErrContentGenerate  = errors.New("Terjadi kesalahan saat membuat konten. Coba lagi ya!")
)

type GenerateStoryRequest struct {
	Interest    string `json:"interest"`
	CustomTopic string `json:"customTopic"`
}

type AskRequest struct {
	Question string `json:"question"`
}

type Service struct {
	progress  *progress.Store
	generator generator.Generator
	logger    *zap.Logger
	validate  *validator.Validate
	now       func() time.Time

	idMu   sync.Mutex
	lastID int64
}

type Option func(*Service)

// WithClock replaces time.Now, used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(store *progress.Store, gen generator.Generator, logger *zap.Logger, opts ...Option) *Service {
	if gen == nil {
		gen = generator.Template{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		progress:  store,
		generator: gen,
		logger:    logger.Named("service"),
		validate:  newValidator(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Profile() model.Profile {
	return s.progress.Profile()
}

func (s *Service) UpdateProfile(ctx context.Context, p model.Profile) (model.Profile, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Interests == nil {
		p.Interests = []string{}
	}
	if err := s.validate.Struct(p); err != nil {
		return model.Profile{}, fmt.Errorf("%w: %s", ErrInvalidProfile, describeValidation(err))
	}
	if err := s.progress.SetProfile(ctx, p); err != nil {
		return model.Profile{}, err
	}
	s.logger.Info("profile updated", zap.String("level", string(p.Level)), zap.Int("interests", len(p.Interests)))
	return s.progress.Profile(), nil
}

func (s *Service) Stories() []model.Story {
	return s.progress.Stories()
}

func (s *Service) Story(id string) (model.Story, error) {
	story, ok := s.progress.Story(id)
	if !ok {
		return model.Story{}, ErrStoryNotFound
	}
	return story, nil
}

// GenerateStory writes a story for the custom topic, or the chosen interest when no
// topic is given, at the profile's reading level, and stores it at the front of the list.
func (s *Service) GenerateStory(ctx context.Context, req GenerateStoryRequest) (model.Story, error) {
	topic := strings.TrimSpace(req.CustomTopic)
	if topic == "" {
		topic = strings.TrimSpace(req.Interest)
	}
	if topic == "" {
		return model.Story{}, ErrTopicRequired
	}

	level := s.progress.Profile().Level
	draft, err := s.generator.GenerateStory(ctx, topic, level)
	if err != nil {
		s.logger.Warn("story generation failed", zap.String("topic", topic), zap.Error(err))
		return model.Story{}, fmt.Errorf("%w: %v", ErrContentGenerate, err)
	}

	ms := s.nextID(func(id string) bool {
		_, ok := s.progress.Story(id)
		return ok
	})
	story := model.Story{
		ID:        model.TimestampID(ms),
		Title:     draft.Title,
		Content:   draft.Content,
		ImageURL:  draft.ImageURL,
		Level:     level,
		Interest:  topic,
		IsRead:    false,
		Timestamp: ms,
	}
	if err := s.progress.AddStory(ctx, story); err != nil {
		return model.Story{}, err
	}
	s.logger.Info("story generated", zap.String("story_id", story.ID), zap.String("topic", topic))
	return story, nil
}

func (s *Service) ReadStory(ctx context.Context, id string) (progress.ReadResult, error) {
	res, err := s.progress.MarkStoryAsRead(ctx, strings.TrimSpace(id))
	if err != nil {
		return progress.ReadResult{}, err
	}
	if res.Status == progress.ReadNotFound {
		return res, ErrStoryNotFound
	}
	return res, nil
}

func (s *Service) QAndAs() []model.QAndA {
	return s.progress.QAndAs()
}

// AskQuestion answers the question at the profile's reading level and records it,
// which credits the question points.
func (s *Service) AskQuestion(ctx context.Context, req AskRequest) (model.QAndA, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return model.QAndA{}, ErrQuestionRequired
	}

	draft, err := s.generator.AnswerQuestion(ctx, question, s.progress.Profile().Level)
	if err != nil {
		s.logger.Warn("answer generation failed", zap.Error(err))
		return model.QAndA{}, fmt.Errorf("%w: %v", ErrContentGenerate, err)
	}

	existing := s.progress.QAndAs()
	ms := s.nextID(func(id string) bool {
		for _, q := range existing {
			if q.ID == id {
				return true
			}
		}
		return false
	})
	entry := model.QAndA{
		ID:        model.TimestampID(ms),
		Question:  question,
		Answer:    draft.Answer,
		ImageURL:  draft.ImageURL,
		Timestamp: ms,
	}
	if err := s.progress.AddQAndA(ctx, entry); err != nil {
		return model.QAndA{}, err
	}
	return entry, nil
}

func (s *Service) UnlockReward(ctx context.Context, id string) (progress.UnlockResult, error) {
	return s.progress.UnlockReward(ctx, strings.TrimSpace(id))
}

// nextID returns a millisecond timestamp that is strictly after the previous one
// handed out and not already taken according to taken.
func (s *Service) nextID(taken func(id string) bool) int64 {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	ms := model.Millis(s.now())
	if ms <= s.lastID {
		ms = s.lastID + 1
	}
	for taken(model.TimestampID(ms)) {
		ms++
	}
	s.lastID = ms
	return ms
}
