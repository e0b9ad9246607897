// Package progress owns the child's profile, stories, rewards, questions and point
// balance. State lives in memory and every mutation is flushed to the durable
// key-value store before the call returns, one key per collection.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"ceritaku/internal/catalog"
	"ceritaku/internal/model"
	"ceritaku/internal/store"
)

// Storage keys, matching the layout the browser app kept in localStorage.
const (
	KeyProfile = "profile"
	KeyStories = "stories"
	KeyRewards = "rewards"
	KeyPoints  = "points"
	KeyQAndAs  = "qAndAs"
)

const (
	StoryReadPoints = 50
	QuestionPoints  = 25
)

var (
	ErrEmptyID        = errors.New("id is required")
	ErrDuplicateID    = errors.New("id already exists")
	ErrNegativePoints = errors.New("points cannot be negative")
	ErrInvalidReward  = errors.New("reward cost must be positive")
)

type ReadStatus string

const (
	ReadMarked      ReadStatus = "marked"
	ReadAlreadyRead ReadStatus = "already_read"
	ReadNotFound    ReadStatus = "not_found"
)

type ReadResult struct {
	Status ReadStatus   `json:"status"`
	Story  *model.Story `json:"story,omitempty"`
	Points int          `json:"points"`
}

type UnlockStatus string

const (
	UnlockOK                 UnlockStatus = "unlocked"
	UnlockNotFound           UnlockStatus = "not_found"
	UnlockAlreadyUnlocked    UnlockStatus = "already_unlocked"
	UnlockInsufficientPoints UnlockStatus = "insufficient_points"
)

type UnlockResult struct {
	Status UnlockStatus  `json:"status"`
	Reward *model.Reward `json:"reward,omitempty"`
	Points int           `json:"points"`
}

type Store struct {
	kv     store.Store
	logger *zap.Logger

	mu      sync.Mutex
	profile model.Profile
	stories []model.Story
	rewards []model.Reward
	points  int
	qAndAs  []model.QAndA
}

// Open loads all five collections from kv. A missing key yields the default value;
// so does a value that no longer decodes or fails the collection's checks, which is
// logged and otherwise ignored.
func Open(ctx context.Context, kv store.Store, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		kv:      kv,
		logger:  logger.Named("progress"),
		profile: model.DefaultProfile(),
		stories: []model.Story{},
		rewards: catalog.InitialRewards(),
		points:  0,
		qAndAs:  []model.QAndA{},
	}

	if err := loadJSON(ctx, s, KeyProfile, &s.profile, model.DefaultProfile, model.DefaultProfile, checkProfile); err != nil {
		return nil, err
	}
	if s.profile.Interests == nil {
		s.profile.Interests = []string{}
	}
	if err := loadJSON(ctx, s, KeyStories, &s.stories, nil, func() []model.Story { return []model.Story{} }, checkStories); err != nil {
		return nil, err
	}
	if err := loadJSON(ctx, s, KeyRewards, &s.rewards, nil, catalog.InitialRewards, checkRewards); err != nil {
		return nil, err
	}
	if err := loadJSON(ctx, s, KeyQAndAs, &s.qAndAs, nil, func() []model.QAndA { return []model.QAndA{} }, checkQAndAs); err != nil {
		return nil, err
	}
	if err := s.loadPoints(ctx); err != nil {
		return nil, err
	}
	if s.stories == nil {
		s.stories = []model.Story{}
	}
	if s.rewards == nil {
		s.rewards = []model.Reward{}
	}
	if s.qAndAs == nil {
		s.qAndAs = []model.QAndA{}
	}
	pointsBalance.Set(float64(s.points))

	s.logger.Info("progress loaded",
		zap.Int("stories", len(s.stories)),
		zap.Int("rewards", len(s.rewards)),
		zap.Int("questions", len(s.qAndAs)),
		zap.Int("points", s.points),
	)
	return s, nil
}

// loadJSON decodes key into dst. Decoding starts from seed when given, so fields
// missing from a stored object keep their defaults. A null, undecodable or
// rejected value is replaced by fallback.
func loadJSON[T any](ctx context.Context, s *Store, key string, dst *T, seed func() T, fallback func() T, check func(T) error) error {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	var decoded T
	if seed != nil {
		decoded = seed()
	}
	if strings.TrimSpace(raw) == "null" {
		err = errors.New("value is null")
	} else {
		err = json.Unmarshal([]byte(raw), &decoded)
	}
	if err == nil && check != nil {
		err = check(decoded)
	}
	if err != nil {
		s.logger.Warn("stored value is malformed, using default", zap.String("key", key), zap.Error(err))
		*dst = fallback()
		return nil
	}
	*dst = decoded
	return nil
}

func (s *Store) loadPoints(ctx context.Context) error {
	raw, ok, err := s.kv.Get(ctx, KeyPoints)
	if err != nil {
		return fmt.Errorf("load %s: %w", KeyPoints, err)
	}
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		s.logger.Warn("stored points are malformed, using 0", zap.String("raw", raw))
		s.points = 0
		return nil
	}
	s.points = n
	return nil
}

func (s *Store) Profile() model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

// Stories returns every story, newest first.
func (s *Store) Stories() []model.Story {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.stories)
}

func (s *Store) Story(id string) (model.Story, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexStory(s.stories, id)
	if idx < 0 {
		return model.Story{}, false
	}
	return s.stories[idx], true
}

func (s *Store) Rewards() []model.Reward {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rewards)
}

// QAndAs returns every question, newest first.
func (s *Store) QAndAs() []model.QAndA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.qAndAs)
}

func (s *Store) Points() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.points
}

func (s *Store) Snapshot() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.State{
		Profile: s.profile.Clone(),
		Stories: slices.Clone(s.stories),
		Rewards: slices.Clone(s.rewards),
		Points:  s.points,
		QAndAs:  slices.Clone(s.qAndAs),
	}
}

// SetProfile replaces the profile wholesale. Range checks belong to the caller.
func (s *Store) SetProfile(ctx context.Context, p model.Profile) error {
	next := p.Clone()
	if next.Interests == nil {
		next.Interests = []string{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveJSON(ctx, KeyProfile, next); err != nil {
		return err
	}
	s.profile = next
	return nil
}

// AddStory puts story at the front of the list.
func (s *Store) AddStory(ctx context.Context, story model.Story) error {
	if story.ID == "" {
		return ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if indexStory(s.stories, story.ID) >= 0 {
		return fmt.Errorf("story %s: %w", story.ID, ErrDuplicateID)
	}
	next := make([]model.Story, 0, len(s.stories)+1)
	next = append(next, story)
	next = append(next, s.stories...)
	if err := s.saveJSON(ctx, KeyStories, next); err != nil {
		return err
	}
	s.stories = next
	storiesAdded.Inc()
	return nil
}

// MarkStoryAsRead flips isRead and credits StoryReadPoints, once per story.
// Repeated calls and unknown ids leave everything unchanged.
func (s *Store) MarkStoryAsRead(ctx context.Context, id string) (ReadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexStory(s.stories, id)
	if idx < 0 {
		return ReadResult{Status: ReadNotFound, Points: s.points}, nil
	}
	if s.stories[idx].IsRead {
		story := s.stories[idx]
		return ReadResult{Status: ReadAlreadyRead, Story: &story, Points: s.points}, nil
	}

	nextStories := slices.Clone(s.stories)
	nextStories[idx].IsRead = true
	nextPoints := s.points + StoryReadPoints

	if err := s.commitPair(ctx, KeyStories, nextStories, s.stories, nextPoints); err != nil {
		return ReadResult{}, err
	}
	s.stories = nextStories
	s.points = nextPoints
	pointsCredited.WithLabelValues("story_read").Add(StoryReadPoints)
	pointsBalance.Set(float64(s.points))

	story := s.stories[idx]
	s.logger.Debug("story marked read", zap.String("story_id", id), zap.Int("points", s.points))
	return ReadResult{Status: ReadMarked, Story: &story, Points: s.points}, nil
}

// AddQAndA puts entry at the front of the list and credits QuestionPoints.
func (s *Store) AddQAndA(ctx context.Context, entry model.QAndA) error {
	if entry.ID == "" {
		return ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if indexQAndA(s.qAndAs, entry.ID) >= 0 {
		return fmt.Errorf("question %s: %w", entry.ID, ErrDuplicateID)
	}

	next := make([]model.QAndA, 0, len(s.qAndAs)+1)
	next = append(next, entry)
	next = append(next, s.qAndAs...)
	nextPoints := s.points + QuestionPoints

	if err := s.commitPair(ctx, KeyQAndAs, next, s.qAndAs, nextPoints); err != nil {
		return err
	}
	s.qAndAs = next
	s.points = nextPoints
	questionsAdded.Inc()
	pointsCredited.WithLabelValues("question").Add(QuestionPoints)
	pointsBalance.Set(float64(s.points))
	return nil
}

// UnlockReward spends the reward's cost if it is still locked and affordable.
// Every other outcome is reported through the status with no state change.
func (s *Store) UnlockReward(ctx context.Context, id string) (UnlockResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexReward(s.rewards, id)
	var res UnlockResult
	switch {
	case idx < 0:
		res = UnlockResult{Status: UnlockNotFound, Points: s.points}
	case s.rewards[idx].Unlocked:
		reward := s.rewards[idx]
		res = UnlockResult{Status: UnlockAlreadyUnlocked, Reward: &reward, Points: s.points}
	case s.points < s.rewards[idx].Cost:
		reward := s.rewards[idx]
		res = UnlockResult{Status: UnlockInsufficientPoints, Reward: &reward, Points: s.points}
	}
	if res.Status != "" {
		unlockAttempts.WithLabelValues(string(res.Status)).Inc()
		return res, nil
	}

	cost := s.rewards[idx].Cost
	nextRewards := slices.Clone(s.rewards)
	nextRewards[idx].Unlocked = true
	nextPoints := s.points - cost

	if err := s.commitPair(ctx, KeyRewards, nextRewards, s.rewards, nextPoints); err != nil {
		return UnlockResult{}, err
	}
	s.rewards = nextRewards
	s.points = nextPoints
	unlockAttempts.WithLabelValues(string(UnlockOK)).Inc()
	pointsDebited.Add(float64(cost))
	pointsBalance.Set(float64(s.points))

	reward := s.rewards[idx]
	s.logger.Info("reward unlocked", zap.String("reward_id", id), zap.Int("cost", cost), zap.Int("points", s.points))
	return UnlockResult{Status: UnlockOK, Reward: &reward, Points: s.points}, nil
}

func (s *Store) SetStories(ctx context.Context, stories []model.Story) error {
	next := slices.Clone(stories)
	if next == nil {
		next = []model.Story{}
	}
	if err := checkStories(next); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveJSON(ctx, KeyStories, next); err != nil {
		return err
	}
	s.stories = next
	return nil
}

func (s *Store) SetRewards(ctx context.Context, rewards []model.Reward) error {
	next := slices.Clone(rewards)
	if next == nil {
		next = []model.Reward{}
	}
	if err := checkRewards(next); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveJSON(ctx, KeyRewards, next); err != nil {
		return err
	}
	s.rewards = next
	return nil
}

func (s *Store) SetQAndAs(ctx context.Context, entries []model.QAndA) error {
	next := slices.Clone(entries)
	if next == nil {
		next = []model.QAndA{}
	}
	if err := checkQAndAs(next); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveJSON(ctx, KeyQAndAs, next); err != nil {
		return err
	}
	s.qAndAs = next
	return nil
}

func (s *Store) SetPoints(ctx context.Context, points int) error {
	if points < 0 {
		return ErrNegativePoints
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.savePoints(ctx, points); err != nil {
		return err
	}
	s.points = points
	pointsBalance.Set(float64(s.points))
	return nil
}

// ValidateState applies the checks the bulk setters make to every collection in st.
func ValidateState(st model.State) error {
	if err := checkStories(st.Stories); err != nil {
		return err
	}
	if err := checkRewards(st.Rewards); err != nil {
		return err
	}
	if err := checkQAndAs(st.QAndAs); err != nil {
		return err
	}
	if st.Points < 0 {
		return ErrNegativePoints
	}
	return nil
}

// checkProfile only guards what the store itself relies on. Range checks are the
// caller's job.
func checkProfile(p model.Profile) error {
	if !p.Level.Valid() {
		return fmt.Errorf("unknown reading level %q", p.Level)
	}
	return nil
}

func checkStories(stories []model.Story) error {
	if err := uniqueIDs(stories, func(s model.Story) string { return s.ID }); err != nil {
		return fmt.Errorf("stories: %w", err)
	}
	return nil
}

func checkRewards(rewards []model.Reward) error {
	if err := uniqueIDs(rewards, func(r model.Reward) string { return r.ID }); err != nil {
		return fmt.Errorf("rewards: %w", err)
	}
	for _, r := range rewards {
		if r.Cost <= 0 {
			return fmt.Errorf("reward %s: %w", r.ID, ErrInvalidReward)
		}
	}
	return nil
}

func checkQAndAs(entries []model.QAndA) error {
	if err := uniqueIDs(entries, func(q model.QAndA) string { return q.ID }); err != nil {
		return fmt.Errorf("questions: %w", err)
	}
	return nil
}

// commitPair writes a collection and then the point balance. Collections are stored
// under separate keys, so if the points write fails the collection write is undone
// with the previous value.
func (s *Store) commitPair(ctx context.Context, key string, next any, prev any, points int) error {
	if err := s.saveJSON(ctx, key, next); err != nil {
		return err
	}
	if err := s.savePoints(ctx, points); err != nil {
		if rbErr := s.saveJSON(ctx, key, prev); rbErr != nil {
			s.logger.Error("rollback after failed points write failed",
				zap.String("key", key), zap.Error(rbErr))
		}
		return err
	}
	return nil
}

func (s *Store) saveJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		s.logger.Error("persist failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

func (s *Store) savePoints(ctx context.Context, points int) error {
	if err := s.kv.Set(ctx, KeyPoints, strconv.Itoa(points)); err != nil {
		s.logger.Error("persist failed", zap.String("key", KeyPoints), zap.Error(err))
		return fmt.Errorf("persist %s: %w", KeyPoints, err)
	}
	return nil
}

func indexStory(stories []model.Story, id string) int {
	return slices.IndexFunc(stories, func(st model.Story) bool { return st.ID == id })
}

func indexQAndA(entries []model.QAndA, id string) int {
	return slices.IndexFunc(entries, func(q model.QAndA) bool { return q.ID == id })
}

func indexReward(rewards []model.Reward, id string) int {
	return slices.IndexFunc(rewards, func(r model.Reward) bool { return r.ID == id })
}

func uniqueIDs[T any](items []T, id func(T) string) error {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		key := id(item)
		if key == "" {
			return ErrEmptyID
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%s: %w", key, ErrDuplicateID)
		}
		seen[key] = struct{}{}
	}
	return nil
}
