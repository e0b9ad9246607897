package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ceritaku/internal/generator"
	"ceritaku/internal/model"
	"ceritaku/internal/progress"
	"ceritaku/internal/service"
	"ceritaku/internal/store"
)

var fixedNow = time.UnixMilli(1700000000000)

type failingGenerator struct{}

var errUpstream = errors.New("upstream down")

func (failingGenerator) GenerateStory(context.Context, string, model.ReadingLevel) (generator.StoryDraft, error) {
	return generator.StoryDraft{}, errUpstream
}

func (failingGenerator) AnswerQuestion(context.Context, string, model.ReadingLevel) (generator.AnswerDraft, error) {
	return generator.AnswerDraft{}, errUpstream
}

func newTestService(t *testing.T, gen generator.Generator) (*service.Service, *progress.Store) {
	t.Helper()
	st, err := progress.Open(context.Background(), store.NewMemoryStore(), nil)
	require.NoError(t, err)
	svc := service.New(st, gen, nil, service.WithClock(func() time.Time { return fixedNow }))
	return svc, st
}

func TestGenerateStoryPrefersCustomTopic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, st := newTestService(t, generator.Template{})

	story, err := svc.GenerateStory(ctx, service.GenerateStoryRequest{Interest: "Sains", CustomTopic: "  Dinosaurus  "})
	require.NoError(t, err)

	assert.Equal(t, "1700000000000", story.ID)
	assert.Equal(t, int64(1700000000000), story.Timestamp)
	assert.Equal(t, "Petualangan Dinosaurus", story.Title)
	assert.Equal(t, "Dinosaurus", story.Interest)
	assert.Equal(t, model.LevelBeginner, story.Level)
	assert.False(t, story.IsRead)
	assert.Equal(t, generator.DefaultStoryImageURL, story.ImageURL)

	stored, ok := st.Story(story.ID)
	require.True(t, ok)
	assert.Equal(t, story, stored)
	assert.Equal(t, 0, st.Points())
}

func TestGenerateStoryUsesInterestAndProfileLevel(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t, generator.Template{})

	p := model.DefaultProfile()
	p.Level = model.LevelAdvanced
	_, err := svc.UpdateProfile(ctx, p)
	require.NoError(t, err)

	story, err := svc.GenerateStory(ctx, service.GenerateStoryRequest{Interest: "Hewan", CustomTopic: "   "})
	require.NoError(t, err)
	assert.Equal(t, "Hewan", story.Interest)
	assert.Equal(t, model.LevelAdvanced, story.Level)
	assert.Contains(t, story.Content, "level Mahir")
}

func TestGenerateStoryRequiresTopic(t *testing.T) {
	t.Parallel()
	svc, st := newTestService(t, generator.Template{})

	_, err := svc.GenerateStory(context.Background(), service.GenerateStoryRequest{CustomTopic: " "})
	require.ErrorIs(t, err, service.ErrTopicRequired)
	assert.Empty(t, st.Stories())
}

func TestGenerateStoryIDsStayUniqueWithinOneMillisecond(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, st := newTestService(t, generator.Template{})

	first, err := svc.GenerateStory(ctx, service.GenerateStoryRequest{Interest: "Sains"})
	require.NoError(t, err)
	second, err := svc.GenerateStory(ctx, service.GenerateStoryRequest{Interest: "Alam"})
	require.NoError(t, err)

	assert.Equal(t, "1700000000000", first.ID)
	assert.Equal(t, "1700000000001", second.ID)
	stories := st.Stories()
	require.Len(t, stories, 2)
	assert.Equal(t, second.ID, stories[0].ID)
}

func TestGenerateStorySkipsRestoredIDs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, st := newTestService(t, generator.Template{})

	require.NoError(t, st.SetStories(ctx, []model.Story{{ID: "1700000000000", Title: "lama"}}))

	story, err := svc.GenerateStory(ctx, service.GenerateStoryRequest{Interest: "Sains"})
	require.NoError(t, err)
	assert.Equal(t, "1700000000001", story.ID)
}

func TestGenerateStoryGeneratorFailure(t *testing.T) {
	t.Parallel()
	svc, st := newTestService(t, failingGenerator{})

	_, err := svc.GenerateStory(context.Background(), service.GenerateStoryRequest{Interest: "Sains"})
	require.ErrorIs(t, err, service.ErrContentGenerate)
	assert.Empty(t, st.Stories())
}

func TestAskQuestionCreditsPoints(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, st := newTestService(t, generator.Template{})

	qa, err := svc.AskQuestion(ctx, service.AskRequest{Question: "  Kenapa langit biru?  "})
	require.NoError(t, err)
	assert.Equal(t, "Kenapa langit biru?", qa.Question)
	assert.Contains(t, qa.Answer, `"Kenapa langit biru?"`)
	assert.Equal(t, generator.DefaultAnswerImageURL, qa.ImageURL)
	assert.Equal(t, "1700000000000", qa.ID)
	assert.Equal(t, progress.QuestionPoints, st.Points())
	assert.Len(t, st.QAndAs(), 1)
}

func TestAskQuestionValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, st := newTestService(t, generator.Template{})

	_, err := svc.AskQuestion(ctx, service.AskRequest{Question: "\n\t"})
	require.ErrorIs(t, err, service.ErrQuestionRequired)

	failing, failingStore := newTestService(t, failingGenerator{})
	_, err = failing.AskQuestion(ctx, service.AskRequest{Question: "Apa itu hujan?"})
	require.ErrorIs(t, err, service.ErrContentGenerate)

	assert.Equal(t, 0, st.Points())
	assert.Equal(t, 0, failingStore.Points())
}

func TestReadStory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, st := newTestService(t, generator.Template{})

	story, err := svc.GenerateStory(ctx, service.GenerateStoryRequest{Interest: "Sains"})
	require.NoError(t, err)

	res, err := svc.ReadStory(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, progress.ReadMarked, res.Status)
	assert.Equal(t, progress.StoryReadPoints, res.Points)

	res, err = svc.ReadStory(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, progress.ReadAlreadyRead, res.Status)
	assert.Equal(t, progress.StoryReadPoints, st.Points())

	_, err = svc.ReadStory(ctx, "missing")
	require.ErrorIs(t, err, service.ErrStoryNotFound)

	_, err = svc.Story("missing")
	require.ErrorIs(t, err, service.ErrStoryNotFound)
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t, generator.Template{})

	saved, err := svc.UpdateProfile(ctx, model.Profile{
		Name:       "  Sari ",
		Age:        9,
		ClassLevel: 3,
		Level:      model.LevelIntermediate,
		Interests:  []string{"Sains", "Hewan"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Sari", saved.Name)
	assert.Equal(t, []string{"Sains", "Hewan"}, saved.Interests)
	assert.Equal(t, saved, svc.Profile())
}

func TestUpdateProfileRejectsInvalid(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	valid := model.Profile{Name: "Budi", Age: 8, ClassLevel: 2, Level: model.LevelBeginner, Interests: []string{"Sains"}}
	cases := map[string]func(p *model.Profile){
		"age too low":        func(p *model.Profile) { p.Age = 5 },
		"age too high":       func(p *model.Profile) { p.Age = 14 },
		"class too low":      func(p *model.Profile) { p.ClassLevel = 0 },
		"class too high":     func(p *model.Profile) { p.ClassLevel = 7 },
		"unknown level":      func(p *model.Profile) { p.Level = "Expert" },
		"unknown interest":   func(p *model.Profile) { p.Interests = []string{"Robot"} },
		"duplicate interest": func(p *model.Profile) { p.Interests = []string{"Sains", "Sains"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			svc, _ := newTestService(t, generator.Template{})
			p := valid.Clone()
			mutate(&p)
			_, err := svc.UpdateProfile(ctx, p)
			require.ErrorIs(t, err, service.ErrInvalidProfile)
			assert.Equal(t, model.DefaultProfile(), svc.Profile())
		})
	}
}

func TestProgressJourney(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t, generator.Template{})

	_, err := svc.AskQuestion(ctx, service.AskRequest{Question: "Apa itu pelangi?"})
	require.NoError(t, err)
	story, err := svc.GenerateStory(ctx, service.GenerateStoryRequest{Interest: "Sains"})
	require.NoError(t, err)
	_, err = svc.ReadStory(ctx, story.ID)
	require.NoError(t, err)
	_, err = svc.ReadStory(ctx, story.ID)
	require.NoError(t, err)
	_, err = svc.AskQuestion(ctx, service.AskRequest{Question: "Kenapa bulan bulat?"})
	require.NoError(t, err)

	view := svc.Progress()
	assert.Equal(t, 100, view.Points)
	assert.Equal(t, 1, view.StoriesRead)
	assert.Equal(t, 2, view.QuestionsAsked)
	require.Len(t, view.RecentQAndAs, 2)
	assert.Equal(t, "Kenapa bulan bulat?", view.RecentQAndAs[0].Question)
	require.NotNil(t, view.NextReward)
	assert.Equal(t, "sticker-1", view.NextReward.Reward.ID)
	assert.True(t, view.NextReward.Affordable)
	assert.Equal(t, 0, view.NextReward.PointsNeeded)

	res, err := svc.UnlockReward(ctx, "sticker-1")
	require.NoError(t, err)
	assert.Equal(t, progress.UnlockOK, res.Status)
	assert.Equal(t, 0, res.Points)

	view = svc.Progress()
	require.Len(t, view.UnlockedRewards, 1)
	require.NotNil(t, view.NextReward)
	assert.False(t, view.NextReward.Affordable)
	assert.Equal(t, view.NextReward.Reward.Cost, view.NextReward.PointsNeeded)

	rewards := svc.Rewards()
	assert.Len(t, rewards.Unlocked, 1)
	assert.Len(t, rewards.Available, 7)
	assert.Equal(t, 0, rewards.Points)
}

func TestUnlockRewardReportsStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t, generator.Template{})

	res, err := svc.UnlockReward(ctx, "sticker-1")
	require.NoError(t, err)
	assert.Equal(t, progress.UnlockInsufficientPoints, res.Status)

	res, err = svc.UnlockReward(ctx, "nope")
	require.NoError(t, err)
	assert.Equal(t, progress.UnlockNotFound, res.Status)
}

func TestHomeShowsThreeMostRecentStories(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t, generator.Template{})

	for _, topic := range []string{"Sains", "Hewan", "Alam", "Luar Angkasa"} {
		_, err := svc.GenerateStory(ctx, service.GenerateStoryRequest{Interest: topic})
		require.NoError(t, err)
	}

	home := svc.Home()
	require.Len(t, home.RecentStories, 3)
	assert.Equal(t, "Luar Angkasa", home.RecentStories[0].Interest)
	assert.Equal(t, "Hewan", home.RecentStories[2].Interest)
	assert.Equal(t, 0, home.Points)
	assert.Len(t, svc.Stories(), 4)
}

func TestEmptyViewsAreNotNil(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, generator.Template{})

	home := svc.Home()
	assert.NotNil(t, home.RecentStories)

	view := svc.Progress()
	assert.NotNil(t, view.RecentRead)
	assert.NotNil(t, view.RecentQAndAs)
	assert.NotNil(t, view.UnlockedRewards)
	assert.Equal(t, 100, view.NextReward.PointsNeeded)
}

func TestExportRestoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	src, _ := newTestService(t, generator.Template{})

	_, err := src.AskQuestion(ctx, service.AskRequest{Question: "Apa itu awan?"})
	require.NoError(t, err)
	_, err = src.GenerateStory(ctx, service.GenerateStoryRequest{Interest: "Alam"})
	require.NoError(t, err)
	exported := src.Export()

	dst, dstStore := newTestService(t, generator.Template{})
	restored, err := dst.Restore(ctx, exported)
	require.NoError(t, err)
	assert.Equal(t, exported, restored)
	assert.Equal(t, exported, dstStore.Snapshot())
}

func TestRestoreRejectsInvalidStateWithoutChanges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cases := map[string]func(st *model.State){
		"negative points":     func(st *model.State) { st.Points = -1 },
		"duplicate story ids": func(st *model.State) { st.Stories = []model.Story{{ID: "1"}, {ID: "1"}} },
		"duplicate qanda ids": func(st *model.State) { st.QAndAs = []model.QAndA{{ID: "1"}, {ID: "1"}} },
		"zero cost reward":    func(st *model.State) { st.Rewards = []model.Reward{{ID: "r", Cost: 0}} },
		"invalid profile age": func(st *model.State) { st.Profile.Age = 30 },
		"empty reward id":     func(st *model.State) { st.Rewards = []model.Reward{{Cost: 10}} },
		"unknown level":       func(st *model.State) { st.Profile.Level = "Dewa" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			svc, st := newTestService(t, generator.Template{})
			before := st.Snapshot()

			next := svc.Export()
			next.Stories = []model.Story{{ID: "a", Title: "baru"}}
			mutate(&next)

			_, err := svc.Restore(ctx, next)
			require.ErrorIs(t, err, service.ErrInvalidState)
			assert.Equal(t, before, st.Snapshot())
		})
	}
}
