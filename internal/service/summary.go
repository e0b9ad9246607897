package service

import (
	"cmp"
	"slices"

	"ceritaku/internal/model"
)

const (
	homeRecentStories     = 3
	progressRecentStories = 3
	progressRecentQAndAs  = 2
)

type HomeView struct {
	Profile       model.Profile `json:"profile"`
	Points        int           `json:"points"`
	RecentStories []model.Story `json:"recentStories"`
}

// RewardTarget is the cheapest reward still locked and how far the balance is from it.
type RewardTarget struct {
	Reward       model.Reward `json:"reward"`
	PointsNeeded int          `json:"pointsNeeded"`
	Affordable   bool         `json:"affordable"`
}

type ProgressView struct {
	Profile         model.Profile  `json:"profile"`
	Points          int            `json:"points"`
	StoriesRead     int            `json:"storiesRead"`
	QuestionsAsked  int            `json:"questionsAsked"`
	UnlockedRewards []model.Reward `json:"unlockedRewards"`
	RecentRead      []model.Story  `json:"recentRead"`
	RecentQAndAs    []model.QAndA  `json:"recentQAndAs"`
	NextReward      *RewardTarget  `json:"nextReward,omitempty"`
}

type RewardsView struct {
	Points    int            `json:"points"`
	Unlocked  []model.Reward `json:"unlocked"`
	Available []model.Reward `json:"available"`
}

func (s *Service) Home() HomeView {
	state := s.progress.Snapshot()
	return HomeView{
		Profile:       state.Profile,
		Points:        state.Points,
		RecentStories: head(state.Stories, homeRecentStories),
	}
}

func (s *Service) Progress() ProgressView {
	state := s.progress.Snapshot()

	read := make([]model.Story, 0, len(state.Stories))
	for _, story := range state.Stories {
		if story.IsRead {
			read = append(read, story)
		}
	}
	unlocked, locked := splitRewards(state.Rewards)

	view := ProgressView{
		Profile:         state.Profile,
		Points:          state.Points,
		StoriesRead:     len(read),
		QuestionsAsked:  len(state.QAndAs),
		UnlockedRewards: unlocked,
		RecentRead:      head(read, progressRecentStories),
		RecentQAndAs:    head(state.QAndAs, progressRecentQAndAs),
	}
	if len(locked) > 0 {
		next := slices.MinFunc(locked, func(a, b model.Reward) int {
			return cmp.Compare(a.Cost, b.Cost)
		})
		view.NextReward = &RewardTarget{
			Reward:       next,
			PointsNeeded: max(0, next.Cost-state.Points),
			Affordable:   state.Points >= next.Cost,
		}
	}
	return view
}

func (s *Service) Rewards() RewardsView {
	state := s.progress.Snapshot()
	unlocked, available := splitRewards(state.Rewards)
	return RewardsView{
		Points:    state.Points,
		Unlocked:  unlocked,
		Available: available,
	}
}

func splitRewards(rewards []model.Reward) (unlocked, locked []model.Reward) {
	unlocked = []model.Reward{}
	locked = []model.Reward{}
	for _, r := range rewards {
		if r.Unlocked {
			unlocked = append(unlocked, r)
		} else {
			locked = append(locked, r)
		}
	}
	return unlocked, locked
}

// head returns a copy of the first n items, never nil.
func head[T any](items []T, n int) []T {
	n = min(n, len(items))
	out := make([]T, 0, n)
	return append(out, items[:n]...)
}
