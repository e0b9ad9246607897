package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ceritaku/internal/model"
	"ceritaku/internal/progress"
)

func (s *Service) Export() model.State {
	return s.progress.Snapshot()
}

// Restore replaces every collection with the ones in state. The profile is validated
// like UpdateProfile and the collections are checked up front, so invalid input changes
// nothing. Collections are written one at a time; a storage failure part way leaves
// the earlier ones replaced.
func (s *Service) Restore(ctx context.Context, state model.State) (model.State, error) {
	if state.Profile.Interests == nil {
		state.Profile.Interests = []string{}
	}
	if err := s.validate.Struct(state.Profile); err != nil {
		return model.State{}, fmt.Errorf("%w: profile: %s", ErrInvalidState, describeValidation(err))
	}
	if err := progress.ValidateState(state); err != nil {
		return model.State{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	steps := []func() error{
		func() error { return s.progress.SetStories(ctx, state.Stories) },
		func() error { return s.progress.SetRewards(ctx, state.Rewards) },
		func() error { return s.progress.SetQAndAs(ctx, state.QAndAs) },
		func() error { return s.progress.SetPoints(ctx, state.Points) },
		func() error { return s.progress.SetProfile(ctx, state.Profile) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			if isInputError(err) {
				return model.State{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
			}
			return model.State{}, err
		}
	}
	s.logger.Info("state restored",
		zap.Int("stories", len(state.Stories)),
		zap.Int("rewards", len(state.Rewards)),
		zap.Int("points", state.Points),
	)
	return s.progress.Snapshot(), nil
}

func isInputError(err error) bool {
	return errors.Is(err, progress.ErrDuplicateID) ||
		errors.Is(err, progress.ErrEmptyID) ||
		errors.Is(err, progress.ErrNegativePoints) ||
		errors.Is(err, progress.ErrInvalidReward)
}
