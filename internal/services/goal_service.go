package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/goals"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// maxSaveAttempts bounds the reload-and-retry loop on version conflicts.
const maxSaveAttempts = 3

// GoalView pairs a stored goal with its derived status.
type GoalView struct {
	Goal   core.Goal    `json:"goal"`
	Status goals.Status `json:"status"`
}

// ProgressResult is the outcome of one progress update.
type ProgressResult struct {
	Goal   core.Goal    `json:"goal"`
	Update goals.Update `json:"update"`
}

// GoalService applies progress updates to stored goals and announces
// milestone crossings.
type GoalService struct {
	goals     GoalStore
	publisher MilestonePublisher
	logger    *log.Logger
	events    *log.StructuredLogger
	today     func() core.Date
}

// NewGoalService wires a goal service. publisher may be nil, in which case
// milestone events are only logged.
func NewGoalService(store GoalStore, publisher MilestonePublisher, logger *log.Logger) *GoalService {
	logger = logger.WithComponent(log.ComponentGoals)
	return &GoalService{
		goals:     store,
		publisher: publisher,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
		today:     Today,
	}
}

// CreateGoal validates p and stores the goal for userID.
func (s *GoalService) CreateGoal(ctx context.Context, userID string, p goals.Params) (core.Goal, error) {
	g, err := goals.NewGoal(p, s.today())
	if err != nil {
		return core.Goal{}, err
	}
	g.UserID = userID
	created, err := s.goals.CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	return created, nil
}

// UpdateProgress sets the current amount of goal goalID. The new amount is
// clamped to the target, milestones are recomputed, and any crossing is
// published. A concurrent writer causes the update to be reapplied on the
// fresh copy.
func (s *GoalService) UpdateProgress(ctx context.Context, userID, goalID string, amount core.Money) (ProgressResult, error) {
	result, err := s.mutate(ctx, userID, goalID, func(g core.Goal) (core.Goal, goals.Update, error) {
		return goals.ApplyProgressUpdate(g, amount)
	})
	if err != nil {
		return ProgressResult{}, fmt.Errorf("update progress: %w", err)
	}
	return result, nil
}

// UpdateGoal applies e to goal goalID. Changing the target re-derives the
// progress, so milestone crossings are announced as for UpdateProgress.
func (s *GoalService) UpdateGoal(ctx context.Context, userID, goalID string, e goals.Edit) (ProgressResult, error) {
	result, err := s.mutate(ctx, userID, goalID, func(g core.Goal) (core.Goal, goals.Update, error) {
		return goals.ApplyEdit(g, e)
	})
	if err != nil {
		return ProgressResult{}, fmt.Errorf("update goal: %w", err)
	}
	s.logger.InfoContext(ctx, "Goal updated",
		log.FieldUserID, userID, log.FieldGoalID, goalID, log.FieldOperation, log.OpUpdate)
	return result, nil
}

// mutate loads the goal, applies fn and saves the result with a version
// check, reapplying fn on the fresh copy when another writer got there
// first.
func (s *GoalService) mutate(ctx context.Context, userID, goalID string, fn func(core.Goal) (core.Goal, goals.Update, error)) (ProgressResult, error) {
	var lastErr error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		current, err := s.goals.GetGoal(ctx, userID, goalID)
		if err != nil {
			return ProgressResult{}, fmt.Errorf("load goal: %w", err)
		}

		next, update, err := fn(current)
		if err != nil {
			return ProgressResult{}, err
		}
		if next == current {
			return ProgressResult{Goal: current, Update: update}, nil
		}

		saved, err := s.goals.SaveGoal(ctx, next)
		if errors.Is(err, storage.ErrVersionConflict) {
			lastErr = err
			s.logger.WarnContext(ctx, "Goal changed concurrently, retrying",
				log.FieldGoalID, goalID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return ProgressResult{}, fmt.Errorf("save goal: %w", err)
		}

		s.announce(ctx, saved, update)
		return ProgressResult{Goal: saved, Update: update}, nil
	}
	return ProgressResult{}, lastErr
}

// announce logs and publishes milestone crossings. Publish failures are
// logged and never fail the update: the goal is already saved.
func (s *GoalService) announce(ctx context.Context, g core.Goal, u goals.Update) {
	publish := func(kind amqp.MilestoneKind, threshold int) {
		s.events.LogMilestone(ctx, g.UserID, g.ID, u.NewPercentage, threshold, kind == amqp.MilestoneReached)
		if s.publisher == nil {
			return
		}
		event := amqp.NewMilestoneEvent(g.UserID, g.ID, g.Title, kind, threshold, u.NewPercentage)
		if err := s.publisher.PublishMilestone(ctx, event); err != nil {
			s.events.LogError(ctx, "Failed to publish milestone event", err, log.OpPublish,
				log.NewFields().WithGoal(g.UserID, g.ID, u.NewPercentage).WithMilestone(threshold))
		}
	}
	if u.Reached != 0 {
		publish(amqp.MilestoneReached, u.Reached)
	}
	if u.Lost != 0 {
		publish(amqp.MilestoneLost, u.Lost)
	}
}

// ListGoals returns the user's goals with their status as of today.
func (s *GoalService) ListGoals(ctx context.Context, userID string) ([]GoalView, error) {
	stored, err := s.goals.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return viewGoals(stored, s.today()), nil
}

// DeleteGoal removes goal goalID of userID.
func (s *GoalService) DeleteGoal(ctx context.Context, userID, goalID string) error {
	if err := s.goals.DeleteGoal(ctx, userID, goalID); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

func viewGoals(stored []core.Goal, today core.Date) []GoalView {
	out := make([]GoalView, len(stored))
	for i, g := range stored {
		out[i] = GoalView{Goal: g, Status: goals.Summarize(g, today)}
	}
	return out
}
