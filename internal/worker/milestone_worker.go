// Package worker consumes goal milestone events published by the goal
// service.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// GoalReader loads the current state of a goal.
type GoalReader interface {
	GetGoal(ctx context.Context, userID, id string) (core.Goal, error)
}

// Stats counts what the worker did with the deliveries it received.
type Stats struct {
	Processed  int64 `json:"processed"`
	Duplicates int64 `json:"duplicates"`
	Superseded int64 `json:"superseded"`
	Orphaned   int64 `json:"orphaned"`
}

// MilestoneWorker records milestone events once each and skips events the
// goal has already moved past.
type MilestoneWorker struct {
	goals  GoalReader
	seen   cache.Cache[struct{}]
	logger *log.Logger
	events *log.StructuredLogger

	processed  atomic.Int64
	duplicates atomic.Int64
	superseded atomic.Int64
	orphaned   atomic.Int64
}

// NewMilestoneWorker wires a worker. goals may be nil, in which case events
// are recorded without checking them against the stored goal. seen holds
// the IDs of events already handled; redeliveries within its TTL are
// dropped.
func NewMilestoneWorker(goals GoalReader, seen cache.Cache[struct{}], logger *log.Logger) *MilestoneWorker {
	logger = logger.WithComponent(log.ComponentWorker)
	return &MilestoneWorker{
		goals:  goals,
		seen:   seen,
		logger: logger,
		events: log.NewStructuredLogger(logger),
	}
}

// HandleMilestone is an amqp.MilestoneHandler. It returns an error only
// when the goal could not be read, so the delivery is retried.
func (w *MilestoneWorker) HandleMilestone(ctx context.Context, event *amqp.MilestoneEvent) error {
	logger := log.FromContextOr(ctx, w.logger).WithComponent(log.ComponentWorker)

	if event.EventID != "" {
		if _, dup := w.seen.Get(event.EventID); dup {
			w.duplicates.Add(1)
			logger.DebugContext(ctx, "Duplicate milestone event skipped", "event_id", event.EventID)
			return nil
		}
	}

	if w.goals != nil {
		g, err := w.goals.GetGoal(ctx, event.UserID, event.GoalID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			w.orphaned.Add(1)
			logger.WarnContext(ctx, "Milestone event for missing goal",
				log.FieldUserID, event.UserID, log.FieldGoalID, event.GoalID)
			w.markSeen(event)
			return nil
		case err != nil:
			return fmt.Errorf("load goal %s: %w", event.GoalID, err)
		}
		if !Current(g, event) {
			w.superseded.Add(1)
			logger.InfoContext(ctx, "Milestone event superseded by later progress",
				log.FieldGoalID, event.GoalID,
				log.FieldMilestone, event.Threshold,
				"kind", string(event.Kind),
				"milestones_reached", g.MilestonesReached)
			w.markSeen(event)
			return nil
		}
	}

	w.events.LogMilestone(ctx, event.UserID, event.GoalID, event.Percentage, event.Threshold,
		event.Kind == amqp.MilestoneReached)
	w.processed.Add(1)
	w.markSeen(event)
	return nil
}

// Current reports whether g still agrees with event: a reached threshold
// is still counted and a lost one is still uncounted.
func Current(g core.Goal, event *amqp.MilestoneEvent) bool {
	band := event.Threshold / 25
	if event.Kind == amqp.MilestoneReached {
		return g.MilestonesReached >= band
	}
	return g.MilestonesReached < band
}

func (w *MilestoneWorker) markSeen(event *amqp.MilestoneEvent) {
	if event.EventID != "" {
		w.seen.Set(event.EventID, struct{}{})
	}
}

// Stats returns a snapshot of the worker's counters.
func (w *MilestoneWorker) Stats() Stats {
	return Stats{
		Processed:  w.processed.Load(),
		Duplicates: w.duplicates.Load(),
		Superseded: w.superseded.Load(),
		Orphaned:   w.orphaned.Load(),
	}
}
