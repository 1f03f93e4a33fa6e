package services

import (
	"context"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

// ExpenseStore is the expense persistence the services need.
type ExpenseStore interface {
	InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	InsertExpenses(ctx context.Context, expenses []core.Expense) ([]core.Expense, error)
	ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)
	ListExpensesInYear(ctx context.Context, userID string, year int) ([]core.Expense, error)
	DeleteExpense(ctx context.Context, userID, id string) error
}

// GoalStore is the goal persistence the services need. SaveGoal must reject
// stale versions with storage.ErrVersionConflict.
type GoalStore interface {
	CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
	GetGoal(ctx context.Context, userID, id string) (core.Goal, error)
	ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
	SaveGoal(ctx context.Context, g core.Goal) (core.Goal, error)
	DeleteGoal(ctx context.Context, userID, id string) error
}

// MilestonePublisher delivers milestone events to interested consumers.
type MilestonePublisher interface {
	PublishMilestone(ctx context.Context, event *amqp.MilestoneEvent) error
}

// Today returns the current calendar day in UTC.
func Today() core.Date {
	return core.DateOf(time.Now().UTC())
}
