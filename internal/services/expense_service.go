package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Invalidator drops derived views of a user's data.
type Invalidator interface {
	Invalidate(userID string)
}

// ExpenseService records expenses and keeps derived views fresh.
type ExpenseService struct {
	expenses    ExpenseStore
	invalidator Invalidator
	events      *log.StructuredLogger
}

// NewExpenseService wires an expense service. invalidator may be nil.
func NewExpenseService(store ExpenseStore, invalidator Invalidator, logger *log.Logger) *ExpenseService {
	return &ExpenseService{
		expenses:    store,
		invalidator: invalidator,
		events:      log.NewStructuredLogger(logger.WithComponent(log.ComponentExpense)),
	}
}

// AddExpense stores e for userID.
func (s *ExpenseService) AddExpense(ctx context.Context, userID string, e core.Expense) (core.Expense, error) {
	e.UserID = userID
	saved, err := s.expenses.InsertExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.invalidate(userID)
	s.events.LogExpenseCreated(ctx, saved.ID, saved.Amount.Cents, saved.Category)
	return saved, nil
}

// ImportExpenses stores a batch for userID atomically.
func (s *ExpenseService) ImportExpenses(ctx context.Context, userID string, batch []core.Expense) ([]core.Expense, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	for i := range batch {
		batch[i].UserID = userID
	}
	saved, err := s.expenses.InsertExpenses(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("import expenses: %w", err)
	}
	s.invalidate(userID)
	return saved, nil
}

// DeleteExpense removes expense id of userID.
func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, id string) error {
	if err := s.expenses.DeleteExpense(ctx, userID, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.invalidate(userID)
	return nil
}

// ExpenseQuery narrows ListExpenses. Zero fields do not filter; Month needs
// Year, and Limit 0 returns every match.
type ExpenseQuery struct {
	Year     int
	Month    int
	Category string
	Limit    int
}

func (q ExpenseQuery) validate() error {
	if q.Month != 0 {
		if q.Month < 1 || q.Month > 12 {
			return core.Invalid("month", core.ErrInvalidMonth)
		}
		if q.Year == 0 {
			return core.Invalid("month", errors.New("requires a year"))
		}
	}
	if q.Limit < 0 {
		return core.Invalid("limit", errors.New("must not be negative"))
	}
	return nil
}

// ListExpenses returns the user's expenses matching q, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, userID string, q ExpenseQuery) ([]core.Expense, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	var (
		stored []core.Expense
		err    error
	)
	if q.Year != 0 {
		stored, err = s.expenses.ListExpensesInYear(ctx, userID, q.Year)
	} else {
		stored, err = s.expenses.ListExpenses(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	matched := aggregate.Filter(stored, aggregate.Criteria{Category: q.Category, Month: q.Month})
	limit := q.Limit
	if limit == 0 {
		limit = -1
	}
	out := aggregate.Latest(matched, limit)
	if out == nil {
		out = []core.Expense{}
	}
	return out, nil
}

func (s *ExpenseService) invalidate(userID string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(userID)
	}
}
