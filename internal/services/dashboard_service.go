package services

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/aggregate"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"golang.org/x/sync/errgroup"
)

// recentLimit is how many expenses the dashboard lists.
const recentLimit = 5

// Dashboard is the combined landing view for one user.
type Dashboard struct {
	Today  core.Date          `json:"today"`
	Month  core.MonthOverview `json:"month"`
	Week   aggregate.Trend    `json:"week"`
	Recent []core.Expense     `json:"recent"`
	Goals  []GoalView         `json:"goals"`
	Yearly core.YearlySummary `json:"yearly"`

	// MonthSavings is income minus this month's spending. It goes negative
	// when spending exceeds income and is zero when no income is set.
	MonthSavings core.Money `json:"month_savings"`
	ActiveGoals  int        `json:"active_goals"`
}

// DashboardService builds chart and summary views from stored records.
// Results are memoised per user, query and day until the user's expenses
// change.
type DashboardService struct {
	expenses ExpenseStore
	goals    GoalStore
	cache    cache.Cache[any]
	logger   *log.Logger
}

// NewDashboardService wires a dashboard service around an LRU cache.
func NewDashboardService(expenses ExpenseStore, goals GoalStore, c cache.Cache[any], logger *log.Logger) *DashboardService {
	return &DashboardService{
		expenses: expenses,
		goals:    goals,
		cache:    c,
		logger:   logger.WithComponent(log.ComponentDashboard),
	}
}

// Invalidate drops every cached view of userID.
func (s *DashboardService) Invalidate(userID string) {
	if n := s.cache.DeletePrefix(userPrefix(userID)); n > 0 {
		s.logger.Debug("Dashboard cache invalidated", log.FieldUserID, userID, "entries", n)
	}
}

// Trend buckets the user's expenses over window w ending at today.
func (s *DashboardService) Trend(ctx context.Context, userID string, w aggregate.Window, today core.Date) (aggregate.Trend, error) {
	return memoise(s, cacheKey(userID, "trend", string(w), today), func() (aggregate.Trend, error) {
		expenses, err := s.expenses.ListExpensesInYear(ctx, userID, today.Year())
		if err != nil {
			return aggregate.Trend{}, fmt.Errorf("load expenses: %w", err)
		}
		return aggregate.TrendFor(expenses, w, today)
	})
}

// Distribution breaks the user's spending in window w down by category.
func (s *DashboardService) Distribution(ctx context.Context, userID string, w aggregate.Window, today core.Date) (aggregate.Breakdown, error) {
	return memoise(s, cacheKey(userID, "distribution", string(w), today), func() (aggregate.Breakdown, error) {
		expenses, err := s.expenses.ListExpensesInYear(ctx, userID, today.Year())
		if err != nil {
			return aggregate.Breakdown{}, fmt.Errorf("load expenses: %w", err)
		}
		return aggregate.Distribution(expenses, w, today)
	})
}

// MonthOverview totals one calendar month of the user's spending.
func (s *DashboardService) MonthOverview(ctx context.Context, userID string, year, month int) (core.MonthOverview, error) {
	key := cacheKey(userID, "month", fmt.Sprintf("%04d-%02d", year, month), core.Date{})
	return memoise(s, key, func() (core.MonthOverview, error) {
		expenses, err := s.expenses.ListExpensesInYear(ctx, userID, year)
		if err != nil {
			return core.MonthOverview{}, fmt.Errorf("load expenses: %w", err)
		}
		return aggregate.MonthOverview(expenses, year, month)
	})
}

// YearlySummary returns monthly spending and savings for year.
func (s *DashboardService) YearlySummary(ctx context.Context, userID string, year int, monthlyIncome core.Money) (core.YearlySummary, error) {
	key := cacheKey(userID, "yearly", fmt.Sprintf("%04d/%d", year, monthlyIncome.Cents), core.Date{})
	return memoise(s, key, func() (core.YearlySummary, error) {
		expenses, err := s.expenses.ListExpensesInYear(ctx, userID, year)
		if err != nil {
			return core.YearlySummary{}, fmt.Errorf("load expenses: %w", err)
		}
		return aggregate.YearlySummary(expenses, year, monthlyIncome), nil
	})
}

// Overview loads the user's expenses and goals concurrently and assembles
// the dashboard for today. Goal progress is never cached.
func (s *DashboardService) Overview(ctx context.Context, userID string, today core.Date, monthlyIncome core.Money) (Dashboard, error) {
	var (
		expenses []core.Expense
		stored   []core.Goal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.expenses.ListExpensesInYear(gctx, userID, today.Year())
		if err != nil {
			return fmt.Errorf("load expenses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stored, err = s.goals.ListGoals(gctx, userID)
		if err != nil {
			return fmt.Errorf("load goals: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	month, err := aggregate.MonthOverview(expenses, today.Year(), today.Month())
	if err != nil {
		return Dashboard{}, err
	}
	week, err := aggregate.TrendFor(expenses, aggregate.Week, today)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		Today:        today,
		Month:        month,
		Week:         week,
		Recent:       aggregate.Recent(expenses, today.Year(), recentLimit),
		Goals:        viewGoals(stored, today),
		Yearly:       aggregate.YearlySummary(expenses, today.Year(), monthlyIncome),
		MonthSavings: monthSavings(monthlyIncome, month.Total),
		ActiveGoals:  countActive(stored),
	}, nil
}

func monthSavings(income, spent core.Money) core.Money {
	if income.Cents <= 0 {
		return core.Money{}
	}
	return core.Money{Cents: income.Cents - spent.Cents}
}

func countActive(stored []core.Goal) int {
	n := 0
	for _, g := range stored {
		if !g.IsCompleted {
			n++
		}
	}
	return n
}

func memoise[T any](s *DashboardService, key string, compute func() (T, error)) (T, error) {
	if v, ok := s.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	s.cache.Set(key, v)
	return v, nil
}

func userPrefix(userID string) string {
	return userID + "|"
}

// cacheKey scopes entries by user, query and day; a zero day marks queries
// independent of today.
func cacheKey(userID, kind, param string, today core.Date) string {
	day := "-"
	if !today.IsEmpty() {
		day = today.String()
	}
	return strings.Join([]string{userID, kind, param, day}, "|")
}
