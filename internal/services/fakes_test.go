package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type memoryStore struct {
	mu        sync.Mutex
	expenses  []core.Expense
	goals     map[string]core.Goal
	listCalls int
	nextID    int

	// conflicts makes the next N SaveGoal calls fail with a version conflict.
	conflicts int
	listErr   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{goals: make(map[string]core.Goal)}
}

func (m *memoryStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s%d", prefix, m.nextID)
}

func (m *memoryStore) InsertExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = m.id("e")
	}
	m.expenses = append(m.expenses, e)
	return e, nil
}

func (m *memoryStore) InsertExpenses(ctx context.Context, batch []core.Expense) ([]core.Expense, error) {
	for _, e := range batch {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}
	out := make([]core.Expense, 0, len(batch))
	for _, e := range batch {
		saved, _ := m.InsertExpense(ctx, e)
		out = append(out, saved)
	}
	return out, nil
}

func (m *memoryStore) ListExpenses(_ context.Context, userID string) ([]core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []core.Expense
	for _, e := range m.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryStore) ListExpensesInYear(ctx context.Context, userID string, year int) ([]core.Expense, error) {
	all, err := m.ListExpenses(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []core.Expense
	for _, e := range all {
		if e.Date.Year() == year {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryStore) DeleteExpense(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.expenses {
		if e.ID == id && e.UserID == userID {
			m.expenses = append(m.expenses[:i], m.expenses[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memoryStore) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID == "" {
		g.ID = m.id("g")
	}
	g.Version = 1
	m.goals[g.ID] = g
	return g, nil
}

func (m *memoryStore) GetGoal(_ context.Context, userID, id string) (core.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok || g.UserID != userID {
		return core.Goal{}, storage.ErrNotFound
	}
	return g, nil
}

func (m *memoryStore) ListGoals(_ context.Context, userID string) ([]core.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Goal
	for _, g := range m.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memoryStore) SaveGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.goals[g.ID]
	if !ok {
		return core.Goal{}, storage.ErrNotFound
	}
	if m.conflicts > 0 {
		m.conflicts--
		// Simulate another writer bumping the version.
		stored.Version++
		m.goals[g.ID] = stored
		return core.Goal{}, storage.ErrVersionConflict
	}
	if stored.Version != g.Version {
		return core.Goal{}, storage.ErrVersionConflict
	}
	g.Version++
	m.goals[g.ID] = g
	return g, nil
}

func (m *memoryStore) DeleteGoal(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.goals[id]; !ok || g.UserID != userID {
		return storage.ErrNotFound
	}
	delete(m.goals, id)
	return nil
}

type recordingPublisher struct {
	events []*amqp.MilestoneEvent
	err    error
}

func (p *recordingPublisher) PublishMilestone(_ context.Context, e *amqp.MilestoneEvent) error {
	p.events = append(p.events, e)
	return p.err
}

var errBroker = errors.New("broker unavailable")
