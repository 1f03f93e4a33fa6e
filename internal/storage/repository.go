// Package storage persists expenses and goals in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a record does not exist for the user.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict is returned by SaveGoal when the stored goal changed
	// since it was read.
	ErrVersionConflict = errors.New("version conflict")
)

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger = logger.WithComponent(log.ComponentStorage)
	version, dirty, err := SchemaVersion(dbPath)
	if err != nil {
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return nil, fmt.Errorf("schema version %d is dirty", version)
	}
	logger.Info("Database ready", log.FieldPath, dbPath, "schema_version", version)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertExpense validates and stores e, assigning an ID when it has none.
func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, user_id, date, description, amount_cents, category)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Date.String(), e.Description, e.Amount.Cents, e.Category)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	r.logger.DebugContext(ctx, "Expense saved",
		log.FieldExpenseID, e.ID,
		log.FieldAmountCents, e.Amount.Cents,
		log.FieldCategory, e.Category)
	return e, nil
}

// InsertExpenses stores a batch in a single transaction. Either all rows are
// stored or none.
func (r *SQLiteRepository) InsertExpenses(ctx context.Context, expenses []core.Expense) ([]core.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO expenses (id, user_id, date, description, amount_cents, category)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	out := make([]core.Expense, 0, len(expenses))
	for i, e := range expenses {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("expense %d: %w", i, err)
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.UserID, e.Date.String(), e.Description, e.Amount.Cents, e.Category); err != nil {
			return nil, fmt.Errorf("insert expense %d: %w", i, err)
		}
		out = append(out, e)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	r.logger.InfoContext(ctx, "Expenses imported", log.FieldRows, len(out))
	return out, nil
}

// ListExpenses returns every expense of userID ordered by date.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	return r.queryExpenses(ctx,
		`SELECT id, user_id, date, description, amount_cents, category
		 FROM expenses WHERE user_id = ? ORDER BY date, created_at`, userID)
}

// ListExpensesInYear returns the expenses of userID dated within year.
func (r *SQLiteRepository) ListExpensesInYear(ctx context.Context, userID string, year int) ([]core.Expense, error) {
	from := core.NewDate(year, 1, 1).String()
	to := core.NewDate(year, 12, 31).String()
	return r.queryExpenses(ctx,
		`SELECT id, user_id, date, description, amount_cents, category
		 FROM expenses WHERE user_id = ? AND date BETWEEN ? AND ? ORDER BY date, created_at`,
		userID, from, to)
}

func (r *SQLiteRepository) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e    core.Expense
			date string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &date, &e.Description, &e.Amount.Cents, &e.Category); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Date, err = core.ParseDate("date", date); err != nil {
			return nil, fmt.Errorf("expense %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// DeleteExpense removes the expense id owned by userID.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("expense %s: %w", id, ErrNotFound)
	}
	r.logger.InfoContext(ctx, "Expense deleted", log.FieldUserID, userID, log.FieldExpenseID, id)
	return nil
}

// CreateGoal validates and stores g with version 1.
func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.Version = 1

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (id, user_id, title, description, goal_type, target_cents, current_cents,
		                    start_date, target_date, priority, is_completed, milestones_reached, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Title, g.Description, string(g.Type), g.TargetAmount.Cents, g.CurrentAmount.Cents,
		g.StartDate.String(), g.TargetDate.String(), g.Priority, g.IsCompleted, g.MilestonesReached, g.Version)
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	r.logger.InfoContext(ctx, "Goal created", log.FieldUserID, g.UserID, log.FieldGoalID, g.ID)
	return g, nil
}

const goalColumns = `id, user_id, title, description, goal_type, target_cents, current_cents,
	start_date, target_date, priority, is_completed, milestones_reached, version`

// GetGoal returns the goal id owned by userID, or ErrNotFound.
func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? AND id = ?`, userID, id)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	return g, err
}

// ListGoals returns the goals of userID, most important first.
func (r *SQLiteRepository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY priority, target_date, title`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}

// SaveGoal writes g if the stored version still equals g.Version, and
// returns g with its version incremented. A stale version yields
// ErrVersionConflict; a missing goal yields ErrNotFound.
func (r *SQLiteRepository) SaveGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET title = ?, description = ?, goal_type = ?, target_cents = ?, current_cents = ?,
		        start_date = ?, target_date = ?, priority = ?, is_completed = ?, milestones_reached = ?,
		        version = version + 1, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		 WHERE user_id = ? AND id = ? AND version = ?`,
		g.Title, g.Description, string(g.Type), g.TargetAmount.Cents, g.CurrentAmount.Cents,
		g.StartDate.String(), g.TargetDate.String(), g.Priority, g.IsCompleted, g.MilestonesReached,
		g.UserID, g.ID, g.Version)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	if n == 0 {
		if _, err := r.GetGoal(ctx, g.UserID, g.ID); err != nil {
			return core.Goal{}, err
		}
		return core.Goal{}, fmt.Errorf("goal %s at version %d: %w", g.ID, g.Version, ErrVersionConflict)
	}

	g.Version++
	return g, nil
}

// DeleteGoal removes the goal id owned by userID.
func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	r.logger.InfoContext(ctx, "Goal deleted", log.FieldUserID, userID, log.FieldGoalID, id)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGoal(s scanner) (core.Goal, error) {
	var (
		g                core.Goal
		goalType         string
		start, targetDay string
	)
	err := s.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &goalType,
		&g.TargetAmount.Cents, &g.CurrentAmount.Cents, &start, &targetDay,
		&g.Priority, &g.IsCompleted, &g.MilestonesReached, &g.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Goal{}, err
		}
		return core.Goal{}, fmt.Errorf("scan goal: %w", err)
	}
	g.Type = core.GoalType(goalType)
	if g.StartDate, err = core.ParseDate("start_date", start); err != nil {
		return core.Goal{}, fmt.Errorf("goal %s: %w", g.ID, err)
	}
	if g.TargetDate, err = core.ParseDate("target_date", targetDay); err != nil {
		return core.Goal{}, fmt.Errorf("goal %s: %w", g.ID, err)
	}
	return g, nil
}
