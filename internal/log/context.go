package log

import (
	"context"
	"log/slog"
)

type contextKey string

const loggerContextKey contextKey = "logger"

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// FromContext extracts a logger from ctx, falling back to the slog default.
func FromContext(ctx context.Context) *Logger {
	return FromContextOr(ctx, &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	})
}

// FromContextOr extracts a logger from ctx, or returns fallback.
func FromContextOr(ctx context.Context, fallback *Logger) *Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*Logger); ok {
		return logger
	}
	return fallback
}

// StructuredLogger logs the domain events that more than one component emits.
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogMilestone records a milestone crossing in either direction.
func (sl *StructuredLogger) LogMilestone(ctx context.Context, userID, goalID string, percentage float64, threshold int, reached bool) {
	msg := "Milestone reached"
	if !reached {
		msg = "Milestone lost"
	}
	fields := NewFields().
		WithGoal(userID, goalID, percentage).
		WithMilestone(threshold).
		WithOperation(OpUpdate)
	sl.logger.InfoContext(ctx, msg, fields.ToSlice()...)
}

// LogExpenseCreated logs successful expense creation
func (sl *StructuredLogger) LogExpenseCreated(ctx context.Context, id string, amountCents int64, category string) {
	fields := NewFields().
		WithExpense(id, amountCents, category).
		WithOperation(OpCreate)
	sl.logger.InfoContext(ctx, "Expense created", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	sl.logger.ErrorContext(ctx, msg, fields.WithError(err).WithOperation(operation).ToSlice()...)
}
