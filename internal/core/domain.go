package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used on every external boundary.
const DateLayout = "2006-01-02"

const (
	GoalSavings       GoalType = "savings"
	GoalDebtReduction GoalType = "debt_reduction"
	GoalInvestment    GoalType = "investment"
	GoalEmergencyFund GoalType = "emergency_fund"
	GoalPurchase      GoalType = "purchase"
)

type (
	GoalType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Expense struct {
		ID          string `json:"id"`
		UserID      string `json:"user_id"`
		Date        Date   `json:"date"`
		Description string `json:"description"`
		Amount      Money  `json:"amount"`
		Category    string `json:"category"`
	}

	Goal struct {
		ID                string   `json:"id"`
		UserID            string   `json:"user_id"`
		Title             string   `json:"title"`
		Description       string   `json:"description"`
		Type              GoalType `json:"goal_type"`
		TargetAmount      Money    `json:"target_amount"`
		CurrentAmount     Money    `json:"current_amount"`
		StartDate         Date     `json:"start_date"`
		TargetDate        Date     `json:"target_date"`
		Priority          int      `json:"priority"` // 1=highest .. 5=lowest
		IsCompleted       bool     `json:"is_completed"`
		MilestonesReached int      `json:"milestones_reached"` // 0-4, one per 25% band
		Version           int64    `json:"version"`            // optimistic lock counter, owned by storage
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrNegativeAmount   = errors.New("amount cannot be negative")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyTitle       = errors.New("empty title")
	ErrInvalidGoalType  = errors.New("invalid goal type")
	ErrInvalidPriority  = errors.New("priority must be between 1 and 5")
	ErrDateOrder        = errors.New("target date must not be before start date")
)

// ValidationError reports bad input for a named field. It unwraps to the
// sentinel describing the problem.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Invalid builds a ValidationError for field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string. field names the input in the
// returned ValidationError.
func ParseDate(field, s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, Invalid(field, ErrInvalidDate)
	}
	return DateOf(t), nil
}

// AddDays returns the date n calendar days later (earlier when negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

const secondsPerDay = 24 * 60 * 60

// DaysUntil returns the whole number of days from d to other. Both dates
// sit at UTC midnight, so the count works on Unix seconds and stays exact
// for spans longer than a time.Duration can hold.
func (d Date) DaysUntil(other Date) int {
	return int((other.Unix() - d.Unix()) / secondsPerDay)
}

func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool  { return d.Time.Equal(other.Time) }

func (d Date) String() string {
	return d.Format(DateLayout)
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return Invalid("date", err)
	}
	if len(e.Description) > 200 {
		return Invalid("description", errors.New("too long (max 200 characters)"))
	}
	if err := e.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if strings.TrimSpace(e.Category) == "" {
		return Invalid("category", ErrEmptyCategory)
	}
	if len(e.Category) > 50 {
		return Invalid("category", errors.New("too long (max 50 characters)"))
	}
	return nil
}

// ValidGoalType reports whether t is one of the known goal kinds.
func ValidGoalType(t GoalType) bool {
	switch t {
	case GoalSavings, GoalDebtReduction, GoalInvestment, GoalEmergencyFund, GoalPurchase:
		return true
	}
	return false
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return Invalid("title", ErrEmptyTitle)
	}
	if len(g.Title) > 100 {
		return Invalid("title", errors.New("too long (max 100 characters)"))
	}
	if len(g.Description) > 500 {
		return Invalid("description", errors.New("too long (max 500 characters)"))
	}
	if !ValidGoalType(g.Type) {
		return Invalid("goal_type", ErrInvalidGoalType)
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return Invalid("target_amount", err)
	}
	if g.CurrentAmount.Cents < 0 {
		return Invalid("current_amount", ErrNegativeAmount)
	}
	if err := g.StartDate.Validate(); err != nil {
		return Invalid("start_date", err)
	}
	if err := g.TargetDate.Validate(); err != nil {
		return Invalid("target_date", err)
	}
	if g.TargetDate.Before(g.StartDate) {
		return Invalid("target_date", ErrDateOrder)
	}
	if g.Priority < 1 || g.Priority > 5 {
		return Invalid("priority", ErrInvalidPriority)
	}
	if g.MilestonesReached < 0 || g.MilestonesReached > 4 {
		return Invalid("milestones_reached", errors.New("must be between 0 and 4"))
	}
	return nil
}
