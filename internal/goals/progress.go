// Package goals computes progress, pacing and milestone transitions for a
// single financial goal.
//
// Every function is pure: callers pass the goal snapshot and the current
// date, and receive new values. Persisting the result and serialising
// concurrent updates of the same goal is the caller's job.
package goals

import (
	"fmt"

	"fintrack/internal/core"
)

// Thresholds are the milestone percentages in the order they are walked.
// A goal's MilestonesReached counter equals the number of thresholds its
// progress has crossed, so Thresholds[i] corresponds to counter value i+1.
var Thresholds = []int{25, 50, 75, 100}

// Update describes the milestone transition produced by one progress
// update. At most one of Reached and Lost is non-zero.
type Update struct {
	OldPercentage float64 `json:"old_percentage"`
	NewPercentage float64 `json:"new_percentage"`
	Reached       int     `json:"reached,omitempty"` // threshold newly reached, 0 if none
	Lost          int     `json:"lost,omitempty"`    // threshold lost on regression, 0 if none
}

// Changed reports whether the update crossed a milestone in either
// direction.
func (u Update) Changed() bool {
	return u.Reached != 0 || u.Lost != 0
}

// ProgressPercentage returns current/target as a percentage capped at 100.
// A zero target yields 0 rather than an error.
func ProgressPercentage(g core.Goal) float64 {
	if g.TargetAmount.Cents == 0 {
		return 0
	}
	pct := float64(g.CurrentAmount.Cents) * 100 / float64(g.TargetAmount.Cents)
	if pct > 100 {
		return 100
	}
	return pct
}

// DaysRemaining returns whole days until the target date, or 0 once the
// goal is completed or overdue.
func DaysRemaining(g core.Goal, today core.Date) int {
	if g.IsCompleted || today.After(g.TargetDate) {
		return 0
	}
	return today.DaysUntil(g.TargetDate)
}

// IsOnTrack applies a linear pacing model: the goal is on track when its
// progress percentage is at least the percentage of its window that has
// elapsed.
func IsOnTrack(g core.Goal, today core.Date) bool {
	if g.IsCompleted {
		return true
	}
	totalDays := g.StartDate.DaysUntil(g.TargetDate)
	if totalDays <= 0 {
		return false
	}
	elapsedDays := g.StartDate.DaysUntil(today)
	if elapsedDays < 0 {
		return true
	}
	progress := ProgressPercentage(g)
	if elapsedDays > totalDays {
		return progress >= 100
	}
	timePct := float64(elapsedDays) / float64(totalDays) * 100
	return progress >= timePct
}

// MilestoneCount returns how many thresholds pct has reached.
func MilestoneCount(pct float64) int {
	n := 0
	for _, t := range Thresholds {
		if pct >= float64(t) {
			n++
		}
	}
	return n
}

// ApplyProgressUpdate sets the goal's current amount to proposed and keeps
// the derived fields consistent. The passed goal is not modified; on error
// the zero Goal is returned.
//
// A proposed amount above the target is clamped to the target. When
// progress regresses, the milestone counter drops to the band the new
// percentage landed in and that band's upper threshold is reported lost.
// When it advances, thresholds are walked in ascending order and the last
// one newly crossed is reported, so a jump across several thresholds
// yields a single Reached value.
func ApplyProgressUpdate(g core.Goal, proposed core.Money) (core.Goal, Update, error) {
	if proposed.Cents < 0 {
		return core.Goal{}, Update{}, core.Invalid("current_amount", core.ErrNegativeAmount)
	}
	if proposed.Cents > g.TargetAmount.Cents {
		proposed = g.TargetAmount
	}

	u := Update{OldPercentage: ProgressPercentage(g)}
	next := g
	next.CurrentAmount = proposed
	u.NewPercentage = ProgressPercentage(next)

	if u.NewPercentage < u.OldPercentage {
		next.MilestonesReached, u.Lost = regress(u.NewPercentage, g.MilestonesReached)
	} else {
		next.MilestonesReached, u.Reached = advance(u.OldPercentage, u.NewPercentage, g.MilestonesReached)
	}

	next.IsCompleted = u.NewPercentage >= 100
	return next, u, nil
}

// regress finds the band newPct fell into and, if the stored counter is
// above that band, resets it. Only the first matching band is considered.
func regress(newPct float64, reached int) (int, int) {
	for i, t := range Thresholds {
		if newPct < float64(t) {
			if reached > i {
				return i, t
			}
			return reached, 0
		}
	}
	return reached, 0
}

func advance(oldPct, newPct float64, reached int) (int, int) {
	var last int
	for i, t := range Thresholds {
		level := i + 1
		if oldPct < float64(t) && newPct >= float64(t) && reached < level {
			reached = level
			last = t
		}
	}
	return reached, last
}

// Status is the read model of a goal on a given day.
type Status struct {
	Percentage        float64 `json:"percentage"`
	DaysRemaining     int     `json:"days_remaining"`
	OnTrack           bool    `json:"on_track"`
	IsCompleted       bool    `json:"is_completed"`
	MilestonesReached int     `json:"milestones_reached"`
}

// Summarize evaluates every derived value of g for today.
func Summarize(g core.Goal, today core.Date) Status {
	return Status{
		Percentage:        ProgressPercentage(g),
		DaysRemaining:     DaysRemaining(g, today),
		OnTrack:           IsOnTrack(g, today),
		IsCompleted:       g.IsCompleted,
		MilestonesReached: g.MilestonesReached,
	}
}

// Params carries the caller-supplied fields of a new goal.
type Params struct {
	Title         string
	Description   string
	Type          core.GoalType
	TargetAmount  core.Money
	CurrentAmount core.Money
	StartDate     core.Date
	TargetDate    core.Date
	Priority      int
}

// NewGoal validates p and returns a goal with derived fields computed from
// its initial amount. A zero start date defaults to today and a zero
// priority to 3.
func NewGoal(p Params, today core.Date) (core.Goal, error) {
	g := core.Goal{
		Title:         p.Title,
		Description:   p.Description,
		Type:          p.Type,
		TargetAmount:  p.TargetAmount,
		CurrentAmount: p.CurrentAmount,
		StartDate:     p.StartDate,
		TargetDate:    p.TargetDate,
		Priority:      p.Priority,
	}
	if g.StartDate.IsEmpty() {
		g.StartDate = today
	}
	if g.Priority == 0 {
		g.Priority = 3
	}
	if g.CurrentAmount.Cents > g.TargetAmount.Cents {
		g.CurrentAmount = g.TargetAmount
	}
	if err := g.Validate(); err != nil {
		return core.Goal{}, fmt.Errorf("new goal: %w", err)
	}
	pct := ProgressPercentage(g)
	g.MilestonesReached = MilestoneCount(pct)
	g.IsCompleted = pct >= 100
	return g, nil
}

// Edit carries the goal fields a caller may change after creation. Nil
// fields are left as they are. The current amount changes only through
// ApplyProgressUpdate.
type Edit struct {
	Title        *string
	Description  *string
	Type         *core.GoalType
	TargetAmount *core.Money
	TargetDate   *core.Date
	Priority     *int
}

// ApplyEdit returns g with e applied. The current amount is clamped to the
// new target, completion and the milestone counter are recomputed from the
// resulting percentage, and any band change is reported the same way
// ApplyProgressUpdate reports it. The passed goal is not modified.
func ApplyEdit(g core.Goal, e Edit) (core.Goal, Update, error) {
	next := g
	if e.Title != nil {
		next.Title = *e.Title
	}
	if e.Description != nil {
		next.Description = *e.Description
	}
	if e.Type != nil {
		next.Type = *e.Type
	}
	if e.TargetAmount != nil {
		next.TargetAmount = *e.TargetAmount
	}
	if e.TargetDate != nil {
		next.TargetDate = *e.TargetDate
	}
	if e.Priority != nil {
		next.Priority = *e.Priority
	}
	if next.CurrentAmount.Cents > next.TargetAmount.Cents {
		next.CurrentAmount = next.TargetAmount
	}
	if err := next.Validate(); err != nil {
		return core.Goal{}, Update{}, fmt.Errorf("edit goal: %w", err)
	}

	u := Update{OldPercentage: ProgressPercentage(g), NewPercentage: ProgressPercentage(next)}
	count := MilestoneCount(u.NewPercentage)
	switch {
	case count < g.MilestonesReached:
		u.Lost = Thresholds[count]
	case count > g.MilestonesReached:
		u.Reached = Thresholds[count-1]
	}
	next.MilestonesReached = count
	next.IsCompleted = u.NewPercentage >= 100
	return next, u, nil
}
