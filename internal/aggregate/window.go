package aggregate

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
)

// This file implements the Strategy Pattern for chart windows. Each window
// knows its date range relative to today and how to bucket and label the
// expenses that fall inside it.

const (
	Week        Window = "week"
	Month       Window = "month"
	Year        Window = "year"
	Last6Months Window = "last_6_months"
)

// Window names a charting time window.
type Window string

var errUnknownWindow = fmt.Errorf("unknown window (want one of %s)", strings.Join([]string{
	string(Week), string(Month), string(Year), string(Last6Months),
}, ", "))

// ParseWindow maps a caller-supplied name to a Window. "yearly" is accepted
// as an alias for year.
func ParseWindow(s string) (Window, error) {
	w := Window(strings.ToLower(strings.TrimSpace(s)))
	if w == "yearly" {
		w = Year
	}
	if _, ok := windowStrategies[w]; !ok {
		return "", core.Invalid("range", errUnknownWindow)
	}
	return w, nil
}

// Range is an inclusive span of calendar days.
type Range struct {
	Start core.Date `json:"start"`
	End   core.Date `json:"end"`
}

// Contains reports whether d lies inside the range.
func (r Range) Contains(d core.Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Trend is a zero-filled series over a window, ready for charting.
type Trend struct {
	Window Window             `json:"window"`
	Range  Range              `json:"range"`
	Points []core.SeriesPoint `json:"points"`
}

// Labels returns the point labels in order.
func (t Trend) Labels() []string {
	out := make([]string, len(t.Points))
	for i, p := range t.Points {
		out[i] = p.Label
	}
	return out
}

// Values returns the point amounts in currency units.
func (t Trend) Values() []float64 {
	out := make([]float64, len(t.Points))
	for i, p := range t.Points {
		out[i] = p.Amount.Units()
	}
	return out
}

// WindowStrategy is implemented once per Window.
type WindowStrategy interface {
	// Range returns the nominal span of the window ending at today.
	Range(today core.Date) Range
	// Bucket groups expenses already restricted to the window and the
	// current year.
	Bucket(expenses []core.Expense, r Range, today core.Date) []core.SeriesPoint
}

// WeekStrategy covers the seven days ending today, one point per day,
// labelled with the weekday abbreviation.
type WeekStrategy struct{}

func (WeekStrategy) Range(today core.Date) Range {
	return Range{Start: today.AddDays(-6), End: today}
}

func (WeekStrategy) Bucket(expenses []core.Expense, r Range, _ core.Date) []core.SeriesPoint {
	return relabelDaily(expenses, r, weekdayLabel)
}

// MonthStrategy covers every day of the current calendar month, labelled
// with the two-digit day of month.
type MonthStrategy struct{}

func (MonthStrategy) Range(today core.Date) Range {
	first := core.NewDate(today.Year(), today.Month(), 1)
	return Range{Start: first, End: core.NewDate(today.Year(), today.Month()+1, 0)}
}

func (MonthStrategy) Bucket(expenses []core.Expense, r Range, _ core.Date) []core.SeriesPoint {
	return relabelDaily(expenses, r, func(d core.Date) string {
		return fmt.Sprintf("%02d", d.Day())
	})
}

// YearStrategy covers the twelve months of the current year.
type YearStrategy struct{}

func (YearStrategy) Range(today core.Date) Range {
	return Range{Start: core.NewDate(today.Year(), 1, 1), End: core.NewDate(today.Year(), 12, 31)}
}

func (YearStrategy) Bucket(expenses []core.Expense, _ Range, today core.Date) []core.SeriesPoint {
	return MonthlySeries(expenses, today.Year())
}

// Last6MonthsStrategy covers the 180 days ending today. Its trend buckets
// by month, limited to months of the current year that the range touches.
type Last6MonthsStrategy struct{}

func (Last6MonthsStrategy) Range(today core.Date) Range {
	return Range{Start: today.AddDays(-180), End: today}
}

func (Last6MonthsStrategy) Bucket(expenses []core.Expense, r Range, today core.Date) []core.SeriesPoint {
	first := 1
	if r.Start.Year() == today.Year() {
		first = r.Start.Month()
	}
	return MonthlySeries(expenses, today.Year())[first-1 : today.Month()]
}

func relabelDaily(expenses []core.Expense, r Range, label func(core.Date) string) []core.SeriesPoint {
	// r is produced by a strategy and always valid.
	points, _ := DailySeries(expenses, r.Start, r.End)
	for i := range points {
		points[i].Label = label(points[i].Date)
	}
	return points
}

// windowStrategies maps windows to their strategies.
var windowStrategies = map[Window]WindowStrategy{
	Week:        WeekStrategy{},
	Month:       MonthStrategy{},
	Year:        YearStrategy{},
	Last6Months: Last6MonthsStrategy{},
}

// GetWindowStrategy returns the strategy for w.
func GetWindowStrategy(w Window) (WindowStrategy, error) {
	s, ok := windowStrategies[w]
	if !ok {
		return nil, core.Invalid("range", errUnknownWindow)
	}
	return s, nil
}

// RangeFor returns the date span of w ending at today.
func RangeFor(w Window, today core.Date) (Range, error) {
	s, err := GetWindowStrategy(w)
	if err != nil {
		return Range{}, err
	}
	return s.Range(today), nil
}

// inWindow restricts expenses to r and to the year of today. The year
// restriction applies even when r crosses a year boundary, so charts never
// mix in the previous year's records.
func inWindow(expenses []core.Expense, r Range, today core.Date) []core.Expense {
	return Filter(expenses, Criteria{From: r.Start, To: r.End, Year: today.Year()})
}

// TrendFor buckets the expenses of window w ending at today.
func TrendFor(expenses []core.Expense, w Window, today core.Date) (Trend, error) {
	if err := today.Validate(); err != nil {
		return Trend{}, core.Invalid("today", err)
	}
	s, err := GetWindowStrategy(w)
	if err != nil {
		return Trend{}, err
	}
	r := s.Range(today)
	return Trend{
		Window: w,
		Range:  r,
		Points: s.Bucket(inWindow(expenses, r, today), r, today),
	}, nil
}

// Distribution breaks the expenses of window w ending at today down by
// category, largest first.
func Distribution(expenses []core.Expense, w Window, today core.Date) (Breakdown, error) {
	if err := today.Validate(); err != nil {
		return Breakdown{}, core.Invalid("today", err)
	}
	r, err := RangeFor(w, today)
	if err != nil {
		return Breakdown{}, err
	}
	return SummarizeCategories(inWindow(expenses, r, today)), nil
}
