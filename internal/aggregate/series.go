// Package aggregate groups a user's expense records into chartable sums:
// category breakdowns, zero-filled daily and monthly series, and the
// windowed trend and distribution views built on top of them.
//
// The functions only read their input. Scoping records to one user is the
// caller's responsibility.
package aggregate

import (
	"sort"
	"time"

	"fintrack/internal/core"
)

// Breakdown is a category grouping together with its grand total.
type Breakdown struct {
	Categories []core.CategoryAmount `json:"categories"`
	Total      core.Money            `json:"total"`
}

// CategoryBreakdown sums amounts per exact category string and orders the
// result by total descending. Ties keep first-seen order.
func CategoryBreakdown(expenses []core.Expense) []core.CategoryAmount {
	index := make(map[string]int)
	var out []core.CategoryAmount
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, core.CategoryAmount{Name: e.Category})
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Amount.Cents > out[b].Amount.Cents
	})
	return out
}

// SummarizeCategories returns CategoryBreakdown plus the total of all
// expenses.
func SummarizeCategories(expenses []core.Expense) Breakdown {
	return Breakdown{
		Categories: CategoryBreakdown(expenses),
		Total:      Total(expenses),
	}
}

// Total sums every amount.
func Total(expenses []core.Expense) core.Money {
	var total core.Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// DailySeries returns one point per calendar day in [start, end], in date
// order, with days lacking expenses set to zero. Expenses outside the range
// are ignored. Labels are YYYY-MM-DD.
func DailySeries(expenses []core.Expense, start, end core.Date) ([]core.SeriesPoint, error) {
	if err := start.Validate(); err != nil {
		return nil, core.Invalid("start", err)
	}
	if err := end.Validate(); err != nil {
		return nil, core.Invalid("end", err)
	}
	if end.Before(start) {
		return nil, core.Invalid("end", core.ErrDateOrder)
	}

	days := start.DaysUntil(end) + 1
	points := make([]core.SeriesPoint, days)
	for i := range points {
		d := start.AddDays(i)
		points[i] = core.SeriesPoint{Label: d.String(), Date: d}
	}
	r := Range{Start: start, End: end}
	for _, e := range expenses {
		if !r.Contains(e.Date) {
			continue
		}
		i := start.DaysUntil(e.Date)
		points[i].Amount = points[i].Amount.Add(e.Amount)
	}
	return points, nil
}

// MonthlySeries returns twelve points, January to December of year, with
// months lacking expenses set to zero. Labels are month abbreviations.
func MonthlySeries(expenses []core.Expense, year int) []core.SeriesPoint {
	points := make([]core.SeriesPoint, 12)
	for i := range points {
		points[i] = core.SeriesPoint{
			Label: monthLabel(i + 1),
			Date:  core.NewDate(year, i+1, 1),
		}
	}
	for _, e := range expenses {
		if e.Date.Year() != year {
			continue
		}
		i := e.Date.Month() - 1
		points[i].Amount = points[i].Amount.Add(e.Amount)
	}
	return points
}

// MonthOverview totals one calendar month and breaks it down by category.
func MonthOverview(expenses []core.Expense, year, month int) (core.MonthOverview, error) {
	if month < 1 || month > 12 {
		return core.MonthOverview{}, core.Invalid("month", core.ErrInvalidMonth)
	}
	inMonth := Filter(expenses, Criteria{Year: year, Month: month})
	b := SummarizeCategories(inMonth)
	return core.MonthOverview{
		Year:       year,
		Month:      month,
		Total:      b.Total,
		ByCategory: b.Categories,
	}, nil
}

// YearlySummary computes spending per month of year and the savings left
// from a fixed monthly income, floored at zero.
func YearlySummary(expenses []core.Expense, year int, monthlyIncome core.Money) core.YearlySummary {
	s := core.YearlySummary{Year: year}
	for i, p := range MonthlySeries(expenses, year) {
		s.Expenses[i] = p.Amount
		if saved := monthlyIncome.Cents - p.Amount.Cents; saved > 0 {
			s.Savings[i] = core.Money{Cents: saved}
		}
	}
	return s
}

// Criteria restricts a set of expenses. Zero-valued fields do not filter.
type Criteria struct {
	Category string
	From     core.Date
	To       core.Date
	Year     int
	Month    int
}

func (c Criteria) match(e core.Expense) bool {
	if c.Category != "" && e.Category != c.Category {
		return false
	}
	if !c.From.IsEmpty() && e.Date.Before(c.From) {
		return false
	}
	if !c.To.IsEmpty() && e.Date.After(c.To) {
		return false
	}
	if c.Year != 0 && e.Date.Year() != c.Year {
		return false
	}
	if c.Month != 0 && e.Date.Month() != c.Month {
		return false
	}
	return true
}

// Filter returns the expenses matching c, preserving input order.
func Filter(expenses []core.Expense, c Criteria) []core.Expense {
	var out []core.Expense
	for _, e := range expenses {
		if c.match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Recent returns up to n expenses of year, newest first.
func Recent(expenses []core.Expense, year, n int) []core.Expense {
	return Latest(Filter(expenses, Criteria{Year: year}), n)
}

// Latest sorts a copy of expenses newest first, keeping input order among
// same-day records, and keeps the first n. A negative n keeps all.
func Latest(expenses []core.Expense, n int) []core.Expense {
	out := append([]core.Expense(nil), expenses...)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Date.After(out[b].Date)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func monthLabel(m int) string {
	return time.Month(m).String()[:3]
}

func weekdayLabel(d core.Date) string {
	return d.Weekday().String()[:3]
}
