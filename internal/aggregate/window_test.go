package aggregate

import (
	"testing"

	"fintrack/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in      string
		want    Window
		wantErr bool
	}{
		{"week", Week, false},
		{" Month ", Month, false},
		{"year", Year, false},
		{"yearly", Year, false},
		{"last_6_months", Last6Months, false},
		{"decade", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWindow(tt.in)
			if tt.wantErr {
				var ve *core.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "range", ve.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRangeFor(t *testing.T) {
	today := core.NewDate(2024, 2, 10)
	tests := []struct {
		window Window
		start  core.Date
		end    core.Date
	}{
		{Week, core.NewDate(2024, 2, 4), today},
		{Month, core.NewDate(2024, 2, 1), core.NewDate(2024, 2, 29)},
		{Year, core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31)},
		{Last6Months, core.NewDate(2023, 8, 14), today},
	}
	for _, tt := range tests {
		t.Run(string(tt.window), func(t *testing.T) {
			r, err := RangeFor(tt.window, today)
			require.NoError(t, err)
			assert.Equal(t, tt.start, r.Start)
			assert.Equal(t, tt.end, r.End)
		})
	}
}

func TestTrendFor_Week(t *testing.T) {
	today := core.NewDate(2025, 10, 18) // Saturday
	trend, err := TrendFor([]core.Expense{
		expense("Food", 12, today),
		expense("Food", 8, core.NewDate(2025, 10, 12)),
		expense("Food", 50, core.NewDate(2025, 10, 11)), // eight days back
	}, Week, today)
	require.NoError(t, err)

	assert.Equal(t, []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}, trend.Labels())
	assert.Equal(t, []float64{8, 0, 0, 0, 0, 0, 12}, trend.Values())
}

func TestTrendFor_WeekAcrossYearBoundary(t *testing.T) {
	today := core.NewDate(2025, 1, 2)
	trend, err := TrendFor([]core.Expense{
		expense("Food", 40, core.NewDate(2024, 12, 30)),
		expense("Food", 10, core.NewDate(2025, 1, 1)),
	}, Week, today)
	require.NoError(t, err)

	require.Len(t, trend.Points, 7)
	assert.Equal(t, core.NewDate(2024, 12, 27), trend.Points[0].Date)
	// The previous year's record is excluded although it lies in the window.
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 10, 0}, trend.Values())
}

func TestTrendFor_Month(t *testing.T) {
	today := core.NewDate(2025, 2, 14)
	trend, err := TrendFor([]core.Expense{
		expense("Food", 5, core.NewDate(2025, 2, 1)),
		expense("Food", 6, core.NewDate(2025, 2, 28)),
		expense("Food", 7, core.NewDate(2025, 3, 1)),
	}, Month, today)
	require.NoError(t, err)

	labels := trend.Labels()
	require.Len(t, labels, 28)
	assert.Equal(t, "01", labels[0])
	assert.Equal(t, "28", labels[27])
	assert.Equal(t, 5.0, trend.Values()[0])
	assert.Equal(t, 6.0, trend.Values()[27])
}

func TestTrendFor_Year(t *testing.T) {
	today := core.NewDate(2025, 6, 30)
	trend, err := TrendFor([]core.Expense{
		expense("Food", 5, core.NewDate(2025, 3, 3)),
		expense("Food", 9, core.NewDate(2024, 3, 3)),
	}, Year, today)
	require.NoError(t, err)

	assert.Len(t, trend.Points, 12)
	assert.Equal(t, "Mar", trend.Points[2].Label)
	assert.Equal(t, 5.0, trend.Values()[2])
}

func TestTrendFor_Last6Months(t *testing.T) {
	trend, err := TrendFor(nil, Last6Months, core.NewDate(2025, 8, 15))
	require.NoError(t, err)
	// 180 days back lands on 2025-02-16.
	assert.Equal(t, []string{"Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug"}, trend.Labels())

	trend, err = TrendFor(nil, Last6Months, core.NewDate(2025, 3, 15))
	require.NoError(t, err)
	assert.Equal(t, []string{"Jan", "Feb", "Mar"}, trend.Labels(), "clamped to the current year")
}

func TestTrendFor_Invalid(t *testing.T) {
	_, err := TrendFor(nil, Window("fortnight"), core.NewDate(2025, 1, 1))
	assert.True(t, core.IsValidation(err))

	_, err = TrendFor(nil, Week, core.Date{})
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "today", ve.Field)
}

func TestDistribution(t *testing.T) {
	today := core.NewDate(2025, 1, 20)
	expenses := []core.Expense{
		expense("Food", 10, core.NewDate(2025, 1, 19)),
		expense("Rent", 900, core.NewDate(2025, 1, 1)),
		expense("Food", 15, core.NewDate(2025, 1, 14)),
		expense("Travel", 300, core.NewDate(2024, 12, 20)),
	}

	week, err := Distribution(expenses, Week, today)
	require.NoError(t, err)
	assert.Equal(t, []core.CategoryAmount{
		{Name: "Food", Amount: core.Money{Cents: 2500}},
	}, week.Categories)

	half, err := Distribution(expenses, Last6Months, today)
	require.NoError(t, err)
	require.Len(t, half.Categories, 2, "December is outside the current year")
	assert.Equal(t, "Rent", half.Categories[0].Name)
	assert.Equal(t, int64(92500), half.Total.Cents)
}
