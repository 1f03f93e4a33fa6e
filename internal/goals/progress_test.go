package goals

import (
	"testing"

	"fintrack/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cents(units int64) core.Money { return core.Money{Cents: units * 100} }

func testGoal(target, current int64) core.Goal {
	return core.Goal{
		Title:         "Holiday",
		Type:          core.GoalSavings,
		TargetAmount:  cents(target),
		CurrentAmount: cents(current),
		StartDate:     core.NewDate(2025, 1, 1),
		TargetDate:    core.NewDate(2025, 12, 31),
		Priority:      3,
	}
}

func TestProgressPercentage(t *testing.T) {
	tests := []struct {
		name string
		goal core.Goal
		want float64
	}{
		{"zero target", core.Goal{CurrentAmount: cents(10)}, 0},
		{"empty", testGoal(1000, 0), 0},
		{"thirty percent", testGoal(1000, 300), 30},
		{"one third", testGoal(300, 100), 100.0 / 3.0},
		{"capped", core.Goal{TargetAmount: cents(100), CurrentAmount: cents(250)}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProgressPercentage(tt.goal)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}

func TestDaysRemaining(t *testing.T) {
	g := testGoal(1000, 0)

	assert.Equal(t, 30, DaysRemaining(g, core.NewDate(2025, 12, 1)))
	assert.Equal(t, 0, DaysRemaining(g, core.NewDate(2025, 12, 31)))
	assert.Equal(t, 0, DaysRemaining(g, core.NewDate(2026, 1, 5)), "overdue")

	g.IsCompleted = true
	assert.Equal(t, 0, DaysRemaining(g, core.NewDate(2025, 6, 1)), "completed")
}

func TestDaysRemaining_MultiCenturySpan(t *testing.T) {
	g := testGoal(1000, 0)
	g.StartDate = core.NewDate(2026, 1, 1)
	g.TargetDate = core.NewDate(2400, 1, 1)

	assert.Equal(t, 136600, DaysRemaining(g, core.NewDate(2026, 1, 1)))
	// Halfway through the window at 60% is ahead of schedule.
	g.CurrentAmount = cents(600)
	assert.True(t, IsOnTrack(g, core.NewDate(2026, 1, 1).AddDays(68300)))
	assert.False(t, IsOnTrack(g, core.NewDate(2026, 1, 1).AddDays(136000)))
}

func TestIsOnTrack(t *testing.T) {
	// 100-day window starting 2025-01-01.
	base := core.Goal{
		TargetAmount: cents(1000),
		StartDate:    core.NewDate(2025, 1, 1),
		TargetDate:   core.NewDate(2025, 4, 11),
	}
	withAmount := func(units int64) core.Goal {
		g := base
		g.CurrentAmount = cents(units)
		return g
	}

	tests := []struct {
		name  string
		goal  core.Goal
		today core.Date
		want  bool
	}{
		{"completed always on track", func() core.Goal { g := base; g.IsCompleted = true; return g }(), core.NewDate(2030, 1, 1), true},
		{"zero length window", func() core.Goal { g := base; g.TargetDate = g.StartDate; return g }(), core.NewDate(2025, 1, 1), false},
		{"not started", base, core.NewDate(2024, 12, 1), true},
		{"start day with nothing saved", base, core.NewDate(2025, 1, 1), true},
		{"ahead of pace", withAmount(300), core.NewDate(2025, 1, 21), true},   // 20% time, 30% saved
		{"exactly on pace", withAmount(200), core.NewDate(2025, 1, 21), true}, // 20% / 20%
		{"behind pace", withAmount(100), core.NewDate(2025, 1, 21), false},
		{"overdue incomplete", withAmount(999), core.NewDate(2025, 5, 1), false},
		{"overdue full", withAmount(1000), core.NewDate(2025, 5, 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOnTrack(tt.goal, tt.today))
		})
	}
}

func TestApplyProgressUpdate_Example(t *testing.T) {
	g := testGoal(1000, 0)

	g, u, err := ApplyProgressUpdate(g, cents(300))
	require.NoError(t, err)
	assert.Equal(t, 30.0, u.NewPercentage)
	assert.Equal(t, 25, u.Reached)
	assert.Zero(t, u.Lost)
	assert.Equal(t, 1, g.MilestonesReached)

	g, u, err = ApplyProgressUpdate(g, cents(100))
	require.NoError(t, err)
	assert.Equal(t, 10.0, u.NewPercentage)
	assert.Equal(t, 25, u.Lost)
	assert.Zero(t, u.Reached)
	assert.Equal(t, 0, g.MilestonesReached)
	assert.False(t, g.IsCompleted)
}

func TestApplyProgressUpdate_RejectsNegative(t *testing.T) {
	g := testGoal(1000, 400)
	got, _, err := ApplyProgressUpdate(g, core.Money{Cents: -1})
	require.Error(t, err)

	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "current_amount", ve.Field)
	assert.Equal(t, core.Goal{}, got)
	assert.Equal(t, cents(400), g.CurrentAmount, "input goal must be untouched")
}

func TestApplyProgressUpdate_ClampsToTarget(t *testing.T) {
	g, u, err := ApplyProgressUpdate(testGoal(1000, 0), cents(5000))
	require.NoError(t, err)
	assert.Equal(t, cents(1000), g.CurrentAmount)
	assert.Equal(t, 100.0, u.NewPercentage)
	assert.True(t, g.IsCompleted)
	assert.Equal(t, 4, g.MilestonesReached)
	assert.Equal(t, 100, u.Reached, "highest crossed threshold is reported")
}

func TestApplyProgressUpdate_Idempotent(t *testing.T) {
	g, first, err := ApplyProgressUpdate(testGoal(1000, 0), cents(600))
	require.NoError(t, err)
	require.Equal(t, 50, first.Reached)

	again, second, err := ApplyProgressUpdate(g, cents(600))
	require.NoError(t, err)
	assert.False(t, second.Changed())
	assert.Equal(t, g, again)
}

func TestApplyProgressUpdate_MonotonicIncrease(t *testing.T) {
	g := testGoal(1000, 0)
	var events []int
	for _, amount := range []int64{100, 250, 400, 500, 700, 750, 900, 1000} {
		var u Update
		var err error
		g, u, err = ApplyProgressUpdate(g, cents(amount))
		require.NoError(t, err)
		assert.Zero(t, u.Lost)
		if u.Reached != 0 {
			events = append(events, u.Reached)
		}
	}
	assert.Equal(t, []int{25, 50, 75, 100}, events)
	assert.Equal(t, 4, g.MilestonesReached)
	assert.True(t, g.IsCompleted)
}

func TestApplyProgressUpdate_MultiThresholdJump(t *testing.T) {
	g, u, err := ApplyProgressUpdate(testGoal(1000, 100), cents(800))
	require.NoError(t, err)
	assert.Equal(t, 75, u.Reached)
	assert.Equal(t, 3, g.MilestonesReached)
}

func TestApplyProgressUpdate_Regression(t *testing.T) {
	tests := []struct {
		name          string
		from, to      int64
		wantLost      int
		wantMilestone int
	}{
		{"full to 80", 1000, 800, 100, 3},
		{"full to 60", 1000, 600, 75, 2},
		{"80 to 40", 800, 400, 50, 1},
		{"80 to 10", 800, 100, 25, 0},
		{"within band", 400, 300, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _, err := ApplyProgressUpdate(testGoal(1000, 0), cents(tt.from))
			require.NoError(t, err)

			g, u, err := ApplyProgressUpdate(g, cents(tt.to))
			require.NoError(t, err)
			assert.Equal(t, tt.wantLost, u.Lost)
			assert.Zero(t, u.Reached)
			assert.Equal(t, tt.wantMilestone, g.MilestonesReached)
			assert.Equal(t, MilestoneCount(u.NewPercentage), g.MilestonesReached)
			assert.False(t, g.IsCompleted)
		})
	}
}

func TestApplyProgressUpdate_ZeroTarget(t *testing.T) {
	g := core.Goal{StartDate: core.NewDate(2025, 1, 1), TargetDate: core.NewDate(2025, 2, 1)}
	got, u, err := ApplyProgressUpdate(g, cents(50))
	require.NoError(t, err)
	assert.Equal(t, core.Money{}, got.CurrentAmount, "clamped to the zero target")
	assert.Zero(t, u.NewPercentage)
	assert.False(t, u.Changed())
	assert.False(t, got.IsCompleted)
}

func TestNewGoal(t *testing.T) {
	today := core.NewDate(2025, 3, 1)
	g, err := NewGoal(Params{
		Title:         "Car",
		Type:          core.GoalPurchase,
		TargetAmount:  cents(2000),
		CurrentAmount: cents(1100),
		TargetDate:    core.NewDate(2026, 3, 1),
	}, today)
	require.NoError(t, err)
	assert.Equal(t, today, g.StartDate)
	assert.Equal(t, 3, g.Priority)
	assert.Equal(t, 2, g.MilestonesReached)
	assert.False(t, g.IsCompleted)

	_, err = NewGoal(Params{Title: "Car", Type: core.GoalPurchase, TargetDate: core.NewDate(2026, 3, 1)}, today)
	assert.True(t, core.IsValidation(err))
}

func TestSummarize(t *testing.T) {
	s := Summarize(testGoal(1000, 500), core.NewDate(2025, 12, 21))
	assert.Equal(t, 50.0, s.Percentage)
	assert.Equal(t, 10, s.DaysRemaining)
	assert.False(t, s.OnTrack)
}

func TestApplyEdit_RaisingTargetDropsProgress(t *testing.T) {
	g, _, err := ApplyProgressUpdate(testGoal(1000, 0), cents(800))
	require.NoError(t, err)
	require.Equal(t, 3, g.MilestonesReached)

	target := cents(2000)
	title := "Bigger holiday"
	next, u, err := ApplyEdit(g, Edit{TargetAmount: &target, Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "Bigger holiday", next.Title)
	assert.Equal(t, 40.0, u.NewPercentage)
	assert.Equal(t, 1, next.MilestonesReached)
	assert.Equal(t, 50, u.Lost, "upper threshold of the band progress fell into")
	assert.Zero(t, u.Reached)
	assert.False(t, next.IsCompleted)
	assert.Equal(t, 3, g.MilestonesReached, "input goal untouched")
}

func TestApplyEdit_LoweringTargetCompletes(t *testing.T) {
	g, _, err := ApplyProgressUpdate(testGoal(1000, 0), cents(600))
	require.NoError(t, err)

	target := cents(500)
	next, u, err := ApplyEdit(g, Edit{TargetAmount: &target})
	require.NoError(t, err)

	assert.Equal(t, cents(500), next.CurrentAmount, "clamped to the new target")
	assert.True(t, next.IsCompleted)
	assert.Equal(t, 4, next.MilestonesReached)
	assert.Equal(t, 100, u.Reached)
}

func TestApplyEdit_MetadataOnly(t *testing.T) {
	g, _, err := ApplyProgressUpdate(testGoal(1000, 0), cents(300))
	require.NoError(t, err)

	priority := 1
	next, u, err := ApplyEdit(g, Edit{Priority: &priority})
	require.NoError(t, err)
	assert.Equal(t, 1, next.Priority)
	assert.False(t, u.Changed())
	assert.Equal(t, g.MilestonesReached, next.MilestonesReached)
}

func TestApplyEdit_Invalid(t *testing.T) {
	g := testGoal(1000, 0)

	zero := core.Money{}
	_, _, err := ApplyEdit(g, Edit{TargetAmount: &zero})
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "target_amount", ve.Field)

	early := core.NewDate(2024, 12, 1)
	_, _, err = ApplyEdit(g, Edit{TargetDate: &early})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "target_date", ve.Field)

	priority := 9
	_, _, err = ApplyEdit(g, Edit{Priority: &priority})
	assert.True(t, core.IsValidation(err))
}
