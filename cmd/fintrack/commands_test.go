package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		DBPath:    filepath.Join(dir, "fintrack.db"),
		CacheSize: 32,
		CacheTTL:  time.Minute,
		ChartDir:  filepath.Join(dir, "charts"),
		Currency:  "USD",
	}
	out := &bytes.Buffer{}
	a := newApp(cfg, log.Discard(), "alice", out)
	t.Cleanup(a.close)
	return a, out
}

func run(t *testing.T, a *app, out *bytes.Buffer, fn func(context.Context, *app, []string) error, args ...string) map[string]any {
	t.Helper()
	out.Reset()
	require.NoError(t, fn(context.Background(), a, args))
	var v map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &v))
	return v
}

func TestAddExpenseAndTrend(t *testing.T) {
	a, out := testApp(t)

	run(t, a, out, runAddExpense, "-date", "2025-10-17", "-amount", "12.50", "-category", "Food")
	trend := run(t, a, out, runTrend, "-range", "week", "-today", "2025-10-18")

	points := trend["points"].([]any)
	require.Len(t, points, 7)
	assert.Equal(t, 12.5, points[5].(map[string]any)["amount"])
}

func TestAddExpense_Invalid(t *testing.T) {
	a, _ := testApp(t)
	err := runAddExpense(context.Background(), a, []string{"-amount", "abc", "-category", "Food"})
	assert.True(t, core.IsValidation(err))
}

func TestGoalProgress(t *testing.T) {
	a, out := testApp(t)

	g := run(t, a, out, runAddGoal,
		"-title", "Laptop", "-target", "1000", "-start", "2025-01-01", "-target-date", "2025-12-31")
	id := g["id"].(string)

	result := run(t, a, out, runProgress, "-goal", id, "-amount", "600")
	update := result["update"].(map[string]any)
	assert.Equal(t, 50.0, update["reached"])
	assert.Equal(t, 60.0, update["new_percentage"])

	out.Reset()
	require.NoError(t, runGoals(context.Background(), a, nil))
	var views []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, 2.0, views[0]["goal"].(map[string]any)["milestones_reached"])
}

func TestImport(t *testing.T) {
	a, out := testApp(t)
	file := filepath.Join(t.TempDir(), "expenses.csv")
	csv := "Date,Category,Amount,Description\n" +
		"2025-03-01,Food,10.00,lunch\n" +
		"2025-03-02,Rent,abc,bad\n" +
		"2025-03-03,Transit,2.50,\n"
	require.NoError(t, os.WriteFile(file, []byte(csv), 0o644))

	result := run(t, a, out, runImport, "-file", file)
	assert.Equal(t, 2.0, result["imported"])
	assert.Len(t, result["skipped"], 1)

	month := run(t, a, out, runMonth, "-year", "2025", "-month", "3")
	assert.Equal(t, 12.5, month["total"])
}

func TestChart(t *testing.T) {
	a, out := testApp(t)
	run(t, a, out, runAddExpense, "-date", "2025-10-17", "-amount", "5", "-category", "Food")

	res := run(t, a, out, runChart, "-kind", "distribution", "-range", "month", "-today", "2025-10-18")
	path := res["path"].(string)
	assert.Equal(t, filepath.Join(a.cfg.ChartDir, "distribution-month-2025-10-18.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestChart_NoData(t *testing.T) {
	a, _ := testApp(t)
	err := runChart(context.Background(), a, []string{"-kind", "goals"})
	assert.ErrorContains(t, err, "nothing to chart")
}

func TestExportSheet_Disabled(t *testing.T) {
	a, _ := testApp(t)
	err := runExportSheet(context.Background(), a, nil)
	assert.ErrorContains(t, err, "FINTRACK_SPREADSHEET_ID")
}

func runList(t *testing.T, a *app, out *bytes.Buffer, fn func(context.Context, *app, []string) error, args ...string) []map[string]any {
	t.Helper()
	out.Reset()
	require.NoError(t, fn(context.Background(), a, args))
	var v []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &v))
	return v
}

func TestExpensesListAndDelete(t *testing.T) {
	a, out := testApp(t)
	first := run(t, a, out, runAddExpense, "-date", "2025-03-01", "-amount", "10", "-category", "Food")
	run(t, a, out, runAddExpense, "-date", "2025-03-05", "-amount", "900", "-category", "Rent")
	run(t, a, out, runAddExpense, "-date", "2025-04-02", "-amount", "4", "-category", "Food")

	list := runList(t, a, out, runExpenses, "-year", "2025", "-month", "3")
	require.Len(t, list, 2)
	assert.Equal(t, "2025-03-05", list[0]["date"])

	list = runList(t, a, out, runExpenses, "-category", "Food", "-limit", "1")
	require.Len(t, list, 1)
	assert.Equal(t, "2025-04-02", list[0]["date"])

	month := run(t, a, out, runMonth, "-year", "2025", "-month", "3")
	assert.Equal(t, 910.0, month["total"])

	run(t, a, out, runDeleteExpense, "-id", first["id"].(string))
	month = run(t, a, out, runMonth, "-year", "2025", "-month", "3")
	assert.Equal(t, 900.0, month["total"], "cached month view refreshed after delete")

	err := runExpenses(context.Background(), a, []string{"-month", "3"})
	assert.True(t, core.IsValidation(err))
}

func TestEditGoal(t *testing.T) {
	a, out := testApp(t)
	g := run(t, a, out, runAddGoal,
		"-title", "Laptop", "-target", "1000", "-start", "2025-01-01", "-target-date", "2025-12-31")
	id := g["id"].(string)
	run(t, a, out, runProgress, "-goal", id, "-amount", "800")

	result := run(t, a, out, runEditGoal, "-goal", id, "-target", "2000", "-description", "")
	goal := result["goal"].(map[string]any)
	update := result["update"].(map[string]any)
	assert.Equal(t, 2000.0, goal["target_amount"])
	assert.Equal(t, "Laptop", goal["title"], "unset flags leave fields alone")
	assert.Equal(t, 1.0, goal["milestones_reached"])
	assert.Equal(t, 50.0, update["lost"])

	err := runEditGoal(context.Background(), a, []string{"-goal", id, "-target-date", "nope"})
	assert.True(t, core.IsValidation(err))
}
