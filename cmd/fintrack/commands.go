package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"fintrack/internal/aggregate"
	"fintrack/internal/charts"
	"fintrack/internal/core"
	"fintrack/internal/csvimport"
	"fintrack/internal/goals"
	"fintrack/internal/log"
	"fintrack/internal/services"
	gsheet "fintrack/internal/sheets/google"
)

func runImport(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("import")
	file := fs.String("file", "", "CSV file with date,category,amount[,description] columns")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return core.Invalid("file", errors.New("required"))
	}

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("open %s: %w", *file, err)
	}
	defer f.Close()

	result, err := csvimport.Parse(f)
	if err != nil {
		return err
	}
	importLog := a.logger.WithComponent(log.ComponentImport)
	skipped := make([]string, 0, len(result.Errors))
	for _, rowErr := range result.Errors {
		importLog.Warn("Row skipped", log.FieldPath, *file, log.FieldError, rowErr)
		skipped = append(skipped, rowErr.Error())
	}

	saved, err := a.expenses.ImportExpenses(ctx, a.userID, result.Expenses)
	if err != nil {
		return err
	}
	importLog.Info("Import finished",
		log.FieldPath, *file,
		log.FieldRows, len(saved),
		log.FieldOperation, log.OpImport)
	return a.print(struct {
		Imported int      `json:"imported"`
		Skipped  []string `json:"skipped"`
	}{len(saved), skipped})
}

func runAddExpense(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("add-expense")
	date := fs.String("date", "", "expense date, YYYY-MM-DD (default today)")
	amount := fs.String("amount", "", "amount, e.g. 12.50")
	category := fs.String("category", "", "category name")
	description := fs.String("description", "", "free text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := today(*date)
	if err != nil {
		return err
	}
	m, err := core.ParseAmount("amount", *amount)
	if err != nil {
		return err
	}
	e := core.Expense{Date: d, Amount: m, Category: *category, Description: *description}
	if err := e.Validate(); err != nil {
		return err
	}

	saved, err := a.expenses.AddExpense(ctx, a.userID, e)
	if err != nil {
		return err
	}
	return a.print(saved)
}

func runExpenses(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("expenses")
	year := fs.Int("year", 0, "only this year")
	month := fs.Int("month", 0, "only this month, 1-12 (needs -year)")
	category := fs.String("category", "", "only this category")
	limit := fs.Int("limit", 0, "at most this many, 0 for all")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := a.expenses.ListExpenses(ctx, a.userID, services.ExpenseQuery{
		Year:     *year,
		Month:    *month,
		Category: *category,
		Limit:    *limit,
	})
	if err != nil {
		return err
	}
	return a.print(list)
}

func runDeleteExpense(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("delete-expense")
	id := fs.String("id", "", "expense ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return core.Invalid("id", errors.New("required"))
	}
	if err := a.expenses.DeleteExpense(ctx, a.userID, *id); err != nil {
		return err
	}
	return a.print(map[string]string{"deleted": *id})
}

func runAddGoal(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("add-goal")
	title := fs.String("title", "", "goal title")
	description := fs.String("description", "", "free text")
	goalType := fs.String("type", string(core.GoalSavings), "savings, debt_reduction, investment, emergency_fund or purchase")
	target := fs.String("target", "", "target amount")
	current := fs.String("current", "", "amount already saved")
	start := fs.String("start", "", "start date, YYYY-MM-DD (default today)")
	targetDate := fs.String("target-date", "", "target date, YYYY-MM-DD")
	priority := fs.Int("priority", 0, "1 (highest) to 5 (lowest), default 3")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p := goals.Params{
		Title:       *title,
		Description: *description,
		Type:        core.GoalType(*goalType),
		Priority:    *priority,
	}
	var err error
	if p.TargetAmount, err = core.ParseAmount("target_amount", *target); err != nil {
		return err
	}
	if p.CurrentAmount, err = optionalAmount("current_amount", *current); err != nil {
		return err
	}
	if *start != "" {
		if p.StartDate, err = core.ParseDate("start_date", *start); err != nil {
			return err
		}
	}
	if p.TargetDate, err = core.ParseDate("target_date", *targetDate); err != nil {
		return err
	}

	g, err := a.goals.CreateGoal(ctx, a.userID, p)
	if err != nil {
		return err
	}
	return a.print(g)
}

func runProgress(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("progress")
	goalID := fs.String("goal", "", "goal ID")
	amount := fs.String("amount", "", "new current amount")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *goalID == "" {
		return core.Invalid("goal", errors.New("required"))
	}
	m, err := core.ParseAmount("current_amount", *amount)
	if err != nil {
		return err
	}

	result, err := a.goals.UpdateProgress(ctx, a.userID, *goalID, m)
	if err != nil {
		return err
	}
	return a.print(result)
}

func runEditGoal(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("edit-goal")
	goalID := fs.String("goal", "", "goal ID")
	title := fs.String("title", "", "new title")
	description := fs.String("description", "", "new description")
	goalType := fs.String("type", "", "new goal type")
	target := fs.String("target", "", "new target amount")
	targetDate := fs.String("target-date", "", "new target date, YYYY-MM-DD")
	priority := fs.Int("priority", 0, "new priority, 1-5")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *goalID == "" {
		return core.Invalid("goal", errors.New("required"))
	}

	// Only flags given on the command line change the goal.
	var (
		e   goals.Edit
		err error
	)
	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "title":
			e.Title = title
		case "description":
			e.Description = description
		case "type":
			t := core.GoalType(*goalType)
			e.Type = &t
		case "target":
			var m core.Money
			if m, err = core.ParseAmount("target_amount", *target); err == nil {
				e.TargetAmount = &m
			}
		case "target-date":
			var d core.Date
			if d, err = core.ParseDate("target_date", *targetDate); err == nil {
				e.TargetDate = &d
			}
		case "priority":
			e.Priority = priority
		}
	})
	if err != nil {
		return err
	}

	result, err := a.goals.UpdateGoal(ctx, a.userID, *goalID, e)
	if err != nil {
		return err
	}
	return a.print(result)
}

func runGoals(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("goals")
	if err := fs.Parse(args); err != nil {
		return err
	}
	views, err := a.goals.ListGoals(ctx, a.userID)
	if err != nil {
		return err
	}
	return a.print(views)
}

func runDeleteGoal(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("delete-goal")
	goalID := fs.String("goal", "", "goal ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *goalID == "" {
		return core.Invalid("goal", errors.New("required"))
	}
	if err := a.goals.DeleteGoal(ctx, a.userID, *goalID); err != nil {
		return err
	}
	return a.print(map[string]string{"deleted": *goalID})
}

// windowFlags registers the -range and -today flags shared by the window
// based commands.
func windowFlags(name string) (*flag.FlagSet, func() (aggregate.Window, core.Date, error)) {
	set := newFlagSet(name)
	rng := set.String("range", string(aggregate.Week), "week, month, year or last_6_months")
	day := set.String("today", "", "reference day, YYYY-MM-DD (default today)")
	return set, func() (aggregate.Window, core.Date, error) {
		w, err := aggregate.ParseWindow(*rng)
		if err != nil {
			return "", core.Date{}, err
		}
		d, err := today(*day)
		return w, d, err
	}
}

func runTrend(ctx context.Context, a *app, args []string) error {
	fs, resolve := windowFlags("trend")
	if err := fs.Parse(args); err != nil {
		return err
	}
	w, d, err := resolve()
	if err != nil {
		return err
	}
	trend, err := a.dashboard.Trend(ctx, a.userID, w, d)
	if err != nil {
		return err
	}
	return a.print(trend)
}

func runDistribution(ctx context.Context, a *app, args []string) error {
	fs, resolve := windowFlags("distribution")
	if err := fs.Parse(args); err != nil {
		return err
	}
	w, d, err := resolve()
	if err != nil {
		return err
	}
	breakdown, err := a.dashboard.Distribution(ctx, a.userID, w, d)
	if err != nil {
		return err
	}
	return a.print(breakdown)
}

func runMonth(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("month")
	now, _ := today("")
	year := fs.Int("year", now.Year(), "year")
	month := fs.Int("month", now.Month(), "month, 1-12")
	if err := fs.Parse(args); err != nil {
		return err
	}
	overview, err := a.dashboard.MonthOverview(ctx, a.userID, *year, *month)
	if err != nil {
		return err
	}
	return a.print(overview)
}

func runYearly(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("yearly")
	year := fs.Int("year", currentYear(), "year")
	income := fs.String("income", "", "monthly income used to derive savings")
	if err := fs.Parse(args); err != nil {
		return err
	}
	m, err := optionalAmount("income", *income)
	if err != nil {
		return err
	}
	summary, err := a.dashboard.YearlySummary(ctx, a.userID, *year, m)
	if err != nil {
		return err
	}
	return a.print(summary)
}

func runOverview(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("overview")
	day := fs.String("today", "", "reference day, YYYY-MM-DD (default today)")
	income := fs.String("income", "", "monthly income used to derive savings")
	if err := fs.Parse(args); err != nil {
		return err
	}
	d, err := today(*day)
	if err != nil {
		return err
	}
	m, err := optionalAmount("income", *income)
	if err != nil {
		return err
	}
	dashboard, err := a.dashboard.Overview(ctx, a.userID, d, m)
	if err != nil {
		return err
	}
	return a.print(dashboard)
}

func runChart(ctx context.Context, a *app, args []string) error {
	set := newFlagSet("chart")
	kind := set.String("kind", "trend", "trend, distribution or goals")
	rng := set.String("range", string(aggregate.Week), "week, month, year or last_6_months")
	day := set.String("today", "", "reference day, YYYY-MM-DD (default today)")
	out := set.String("out", "", "output file (default <chart dir>/<kind>-<range>-<day>.png)")
	if err := set.Parse(args); err != nil {
		return err
	}
	w, err := aggregate.ParseWindow(*rng)
	if err != nil {
		return err
	}
	d, err := today(*day)
	if err != nil {
		return err
	}

	var (
		png      []byte
		chartErr error
	)
	switch *kind {
	case "trend":
		trend, err := a.dashboard.Trend(ctx, a.userID, w, d)
		if err != nil {
			return err
		}
		png, chartErr = a.charts.Trend(trend, fmt.Sprintf("Spending, %s", w))
	case "distribution":
		breakdown, err := a.dashboard.Distribution(ctx, a.userID, w, d)
		if err != nil {
			return err
		}
		png, chartErr = a.charts.Distribution(breakdown, fmt.Sprintf("Categories, %s", w))
	case "goals":
		views, err := a.goals.ListGoals(ctx, a.userID)
		if err != nil {
			return err
		}
		list := make([]core.Goal, len(views))
		for i, v := range views {
			list[i] = v.Goal
		}
		png, chartErr = a.charts.Goals(list, "Goal progress")
	default:
		return core.Invalid("kind", fmt.Errorf("unknown chart %q", *kind))
	}

	if errors.Is(chartErr, charts.ErrNoData) {
		return fmt.Errorf("nothing to chart for %s: %w", w, chartErr)
	}
	if chartErr != nil {
		return chartErr
	}

	path := *out
	if path == "" {
		path = filepath.Join(a.cfg.ChartDir, fmt.Sprintf("%s-%s-%s.png", *kind, w, d))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chart directory: %w", err)
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	a.logger.WithComponent(log.ComponentCharts).Info("Chart written",
		log.FieldPath, path, log.FieldOperation, log.OpRender)
	return a.print(map[string]string{"path": path})
}

func runExportSheet(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("export-sheet")
	year := fs.Int("year", currentYear(), "year")
	income := fs.String("income", "", "monthly income used to derive savings")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !a.cfg.SheetsEnabled() {
		return errors.New("google sheets export needs FINTRACK_SPREADSHEET_ID and FINTRACK_SERVICE_ACCOUNT_FILE")
	}
	m, err := optionalAmount("income", *income)
	if err != nil {
		return err
	}

	summary, err := a.dashboard.YearlySummary(ctx, a.userID, *year, m)
	if err != nil {
		return err
	}
	client, err := gsheet.New(ctx, a.cfg.SpreadsheetID, a.cfg.ServiceAccountFile, a.logger)
	if err != nil {
		return err
	}
	sheet, err := client.WriteYearlySummary(ctx, summary)
	if err != nil {
		return err
	}
	return a.print(map[string]string{"sheet": sheet})
}
