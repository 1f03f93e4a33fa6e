// Command fintrack records expenses and goals and prints dashboard views
// as JSON.
//
// Usage:
//
//	fintrack [-user id] <command> [flags]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/charts"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"import":         {"import expenses from a CSV file", runImport},
	"add-expense":    {"record one expense", runAddExpense},
	"expenses":       {"list expenses, newest first", runExpenses},
	"delete-expense": {"delete an expense", runDeleteExpense},
	"add-goal":       {"create a goal", runAddGoal},
	"progress":       {"set the current amount of a goal", runProgress},
	"edit-goal":      {"change a goal's details or target", runEditGoal},
	"goals":          {"list goals with their status", runGoals},
	"delete-goal":    {"delete a goal", runDeleteGoal},
	"trend":          {"spending per bucket over a window", runTrend},
	"distribution":   {"spending per category over a window", runDistribution},
	"month":          {"overview of one month", runMonth},
	"yearly":         {"monthly expenses and savings of a year", runYearly},
	"overview":       {"full dashboard for today", runOverview},
	"chart":          {"render a chart as PNG", runChart},
	"export-sheet":   {"write the yearly summary to Google Sheets", runExportSheet},
}

// app holds the wired services a command runs against.
type app struct {
	cfg       *config.Config
	logger    *log.Logger
	userID    string
	out       io.Writer
	repo      *storage.SQLiteRepository
	janitor   *cache.Janitor
	broker    *amqp.Client
	dashboard *services.DashboardService
	expenses  *services.ExpenseService
	goals     *services.GoalService
	charts    *charts.Generator
}

func main() {
	userID := flag.String("user", "default", "user the command acts for")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}

	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	a := newApp(cfg, logger, *userID, os.Stdout)
	defer a.close()

	err := cmd.run(context.Background(), a, flag.Args()[1:])
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
		a.close()
		os.Exit(0)
	case core.IsValidation(err):
		fmt.Fprintln(os.Stderr, err)
		a.close()
		os.Exit(2)
	default:
		logger.Error("Command failed", "command", flag.Arg(0), log.FieldError, err)
		a.close()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: fintrack [-user id] <command> [flags]")
	fmt.Fprintln(os.Stderr, "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-15s %s\n", name, commands[name].summary)
	}
}

func newApp(cfg *config.Config, logger *log.Logger, userID string, out io.Writer) *app {
	repo := cli.InitSQLite(logger, cfg.DBPath)

	views := cache.NewLRUCache[any](cfg.CacheSize, cfg.CacheTTL)
	janitor := cache.NewJanitor(logger)
	janitor.Register(views)
	janitor.Start(cfg.CacheTTL)

	a := &app{
		cfg:     cfg,
		logger:  logger,
		userID:  userID,
		out:     out,
		repo:    repo,
		janitor: janitor,
		charts:  charts.NewGenerator(cfg.DisplayCurrency()),
	}

	var publisher services.MilestonePublisher
	if cfg.AMQPURL != "" {
		broker, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Milestone events disabled, broker unreachable", log.FieldError, err)
		} else {
			a.broker = broker
			publisher = broker
		}
	}

	a.dashboard = services.NewDashboardService(repo, repo, views, logger)
	a.expenses = services.NewExpenseService(repo, a.dashboard, logger)
	a.goals = services.NewGoalService(repo, publisher, logger)
	return a
}

// close releases resources; it is safe to call more than once.
func (a *app) close() {
	a.janitor.Stop()
	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			a.logger.Warn("Failed to close broker connection", log.FieldError, err)
		}
		a.broker = nil
	}
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.logger.Warn("Failed to close database", log.FieldError, err)
		}
		a.repo = nil
	}
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// today resolves an optional -today flag value.
func today(s string) (core.Date, error) {
	if s == "" {
		return services.Today(), nil
	}
	return core.ParseDate("today", s)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// optionalAmount parses s when set and returns zero otherwise.
func optionalAmount(field, s string) (core.Money, error) {
	if s == "" {
		return core.Money{}, nil
	}
	return core.ParseAmount(field, s)
}

func currentYear() int {
	return time.Now().UTC().Year()
}
