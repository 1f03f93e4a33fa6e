// Package sheets exports summaries to spreadsheets.
package sheets

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// SummaryWriter publishes a yearly summary and returns the sheet it wrote.
type SummaryWriter interface {
	WriteYearlySummary(ctx context.Context, s core.YearlySummary) (sheetName string, err error)
}

// SheetName is the tab a yearly summary is written to.
func SheetName(year int) string {
	return fmt.Sprintf("%d Summary", year)
}

// SummaryRows lays s out as a header, one row per month and a total row.
// Amounts are currency units so the spreadsheet can format them.
func SummaryRows(s core.YearlySummary) [][]interface{} {
	rows := make([][]interface{}, 0, 14)
	rows = append(rows, []interface{}{"Month", "Expenses", "Savings"})

	var spent, saved core.Money
	for i := 0; i < 12; i++ {
		rows = append(rows, []interface{}{
			time.Month(i + 1).String(),
			s.Expenses[i].Units(),
			s.Savings[i].Units(),
		})
		spent = spent.Add(s.Expenses[i])
		saved = saved.Add(s.Savings[i])
	}
	rows = append(rows, []interface{}{"Total", spent.Units(), saved.Units()})
	return rows
}
