// Package csvimport reads expense records from CSV exports.
//
// The header row names the columns; Date, Category and Amount are required
// and Description is optional. Column order and header case do not matter.
// Rows that fail validation are reported and skipped; the rest are returned.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"fintrack/internal/core"
)

const (
	colDate        = "date"
	colCategory    = "category"
	colAmount      = "amount"
	colDescription = "description"
)

var requiredColumns = []string{colDate, colCategory, colAmount}

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// RowError describes one rejected data row. Row is 1-based and counts the
// header, so it matches what a spreadsheet shows.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Result holds the parsed expenses and the rows that were skipped.
type Result struct {
	Expenses []core.Expense
	Errors   []RowError
}

// Parse reads every row of r. It fails only when the input is not CSV or
// the header is unusable; bad data rows end up in Result.Errors.
func Parse(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("read header: %w", err)
	}
	index, err := parseHeader(header)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.Errors = append(res.Errors, RowError{Row: row, Err: perr.Err})
				continue
			}
			return Result{}, fmt.Errorf("read row %d: %w", row, err)
		}
		if isBlank(record) {
			continue
		}

		e, err := toExpense(index, record)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: row, Err: err})
			continue
		}
		res.Expenses = append(res.Expenses, e)
	}
	return res, nil
}

func parseHeader(row []string) (map[string]int, error) {
	index := make(map[string]int, len(row))
	for i, h := range row {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return index, nil
}

func toExpense(index map[string]int, record []string) (core.Expense, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	date, err := core.ParseDate(colDate, field(colDate))
	if err != nil {
		return core.Expense{}, err
	}
	amount, err := core.ParseAmount(colAmount, field(colAmount))
	if err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		Date:        date,
		Category:    field(colCategory),
		Amount:      amount,
		Description: field(colDescription),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
