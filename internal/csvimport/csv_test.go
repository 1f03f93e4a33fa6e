package csvimport

import (
	"strings"
	"testing"

	"fintrack/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := `Date,Category,Amount,Description
2025-01-05,Food,12.50,Lunch
2025-01-06, Transit ,"1,5",Bus

2025-01-07,Food,0.005,Rounded up
`
	res, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Expenses, 3)

	assert.Equal(t, core.Expense{
		Date:        core.NewDate(2025, 1, 5),
		Category:    "Food",
		Amount:      core.Money{Cents: 1250},
		Description: "Lunch",
	}, res.Expenses[0])
	assert.Equal(t, "Transit", res.Expenses[1].Category)
	assert.Equal(t, int64(150), res.Expenses[1].Amount.Cents)
	assert.Equal(t, int64(1), res.Expenses[2].Amount.Cents)
}

func TestParse_HeaderOrderAndCase(t *testing.T) {
	input := "\ufeffAMOUNT,date,Category\n3.00,2025-02-01,Books\n"
	res, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Expenses, 1)
	assert.Equal(t, "Books", res.Expenses[0].Category)
	assert.Empty(t, res.Expenses[0].Description)
}

func TestParse_RowErrors(t *testing.T) {
	input := `Date,Category,Amount
2025-13-01,Food,1
2025-01-01,,1
2025-01-01,Food,-3
2025-01-01,Food,0
2025-01-01,Food,abc
2025-01-02,Food,4
`
	res, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Expenses, 1)
	require.Len(t, res.Errors, 5)

	wantFields := []string{"date", "category", "amount", "amount", "amount"}
	for i, rowErr := range res.Errors {
		assert.Equal(t, i+2, rowErr.Row)
		var ve *core.ValidationError
		require.ErrorAs(t, rowErr, &ve)
		assert.Equal(t, wantFields[i], ve.Field)
	}
	assert.ErrorIs(t, res.Errors[2], core.ErrNegativeAmount)
	assert.Contains(t, res.Errors[0].Error(), "row 2")
}

func TestParse_MissingColumns(t *testing.T) {
	_, err := Parse(strings.NewReader("Date,Description\n2025-01-01,x\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "category, amount")
}

func TestParse_Empty(t *testing.T) {
	res, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, res.Expenses)
}
