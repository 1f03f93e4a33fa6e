package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// SeriesPoint is one bucket of a time series. Date is the first day the
// bucket covers.
type SeriesPoint struct {
	Label  string `json:"label"`
	Date   Date   `json:"date"`
	Amount Money  `json:"amount"`
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int              `json:"year"`
	Month      int              `json:"month"` // 1-12
	Total      Money            `json:"total"`
	ByCategory []CategoryAmount `json:"by_category"`
}

// YearlySummary holds per-month spending and savings, index 0 = January.
type YearlySummary struct {
	Year     int       `json:"year"`
	Expenses [12]Money `json:"expenses"`
	Savings  [12]Money `json:"savings"`
}
