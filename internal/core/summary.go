package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// MonthOverview is the income/expense pair of one YYYY-MM month.
type MonthOverview struct {
	Month    string `json:"month"`
	Income   Money  `json:"income"`
	Expenses Money  `json:"expenses"`
	Balance  Money  `json:"balance"`
}
