package app

import (
	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// View is everything a presentation layer needs to render one screen. It is
// rebuilt from scratch on every call.
type View struct {
	Filter       ledger.Filter      `json:"filter"`
	Transactions []core.Transaction `json:"transactions"`
	Count        int                `json:"count"`
	TotalCount   int                `json:"totalCount"`
	EmptyMessage string             `json:"emptyMessage,omitempty"`
	DarkMode     bool               `json:"darkMode"`

	Totals             ledger.Totals               `json:"totals"`
	ExpensesByCategory ledger.CategoryTotals       `json:"expensesByCategory"`
	IncomeByCategory   ledger.CategoryTotals       `json:"incomeByCategory"`
	ExpenseShares      []ledger.CategoryShare      `json:"expenseShares"`
	IncomeShares       []ledger.CategoryShare      `json:"incomeShares"`
	Comparison         []ledger.CategoryComparison `json:"comparison"`
	Split              ledger.IncomeExpenseSplit   `json:"split"`
	MonthlyTrend       []core.MonthOverview        `json:"monthlyTrend"`
	Budgets            []ledger.BudgetReport       `json:"budgets"`
	Insights           ledger.Insights             `json:"insights"`
}

// BuildView filters s.Transactions with s.Filter and derives every aggregate.
// Totals, breakdowns and budgets follow the filter. Monthly trend and most of
// the insights cover the whole history.
func BuildView(s State) View {
	filtered := ledger.Apply(s.Transactions, s.Filter)
	totals := ledger.ComputeTotals(filtered)
	expenses := ledger.ByCategory(filtered, core.Expense)
	income := ledger.ByCategory(filtered, core.Income)

	v := View{
		Filter:             s.Filter,
		Transactions:       filtered,
		Count:              len(filtered),
		TotalCount:         len(s.Transactions),
		DarkMode:           s.DarkMode,
		Totals:             totals,
		ExpensesByCategory: expenses,
		IncomeByCategory:   income,
		ExpenseShares:      ledger.Shares(expenses, totals.Expenses),
		IncomeShares:       ledger.Shares(income, totals.Income),
		Comparison:         ledger.Compare(income, expenses),
		Split:              ledger.Split(totals),
		MonthlyTrend:       ledger.ByMonth(s.Transactions).Trend(),
		Budgets:            ledger.EvaluateBudgets(s.Budgets, expenses),
		Insights:           ledger.ComputeInsights(s.Transactions, expenses),
	}
	if len(filtered) == 0 {
		v.EmptyMessage = s.Filter.EmptyMessage()
	}
	return v
}
