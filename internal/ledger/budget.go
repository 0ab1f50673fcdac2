package ledger

import (
	"sort"

	"fintrack/internal/core"
)

const (
	StatusGood     BudgetStatus = "good"
	StatusWarning  BudgetStatus = "warning"
	StatusExceeded BudgetStatus = "exceeded"
)

// Percentage thresholds for the warning and exceeded states.
const (
	WarningThreshold  = 80.0
	ExceededThreshold = 100.0
)

type BudgetStatus string

// BudgetReport is the evaluated state of one budgeted category.
type BudgetReport struct {
	Category   string       `json:"category"`
	Budget     core.Money   `json:"budget"`
	Spent      core.Money   `json:"spent"`
	Remaining  core.Money   `json:"remaining"`
	Percentage float64      `json:"percentage"`
	Status     BudgetStatus `json:"status"`
}

// StatusFor maps a spend percentage to a status.
func StatusFor(percentage float64) BudgetStatus {
	switch {
	case percentage >= ExceededThreshold:
		return StatusExceeded
	case percentage >= WarningThreshold:
		return StatusWarning
	default:
		return StatusGood
	}
}

// EvaluateBudgets returns one report per budgeted category, sorted by
// category name. Categories with spend but no budget are left out.
func EvaluateBudgets(budgets core.Budgets, expenses CategoryTotals) []BudgetReport {
	names := make([]string, 0, len(budgets))
	for name := range budgets {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]BudgetReport, 0, len(names))
	for _, name := range names {
		budget := budgets[name]
		spent, _ := expenses.Get(name)
		var pct float64
		if budget.Cents > 0 {
			pct = float64(spent.Cents) * 100 / float64(budget.Cents)
		}
		out = append(out, BudgetReport{
			Category:   name,
			Budget:     budget,
			Spent:      spent,
			Remaining:  budget.Sub(spent),
			Percentage: pct,
			Status:     StatusFor(pct),
		})
	}
	return out
}
