package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Totals is the income/expense summary of a transaction set.
type Totals struct {
	Income   core.Money `json:"income"`
	Expenses core.Money `json:"expenses"`
	Balance  core.Money `json:"balance"`
}

// CategoryTotals lists per-category sums in order of first appearance.
type CategoryTotals []core.CategoryAmount

// Get returns the sum recorded for name and whether name is present.
func (c CategoryTotals) Get(name string) (core.Money, bool) {
	for _, ca := range c {
		if ca.Name == name {
			return ca.Amount, true
		}
	}
	return core.Money{}, false
}

// MonthlyStats maps a YYYY-MM key to that month's figures.
type MonthlyStats map[string]core.MonthOverview

// Trend returns the months in ascending order.
func (m MonthlyStats) Trend() []core.MonthOverview {
	out := make([]core.MonthOverview, 0, len(m))
	for _, mo := range m {
		out = append(out, mo)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// TotalByType sums the amounts of the transactions of type t.
func TotalByType(txs []core.Transaction, t core.TxType) core.Money {
	var sum core.Money
	for _, tx := range txs {
		if tx.Type == t {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum
}

// ComputeTotals returns income, expenses and their difference.
func ComputeTotals(txs []core.Transaction) Totals {
	in := TotalByType(txs, core.Income)
	out := TotalByType(txs, core.Expense)
	return Totals{Income: in, Expenses: out, Balance: in.Sub(out)}
}

// ByCategory folds the transactions of type t into per-category sums.
// Categories outside the taxonomy are grouped under their literal name.
func ByCategory(txs []core.Transaction, t core.TxType) CategoryTotals {
	index := map[string]int{}
	var out CategoryTotals
	for _, tx := range txs {
		if tx.Type != t {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, core.CategoryAmount{Name: tx.Category})
		}
		out[i].Amount = out[i].Amount.Add(tx.Amount)
	}
	return out
}

// ByMonth accumulates income and expenses per YYYY-MM. Anything that is not
// income counts as an expense.
func ByMonth(txs []core.Transaction) MonthlyStats {
	stats := MonthlyStats{}
	for _, tx := range txs {
		key := core.MonthKey(tx.Date)
		mo := stats[key]
		mo.Month = key
		if tx.Type == core.Income {
			mo.Income = mo.Income.Add(tx.Amount)
		} else {
			mo.Expenses = mo.Expenses.Add(tx.Amount)
		}
		mo.Balance = mo.Income.Sub(mo.Expenses)
		stats[key] = mo
	}
	return stats
}

// Insights are summary statistics over the whole history. MostSpentCategory
// is the exception: it comes from the filtered expense breakdown.
type Insights struct {
	AvgMonthlyIncome   core.Money           `json:"avgMonthlyIncome"`
	AvgMonthlyExpenses core.Money           `json:"avgMonthlyExpenses"`
	LargestExpense     *core.Transaction    `json:"largestExpense"`
	LargestIncome      *core.Transaction    `json:"largestIncome"`
	MostSpentCategory  *core.CategoryAmount `json:"mostSpentCategory"`
	SavingsRate        float64              `json:"savingsRate"`
}

// ComputeInsights derives Insights from the full history and the filtered
// expense-by-category breakdown.
func ComputeInsights(all []core.Transaction, filteredExpenses CategoryTotals) Insights {
	months := ByMonth(all)
	var ins Insights
	if n := int64(len(months)); n > 0 {
		var inSum, outSum core.Money
		for _, mo := range months {
			inSum = inSum.Add(mo.Income)
			outSum = outSum.Add(mo.Expenses)
		}
		ins.AvgMonthlyIncome = average(inSum, n)
		ins.AvgMonthlyExpenses = average(outSum, n)
	}
	ins.LargestExpense = Largest(all, core.Expense)
	ins.LargestIncome = Largest(all, core.Income)
	ins.MostSpentCategory = MostSpent(filteredExpenses)
	ins.SavingsRate = SavingsRate(TotalByType(all, core.Income), TotalByType(all, core.Expense))
	return ins
}

func average(sum core.Money, n int64) core.Money {
	return core.FromDecimal(sum.Decimal().Div(decimal.NewFromInt(n)))
}

// Largest returns a copy of the first transaction of type t with the maximum
// amount, or nil when there is none.
func Largest(txs []core.Transaction, t core.TxType) *core.Transaction {
	var best *core.Transaction
	for i := range txs {
		if txs[i].Type != t {
			continue
		}
		if best == nil || txs[i].Amount.Cents > best.Amount.Cents {
			tx := txs[i]
			best = &tx
		}
	}
	return best
}

// MostSpent returns the first category with the maximum sum, or nil.
func MostSpent(c CategoryTotals) *core.CategoryAmount {
	var best *core.CategoryAmount
	for i := range c {
		if best == nil || c[i].Amount.Cents > best.Amount.Cents {
			ca := c[i]
			best = &ca
		}
	}
	return best
}

// SavingsRate is the share of income not spent, in percent. It is 0 when
// there is no income.
func SavingsRate(income, expenses core.Money) float64 {
	if income.Cents <= 0 {
		return 0
	}
	return float64(income.Cents-expenses.Cents) * 100 / float64(income.Cents)
}

// CategoryShare is one slice of a category distribution chart.
type CategoryShare struct {
	Name       string     `json:"name"`
	Amount     core.Money `json:"amount"`
	Percentage float64    `json:"percentage"`
	StartAngle float64    `json:"startAngle"`
	EndAngle   float64    `json:"endAngle"`
}

// Shares computes each category's percentage of total and its arc on a
// 360-degree chart. It returns nil when total is not positive.
func Shares(c CategoryTotals, total core.Money) []CategoryShare {
	if total.Cents <= 0 || len(c) == 0 {
		return nil
	}
	out := make([]CategoryShare, 0, len(c))
	var angle float64
	for _, ca := range c {
		pct := float64(ca.Amount.Cents) * 100 / float64(total.Cents)
		sweep := float64(ca.Amount.Cents) * 360 / float64(total.Cents)
		out = append(out, CategoryShare{
			Name:       ca.Name,
			Amount:     ca.Amount,
			Percentage: pct,
			StartAngle: angle,
			EndAngle:   angle + sweep,
		})
		angle += sweep
	}
	return out
}

// CategoryComparison puts a category's income and expense side by side.
// The width fields are relative to the larger of the two amounts.
type CategoryComparison struct {
	Category      string     `json:"category"`
	Income        core.Money `json:"income"`
	Expenses      core.Money `json:"expenses"`
	IncomeWidth   float64    `json:"incomeWidth"`
	ExpensesWidth float64    `json:"expensesWidth"`
}

// Compare merges the income and expense breakdowns, income categories first.
func Compare(income, expenses CategoryTotals) []CategoryComparison {
	var names []string
	seen := map[string]bool{}
	for _, c := range []CategoryTotals{income, expenses} {
		for _, ca := range c {
			if !seen[ca.Name] {
				seen[ca.Name] = true
				names = append(names, ca.Name)
			}
		}
	}
	out := make([]CategoryComparison, 0, len(names))
	for _, name := range names {
		in, _ := income.Get(name)
		ex, _ := expenses.Get(name)
		cmp := CategoryComparison{Category: name, Income: in, Expenses: ex}
		if peak := max(in.Cents, ex.Cents); peak > 0 {
			cmp.IncomeWidth = float64(in.Cents) * 100 / float64(peak)
			cmp.ExpensesWidth = float64(ex.Cents) * 100 / float64(peak)
		}
		out = append(out, cmp)
	}
	return out
}

// IncomeExpenseSplit is the share of income and expenses in their sum.
type IncomeExpenseSplit struct {
	IncomePercent   float64 `json:"incomePercent"`
	ExpensesPercent float64 `json:"expensesPercent"`
}

// Split returns zero shares when both totals are zero.
func Split(t Totals) IncomeExpenseSplit {
	sum := t.Income.Cents + t.Expenses.Cents
	if sum <= 0 {
		return IncomeExpenseSplit{}
	}
	return IncomeExpenseSplit{
		IncomePercent:   float64(t.Income.Cents) * 100 / float64(sum),
		ExpensesPercent: float64(t.Expenses.Cents) * 100 / float64(sum),
	}
}
