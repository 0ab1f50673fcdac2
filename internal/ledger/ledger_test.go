package ledger

import (
	"math/rand"

	"fintrack/internal/core"
)

func tx(id int64, typ core.TxType, cat, date string, cents int64, desc string) core.Transaction {
	return core.Transaction{
		ID:          id,
		Description: desc,
		Amount:      core.NewMoney(cents),
		Type:        typ,
		Category:    cat,
		Date:        date,
	}
}

// sample is a small store in newest-first order.
func sample() []core.Transaction {
	return []core.Transaction{
		tx(6, core.Expense, "Food", "2024-02-14", 2500, "Dinner out"),
		tx(5, core.Income, "Freelance", "2024-02-03", 40000, "Logo job"),
		tx(4, core.Expense, "Bills", "2024-01-10", 30000, "Electricity"),
		tx(3, core.Expense, "Food", "2024-01-05", 450, "Coffee"),
		tx(2, core.Income, "Salary", "2024-01-01", 100000, "January salary"),
		tx(1, core.Expense, "Pets", "2023-12-30", 1200, "Cat food"),
	}
}

// randomTransactions builds a deterministic pseudo-random collection for
// property checks.
func randomTransactions(seed int64, n int) []core.Transaction {
	r := rand.New(rand.NewSource(seed))
	cats := []string{"Food", "Bills", "Salary", "Other", "Unknown"}
	dates := []string{"2023-11-02", "2023-12-31", "2024-01-01", "2024-01-15", "2024-02-29", "2025-06-30"}
	descs := []string{"coffee", "Rent", "bonus", "SALARY", "misc"}
	out := make([]core.Transaction, n)
	for i := range out {
		typ := core.Expense
		if r.Intn(2) == 0 {
			typ = core.Income
		}
		out[i] = core.Transaction{
			ID:          int64(n - i),
			Description: descs[r.Intn(len(descs))],
			Amount:      core.NewMoney(int64(r.Intn(100000))),
			Type:        typ,
			Category:    cats[r.Intn(len(cats))],
			Date:        dates[r.Intn(len(dates))],
		}
		if r.Intn(3) == 0 {
			out[i].Note = "sal note"
		}
	}
	return out
}
