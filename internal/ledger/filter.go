// Package ledger holds the pure filtering and aggregation logic that turns a
// transaction collection into views, category summaries, budget status and
// insights. Nothing here touches storage or clocks.
package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

const (
	TypeAll     TypeFilter = "all"
	TypeIncome  TypeFilter = "income"
	TypeExpense TypeFilter = "expense"

	ViewAll   ViewMode = "all"
	ViewMonth ViewMode = "month"
	ViewYear  ViewMode = "year"
)

// Empty-state messages for a filtered view with no rows.
const (
	EmptyNoTransactions = "No transactions yet. Add your first transaction above!"
	EmptyNoMatches      = "No transactions match your filters. Try adjusting your search criteria."
)

type (
	TypeFilter string
	ViewMode   string

	DateRange struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}

	// Filter is the full set of view criteria. The zero value keeps
	// everything.
	Filter struct {
		Type          TypeFilter `json:"type"`
		Search        string     `json:"search"`
		DateRange     DateRange  `json:"dateRange"`
		ViewMode      ViewMode   `json:"viewMode"`
		SelectedMonth string     `json:"selectedMonth"` // YYYY-MM
		SelectedYear  string     `json:"selectedYear"`  // YYYY
	}
)

var ErrInvalidFilter = errors.New("invalid filter")

// DefaultFilter keeps everything and preselects the month and year of now for
// the time-window modes.
func DefaultFilter(now time.Time) Filter {
	return Filter{
		Type:          TypeAll,
		ViewMode:      ViewAll,
		SelectedMonth: now.Format("2006-01"),
		SelectedYear:  now.Format("2006"),
	}
}

// Validate rejects unknown enum values and a malformed selection for the
// active time window.
func (f Filter) Validate() error {
	switch f.Type {
	case "", TypeAll, TypeIncome, TypeExpense:
	default:
		return fmt.Errorf("%w: type %q", ErrInvalidFilter, f.Type)
	}
	switch f.ViewMode {
	case "", ViewAll:
	case ViewMonth:
		if _, err := time.Parse("2006-01", f.SelectedMonth); err != nil {
			return fmt.Errorf("%w: month %q", ErrInvalidFilter, f.SelectedMonth)
		}
	case ViewYear:
		if _, err := time.Parse("2006", f.SelectedYear); err != nil {
			return fmt.Errorf("%w: year %q", ErrInvalidFilter, f.SelectedYear)
		}
	default:
		return fmt.Errorf("%w: view mode %q", ErrInvalidFilter, f.ViewMode)
	}
	return nil
}

// Active reports whether any criterion narrows the view.
func (f Filter) Active() bool {
	return (f.Type != "" && f.Type != TypeAll) ||
		f.Search != "" ||
		f.DateRange.Start != "" || f.DateRange.End != "" ||
		(f.ViewMode != "" && f.ViewMode != ViewAll)
}

// EmptyMessage picks the message shown when the filtered view is empty.
func (f Filter) EmptyMessage() string {
	if f.Active() {
		return EmptyNoMatches
	}
	return EmptyNoTransactions
}

// Match reports whether tx passes every criterion of f.
func (f Filter) Match(tx core.Transaction) bool {
	return f.matchType(tx) && f.matchSearch(tx) && f.matchRange(tx) && f.matchWindow(tx)
}

func (f Filter) matchType(tx core.Transaction) bool {
	if f.Type == "" || f.Type == TypeAll {
		return true
	}
	return string(tx.Type) == string(f.Type)
}

func (f Filter) matchSearch(tx core.Transaction) bool {
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(tx.Description), q) ||
		strings.Contains(strings.ToLower(tx.Category), q) ||
		(tx.Note != "" && strings.Contains(strings.ToLower(tx.Note), q))
}

func (f Filter) matchRange(tx core.Transaction) bool {
	if f.DateRange.Start == "" || f.DateRange.End == "" {
		return true
	}
	return tx.Date >= f.DateRange.Start && tx.Date <= f.DateRange.End
}

func (f Filter) matchWindow(tx core.Transaction) bool {
	switch f.ViewMode {
	case ViewMonth:
		return strings.HasPrefix(tx.Date, f.SelectedMonth)
	case ViewYear:
		return strings.HasPrefix(tx.Date, f.SelectedYear)
	default:
		return true
	}
}

// Apply returns the transactions matching f in their original order. The
// result never aliases txs.
func Apply(txs []core.Transaction, f Filter) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// ShiftMonth moves the selected month by n months, carrying across years.
// An unparseable selection is left unchanged.
func (f Filter) ShiftMonth(n int) Filter {
	t, err := time.Parse("2006-01", f.SelectedMonth)
	if err != nil {
		return f
	}
	f.SelectedMonth = t.AddDate(0, n, 0).Format("2006-01")
	return f
}

// ShiftYear moves the selected year by n.
func (f Filter) ShiftYear(n int) Filter {
	y, err := strconv.Atoi(f.SelectedYear)
	if err != nil {
		return f
	}
	f.SelectedYear = fmt.Sprintf("%04d", y+n)
	return f
}
