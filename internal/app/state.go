// Package app owns the mutable application state: the transaction and budget
// stores, the active filter and the theme flag. Every change goes through a
// reducer that returns a new State, and successful commits are announced to
// the registered hooks.
package app

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBudgetNotFound      = errors.New("budget not found")
	ErrDuplicateID         = errors.New("duplicate transaction id")
	ErrNotConfirmed        = errors.New("delete not confirmed")
	ErrInvalidBudget       = errors.New("budget must be a positive amount")
)

// Change is a bit set naming the parts of the state a commit touched.
type Change uint8

const (
	ChangeTransactions Change = 1 << iota
	ChangeBudgets
	ChangeTheme
	ChangeFilter
)

// Has reports whether c includes every bit of o.
func (c Change) Has(o Change) bool {
	return o != 0 && c&o == o
}

func (c Change) String() string {
	var parts []string
	for _, p := range []struct {
		bit  Change
		name string
	}{
		{ChangeTransactions, "transactions"},
		{ChangeBudgets, "budgets"},
		{ChangeTheme, "theme"},
		{ChangeFilter, "filter"},
	} {
		if c.Has(p.bit) {
			parts = append(parts, p.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// State is the whole application state. Transactions are kept newest first.
type State struct {
	Transactions []core.Transaction
	Budgets      core.Budgets
	Filter       ledger.Filter
	DarkMode     bool
}

// Snapshot is the persisted part of State. In an import, a nil Transactions
// or Budgets field means the key was absent and leaves that store alone.
type Snapshot struct {
	Transactions []core.Transaction `json:"transactions"`
	Budgets      core.Budgets       `json:"budgets"`
	DarkMode     bool               `json:"-"`
}

// Snapshot returns a deep copy of the persisted part of s.
func (s State) Snapshot() Snapshot {
	return Snapshot{
		Transactions: cloneTransactions(s.Transactions),
		Budgets:      s.Budgets.Clone(),
		DarkMode:     s.DarkMode,
	}
}

// Clone returns a copy of s that shares no storage with it.
func (s State) Clone() State {
	s.Transactions = cloneTransactions(s.Transactions)
	s.Budgets = s.Budgets.Clone()
	return s
}

func (s State) find(id int64) int {
	return slices.IndexFunc(s.Transactions, func(tx core.Transaction) bool { return tx.ID == id })
}

func (s State) maxID() int64 {
	var m int64
	for _, tx := range s.Transactions {
		m = max(m, tx.ID)
	}
	return m
}

func cloneTransactions(txs []core.Transaction) []core.Transaction {
	if txs == nil {
		return []core.Transaction{}
	}
	return slices.Clone(txs)
}

// Action is a single state mutation.
type Action interface {
	apply(State) (State, Change, error)
}

// Reduce applies a to s. On error the returned state is s unchanged. The
// input state is never mutated.
func Reduce(s State, a Action) (State, Change, error) {
	next, change, err := a.apply(s.Clone())
	if err != nil {
		return s, 0, err
	}
	return next, change, nil
}

type (
	// AddTransaction prepends a fully built transaction.
	AddTransaction struct {
		Tx core.Transaction
	}

	// EditTransaction replaces every field but the id of an existing
	// transaction.
	EditTransaction struct {
		ID     int64
		Fields core.Transaction
	}

	DeleteTransaction struct {
		ID        int64
		Confirmed bool
	}

	SetBudget struct {
		Category string
		Amount   core.Money
	}

	DeleteBudget struct {
		Category  string
		Confirmed bool
	}

	SetFilter struct {
		Filter ledger.Filter
	}

	SetDarkMode struct {
		On bool
	}

	// Import replaces the stores present in Data.
	Import struct {
		Data Snapshot
	}

	// Replace swaps in a whole persisted snapshot. Used at startup.
	Replace struct {
		Data Snapshot
	}
)

func (a AddTransaction) apply(s State) (State, Change, error) {
	if err := a.Tx.Validate(); err != nil {
		return s, 0, err
	}
	if s.find(a.Tx.ID) >= 0 {
		return s, 0, fmt.Errorf("%w: %d", ErrDuplicateID, a.Tx.ID)
	}
	s.Transactions = append([]core.Transaction{a.Tx}, s.Transactions...)
	return s, ChangeTransactions, nil
}

func (a EditTransaction) apply(s State) (State, Change, error) {
	i := s.find(a.ID)
	if i < 0 {
		return s, 0, fmt.Errorf("%w: %d", ErrTransactionNotFound, a.ID)
	}
	tx := a.Fields
	tx.ID = a.ID
	if err := tx.Validate(); err != nil {
		return s, 0, err
	}
	s.Transactions[i] = tx
	return s, ChangeTransactions, nil
}

func (a DeleteTransaction) apply(s State) (State, Change, error) {
	if !a.Confirmed {
		return s, 0, ErrNotConfirmed
	}
	i := s.find(a.ID)
	if i < 0 {
		return s, 0, fmt.Errorf("%w: %d", ErrTransactionNotFound, a.ID)
	}
	s.Transactions = slices.Delete(s.Transactions, i, i+1)
	return s, ChangeTransactions, nil
}

func (a SetBudget) apply(s State) (State, Change, error) {
	if strings.TrimSpace(a.Category) == "" {
		return s, 0, core.ErrEmptyCategory
	}
	if a.Amount.Cents <= 0 {
		return s, 0, ErrInvalidBudget
	}
	s.Budgets[a.Category] = a.Amount
	return s, ChangeBudgets, nil
}

func (a DeleteBudget) apply(s State) (State, Change, error) {
	if !a.Confirmed {
		return s, 0, ErrNotConfirmed
	}
	if _, ok := s.Budgets[a.Category]; !ok {
		return s, 0, fmt.Errorf("%w: %q", ErrBudgetNotFound, a.Category)
	}
	delete(s.Budgets, a.Category)
	return s, ChangeBudgets, nil
}

func (a SetFilter) apply(s State) (State, Change, error) {
	if err := a.Filter.Validate(); err != nil {
		return s, 0, err
	}
	s.Filter = a.Filter
	return s, ChangeFilter, nil
}

func (a SetDarkMode) apply(s State) (State, Change, error) {
	s.DarkMode = a.On
	return s, ChangeTheme, nil
}

func (a Import) apply(s State) (State, Change, error) {
	var change Change
	if a.Data.Transactions != nil {
		seen := make(map[int64]struct{}, len(a.Data.Transactions))
		for _, tx := range a.Data.Transactions {
			if _, dup := seen[tx.ID]; dup {
				return s, 0, fmt.Errorf("%w: %d", ErrDuplicateID, tx.ID)
			}
			seen[tx.ID] = struct{}{}
		}
		s.Transactions = slices.Clone(a.Data.Transactions)
		change |= ChangeTransactions
	}
	if a.Data.Budgets != nil {
		s.Budgets = a.Data.Budgets.Clone()
		change |= ChangeBudgets
	}
	return s, change, nil
}

func (a Replace) apply(s State) (State, Change, error) {
	s.Transactions = cloneTransactions(a.Data.Transactions)
	s.Budgets = a.Data.Budgets.Clone()
	s.DarkMode = a.Data.DarkMode
	return s, ChangeTransactions | ChangeBudgets | ChangeTheme, nil
}
