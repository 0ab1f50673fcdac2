package http

import (
	"net/http"

	"fintrack/internal/app"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

type budgetList struct {
	Budgets core.Budgets          `json:"budgets"`
	Reports []ledger.BudgetReport `json:"reports"`
}

type budgetEntry struct {
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
}

// handleListBudgets returns the configured ceilings and their status against
// the expenses of the current filter.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	state := s.app.State()
	view := app.BuildView(state)
	NewJSONResponse().Body(budgetList{Budgets: state.Budgets, Reports: view.Budgets}).Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category := sanitizeInput(r.PathValue("category"))
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(ctx, w, err, log.OpUpdate)
		return
	}
	if err := s.app.SetBudget(ctx, category, p.Get("amount")); err != nil {
		writeError(ctx, w, err, log.OpUpdate)
		return
	}
	NewJSONResponse().Body(budgetEntry{Category: category, Amount: s.app.State().Budgets[category]}).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category := sanitizeInput(r.PathValue("category"))
	if err := s.app.DeleteBudget(ctx, category, confirmed(r)); err != nil {
		writeError(ctx, w, err, log.OpDelete)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
