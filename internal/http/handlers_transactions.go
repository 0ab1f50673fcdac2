package http

import (
	"net/http"

	"fintrack/internal/app"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

type transactionList struct {
	Filter       ledger.Filter      `json:"filter"`
	Transactions []core.Transaction `json:"transactions"`
	Count        int                `json:"count"`
	TotalCount   int                `json:"totalCount"`
	EmptyMessage string             `json:"emptyMessage,omitempty"`
}

// handleListTransactions applies the stored filter, overridden by any filter
// criteria in the query string. Query criteria are not stored.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	state := s.app.State()
	f, _ := ParseFilterParams(r.URL.Query(), state.Filter)
	if err := f.Validate(); err != nil {
		writeError(r.Context(), w, err, log.OpList)
		return
	}

	txs := ledger.Apply(state.Transactions, f)
	resp := transactionList{
		Filter:       f,
		Transactions: txs,
		Count:        len(txs),
		TotalCount:   len(state.Transactions),
	}
	if len(txs) == 0 {
		resp.EmptyMessage = f.EmptyMessage()
	}
	NewJSONResponse().Body(resp).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		NotFoundError(app.ErrTransactionNotFound.Error()).Write(w)
		return
	}
	tx, found := s.app.Transaction(id)
	if !found {
		NotFoundError(app.ErrTransactionNotFound.Error()).Write(w)
		return
	}
	NewJSONResponse().Body(tx).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(ctx, w, err, log.OpCreate)
		return
	}

	tx, err := s.app.AddTransaction(ctx, p.TransactionInput())
	if err != nil {
		writeError(ctx, w, err, log.OpCreate)
		return
	}

	log.NewStructuredLogger(log.FromContext(ctx)).
		LogTransactionSaved(ctx, log.OpCreate, tx.ID, tx.Type.String(), tx.Category, tx.Amount.Cents)
	NewJSONResponse().Status(http.StatusCreated).Body(tx).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(r)
	if !ok {
		NotFoundError(app.ErrTransactionNotFound.Error()).Write(w)
		return
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(ctx, w, err, log.OpUpdate)
		return
	}

	tx, err := s.app.EditTransaction(ctx, id, p.TransactionInput())
	if err != nil {
		writeError(ctx, w, err, log.OpUpdate)
		return
	}

	log.NewStructuredLogger(log.FromContext(ctx)).
		LogTransactionSaved(ctx, log.OpUpdate, tx.ID, tx.Type.String(), tx.Category, tx.Amount.Cents)
	NewJSONResponse().Body(tx).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(r)
	if !ok {
		NotFoundError(app.ErrTransactionNotFound.Error()).Write(w)
		return
	}
	if err := s.app.DeleteTransaction(ctx, id, confirmed(r)); err != nil {
		writeError(ctx, w, err, log.OpDelete)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
