package http

import (
	"bytes"
	"fmt"
	"net/http"

	"fintrack/internal/log"
	"fintrack/internal/transfer"
)

type importResult struct {
	Transactions int `json:"transactions"`
	Budgets      int `json:"budgets"`
}

// handleExport downloads the ledger as JSON (default) or CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(transfer.FormatJSON)
	}
	format, err := transfer.ParseFormat(name)
	if err != nil {
		writeError(ctx, w, err, log.OpExport)
		return
	}

	var buf bytes.Buffer
	if err := transfer.Export(&buf, format, s.app.Snapshot()); err != nil {
		writeError(ctx, w, err, log.OpExport)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", transfer.FileName(format, s.now())))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleImport replaces the stores present in the uploaded JSON document.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, err := transfer.Import(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(ctx, w, err, log.OpImport)
		return
	}
	if err := s.app.Import(ctx, snap); err != nil {
		writeError(ctx, w, err, log.OpImport)
		return
	}

	state := s.app.State()
	log.FromContext(ctx).InfoContext(ctx, "Ledger imported",
		log.FieldOperation, log.OpImport,
		log.FieldCount, len(state.Transactions))
	NewJSONResponse().Body(importResult{
		Transactions: len(state.Transactions),
		Budgets:      len(state.Budgets),
	}).Write(w)
}
