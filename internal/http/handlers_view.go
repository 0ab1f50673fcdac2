package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

type categoryList struct {
	Categories []string `json:"categories"`
	Default    string   `json:"default"`
}

type themeBody struct {
	DarkMode bool `json:"darkMode"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	out := make(map[core.TxType]categoryList, 2)
	for _, t := range []core.TxType{core.Income, core.Expense} {
		out[t] = categoryList{Categories: core.Categories(t), Default: core.DefaultCategory(t)}
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.app.View()).Write(w)
}

func (s *Server) handleGetFilter(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.app.State().Filter).Write(w)
}

// handleSetFilter replaces the stored filter with the JSON body.
func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var f ledger.Filter
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", errMalformedBody, err), log.OpUpdate)
		return
	}
	f.Search = stripControl(f.Search)
	if err := s.app.SetFilter(ctx, f); err != nil {
		writeError(ctx, w, err, log.OpUpdate)
		return
	}
	NewJSONResponse().Body(f).Write(w)
}

// handleShiftFilter moves the selected month and year by the signed
// "months" and "years" offsets in the body.
func (s *Server) handleShiftFilter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(ctx, w, err, log.OpUpdate)
		return
	}
	months, err := p.Int("months")
	if err != nil {
		writeError(ctx, w, err, log.OpUpdate)
		return
	}
	years, err := p.Int("years")
	if err != nil {
		writeError(ctx, w, err, log.OpUpdate)
		return
	}

	f, err := s.app.ShiftFilter(ctx, months, years)
	if err != nil {
		writeError(ctx, w, err, log.OpUpdate)
		return
	}
	NewJSONResponse().Body(f).Write(w)
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(themeBody{DarkMode: s.app.State().DarkMode}).Write(w)
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(ctx, w, err, log.OpUpdate)
		return
	}
	on, err := strconv.ParseBool(p.Get("darkMode"))
	if err != nil {
		UnprocessableEntityError("darkMode must be true or false").Write(w)
		return
	}
	if err := s.app.SetDarkMode(ctx, on); err != nil {
		writeError(ctx, w, err, log.OpUpdate)
		return
	}
	NewJSONResponse().Body(themeBody{DarkMode: on}).Write(w)
}
