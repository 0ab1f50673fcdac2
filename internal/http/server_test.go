package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/app"
	"fintrack/internal/ledger"
	"fintrack/internal/middleware/ratelimit"
)

var fixedNow = time.Date(2024, 2, 15, 10, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newTestServer(t *testing.T, opts ...Option) (*Server, *app.App) {
	t.Helper()
	a := app.New(app.WithClock(clock))
	srv := NewServer(":0", a, append([]Option{WithClock(clock)}, opts...)...)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, a
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if strings.HasPrefix(strings.TrimSpace(body), "{") {
		req.Header.Set("Content-Type", "application/json")
	} else if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	down, _ := newTestServer(t, WithReadiness(func(context.Context) error { return errors.New("db gone") }))
	rr := do(t, down, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d, want 503", rr.Code)
	}
	if got := decode[healthResponse](t, rr); got.Error != "db gone" {
		t.Fatalf("readyz error=%q", got.Error)
	}
}

func TestCategories(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv, http.MethodGet, "/api/categories", "")
	got := decode[map[string]categoryList](t, rr)
	if len(got["income"].Categories) != 5 || len(got["expense"].Categories) != 7 {
		t.Fatalf("categories=%v", got)
	}
	if got["expense"].Default != "Food" || got["income"].Default != "Salary" {
		t.Fatalf("defaults=%v", got)
	}
}

func TestCreateTransaction(t *testing.T) {
	srv, a := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/transactions",
		`{"description":"Coffee","amount":4.5,"type":"expense","category":"Food","date":"2024-02-01"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	tx := decode[map[string]any](t, rr)
	if tx["description"] != "Coffee" || tx["amount"] != 4.5 {
		t.Fatalf("created=%v", tx)
	}

	// form-encoded bodies are accepted too
	rr = do(t, srv, http.MethodPost, "/api/transactions",
		"description=Salary&amount=1000&type=income&category=Salary&date=2024-02-01")
	if rr.Code != http.StatusCreated {
		t.Fatalf("form status=%d body=%s", rr.Code, rr.Body.String())
	}

	if got := len(a.State().Transactions); got != 2 {
		t.Fatalf("transactions=%d, want 2", got)
	}
}

func TestCreateTransactionRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing description", `{"amount":"1","category":"Food"}`, http.StatusUnprocessableEntity},
		{"bad amount", `{"description":"x","amount":"abc","category":"Food"}`, http.StatusUnprocessableEntity},
		{"missing amount", `{"description":"x","category":"Food"}`, http.StatusUnprocessableEntity},
		{"bad type", `{"description":"x","amount":"1","type":"gift","category":"Food"}`, http.StatusUnprocessableEntity},
		{"category of other type", `{"description":"x","amount":"1","type":"income","category":"Food"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"description":"x","amount":"1","category":"Food","date":"2024-02-30"}`, http.StatusUnprocessableEntity},
		{"malformed json", `{"description":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, a := newTestServer(t)
			rr := do(t, srv, http.MethodPost, "/api/transactions", tt.body)
			if rr.Code != tt.want {
				t.Fatalf("status=%d, want %d (body=%s)", rr.Code, tt.want, rr.Body.String())
			}
			if got := decode[errorBody](t, rr); got.Error == "" {
				t.Fatalf("missing error message")
			}
			if n := len(a.State().Transactions); n != 0 {
				t.Fatalf("state changed: %d transactions", n)
			}
		})
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	srv, a := newTestServer(t)
	tx, err := a.AddTransaction(context.Background(), app.TransactionInput{
		Description: "Bus", Amount: "2", Category: "Transport", Date: "2024-02-01",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	path := "/api/transactions/" + jsonID(tx.ID)

	rr := do(t, srv, http.MethodGet, path, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodPut, path,
		`{"description":"Train","amount":"12.30","type":"expense","category":"Transport","date":"2024-02-02"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("put status=%d body=%s", rr.Code, rr.Body.String())
	}
	got, _ := a.Transaction(tx.ID)
	if got.Description != "Train" || got.Amount.Cents != 1230 {
		t.Fatalf("edited=%+v", got)
	}

	rr = do(t, srv, http.MethodDelete, path, "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("unconfirmed delete status=%d, want 409", rr.Code)
	}
	if _, ok := a.Transaction(tx.ID); !ok {
		t.Fatalf("unconfirmed delete removed the transaction")
	}

	rr = do(t, srv, http.MethodDelete, path+"?confirm=true", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodDelete, path+"?confirm=true", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d, want 404", rr.Code)
	}
	rr = do(t, srv, http.MethodPut, "/api/transactions/abc", `{"description":"x"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("bad id status=%d, want 404", rr.Code)
	}
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestListTransactionsWithQueryFilters(t *testing.T) {
	srv, a := newTestServer(t)
	ctx := context.Background()
	for _, in := range []app.TransactionInput{
		{Description: "Salary", Amount: "1000", Type: "income", Category: "Salary", Date: "2024-01-31"},
		{Description: "Groceries", Amount: "50", Type: "expense", Category: "Food", Date: "2024-02-03"},
	} {
		if _, err := a.AddTransaction(ctx, in); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	rr := do(t, srv, http.MethodGet, "/api/transactions?type=income", "")
	list := decode[transactionList](t, rr)
	if list.Count != 1 || list.TotalCount != 2 || list.Transactions[0].Description != "Salary" {
		t.Fatalf("income list=%+v", list)
	}
	if a.State().Filter.Type != ledger.TypeAll {
		t.Fatalf("query filter must not be stored")
	}

	rr = do(t, srv, http.MethodGet, "/api/transactions?search=zzz", "")
	list = decode[transactionList](t, rr)
	if list.Count != 0 || list.EmptyMessage != ledger.EmptyNoMatches {
		t.Fatalf("empty list=%+v", list)
	}

	rr = do(t, srv, http.MethodGet, "/api/transactions?view=week", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid filter status=%d", rr.Code)
	}
}

func TestBudgetEndpoints(t *testing.T) {
	srv, a := newTestServer(t)
	if _, err := a.AddTransaction(context.Background(), app.TransactionInput{
		Description: "Dinner", Amount: "85", Category: "Food", Date: "2024-02-10",
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	rr := do(t, srv, http.MethodPut, "/api/budgets/Food", `{"amount":"100"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("put status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/api/budgets", "")
	list := decode[budgetList](t, rr)
	if len(list.Reports) != 1 {
		t.Fatalf("reports=%+v", list.Reports)
	}
	if r := list.Reports[0]; r.Status != ledger.StatusWarning || r.Spent.Cents != 8500 {
		t.Fatalf("report=%+v", r)
	}

	rr = do(t, srv, http.MethodPut, "/api/budgets/Food", `{"amount":"0"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("zero budget status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodDelete, "/api/budgets/Food", "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("unconfirmed delete status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodDelete, "/api/budgets/Food?confirm=1", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodDelete, "/api/budgets/Food?confirm=true", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing budget status=%d", rr.Code)
	}
}

func TestFilterEndpoints(t *testing.T) {
	srv, a := newTestServer(t)

	rr := do(t, srv, http.MethodPut, "/api/filter", `{"type":"all","viewMode":"month","selectedMonth":"2024-01","selectedYear":"2024"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("put status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodPost, "/api/filter/shift", `{"months":1}`)
	f := decode[ledger.Filter](t, rr)
	if f.SelectedMonth != "2024-02" {
		t.Fatalf("shifted month=%q", f.SelectedMonth)
	}
	if a.State().Filter.SelectedMonth != "2024-02" {
		t.Fatalf("shift not stored")
	}

	rr = do(t, srv, http.MethodGet, "/api/filter", "")
	if got := decode[ledger.Filter](t, rr); got.ViewMode != ledger.ViewMonth {
		t.Fatalf("filter=%+v", got)
	}

	rr = do(t, srv, http.MethodPut, "/api/filter", `{"search":"coffee "}`)
	if got := decode[ledger.Filter](t, rr); got.Search != "coffee " {
		t.Fatalf("search=%q, trailing space must be kept", got.Search)
	}

	rr = do(t, srv, http.MethodPut, "/api/filter", `{"viewMode":"week"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid filter status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodPut, "/api/filter", `{"colour":"red"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown field status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodPost, "/api/filter/shift", `{"months":"x"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad shift status=%d", rr.Code)
	}
}

func TestViewAndTheme(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/view", "")
	v := decode[app.View](t, rr)
	if v.EmptyMessage != ledger.EmptyNoTransactions {
		t.Fatalf("empty view message=%q", v.EmptyMessage)
	}

	rr = do(t, srv, http.MethodPut, "/api/theme", `{"darkMode":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("put theme status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodGet, "/api/theme", "")
	if !decode[themeBody](t, rr).DarkMode {
		t.Fatalf("dark mode not stored")
	}
	rr = do(t, srv, http.MethodPut, "/api/theme", `{"darkMode":"maybe"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid theme status=%d", rr.Code)
	}
}

func TestExportAndImport(t *testing.T) {
	srv, a := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/import",
		`{"transactions":[{"id":1,"description":"Rent, March","amount":900,"type":"expense","category":"Bills","date":"2024-03-01","note":""}],"budgets":{"Bills":1000}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("import status=%d body=%s", rr.Code, rr.Body.String())
	}
	if res := decode[importResult](t, rr); res.Transactions != 1 || res.Budgets != 1 {
		t.Fatalf("import result=%+v", res)
	}

	rr = do(t, srv, http.MethodGet, "/api/export?format=csv", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("export status=%d", rr.Code)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "finance-data-2024-02-15.csv") {
		t.Fatalf("content disposition=%q", cd)
	}
	if !strings.Contains(rr.Body.String(), `"Rent, March"`) {
		t.Fatalf("csv body=%q", rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/api/export", "")
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("default export content type=%q", ct)
	}

	rr = do(t, srv, http.MethodGet, "/api/export?format=xml", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown format status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/api/import", `{"transactions":[{"type":"gift"}]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed import status=%d", rr.Code)
	}
	if n := len(a.State().Transactions); n != 1 {
		t.Fatalf("malformed import changed state: %d transactions", n)
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/healthz", "")
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options=%q", got)
	}
	if got := rr.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("Cache-Control=%q", got)
	}
	if _, err := uuid.Parse(rr.Header().Get("X-Request-ID")); err != nil {
		t.Fatalf("request id is not a uuid: %v", err)
	}

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", id)
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != id {
		t.Fatalf("request id=%q, want %q", got, id)
	}
}

func TestRateLimitAppliesToWrites(t *testing.T) {
	srv, _ := newTestServer(t, WithRateLimit(ratelimit.Config{
		RequestsPerMinute: 1,
		Methods:           []string{http.MethodPut},
	}))

	if rr := do(t, srv, http.MethodPut, "/api/theme", `{"darkMode":true}`); rr.Code != http.StatusOK {
		t.Fatalf("first write status=%d", rr.Code)
	}
	rr := do(t, srv, http.MethodPut, "/api/theme", `{"darkMode":false}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second write status=%d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
	for range 3 {
		if rr := do(t, srv, http.MethodGet, "/api/theme", ""); rr.Code != http.StatusOK {
			t.Fatalf("reads must not be throttled, status=%d", rr.Code)
		}
	}
}
