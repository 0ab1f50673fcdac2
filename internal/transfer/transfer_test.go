package transfer

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/app"
	"fintrack/internal/core"
)

func sampleSnapshot() app.Snapshot {
	return app.Snapshot{
		Transactions: []core.Transaction{
			{ID: 3, Description: "Dinner, drinks", Amount: core.NewMoney(2550), Type: core.Expense, Category: "Food", Date: "2024-02-14", Note: `said "cheers"`},
			{ID: 2, Description: "Rent", Amount: core.NewMoney(30000), Type: core.Expense, Category: "Bills", Date: "2024-01-10", Note: "line one\nline two"},
			{ID: 1, Description: "Pay", Amount: core.NewMoney(100000), Type: core.Income, Category: "Salary", Date: "2024-01-01"},
		},
		Budgets: core.Budgets{"Food": core.NewMoney(10000)},
	}
}

func TestJSONRoundTrip(t *testing.T) {
	snap := sampleSnapshot()
	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, snap))
	assert.True(t, strings.HasPrefix(buf.String(), "{\n  \"transactions\": ["), "two-space indent")

	got, err := Import(&buf)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestExportJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, app.Snapshot{}))
	assert.JSONEq(t, `{"transactions":[],"budgets":{}}`, buf.String())
}

func TestExportCSVQuoting(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, sampleSnapshot().Transactions))

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, CSVHeader, rows[0])
	assert.Equal(t, []string{"2024-02-14", "expense", "Food", "Dinner, drinks", "25.5", `said "cheers"`}, rows[1])
	assert.Equal(t, "line one\nline two", rows[2][5])
	assert.Equal(t, []string{"2024-01-01", "income", "Salary", "Pay", "1000", ""}, rows[3])

	assert.Contains(t, buf.String(), `"Dinner, drinks"`)
	assert.Contains(t, buf.String(), `"said ""cheers"""`)
}

func TestImportPartialDocuments(t *testing.T) {
	got, err := Import(strings.NewReader(`{"transactions": []}`))
	require.NoError(t, err)
	assert.NotNil(t, got.Transactions)
	assert.Nil(t, got.Budgets, "absent budgets stay nil")

	_, err = Import(strings.NewReader(`{"budgets": {"Food": "12,5"}}`))
	require.Error(t, err, "comma decimals are only accepted from form input")

	got, err = Import(strings.NewReader(`{"budgets": {"Food": 12.5}}`))
	require.NoError(t, err)
	assert.Nil(t, got.Transactions)
	assert.Equal(t, core.Budgets{"Food": core.NewMoney(1250)}, got.Budgets)
}

func TestImportRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `{"transactions": [`},
		{"array root", `[]`},
		{"wrong shape", `{"transactions": "many"}`},
		{"unknown type", `{"transactions": [{"id":1,"description":"x","amount":1,"type":"refund","category":"Food","date":"2024-01-01"}]}`},
		{"bad date", `{"transactions": [{"id":1,"description":"x","amount":1,"type":"expense","category":"Food","date":"yesterday"}]}`},
		{"negative amount", `{"transactions": [{"id":1,"description":"x","amount":-1,"type":"expense","category":"Food","date":"2024-01-01"}]}`},
		{"text amount", `{"transactions": [{"id":1,"description":"x","amount":"lots","type":"expense","category":"Food","date":"2024-01-01"}]}`},
		{"negative budget", `{"budgets": {"Food": -10}}`},
		{"sub-cent amount", `{"transactions": [{"id":1,"description":"x","amount":12.345,"type":"expense","category":"Food","date":"2024-01-01"}]}`},
		{"sub-cent budget", `{"budgets": {"Food": 0.001}}`},
		{"amount above ceiling", `{"transactions": [{"id":1,"description":"x","amount":92233720368547758,"type":"income","category":"Salary","date":"2024-01-01"}]}`},
		{"duplicate id", `{"transactions": [{"id":1,"description":"x","amount":1,"type":"expense","category":"Food","date":"2024-01-01"},{"id":1,"description":"y","amount":2,"type":"expense","category":"Food","date":"2024-01-02"}]}`},
		{"null document", `null`},
		{"trailing data", `{} {}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, ErrMalformedImport)
		})
	}
}

func TestImportKeepsAmountsExact(t *testing.T) {
	got, err := Import(strings.NewReader(`{"transactions": [{"id":1,"description":"x","amount":"4.50","type":"expense","category":"Food","date":"2024-01-01"},{"id":2,"description":"y","type":"expense","category":"Food","date":"2024-01-01"}]}`))
	require.NoError(t, err)
	assert.Equal(t, int64(450), got.Transactions[0].Amount.Cents, "quoted amounts are accepted")
	assert.Zero(t, got.Transactions[1].Amount.Cents, "a missing amount is zero")

	_, err = Import(strings.NewReader(`{"transactions": [{"id":1,"description":"x","amount":0.125,"type":"expense","category":"Food","date":"2024-01-01"}]}`))
	require.ErrorIs(t, err, ErrMalformedImport)
	assert.Contains(t, err.Error(), "fractions of a cent")
}

func TestImportKeepsUnknownCategories(t *testing.T) {
	got, err := Import(strings.NewReader(`{"transactions": [{"id":1,"description":"x","amount":1,"type":"expense","category":"Pets","date":"2024-01-01"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "Pets", got.Transactions[0].Category)
}

func TestFileNameAndFormat(t *testing.T) {
	now := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "finance-data-2024-03-09.json", FileName(FormatJSON, now))
	assert.Equal(t, "finance-data-2024-03-09.csv", FileName(FormatCSV, now))

	f, err := ParseFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	_, err = ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestImportIntoApp(t *testing.T) {
	a := app.New()
	snap, err := Import(strings.NewReader(`{"transactions": [{"id":5,"description":"Gift","amount":50,"type":"income","category":"Gift","date":"2024-01-01","note":""}]}`))
	require.NoError(t, err)
	require.NoError(t, a.Import(context.Background(), snap))
	assert.Len(t, a.State().Transactions, 1)
}
