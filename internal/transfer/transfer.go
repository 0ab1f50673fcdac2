// Package transfer reads and writes the portable export formats: a JSON
// document holding transactions and budgets, and a flat CSV of transactions.
package transfer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/app"
	"fintrack/internal/core"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

var (
	ErrMalformedImport = errors.New("malformed import data")
	ErrUnknownFormat   = errors.New("unknown export format")
)

// CSVHeader is the first row of every CSV export.
var CSVHeader = []string{"Date", "Type", "Category", "Description", "Amount", "Note"}

// ParseFormat accepts json or csv in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}

// FileName suggests finance-data-YYYY-MM-DD.<ext> for an export made at now.
func FileName(f Format, now time.Time) string {
	return fmt.Sprintf("finance-data-%s.%s", now.Format(core.DateLayout), f)
}

type document struct {
	Transactions []core.Transaction `json:"transactions"`
	Budgets      core.Budgets       `json:"budgets"`
}

// importDocument keeps amounts as written so that they can be checked
// before conversion to cents.
type importDocument struct {
	Transactions []importRecord         `json:"transactions"`
	Budgets      map[string]json.Number `json:"budgets"`
}

type importRecord struct {
	core.Transaction
	Amount json.Number `json:"amount"`
}

// Export writes snap to w in format f.
func Export(w io.Writer, f Format, snap app.Snapshot) error {
	switch f {
	case FormatJSON:
		return ExportJSON(w, snap)
	case FormatCSV:
		return ExportCSV(w, snap.Transactions)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// ExportJSON writes {"transactions": [...], "budgets": {...}} with a
// two-space indent.
func ExportJSON(w io.Writer, snap app.Snapshot) error {
	doc := document{Transactions: snap.Transactions, Budgets: snap.Budgets}
	if doc.Transactions == nil {
		doc.Transactions = []core.Transaction{}
	}
	if doc.Budgets == nil {
		doc.Budgets = core.Budgets{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json export: %w", err)
	}
	return nil
}

// ExportCSV writes one row per transaction in store order. Fields holding
// commas, quotes or newlines are quoted.
func ExportCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, tx := range txs {
		row := []string{
			tx.Date,
			string(tx.Type),
			tx.Category,
			tx.Description,
			tx.Amount.Decimal().String(),
			tx.Note,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", tx.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Import decodes a JSON export. Keys absent from the document come back as
// nil so that applying the snapshot leaves those stores untouched. Every
// record must carry a unique id, a known type, a calendar date and a
// non-negative amount in whole cents.
func Import(r io.Reader) (app.Snapshot, error) {
	var doc *importDocument
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return app.Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	if doc == nil {
		return app.Snapshot{}, fmt.Errorf("%w: document is null", ErrMalformedImport)
	}
	if dec.More() {
		return app.Snapshot{}, fmt.Errorf("%w: trailing data", ErrMalformedImport)
	}

	var snap app.Snapshot
	if doc.Transactions != nil {
		snap.Transactions = make([]core.Transaction, 0, len(doc.Transactions))
		seen := make(map[int64]struct{}, len(doc.Transactions))
		for i, rec := range doc.Transactions {
			tx, err := checkRecord(rec)
			if err != nil {
				return app.Snapshot{}, fmt.Errorf("%w: transaction %d: %v", ErrMalformedImport, i, err)
			}
			if _, dup := seen[tx.ID]; dup {
				return app.Snapshot{}, fmt.Errorf("%w: transaction %d: duplicate id %d", ErrMalformedImport, i, tx.ID)
			}
			seen[tx.ID] = struct{}{}
			snap.Transactions = append(snap.Transactions, tx)
		}
	}
	if doc.Budgets != nil {
		snap.Budgets = make(core.Budgets, len(doc.Budgets))
		for cat, raw := range doc.Budgets {
			amount, err := exactAmount(raw)
			if err != nil {
				return app.Snapshot{}, fmt.Errorf("%w: budget %q: %v", ErrMalformedImport, cat, err)
			}
			snap.Budgets[cat] = amount
		}
	}
	return snap, nil
}

func checkRecord(rec importRecord) (core.Transaction, error) {
	tx := rec.Transaction
	if !tx.Type.Valid() {
		return tx, core.ErrInvalidType
	}
	if err := core.ValidateDate(tx.Date); err != nil {
		return tx, err
	}
	amount, err := exactAmount(rec.Amount)
	if err != nil {
		return tx, err
	}
	tx.Amount = amount
	return tx, nil
}

// exactAmount converts an amount as written in the document. A missing
// amount counts as zero.
func exactAmount(n json.Number) (core.Money, error) {
	if n == "" {
		return core.Money{}, nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return core.Money{}, core.ErrInvalidAmount
	}
	return core.ExactAmount(d)
}
