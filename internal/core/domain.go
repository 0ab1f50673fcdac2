package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used for transaction dates.
const DateLayout = "2006-01-02"

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

type (
	// TxType tells income and expense transactions apart.
	TxType string

	Transaction struct {
		ID          int64  `json:"id"`
		Description string `json:"description"`
		Amount      Money  `json:"amount"`
		Type        TxType `json:"type"`
		Category    string `json:"category"`
		Date        string `json:"date"` // YYYY-MM-DD
		Note        string `json:"note"`
	}

	// Budgets maps an expense category to its spending ceiling.
	Budgets map[string]Money
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrSubCentAmount    = errors.New("amount has fractions of a cent")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrUnknownCategory  = errors.New("category does not belong to the transaction type")
)

// Valid reports whether t is one of the known transaction types.
func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

func (t TxType) String() string {
	return string(t)
}

// ValidateDate checks that s is a real calendar date in YYYY-MM-DD form.
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// Today returns the calendar date of now in YYYY-MM-DD form.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// MonthKey returns the YYYY-MM prefix of an ISO date. Short strings are
// returned unchanged so malformed imported dates still group somewhere.
func MonthKey(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// Validate checks the fields required at entry time. Category membership in
// the taxonomy is not enforced here.
func (tx Transaction) Validate() error {
	if strings.TrimSpace(tx.Description) == "" {
		return ErrEmptyDescription
	}
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	return ValidateDate(tx.Date)
}

// Clone returns a copy of b that does not share storage with it.
func (b Budgets) Clone() Budgets {
	out := make(Budgets, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
