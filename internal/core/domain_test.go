package core

import (
	"testing"
	"time"
)

func TestValidateDate(t *testing.T) {
	cases := []struct {
		d  string
		ok bool
	}{
		{"2025-01-01", true},
		{"2024-02-29", true},
		{"2025-02-29", false},
		{"2025-13-01", false},
		{"2025-1-1", false},
		{"", false},
	}
	for i, tc := range cases {
		err := ValidateDate(tc.d)
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Description: "ok",
		Amount:      Money{Cents: 100},
		Type:        Expense,
		Category:    "Food",
		Date:        "2025-01-01",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	unknownCategory := good
	unknownCategory.Category = "Pets"
	if err := unknownCategory.Validate(); err != nil {
		t.Fatalf("unknown categories are free-form, got %v", err)
	}

	bads := []Transaction{
		{Description: "", Amount: Money{Cents: 1}, Type: Expense, Category: "c", Date: "2025-01-01"},
		{Description: "a", Amount: Money{Cents: -1}, Type: Expense, Category: "c", Date: "2025-01-01"},
		{Description: "a", Amount: Money{Cents: 1}, Type: "transfer", Category: "c", Date: "2025-01-01"},
		{Description: "a", Amount: Money{Cents: 1}, Type: Income, Category: " ", Date: "2025-01-01"},
		{Description: "a", Amount: Money{Cents: 1}, Type: Income, Category: "c", Date: "01/01/2025"},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMonthKeyAndToday(t *testing.T) {
	if got := MonthKey("2024-01-05"); got != "2024-01" {
		t.Fatalf("MonthKey = %q", got)
	}
	if got := MonthKey("2024"); got != "2024" {
		t.Fatalf("MonthKey short = %q", got)
	}
	now := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	if got := Today(now); got != "2024-03-09" {
		t.Fatalf("Today = %q", got)
	}
}

func TestCategories(t *testing.T) {
	if got := DefaultCategory(Income); got != "Salary" {
		t.Fatalf("default income = %q", got)
	}
	if got := DefaultCategory(Expense); got != "Food" {
		t.Fatalf("default expense = %q", got)
	}
	if !IsKnownCategory(Expense, "Bills") || IsKnownCategory(Income, "Food") {
		t.Fatalf("IsKnownCategory mismatch")
	}
	list := Categories(Expense)
	list[0] = "mutated"
	if DefaultCategory(Expense) != "Food" {
		t.Fatalf("Categories must return a copy")
	}
	if Categories("bogus") != nil {
		t.Fatalf("unknown type should have no categories")
	}

	normalize := []struct {
		typ  TxType
		in   string
		want string
	}{
		{Expense, "Bills", "Bills"},
		{Expense, "Salary", "Food"},
		{Income, "Food", "Salary"},
		{Income, "", "Salary"},
		{Income, "Other", "Other"},
		{"bogus", "Food", ""},
	}
	for _, tc := range normalize {
		if got := NormalizeCategory(tc.typ, tc.in); got != tc.want {
			t.Fatalf("NormalizeCategory(%s, %q) = %q, want %q", tc.typ, tc.in, got, tc.want)
		}
	}
}
