package core

import "slices"

var categories = map[TxType][]string{
	Income:  {"Salary", "Freelance", "Investment", "Gift", "Other"},
	Expense: {"Food", "Transport", "Shopping", "Bills", "Entertainment", "Healthcare", "Other"},
}

// Categories returns the entry-time category list for t, or nil for an
// unknown type.
func Categories(t TxType) []string {
	return slices.Clone(categories[t])
}

// DefaultCategory is the first category of t's list.
func DefaultCategory(t TxType) string {
	if list := categories[t]; len(list) > 0 {
		return list[0]
	}
	return ""
}

// NormalizeCategory returns c when it belongs to t's list and t's default
// category otherwise.
func NormalizeCategory(t TxType, c string) string {
	if IsKnownCategory(t, c) {
		return c
	}
	return DefaultCategory(t)
}

// IsKnownCategory reports whether c belongs to t's list.
func IsKnownCategory(t TxType, c string) bool {
	return slices.Contains(categories[t], c)
}
