// Package kvstore defines the key-value port the application state is
// persisted through, and the commit hook that writes to it.
package kvstore

import "context"

// Keys of the persisted state.
const (
	KeyTransactions = "financeTransactions"
	KeyBudgets      = "financeBudgets"
	KeyDarkMode     = "darkMode"
)

// Keys lists every persisted key.
var Keys = []string{KeyTransactions, KeyBudgets, KeyDarkMode}

// Ports for outbound adapters.
type (
	Reader interface {
		// Get returns the value stored under key. ok is false when the key
		// has never been written.
		Get(ctx context.Context, key string) (value string, ok bool, err error)
	}

	Writer interface {
		Set(ctx context.Context, key, value string) error
	}

	Store interface {
		Reader
		Writer
	}
)
