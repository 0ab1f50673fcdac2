package app

import "time"

// Event summarizes a commit for listeners outside the process. It carries
// counts only, never the records themselves.
type Event struct {
	Change       string    `json:"change"`
	Transactions int       `json:"transactions"`
	Budgets      int       `json:"budgets"`
	DarkMode     bool      `json:"darkMode"`
	Timestamp    time.Time `json:"timestamp"`
}

func NewEvent(change Change, snap Snapshot, at time.Time) Event {
	return Event{
		Change:       change.String(),
		Transactions: len(snap.Transactions),
		Budgets:      len(snap.Budgets),
		DarkMode:     snap.DarkMode,
		Timestamp:    at,
	}
}
