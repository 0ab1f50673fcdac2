package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/app"
)

// MessageType tags every message this package publishes.
const MessageType = "ledger.changed"

// LedgerChangedMessage announces a committed change to the ledger.
// Consumers re-read the state they care about; the message only carries
// counts.
type LedgerChangedMessage struct {
	Type string `json:"type"`
	app.Event
}

// NewLedgerChangedMessage builds the message for one commit.
func NewLedgerChangedMessage(change app.Change, snap app.Snapshot) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Type:  MessageType,
		Event: app.NewEvent(change, snap, time.Now()),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON creates a message from JSON bytes
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
