package amqp

import (
	"encoding/json"
	"time"
)

// EventType names a ledger change.
type EventType string

const (
	TransactionCreated EventType = "transaction.created"
	TransactionUpdated EventType = "transaction.updated"
	TransactionDeleted EventType = "transaction.deleted"
	GoalCreated        EventType = "goal.created"
	GoalUpdated        EventType = "goal.updated"
	GoalDeleted        EventType = "goal.deleted"
	GoalFunded         EventType = "goal.funded"
)

// IsTransaction reports whether the event concerns a transaction.
func (t EventType) IsTransaction() bool {
	switch t {
	case TransactionCreated, TransactionUpdated, TransactionDeleted:
		return true
	}
	return false
}

// LedgerEvent is a lightweight notification that part of a user's ledger changed.
// The consumer reloads what it needs from the store; Month is set for
// transaction events so the right monthly sheet can be rebuilt.
type LedgerEvent struct {
	Type      EventType `json:"type"`
	EntityID  string    `json:"entityId"`
	UserID    string    `json:"userId"`
	Month     string    `json:"month,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(t EventType, entityID, userID, month string) *LedgerEvent {
	return &LedgerEvent{
		Type:      t,
		EntityID:  entityID,
		UserID:    userID,
		Month:     month,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
