package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventKind names what happened to the ledger.
type EventKind string

const (
	EventRecordAdded   EventKind = "record_added"
	EventRecordUpdated EventKind = "record_updated"
	EventRecordDeleted EventKind = "record_deleted"
	EventRolledOver    EventKind = "rolled_over"
	EventMonthClosed   EventKind = "month_closed"
)

var errMissingKind = errors.New("ledger event without kind")

// LedgerEvent is a lightweight notification that the ledger changed.
// Consumers reload the full ledger; the event carries no record data.
type LedgerEvent struct {
	Kind      EventKind `json:"kind"`
	RecordID  string    `json:"record_id,omitempty"`
	Period    string    `json:"period,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(kind EventKind, recordID, period string) *LedgerEvent {
	return &LedgerEvent{
		Kind:      kind,
		RecordID:  recordID,
		Period:    period,
		Timestamp: time.Now(),
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
	if msg.Kind == "" {
		return nil, fmt.Errorf("decode ledger event: %w", errMissingKind)
	}
	return &msg, nil
}
