package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds published on the ledger exchange.
const (
	KindEntrySaved        = "entry.saved"
	KindEntryDeleted      = "entry.deleted"
	KindWithdrawalSaved   = "withdrawal.saved"
	KindWithdrawalDeleted = "withdrawal.deleted"
	KindMonthClosed       = "month.closed"
)

// LedgerEventMessage notifies consumers that a ledger record changed.
// It carries only the record id; consumers fetch current state from the
// store, so stale or reordered deliveries are harmless.
type LedgerEventMessage struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Date      string    `json:"date,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MonthClosedMessage notifies consumers that a month was closed and its
// archive is ready to export.
type MonthClosedMessage struct {
	Kind      string    `json:"kind"`
	Month     string    `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(kind, id, date string) *LedgerEventMessage {
	return &LedgerEventMessage{
		Kind:      kind,
		ID:        id,
		Date:      date,
		Timestamp: time.Now(),
	}
}

func NewMonthClosedMessage(month string) *MonthClosedMessage {
	return &MonthClosedMessage{
		Kind:      KindMonthClosed,
		Month:     month,
		Timestamp: time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *MonthClosedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// envelope peeks at the kind field to dispatch a raw delivery.
type envelope struct {
	Kind string `json:"kind"`
}

// KindOf returns the event kind of a raw message body.
func KindOf(body []byte) (string, error) {
	var e envelope
	if err := json.Unmarshal(body, &e); err != nil {
		return "", err
	}
	return e.Kind, nil
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func MonthClosedMessageFromJSON(data []byte) (*MonthClosedMessage, error) {
	var msg MonthClosedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
