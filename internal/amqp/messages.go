package amqp

import (
	"encoding/json"
	"time"
)

// TransactionSyncMessage asks the sync worker to mirror one transaction
// to the external ledger. It carries only the id; the worker fetches the
// full record from storage.
type TransactionSyncMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// BudgetAlertMessage is emitted whenever a budget evaluation produces an
// alert event, for out-of-process notification consumers.
type BudgetAlertMessage struct {
	Category       string    `json:"category"`
	Severity       string    `json:"severity"`
	Percent        float64   `json:"percent"`
	OveragePercent float64   `json:"overagePercent"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewTransactionSyncMessage creates a sync message for a transaction id.
func NewTransactionSyncMessage(id string) *TransactionSyncMessage {
	return &TransactionSyncMessage{ID: id, Timestamp: time.Now()}
}

// ToJSON converts the message to JSON bytes.
func (m *TransactionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionSyncMessageFromJSON creates a message from JSON bytes.
func TransactionSyncMessageFromJSON(data []byte) (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ToJSON converts the message to JSON bytes.
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
