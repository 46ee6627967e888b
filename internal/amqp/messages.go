package amqp

import (
	"encoding/json"
	"time"

	"budget/internal/core"
)

// TransactionRecordedMessage announces a transaction appended to the ledger.
// Seq is the 1-based position of the transaction in the ledger; the amount is
// sent as text to stay exact.
type TransactionRecordedMessage struct {
	Seq         int       `json:"seq"`
	Date        string    `json:"date"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewTransactionRecordedMessage creates the message for the seq-th transaction
func NewTransactionRecordedMessage(seq int, tx core.Transaction) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		Seq:         seq,
		Date:        tx.Date(),
		Amount:      core.FormatAmount(tx.Amount()),
		Category:    tx.Category(),
		Description: tx.Description(),
		Timestamp:   time.Now(),
	}
}

// Transaction rebuilds the transaction carried by the message.
func (m *TransactionRecordedMessage) Transaction() (core.Transaction, error) {
	return core.NewTransaction(m.Date, m.Amount, m.Category, m.Description)
}

// ToJSON converts the message to JSON bytes
func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionRecordedMessageFromJSON creates a message from JSON bytes
func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
