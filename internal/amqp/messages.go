package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// ChangeKind names the kind of record whose mutation triggered a message.
type ChangeKind string

const (
	ChangeIncome    ChangeKind = "income"
	ChangeExpense   ChangeKind = "expense"
	ChangeAsset     ChangeKind = "asset"
	ChangeLiability ChangeKind = "liability"
)

// FinanceChangedMessage tells the worker a user's figures changed. It carries
// only identifiers; the worker reloads everything it needs from storage.
type FinanceChangedMessage struct {
	UserID    string     `json:"user_id"`
	Kind      ChangeKind `json:"kind"`
	EntityID  string     `json:"entity_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewFinanceChangedMessage(userID string, kind ChangeKind, entityID string) *FinanceChangedMessage {
	return &FinanceChangedMessage{
		UserID:    userID,
		Kind:      kind,
		EntityID:  entityID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *FinanceChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FinanceChangedMessageFromJSON decodes a message, rejecting ones without a user.
func FinanceChangedMessageFromJSON(data []byte) (*FinanceChangedMessage, error) {
	var msg FinanceChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" {
		return nil, errors.New("message has no user_id")
	}
	return &msg, nil
}
