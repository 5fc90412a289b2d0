package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// BudgetSavedMessage announces a stored budget version. It carries only the
// user and version; consumers load the budget from storage.
type BudgetSavedMessage struct {
	UserID    string    `json:"user_id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBudgetSavedMessage(userID string, version int64) *BudgetSavedMessage {
	return &BudgetSavedMessage{
		UserID:    userID,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BudgetSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetSavedMessageFromJSON decodes a message and rejects ones without a user.
func BudgetSavedMessageFromJSON(data []byte) (*BudgetSavedMessage, error) {
	var msg BudgetSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" {
		return nil, errors.New("budget saved message without user_id")
	}
	return &msg, nil
}
