package amqp

import (
	"encoding/json"
	"time"
)

// SubscriptionSyncMessage is a lightweight message for mirroring a
// subscription to the backup spreadsheet. It carries only the ID and
// version; the worker fetches the full row from the database.
type SubscriptionSyncMessage struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSubscriptionSyncMessage(id string, version int64) *SubscriptionSyncMessage {
	return &SubscriptionSyncMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *SubscriptionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SubscriptionSyncMessageFromJSON(data []byte) (*SubscriptionSyncMessage, error) {
	var msg SubscriptionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ReminderMessage notifies downstream consumers that a subscription is due
// within its reminder lead window.
type ReminderMessage struct {
	SubscriptionID string    `json:"subscription_id"`
	OwnerID        string    `json:"owner_id"`
	Name           string    `json:"name"`
	AmountCents    int64     `json:"amount_cents"`
	DueOn          string    `json:"due_on"` // YYYY-MM-DD
	DaysLeft       int       `json:"days_left"`
	Timestamp      time.Time `json:"timestamp"`
}

func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
