package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Card change operations carried by CardChangedMessage.
const (
	OpCardAdded   = "added"
	OpCardUpdated = "updated"
	OpCardDeleted = "deleted"
)

// CardChangedMessage announces a persisted change to the card collection.
// Consumers reload the collection; the message carries names only.
type CardChangedMessage struct {
	ID           string    `json:"id"`
	Operation    string    `json:"operation"`
	CardName     string    `json:"card_name"`
	PreviousName string    `json:"previous_name,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewCardChangedMessage stamps a change event with a fresh ID and the
// current time.
func NewCardChangedMessage(op, name, previous string) *CardChangedMessage {
	if previous == name {
		previous = ""
	}
	return &CardChangedMessage{
		ID:           uuid.NewString(),
		Operation:    op,
		CardName:     name,
		PreviousName: previous,
		Timestamp:    time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *CardChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// CardChangedMessageFromJSON decodes a message published by PublishCardChanged.
func CardChangedMessageFromJSON(data []byte) (*CardChangedMessage, error) {
	var msg CardChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
