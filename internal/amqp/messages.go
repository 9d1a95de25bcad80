package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// LedgerEntryMessage announces a committed ledger entry. It carries only
// identifiers; consumers load the entry itself from storage.
type LedgerEntryMessage struct {
	MessageID string    `json:"message_id"`
	EntryID   int64     `json:"entry_id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

var errMissingEntryID = errors.New("message has no entry id")

func NewLedgerEntryMessage(userID, entryID int64) *LedgerEntryMessage {
	return &LedgerEntryMessage{
		MessageID: uuid.NewString(),
		EntryID:   entryID,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerEntryMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEntryMessageFromJSON decodes a message and rejects one without an
// entry id.
func LedgerEntryMessageFromJSON(data []byte) (*LedgerEntryMessage, error) {
	var msg LedgerEntryMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.EntryID <= 0 {
		return nil, errMissingEntryID
	}
	return &msg, nil
}
