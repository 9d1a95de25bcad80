package amqp

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewLedgerEntryMessage(t *testing.T) {
	msg := NewLedgerEntryMessage(7, 12345)

	require.Equal(t, int64(12345), msg.EntryID)
	require.Equal(t, int64(7), msg.UserID)
	_, err := uuid.Parse(msg.MessageID)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now(), msg.Timestamp, time.Second)

	require.NotEqual(t, msg.MessageID, NewLedgerEntryMessage(7, 12345).MessageID)
}

func TestLedgerEntryMessage_JSON(t *testing.T) {
	msg := &LedgerEntryMessage{
		MessageID: "b7a4c0de-0000-4000-8000-000000000001",
		EntryID:   12345,
		UserID:    7,
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := msg.ToJSON()
	require.NoError(t, err)
	require.Contains(t, string(data), `"entry_id":12345`)

	parsed, err := LedgerEntryMessageFromJSON(data)
	require.NoError(t, err)
	require.Equal(t, msg.MessageID, parsed.MessageID)
	require.Equal(t, msg.EntryID, parsed.EntryID)
	require.Equal(t, msg.UserID, parsed.UserID)
	require.True(t, parsed.Timestamp.Equal(msg.Timestamp))
}

func TestLedgerEntryMessageFromJSON_Invalid(t *testing.T) {
	for _, body := range []string{
		`{"entry_id": "not_a_number"}`,
		`{"user_id": 1}`,
		`not json`,
	} {
		_, err := LedgerEntryMessageFromJSON([]byte(body))
		require.Error(t, err, body)
	}
}
