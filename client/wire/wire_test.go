package wire

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ponyo877/vivachat/client/domain"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 5, 1, 10, 30, 15, 0, time.UTC)
	for _, s := range []string{
		"2025-05-01T10:30:15Z",
		"2025-05-01T12:30:15+02:00",
		"2025-05-01T10:30:15",
		"2025-05-01 10:30:15",
	} {
		got, err := ParseTimestamp(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
	}

	got, err := ParseTimestamp("2025-05-01T10:30:15.123456")
	require.NoError(t, err)
	assert.Equal(t, 123456000, got.Nanosecond())

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestMessagePatch(t *testing.T) {
	t.Run("omitted fields stay nil", func(t *testing.T) {
		var m Message
		require.NoError(t, json.Unmarshal([]byte(`{"id":3,"isEdited":true}`), &m))
		p := m.Patch()
		assert.Equal(t, domain.MessageID(3), p.ID)
		require.NotNil(t, p.IsEdited)
		assert.True(t, *p.IsEdited)
		assert.Nil(t, p.Content)
		assert.Nil(t, p.SentAt)
		assert.Nil(t, p.Type)
	})

	t.Run("full record", func(t *testing.T) {
		raw := `{
			"id": 10, "content": "Archivo adjunto", "messageType": "FILE",
			"sentAt": "2025-05-01T10:00:00", "isEdited": false,
			"senderNickname": "ana", "senderId": 4, "roomId": 7,
			"attachments": [{"id": 1, "fileName": "f_1.png", "originalFileName": "cat.png",
				"fileType": "image/png", "fileSize": 2048, "fileUrl": "/api/v1/files/f_1.png"}]
		}`
		var m Message
		require.NoError(t, json.Unmarshal([]byte(raw), &m))
		got := m.Domain()
		assert.Equal(t, domain.MessageTypeFile, got.Type)
		assert.Equal(t, time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC), got.SentAt)
		assert.Equal(t, int64(7), got.RoomID)
		require.Len(t, got.Attachments, 1)
		assert.Equal(t, "cat.png", got.Attachments[0].DisplayName())
		assert.False(t, got.IsIncomplete())
	})

	t.Run("empty attachments decode as absent", func(t *testing.T) {
		var m Message
		require.NoError(t, json.Unmarshal([]byte(`{"id":1,"messageType":"FILE","attachments":[]}`), &m))
		assert.Nil(t, m.Patch().Attachments)
		assert.True(t, m.Domain().IsIncomplete())
	})
}

func TestRoomDetailSnapshot(t *testing.T) {
	raw := `{"success":true,"message":"ok","data":{
		"room":{"id":7,"roomCode":"AB12CD","name":"General","type":"MULTIMEDIA","maxUsers":10,"currentUsers":2,"maxFileSizeMb":5,"isActive":true,"isFull":false,"createdAt":"2025-05-01T09:00:00"},
		"activeSessions":[{"id":1,"nicknameInRoom":"ana","joinedAt":"2025-05-01T09:10:00","isActive":true}],
		"recentMessages":[{"id":1,"content":"hi","messageType":"TEXT","sentAt":"2025-05-01T09:11:00"}],
		"activeUsersCount":1},"timestamp":"2025-05-01T09:12:00"}`

	var resp Response[RoomDetail]
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	snap := resp.Data.Snapshot()
	assert.Equal(t, "AB12CD", snap.Room.Code)
	assert.True(t, snap.Room.AllowsFiles())
	assert.Equal(t, int64(5*1024*1024), snap.Room.MaxFileSize())
	require.Len(t, snap.ActiveSessions, 1)
	assert.Equal(t, "ana", snap.ActiveSessions[0].NicknameInRoom)
	require.Len(t, snap.RecentMessages, 1)
	assert.Equal(t, "hi", snap.RecentMessages[0].Content)
}
