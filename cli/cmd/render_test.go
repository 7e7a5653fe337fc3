package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ponyo877/vivachat/client/domain"
)

func TestFormatMessage(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 5, 7, 0, time.Local)

	tests := []struct {
		name  string
		msg   domain.Message
		color bool
		want  string
	}{
		{
			name: "text",
			msg:  domain.NewTextMessage(1, 2, "ana", "hello", at),
			want: "[09:05:07] ana: hello",
		},
		{
			name: "deleted hides content",
			msg:  domain.Message{ID: 1, Content: "secret", IsDeleted: true, SenderNickname: "ana", SentAt: at},
			want: "[09:05:07] ana: message deleted",
		},
		{
			name: "edited",
			msg:  domain.Message{ID: 1, Content: "fixed", IsEdited: true, SenderNickname: "ana", SentAt: at},
			want: "[09:05:07] ana: fixed (edited)",
		},
		{
			name: "file with attachment",
			msg: domain.Message{
				ID: 3, Content: "File attachment", Type: domain.MessageTypeFile, SenderNickname: "bo", SentAt: at,
				Attachments: []domain.Attachment{{FileName: "x1.png", OriginalFileName: "cat.png", FileSize: 2048}},
			},
			want: "[09:05:07] bo: File attachment\n    cat.png (2.0 KiB)",
		},
		{
			name: "file still hydrating",
			msg:  domain.Message{ID: 3, Content: "doc", Type: domain.MessageTypeFile, SenderNickname: "bo", SentAt: at},
			want: "[09:05:07] bo: doc [loading attachment]",
		},
		{
			name: "missing sender and time",
			msg:  domain.Message{ID: 4, Content: "hi"},
			want: "[--:--:--] unknown: hi",
		},
		{
			name:  "color escapes user text",
			msg:   domain.NewTextMessage(1, 2, "ana", "[red]boo", at),
			color: true,
			want:  "[white][09:05:07] [blue]ana[white]: [red[]boo",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatMessage(tt.msg, tt.color))
		})
	}
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", humanSize(512))
	assert.Equal(t, "1.5 KiB", humanSize(1536))
	assert.Equal(t, "10.0 MiB", humanSize(10*1024*1024))
}

func TestFormatRoom(t *testing.T) {
	r := domain.Room{ID: 7, Code: "ABC123", Name: "lobby", Type: domain.RoomTypeText, MaxUsers: 10, CurrentUsers: 10, IsActive: true, IsFull: true}
	assert.Equal(t, "7      ABC123   TEXT        10/10  full   lobby", formatRoom(r))
}
