// Package wire holds the JSON shapes exchanged with the chat backend, both
// over REST and inside real-time frames, and their conversion to domain
// values.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ponyo877/vivachat/client/domain"
)

// Timestamp accepts RFC 3339 as well as the zone-less local date-times the
// backend emits. Zone-less values are read as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", s)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}

// Response is the envelope every REST endpoint answers with.
type Response[T any] struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      T         `json:"data"`
	Timestamp Timestamp `json:"timestamp"`
}

type Attachment struct {
	ID               int64  `json:"id"`
	FileName         string `json:"fileName"`
	OriginalFileName string `json:"originalFileName,omitempty"`
	FileType         string `json:"fileType"`
	FileSize         int64  `json:"fileSize"`
	FileURL          string `json:"fileUrl"`
}

func (a Attachment) Domain() domain.Attachment {
	return domain.Attachment{
		ID:               a.ID,
		FileName:         a.FileName,
		OriginalFileName: a.OriginalFileName,
		FileType:         a.FileType,
		FileSize:         a.FileSize,
		FileURL:          a.FileURL,
	}
}

// Message decodes a message record. Pointer fields distinguish a field the
// payload omitted from one carrying the zero value.
type Message struct {
	ID             int64        `json:"id" validate:"gt=0"`
	Content        *string      `json:"content"`
	MessageType    *string      `json:"messageType"`
	SentAt         *Timestamp   `json:"sentAt"`
	IsEdited       *bool        `json:"isEdited"`
	IsDeleted      *bool        `json:"isDeleted"`
	SenderNickname *string      `json:"senderNickname"`
	SenderID       *int64       `json:"senderId"`
	RoomID         *int64       `json:"roomId"`
	Attachments    []Attachment `json:"attachments"`
}

func (m Message) attachments() []domain.Attachment {
	if len(m.Attachments) == 0 {
		return nil
	}
	out := make([]domain.Attachment, len(m.Attachments))
	for i, a := range m.Attachments {
		out[i] = a.Domain()
	}
	return out
}

func (m Message) Patch() domain.MessagePatch {
	p := domain.MessagePatch{
		ID:             domain.MessageID(m.ID),
		Content:        m.Content,
		IsEdited:       m.IsEdited,
		IsDeleted:      m.IsDeleted,
		SenderNickname: m.SenderNickname,
		SenderID:       m.SenderID,
		RoomID:         m.RoomID,
		Attachments:    m.attachments(),
	}
	if m.MessageType != nil {
		typ := domain.MessageType(*m.MessageType)
		p.Type = &typ
	}
	if m.SentAt != nil {
		at := m.SentAt.Time
		p.SentAt = &at
	}
	return p
}

// Domain reads the payload as a complete record.
func (m Message) Domain() domain.Message {
	return m.Patch().Apply(domain.Message{})
}

type Room struct {
	ID            int64     `json:"id"`
	RoomCode      string    `json:"roomCode"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Type          string    `json:"type"`
	MaxUsers      int       `json:"maxUsers"`
	CurrentUsers  int       `json:"currentUsers"`
	MaxFileSizeMB int       `json:"maxFileSizeMb,omitempty"`
	IsActive      bool      `json:"isActive"`
	IsFull        bool      `json:"isFull"`
	CreatedAt     Timestamp `json:"createdAt"`
	PlainPin      string    `json:"plainPin,omitempty"`
}

func (r Room) Domain() domain.Room {
	return domain.Room{
		ID:            r.ID,
		Code:          r.RoomCode,
		Name:          r.Name,
		Description:   r.Description,
		Type:          domain.RoomType(r.Type),
		MaxUsers:      r.MaxUsers,
		CurrentUsers:  r.CurrentUsers,
		MaxFileSizeMB: r.MaxFileSizeMB,
		IsActive:      r.IsActive,
		IsFull:        r.IsFull,
		CreatedAt:     r.CreatedAt.Time,
	}
}

type Session struct {
	ID             int64     `json:"id"`
	NicknameInRoom string    `json:"nicknameInRoom"`
	JoinedAt       Timestamp `json:"joinedAt"`
	IsActive       bool      `json:"isActive"`
	IPAddress      string    `json:"ipAddress,omitempty"`
}

// RoomDetail is returned both by /rooms/join and /rooms/{id}/details.
type RoomDetail struct {
	Room             Room      `json:"room"`
	ActiveSessions   []Session `json:"activeSessions"`
	RecentMessages   []Message `json:"recentMessages"`
	ActiveUsersCount int       `json:"activeUsersCount"`
}

func (d RoomDetail) Snapshot() domain.RoomSnapshot {
	snap := domain.RoomSnapshot{
		Room:           d.Room.Domain(),
		ActiveSessions: make([]domain.ActiveSession, len(d.ActiveSessions)),
		RecentMessages: Messages(d.RecentMessages),
	}
	for i, s := range d.ActiveSessions {
		snap.ActiveSessions[i] = domain.ActiveSession{
			ID:             s.ID,
			NicknameInRoom: s.NicknameInRoom,
			JoinedAt:       s.JoinedAt.Time,
			IsActive:       s.IsActive,
		}
	}
	return snap
}

func Messages(in []Message) []domain.Message {
	out := make([]domain.Message, len(in))
	for i, m := range in {
		out[i] = m.Domain()
	}
	return out
}
