package domain

import (
	"slices"
	"time"
)

type MessageID int64

type MessageType string

const (
	MessageTypeText MessageType = "TEXT"
	MessageTypeFile MessageType = "FILE"
)

type Attachment struct {
	ID               int64
	FileName         string
	OriginalFileName string
	FileType         string
	FileSize         int64
	FileURL          string
}

// DisplayName prefers the name the uploader chose over the storage name.
func (a Attachment) DisplayName() string {
	if a.OriginalFileName != "" {
		return a.OriginalFileName
	}
	return a.FileName
}

type Message struct {
	ID             MessageID
	Content        string
	Type           MessageType
	SentAt         time.Time
	IsEdited       bool
	IsDeleted      bool
	SenderNickname string
	SenderID       int64
	RoomID         int64
	Attachments    []Attachment
}

func NewTextMessage(id MessageID, roomID int64, sender string, content string, sentAt time.Time) Message {
	return Message{
		ID:             id,
		Content:        content,
		Type:           MessageTypeText,
		SentAt:         sentAt,
		SenderNickname: sender,
		RoomID:         roomID,
	}
}

// IsIncomplete reports whether the record is a file message that arrived
// without its attachment list.
func (m Message) IsIncomplete() bool {
	return m.Type == MessageTypeFile && len(m.Attachments) == 0
}

func (m Message) clone() Message {
	m.Attachments = cloneAttachments(m.Attachments)
	return m
}

// tombstone clears everything a deleted message must not show.
func (m Message) tombstone() Message {
	m.IsDeleted = true
	m.Content = ""
	m.Attachments = nil
	return m
}

func cloneAttachments(in []Attachment) []Attachment {
	if len(in) == 0 {
		return nil
	}
	return slices.Clone(in)
}

// MessagePatch is a message as carried by a live event. Nil fields were not
// present in the payload and leave the existing record untouched. An empty
// attachment list counts as absent.
type MessagePatch struct {
	ID             MessageID
	Content        *string
	Type           *MessageType
	SentAt         *time.Time
	IsEdited       *bool
	IsDeleted      *bool
	SenderNickname *string
	SenderID       *int64
	RoomID         *int64
	Attachments    []Attachment
}

// PatchOf turns a complete record (a hydration result) into a patch that
// carries every field.
func PatchOf(m Message) MessagePatch {
	return MessagePatch{
		ID:             m.ID,
		Content:        &m.Content,
		Type:           &m.Type,
		SentAt:         &m.SentAt,
		IsEdited:       &m.IsEdited,
		IsDeleted:      &m.IsDeleted,
		SenderNickname: &m.SenderNickname,
		SenderID:       &m.SenderID,
		RoomID:         &m.RoomID,
		Attachments:    cloneAttachments(m.Attachments),
	}
}

// Apply overlays the patch onto m. IsDeleted never reverts to false.
func (p MessagePatch) Apply(m Message) Message {
	m = m.clone()
	m.ID = p.ID
	if p.Content != nil {
		m.Content = *p.Content
	}
	if p.Type != nil {
		m.Type = *p.Type
	}
	if p.SentAt != nil {
		m.SentAt = *p.SentAt
	}
	if p.IsEdited != nil {
		m.IsEdited = *p.IsEdited
	}
	if p.IsDeleted != nil {
		m.IsDeleted = m.IsDeleted || *p.IsDeleted
	}
	if p.SenderNickname != nil {
		m.SenderNickname = *p.SenderNickname
	}
	if p.SenderID != nil {
		m.SenderID = *p.SenderID
	}
	if p.RoomID != nil {
		m.RoomID = *p.RoomID
	}
	if len(p.Attachments) > 0 {
		m.Attachments = cloneAttachments(p.Attachments)
	}
	return m
}

// Compose returns a patch equivalent to applying p and then next.
func (p MessagePatch) Compose(next MessagePatch) MessagePatch {
	out := p
	out.Attachments = cloneAttachments(p.Attachments)
	if next.Content != nil {
		out.Content = next.Content
	}
	if next.Type != nil {
		out.Type = next.Type
	}
	if next.SentAt != nil {
		out.SentAt = next.SentAt
	}
	if next.IsEdited != nil {
		out.IsEdited = next.IsEdited
	}
	if next.IsDeleted != nil {
		deleted := *next.IsDeleted || (p.IsDeleted != nil && *p.IsDeleted)
		out.IsDeleted = &deleted
	}
	if next.SenderNickname != nil {
		out.SenderNickname = next.SenderNickname
	}
	if next.SenderID != nil {
		out.SenderID = next.SenderID
	}
	if next.RoomID != nil {
		out.RoomID = next.RoomID
	}
	if len(next.Attachments) > 0 {
		out.Attachments = cloneAttachments(next.Attachments)
	}
	return out
}
