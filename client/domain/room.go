package domain

import "time"

type RoomType string

const (
	RoomTypeText       RoomType = "TEXT"
	RoomTypeMultimedia RoomType = "MULTIMEDIA"
)

type Room struct {
	ID            int64
	Code          string
	Name          string
	Description   string
	Type          RoomType
	MaxUsers      int
	CurrentUsers  int
	MaxFileSizeMB int
	IsActive      bool
	IsFull        bool
	CreatedAt     time.Time
}

func (r Room) AllowsFiles() bool {
	return r.Type == RoomTypeMultimedia
}

// MaxFileSize returns the upload limit in bytes, or 0 when the room does
// not declare one.
func (r Room) MaxFileSize() int64 {
	return int64(r.MaxFileSizeMB) * 1024 * 1024
}

// WithUserDelta adjusts the connected-user counter, never below zero.
func (r Room) WithUserDelta(delta int) Room {
	r.CurrentUsers = max(0, r.CurrentUsers+delta)
	return r
}

type ActiveSession struct {
	ID             int64
	NicknameInRoom string
	JoinedAt       time.Time
	IsActive       bool
}

// RoomSnapshot is the point-in-time state of a room fetched once per join.
type RoomSnapshot struct {
	Room           Room
	ActiveSessions []ActiveSession
	RecentMessages []Message
}
