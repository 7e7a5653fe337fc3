package wire

// Payloads carried by real-time frames.

type Typing struct {
	UserID   *int64 `json:"userId,omitempty"`
	Username string `json:"username" validate:"required"`
	IsTyping bool   `json:"isTyping"`
	RoomID   *int64 `json:"roomId,omitempty"`
}

type UserEvent struct {
	UserID    *int64     `json:"userId,omitempty"`
	Username  string     `json:"username" validate:"required_without=UserID"`
	Action    string     `json:"action" validate:"oneof=JOINED LEFT"`
	Timestamp *Timestamp `json:"timestamp,omitempty"`
}

type Deletion struct {
	MessageID int64      `json:"messageId" validate:"gt=0"`
	RoomID    int64      `json:"roomId,omitempty"`
	Timestamp *Timestamp `json:"timestamp,omitempty"`
}

type System struct {
	Content   string     `json:"content"`
	Type      string     `json:"type,omitempty"`
	Timestamp *Timestamp `json:"timestamp,omitempty"`
}

// Outbound bodies published to /app destinations.

type SendMessage struct {
	RoomID  int64  `json:"roomId"`
	Content string `json:"content"`
}

type TypingSignal struct {
	IsTyping bool `json:"isTyping"`
}
