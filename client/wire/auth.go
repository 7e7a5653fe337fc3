package wire

// REST request and response bodies outside the room state synchronizer.

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type GuestLoginRequest struct {
	Nickname string `json:"nickname" validate:"required,min=2,max=50"`
}

type UserInfo struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type GuestInfo struct {
	ID        int64     `json:"id"`
	Nickname  string    `json:"nickname"`
	ExpiresAt Timestamp `json:"expiresAt"`
}

type AuthResponse struct {
	AccessToken string     `json:"accessToken"`
	TokenType   string     `json:"tokenType"`
	ExpiresIn   int64      `json:"expiresIn"`
	UserInfo    *UserInfo  `json:"userInfo,omitempty"`
	GuestInfo   *GuestInfo `json:"guestInfo,omitempty"`
}

type CreateRoomRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	Description   string `json:"description,omitempty"`
	Pin           string `json:"pin" validate:"required,numeric,min=4"`
	Type          string `json:"type" validate:"oneof=TEXT MULTIMEDIA"`
	MaxUsers      int    `json:"maxUsers,omitempty" validate:"omitempty,min=2"`
	MaxFileSizeMB int    `json:"maxFileSizeMb,omitempty" validate:"omitempty,min=1"`
}

type JoinRoomRequest struct {
	RoomCode string `json:"roomCode" validate:"required"`
	Pin      string `json:"pin" validate:"required"`
	DeviceID string `json:"deviceId" validate:"required"`
}

type TextMessageRequest struct {
	RoomID  int64  `json:"roomId" validate:"gt=0"`
	Content string `json:"content" validate:"required"`
}
