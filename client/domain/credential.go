package domain

import "time"

type Credential struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	UserID      int64
	DisplayName string
	IsGuest     bool
}

// Valid reports whether the credential can open a session at now. A zero
// ExpiresAt means the server did not say.
func (c Credential) Valid(now time.Time) bool {
	if c.AccessToken == "" {
		return false
	}
	return c.ExpiresAt.IsZero() || now.Before(c.ExpiresAt)
}

func (c Credential) Bearer() string {
	return "Bearer " + c.AccessToken
}
