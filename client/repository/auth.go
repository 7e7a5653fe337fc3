package repository

import (
	"context"
	"net/http"
	"time"

	"github.com/ponyo877/vivachat/client/domain"
	"github.com/ponyo877/vivachat/client/wire"
)

func (c *APIClient) GuestLogin(ctx context.Context, nickname string) (domain.Credential, error) {
	body, err := c.jsonBody(wire.GuestLoginRequest{Nickname: nickname})
	if err != nil {
		return domain.Credential{}, err
	}
	res, err := call[wire.AuthResponse](ctx, c, request{
		method: http.MethodPost, route: "/auth/guest", path: "/auth/guest",
		body: body, contentType: "application/json", anonymous: true,
	})
	if err != nil {
		return domain.Credential{}, err
	}
	return credentialOf(res, time.Now()), nil
}

func (c *APIClient) Login(ctx context.Context, username, password string) (domain.Credential, error) {
	body, err := c.jsonBody(wire.LoginRequest{Username: username, Password: password})
	if err != nil {
		return domain.Credential{}, err
	}
	res, err := call[wire.AuthResponse](ctx, c, request{
		method: http.MethodPost, route: "/auth/login", path: "/auth/login",
		body: body, contentType: "application/json", anonymous: true,
	})
	if err != nil {
		return domain.Credential{}, err
	}
	return credentialOf(res, time.Now()), nil
}

func (c *APIClient) Logout(ctx context.Context) error {
	_, err := call[any](ctx, c, request{method: http.MethodPost, route: "/auth/logout", path: "/auth/logout"})
	return err
}

// credentialOf prefers the exp claim of the token; expiresIn (milliseconds)
// is the fallback.
func credentialOf(res wire.AuthResponse, now time.Time) domain.Credential {
	cred := domain.Credential{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
	}
	if exp, ok := TokenExpiry(res.AccessToken); ok {
		cred.ExpiresAt = exp
	} else if res.ExpiresIn > 0 {
		cred.ExpiresAt = now.Add(time.Duration(res.ExpiresIn) * time.Millisecond)
	}
	switch {
	case res.GuestInfo != nil:
		cred.UserID = res.GuestInfo.ID
		cred.DisplayName = res.GuestInfo.Nickname
		cred.IsGuest = true
		if !res.GuestInfo.ExpiresAt.IsZero() && (cred.ExpiresAt.IsZero() || res.GuestInfo.ExpiresAt.Before(cred.ExpiresAt)) {
			cred.ExpiresAt = res.GuestInfo.ExpiresAt.Time
		}
	case res.UserInfo != nil:
		cred.UserID = res.UserInfo.ID
		cred.DisplayName = res.UserInfo.Username
	}
	return cred
}
