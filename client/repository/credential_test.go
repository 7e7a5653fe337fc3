package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ponyo877/vivachat/client/domain"
)

func openStore(t *testing.T) *CredentialStore {
	t.Helper()
	s, err := OpenCredentialStore(filepath.Join(t.TempDir(), "vivachat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCredentialStore(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	exp := time.UnixMilli(time.Now().Add(time.Hour).UnixMilli())
	cred := domain.Credential{
		AccessToken: "tok",
		TokenType:   "Bearer",
		ExpiresAt:   exp,
		UserID:      4,
		DisplayName: "mia",
		IsGuest:     true,
	}
	require.NoError(t, s.Save(ctx, cred))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, cred.AccessToken, got.AccessToken)
	assert.True(t, exp.Equal(got.ExpiresAt))
	assert.Equal(t, int64(4), got.UserID)
	assert.True(t, got.IsGuest)

	cred.AccessToken = "tok2"
	cred.IsGuest = false
	require.NoError(t, s.Save(ctx, cred))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok2", got.AccessToken)
	assert.False(t, got.IsGuest)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCredentialStoreReadsTokenExpiry(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, domain.Credential{AccessToken: token}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, exp.Equal(got.ExpiresAt))
	assert.True(t, got.Valid(time.Now()))
}

func TestDeviceIDIsStable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vivachat.db")

	s, err := OpenCredentialStore(path)
	require.NoError(t, err)
	first, err := s.DeviceID(ctx)
	require.NoError(t, err)
	again, err := s.DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	require.NoError(t, s.Close())

	reopened, err := OpenCredentialStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	afterRestart, err := reopened.DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, afterRestart)
	assert.Len(t, first, 26)
}

func TestTokenExpiry(t *testing.T) {
	_, ok := TokenExpiry("")
	assert.False(t, ok)
	_, ok = TokenExpiry("not.a.jwt")
	assert.False(t, ok)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, ok = TokenExpiry(token)
	assert.False(t, ok)
}
