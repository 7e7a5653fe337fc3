package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ponyo877/vivachat/client/domain"
	"github.com/ponyo877/vivachat/client/usecase"
)

func TestUsecaseLogin(t *testing.T) {
	repo := &MockRepository{}
	store := &MockLocalStore{}
	var saved domain.Credential
	store.SaveFunc = func(ctx context.Context, cred domain.Credential) error {
		saved = cred
		return nil
	}
	uc := usecase.NewUsecase(repo, store)

	cred, err := uc.GuestLogin(context.Background(), "  ana ")
	require.NoError(t, err)
	assert.Equal(t, "ana", cred.DisplayName)
	assert.Equal(t, cred, saved)

	mockErr := errors.New("bad password")
	repo.LoginFunc = func(ctx context.Context, username, password string) (domain.Credential, error) {
		return domain.Credential{}, mockErr
	}
	_, err = uc.Login(context.Background(), "admin", "x")
	assert.ErrorIs(t, err, mockErr)
	assert.Equal(t, "ana", saved.DisplayName)
}

func TestUsecaseLogoutClearsEvenWhenServerFails(t *testing.T) {
	repo := &MockRepository{LogoutFunc: func(ctx context.Context) error { return errors.New("401") }}
	cleared := false
	store := &MockLocalStore{ClearFunc: func(ctx context.Context) error {
		cleared = true
		return nil
	}}
	err := usecase.NewUsecase(repo, store).Logout(context.Background())
	assert.Error(t, err)
	assert.True(t, cleared)
}

func TestUsecaseWhoAmI(t *testing.T) {
	store := &MockLocalStore{}
	uc := usecase.NewUsecase(&MockRepository{}, store)

	cred, err := uc.WhoAmI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ana", cred.DisplayName)

	store.LoadFunc = func(ctx context.Context) (domain.Credential, error) {
		return domain.Credential{AccessToken: "x", ExpiresAt: time.Now().Add(-time.Hour)}, nil
	}
	_, err = uc.WhoAmI(context.Background())
	assert.ErrorIs(t, err, usecase.ErrNoCredential)
}

func TestUsecaseJoinRoom(t *testing.T) {
	var got [3]string
	repo := &MockRepository{JoinRoomFunc: func(ctx context.Context, code, pin, deviceID string) (domain.RoomSnapshot, error) {
		got = [3]string{code, pin, deviceID}
		return domain.RoomSnapshot{Room: domain.Room{ID: 9, Code: code}}, nil
	}}
	snap, err := usecase.NewUsecase(repo, &MockLocalStore{}).JoinRoom(context.Background(), " ab12cd ", "1234")
	require.NoError(t, err)
	assert.Equal(t, int64(9), snap.Room.ID)
	assert.Equal(t, [3]string{"AB12CD", "1234", "device-1"}, got)
}

func TestUsecaseHistoryIsOrdered(t *testing.T) {
	repo := &MockRepository{RoomMessagesFunc: func(ctx context.Context, roomID int64) ([]domain.Message, error) {
		return []domain.Message{
			domain.NewTextMessage(2, roomID, "b", "second", t0.Add(time.Second)),
			domain.NewTextMessage(1, roomID, "a", "first", t0),
		}, nil
	}}
	msgs, err := usecase.NewUsecase(repo, &MockLocalStore{}).History(context.Background(), roomID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
}

func TestUsecaseSendText(t *testing.T) {
	uc := usecase.NewUsecase(&MockRepository{}, &MockLocalStore{})
	_, err := uc.SendText(context.Background(), roomID, " ")
	assert.ErrorIs(t, err, usecase.ErrEmptyMessage)

	m, err := uc.SendText(context.Background(), roomID, "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", m.Content)
}

func TestUsecaseCreateRoomDefaultsToText(t *testing.T) {
	room, pin, err := usecase.NewUsecase(&MockRepository{}, &MockLocalStore{}).
		CreateRoom(context.Background(), usecase.CreateRoomInput{Name: "General", Pin: "1234"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoomTypeText, room.Type)
	assert.Equal(t, "1234", pin)
}
