package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ponyo877/vivachat/client/domain"
)

// Usecase covers the flows outside a room session.
type Usecase struct {
	repo  Repository
	store LocalStore
	now   func() time.Time
}

func NewUsecase(repo Repository, store LocalStore) *Usecase {
	return &Usecase{
		repo:  repo,
		store: store,
		now:   time.Now,
	}
}

func (u *Usecase) GuestLogin(ctx context.Context, nickname string) (domain.Credential, error) {
	cred, err := u.repo.GuestLogin(ctx, strings.TrimSpace(nickname))
	if err != nil {
		return domain.Credential{}, fmt.Errorf("error logging in as guest: %w", err)
	}
	return cred, u.save(ctx, cred)
}

func (u *Usecase) Login(ctx context.Context, username, password string) (domain.Credential, error) {
	cred, err := u.repo.Login(ctx, username, password)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("error logging in: %w", err)
	}
	return cred, u.save(ctx, cred)
}

func (u *Usecase) save(ctx context.Context, cred domain.Credential) error {
	if err := u.store.Save(ctx, cred); err != nil {
		return fmt.Errorf("error saving credential: %w", err)
	}
	return nil
}

// Logout revokes the token on the server when possible and always forgets
// it locally.
func (u *Usecase) Logout(ctx context.Context) error {
	remoteErr := u.repo.Logout(ctx)
	if err := u.store.Clear(ctx); err != nil {
		return fmt.Errorf("error clearing credential: %w", err)
	}
	if remoteErr != nil {
		return fmt.Errorf("error logging out: %w", remoteErr)
	}
	return nil
}

func (u *Usecase) WhoAmI(ctx context.Context) (domain.Credential, error) {
	cred, err := u.store.Load(ctx)
	if err != nil || !cred.Valid(u.now()) {
		return domain.Credential{}, ErrNoCredential
	}
	return cred, nil
}

func (u *Usecase) ListRooms(ctx context.Context, mine bool) ([]domain.Room, error) {
	var (
		rooms []domain.Room
		err   error
	)
	if mine {
		rooms, err = u.repo.MyRooms(ctx)
	} else {
		rooms, err = u.repo.ListRooms(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("error listing rooms: %w", err)
	}
	return rooms, nil
}

func (u *Usecase) CreateRoom(ctx context.Context, in CreateRoomInput) (domain.Room, string, error) {
	if in.Type == "" {
		in.Type = domain.RoomTypeText
	}
	room, pin, err := u.repo.CreateRoom(ctx, in)
	if err != nil {
		return domain.Room{}, "", fmt.Errorf("error creating room: %w", err)
	}
	return room, pin, nil
}

// JoinRoom registers membership by code and PIN, identifying this machine
// with its persistent device id.
func (u *Usecase) JoinRoom(ctx context.Context, code, pin string) (domain.RoomSnapshot, error) {
	deviceID, err := u.store.DeviceID(ctx)
	if err != nil {
		return domain.RoomSnapshot{}, fmt.Errorf("error getting device id: %w", err)
	}
	snap, err := u.repo.JoinRoom(ctx, strings.ToUpper(strings.TrimSpace(code)), pin, deviceID)
	if err != nil {
		return domain.RoomSnapshot{}, fmt.Errorf("error joining room: %w", err)
	}
	return snap, nil
}

func (u *Usecase) LeaveRoom(ctx context.Context, roomID int64) error {
	if err := u.repo.LeaveRoom(ctx, roomID); err != nil {
		return fmt.Errorf("error leaving room: %w", err)
	}
	return nil
}

// History returns the stored messages of a room in display order.
func (u *Usecase) History(ctx context.Context, roomID int64) ([]domain.Message, error) {
	messages, err := u.repo.RoomMessages(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("error listing messages: %w", err)
	}
	return domain.Merge(messages, nil, nil), nil
}

func (u *Usecase) SendText(ctx context.Context, roomID int64, content string) (domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Message{}, ErrEmptyMessage
	}
	m, err := u.repo.SendTextMessage(ctx, roomID, content)
	if err != nil {
		return domain.Message{}, fmt.Errorf("error sending message: %w", err)
	}
	return m, nil
}
