package usecase_test

import (
	"context"
	"errors"
	"sync"

	"github.com/ponyo877/vivachat/client/domain"
	"github.com/ponyo877/vivachat/client/usecase"
)

type MockRoomAPI struct {
	FetchSnapshotFunc func(ctx context.Context, roomID int64) (domain.RoomSnapshot, error)
}

func (m *MockRoomAPI) FetchSnapshot(ctx context.Context, roomID int64) (domain.RoomSnapshot, error) {
	if m.FetchSnapshotFunc != nil {
		return m.FetchSnapshotFunc(ctx, roomID)
	}
	return domain.RoomSnapshot{Room: domain.Room{ID: roomID, Type: domain.RoomTypeText}}, nil
}

type MockMessageAPI struct {
	FetchMessageFunc    func(ctx context.Context, id domain.MessageID) (domain.Message, error)
	DeleteMessageFunc   func(ctx context.Context, id domain.MessageID) error
	SendFileMessageFunc func(ctx context.Context, roomID int64, upload usecase.FileUpload) (domain.Message, error)

	mu      sync.Mutex
	fetched []domain.MessageID
}

func (m *MockMessageAPI) FetchMessage(ctx context.Context, id domain.MessageID) (domain.Message, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, id)
	m.mu.Unlock()
	if m.FetchMessageFunc != nil {
		return m.FetchMessageFunc(ctx, id)
	}
	return domain.Message{}, errors.New("not found")
}

func (m *MockMessageAPI) Fetched() []domain.MessageID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.MessageID(nil), m.fetched...)
}

func (m *MockMessageAPI) DeleteMessage(ctx context.Context, id domain.MessageID) error {
	if m.DeleteMessageFunc != nil {
		return m.DeleteMessageFunc(ctx, id)
	}
	return nil
}

func (m *MockMessageAPI) SendFileMessage(ctx context.Context, roomID int64, upload usecase.FileUpload) (domain.Message, error) {
	if m.SendFileMessageFunc != nil {
		return m.SendFileMessageFunc(ctx, roomID, upload)
	}
	return domain.Message{ID: 1, RoomID: roomID, Type: domain.MessageTypeFile, Content: upload.Caption}, nil
}

type MockCredentialStore struct {
	LoadFunc func(ctx context.Context) (domain.Credential, error)
}

func (m *MockCredentialStore) Load(ctx context.Context) (domain.Credential, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return domain.Credential{AccessToken: "token", TokenType: "Bearer", DisplayName: "ana"}, nil
}

type MockRepository struct {
	GuestLoginFunc      func(ctx context.Context, nickname string) (domain.Credential, error)
	LoginFunc           func(ctx context.Context, username, password string) (domain.Credential, error)
	LogoutFunc          func(ctx context.Context) error
	ListRoomsFunc       func(ctx context.Context) ([]domain.Room, error)
	MyRoomsFunc         func(ctx context.Context) ([]domain.Room, error)
	CreateRoomFunc      func(ctx context.Context, in usecase.CreateRoomInput) (domain.Room, string, error)
	JoinRoomFunc        func(ctx context.Context, code, pin, deviceID string) (domain.RoomSnapshot, error)
	LeaveRoomFunc       func(ctx context.Context, roomID int64) error
	RoomMessagesFunc    func(ctx context.Context, roomID int64) ([]domain.Message, error)
	SendTextMessageFunc func(ctx context.Context, roomID int64, content string) (domain.Message, error)
}

func (m *MockRepository) GuestLogin(ctx context.Context, nickname string) (domain.Credential, error) {
	if m.GuestLoginFunc != nil {
		return m.GuestLoginFunc(ctx, nickname)
	}
	return domain.Credential{AccessToken: "guest", DisplayName: nickname, IsGuest: true}, nil
}

func (m *MockRepository) Login(ctx context.Context, username, password string) (domain.Credential, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password)
	}
	return domain.Credential{AccessToken: "admin", DisplayName: username}, nil
}

func (m *MockRepository) Logout(ctx context.Context) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx)
	}
	return nil
}

func (m *MockRepository) ListRooms(ctx context.Context) ([]domain.Room, error) {
	if m.ListRoomsFunc != nil {
		return m.ListRoomsFunc(ctx)
	}
	return nil, nil
}

func (m *MockRepository) MyRooms(ctx context.Context) ([]domain.Room, error) {
	if m.MyRoomsFunc != nil {
		return m.MyRoomsFunc(ctx)
	}
	return nil, nil
}

func (m *MockRepository) CreateRoom(ctx context.Context, in usecase.CreateRoomInput) (domain.Room, string, error) {
	if m.CreateRoomFunc != nil {
		return m.CreateRoomFunc(ctx, in)
	}
	return domain.Room{ID: 1, Name: in.Name, Type: in.Type}, in.Pin, nil
}

func (m *MockRepository) JoinRoom(ctx context.Context, code, pin, deviceID string) (domain.RoomSnapshot, error) {
	if m.JoinRoomFunc != nil {
		return m.JoinRoomFunc(ctx, code, pin, deviceID)
	}
	return domain.RoomSnapshot{Room: domain.Room{ID: 1, Code: code}}, nil
}

func (m *MockRepository) LeaveRoom(ctx context.Context, roomID int64) error {
	if m.LeaveRoomFunc != nil {
		return m.LeaveRoomFunc(ctx, roomID)
	}
	return nil
}

func (m *MockRepository) RoomMessages(ctx context.Context, roomID int64) ([]domain.Message, error) {
	if m.RoomMessagesFunc != nil {
		return m.RoomMessagesFunc(ctx, roomID)
	}
	return nil, nil
}

func (m *MockRepository) SendTextMessage(ctx context.Context, roomID int64, content string) (domain.Message, error) {
	if m.SendTextMessageFunc != nil {
		return m.SendTextMessageFunc(ctx, roomID, content)
	}
	return domain.Message{ID: 1, RoomID: roomID, Content: content}, nil
}

type MockLocalStore struct {
	MockCredentialStore
	SaveFunc     func(ctx context.Context, cred domain.Credential) error
	ClearFunc    func(ctx context.Context) error
	DeviceIDFunc func(ctx context.Context) (string, error)
}

func (m *MockLocalStore) Save(ctx context.Context, cred domain.Credential) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, cred)
	}
	return nil
}

func (m *MockLocalStore) Clear(ctx context.Context) error {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx)
	}
	return nil
}

func (m *MockLocalStore) DeviceID(ctx context.Context) (string, error) {
	if m.DeviceIDFunc != nil {
		return m.DeviceIDFunc(ctx)
	}
	return "device-1", nil
}
