package usecase

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/ponyo877/vivachat/client/domain"
)

var (
	ErrNoCredential    = errors.New("no usable credential, log in first")
	ErrNotJoined       = errors.New("not in a room")
	ErrAlreadyJoined   = errors.New("already in a room")
	ErrNotConnected    = errors.New("not connected")
	ErrSessionClosed   = errors.New("session closed")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrFilesNotAllowed = errors.New("room does not accept files")
	ErrFileTooLarge    = errors.New("file exceeds the room limit")
	ErrRoomNotLoaded   = errors.New("room details not loaded yet")
)

type TransportEventKind int

const (
	TransportConnecting TransportEventKind = iota
	TransportConnected
	TransportDisconnected
	TransportFrame
)

// TransportEvent is a connection state change or a frame received on a
// subscribed topic.
type TransportEvent struct {
	Kind  TransportEventKind
	Topic string
	Body  []byte
	Err   error
}

type Subscription interface {
	Unsubscribe() error
}

// Transport is a reconnecting publish/subscribe session. Subscriptions do
// not survive a reconnect: after every TransportConnected the caller
// subscribes again.
type Transport interface {
	// Activate starts connecting in the background and returns. ctx bounds
	// the lifetime of the connection loop. The handler is called from the
	// transport's goroutines and must return promptly.
	Activate(ctx context.Context, bearer string, handler func(TransportEvent)) error
	Subscribe(topic string) (Subscription, error)
	Publish(destination string, body []byte) error
	Deactivate(ctx context.Context) error
	Connected() bool
}

type RoomAPI interface {
	FetchSnapshot(ctx context.Context, roomID int64) (domain.RoomSnapshot, error)
}

type MessageFetcher interface {
	FetchMessage(ctx context.Context, id domain.MessageID) (domain.Message, error)
}

type MessageAPI interface {
	MessageFetcher
	DeleteMessage(ctx context.Context, id domain.MessageID) error
	SendFileMessage(ctx context.Context, roomID int64, upload FileUpload) (domain.Message, error)
}

type CredentialStore interface {
	Load(ctx context.Context) (domain.Credential, error)
}

type EventDecoder interface {
	Decode(topic string, body []byte) domain.Event
}

type FileUpload struct {
	Name    string
	Size    int64
	Caption string
	Content io.Reader
}

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarn
	NoticeError
)

func (l NoticeLevel) String() string {
	switch l {
	case NoticeWarn:
		return "warn"
	case NoticeError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a transient message for the user, shown as a toast.
type Notice struct {
	Level  NoticeLevel
	Title  string
	Detail string
	At     time.Time
}

// View is an immutable snapshot of a room session. Slices must not be
// modified by readers.
type View struct {
	RoomID     int64
	Room       domain.Room
	State      domain.SessionState
	Connected  bool
	Loaded     bool
	Messages   []domain.Message
	Typing     []string
	TypingText string
	Presence   []string
}

// Repository backs the flows outside a room session: authentication and
// room membership.
type Repository interface {
	// Auth
	GuestLogin(ctx context.Context, nickname string) (domain.Credential, error)
	Login(ctx context.Context, username, password string) (domain.Credential, error)
	Logout(ctx context.Context) error

	// Rooms
	ListRooms(ctx context.Context) ([]domain.Room, error)
	MyRooms(ctx context.Context) ([]domain.Room, error)
	CreateRoom(ctx context.Context, req CreateRoomInput) (domain.Room, string, error)
	JoinRoom(ctx context.Context, code, pin, deviceID string) (domain.RoomSnapshot, error)
	LeaveRoom(ctx context.Context, roomID int64) error

	// Messages
	RoomMessages(ctx context.Context, roomID int64) ([]domain.Message, error)
	SendTextMessage(ctx context.Context, roomID int64, content string) (domain.Message, error)
}

// LocalStore persists the credential and the device id between runs.
type LocalStore interface {
	CredentialStore
	Save(ctx context.Context, cred domain.Credential) error
	Clear(ctx context.Context) error
	DeviceID(ctx context.Context) (string, error)
}

type CreateRoomInput struct {
	Name          string
	Description   string
	Pin           string
	Type          domain.RoomType
	MaxUsers      int
	MaxFileSizeMB int
}
