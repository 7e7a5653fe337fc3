package domain

import "time"

type EventKind int

const (
	EventUnknown EventKind = iota
	EventMessage
	EventDeletion
	EventTyping
	EventPresence
	EventSystem
	EventRaw
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventDeletion:
		return "deletion"
	case EventTyping:
		return "typing"
	case EventPresence:
		return "presence"
	case EventSystem:
		return "system"
	case EventRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Event is a decoded real-time event for one room.
type Event interface {
	Kind() EventKind
	Room() int64
}

type MessageEvent struct {
	RoomID int64
	Patch  MessagePatch
}

type DeletionEvent struct {
	RoomID    int64
	MessageID MessageID
	At        time.Time
}

type TypingSignal struct {
	RoomID int64
	TypingEvent
}

type PresenceSignal struct {
	RoomID int64
	PresenceEvent
}

type SystemEvent struct {
	RoomID  int64
	Content string
	Type    string
	At      time.Time
}

// RawEvent carries a frame that could not be decoded into a typed event.
type RawEvent struct {
	RoomID int64
	Topic  string
	Body   []byte
	Err    error
}

func (MessageEvent) Kind() EventKind   { return EventMessage }
func (DeletionEvent) Kind() EventKind  { return EventDeletion }
func (TypingSignal) Kind() EventKind   { return EventTyping }
func (PresenceSignal) Kind() EventKind { return EventPresence }
func (SystemEvent) Kind() EventKind    { return EventSystem }
func (RawEvent) Kind() EventKind       { return EventRaw }

func (e MessageEvent) Room() int64   { return e.RoomID }
func (e DeletionEvent) Room() int64  { return e.RoomID }
func (e TypingSignal) Room() int64   { return e.RoomID }
func (e PresenceSignal) Room() int64 { return e.RoomID }
func (e SystemEvent) Room() int64    { return e.RoomID }
func (e RawEvent) Room() int64       { return e.RoomID }

func (e RawEvent) String() string {
	if e.Err != nil {
		return e.Topic + ": " + e.Err.Error()
	}
	return e.Topic + ": " + string(e.Body)
}
