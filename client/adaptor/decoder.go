// Package adaptor converts real-time frames to domain events and domain
// commands to outbound frame bodies.
package adaptor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ponyo877/vivachat/client/domain"
	"github.com/ponyo877/vivachat/client/wire"
)

type Decoder struct {
	validate *validator.Validate
}

func NewDecoder() *Decoder {
	return &Decoder{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Decode never fails: a frame it cannot interpret comes back as a
// domain.RawEvent carrying the reason.
func (d *Decoder) Decode(topic string, body []byte) domain.Event {
	roomID, kind, err := domain.ParseRoomTopic(topic)
	if err != nil {
		return domain.RawEvent{Topic: topic, Body: body, Err: err}
	}
	raw := func(err error) domain.Event {
		return domain.RawEvent{RoomID: roomID, Topic: topic, Body: body, Err: err}
	}

	switch kind {
	case domain.TopicMessages:
		var m wire.Message
		if err := d.decode(body, &m); err != nil {
			return raw(err)
		}
		return domain.MessageEvent{RoomID: roomID, Patch: m.Patch()}

	case domain.TopicDeleted:
		var del wire.Deletion
		if err := d.decode(body, &del); err != nil {
			return raw(err)
		}
		return domain.DeletionEvent{RoomID: roomID, MessageID: domain.MessageID(del.MessageID), At: stamp(del.Timestamp)}

	case domain.TopicTyping:
		var ty wire.Typing
		if err := d.decode(body, &ty); err != nil {
			return raw(err)
		}
		return domain.TypingSignal{
			RoomID:      roomID,
			TypingEvent: domain.TypingEvent{Username: ty.Username, IsTyping: ty.IsTyping},
		}

	case domain.TopicUsers:
		var ue wire.UserEvent
		if err := d.decode(body, &ue); err != nil {
			return raw(err)
		}
		ev := domain.PresenceEvent{
			DisplayName: ue.Username,
			Action:      domain.PresenceAction(ue.Action),
			At:          stamp(ue.Timestamp),
		}
		if ue.UserID != nil {
			id := domain.UserID(*ue.UserID)
			ev.UserID = &id
		}
		return domain.PresenceSignal{RoomID: roomID, PresenceEvent: ev}

	case domain.TopicSystem:
		return decodeSystem(roomID, body)
	}
	return raw(fmt.Errorf("unhandled topic kind %q", kind))
}

func (d *Decoder) decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	if err := d.validate.Struct(v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

// System payloads are free-form: an object, a JSON string or plain text.
func decodeSystem(roomID int64, body []byte) domain.Event {
	ev := domain.SystemEvent{RoomID: roomID, At: time.Now()}
	trimmed := bytes.TrimSpace(body)

	var sys wire.System
	if json.Unmarshal(trimmed, &sys) == nil {
		ev.Content = sys.Content
		ev.Type = sys.Type
		if sys.Timestamp != nil && !sys.Timestamp.IsZero() {
			ev.At = sys.Timestamp.Time
		}
		return ev
	}
	var text string
	if json.Unmarshal(trimmed, &text) == nil {
		ev.Content = text
		return ev
	}
	ev.Content = string(trimmed)
	return ev
}

func stamp(ts *wire.Timestamp) time.Time {
	if ts == nil || ts.IsZero() {
		return time.Now()
	}
	return ts.Time
}
