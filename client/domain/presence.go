package domain

import (
	"maps"
	"slices"
	"time"
)

type UserID int64

type PresenceAction string

const (
	PresenceJoined PresenceAction = "JOINED"
	PresenceLeft   PresenceAction = "LEFT"
)

func (a PresenceAction) IsValid() bool {
	return a == PresenceJoined || a == PresenceLeft
}

type PresenceEvent struct {
	UserID      *UserID
	DisplayName string
	Action      PresenceAction
	At          time.Time
}

func NewJoinedEvent(userID *UserID, name string) PresenceEvent {
	return PresenceEvent{UserID: userID, DisplayName: name, Action: PresenceJoined, At: time.Now()}
}

func NewLeftEvent(userID *UserID, name string) PresenceEvent {
	return PresenceEvent{UserID: userID, DisplayName: name, Action: PresenceLeft, At: time.Now()}
}

// Presence is the set of participants considered connected to a room. It
// is keyed by user id where events carry one and by display name
// otherwise. Values are immutable; Apply returns a new Presence.
//
// Display names are not unique. A JOINED with an id claims a name-keyed
// entry of the same name, so two users sharing a name can shadow each other.
type Presence struct {
	byID  map[UserID]string
	names map[string]struct{}
}

// NewPresence seeds the name-keyed view from the active sessions of a
// snapshot. The id-keyed view starts empty.
func NewPresence(sessions []ActiveSession) Presence {
	p := Presence{
		byID:  make(map[UserID]string),
		names: make(map[string]struct{}),
	}
	for _, s := range sessions {
		if s.IsActive && s.NicknameInRoom != "" {
			p.names[s.NicknameInRoom] = struct{}{}
		}
	}
	return p
}

func (p Presence) Apply(e PresenceEvent) Presence {
	if e.DisplayName == "" && e.UserID == nil {
		return p
	}
	next := Presence{
		byID:  maps.Clone(p.byID),
		names: maps.Clone(p.names),
	}
	if next.byID == nil {
		next.byID = make(map[UserID]string)
	}
	if next.names == nil {
		next.names = make(map[string]struct{})
	}

	switch e.Action {
	case PresenceJoined:
		if e.UserID == nil {
			next.names[e.DisplayName] = struct{}{}
			return next
		}
		if name, ok := next.byID[*e.UserID]; ok && name == e.DisplayName {
			return p
		}
		next.byID[*e.UserID] = e.DisplayName
		delete(next.names, e.DisplayName)
	case PresenceLeft:
		if e.UserID != nil {
			if _, ok := next.byID[*e.UserID]; ok {
				delete(next.byID, *e.UserID)
				return next
			}
		}
		delete(next.names, e.DisplayName)
	default:
		return p
	}
	return next
}

// Names renders the distinct union of id-keyed and name-keyed entries,
// sorted for display.
func (p Presence) Names() []string {
	set := make(map[string]struct{}, len(p.byID)+len(p.names))
	for _, name := range p.byID {
		set[name] = struct{}{}
	}
	for name := range p.names {
		set[name] = struct{}{}
	}
	delete(set, "")
	return slices.Sorted(maps.Keys(set))
}

func (p Presence) Len() int {
	return len(p.Names())
}
