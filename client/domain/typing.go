package domain

import (
	"fmt"
	"slices"
)

type TypingEvent struct {
	Username string
	IsTyping bool
}

// Typing is the ordered set of users currently typing, earliest first.
// It has no timers: a user stays in the set until a stop signal arrives.
type Typing struct {
	users []string
}

func NewTyping(users ...string) Typing {
	var t Typing
	for _, u := range users {
		t = t.Apply(TypingEvent{Username: u, IsTyping: true})
	}
	return t
}

func (t Typing) Apply(e TypingEvent) Typing {
	if e.Username == "" {
		return t
	}
	i := slices.Index(t.users, e.Username)
	switch {
	case e.IsTyping && i < 0:
		return Typing{users: append(slices.Clone(t.users), e.Username)}
	case !e.IsTyping && i >= 0:
		return Typing{users: slices.Delete(slices.Clone(t.users), i, i+1)}
	}
	return t
}

func (t Typing) Users() []string {
	return slices.Clone(t.users)
}

func (t Typing) Text() string {
	return TypingText(t.users)
}

func TypingText(users []string) string {
	switch len(users) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("%s is typing…", users[0])
	case 2:
		return fmt.Sprintf("%s and %s are typing…", users[0], users[1])
	default:
		return fmt.Sprintf("%s and %d more are typing…", users[0], len(users)-1)
	}
}
