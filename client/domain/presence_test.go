package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func uid(id int64) *UserID {
	u := UserID(id)
	return &u
}

func TestPresenceSeed(t *testing.T) {
	p := NewPresence([]ActiveSession{
		{ID: 1, NicknameInRoom: "luis", IsActive: true},
		{ID: 2, NicknameInRoom: "ana", IsActive: true},
		{ID: 3, NicknameInRoom: "gone", IsActive: false},
		{ID: 4, NicknameInRoom: "", IsActive: true},
	})
	assert.Equal(t, []string{"ana", "luis"}, p.Names())
}

func TestPresenceApply(t *testing.T) {
	t.Run("join and leave by id", func(t *testing.T) {
		p := NewPresence(nil).
			Apply(NewJoinedEvent(uid(1), "ana")).
			Apply(NewJoinedEvent(uid(2), "ben"))
		assert.Equal(t, []string{"ana", "ben"}, p.Names())

		p = p.Apply(NewLeftEvent(uid(1), "ana"))
		assert.Equal(t, []string{"ben"}, p.Names())
	})

	t.Run("join and leave by name", func(t *testing.T) {
		p := NewPresence(nil).Apply(NewJoinedEvent(nil, "ana"))
		assert.Equal(t, []string{"ana"}, p.Names())
		p = p.Apply(NewLeftEvent(nil, "ana"))
		assert.Empty(t, p.Names())
	})

	t.Run("name-keyed entry outlives the id-keyed one", func(t *testing.T) {
		p := NewPresence(nil).
			Apply(NewJoinedEvent(uid(1), "Ana")).
			Apply(NewJoinedEvent(nil, "Ana")).
			Apply(NewLeftEvent(uid(1), "Ana"))
		assert.Equal(t, []string{"Ana"}, p.Names())

		p = p.Apply(NewLeftEvent(nil, "Ana"))
		assert.Empty(t, p.Names())
	})

	t.Run("duplicate names render once", func(t *testing.T) {
		p := NewPresence([]ActiveSession{{NicknameInRoom: "ana", IsActive: true}}).
			Apply(NewJoinedEvent(nil, "ana")).
			Apply(NewJoinedEvent(uid(5), "ana"))
		assert.Equal(t, []string{"ana"}, p.Names())
		assert.Equal(t, 1, p.Len())
	})

	t.Run("seeded user leaving with an id is removed", func(t *testing.T) {
		p := NewPresence([]ActiveSession{{NicknameInRoom: "ana", IsActive: true}})
		p = p.Apply(NewLeftEvent(uid(3), "ana"))
		assert.Empty(t, p.Names())
	})

	t.Run("seeded user rejoining with an id is claimed", func(t *testing.T) {
		p := NewPresence([]ActiveSession{{NicknameInRoom: "ana", IsActive: true}}).
			Apply(NewJoinedEvent(uid(3), "ana")).
			Apply(NewLeftEvent(uid(3), "ana"))
		assert.Empty(t, p.Names())
	})

	t.Run("redelivered join is a no-op", func(t *testing.T) {
		p := NewPresence(nil).Apply(NewJoinedEvent(uid(1), "ana"))
		again := p.Apply(NewJoinedEvent(uid(1), "ana"))
		assert.Equal(t, p.Names(), again.Names())
		again = again.Apply(NewLeftEvent(uid(1), "ana"))
		assert.Empty(t, again.Names())
	})

	t.Run("apply does not mutate the previous value", func(t *testing.T) {
		before := NewPresence(nil).Apply(NewJoinedEvent(uid(1), "ana"))
		_ = before.Apply(NewLeftEvent(uid(1), "ana"))
		assert.Equal(t, []string{"ana"}, before.Names())
	})

	t.Run("unknown action is ignored", func(t *testing.T) {
		p := NewPresence(nil).Apply(PresenceEvent{DisplayName: "ana", Action: "KICKED"})
		assert.Empty(t, p.Names())
	})

	t.Run("zero value is usable", func(t *testing.T) {
		var p Presence
		p = p.Apply(NewJoinedEvent(nil, "ana"))
		assert.Equal(t, []string{"ana"}, p.Names())
	})
}
