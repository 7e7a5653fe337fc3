package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message")
		return Message{}
	}
}

func TestBrokerFanout(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	a := make(chan Message, 4)
	c := make(chan Message, 4)
	require.NoError(t, b.Subscribe("/topic/room/1", "a", a))
	require.NoError(t, b.Subscribe("/topic/room/1", "c", c))
	assert.Equal(t, 2, b.Subscribers("/topic/room/1"))

	require.NoError(t, b.Publish("/topic/room/1", []byte("hi")))
	assert.Equal(t, "hi", string(receive(t, a).Body))
	assert.Equal(t, "/topic/room/1", receive(t, c).Topic)

	require.NoError(t, b.Unsubscribe("/topic/room/1", "a"))
	assert.Error(t, b.Unsubscribe("/topic/room/1", "a"))
	b.UnsubscribeAll("c")
	assert.Zero(t, b.Subscribers("/topic/room/1"))

	stats := b.Stats()
	assert.Zero(t, stats.ActiveTopics)
	assert.Zero(t, stats.ActiveSubscribers)
	assert.Equal(t, 1, stats.TotalMessages)
}

func TestBrokerRecordsPublished(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	for i := 0; i < ringSize+3; i++ {
		require.NoError(t, b.Publish("/app/chat.joinRoom/1", []byte{byte(i)}))
	}
	got := b.Published("/app/chat.joinRoom/1")
	require.Len(t, got, ringSize)
	assert.Equal(t, byte(3), got[0][0])
	assert.Empty(t, b.Published("/app/other"))
}

func TestBrokerSlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	slow := make(chan Message)
	fast := make(chan Message, 8)
	require.NoError(t, b.Subscribe("/t", "slow", slow))
	require.NoError(t, b.Subscribe("/t", "fast", fast))

	require.NoError(t, b.Publish("/t", []byte("x")))
	receive(t, fast)
	require.Eventually(t, func() bool { return b.Stats().Dropped == 1 }, time.Second, time.Millisecond)
}

func TestBrokerClosed(t *testing.T) {
	b := NewBroker()
	b.Close()
	b.Close()
	assert.ErrorIs(t, b.Publish("/t", nil), ErrClosed)
	assert.ErrorIs(t, b.Subscribe("/t", "a", make(chan Message)), ErrClosed)
}
