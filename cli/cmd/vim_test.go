package cmd

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ponyo877/vivachat/client/domain"
	"github.com/ponyo877/vivachat/client/usecase"
)

func TestChatRender(t *testing.T) {
	ui := &chatUI{
		header:   tview.NewTextView().SetDynamicColors(true),
		messages: tview.NewTextView().SetDynamicColors(true),
		status:   tview.NewTextView().SetDynamicColors(true),
		roomID:   8,
	}
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local)

	ui.render(usecase.View{State: domain.StateConnecting, RoomID: 8})
	assert.Equal(t, "room 8  connecting  0/0  online: ", ui.header.GetText(true))
	assert.Contains(t, ui.messages.GetText(true), "loading...")

	ui.render(usecase.View{
		State:      domain.StateJoined,
		RoomID:     8,
		Loaded:     true,
		Room:       domain.Room{ID: 8, Name: "lobby", CurrentUsers: 2, MaxUsers: 10},
		Messages:   []domain.Message{domain.NewTextMessage(1, 8, "ana", "hi", at)},
		Presence:   []string{"ana", "bo"},
		TypingText: "bo is typing...",
	})
	assert.Equal(t, "lobby  joined  2/10  online: ana, bo", ui.header.GetText(true))
	assert.Contains(t, ui.messages.GetText(true), "ana: hi")
	assert.Equal(t, "bo is typing...", ui.status.GetText(true))

	ui.showNotice(usecase.Notice{Level: usecase.NoticeError, Title: "Could not send the message", Detail: "not connected"})
	assert.Contains(t, ui.status.GetText(true), "Could not send the message: not connected")
}

type typingCalls struct {
	mu    sync.Mutex
	calls []bool
}

func (p *typingCalls) SendTyping(ctx context.Context, isTyping bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, isTyping)
	return nil
}

func (p *typingCalls) Calls() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.calls...)
}

func TestTypingFeedStopsAfterQueuedKeystrokes(t *testing.T) {
	pub := &typingCalls{}
	feed := newTypingFeed(usecase.NewTypingNotifier(pub, time.Hour))
	t.Cleanup(feed.Close)

	for range 5 {
		feed.Keystroke()
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	feed.Stop(ctx)
	require.NoError(t, ctx.Err())
	assert.Equal(t, []bool{true, false}, pub.Calls())

	feed.Keystroke()
	feed.Stop(ctx)
	assert.Equal(t, []bool{true, false, true, false}, pub.Calls())

	feed.Close()
	feed.Keystroke()
	feed.Stop(ctx)
}
