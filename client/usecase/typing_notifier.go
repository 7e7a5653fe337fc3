package usecase

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ponyo877/vivachat/client/logger"
)

const DefaultTypingQuiet = 2000 * time.Millisecond

type TypingPublisher interface {
	SendTyping(ctx context.Context, isTyping bool) error
}

// TypingNotifier turns keystrokes into typing signals: true when typing
// starts (refreshed at most twice per quiet interval while it goes on) and
// false once no key has been pressed for the quiet interval.
type TypingNotifier struct {
	pub     TypingPublisher
	quiet   time.Duration
	limiter *rate.Limiter

	mu     sync.Mutex
	typing bool
	gen    uint64
	timer  *time.Timer
}

func NewTypingNotifier(pub TypingPublisher, quiet time.Duration) *TypingNotifier {
	if quiet <= 0 {
		quiet = DefaultTypingQuiet
	}
	return &TypingNotifier{
		pub:     pub,
		quiet:   quiet,
		limiter: rate.NewLimiter(rate.Every(quiet/2), 1),
	}
}

func (n *TypingNotifier) Keystroke(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.limiter.Allow() || !n.typing {
		n.send(ctx, true)
	}
	n.gen++
	gen := n.gen
	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(n.quiet, func() { n.expire(gen) })
}

func (n *TypingNotifier) expire(gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if gen != n.gen || !n.typing {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), n.quiet)
	defer cancel()
	n.send(ctx, false)
}

// Stop ends the typing state at once, as after a message is sent.
func (n *TypingNotifier) Stop(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gen++
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	if n.typing {
		n.send(ctx, false)
	}
}

func (n *TypingNotifier) send(ctx context.Context, isTyping bool) {
	n.typing = isTyping
	if err := n.pub.SendTyping(ctx, isTyping); err != nil {
		logger.Log.Debug("typing signal not sent", "typing", isTyping, "error", err)
	}
}
