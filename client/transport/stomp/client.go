package stomp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-stomp/stomp/v3/frame"
	"github.com/oklog/ulid/v2"

	"github.com/ponyo877/vivachat/client/logger"
	"github.com/ponyo877/vivachat/client/usecase"
)

var ErrActive = errors.New("client already active")

// Conn carries whole frames, one per message. WriteMessage must be safe
// for concurrent use.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

type Config struct {
	Host              string
	Heartbeat         time.Duration
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	ConnectTimeout    time.Duration
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = "/"
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 5 * time.Second
	}
	if c.MaxReconnectDelay < c.ReconnectDelay {
		c.MaxReconnectDelay = 6 * c.ReconnectDelay
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	return c
}

// Client is a reconnecting STOMP session. It implements usecase.Transport.
type Client struct {
	dialer Dialer
	cfg    Config
	log    *slog.Logger

	mu        sync.Mutex
	active    bool
	conn      Conn
	connected bool
	subs      map[string]string
	receipts  map[string]chan struct{}
	cancel    context.CancelFunc
	done      chan struct{}
	closing   *atomic.Bool

	lastRead atomic.Int64
}

func NewClient(dialer Dialer, cfg Config) *Client {
	return &Client{
		dialer: dialer,
		cfg:    cfg.withDefaults(),
		log:    logger.With("stomp"),
	}
}

func (c *Client) Activate(ctx context.Context, bearer string, handler func(usecase.TransportEvent)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return ErrActive
	}
	ctx, cancel := context.WithCancel(ctx)
	c.active = true
	c.cancel = cancel
	c.done = make(chan struct{})
	c.closing = &atomic.Bool{}
	go c.run(ctx, bearer, handler, c.done, c.closing)
	return nil
}

func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.ReconnectDelay
	b.MaxInterval = c.cfg.MaxReconnectDelay
	b.MaxElapsedTime = 0
	return b
}

func (c *Client) run(ctx context.Context, bearer string, handler func(usecase.TransportEvent), done chan<- struct{}, closing *atomic.Bool) {
	defer close(done)
	bo := c.newBackOff()
	for {
		handler(usecase.TransportEvent{Kind: usecase.TransportConnecting})
		err := c.session(ctx, bearer, handler, bo)
		// The server may hang up right after the DISCONNECT receipt.
		if ctx.Err() != nil || closing.Load() {
			return
		}
		c.log.Warn("connection ended", "error", err)
		handler(usecase.TransportEvent{Kind: usecase.TransportDisconnected, Err: err})

		wait := bo.NextBackOff()
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
	}
}

// session runs one connection from dial to failure.
func (c *Client) session(ctx context.Context, bearer string, handler func(usecase.TransportEvent), bo backoff.BackOff) error {
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	conn, err := c.dialer.Dial(dialCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}
	defer conn.Close()

	// Unblocks the reader when the client is deactivated.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	out, in, err := c.handshake(conn, bearer)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.subs = make(map[string]string)
	c.receipts = make(map[string]chan struct{})
	c.mu.Unlock()
	defer c.markDown(conn)

	bo.Reset()
	c.touch()
	handler(usecase.TransportEvent{Kind: usecase.TransportConnected})

	hbCtx, hbCancel := context.WithCancel(ctx)
	defer hbCancel()
	go c.heartbeat(hbCtx, conn, out, in)

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read: %w", err)
		}
		c.touch()
		f, err := Unmarshal(data)
		if errors.Is(err, ErrHeartbeat) {
			continue
		}
		if err != nil {
			c.log.Warn("dropping malformed frame", "error", err)
			continue
		}
		switch f.Command {
		case frame.MESSAGE:
			handler(usecase.TransportEvent{Kind: usecase.TransportFrame, Topic: c.topicOf(f), Body: f.Body})
		case frame.RECEIPT:
			c.receipt(f.Header.Get(frame.ReceiptId))
		case frame.ERROR:
			return fmt.Errorf("server error: %s", f.Header.Get(frame.Message))
		}
	}
}

func (c *Client) handshake(conn Conn, bearer string) (out, in time.Duration, err error) {
	hb := Heartbeat{Send: c.cfg.Heartbeat, Receive: c.cfg.Heartbeat}
	connect := frame.New(frame.CONNECT,
		frame.AcceptVersion, "1.2,1.1,1.0",
		frame.Host, c.cfg.Host,
		frame.HeartBeat, hb.String(),
	)
	if bearer != "" {
		connect.Header.Add(headerAuthorization, bearer)
	}
	if err := conn.WriteMessage(Marshal(connect)); err != nil {
		return 0, 0, fmt.Errorf("failed to send CONNECT: %w", err)
	}

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return 0, 0, fmt.Errorf("failed to read CONNECTED: %w", err)
		}
		f, err := Unmarshal(data)
		if errors.Is(err, ErrHeartbeat) {
			continue
		}
		if err != nil {
			return 0, 0, err
		}
		switch f.Command {
		case frame.CONNECTED:
			server, err := ParseHeartbeat(f.Header.Get(frame.HeartBeat))
			if err != nil {
				c.log.Warn("ignoring server heart-beat", "error", err)
			}
			out, in = Negotiate(hb, server)
			c.log.Debug("connected", "version", f.Header.Get(frame.Version), "out", out, "in", in)
			return out, in, nil
		case frame.ERROR:
			return 0, 0, fmt.Errorf("connect rejected: %s", f.Header.Get(frame.Message))
		default:
			return 0, 0, fmt.Errorf("unexpected %s before CONNECTED", f.Command)
		}
	}
}

func (c *Client) touch() {
	c.lastRead.Store(time.Now().UnixNano())
}

// heartbeat sends end-of-line beats and closes the connection when the
// server has been silent for twice the incoming interval.
func (c *Client) heartbeat(ctx context.Context, conn Conn, out, in time.Duration) {
	if out <= 0 && in <= 0 {
		return
	}
	tick := out
	if tick <= 0 || (in > 0 && in < tick) {
		tick = in
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	var lastSent time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if in > 0 && now.Sub(time.Unix(0, c.lastRead.Load())) > 2*in {
				c.log.Warn("server heart-beat missed", "after", 2*in)
				conn.Close()
				return
			}
			if out > 0 && now.Sub(lastSent) >= out {
				if err := conn.WriteMessage([]byte("\n")); err != nil {
					return
				}
				lastSent = now
			}
		}
	}
}

func (c *Client) markDown(conn Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		c.conn = nil
		c.connected = false
		c.subs = nil
		for _, ch := range c.receipts {
			close(ch)
		}
		c.receipts = nil
	}
}

func (c *Client) topicOf(f *frame.Frame) string {
	if dest := f.Header.Get(frame.Destination); dest != "" {
		return dest
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs[f.Header.Get(frame.Subscription)]
}

func (c *Client) receipt(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch, ok := c.receipts[id]; ok {
		close(ch)
		delete(c.receipts, id)
	}
}

func (c *Client) write(f *frame.Frame) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return usecase.ErrNotConnected
	}
	if err := conn.WriteMessage(Marshal(f)); err != nil {
		return fmt.Errorf("failed to send %s: %w", f.Command, err)
	}
	return nil
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

type subscription struct {
	c    *Client
	id   string
	conn Conn
}

// Unsubscribe is a no-op once the connection it was made on has gone.
func (s subscription) Unsubscribe() error {
	s.c.mu.Lock()
	current := s.c.conn == s.conn
	if current {
		delete(s.c.subs, s.id)
	}
	s.c.mu.Unlock()
	if !current {
		return nil
	}
	return s.c.write(frame.New(frame.UNSUBSCRIBE, frame.Id, s.id))
}

func (c *Client) Subscribe(topic string) (usecase.Subscription, error) {
	id := "sub-" + ulid.Make().String()
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return nil, usecase.ErrNotConnected
	}
	c.subs[id] = topic
	c.mu.Unlock()

	if err := c.write(frame.New(frame.SUBSCRIBE, frame.Id, id, frame.Destination, topic, frame.Ack, "auto")); err != nil {
		return nil, err
	}
	return subscription{c: c, id: id, conn: conn}, nil
}

func (c *Client) Publish(destination string, body []byte) error {
	f := frame.New(frame.SEND, frame.Destination, destination, frame.ContentType, "application/json")
	f.Body = body
	return c.write(f)
}

// Deactivate sends DISCONNECT, waits for its receipt within ctx, and stops
// reconnecting.
func (c *Client) Deactivate(ctx context.Context) error {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return nil
	}
	c.active = false
	c.closing.Store(true)
	var wait chan struct{}
	id := "disconnect-" + ulid.Make().String()
	if c.conn != nil {
		wait = make(chan struct{})
		c.receipts[id] = wait
	}
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if wait != nil {
		if err := c.write(frame.New(frame.DISCONNECT, frame.Receipt, id)); err == nil {
			select {
			case <-wait:
			case <-ctx.Done():
			}
		}
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
