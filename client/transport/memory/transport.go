package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/ponyo877/vivachat/client/usecase"
)

var ErrActive = errors.New("transport already active")

// Transport connects a room session to a Broker without a network. Sever
// and Restore simulate a dropped and a re-established connection.
type Transport struct {
	broker *Broker
	id     string

	mu        sync.Mutex
	active    bool
	connected bool
	bearer    string
	handler   func(usecase.TransportEvent)
	frames    chan Message
	ctrl      chan usecase.TransportEvent
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewTransport(b *Broker) *Transport {
	return &Transport{broker: b, id: ulid.Make().String()}
}

func (t *Transport) Activate(ctx context.Context, bearer string, handler func(usecase.TransportEvent)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active {
		return ErrActive
	}
	ctx, cancel := context.WithCancel(ctx)
	t.active = true
	t.connected = true
	t.bearer = bearer
	t.handler = handler
	t.frames = make(chan Message, ringSize)
	t.ctrl = make(chan usecase.TransportEvent, 8)
	t.cancel = cancel
	t.done = make(chan struct{})

	t.ctrl <- usecase.TransportEvent{Kind: usecase.TransportConnecting}
	t.ctrl <- usecase.TransportEvent{Kind: usecase.TransportConnected}
	go t.pump(ctx, t.frames, t.ctrl, t.done)
	return nil
}

// pump delivers events in order on a single goroutine, state changes
// before pending frames.
func (t *Transport) pump(ctx context.Context, frames <-chan Message, ctrl <-chan usecase.TransportEvent, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case ev := <-ctrl:
			t.handler(ev)
			continue
		default:
		}
		select {
		case ev := <-ctrl:
			t.handler(ev)
		case msg := <-frames:
			t.handler(usecase.TransportEvent{Kind: usecase.TransportFrame, Topic: msg.Topic, Body: msg.Body})
		case <-ctx.Done():
			return
		}
	}
}

type subscription struct {
	t     *Transport
	topic string
}

func (s subscription) Unsubscribe() error {
	return s.t.broker.Unsubscribe(s.topic, s.t.id)
}

func (t *Transport) Subscribe(topic string) (usecase.Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return nil, usecase.ErrNotConnected
	}
	if err := t.broker.Subscribe(topic, t.id, t.frames); err != nil {
		return nil, err
	}
	return subscription{t: t, topic: topic}, nil
}

func (t *Transport) Publish(destination string, body []byte) error {
	t.mu.Lock()
	connected := t.connected
	t.mu.Unlock()
	if !connected {
		return usecase.ErrNotConnected
	}
	return t.broker.Publish(destination, body)
}

func (t *Transport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// Bearer returns the credential presented on the last activation.
func (t *Transport) Bearer() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bearer
}

func (t *Transport) Deactivate(ctx context.Context) error {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return nil
	}
	t.broker.UnsubscribeAll(t.id)
	t.active = false
	t.connected = false
	t.cancel()
	done := t.done
	t.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sever drops the connection: every subscription is lost.
func (t *Transport) Sever() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active || !t.connected {
		return
	}
	t.broker.UnsubscribeAll(t.id)
	t.connected = false
	t.ctrl <- usecase.TransportEvent{Kind: usecase.TransportDisconnected, Err: errors.New("connection lost")}
}

// Restore re-establishes a severed connection.
func (t *Transport) Restore() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active || t.connected {
		return
	}
	t.connected = true
	t.ctrl <- usecase.TransportEvent{Kind: usecase.TransportConnecting}
	t.ctrl <- usecase.TransportEvent{Kind: usecase.TransportConnected}
}
