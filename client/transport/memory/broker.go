// Package memory is an in-process publish/subscribe broker and a transport
// on top of it. The dev relay serves it over gRPC and controller tests use
// it directly.
package memory

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 256

var ErrClosed = errors.New("broker closed")

type Message struct {
	Topic string
	Body  []byte
}

type Stats struct {
	ActiveTopics      int
	ActiveSubscribers int
	TotalMessages     int
	Dropped           int
	Uptime            string
}

type Broker struct {
	mu        sync.RWMutex
	topics    map[string]*topic
	history   map[string][][]byte
	stats     Stats
	dropped   atomic.Int64
	startTime time.Time
	closed    bool
}

type topic struct {
	mu          sync.RWMutex
	name        string
	subscribers map[string]chan<- Message
	broadcast   chan Message
	broker      *Broker
}

func NewBroker() *Broker {
	return &Broker{
		topics:    make(map[string]*topic),
		history:   make(map[string][][]byte),
		startTime: time.Now(),
	}
}

func newTopic(name string, b *Broker) *topic {
	t := &topic{
		name:        name,
		subscribers: make(map[string]chan<- Message),
		broadcast:   make(chan Message, ringSize),
		broker:      b,
	}
	go t.fanout()
	return t
}

// fanout never blocks on a slow subscriber; its copy is dropped instead.
func (t *topic) fanout() {
	for msg := range t.broadcast {
		t.mu.RLock()
		for _, ch := range t.subscribers {
			select {
			case ch <- msg:
			default:
				t.broker.dropped.Add(1)
			}
		}
		t.mu.RUnlock()
	}
}

// Subscribe routes messages published to name into ch. A subscriber id can
// hold one subscription per topic.
func (b *Broker) Subscribe(name, subscriberID string, ch chan<- Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	t, exists := b.topics[name]
	if !exists {
		t = newTopic(name, b)
		b.topics[name] = t
	}

	t.mu.Lock()
	_, dup := t.subscribers[subscriberID]
	t.subscribers[subscriberID] = ch
	t.mu.Unlock()

	if !dup {
		b.stats.ActiveSubscribers++
	}
	b.stats.ActiveTopics = len(b.topics)
	return nil
}

func (b *Broker) Unsubscribe(name, subscriberID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, exists := b.topics[name]
	if !exists {
		return fmt.Errorf("topic not found: %s", name)
	}
	if !b.removeLocked(t, subscriberID) {
		return fmt.Errorf("subscriber %s not found on %s", subscriberID, name)
	}
	return nil
}

// UnsubscribeAll removes every subscription held by subscriberID.
func (b *Broker) UnsubscribeAll(subscriberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.topics {
		b.removeLocked(t, subscriberID)
	}
}

func (b *Broker) removeLocked(t *topic, subscriberID string) bool {
	t.mu.Lock()
	_, ok := t.subscribers[subscriberID]
	delete(t.subscribers, subscriberID)
	remaining := len(t.subscribers)
	t.mu.Unlock()
	if !ok {
		return false
	}

	if remaining == 0 {
		close(t.broadcast)
		delete(b.topics, t.name)
	}
	b.stats.ActiveSubscribers--
	b.stats.ActiveTopics = len(b.topics)
	return true
}

// Publish fans body out to the subscribers of destination and records it.
// A destination nobody subscribes to is only recorded.
func (b *Broker) Publish(destination string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	h := append(b.history[destination], body)
	if len(h) > ringSize {
		h = h[len(h)-ringSize:]
	}
	b.history[destination] = h
	b.stats.TotalMessages++

	t, exists := b.topics[destination]
	if !exists {
		return nil
	}
	select {
	case t.broadcast <- Message{Topic: destination, Body: body}:
		return nil
	default:
		b.dropped.Add(1)
		return fmt.Errorf("topic %s broadcast channel is full", destination)
	}
}

// Published returns the most recent bodies sent to destination, oldest
// first.
func (b *Broker) Published(destination string) [][]byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([][]byte, len(b.history[destination]))
	copy(out, b.history[destination])
	return out
}

func (b *Broker) Subscribers(name string) int {
	b.mu.RLock()
	t, exists := b.topics[name]
	b.mu.RUnlock()
	if !exists {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subscribers)
}

func (b *Broker) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	stats := b.stats
	stats.Dropped = int(b.dropped.Load())
	stats.Uptime = time.Since(b.startTime).String()
	return stats
}

func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, t := range b.topics {
		close(t.broadcast)
	}
	b.topics = make(map[string]*topic)
	b.stats.ActiveTopics = 0
	b.stats.ActiveSubscribers = 0
}
