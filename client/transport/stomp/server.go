package stomp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/oklog/ulid/v2"

	"github.com/ponyo877/vivachat/client/logger"
	"github.com/ponyo877/vivachat/client/transport/memory"
)

// Server speaks the broker side of STOMP on top of a memory.Broker: SEND
// frames are fanned out to SUBSCRIBE-rs of the same destination. It does
// not interpret destinations.
type Server struct {
	broker *memory.Broker
	log    *slog.Logger

	// Authenticate, when set, vets the Authorization header of CONNECT.
	Authenticate func(bearer string) error
}

func NewServer(b *memory.Broker) *Server {
	return &Server{broker: b, log: logger.With("relay")}
}

type serverConn struct {
	id     string
	conn   Conn
	broker *memory.Broker

	mu     sync.Mutex
	subs   map[string]string
	byDest map[string]string
}

// Serve handles one client connection until it disconnects, fails or ctx
// ends.
func (s *Server) Serve(ctx context.Context, conn Conn) error {
	sc := &serverConn{
		id:     ulid.Make().String(),
		conn:   conn,
		broker: s.broker,
		subs:   make(map[string]string),
		byDest: make(map[string]string),
	}
	log := s.log.With("conn", sc.id)
	defer conn.Close()

	if err := s.accept(sc); err != nil {
		log.Warn("rejected connection", "error", err)
		return err
	}
	log.Info("client connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	inbox := make(chan memory.Message, 256)
	defer sc.unsubscribeAll()
	go sc.deliver(ctx, inbox)

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read: %w", err)
		}
		f, err := Unmarshal(data)
		if errors.Is(err, ErrHeartbeat) {
			continue
		}
		if err != nil {
			sc.fail(err.Error())
			return err
		}

		switch f.Command {
		case frame.SUBSCRIBE:
			err = sc.subscribe(f.Header.Get(frame.Id), f.Header.Get(frame.Destination), inbox)
		case frame.UNSUBSCRIBE:
			err = sc.unsubscribe(f.Header.Get(frame.Id))
		case frame.SEND:
			dest := f.Header.Get(frame.Destination)
			if dest == "" {
				err = errors.New("SEND without destination")
			} else {
				err = s.broker.Publish(dest, f.Body)
			}
		case frame.DISCONNECT:
			sc.ack(f)
			log.Info("client disconnected")
			return nil
		default:
			err = fmt.Errorf("unsupported command %s", f.Command)
		}
		if err != nil {
			log.Warn("frame failed", "command", f.Command, "error", err)
			sc.fail(err.Error())
			return err
		}
		sc.ack(f)
	}
}

func (s *Server) accept(sc *serverConn) error {
	data, err := sc.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read CONNECT: %w", err)
	}
	f, err := Unmarshal(data)
	if err != nil {
		return err
	}
	if f.Command != frame.CONNECT && f.Command != frame.STOMP {
		sc.fail("expected CONNECT")
		return fmt.Errorf("unexpected %s", f.Command)
	}
	if s.Authenticate != nil {
		if err := s.Authenticate(f.Header.Get(headerAuthorization)); err != nil {
			sc.fail("unauthorized")
			return err
		}
	}
	connected := frame.New(frame.CONNECTED,
		frame.Version, "1.2",
		frame.HeartBeat, Heartbeat{}.String(),
		frame.Session, sc.id,
	)
	return sc.conn.WriteMessage(Marshal(connected))
}

func (sc *serverConn) key(subID string) string {
	return sc.id + "/" + subID
}

func (sc *serverConn) subscribe(subID, dest string, inbox chan memory.Message) error {
	if subID == "" || dest == "" {
		return errors.New("SUBSCRIBE needs id and destination")
	}
	sc.mu.Lock()
	sc.subs[subID] = dest
	if _, ok := sc.byDest[dest]; !ok {
		sc.byDest[dest] = subID
	}
	sc.mu.Unlock()
	return sc.broker.Subscribe(dest, sc.key(subID), inbox)
}

func (sc *serverConn) unsubscribe(subID string) error {
	sc.mu.Lock()
	dest, ok := sc.subs[subID]
	delete(sc.subs, subID)
	if ok && sc.byDest[dest] == subID {
		delete(sc.byDest, dest)
		for id, d := range sc.subs {
			if d == dest {
				sc.byDest[dest] = id
				break
			}
		}
	}
	sc.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown subscription %q", subID)
	}
	return sc.broker.Unsubscribe(dest, sc.key(subID))
}

func (sc *serverConn) unsubscribeAll() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for subID := range sc.subs {
		sc.broker.UnsubscribeAll(sc.key(subID))
	}
	sc.subs = map[string]string{}
	sc.byDest = map[string]string{}
}

func (sc *serverConn) deliver(ctx context.Context, inbox <-chan memory.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-inbox:
			sc.mu.Lock()
			subID := sc.byDest[msg.Topic]
			sc.mu.Unlock()
			if subID == "" {
				continue
			}
			f := frame.New(frame.MESSAGE,
				frame.Destination, msg.Topic,
				frame.Subscription, subID,
				frame.MessageId, ulid.Make().String(),
				frame.ContentType, "application/json",
			)
			f.Body = msg.Body
			if err := sc.conn.WriteMessage(Marshal(f)); err != nil {
				return
			}
		}
	}
}

func (sc *serverConn) ack(f *frame.Frame) {
	if id := f.Header.Get(frame.Receipt); id != "" {
		_ = sc.conn.WriteMessage(Marshal(frame.New(frame.RECEIPT, frame.ReceiptId, id)))
	}
}

func (sc *serverConn) fail(msg string) {
	_ = sc.conn.WriteMessage(Marshal(frame.New(frame.ERROR, frame.Message, msg)))
}
