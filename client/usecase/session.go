package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ponyo877/vivachat/client/adaptor"
	"github.com/ponyo877/vivachat/client/domain"
	"github.com/ponyo877/vivachat/client/logger"
	"github.com/ponyo877/vivachat/client/metrics"
)

const (
	inboxSize   = 256
	noticesSize = 64

	DefaultFileCaption = "File attachment"
)

type SessionDeps struct {
	Transport   Transport
	Rooms       RoomAPI
	Messages    MessageAPI
	Credentials CredentialStore
	Decoder     EventDecoder
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

// Session is the room session controller. A single goroutine owns all
// room state; everything else reaches it through the inbox.
type Session struct {
	deps SessionDeps
	log  *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	inbox    chan func()
	loopDone chan struct{}

	view    atomic.Pointer[View]
	updates chan View
	notices chan Notice

	// Owned by the loop goroutine.
	epoch uint64
	room  *roomState
	state domain.SessionState
}

// roomState is discarded as a whole when the session leaves a room.
type roomState struct {
	id        int64
	epoch     uint64
	stop      chan struct{}
	info      domain.Room
	loaded    bool
	connected bool
	connects  int

	history      []domain.Message
	historyIndex map[domain.MessageID]int
	live         domain.MergeLog
	tombstones   domain.Tombstones
	presence     domain.Presence
	typing       domain.Typing

	pending  []domain.Event
	hydrated map[domain.MessageID]struct{}
	subs     []Subscription
}

func newRoomState(id int64, epoch uint64) *roomState {
	return &roomState{
		id:           id,
		epoch:        epoch,
		stop:         make(chan struct{}),
		info:         domain.Room{ID: id},
		historyIndex: make(map[domain.MessageID]int),
		tombstones:   domain.NewTombstones(),
		presence:     domain.NewPresence(nil),
		hydrated:     make(map[domain.MessageID]struct{}),
	}
}

func NewSession(ctx context.Context, deps SessionDeps) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		deps:     deps,
		log:      logger.With("session"),
		ctx:      ctx,
		cancel:   cancel,
		inbox:    make(chan func(), inboxSize),
		loopDone: make(chan struct{}),
		updates:  make(chan View, 1),
		notices:  make(chan Notice, noticesSize),
		state:    domain.StateIdle,
	}
	s.view.Store(&View{State: domain.StateIdle})
	go s.run()
	return s
}

func (s *Session) run() {
	defer close(s.loopDone)
	for {
		select {
		case fn := <-s.inbox:
			fn()
		case <-s.ctx.Done():
			return
		}
	}
}

// post queues fn on the loop without waiting for it to run.
func (s *Session) post(fn func()) bool {
	select {
	case s.inbox <- fn:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// call runs fn on the loop and waits for its result.
func (s *Session) call(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	select {
	case s.inbox <- func() { errc <- fn() }:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
}

// View returns the latest published snapshot.
func (s *Session) View() View {
	return *s.view.Load()
}

// Updates delivers views as they change. Only the latest unread view is
// kept, so a slow reader skips intermediate states.
func (s *Session) Updates() <-chan View {
	return s.updates
}

func (s *Session) Notices() <-chan Notice {
	return s.notices
}

// Enter joins roomID. Without a usable credential it returns
// ErrNoCredential and changes nothing. Entering while another room is
// active leaves that room first.
func (s *Session) Enter(ctx context.Context, roomID int64) error {
	if roomID <= 0 {
		return fmt.Errorf("invalid room id %d", roomID)
	}
	cred, err := s.deps.Credentials.Load(ctx)
	if err != nil {
		s.log.Debug("credential unavailable", "error", err)
		return ErrNoCredential
	}
	if !cred.Valid(s.deps.Now()) {
		return ErrNoCredential
	}

	if s.View().State.IsActive() {
		if err := s.Leave(ctx); err != nil {
			return fmt.Errorf("failed to leave current room: %w", err)
		}
	}
	return s.call(ctx, func() error { return s.enter(roomID, cred) })
}

func (s *Session) enter(roomID int64, cred domain.Credential) error {
	if s.state.IsActive() {
		return ErrAlreadyJoined
	}
	s.epoch++
	rs := newRoomState(roomID, s.epoch)
	s.room = rs
	s.state = domain.StateConnecting
	s.log.Info("entering room", "room", roomID, "epoch", rs.epoch)

	go s.fetchSnapshot(rs.epoch, roomID)

	if err := s.deps.Transport.Activate(s.ctx, cred.Bearer(), s.transportHandler(rs)); err != nil {
		close(rs.stop)
		s.room = nil
		s.state = domain.StateIdle
		s.publish()
		return fmt.Errorf("failed to activate transport: %w", err)
	}
	s.publish()
	return nil
}

// transportHandler forwards transport events for one activation. Frames
// are decoded on the transport goroutine.
func (s *Session) transportHandler(rs *roomState) func(TransportEvent) {
	epoch, stop := rs.epoch, rs.stop
	return func(ev TransportEvent) {
		source := "transport"
		if ev.Kind == TransportFrame {
			source = "frame"
		}
		select {
		case <-stop:
			s.deps.Metrics.StaleDropped(source)
			return
		default:
		}

		var fn func()
		if ev.Kind == TransportFrame {
			decoded := s.deps.Decoder.Decode(ev.Topic, ev.Body)
			fn = func() { s.onEvent(epoch, decoded) }
		} else {
			fn = func() { s.onTransport(epoch, ev) }
		}
		select {
		case s.inbox <- fn:
		case <-stop:
			s.deps.Metrics.StaleDropped(source)
		case <-s.ctx.Done():
		}
	}
}

// current returns the active room state when epoch still designates it.
func (s *Session) current(epoch uint64) *roomState {
	if s.room == nil || s.room.epoch != epoch || !s.state.IsActive() {
		return nil
	}
	return s.room
}

func (s *Session) fetchSnapshot(epoch uint64, roomID int64) {
	snap, err := s.deps.Rooms.FetchSnapshot(s.ctx, roomID)
	s.post(func() { s.onSnapshot(epoch, snap, err) })
}

func (s *Session) onSnapshot(epoch uint64, snap domain.RoomSnapshot, err error) {
	rs := s.current(epoch)
	if rs == nil {
		s.deps.Metrics.StaleDropped("snapshot")
		return
	}
	if err != nil {
		s.log.Warn("failed to load room", "room", rs.id, "error", err)
		s.notify(NoticeError, "Could not load the room", err.Error())
	} else {
		rs.info = snap.Room
		rs.history = snap.RecentMessages
		for i, m := range rs.history {
			rs.historyIndex[m.ID] = i
		}
		rs.presence = domain.NewPresence(snap.ActiveSessions)
	}
	rs.loaded = true

	pending := rs.pending
	rs.pending = nil
	for _, ev := range pending {
		s.apply(rs, ev)
	}
	s.publish()
}

func (s *Session) onTransport(epoch uint64, ev TransportEvent) {
	rs := s.current(epoch)
	if rs == nil {
		s.deps.Metrics.StaleDropped("transport")
		return
	}
	switch ev.Kind {
	case TransportConnecting:
		if s.state == domain.StateDisconnected {
			s.state = domain.StateConnecting
		}
	case TransportConnected:
		rs.connected = true
		rs.connects++
		if rs.connects > 1 {
			s.deps.Metrics.Reconnect()
		}
		s.state = domain.StateJoined
		s.subscribe(rs)
		if err := s.deps.Transport.Publish(domain.JoinDestination(rs.id), adaptor.EncodeAnnouncement()); err != nil {
			s.log.Warn("failed to announce join", "room", rs.id, "error", err)
		}
		s.log.Info("connected", "room", rs.id, "connects", rs.connects)
	case TransportDisconnected:
		rs.connected = false
		rs.subs = nil
		s.state = domain.StateDisconnected
		s.log.Warn("disconnected", "room", rs.id, "error", ev.Err)
	}
	s.publish()
}

func (s *Session) subscribe(rs *roomState) {
	rs.subs = rs.subs[:0]
	for _, topic := range domain.RoomTopics(rs.id) {
		sub, err := s.deps.Transport.Subscribe(topic)
		if err != nil {
			s.log.Warn("failed to subscribe", "topic", topic, "error", err)
			continue
		}
		rs.subs = append(rs.subs, sub)
	}
}

func (s *Session) onEvent(epoch uint64, ev domain.Event) {
	rs := s.current(epoch)
	if rs == nil {
		s.deps.Metrics.StaleDropped("frame")
		return
	}
	if raw, ok := ev.(domain.RawEvent); ok {
		s.deps.Metrics.DecodeFallback()
		s.log.Debug("undecodable frame", "topic", raw.Topic, "error", raw.Err)
		s.notify(NoticeWarn, "Unreadable event", raw.String())
		return
	}
	if ev.Room() != rs.id {
		s.deps.Metrics.StaleDropped("frame")
		return
	}
	if !rs.loaded {
		rs.pending = append(rs.pending, ev)
		return
	}
	s.apply(rs, ev)
	s.publish()
}

// apply folds one event into the room state. Callers publish.
func (s *Session) apply(rs *roomState, ev domain.Event) {
	s.deps.Metrics.EventApplied(ev.Kind().String())
	switch e := ev.(type) {
	case domain.MessageEvent:
		rs.live.Append(e.Patch)
		s.maybeHydrate(rs, e.Patch.ID)
	case domain.DeletionEvent:
		rs.tombstones.Add(e.MessageID)
	case domain.TypingSignal:
		rs.typing = rs.typing.Apply(e.TypingEvent)
	case domain.PresenceSignal:
		rs.presence = rs.presence.Apply(e.PresenceEvent)
		switch e.Action {
		case domain.PresenceJoined:
			rs.info = rs.info.WithUserDelta(1)
			s.notify(NoticeInfo, "User joined", e.DisplayName)
		case domain.PresenceLeft:
			rs.info = rs.info.WithUserDelta(-1)
			s.notify(NoticeInfo, "User left", e.DisplayName)
		}
	case domain.SystemEvent:
		s.notify(NoticeInfo, "System", e.Content)
	}
}

// record is the merged view of a single message.
func (rs *roomState) record(id domain.MessageID) domain.Message {
	var base domain.Message
	if i, ok := rs.historyIndex[id]; ok {
		base = rs.history[i]
	}
	if p, ok := rs.live.Get(id); ok {
		base = p.Apply(base)
	}
	return base
}

func (s *Session) maybeHydrate(rs *roomState, id domain.MessageID) {
	if _, done := rs.hydrated[id]; done || rs.tombstones.Has(id) {
		return
	}
	m := rs.record(id)
	if !m.IsIncomplete() || m.IsDeleted {
		return
	}
	rs.hydrated[id] = struct{}{}
	go s.hydrate(rs.epoch, id)
}

func (s *Session) hydrate(epoch uint64, id domain.MessageID) {
	m, err := s.deps.Messages.FetchMessage(s.ctx, id)
	s.post(func() { s.onHydrated(epoch, id, m, err) })
}

func (s *Session) onHydrated(epoch uint64, id domain.MessageID, m domain.Message, err error) {
	rs := s.current(epoch)
	if rs == nil {
		s.deps.Metrics.Hydration(metrics.HydrationDropped)
		s.deps.Metrics.StaleDropped("hydration")
		return
	}
	if err != nil {
		s.deps.Metrics.Hydration(metrics.HydrationFailed)
		s.log.Warn("failed to hydrate message", "message", id, "error", err)
		return
	}
	s.deps.Metrics.Hydration(metrics.HydrationOK)
	m.ID = id
	rs.live.Append(domain.PatchOf(m))
	s.publish()
}

// Leave announces departure while the connection is still up, then tears
// the transport down and discards all room state.
func (s *Session) Leave(ctx context.Context) error {
	return s.call(ctx, func() error { return s.leave(ctx) })
}

func (s *Session) leave(ctx context.Context) error {
	rs := s.room
	if rs == nil || !s.state.IsActive() {
		return nil
	}
	s.state = domain.StateLeaving
	s.publish()

	if s.deps.Transport.Connected() {
		if err := s.deps.Transport.Publish(domain.LeaveDestination(rs.id), adaptor.EncodeAnnouncement()); err != nil {
			s.log.Warn("failed to announce leave", "room", rs.id, "error", err)
		}
	}
	for _, sub := range rs.subs {
		if err := sub.Unsubscribe(); err != nil {
			s.log.Debug("failed to unsubscribe", "error", err)
		}
	}
	close(rs.stop)

	err := s.deps.Transport.Deactivate(ctx)
	if err != nil {
		s.log.Warn("failed to deactivate transport", "room", rs.id, "error", err)
	}
	s.room = nil
	s.state = domain.StateClosed
	s.log.Info("left room", "room", rs.id)
	s.publish()
	return err
}

// Close leaves the active room and stops the controller.
func (s *Session) Close(ctx context.Context) error {
	err := s.Leave(ctx)
	if errors.Is(err, ErrSessionClosed) {
		return nil
	}
	s.cancel()
	<-s.loopDone
	return err
}

func (s *Session) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	err := s.call(ctx, func() error {
		rs, err := s.connectedRoom()
		if err != nil {
			return err
		}
		body, err := adaptor.EncodeSendMessage(rs.id, text)
		if err != nil {
			return err
		}
		return s.deps.Transport.Publish(domain.SendMessageDestination(rs.id), body)
	})
	if err != nil {
		s.actionFailed("Could not send the message", err)
	}
	return err
}

// SendTyping publishes a typing signal. It returns ErrNotConnected while
// the transport is down and raises no notice.
func (s *Session) SendTyping(ctx context.Context, isTyping bool) error {
	return s.call(ctx, func() error {
		rs, err := s.connectedRoom()
		if err != nil {
			return err
		}
		body, err := adaptor.EncodeTyping(isTyping)
		if err != nil {
			return err
		}
		return s.deps.Transport.Publish(domain.TypingDestination(rs.id), body)
	})
}

func (s *Session) connectedRoom() (*roomState, error) {
	if s.room == nil || !s.state.IsActive() {
		return nil, ErrNotJoined
	}
	if !s.room.connected || !s.deps.Transport.Connected() {
		return nil, ErrNotConnected
	}
	return s.room, nil
}

// DeleteMessage asks the server to delete a message. The view changes
// when the deletion event comes back.
func (s *Session) DeleteMessage(ctx context.Context, id domain.MessageID) error {
	if err := s.call(ctx, s.requireRoom); err != nil {
		return err
	}
	if err := s.deps.Messages.DeleteMessage(ctx, id); err != nil {
		s.actionFailed("Could not delete the message", err)
		return err
	}
	s.notify(NoticeInfo, "Message deleted", "")
	return nil
}

func (s *Session) requireRoom() error {
	if s.room == nil || !s.state.IsActive() {
		return ErrNotJoined
	}
	return nil
}

// SendFile uploads a file message. Rooms that are not MULTIMEDIA, and files
// over the room limit, are rejected before any request is made.
func (s *Session) SendFile(ctx context.Context, upload FileUpload) error {
	var room domain.Room
	err := s.call(ctx, func() error {
		if err := s.requireRoom(); err != nil {
			return err
		}
		if !s.room.loaded {
			return ErrRoomNotLoaded
		}
		room = s.room.info
		return nil
	})
	if err == nil {
		err = checkUpload(room, upload)
	}
	if err == nil {
		if upload.Caption == "" {
			upload.Caption = DefaultFileCaption
		}
		_, err = s.deps.Messages.SendFileMessage(ctx, room.ID, upload)
	}
	if err != nil {
		s.actionFailed("Could not send the file", err)
		return err
	}
	s.notify(NoticeInfo, "File sent", upload.Name)
	return nil
}

func checkUpload(room domain.Room, upload FileUpload) error {
	if !room.AllowsFiles() {
		return ErrFilesNotAllowed
	}
	if limit := room.MaxFileSize(); limit > 0 && upload.Size > limit {
		return fmt.Errorf("%w: %d > %d bytes", ErrFileTooLarge, upload.Size, limit)
	}
	return nil
}

func (s *Session) actionFailed(title string, err error) {
	s.log.Warn(strings.ToLower(title), "error", err)
	s.notify(NoticeError, title, err.Error())
}

// notify never blocks; notices are dropped when nobody reads them.
func (s *Session) notify(level NoticeLevel, title, detail string) {
	n := Notice{Level: level, Title: title, Detail: detail, At: s.deps.Now()}
	select {
	case s.notices <- n:
	default:
		s.log.Debug("notice dropped", "title", title)
	}
}

// publish rebuilds the view from loop-owned state. Loop goroutine only.
func (s *Session) publish() {
	v := View{State: s.state}
	if rs := s.room; rs != nil {
		v.RoomID = rs.id
		v.Room = rs.info
		v.Connected = rs.connected
		v.Loaded = rs.loaded
		v.Messages = domain.Merge(rs.history, rs.live.Patches(), rs.tombstones)
		v.Typing = rs.typing.Users()
		v.TypingText = rs.typing.Text()
		v.Presence = rs.presence.Names()
	}
	s.view.Store(&v)

	select {
	case s.updates <- v:
	default:
		select {
		case <-s.updates:
		default:
		}
		select {
		case s.updates <- v:
		default:
		}
	}
}
