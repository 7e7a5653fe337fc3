// Package ws carries STOMP frames over websocket text messages.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ponyo877/vivachat/client/logger"
	"github.com/ponyo877/vivachat/client/transport/stomp"
)

const writeWait = 10 * time.Second

var subprotocols = []string{"v12.stomp", "v11.stomp", "v10.stomp"}

type Dialer struct {
	URL     string
	Timeout time.Duration
	Header  http.Header
}

func NewDialer(url string, timeout time.Duration) *Dialer {
	return &Dialer{URL: url, Timeout: timeout}
}

func (d *Dialer) Dial(ctx context.Context) (stomp.Conn, error) {
	wd := websocket.Dialer{HandshakeTimeout: d.Timeout, Subprotocols: subprotocols}
	conn, resp, err := wd.DialContext(ctx, d.URL, d.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", d.URL, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", d.URL, err)
	}
	return newConn(conn), nil
}

// conn serializes writes; gorilla allows one concurrent writer.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func newConn(ws *websocket.Conn) *conn {
	return &conn{ws: ws}
}

func (c *conn) ReadMessage() ([]byte, error) {
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (c *conn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *conn) Close() error {
	c.mu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.mu.Unlock()
	return c.ws.Close()
}

// Handler upgrades requests and serves each connection with srv.
func Handler(srv *stomp.Server) http.Handler {
	log := logger.With("ws")
	upgrader := websocket.Upgrader{
		Subprotocols: subprotocols,
		CheckOrigin:  func(*http.Request) bool { return true },
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("upgrade failed", "err", err)
			return
		}
		err = srv.Serve(r.Context(), newConn(ws))
		if err != nil && !closed(err) {
			log.Warn("connection ended", "remote", r.RemoteAddr, "err", err)
		}
	})
}

func closed(err error) bool {
	var ce *websocket.CloseError
	return errors.As(err, &ce) || errors.Is(err, websocket.ErrCloseSent)
}
