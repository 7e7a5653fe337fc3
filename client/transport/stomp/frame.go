// Package stomp speaks STOMP 1.2 with frames carried one per message, as
// over websocket or the relay stream.
package stomp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
)

// headerAuthorization carries the bearer credential on CONNECT.
const headerAuthorization = "Authorization"

// ErrHeartbeat is returned by Unmarshal for a message holding only end of
// line bytes.
var ErrHeartbeat = errors.New("heart-beat")

// Marshal encodes f as one message, setting content-length from the body.
func Marshal(f *frame.Frame) []byte {
	if len(f.Body) > 0 {
		f.Header.Set(frame.ContentLength, strconv.Itoa(len(f.Body)))
	}
	var buf bytes.Buffer
	// A bytes.Buffer does not fail writes.
	_ = frame.NewWriter(&buf).Write(f)
	return buf.Bytes()
}

// Unmarshal decodes the single frame in data, skipping end of line bytes
// in front of it.
func Unmarshal(data []byte) (*frame.Frame, error) {
	if len(bytes.TrimLeft(data, "\r\n")) == 0 {
		return nil, ErrHeartbeat
	}
	r := frame.NewReader(bytes.NewReader(data))
	for {
		f, err := r.Read()
		if err != nil {
			return nil, fmt.Errorf("malformed frame: %w", err)
		}
		if f != nil {
			return f, nil
		}
	}
}

// Heartbeat is the pair of intervals from a heart-beat header: how often
// the sender can send and how often it wants to receive.
type Heartbeat struct {
	Send    time.Duration
	Receive time.Duration
}

func (h Heartbeat) String() string {
	return fmt.Sprintf("%d,%d", h.Send.Milliseconds(), h.Receive.Milliseconds())
}

// ParseHeartbeat reads a heart-beat header. A missing header means no
// heart-beating.
func ParseHeartbeat(s string) (Heartbeat, error) {
	if s == "" {
		return Heartbeat{}, nil
	}
	send, receive, err := frame.ParseHeartBeat(s)
	if err != nil {
		return Heartbeat{}, fmt.Errorf("invalid heart-beat %q: %w", s, err)
	}
	return Heartbeat{Send: send, Receive: receive}, nil
}

// Negotiate returns the outgoing and incoming intervals agreed between the
// client's and the server's heart-beat headers. Zero disables a direction.
func Negotiate(client, server Heartbeat) (out, in time.Duration) {
	if client.Send > 0 && server.Receive > 0 {
		out = max(client.Send, server.Receive)
	}
	if client.Receive > 0 && server.Send > 0 {
		in = max(client.Receive, server.Send)
	}
	return out, in
}
