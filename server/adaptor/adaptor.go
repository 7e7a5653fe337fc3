package adaptor

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"google.golang.org/grpc/peer"

	"github.com/ponyo877/vivachat/client/logger"
	"github.com/ponyo877/vivachat/client/transport/relay"
	"github.com/ponyo877/vivachat/client/transport/stomp"
)

// Adaptor serves STOMP sessions arriving on the relay's gRPC stream.
type Adaptor struct {
	uc    Usecase
	relay *stomp.Server
	log   *slog.Logger
}

func NewAdaptor(uc Usecase, srv *stomp.Server) *Adaptor {
	srv.Authenticate = uc.Authenticate
	return &Adaptor{uc: uc, relay: srv, log: logger.With("adaptor")}
}

func (a *Adaptor) Frames(stream relay.Relay_FramesServer) error {
	remote := "unknown"
	if p, ok := peer.FromContext(stream.Context()); ok {
		remote = p.Addr.String()
	}
	a.log.Info("stream opened", "remote", remote)
	err := a.relay.Serve(stream.Context(), relay.NewServerConn(stream))
	if err != nil {
		a.log.Warn("stream ended", "remote", remote, "err", err)
		return err
	}
	a.log.Info("stream closed", "remote", remote)
	return nil
}

type statsResponse struct {
	ActiveTopics      int    `json:"activeTopics"`
	ActiveSubscribers int    `json:"activeSubscribers"`
	TotalMessages     int    `json:"totalMessages"`
	Dropped           int    `json:"dropped"`
	Uptime            string `json:"uptime"`
	Subscribers       *int   `json:"subscribers,omitempty"`
}

// StatsHandler reports broker counters; ?destination= adds the subscriber
// count of one destination.
func (a *Adaptor) StatsHandler(w http.ResponseWriter, r *http.Request) {
	s := a.uc.Stats()
	res := statsResponse{
		ActiveTopics:      s.ActiveTopics,
		ActiveSubscribers: s.ActiveSubscribers,
		TotalMessages:     s.TotalMessages,
		Dropped:           s.Dropped,
		Uptime:            s.Uptime,
	}
	if dest := r.URL.Query().Get("destination"); dest != "" {
		n := a.uc.Subscribers(dest)
		res.Subscribers = &n
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		a.log.Warn("failed to write stats", "err", err)
	}
}
