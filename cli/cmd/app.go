package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	"github.com/ponyo877/vivachat/client/adaptor"
	"github.com/ponyo877/vivachat/client/logger"
	"github.com/ponyo877/vivachat/client/metrics"
	"github.com/ponyo877/vivachat/client/repository"
	"github.com/ponyo877/vivachat/client/transport/relay"
	"github.com/ponyo877/vivachat/client/transport/stomp"
	"github.com/ponyo877/vivachat/client/transport/ws"
	"github.com/ponyo877/vivachat/client/usecase"
)

// application holds what every command shares for the life of the
// process.
type application struct {
	cfg     Config
	store   *repository.CredentialStore
	api     *repository.APIClient
	uc       *usecase.Usecase
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	logOut   io.Closer
}

func newApplication(c Config) (*application, error) {
	var logOut io.Writer = os.Stderr
	var closer io.Closer
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logOut, closer = f, f
	}
	logger.Initialize(c.LogLevel, c.LogJSON, logOut)

	store, err := repository.OpenCredentialStore(c.CredentialDB)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	api := repository.New(c.APIBaseURL, store, m)
	return &application{
		cfg:      c,
		store:    store,
		api:      api,
		uc:       usecase.NewUsecase(api, store),
		registry: reg,
		metrics:  m,
		logOut:   closer,
	}, nil
}

func (a *application) Close() {
	a.store.Close()
	if a.logOut != nil {
		a.logOut.Close()
	}
}

func (a *application) dialer() stomp.Dialer {
	if a.cfg.Transport == "grpc" {
		return relay.NewDialer(a.cfg.RelayAddress)
	}
	return ws.NewDialer(a.cfg.WSURL, a.cfg.ConnectTimeout)
}

func (a *application) metricsHandler() http.Handler {
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
}

// serveMetrics exposes the client metrics on metrics_addr until the
// returned stop is called. It does nothing when no address is set.
func (a *application) serveMetrics() (stop func()) {
	if a.cfg.MetricsAddr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metricsHandler())
	hs := &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Log.Info("serving metrics", "addr", hs.Addr)
		if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Warn("metrics server stopped", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(ctx)
	}
}

// writeStats prints the gathered client metrics in the text exposition
// format.
func (a *application) writeStats(w io.Writer) error {
	families, err := a.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// newSession builds a room session controller over the configured
// transport.
func (a *application) newSession(ctx context.Context) *usecase.Session {
	transport := stomp.NewClient(a.dialer(), stomp.Config{
		Heartbeat:      a.cfg.Heartbeat,
		ReconnectDelay: a.cfg.ReconnectDelay,
		ConnectTimeout: a.cfg.ConnectTimeout,
	})
	return usecase.NewSession(ctx, usecase.SessionDeps{
		Transport:   transport,
		Rooms:       a.api,
		Messages:    a.api,
		Credentials: a.store,
		Decoder:     adaptor.NewDecoder(),
		Metrics:     a.metrics,
	})
}

// roomArg reads an optional ROOM_ID argument, falling back to the room
// chosen with cd.
func roomArg(args []string, i int) (int64, error) {
	if len(args) > i {
		id, err := strconv.ParseInt(args[i], 10, 64)
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("invalid room id %q", args[i])
		}
		return id, nil
	}
	if cfg.CurrentRoom > 0 {
		return cfg.CurrentRoom, nil
	}
	return 0, fmt.Errorf("no room given and no current room, use cd ROOM_ID")
}

// waitView blocks until the session view satisfies ok.
func waitView(ctx context.Context, s *usecase.Session, ok func(usecase.View) bool) (usecase.View, error) {
	if v := s.View(); ok(v) {
		return v, nil
	}
	for {
		select {
		case <-ctx.Done():
			return usecase.View{}, ctx.Err()
		case v := <-s.Updates():
			if ok(v) {
				return v, nil
			}
		}
	}
}
