package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/ponyo877/vivachat/client/logger"
	"github.com/ponyo877/vivachat/client/transport/memory"
	"github.com/ponyo877/vivachat/client/transport/relay"
	"github.com/ponyo877/vivachat/client/transport/stomp"
	"github.com/ponyo877/vivachat/client/transport/ws"
	"github.com/ponyo877/vivachat/server/adaptor"
	"github.com/ponyo877/vivachat/server/usecase"
)

func loadConfig() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("VIVACHAT_RELAY")
	v.AutomaticEnv()
	v.SetDefault("grpc_port", 50051)
	v.SetDefault("http_port", 8081)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	return v
}

func main() {
	cfg := loadConfig()
	logger.Initialize(cfg.GetString("log_level"), cfg.GetBool("log_json"), os.Stderr)
	log := logger.With("relay")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error("relay stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *viper.Viper) error {
	log := logger.With("relay")
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GetInt("grpc_port")))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	broker := memory.NewBroker()
	defer broker.Close()
	uc := usecase.NewUsecase(broker, cfg.GetString("jwt_secret"))
	srv := stomp.NewServer(broker)
	ad := adaptor.NewAdaptor(uc, srv)

	s := grpc.NewServer()
	relay.RegisterRelayServer(s, ad)
	reflection.Register(s)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mux := http.NewServeMux()
	mux.Handle("/ws", ws.Handler(srv))
	mux.HandleFunc("/stats", ad.StatsHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	hs := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.GetInt("http_port")),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("gRPC relay is running", "port", cfg.GetInt("grpc_port"))
		return s.Serve(lis)
	})
	g.Go(func() error {
		log.Info("HTTP relay is running", "addr", hs.Addr)
		if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Relay streams live until their clients leave.
		s.Stop()
		return hs.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
