// Package relay carries STOMP frames over a bidirectional gRPC stream, one
// frame per BytesValue.
package relay

import (
	"context"
	"fmt"
	"io"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/ponyo877/vivachat/client/transport/stomp"
)

const (
	ServiceName       = "vivachat.relay.v1.Relay"
	FramesFullMethod  = "/" + ServiceName + "/Frames"
	framesStreamIndex = 0
)

type RelayServer interface {
	Frames(Relay_FramesServer) error
}

type Relay_FramesServer = grpc.BidiStreamingServer[wrapperspb.BytesValue, wrapperspb.BytesValue]

type Relay_FramesClient = grpc.BidiStreamingClient[wrapperspb.BytesValue, wrapperspb.BytesValue]

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RelayServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Frames",
			Handler:       framesHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "relay/v1/relay.proto",
}

func framesHandler(srv any, stream grpc.ServerStream) error {
	return srv.(RelayServer).Frames(&grpc.GenericServerStream[wrapperspb.BytesValue, wrapperspb.BytesValue]{ServerStream: stream})
}

func RegisterRelayServer(s grpc.ServiceRegistrar, srv RelayServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func NewFramesClient(ctx context.Context, cc grpc.ClientConnInterface, opts ...grpc.CallOption) (Relay_FramesClient, error) {
	stream, err := cc.NewStream(ctx, &ServiceDesc.Streams[framesStreamIndex], FramesFullMethod, opts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[wrapperspb.BytesValue, wrapperspb.BytesValue]{ClientStream: stream}, nil
}

// Dialer opens one gRPC client connection and stream per Dial.
type Dialer struct {
	Target  string
	Options []grpc.DialOption
}

func NewDialer(target string, opts ...grpc.DialOption) *Dialer {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	return &Dialer{Target: target, Options: opts}
}

func (d *Dialer) Dial(ctx context.Context) (stomp.Conn, error) {
	cc, err := grpc.NewClient(d.Target, d.Options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	// The stream outlives the dial context.
	sctx, cancel := context.WithCancel(context.Background())
	stop := context.AfterFunc(ctx, cancel)
	stream, err := NewFramesClient(sctx, cc, grpc.WaitForReady(true))
	if !stop() || err != nil {
		cancel()
		cc.Close()
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	return &clientConn{cc: cc, stream: stream, cancel: cancel}, nil
}

type clientConn struct {
	cc     *grpc.ClientConn
	stream Relay_FramesClient
	cancel context.CancelFunc

	mu   sync.Mutex
	once sync.Once
}

func (c *clientConn) ReadMessage() ([]byte, error) {
	m, err := c.stream.Recv()
	if err != nil {
		return nil, err
	}
	return m.GetValue(), nil
}

func (c *clientConn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream.Send(wrapperspb.Bytes(data))
}

func (c *clientConn) Close() error {
	var err error
	c.once.Do(func() {
		// Cancelling first unblocks a Send stuck on flow control.
		c.cancel()
		c.mu.Lock()
		_ = c.stream.CloseSend()
		c.mu.Unlock()
		err = c.cc.Close()
	})
	return err
}

// ServerConn adapts the server side of a Frames stream. Close only stops
// further writes; the stream ends when the handler returns.
type ServerConn struct {
	stream Relay_FramesServer

	mu     sync.Mutex
	closed bool
}

func NewServerConn(stream Relay_FramesServer) *ServerConn {
	return &ServerConn{stream: stream}
}

func (c *ServerConn) ReadMessage() ([]byte, error) {
	m, err := c.stream.Recv()
	if err != nil {
		return nil, err
	}
	return m.GetValue(), nil
}

func (c *ServerConn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return io.ErrClosedPipe
	}
	return c.stream.Send(wrapperspb.Bytes(data))
}

func (c *ServerConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
