package keepalive

import (
	"context"
	"errors"
	"net"
	"net/url"
	"sync"

	"github.com/go-kratos/kratos/v2/log"
	kratosTransport "github.com/go-kratos/kratos/v2/transport"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/tx7do/kratos-transport-aws/broker"
	"github.com/tx7do/kratos-transport-aws/transport"
)

const KindKeepAlive = "keepalive"

var (
	_ kratosTransport.Server     = (*Server)(nil)
	_ kratosTransport.Endpointer = (*Server)(nil)
)

// Server exposes the gRPC health protocol. The empty service name reports
// the process itself; components report under their own names.
type Server struct {
	*grpc.Server
	health *health.Server

	grpcOpts []grpc.ServerOption

	mu       sync.Mutex
	lis      net.Listener
	endpoint *url.URL
	stopped  bool

	network string
	address string

	log *log.Helper
}

func NewServer(opts ...ServerOption) *Server {
	srv := &Server{
		health:  health.NewServer(),
		network: "tcp",
		address: ":0",
		log:     log.NewHelper(log.GetLogger()),
	}

	for _, o := range opts {
		o(srv)
	}

	srv.Server = grpc.NewServer(srv.grpcOpts...)
	grpc_health_v1.RegisterHealthServer(srv.Server, srv.health)

	return srv
}

func (s *Server) Name() string {
	return KindKeepAlive
}

// SetServing updates the status reported for service.
func (s *Server) SetServing(service string, serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, status)
}

// Start serves until Stop. A stopped server cannot be started again, build
// a new one instead.
func (s *Server) Start(_ context.Context) error {
	if s.Stopped() {
		return broker.Errorf(broker.ErrInvalidState, nil, "keepalive server is stopped")
	}
	if err := s.listenAndEndpoint(); err != nil {
		return err
	}

	s.log.Infof("[keepalive] server listening on: %s", s.lis.Addr().String())

	if err := s.Serve(s.lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}

	return nil
}

func (s *Server) Stop(_ context.Context) error {
	s.mu.Lock()
	s.stopped = true
	lis := s.lis
	s.mu.Unlock()

	s.health.Shutdown()
	s.GracefulStop()
	if lis != nil {
		_ = lis.Close()
	}

	s.log.Info("[keepalive] server stopped")

	return nil
}

// Stopped reports whether Stop has been called.
func (s *Server) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Server) listenAndEndpoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lis == nil {
		if s.stopped {
			return broker.Errorf(broker.ErrInvalidState, nil, "keepalive server is stopped")
		}
		lis, err := net.Listen(s.network, s.address)
		if err != nil {
			return err
		}
		s.lis = lis
	}

	if s.endpoint == nil {
		addr, err := transport.AdjustAddress(s.address, s.lis)
		if err != nil {
			return err
		}
		s.endpoint = transport.NewRegistryEndpoint(KindKeepAlive, addr)
	}

	return nil
}

func (s *Server) Endpoint() (*url.URL, error) {
	if err := s.listenAndEndpoint(); err != nil {
		return nil, err
	}
	return s.endpoint, nil
}
