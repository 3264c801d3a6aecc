package sqs

import (
	"context"
	"net/url"
	"sync"

	"github.com/go-kratos/kratos/v2/log"
	kratosTransport "github.com/go-kratos/kratos/v2/transport"

	"github.com/tx7do/kratos-transport-aws/broker"
	"github.com/tx7do/kratos-transport-aws/broker/sqs"
	"github.com/tx7do/kratos-transport-aws/daemon"
	"github.com/tx7do/kratos-transport-aws/keepalive"
	"github.com/tx7do/kratos-transport-aws/mediator"
	"github.com/tx7do/kratos-transport-aws/transport"
)

const KindSQS = "sqs"

var (
	_ kratosTransport.Server     = (*Server)(nil)
	_ kratosTransport.Endpointer = (*Server)(nil)
)

// Server runs a queue listener as a background worker and forwards what it
// receives. The keep-alive health service reports the worker under the
// queue name.
type Server struct {
	listener     *sqs.Listener
	listenerOpts []sqs.Option

	mediator    *mediator.Mediator
	stream      string
	handler     broker.Handler
	middlewares []broker.MiddlewareFunc

	ctrl    *daemon.Controller
	manager *daemon.Manager

	keepAlive       *keepalive.Server
	keepAliveOpts   []keepalive.ServerOption
	enableKeepAlive bool

	mu      sync.Mutex
	started bool
	err     error

	logger log.Logger
	log    *log.Helper
}

func NewServer(opts ...ServerOption) *Server {
	srv := &Server{
		enableKeepAlive: true,
		logger:          log.GetLogger(),
	}
	srv.log = log.NewHelper(srv.logger)

	for _, o := range opts {
		o(srv)
	}

	if srv.enableKeepAlive {
		srv.keepAlive = srv.newKeepAlive()
	}

	return srv
}

func (s *Server) newKeepAlive() *keepalive.Server {
	return keepalive.NewServer(append([]keepalive.ServerOption{keepalive.WithLogger(s.logger)}, s.keepAliveOpts...)...)
}

func (s *Server) Name() string {
	return KindSQS
}

// init builds the listener and manager once. A failure is sticky.
func (s *Server) init() error {
	if s.err != nil || s.manager != nil {
		return s.err
	}

	if s.listener == nil {
		opts := append([]sqs.Option{sqs.WithLogger(s.logger)}, s.listenerOpts...)
		if s.listener, s.err = sqs.NewListener(opts...); s.err != nil {
			return s.err
		}
	}

	if s.handler == nil {
		if s.mediator == nil {
			s.err = broker.Errorf(broker.ErrConfiguration, nil, "either a handler or a forward stream is required")
			return s.err
		}
		s.handler = s.forward
	}
	s.handler = broker.ChainMiddleware(s.handler, s.middlewares...)

	if s.ctrl == nil {
		s.ctrl = daemon.NewController(daemon.WithLogger(s.logger))
	}
	s.manager, s.err = daemon.NewManager(s.ctrl, s.work)
	return s.err
}

func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if err := s.init(); err != nil {
		s.log.Errorf("[sqs] init server failed: %v", err)
		return err
	}

	if s.enableKeepAlive {
		// a stopped gRPC server cannot serve again
		if s.keepAlive.Stopped() {
			s.keepAlive = s.newKeepAlive()
		}
		ka := s.keepAlive
		ka.SetServing(s.listener.Options().QueueName, false)
		go func() {
			if err := ka.Start(context.Background()); err != nil {
				s.log.Errorf("[sqs] keepalive server failed: %v", err)
			}
		}()
	}

	status, err := s.manager.Start()
	s.log.Infof("[sqs] %s", status)
	if err != nil {
		return err
	}

	s.started = true
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	status, err := s.manager.Stop()
	s.log.Infof("[sqs] %s", status)

	if s.enableKeepAlive {
		_ = s.keepAlive.Stop(ctx)
	}

	s.started = false
	return err
}

// Restart replaces the listener worker, e.g. after it died on a receive
// failure.
func (s *Server) Restart() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.manager == nil {
		return "", broker.Errorf(broker.ErrInvalidState, nil, "server is not started")
	}
	return s.manager.Restart()
}

// Running reports whether the listener worker is alive.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl != nil && s.ctrl.Running()
}

// Err returns why the last listener worker exited.
func (s *Server) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil || s.ctrl == nil {
		return s.err
	}
	return s.ctrl.Err()
}

func (s *Server) Endpoint() (*url.URL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	if s.enableKeepAlive {
		return s.keepAlive.Endpoint()
	}

	var queue string
	if s.listener != nil {
		queue = s.listener.Options().QueueName
	}
	return transport.NewRegistryEndpoint(KindSQS, queue), nil
}

func (s *Server) work(ctx context.Context) error {
	s.setServing(true)
	defer s.setServing(false)

	return s.listener.Listen(ctx, s.handler)
}

func (s *Server) setServing(serving bool) {
	if s.enableKeepAlive {
		s.keepAlive.SetServing(s.listener.Options().QueueName, serving)
	}
}

// forward leaves the message unacknowledged when any subscriber fails so
// it is redelivered after its visibility timeout.
func (s *Server) forward(ctx context.Context, event broker.Event) error {
	if err := s.mediator.Publish(ctx, s.stream, event.Message().Body); err != nil {
		return err
	}
	if s.listener.Options().AutoAck {
		return nil
	}
	return event.Ack()
}
