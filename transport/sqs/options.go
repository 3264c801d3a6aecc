package sqs

import (
	"github.com/go-kratos/kratos/v2/log"

	"github.com/tx7do/kratos-transport-aws/broker"
	"github.com/tx7do/kratos-transport-aws/broker/sqs"
	"github.com/tx7do/kratos-transport-aws/daemon"
	"github.com/tx7do/kratos-transport-aws/keepalive"
	"github.com/tx7do/kratos-transport-aws/mediator"
)

type ServerOption func(o *Server)

// WithListenerOptions configures the queue listener built at Start.
func WithListenerOptions(opts ...sqs.Option) ServerOption {
	return func(s *Server) {
		s.listenerOpts = append(s.listenerOpts, opts...)
	}
}

// WithListener uses a ready listener instead of building one.
func WithListener(l *sqs.Listener) ServerOption {
	return func(s *Server) {
		s.listener = l
	}
}

// WithForward publishes every received message body to stream on m and
// acknowledges it once every subscriber succeeded.
func WithForward(m *mediator.Mediator, stream string) ServerOption {
	return func(s *Server) {
		s.mediator = m
		s.stream = stream
	}
}

// WithHandler replaces forwarding with a custom handler.
func WithHandler(h broker.Handler) ServerOption {
	return func(s *Server) {
		s.handler = h
	}
}

func WithMiddleware(mws ...broker.MiddlewareFunc) ServerOption {
	return func(s *Server) {
		s.middlewares = append(s.middlewares, mws...)
	}
}

// WithController shares a controller, e.g. with an admin endpoint.
func WithController(c *daemon.Controller) ServerOption {
	return func(s *Server) {
		s.ctrl = c
	}
}

func WithKeepAliveOptions(opts ...keepalive.ServerOption) ServerOption {
	return func(s *Server) {
		s.keepAliveOpts = append(s.keepAliveOpts, opts...)
	}
}

func WithoutKeepAlive() ServerOption {
	return func(s *Server) {
		s.enableKeepAlive = false
	}
}

func WithLogger(logger log.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
		s.log = log.NewHelper(logger)
	}
}
