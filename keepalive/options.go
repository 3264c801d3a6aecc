package keepalive

import (
	"crypto/tls"
	"net/url"

	"github.com/go-kratos/kratos/v2/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

type ServerOption func(o *Server)

func WithTLSConfig(tlsConf *tls.Config) ServerOption {
	return func(s *Server) {
		if tlsConf != nil {
			s.grpcOpts = append(s.grpcOpts, grpc.Creds(credentials.NewTLS(tlsConf)))
		}
	}
}

func WithNetwork(network string) ServerOption {
	return func(s *Server) {
		s.network = network
	}
}

// WithAddress sets the listen address. An empty or port-less host is
// advertised with the first usable interface address.
func WithAddress(addr string) ServerOption {
	return func(s *Server) {
		s.address = addr
	}
}

func WithEndpoint(endpoint *url.URL) ServerOption {
	return func(s *Server) {
		s.endpoint = endpoint
	}
}

func WithLogger(logger log.Logger) ServerOption {
	return func(s *Server) {
		s.log = log.NewHelper(logger)
	}
}
