package main

import (
	"context"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/tx7do/kratos-transport-aws/broker"
	"github.com/tx7do/kratos-transport-aws/broker/sns"
	"github.com/tx7do/kratos-transport-aws/broker/sqs"
	"github.com/tx7do/kratos-transport-aws/conf"
	"github.com/tx7do/kratos-transport-aws/daemon"
	"github.com/tx7do/kratos-transport-aws/keepalive"
	"github.com/tx7do/kratos-transport-aws/mediator"
	"github.com/tx7do/kratos-transport-aws/tracing"
	sqsTransport "github.com/tx7do/kratos-transport-aws/transport/sqs"
)

type sqsServer = sqsTransport.Server

// wireApp builds the object graph: tracer provider, mediator with its
// publishers and merged streams, and the listener server forwarding into
// the configured stream.
func wireApp(ctx context.Context, bc *conf.Bootstrap, logger log.Logger) (*kratos.App, func(), error) {
	if bc.Server.Forward == "" {
		return nil, nil, broker.Errorf(broker.ErrConfiguration, nil, "server.forward stream is required")
	}

	tc := bc.Tracing
	if tc.ServiceName == "" {
		tc.ServiceName = Name
	}
	if tc.Version == "" {
		tc.Version = Version
	}
	tp, err := tracing.NewTracerProvider(ctx, tc)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Errorf("shutdown tracer provider failed: %v", err)
		}
	}

	propagator, err := tracing.NewPropagator(tc.Propagators)
	if err != nil {
		cleanup()
		return nil, nil, broker.Errorf(broker.ErrConfiguration, err, "invalid tracing propagators")
	}

	m, err := newMediator(bc, logger,
		sns.WithTracerProvider(tp),
		sns.WithPropagator(propagator),
		sns.WithTracerName(tc.TracerName),
		sns.WithLogger(logger),
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	serverOpts := []sqsTransport.ServerOption{
		sqsTransport.WithLogger(logger),
		sqsTransport.WithListenerOptions(
			sqs.WithOptions(bc.ListenerOptions()),
			sqs.WithTracerProvider(tp),
			sqs.WithPropagator(propagator),
			sqs.WithTracerName(tc.TracerName),
		),
		sqsTransport.WithForward(m, bc.Server.Forward),
		sqsTransport.WithController(daemon.NewController(
			daemon.WithLogger(logger),
			daemon.WithJoinTimeout(bc.Server.JoinTimeoutDuration()),
		)),
	}
	if bc.KeepAlive.Disabled {
		serverOpts = append(serverOpts, sqsTransport.WithoutKeepAlive())
	} else if bc.KeepAlive.Address != "" {
		serverOpts = append(serverOpts, sqsTransport.WithKeepAliveOptions(keepalive.WithAddress(bc.KeepAlive.Address)))
	}

	return newApp(bc, logger, sqsTransport.NewServer(serverOpts...)), cleanup, nil
}

func newMediator(bc *conf.Bootstrap, logger log.Logger, shared ...sns.Option) (*mediator.Mediator, error) {
	m := mediator.New(mediator.WithLogger(logger))

	for _, p := range bc.Publishers {
		opts := append(append([]sns.Option{}, shared...), p.Options()...)
		if err := m.RegisterTopic(p.Topic, p.Credentials, opts...); err != nil {
			return nil, err
		}
	}

	for _, mg := range bc.Merges {
		if err := m.MergeTopics(mg.Stream, mg.Topics); err != nil {
			return nil, err
		}
	}

	return m, nil
}
