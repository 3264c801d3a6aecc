package main

import (
	"context"
	"flag"
	"os"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/tx7do/kratos-transport-aws/conf"
)

var (
	Name    = "sns-sqs-bridge"
	Version = "x.x.x"

	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)
	log.SetLogger(logger)

	bc, err := conf.Load(flagconf)
	if err != nil {
		log.Fatal(err)
	}

	app, cleanup, err := wireApp(context.Background(), bc, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	if err = app.Run(); err != nil {
		log.Error(err)
	}
}

func newApp(bc *conf.Bootstrap, logger log.Logger, srv *sqsServer) *kratos.App {
	name := bc.Server.Name
	if name == "" {
		name = Name
	}
	version := bc.Server.Version
	if version == "" {
		version = Version
	}

	return kratos.New(
		kratos.ID(id),
		kratos.Name(name),
		kratos.Version(version),
		kratos.Logger(logger),
		kratos.Server(srv),
	)
}
