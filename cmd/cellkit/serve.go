package main

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.dedis.ch/cellkit"
	"go.dedis.ch/cellkit/cli"
	"go.dedis.ch/cellkit/core/ledger"
	"go.dedis.ch/cellkit/core/provider/local"
	"go.dedis.ch/cellkit/core/provider/remote"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
	"google.golang.org/grpc"
)

func setServeCommand(builder cli.Builder, cfg config) {
	cmd := builder.SetCommand("serve")
	cmd.SetDescription("serve the ledger to remote providers")
	cmd.SetFlags(dbFlag, configFlag,
		cli.StringFlag{
			Name:  "listen",
			Usage: "address of the provider service",
			Value: "127.0.0.1:9000",
		},
		cli.StringFlag{
			Name:  "metrics",
			Usage: "address of the Prometheus endpoint, disabled if empty",
		},
	)
	cmd.SetAction(func(flags cli.Flags) error {
		return serveAction(flags, cfg)
	})
}

func serveAction(flags cli.Flags, cfg config) error {
	s, err := openStore(flags)
	if err != nil {
		return err
	}

	defer s.Close()

	lis, err := net.Listen("tcp", flags.String("listen"))
	if err != nil {
		return xerrors.Errorf("failed to listen: %v", err)
	}

	p := local.NewProvider(s.ledger)

	gs := grpc.NewServer()
	remote.NewServer(p, remote.WithServerLogger(cellkit.Logger)).Register(gs)

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		return gs.Serve(lis)
	})

	var metrics *http.Server

	addr := flags.String("metrics")
	if addr != "" {
		metrics, err = serveMetrics(g, addr, cfg)
		if err != nil {
			gs.Stop()
			return err
		}
	}

	fmt.Fprintf(cfg.Writer, "serving on %s\n", lis.Addr())

	g.Go(func() error {
		select {
		case <-cfg.Channel:
		case <-ctx.Done():
		}

		gs.GracefulStop()

		if metrics != nil {
			metrics.Close()
		}

		return nil
	})

	err = g.Wait()
	if err != nil {
		return xerrors.Errorf("server failed: %v", err)
	}

	return p.Update(func(l *ledger.Ledger) error {
		return l.Save(s.db)
	})
}

func serveMetrics(g *errgroup.Group, addr string, cfg config) (*http.Server, error) {
	for _, c := range cellkit.PromCollectors {
		err := prometheus.DefaultRegisterer.Register(c)
		if err != nil && !xerrors.As(err, &prometheus.AlreadyRegisteredError{}) {
			fmt.Fprintf(cfg.Writer, "ERROR: failed to register: %v\n", err)
		}
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, xerrors.Errorf("failed to listen for metrics: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Handler: mux}

	g.Go(func() error {
		err := srv.Serve(lis)
		if err == http.ErrServerClosed {
			return nil
		}

		return err
	})

	fmt.Fprintf(cfg.Writer, "metrics on %s\n", lis.Addr())

	return srv, nil
}
