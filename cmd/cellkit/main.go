// Package main implements the cellkit command line. It manipulates a ledger
// stored in a bbolt file and can serve it to remote clients.
//
//	cellkit ledger init --db ledger.db
//	cellkit key new --key alice.key
//	cellkit ledger fund --db ledger.db --code-hash XX --args XX --capacity 100
//	cellkit ledger cells --db ledger.db --lock-hash XX
//	cellkit tx complete --db ledger.db --tx tx.json --out tx.json
//	cellkit tx sign --db ledger.db --tx tx.json --key alice.key
//	cellkit tx send --db ledger.db --tx tx.json --config verify.yml
//	cellkit serve --db ledger.db --listen 127.0.0.1:9000 --metrics :9100
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.dedis.ch/cellkit/cli"
	"go.dedis.ch/cellkit/cli/ucli"
)

type config struct {
	Channel chan os.Signal
	Writer  io.Writer
}

func main() {
	err := run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	return runWithCfg(args, config{Channel: make(chan os.Signal, 1), Writer: os.Stdout})
}

func runWithCfg(args []string, cfg config) error {
	signal.Notify(cfg.Channel, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(cfg.Channel)

	builder := ucli.NewBuilder("cellkit", "build and verify transactions of a cell ledger")

	setLedgerCommands(builder, cfg)
	setKeyCommands(builder, cfg)
	setTxCommands(builder, cfg)
	setServeCommand(builder, cfg)

	return builder.Build().Run(args)
}

var (
	dbFlag = cli.StringFlag{
		Name:  "db",
		Usage: "path to the ledger database",
		Value: "cellkit.db",
	}

	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to the YAML configuration of the verification context",
	}
)
