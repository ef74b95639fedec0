package main

import (
	"encoding/json"
	"io"

	"go.dedis.ch/cellkit"
	"go.dedis.ch/cellkit/cli"
	"go.dedis.ch/cellkit/contracts/alwayssuccess"
	"go.dedis.ch/cellkit/contracts/siglock"
	"go.dedis.ch/cellkit/contracts/sudt"
	"go.dedis.ch/cellkit/core/execution"
	"go.dedis.ch/cellkit/core/execution/native"
	"go.dedis.ch/cellkit/core/ledger"
	"go.dedis.ch/cellkit/core/store/kv"
	"golang.org/x/xerrors"
)

// builtins is the list of the programs known by the command line, in the
// order they are deployed.
var builtins = []struct {
	name string
	code []byte
}{
	{name: alwayssuccess.ContractName, code: alwayssuccess.Code},
	{name: siglock.ContractName, code: siglock.Code},
	{name: sudt.ContractName, code: sudt.Code},
}

func newEngine() *native.Engine {
	engine := native.NewEngine()
	alwayssuccess.Register(engine)
	siglock.Register(engine)
	sudt.Register(engine)

	return engine
}

// store is a ledger loaded from its database.
type store struct {
	db     kv.DB
	ledger *ledger.Ledger
	cfg    execution.Config
}

func openStore(flags cli.Flags) (*store, error) {
	cfg := execution.DefaultConfig()

	path := flags.String(configFlag.Name)
	if path != "" {
		var err error
		cfg, err = execution.LoadConfig(path)
		if err != nil {
			return nil, xerrors.Errorf("config: %v", err)
		}
	}

	ctx, err := cfg.Context()
	if err != nil {
		return nil, xerrors.Errorf("config: %v", err)
	}

	db, err := kv.New(flags.String(dbFlag.Name))
	if err != nil {
		return nil, xerrors.Errorf("failed to open database: %v", err)
	}

	l, err := ledger.Load(db,
		ledger.WithEngine(newEngine()),
		ledger.WithVerifyContext(ctx),
		ledger.WithMaxCycles(cfg.MaxCycles),
		ledger.WithLogger(cellkit.Logger))
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &store{
		db:     db,
		ledger: l,
		cfg:    cfg,
	}

	return s, nil
}

func (s *store) save() error {
	return s.ledger.Save(s.db)
}

func (s *store) Close() error {
	return s.db.Close()
}

func printJSON(out io.Writer, value interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	err := enc.Encode(value)
	if err != nil {
		return xerrors.Errorf("failed to encode: %v", err)
	}

	return nil
}
