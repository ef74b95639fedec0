package main

import (
	"fmt"
	"os"

	"go.dedis.ch/cellkit/cli"
	"go.dedis.ch/cellkit/core/query"
	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

func setLedgerCommands(builder cli.Builder, cfg config) {
	cmd := builder.SetCommand("ledger")
	cmd.SetDescription("manage the cells of the ledger")

	sub := cmd.SetSubCommand("init")
	sub.SetDescription("deploy the built-in programs")
	sub.SetFlags(dbFlag)
	sub.SetAction(func(flags cli.Flags) error {
		return initAction(flags, cfg)
	})

	sub = cmd.SetSubCommand("deploy")
	sub.SetDescription("deploy a code cell from a file")
	sub.SetFlags(dbFlag, cli.StringFlag{
		Name:     "file",
		Usage:    "path to the code",
		Required: true,
	})
	sub.SetAction(func(flags cli.Flags) error {
		return deployAction(flags, cfg)
	})

	sub = cmd.SetSubCommand("fund")
	sub.SetDescription("create a cell with the given lock")
	sub.SetFlags(dbFlag,
		cli.StringFlag{
			Name:     "code-hash",
			Usage:    "code hash of the lock",
			Required: true,
		},
		cli.StringFlag{
			Name:  "hash-type",
			Usage: "hash type of the lock",
			Value: types.HashTypeData.String(),
		},
		cli.StringFlag{
			Name:  "args",
			Usage: "hexadecimal arguments of the lock",
		},
		cli.Uint64Flag{
			Name:     "capacity",
			Usage:    "capacity of the cell in shannons",
			Required: true,
		},
	)
	sub.SetAction(func(flags cli.Flags) error {
		return fundAction(flags, cfg)
	})

	sub = cmd.SetSubCommand("get")
	sub.SetDescription("print a cell")
	sub.SetFlags(dbFlag, cli.StringFlag{
		Name:     "outpoint",
		Usage:    "out-point of the cell as <tx hash>:<index>",
		Required: true,
	})
	sub.SetAction(func(flags cli.Flags) error {
		return getAction(flags, cfg)
	})

	sub = cmd.SetSubCommand("cells")
	sub.SetDescription("list the live cells")
	sub.SetFlags(dbFlag,
		cli.StringFlag{
			Name:  "lock-hash",
			Usage: "only list the cells locked by the script hash",
		},
		cli.StringFlag{
			Name:  "data-hash",
			Usage: "only list the cells holding the data",
		},
		cli.IntFlag{
			Name:  "limit",
			Usage: "maximum number of cells, or zero for all",
		},
	)
	sub.SetAction(func(flags cli.Flags) error {
		return cellsAction(flags, cfg)
	})
}

func initAction(flags cli.Flags, cfg config) error {
	s, err := openStore(flags)
	if err != nil {
		return err
	}

	defer s.Close()

	for _, builtin := range builtins {
		op, err := s.ledger.Deploy(builtin.code)
		if err != nil {
			return xerrors.Errorf("failed to deploy %s: %v", builtin.name, err)
		}

		fmt.Fprintf(cfg.Writer, "%s %v %v\n", builtin.name, op, types.HashOf(builtin.code))
	}

	return s.save()
}

func deployAction(flags cli.Flags, cfg config) error {
	code, err := os.ReadFile(flags.String("file"))
	if err != nil {
		return xerrors.Errorf("failed to read code: %v", err)
	}

	s, err := openStore(flags)
	if err != nil {
		return err
	}

	defer s.Close()

	op, err := s.ledger.Deploy(code)
	if err != nil {
		return xerrors.Errorf("failed to deploy: %v", err)
	}

	fmt.Fprintf(cfg.Writer, "%v %v\n", op, types.HashOf(code))

	return s.save()
}

func fundAction(flags cli.Flags, cfg config) error {
	codeHash, err := types.HashFromHex(flags.String("code-hash"))
	if err != nil {
		return xerrors.Errorf("code hash: %v", err)
	}

	var hashType types.HashType
	err = hashType.UnmarshalText([]byte(flags.String("hash-type")))
	if err != nil {
		return xerrors.Errorf("hash type: %v", err)
	}

	var args types.Bytes
	err = args.UnmarshalText([]byte(flags.String("args")))
	if err != nil {
		return xerrors.Errorf("args: %v", err)
	}

	capacity := flags.Uint64("capacity")
	if capacity == 0 {
		return xerrors.Errorf("invalid capacity %d", capacity)
	}

	s, err := openStore(flags)
	if err != nil {
		return err
	}

	defer s.Close()

	output := types.CellOutput{
		Capacity: capacity,
		Lock:     types.NewScript(codeHash, hashType, args),
	}

	op, err := s.ledger.Create(output, nil)
	if err != nil {
		return xerrors.Errorf("failed to create cell: %v", err)
	}

	fmt.Fprintln(cfg.Writer, op)

	return s.save()
}

type cellView struct {
	Status string          `json:"status"`
	Cell   *types.CellMeta `json:"cell,omitempty"`
}

func getAction(flags cli.Flags, cfg config) error {
	op, err := types.ParseOutPoint(flags.String("outpoint"))
	if err != nil {
		return xerrors.Errorf("outpoint: %v", err)
	}

	s, err := openStore(flags)
	if err != nil {
		return err
	}

	defer s.Close()

	meta, status, err := s.ledger.Cell(op, true)
	if err != nil {
		return xerrors.Errorf("failed to read cell: %v", err)
	}

	view := cellView{Status: status.String()}
	if meta.OutPoint == op {
		view.Cell = &meta
	}

	return printJSON(cfg.Writer, view)
}

func cellsAction(flags cli.Flags, cfg config) error {
	lockHash := flags.String("lock-hash")
	dataHash := flags.String("data-hash")

	if lockHash != "" && dataHash != "" {
		return xerrors.New("only one of lock-hash and data-hash can be set")
	}

	s, err := openStore(flags)
	if err != nil {
		return err
	}

	defer s.Close()

	var cells []types.CellMeta

	switch {
	case lockHash != "":
		hash, err := types.HashFromHex(lockHash)
		if err != nil {
			return xerrors.Errorf("lock hash: %v", err)
		}

		cells, err = query.NewEngine(s.ledger).Query(query.NewCellQuery(query.ByLockHash(hash), flags.Int("limit")))
		if err != nil {
			return xerrors.Errorf("failed to query: %v", err)
		}
	case dataHash != "":
		hash, err := types.HashFromHex(dataHash)
		if err != nil {
			return xerrors.Errorf("data hash: %v", err)
		}

		cells, err = query.NewEngine(s.ledger).Query(query.NewCellQuery(query.ByDataHash(hash), flags.Int("limit")))
		if err != nil {
			return xerrors.Errorf("failed to query: %v", err)
		}
	default:
		limit := flags.Int("limit")
		cells = []types.CellMeta{}

		for _, meta := range s.ledger.Cells() {
			if limit > 0 && len(cells) >= limit {
				break
			}

			if s.ledger.IsLive(meta.OutPoint) {
				cells = append(cells, meta)
			}
		}
	}

	return printJSON(cfg.Writer, cells)
}
