package main

import (
	"encoding/json"
	"fmt"
	"os"

	"go.dedis.ch/cellkit/cli"
	"go.dedis.ch/cellkit/contracts/siglock"
	"go.dedis.ch/cellkit/core/execution"
	"go.dedis.ch/cellkit/core/ledger"
	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

var (
	txFlag = cli.StringFlag{
		Name:     "tx",
		Usage:    "path to the JSON transaction",
		Required: true,
	}

	debugFlag = cli.BoolFlag{
		Name:  "debug",
		Usage: "print the debug messages of the scripts",
	}
)

func setTxCommands(builder cli.Builder, cfg config) {
	cmd := builder.SetCommand("tx")
	cmd.SetDescription("process transactions against the ledger")

	sub := cmd.SetSubCommand("complete")
	sub.SetDescription("add the code dependencies of the scripts")
	sub.SetFlags(dbFlag, txFlag, cli.StringFlag{
		Name:  "out",
		Usage: "path to write the completed transaction, or stdout if empty",
	})
	sub.SetAction(func(flags cli.Flags) error {
		return completeAction(flags, cfg)
	})

	sub = cmd.SetSubCommand("sign")
	sub.SetDescription("sign the inputs locked by a key")
	sub.SetFlags(dbFlag, txFlag, keyFlag)
	sub.SetAction(func(flags cli.Flags) error {
		return signAction(flags, cfg)
	})

	sub = cmd.SetSubCommand("verify")
	sub.SetDescription("verify a transaction without committing it")
	sub.SetFlags(dbFlag, configFlag, txFlag, debugFlag)
	sub.SetAction(func(flags cli.Flags) error {
		return verifyAction(flags, cfg)
	})

	sub = cmd.SetSubCommand("send")
	sub.SetDescription("verify and commit a transaction")
	sub.SetFlags(dbFlag, configFlag, txFlag, debugFlag)
	sub.SetAction(func(flags cli.Flags) error {
		return sendAction(flags, cfg)
	})
}

func completeAction(flags cli.Flags, cfg config) error {
	tx, err := readTransaction(flags.String(txFlag.Name))
	if err != nil {
		return err
	}

	s, err := openStore(flags)
	if err != nil {
		return err
	}

	defer s.Close()

	tx, err = s.ledger.CompleteCellDeps(tx)
	if err != nil {
		return xerrors.Errorf("failed to complete: %v", err)
	}

	out := flags.String("out")
	if out == "" {
		return printJSON(cfg.Writer, tx)
	}

	return writeTransaction(out, tx)
}

func signAction(flags cli.Flags, cfg config) error {
	path := flags.String(txFlag.Name)

	tx, err := readTransaction(path)
	if err != nil {
		return err
	}

	signer, err := loadSigner(flags.String(keyFlag.Name))
	if err != nil {
		return err
	}

	lock, err := siglock.Script(signer.GetPublicKey())
	if err != nil {
		return err
	}

	s, err := openStore(flags)
	if err != nil {
		return err
	}

	defer s.Close()

	// The lock group is signed at its first input.
	index := -1
	for i, input := range tx.Inputs {
		meta, found := s.ledger.Get(input.PreviousOutput)
		if found && meta.Output.Lock.Equal(lock) {
			index = i
			break
		}
	}

	if index < 0 {
		return xerrors.Errorf("no input locked by %v", lock.Hash())
	}

	err = siglock.Sign(&tx, index, signer)
	if err != nil {
		return xerrors.Errorf("failed to sign: %v", err)
	}

	fmt.Fprintf(cfg.Writer, "input %d signed\n", index)

	return writeTransaction(path, tx)
}

func verifyAction(flags cli.Flags, cfg config) error {
	tx, err := readTransaction(flags.String(txFlag.Name))
	if err != nil {
		return err
	}

	s, err := openStore(flags)
	if err != nil {
		return err
	}

	defer s.Close()

	cycles, err := s.ledger.Verify(tx, s.cfg.MaxCycles, verifyOptions(flags, cfg)...)
	if err != nil {
		return err
	}

	fmt.Fprintf(cfg.Writer, "%v verified with %d cycles\n", tx.Hash(), cycles)

	return nil
}

func sendAction(flags cli.Flags, cfg config) error {
	tx, err := readTransaction(flags.String(txFlag.Name))
	if err != nil {
		return err
	}

	s, err := openStore(flags)
	if err != nil {
		return err
	}

	defer s.Close()

	hash, err := s.ledger.Receive(tx, verifyOptions(flags, cfg)...)
	if err != nil {
		return err
	}

	err = s.save()
	if err != nil {
		return err
	}

	fmt.Fprintln(cfg.Writer, hash)

	return nil
}

func verifyOptions(flags cli.Flags, cfg config) []ledger.VerifyOption {
	if !flags.Bool(debugFlag.Name) {
		return nil
	}

	obs := execution.ObserverFunc(func(scriptHash types.Hash, msg string) {
		fmt.Fprintf(cfg.Writer, "[%v] %s\n", scriptHash, msg)
	})

	return []ledger.VerifyOption{ledger.WithObserver(obs)}
}

func writeTransaction(path string, tx types.Transaction) error {
	data, err := json.MarshalIndent(tx, "", "  ")
	if err != nil {
		return xerrors.Errorf("failed to encode: %v", err)
	}

	err = os.WriteFile(path, data, 0644)
	if err != nil {
		return xerrors.Errorf("failed to write transaction: %v", err)
	}

	return nil
}

func readTransaction(path string) (types.Transaction, error) {
	var tx types.Transaction

	data, err := os.ReadFile(path)
	if err != nil {
		return tx, xerrors.Errorf("failed to read transaction: %v", err)
	}

	err = json.Unmarshal(data, &tx)
	if err != nil {
		return tx, xerrors.Errorf("failed to decode transaction: %v", err)
	}

	return tx, nil
}
