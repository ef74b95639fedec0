package main

import (
	"fmt"

	"go.dedis.ch/cellkit/cli"
	"go.dedis.ch/cellkit/contracts/siglock"
	"go.dedis.ch/cellkit/crypto/ed25519"
	"go.dedis.ch/cellkit/crypto/loader"
	"golang.org/x/xerrors"
)

var keyFlag = cli.StringFlag{
	Name:     "key",
	Usage:    "path to the private key",
	Required: true,
}

func setKeyCommands(builder cli.Builder, cfg config) {
	cmd := builder.SetCommand("key")
	cmd.SetDescription("manage the keys of signature locks")

	sub := cmd.SetSubCommand("new")
	sub.SetDescription("generate a private key unless it exists and print its lock")
	sub.SetFlags(keyFlag)
	sub.SetAction(func(flags cli.Flags) error {
		return newKeyAction(flags, cfg)
	})

	sub = cmd.SetSubCommand("show")
	sub.SetDescription("print the lock of a private key")
	sub.SetFlags(keyFlag)
	sub.SetAction(func(flags cli.Flags) error {
		return showKeyAction(flags, cfg)
	})
}

// signerGenerator generates the private key of a new signer.
//
// - implements loader.Generator
type signerGenerator struct{}

func (signerGenerator) Generate() ([]byte, error) {
	return ed25519.NewSigner().MarshalBinary()
}

func newKeyAction(flags cli.Flags, cfg config) error {
	data, err := loader.NewFileLoader(flags.String(keyFlag.Name)).LoadOrCreate(signerGenerator{})
	if err != nil {
		return xerrors.Errorf("key: %v", err)
	}

	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return xerrors.Errorf("malformed key: %v", err)
	}

	return printLock(cfg, signer)
}

func showKeyAction(flags cli.Flags, cfg config) error {
	signer, err := loadSigner(flags.String(keyFlag.Name))
	if err != nil {
		return err
	}

	return printLock(cfg, signer)
}

func loadSigner(path string) (ed25519.Signer, error) {
	data, err := loader.NewFileLoader(path).Load()
	if err != nil {
		return ed25519.Signer{}, xerrors.Errorf("key: %v", err)
	}

	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return ed25519.Signer{}, xerrors.Errorf("malformed key: %v", err)
	}

	return signer, nil
}

func printLock(cfg config, signer ed25519.Signer) error {
	lock, err := siglock.Script(signer.GetPublicKey())
	if err != nil {
		return err
	}

	fmt.Fprintf(cfg.Writer, "code hash: %v\n", lock.CodeHash)
	fmt.Fprintf(cfg.Writer, "args: %v\n", lock.Args)
	fmt.Fprintf(cfg.Writer, "lock hash: %v\n", lock.Hash())

	return nil
}
