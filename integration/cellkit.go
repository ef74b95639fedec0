// Package integration runs end-to-end scenarios over a complete toolkit: a
// ledger verifying with the native engine and the built-in programs, the
// generator pipeline, and the providers.
package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/cellkit/contracts/alwayssuccess"
	"go.dedis.ch/cellkit/contracts/siglock"
	"go.dedis.ch/cellkit/contracts/sudt"
	"go.dedis.ch/cellkit/core/contract"
	"go.dedis.ch/cellkit/core/execution/native"
	"go.dedis.ch/cellkit/core/generator"
	"go.dedis.ch/cellkit/core/ledger"
	"go.dedis.ch/cellkit/core/provider"
	"go.dedis.ch/cellkit/core/provider/local"
	"go.dedis.ch/cellkit/core/types"
	"go.dedis.ch/cellkit/crypto"
)

// node is a single owner of a ledger with the built-in programs deployed.
type node struct {
	t        *testing.T
	ledger   *ledger.Ledger
	provider *local.Provider
}

func newEngine() *native.Engine {
	engine := native.NewEngine()
	alwayssuccess.Register(engine)
	siglock.Register(engine)
	sudt.Register(engine)

	return engine
}

func newNode(t *testing.T, opts ...ledger.Option) *node {
	opts = append([]ledger.Option{ledger.WithEngine(newEngine())}, opts...)

	l := ledger.NewLedger(opts...)

	for _, code := range [][]byte{alwayssuccess.Code, siglock.Code, sudt.Code} {
		_, err := l.Deploy(code)
		require.NoError(t, err)
	}

	return &node{
		t:        t,
		ledger:   l,
		provider: local.NewProvider(l),
	}
}

// fund creates a cell with the lock and the capacity.
func (n *node) fund(lock types.Script, capacity uint64) types.OutPoint {
	var op types.OutPoint

	err := n.provider.Update(func(l *ledger.Ledger) error {
		var err error
		op, err = l.Create(types.CellOutput{Capacity: capacity, Lock: lock}, nil)
		return err
	})
	require.NoError(n.t, err)

	return op
}

// build runs the pipeline of contracts against the provider, completes the
// code dependencies and signs the inputs locked by the signers.
func (n *node) build(p provider.Provider, signers []crypto.Signer,
	contracts ...*contract.Contract) (types.Transaction, error) {

	ctx := context.Background()

	gen := generator.NewGenerator(provider.NewQuerySource(ctx, p)).Pipe(contracts...)

	res, err := gen.Generate(types.Transaction{})
	if err != nil {
		return types.Transaction{}, err
	}

	var tx types.Transaction

	err = n.provider.Update(func(l *ledger.Ledger) error {
		var err error
		tx, err = l.CompleteCellDeps(res.Transaction)
		return err
	})
	if err != nil {
		return tx, err
	}

	for _, signer := range signers {
		lock, err := siglock.Script(signer.GetPublicKey())
		if err != nil {
			return tx, err
		}

		index := firstInput(res.Inputs, tx, lock)
		if index < 0 {
			continue
		}

		err = siglock.Sign(&tx, index, signer)
		if err != nil {
			return tx, err
		}
	}

	return tx, nil
}

func firstInput(inputs map[types.OutPoint]types.CellMeta, tx types.Transaction, lock types.Script) int {
	for i, input := range tx.Inputs {
		meta, found := inputs[input.PreviousOutput]
		if found && meta.Output.Lock.Equal(lock) {
			return i
		}
	}

	return -1
}
