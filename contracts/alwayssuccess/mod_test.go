package alwayssuccess

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/cellkit/core/contract"
	"go.dedis.ch/cellkit/core/execution"
	"go.dedis.ch/cellkit/core/execution/native"
	"go.dedis.ch/cellkit/core/types"
)

func TestProgram_Execute(t *testing.T) {
	engine := native.NewEngine()
	require.Equal(t, CodeHash, Register(engine))

	lock := Script([]byte{1})
	dep := types.NewCellMeta(types.NewOutPoint(types.HashOf([]byte("dep")), 0), types.CellOutput{}, Code)
	input := types.NewCellMeta(types.NewOutPoint(types.HashOf([]byte("in")), 0),
		types.CellOutput{Capacity: 100, Lock: lock}, nil)

	rtx := types.ResolvedTransaction{
		Transaction: types.Transaction{
			Inputs: []types.CellInput{types.NewCellInput(input.OutPoint)},
		},
		ResolvedCellDeps: []types.CellMeta{dep},
		ResolvedInputs:   []types.CellMeta{input},
	}

	obs := &execution.BufferObserver{}
	verifier := execution.NewVerifier(engine, execution.WithObserver(obs))

	cycles, err := verifier.Verify(rtx, execution.DefaultMaxCycles)
	require.NoError(t, err)
	require.Equal(t, native.DefaultBaseCycles, cycles)
	require.Len(t, obs.Messages(), 1)
	require.Equal(t, "always success", obs.Messages()[0].Message)
	require.Equal(t, lock.Hash(), obs.Messages()[0].ScriptHash)
}

func TestNewContract(t *testing.T) {
	c := NewContract(contract.UsageLock, contract.WithArgs([]byte{2}))
	require.Equal(t, ContractName, c.Name())
	require.Equal(t, CodeHash, c.CodeHash())
	require.Equal(t, Script([]byte{2}), c.Script())
}
