package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/cellkit/core/types"
)

func TestCheckOutputs(t *testing.T) {
	lock := types.NewScript(types.Hash{}, types.HashTypeData, nil)

	tx := types.Transaction{
		Outputs: []types.CellOutput{{Capacity: 100 * types.ShannonsPerByte, Lock: lock}},
	}

	err := CheckOutputs(tx)
	require.True(t, errors.Is(err, ErrOutputsDataMismatch))
	require.EqualError(t, err, "invalid outputs (1 != 0): outputs and outputs data length mismatch")

	tx.OutputsData = []types.Bytes{make([]byte, 10)}
	require.NoError(t, CheckOutputs(tx))

	tx.Outputs[0].Capacity = 50 * types.ShannonsPerByte
	err = CheckOutputs(tx)

	var capErr InsufficientCapacityError
	require.True(t, errors.As(err, &capErr))
	require.Equal(t, 0, capErr.Index)
	require.Equal(t, 51*types.ShannonsPerByte, capErr.Occupied)
	require.EqualError(t, err, "output 0: insufficient capacity 5000000000 < occupied 5100000000")
}

func TestCheckTransaction(t *testing.T) {
	err := CheckTransaction(types.Transaction{})
	require.Equal(t, ErrEmptyInputs, err)

	tx := types.Transaction{
		Inputs:      []types.CellInput{types.NewCellInput(types.OutPoint{})},
		OutputsData: []types.Bytes{{}},
	}

	err = CheckTransaction(tx)
	require.True(t, errors.Is(err, ErrOutputsDataMismatch))

	tx.OutputsData = nil
	require.NoError(t, CheckTransaction(tx))
}
