package ledger

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/cellkit/core/execution"
	"go.dedis.ch/cellkit/core/resolve"
	"go.dedis.ch/cellkit/core/types"
	"go.dedis.ch/cellkit/core/validation"
	"go.dedis.ch/cellkit/testing/fake"
	"golang.org/x/xerrors"
)

func TestLedger_Verify(t *testing.T) {
	engine := fake.NewEngine(123)
	l := NewLedger(WithEngine(engine))

	op := types.NewOutPoint(types.Hash{0xa}, 0)
	l.CreateAt(op, types.CellOutput{Capacity: 1000e8, Lock: makeLock(1)}, []byte("a"))

	tx := makeTx(op)

	cycles, err := l.Verify(tx, 500)
	require.NoError(t, err)
	require.Equal(t, uint64(123), cycles)
	require.Equal(t, 1, engine.Calls)
	require.Equal(t, uint64(500), engine.MaxCycles)
	require.Equal(t, execution.DefaultContext(), engine.Env.Context)
	require.Equal(t, l, engine.Env.Loader)

	// Inputs are not eagerly loaded.
	require.Len(t, engine.Last.ResolvedInputs, 1)
	require.Nil(t, engine.Last.ResolvedInputs[0].Data)

	ctx := execution.DefaultContext()
	ctx.Env.BlockNumber = 99
	obs := &execution.BufferObserver{}

	_, err = l.Verify(tx, 500, WithContext(ctx), WithObserver(obs))
	require.NoError(t, err)
	require.Equal(t, ctx, engine.Env.Context)
	require.Same(t, obs, engine.Env.Observer)
}

func TestLedger_VerifyStructuralFailure(t *testing.T) {
	engine := fake.NewEngine(1)
	l := NewLedger(WithEngine(engine))

	op := types.NewOutPoint(types.Hash{0xa}, 0)
	l.CreateAt(op, types.CellOutput{Capacity: 1000e8, Lock: makeLock(1)}, nil)

	tx := makeTx(op)
	tx.OutputsData = append(tx.OutputsData, nil)

	_, err := l.Verify(tx, 500)
	require.True(t, xerrors.Is(err, validation.ErrOutputsDataMismatch))
	require.Equal(t, 0, engine.Calls)

	tx = makeTx(op)
	tx.Outputs[0].Capacity = 1

	_, err = l.Verify(tx, 500)
	var capErr validation.InsufficientCapacityError
	require.True(t, xerrors.As(err, &capErr))

	tx = makeTx()

	_, err = l.Verify(tx, 500)
	require.True(t, xerrors.Is(err, validation.ErrEmptyInputs))
	require.Equal(t, 0, engine.Calls)
}

func TestLedger_VerifyResolutionFailure(t *testing.T) {
	engine := fake.NewEngine(1)
	l := NewLedger(WithEngine(engine))

	op := types.NewOutPoint(types.Hash{0xa}, 0)
	l.CreateAt(op, types.CellOutput{Capacity: 1000e8, Lock: makeLock(1)}, nil)

	_, err := l.Verify(makeTx(op, op), 500)
	var dead resolve.DeadOutPointError
	require.True(t, xerrors.As(err, &dead))
	require.Equal(t, op, dead.OutPoint)

	missing := types.NewOutPoint(types.Hash{0xb}, 0)

	_, err = l.Verify(makeTx(missing), 500)
	var unknown resolve.UnknownOutPointError
	require.True(t, xerrors.As(err, &unknown))
	require.Equal(t, missing, unknown.OutPoint)

	tx := makeTx(op)
	tx.HeaderDeps = []types.Hash{{0xc}}

	_, err = l.Verify(tx, 500)
	var header resolve.UnknownHeaderError
	require.True(t, xerrors.As(err, &header))

	require.Equal(t, 0, engine.Calls)
}

func TestLedger_VerifyRejected(t *testing.T) {
	l := NewLedger(WithEngine(fake.NewRejectingEngine("nope")))

	op := types.NewOutPoint(types.Hash{0xa}, 0)
	l.CreateAt(op, types.CellOutput{Capacity: 1000e8, Lock: makeLock(1)}, nil)

	_, err := l.Verify(makeTx(op), 500)
	require.True(t, execution.IsRejected(err))
	require.EqualError(t, err, "failed to verify: transaction rejected: nope")

	l = NewLedger(WithEngine(fake.NewBadEngine()))
	l.CreateAt(op, types.CellOutput{Capacity: 1000e8, Lock: makeLock(1)}, nil)

	_, err = l.Verify(makeTx(op), 500)
	require.False(t, execution.IsRejected(err))
	require.EqualError(t, err, "failed to verify: engine failed: "+fake.GetError().Error())
}

func TestLedger_Receive(t *testing.T) {
	l := NewLedger(WithEngine(fake.NewEngine(10)), WithMaxCycles(20))
	block := l.NewBlock(1)

	op := types.NewOutPoint(types.Hash{0xa}, 0)
	l.CreateAt(op, types.CellOutput{Capacity: 1000e8, Lock: makeLock(1)}, nil)

	accepted := testutil.ToFloat64(promTxs.WithLabelValues(statusAccepted))

	tx := makeTx(op)

	hash, err := l.Receive(tx)
	require.NoError(t, err)
	require.Equal(t, tx.Hash(), hash)
	require.Equal(t, accepted+1, testutil.ToFloat64(promTxs.WithLabelValues(statusAccepted)))

	require.False(t, l.IsLive(op))

	out := types.NewOutPoint(hash, 0)
	require.True(t, l.IsLive(out))

	meta, found := l.Get(out)
	require.True(t, found)
	require.Equal(t, types.Bytes("out"), meta.Data)
	require.NotNil(t, meta.TxInfo)
	require.Equal(t, block.Hash, meta.TxInfo.BlockHash)
	require.Equal(t, uint64(1), meta.TxInfo.BlockNumber)
	require.Equal(t, 0, meta.TxInfo.Index)

	committed, found := l.GetTransaction(hash)
	require.True(t, found)
	require.Equal(t, tx, committed.Transaction)
	require.Equal(t, *meta.TxInfo, committed.Info)

	_, found = l.GetTransaction(types.Hash{})
	require.False(t, found)

	require.Equal(t, uint64(20), l.engine.(*fake.Engine).MaxCycles)

	// The input is now consumed.
	spend := makeTx(op)
	spend.OutputsData[0] = types.Bytes("other")

	_, err = l.Receive(spend)
	var dead resolve.DeadOutPointError
	require.True(t, xerrors.As(err, &dead))

	_, err = l.Receive(tx)
	require.EqualError(t, err, "transaction "+hash.String()+" already committed")

	// The second transaction of the block gets the next index.
	hash, err = l.Receive(makeTx(out))
	require.NoError(t, err)

	meta, _ = l.Get(types.NewOutPoint(hash, 0))
	require.Equal(t, 1, meta.TxInfo.Index)
}

func TestLedger_ReceiveRejected(t *testing.T) {
	l := NewLedger(WithEngine(fake.NewRejectingEngine("nope")))

	op := types.NewOutPoint(types.Hash{0xa}, 0)
	l.CreateAt(op, types.CellOutput{Capacity: 1000e8, Lock: makeLock(1)}, nil)

	rejected := testutil.ToFloat64(promTxs.WithLabelValues(statusRejected))

	tx := makeTx(op)

	_, err := l.Receive(tx)
	require.True(t, execution.IsRejected(err))
	require.Equal(t, rejected+1, testutil.ToFloat64(promTxs.WithLabelValues(statusRejected)))

	require.True(t, l.IsLive(op))
	require.False(t, l.IsLive(types.NewOutPoint(tx.Hash(), 0)))
}

func TestLedger_ReceiveCellbase(t *testing.T) {
	l := NewLedger(WithEngine(fake.NewEngine(0)))

	tx := types.Transaction{
		Inputs:      []types.CellInput{types.NewCellInput(types.NullOutPoint)},
		Outputs:     []types.CellOutput{{Capacity: 1000e8, Lock: makeLock(1)}},
		OutputsData: []types.Bytes{nil},
	}

	hash, err := l.Receive(tx)
	require.NoError(t, err)
	require.True(t, l.IsLive(types.NewOutPoint(hash, 0)))
}

// -----------------------------------------------------------------------------
// Utility functions

func makeTx(inputs ...types.OutPoint) types.Transaction {
	tx := types.Transaction{
		Outputs:     []types.CellOutput{{Capacity: 500e8, Lock: makeLock(2)}},
		OutputsData: []types.Bytes{types.Bytes("out")},
	}

	for _, op := range inputs {
		tx.Inputs = append(tx.Inputs, types.NewCellInput(op))
	}

	return tx
}
