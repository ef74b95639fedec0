package local

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/cellkit/core/execution"
	"go.dedis.ch/cellkit/core/ledger"
	"go.dedis.ch/cellkit/core/provider"
	"go.dedis.ch/cellkit/core/query"
	"go.dedis.ch/cellkit/core/resolve"
	"go.dedis.ch/cellkit/core/types"
	"go.dedis.ch/cellkit/testing/fake"
	"golang.org/x/xerrors"
)

func TestProvider_GetCell(t *testing.T) {
	p, op := makeProvider(fake.NewEngine(1))
	ctx := context.Background()

	meta, status, err := p.GetCell(ctx, op, true)
	require.NoError(t, err)
	require.Equal(t, resolve.StatusLive, status)
	require.Equal(t, types.Bytes("genesis"), meta.Data)

	meta, _, err = p.GetCell(ctx, op, false)
	require.NoError(t, err)
	require.Nil(t, meta.Data)

	_, status, err = p.GetCell(ctx, types.OutPoint{}, false)
	require.NoError(t, err)
	require.Equal(t, resolve.StatusUnknown, status)
}

func TestProvider_SendTransaction(t *testing.T) {
	p, op := makeProvider(fake.NewEngine(1))
	ctx := context.Background()

	tx := makeTx(op)

	hash, err := p.SendTransaction(ctx, tx)
	require.NoError(t, err)
	require.Equal(t, tx.Hash(), hash)

	_, status, err := p.GetCell(ctx, op, false)
	require.NoError(t, err)
	require.Equal(t, resolve.StatusDead, status)

	committed, err := p.GetTransaction(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, tx, committed.Transaction)

	_, err = p.GetTransaction(ctx, types.Hash{})
	require.True(t, xerrors.Is(err, provider.ErrNotFound))

	cells, err := p.FindCells(ctx, query.NewCellQuery(query.ByLockScript(lock), 0))
	require.NoError(t, err)
	require.Len(t, cells, 1)
	require.Equal(t, types.NewOutPoint(hash, 0), cells[0].OutPoint)
}

func TestProvider_SendRejected(t *testing.T) {
	p, op := makeProvider(fake.NewRejectingEngine("nope"))

	_, err := p.SendTransaction(context.Background(), makeTx(op))
	require.True(t, execution.IsRejected(err))
}

func TestProvider_Headers(t *testing.T) {
	p, _ := makeProvider(fake.NewEngine(1))
	ctx := context.Background()

	var block types.Header
	err := p.Update(func(l *ledger.Ledger) error {
		block = l.NewBlock(42)
		return nil
	})
	require.NoError(t, err)

	tip, err := p.GetTip(ctx)
	require.NoError(t, err)
	require.Equal(t, block, tip)

	header, err := p.GetHeader(ctx, block.Hash)
	require.NoError(t, err)
	require.Equal(t, block, header)

	_, err = p.GetHeader(ctx, types.Hash{})
	require.True(t, xerrors.Is(err, provider.ErrNotFound))
}

func TestProvider_Update(t *testing.T) {
	p, _ := makeProvider(fake.NewEngine(1))

	err := p.Update(func(*ledger.Ledger) error {
		return fake.GetError()
	})
	require.EqualError(t, err, fake.GetError().Error())
}

func TestProvider_Canceled(t *testing.T) {
	p, op := makeProvider(fake.NewEngine(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := p.GetCell(ctx, op, false)
	require.Equal(t, context.Canceled, err)

	_, err = p.GetTransaction(ctx, types.Hash{})
	require.Equal(t, context.Canceled, err)

	_, err = p.GetHeader(ctx, types.Hash{})
	require.Equal(t, context.Canceled, err)

	_, err = p.GetTip(ctx)
	require.Equal(t, context.Canceled, err)

	_, err = p.SendTransaction(ctx, makeTx(op))
	require.Equal(t, context.Canceled, err)

	_, err = p.FindCells(ctx, query.CellQuery{})
	require.Equal(t, context.Canceled, err)
}

func TestProvider_Concurrent(t *testing.T) {
	p, op := makeProvider(fake.NewEngine(1))
	ctx := context.Background()

	wg := sync.WaitGroup{}
	wg.Add(10)

	for i := 0; i < 10; i++ {
		go func() {
			defer wg.Done()

			p.GetCell(ctx, op, true)
			p.FindCells(ctx, query.NewCellQuery(query.ByLockScript(lock), 0))
		}()
	}

	hash, err := p.SendTransaction(ctx, makeTx(op))
	wg.Wait()

	require.NoError(t, err)

	_, status, err := p.GetCell(ctx, types.NewOutPoint(hash, 0), false)
	require.NoError(t, err)
	require.Equal(t, resolve.StatusLive, status)
}

// -----------------------------------------------------------------------------
// Utility functions

var lock = types.NewScript(types.Hash{1}, types.HashTypeData, []byte{1})

func makeProvider(engine execution.Engine) (*Provider, types.OutPoint) {
	l := ledger.NewLedger(ledger.WithEngine(engine))

	op := types.NewOutPoint(types.Hash{0xa}, 0)
	l.CreateAt(op, types.CellOutput{Capacity: 1000e8, Lock: lock}, []byte("genesis"))

	return NewProvider(l), op
}

func makeTx(inputs ...types.OutPoint) types.Transaction {
	tx := types.Transaction{
		Outputs:     []types.CellOutput{{Capacity: 500e8, Lock: lock}},
		OutputsData: []types.Bytes{types.Bytes("out")},
	}

	for _, op := range inputs {
		tx.Inputs = append(tx.Inputs, types.NewCellInput(op))
	}

	return tx
}
