package query

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/cellkit/core/ledger"
	"go.dedis.ch/cellkit/core/types"
	"go.dedis.ch/cellkit/testing/fake"
	"golang.org/x/xerrors"
)

func TestIndexEngine_Query(t *testing.T) {
	lock := types.NewScript(types.Hash{1}, types.HashTypeData, nil)
	kind := types.NewScript(types.Hash{2}, types.HashTypeData, nil)

	index := newFakeIndex()
	a := index.add(types.CellOutput{Lock: lock}, []byte("a"), true)
	b := index.add(types.CellOutput{Lock: lock, Type: &kind}, []byte("b"), false)
	c := index.add(types.CellOutput{Lock: lock, Type: &kind}, []byte("c"), true)

	engine := NewEngine(index)

	cells, err := engine.Query(NewCellQuery(ByLockHash(lock.Hash()), 0))
	require.NoError(t, err)
	require.Equal(t, []types.OutPoint{a, c}, outPoints(cells))

	cells, err = engine.Query(NewCellQuery(ByLockScript(lock), 1))
	require.NoError(t, err)
	require.Equal(t, []types.OutPoint{a}, outPoints(cells))

	cells, err = engine.Query(NewCellQuery(ByTypeScript(kind), 10))
	require.NoError(t, err)
	require.Equal(t, []types.OutPoint{c}, outPoints(cells))

	cells, err = engine.Query(NewCellQuery(ByDataHash(types.HashOf([]byte("c"))), 1))
	require.NoError(t, err)
	require.Equal(t, []types.OutPoint{c}, outPoints(cells))

	// A dead cell is never returned.
	cells, err = engine.Query(NewCellQuery(ByDataHash(types.HashOf([]byte("b"))), 1))
	require.NoError(t, err)
	require.Empty(t, cells)
	require.NotContains(t, outPoints(cells), b)

	// Missing index and empty index are the same.
	cells, err = engine.Query(NewCellQuery(ByLockHash(types.Hash{9}), 1))
	require.NoError(t, err)
	require.NotNil(t, cells)
	require.Empty(t, cells)

	cells, err = engine.Query(NewCellQuery(ByDataHash(types.Hash{9}), 1))
	require.NoError(t, err)
	require.Empty(t, cells)
}

func TestIndexEngine_DataHashAfterSpend(t *testing.T) {
	l := ledger.NewLedger(ledger.WithEngine(fake.NewEngine(0)))

	lock := types.NewScript(types.Hash{1}, types.HashTypeData, nil)
	first := types.NewOutPoint(types.Hash{0xa}, 0)
	l.CreateAt(first, types.CellOutput{Capacity: 1000e8, Lock: lock}, []byte("payload"))

	tx := types.Transaction{
		Inputs:      []types.CellInput{types.NewCellInput(first)},
		Outputs:     []types.CellOutput{{Capacity: 500e8, Lock: lock}},
		OutputsData: []types.Bytes{types.Bytes("payload")},
	}

	hash, err := l.Receive(tx)
	require.NoError(t, err)

	second := types.NewOutPoint(hash, 0)
	require.False(t, l.IsLive(first))
	require.True(t, l.IsLive(second))

	engine := NewEngine(l)

	cells, err := engine.Query(NewCellQuery(ByDataHash(types.HashOf([]byte("payload"))), 1))
	require.NoError(t, err)
	require.Equal(t, []types.OutPoint{second}, outPoints(cells))
}

func TestIndexEngine_Unsupported(t *testing.T) {
	engine := NewEngine(newFakeIndex())

	preds := []Predicate{
		MinCapacity(1),
		MaxCapacity(1),
		All(ByLockHash(types.Hash{})),
		Any(ByLockHash(types.Hash{})),
		FilterFrom(ByLockHash(types.Hash{}), MinCapacity(1)),
		{},
	}

	for _, pred := range preds {
		_, err := engine.Query(NewCellQuery(pred, 1))
		require.True(t, xerrors.Is(err, ErrUnsupportedQuery), pred.Kind.String())
	}

	_, err := engine.Query(NewCellQuery(ByLockHash(types.Hash{}), -1))
	require.EqualError(t, err, "invalid limit -1")
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeIndex struct {
	cells []types.CellMeta
	live  map[types.OutPoint]bool
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{live: map[types.OutPoint]bool{}}
}

func (idx *fakeIndex) add(output types.CellOutput, data []byte, live bool) types.OutPoint {
	op := types.NewOutPoint(types.Hash{0xff}, uint32(len(idx.cells)))
	idx.cells = append(idx.cells, types.NewCellMeta(op, output, data))
	idx.live[op] = live

	return op
}

func (idx *fakeIndex) GetByLockHash(hash types.Hash) []types.CellMeta {
	var res []types.CellMeta
	for _, meta := range idx.cells {
		if meta.Output.Lock.Hash() == hash {
			res = append(res, meta)
		}
	}

	return res
}

func (idx *fakeIndex) GetByTypeHash(hash types.Hash) []types.CellMeta {
	var res []types.CellMeta
	for _, meta := range idx.cells {
		typeHash, ok := types.OptionalScriptHash(meta.Output.Type)
		if ok && typeHash == hash {
			res = append(res, meta)
		}
	}

	return res
}

func (idx *fakeIndex) GetByDataHash(hash types.Hash) (types.CellMeta, bool) {
	var res types.CellMeta
	found := false

	for _, meta := range idx.cells {
		if *meta.DataHash != hash {
			continue
		}

		if !found || idx.live[meta.OutPoint] || !idx.live[res.OutPoint] {
			res = meta
			found = true
		}
	}

	return res, found
}

func (idx *fakeIndex) IsLive(op types.OutPoint) bool {
	return idx.live[op]
}

func outPoints(cells []types.CellMeta) []types.OutPoint {
	ops := []types.OutPoint{}
	for _, meta := range cells {
		ops = append(ops, meta.OutPoint)
	}

	return ops
}
