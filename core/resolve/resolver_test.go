package resolve

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
	"pgregory.net/rapid"
)

func TestResolver_Resolve(t *testing.T) {
	src := newFakeSource()
	in := src.add(types.Hash{1}, 0, []byte("input"))
	dep := src.add(types.Hash{2}, 0, []byte("code"))
	src.headers[types.Hash{3}] = types.Header{Hash: types.Hash{3}}

	tx := types.Transaction{
		Inputs:     []types.CellInput{types.NewCellInput(in)},
		CellDeps:   []types.CellDep{types.NewCodeDep(dep), types.NewCodeDep(dep)},
		HeaderDeps: []types.Hash{{3}},
	}

	rtx, err := Resolve(tx, src)
	require.NoError(t, err)
	require.Len(t, rtx.ResolvedInputs, 1)
	require.Equal(t, in, rtx.ResolvedInputs[0].OutPoint)
	require.Nil(t, rtx.ResolvedInputs[0].Data)
	require.Len(t, rtx.ResolvedCellDeps, 2)
	require.Equal(t, types.Bytes("code"), rtx.ResolvedCellDeps[1].Data)
	require.Empty(t, rtx.ResolvedDepGroups)

	// The shared dependency is fetched once.
	require.Equal(t, 1, src.calls[cacheKey{op: dep, eager: true}])
	require.Equal(t, 1, src.calls[cacheKey{op: in, eager: false}])
}

func TestResolver_DeadOutPoint(t *testing.T) {
	src := newFakeSource()
	in := src.add(types.Hash{1}, 0, nil)

	tx := types.Transaction{
		Inputs: []types.CellInput{types.NewCellInput(in), types.NewCellInput(in)},
	}

	_, err := Resolve(tx, src)
	require.Equal(t, DeadOutPointError{OutPoint: in}, err)
	require.EqualError(t, err, "dead out-point "+in.String())

	src.status[in] = StatusDead
	tx.Inputs = tx.Inputs[:1]

	_, err = Resolve(tx, src)
	require.Equal(t, DeadOutPointError{OutPoint: in}, err)
}

func TestResolver_UnknownOutPoint(t *testing.T) {
	src := newFakeSource()
	op := types.NewOutPoint(types.Hash{9}, 1)

	_, err := Resolve(types.Transaction{Inputs: []types.CellInput{types.NewCellInput(op)}}, src)
	require.Equal(t, UnknownOutPointError{OutPoint: op}, err)
	require.EqualError(t, err, "unknown out-point "+op.String())

	_, err = Resolve(types.Transaction{CellDeps: []types.CellDep{types.NewCodeDep(op)}}, src)
	require.Equal(t, UnknownOutPointError{OutPoint: op}, err)

	src.err = xerrors.New("oops")
	_, err = Resolve(types.Transaction{CellDeps: []types.CellDep{types.NewCodeDep(op)}}, src)
	require.EqualError(t, err, "couldn't read cell "+op.String()+": oops")
}

func TestResolver_DepSharedWithInput(t *testing.T) {
	src := newFakeSource()
	op := src.add(types.Hash{1}, 0, []byte{1})

	tx := types.Transaction{
		Inputs:   []types.CellInput{types.NewCellInput(op)},
		CellDeps: []types.CellDep{types.NewCodeDep(op)},
	}

	rtx, err := Resolve(tx, src)
	require.NoError(t, err)
	require.Len(t, rtx.ResolvedCellDeps, 1)
}

func TestResolver_Cellbase(t *testing.T) {
	tx := types.Transaction{
		Inputs: []types.CellInput{types.NewCellInput(types.NullOutPoint)},
	}

	rtx, err := Resolve(tx, newFakeSource())
	require.NoError(t, err)
	require.Empty(t, rtx.ResolvedInputs)
}

func TestResolver_DepGroup(t *testing.T) {
	src := newFakeSource()
	a := src.add(types.Hash{1}, 0, []byte("a"))
	b := src.add(types.Hash{1}, 1, []byte("b"))
	group := src.add(types.Hash{2}, 0, EncodeDepGroup([]types.OutPoint{a, b}))
	bad := src.add(types.Hash{2}, 1, []byte{1, 2, 3})

	tx := types.Transaction{
		CellDeps: []types.CellDep{{OutPoint: group, DepType: types.DepTypeDepGroup}},
	}

	rtx, err := Resolve(tx, src)
	require.NoError(t, err)
	require.Len(t, rtx.ResolvedCellDeps, 2)
	require.Equal(t, a, rtx.ResolvedCellDeps[0].OutPoint)
	require.Equal(t, b, rtx.ResolvedCellDeps[1].OutPoint)
	require.Len(t, rtx.ResolvedDepGroups, 1)

	tx.CellDeps[0].OutPoint = bad
	_, err = Resolve(tx, src)
	require.Equal(t, InvalidDepGroupError{OutPoint: bad}, err)

	tx.CellDeps[0].DepType = types.DepType(7)
	_, err = Resolve(tx, src)
	require.EqualError(t, err, "unknown dep type 7")
}

func TestResolver_HeaderDeps(t *testing.T) {
	src := newFakeSource()

	tx := types.Transaction{HeaderDeps: []types.Hash{{5}}}

	_, err := Resolve(tx, src)
	require.Equal(t, UnknownHeaderError{Hash: types.Hash{5}}, err)

	var headerErr UnknownHeaderError
	require.True(t, errors.As(err, &headerErr))

	src.err = xerrors.New("oops")
	_, err = Resolve(tx, src)
	require.EqualError(t, err, "couldn't read header "+types.Hash{5}.String()+": oops")
}

// Resolving the same transaction twice against the same state yields the same
// resolved transaction.
func TestResolver_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		src := newFakeSource()

		n := rapid.IntRange(1, 8).Draw(t, "cells")
		ops := make([]types.OutPoint, n)
		for i := range ops {
			data := rapid.SliceOf(rapid.Byte()).Draw(t, "data")
			ops[i] = src.add(types.Hash{byte(i + 1)}, uint32(i), data)
		}

		picks := rapid.SliceOfDistinct(rapid.IntRange(0, n-1), rapid.ID[int]).Draw(t, "inputs")
		deps := rapid.SliceOf(rapid.IntRange(0, n-1)).Draw(t, "deps")

		tx := types.Transaction{}
		for _, i := range picks {
			tx.Inputs = append(tx.Inputs, types.NewCellInput(ops[i]))
		}
		for _, i := range deps {
			tx.CellDeps = append(tx.CellDeps, types.NewCodeDep(ops[i]))
		}

		first, err := Resolve(tx, src)
		if err != nil {
			t.Fatalf("first resolution: %v", err)
		}

		second, err := Resolve(tx, src)
		if err != nil {
			t.Fatalf("second resolution: %v", err)
		}

		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("resolutions differ: %s", diff)
		}
	})
}

func TestParseDepGroup(t *testing.T) {
	ops := []types.OutPoint{types.NewOutPoint(types.Hash{1}, 2), types.NewOutPoint(types.Hash{3}, 4)}

	data := EncodeDepGroup(ops)
	require.Len(t, data, 2*types.OutPointSize)

	first := ops[0].Bytes()
	require.Equal(t, first[:], data[:types.OutPointSize])

	parsed, err := ParseDepGroup(data)
	require.NoError(t, err)
	require.Equal(t, ops, parsed)

	parsed, err = ParseDepGroup(nil)
	require.NoError(t, err)
	require.Empty(t, parsed)

	_, err = ParseDepGroup(make([]byte, 37))
	require.EqualError(t, err, "invalid dep group length 37")
}

func TestCellStatus_String(t *testing.T) {
	require.Equal(t, "live", StatusLive.String())
	require.Equal(t, "dead", StatusDead.String())
	require.Equal(t, "unknown", StatusUnknown.String())
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeSource struct {
	cells   map[types.OutPoint]types.CellMeta
	status  map[types.OutPoint]CellStatus
	headers map[types.Hash]types.Header
	calls   map[cacheKey]int
	err     error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		cells:   make(map[types.OutPoint]types.CellMeta),
		status:  make(map[types.OutPoint]CellStatus),
		headers: make(map[types.Hash]types.Header),
		calls:   make(map[cacheKey]int),
	}
}

func (s *fakeSource) add(h types.Hash, index uint32, data []byte) types.OutPoint {
	op := types.NewOutPoint(h, index)
	s.cells[op] = types.NewCellMeta(op, types.CellOutput{Capacity: uint64(index)}, data)
	s.status[op] = StatusLive

	return op
}

func (s *fakeSource) Cell(op types.OutPoint, eager bool) (types.CellMeta, CellStatus, error) {
	s.calls[cacheKey{op: op, eager: eager}]++

	if s.err != nil {
		return types.CellMeta{}, StatusUnknown, s.err
	}

	meta, found := s.cells[op]
	if !found {
		return types.CellMeta{}, StatusUnknown, nil
	}

	if !eager {
		meta = meta.WithoutData()
	}

	return meta, s.status[op], nil
}

func (s *fakeSource) Header(hash types.Hash) (types.Header, bool, error) {
	if s.err != nil {
		return types.Header{}, false, s.err
	}

	header, found := s.headers[hash]
	return header, found, nil
}
