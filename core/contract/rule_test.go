package contract

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
	"pgregory.net/rapid"
)

func TestField_String(t *testing.T) {
	require.Equal(t, "data", FieldData.String())
	require.Equal(t, "capacity", FieldCapacity.String())
	require.Equal(t, "lock", FieldLock.String())
	require.Equal(t, "type", FieldType.String())
	require.Equal(t, "field(9)", Field(9).String())
}

func TestOutputRule_Fields(t *testing.T) {
	tx := types.Transaction{
		Outputs:     []types.CellOutput{{Capacity: 1}},
		OutputsData: []types.Bytes{[]byte("a")},
	}

	lock := types.NewScript(types.Hash{1}, types.HashTypeData, nil)
	kind := types.NewScript(types.Hash{2}, types.HashTypeData, nil)

	rules := []OutputRule{
		DataRule(func(ctx RuleContext) ([]byte, error) {
			return append(ctx.Data(), 'b'), nil
		}),
		CapacityRule(func(ctx RuleContext) (uint64, error) {
			return ctx.Output().Capacity + 41, nil
		}),
		LockRule(func(ctx RuleContext) (types.Script, error) {
			return lock, nil
		}),
		TypeRule(func(ctx RuleContext) (*types.Script, error) {
			return &kind, nil
		}),
	}

	for _, rule := range rules {
		require.NoError(t, rule.apply(NewRuleContext(&tx, 0, nil), &tx))
	}

	require.Equal(t, types.Bytes("ab"), tx.OutputsData[0])
	require.Equal(t, uint64(42), tx.Outputs[0].Capacity)
	require.Equal(t, lock, tx.Outputs[0].Lock)
	require.Equal(t, kind, *tx.Outputs[0].Type)

	rule := TypeRule(func(ctx RuleContext) (*types.Script, error) {
		return nil, nil
	})
	require.NoError(t, rule.apply(NewRuleContext(&tx, 0, nil), &tx))
	require.Nil(t, tx.Outputs[0].Type)

	err := OutputRule{Field: FieldLock}.apply(NewRuleContext(&tx, 0, nil), &tx)
	require.EqualError(t, err, "invalid rule for field lock")

	err = OutputRule{Field: Field(9)}.apply(NewRuleContext(&tx, 0, nil), &tx)
	require.EqualError(t, err, "invalid rule for field field(9)")
}

func TestOutputRule_Failures(t *testing.T) {
	tx := types.Transaction{
		Outputs:     []types.CellOutput{{}},
		OutputsData: []types.Bytes{nil},
	}

	rules := []OutputRule{
		DataRule(func(RuleContext) ([]byte, error) { return nil, xerrors.New("oops") }),
		LockRule(func(RuleContext) (types.Script, error) { return types.Script{}, xerrors.New("oops") }),
		TypeRule(func(RuleContext) (*types.Script, error) { return nil, xerrors.New("oops") }),
	}

	for _, rule := range rules {
		err := rule.apply(NewRuleContext(&tx, 0, nil), &tx)
		require.EqualError(t, err, "oops")
	}
}

func TestRuleContext_Inputs(t *testing.T) {
	a := types.NewOutPoint(types.Hash{1}, 0)
	b := types.NewOutPoint(types.Hash{2}, 0)
	c := types.NewOutPoint(types.Hash{3}, 0)

	tx := types.Transaction{
		Inputs:      []types.CellInput{types.NewCellInput(b), types.NewCellInput(c), types.NewCellInput(a)},
		Outputs:     []types.CellOutput{{}},
		OutputsData: []types.Bytes{nil},
	}

	inputs := map[types.OutPoint]types.CellMeta{
		a: types.NewCellMeta(a, types.CellOutput{Capacity: 1}, nil),
		b: types.NewCellMeta(b, types.CellOutput{Capacity: 2}, nil),
	}

	ctx := NewRuleContext(&tx, 0, inputs)
	require.Equal(t, 0, ctx.Index())

	metas := ctx.Inputs()
	require.Len(t, metas, 2)
	require.Equal(t, b, metas[0].OutPoint)
	require.Equal(t, a, metas[1].OutPoint)

	meta, found := ctx.Input(a)
	require.True(t, found)
	require.Equal(t, uint64(1), meta.Output.Capacity)

	_, found = ctx.Input(c)
	require.False(t, found)

	// The copy cannot alter the transaction.
	clone := ctx.Transaction()
	clone.Outputs[0].Capacity = 99
	require.Equal(t, uint64(0), tx.Outputs[0].Capacity)
}

func TestContract_ApplyIsOrderSensitive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.Uint64Range(0, 1<<32).Draw(t, "start")
		steps := rapid.SliceOfN(rapid.Uint64Range(0, 1<<16), 1, 8).Draw(t, "steps")

		c := NewContract("abc", []byte("v1"), UsageLock)

		expected := start
		for _, step := range steps {
			c.AddOutputRule(addRule(step))
			expected += step
		}

		// A final doubling observes every previous rule.
		c.AddOutputRule(DataRule(func(ctx RuleContext) ([]byte, error) {
			return encode(2 * decode(ctx.Data())), nil
		}))
		expected *= 2

		tx := types.Transaction{
			Outputs:     []types.CellOutput{{}},
			OutputsData: []types.Bytes{encode(start)},
		}

		err := c.Apply(&tx, 0, nil)
		if err != nil {
			t.Fatal(err)
		}

		if decode(tx.OutputsData[0]) != expected {
			t.Fatalf("got %d, expected %d", decode(tx.OutputsData[0]), expected)
		}
	})
}

func decode(data []byte) uint64 {
	return binary.LittleEndian.Uint64(data)
}
