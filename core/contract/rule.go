package contract

import (
	"fmt"

	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

// Field is the field of an output a rule rewrites.
type Field int

const (
	// FieldData is the data of the output.
	FieldData Field = iota
	// FieldCapacity is the capacity of the output.
	FieldCapacity
	// FieldLock is the lock script of the output.
	FieldLock
	// FieldType is the optional type script of the output.
	FieldType
)

// String implements fmt.Stringer.
func (f Field) String() string {
	switch f {
	case FieldData:
		return "data"
	case FieldCapacity:
		return "capacity"
	case FieldLock:
		return "lock"
	case FieldType:
		return "type"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// OutputRule is a rule scoped to a single field of an output. It computes the
// new value of the field from a read-only view of the transaction. Only the
// function of the field is set.
type OutputRule struct {
	Field Field

	data     func(ctx RuleContext) ([]byte, error)
	capacity func(ctx RuleContext) (uint64, error)
	lock     func(ctx RuleContext) (types.Script, error)
	kind     func(ctx RuleContext) (*types.Script, error)
}

// DataRule returns a rule rewriting the data of the output.
func DataRule(fn func(ctx RuleContext) ([]byte, error)) OutputRule {
	return OutputRule{Field: FieldData, data: fn}
}

// CapacityRule returns a rule rewriting the capacity of the output.
func CapacityRule(fn func(ctx RuleContext) (uint64, error)) OutputRule {
	return OutputRule{Field: FieldCapacity, capacity: fn}
}

// LockRule returns a rule rewriting the lock script of the output.
func LockRule(fn func(ctx RuleContext) (types.Script, error)) OutputRule {
	return OutputRule{Field: FieldLock, lock: fn}
}

// TypeRule returns a rule rewriting the type script of the output. A nil
// script removes it.
func TypeRule(fn func(ctx RuleContext) (*types.Script, error)) OutputRule {
	return OutputRule{Field: FieldType, kind: fn}
}

func (r OutputRule) apply(ctx RuleContext, tx *types.Transaction) error {
	output := &tx.Outputs[ctx.index]

	switch r.Field {
	case FieldData:
		if r.data == nil {
			break
		}

		data, err := r.data(ctx)
		if err != nil {
			return err
		}

		tx.OutputsData[ctx.index] = append(types.Bytes{}, data...)
		return nil
	case FieldCapacity:
		if r.capacity == nil {
			break
		}

		capacity, err := r.capacity(ctx)
		if err != nil {
			return err
		}

		output.Capacity = capacity
		return nil
	case FieldLock:
		if r.lock == nil {
			break
		}

		lock, err := r.lock(ctx)
		if err != nil {
			return err
		}

		output.Lock = lock.Clone()
		return nil
	case FieldType:
		if r.kind == nil {
			break
		}

		kind, err := r.kind(ctx)
		if err != nil {
			return err
		}

		if kind == nil {
			output.Type = nil
		} else {
			clone := kind.Clone()
			output.Type = &clone
		}

		return nil
	}

	return xerrors.Errorf("invalid rule for field %v", r.Field)
}

// RuleContext is the read-only view of the transaction in progress given to an
// output rule.
type RuleContext struct {
	tx     *types.Transaction
	index  int
	inputs map[types.OutPoint]types.CellMeta
}

// NewRuleContext returns the context of the output at the index. The inputs
// are the cells resolved for the inputs of the transaction.
func NewRuleContext(tx *types.Transaction, index int, inputs map[types.OutPoint]types.CellMeta) RuleContext {
	return RuleContext{
		tx:     tx,
		index:  index,
		inputs: inputs,
	}
}

// Index returns the index of the output the rule applies to.
func (ctx RuleContext) Index() int {
	return ctx.index
}

// Output returns the current value of the output.
func (ctx RuleContext) Output() types.CellOutput {
	return ctx.tx.Outputs[ctx.index].Clone()
}

// Data returns the current data of the output.
func (ctx RuleContext) Data() []byte {
	return append([]byte{}, ctx.tx.OutputsData[ctx.index]...)
}

// Transaction returns a copy of the transaction in progress.
func (ctx RuleContext) Transaction() types.Transaction {
	return ctx.tx.Clone()
}

// Input returns the cell consumed by the input with the out-point, if it is
// known.
func (ctx RuleContext) Input(op types.OutPoint) (types.CellMeta, bool) {
	meta, found := ctx.inputs[op]
	return meta, found
}

// Inputs returns the known cells consumed by the transaction, in the order of
// the inputs.
func (ctx RuleContext) Inputs() []types.CellMeta {
	metas := []types.CellMeta{}

	for _, input := range ctx.tx.Inputs {
		meta, found := ctx.inputs[input.PreviousOutput]
		if found {
			metas = append(metas, meta)
		}
	}

	return metas
}
