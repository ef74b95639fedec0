package native

import (
	"fmt"

	"go.dedis.ch/cellkit/core/execution"
	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

// ScriptContext is the view of the transaction given to a program when it
// runs for a script group.
type ScriptContext struct {
	rtx     types.ResolvedTransaction
	group   *scriptGroup
	version int
	meter   *meter
	env     execution.Environment
	fault   error
}

// Script returns the script of the group.
func (ctx *ScriptContext) Script() types.Script {
	return ctx.group.script
}

// ScriptHash returns the hash of the script of the group.
func (ctx *ScriptContext) ScriptHash() types.Hash {
	return ctx.group.hash
}

// IsLock returns true if the program runs as a lock script.
func (ctx *ScriptContext) IsLock() bool {
	return ctx.group.isLock
}

// VMVersion returns the version of the VM selected for the script.
func (ctx *ScriptContext) VMVersion() int {
	return ctx.version
}

// Context returns the consensus and transaction context.
func (ctx *ScriptContext) Context() execution.Context {
	return ctx.env.Context
}

// Transaction returns the transaction being verified.
func (ctx *ScriptContext) Transaction() types.Transaction {
	return ctx.rtx.Transaction
}

// TxHash returns the hash of the transaction being verified.
func (ctx *ScriptContext) TxHash() types.Hash {
	return ctx.rtx.Transaction.Hash()
}

// GroupInputs returns the indices of the inputs in the group.
func (ctx *ScriptContext) GroupInputs() []int {
	return append([]int(nil), ctx.group.inputs...)
}

// GroupOutputs returns the indices of the outputs in the group. It is always
// empty for a lock script.
func (ctx *ScriptContext) GroupOutputs() []int {
	return append([]int(nil), ctx.group.outputs...)
}

// NumInputs returns the number of resolved inputs of the transaction.
func (ctx *ScriptContext) NumInputs() int {
	return len(ctx.rtx.ResolvedInputs)
}

// Input returns the cell consumed by the input at the index.
func (ctx *ScriptContext) Input(index int) types.CellOutput {
	return ctx.rtx.ResolvedInputs[index].Output
}

// InputData returns the data of the cell consumed by the input at the index.
// The data is read from the loader when the cell was not eagerly loaded.
func (ctx *ScriptContext) InputData(index int) ([]byte, error) {
	meta := ctx.rtx.ResolvedInputs[index]
	if meta.DataHash != nil {
		return meta.Data, nil
	}

	if ctx.env.Loader == nil {
		ctx.fault = xerrors.New("missing data loader")
		return nil, ctx.fault
	}

	data, found := ctx.env.Loader.LoadCellData(meta.OutPoint)
	if !found {
		ctx.fault = xerrors.Errorf("couldn't load data of %v", meta.OutPoint)
		return nil, ctx.fault
	}

	return data, nil
}

// Output returns the output at the index.
func (ctx *ScriptContext) Output(index int) types.CellOutput {
	return ctx.rtx.Transaction.Outputs[index]
}

// OutputData returns the data of the output at the index.
func (ctx *ScriptContext) OutputData(index int) []byte {
	return ctx.rtx.Transaction.OutputsData[index]
}

// Witness returns the witness at the index, or nil if it does not exist.
func (ctx *ScriptContext) Witness(index int) []byte {
	if index >= len(ctx.rtx.Transaction.Witnesses) {
		return nil
	}

	return ctx.rtx.Transaction.Witnesses[index]
}

// Consume charges the cycles to the transaction budget. It returns an error
// when the budget is exhausted.
func (ctx *ScriptContext) Consume(cycles uint64) error {
	return ctx.meter.consume(cycles)
}

// Debug sends a message to the observer of the verification.
func (ctx *ScriptContext) Debug(format string, args ...interface{}) {
	ctx.env.Observer.OnDebug(ctx.group.hash, fmt.Sprintf(format, args...))
}
