// Package sudt implements a simple user defined token.
//
// The arguments of the type script are the hash of the owner lock. The amount
// of a token cell is stored as a 128-bit little-endian integer in the first 16
// bytes of its data. A transaction consuming a cell locked by the owner can
// mint tokens. Any other transaction must not create more tokens than it
// consumes.
package sudt

import (
	"go.dedis.ch/cellkit/core/contract"
	"go.dedis.ch/cellkit/core/execution/native"
	"go.dedis.ch/cellkit/core/query"
	"go.dedis.ch/cellkit/core/types"
	"go.dedis.ch/cellkit/core/types/schema"
	"golang.org/x/xerrors"
)

const (
	// ContractName is the name of the contract.
	ContractName = "sudt"

	// AmountSize is the size in bytes of the amount at the beginning of the
	// data of a token cell.
	AmountSize = schema.Uint128Size

	// CellCycles is the number of cycles charged per token cell read.
	CellCycles uint64 = 500
)

// Code is the content of the code cell of the program.
var Code = []byte("go.dedis.ch/cellkit/contracts/sudt")

// CodeHash is the data hash of the code cell.
var CodeHash = types.HashOf(Code)

// Program is the token program.
//
// - implements native.Program
type Program struct{}

// Execute implements native.Program.
func (Program) Execute(ctx *native.ScriptContext) error {
	args := ctx.Script().Args
	if len(args) != len(types.Hash{}) {
		return xerrors.Errorf("invalid owner lock hash size %d", len(args))
	}

	var owner types.Hash
	copy(owner[:], args)

	for i := 0; i < ctx.NumInputs(); i++ {
		if ctx.Input(i).Lock.Hash() == owner {
			ctx.Debug("owner mode")
			return nil
		}
	}

	inputs := schema.NewUint128(0)

	for _, index := range ctx.GroupInputs() {
		err := ctx.Consume(CellCycles)
		if err != nil {
			return err
		}

		data, err := ctx.InputData(index)
		if err != nil {
			return err
		}

		inputs, err = addAmount(inputs, data)
		if err != nil {
			return xerrors.Errorf("input %d: %v", index, err)
		}
	}

	outputs := schema.NewUint128(0)

	for _, index := range ctx.GroupOutputs() {
		err := ctx.Consume(CellCycles)
		if err != nil {
			return err
		}

		outputs, err = addAmount(outputs, ctx.OutputData(index))
		if err != nil {
			return xerrors.Errorf("output %d: %v", index, err)
		}
	}

	if outputs.Cmp(inputs) > 0 {
		return xerrors.Errorf("outputs amount %v exceeds inputs amount %v", outputs, inputs)
	}

	ctx.Debug("transfer of %v", outputs)

	return nil
}

// Register registers the program to the engine and returns its code hash.
func Register(engine *native.Engine) types.Hash {
	return engine.Register(Code, Program{})
}

// Script returns the type script of the token owned by the lock hash.
func Script(owner types.Hash) types.Script {
	return types.NewScript(CodeHash, types.HashTypeData, owner.Bytes())
}

// Amount returns the amount stored in the data of a token cell.
func Amount(data []byte) (schema.Uint128, error) {
	if len(data) < AmountSize {
		return schema.Uint128{}, xerrors.Errorf("invalid data size %d", len(data))
	}

	return schema.DecodeUint128(data[:AmountSize])
}

// SetAmount returns a copy of the data with the amount replaced. The data is
// extended when it is too short to store an amount.
func SetAmount(data []byte, amount schema.Uint128) []byte {
	res := amount.Bytes()
	if len(data) > AmountSize {
		res = append(res, data[AmountSize:]...)
	}

	return res
}

func addAmount(total schema.Uint128, data []byte) (schema.Uint128, error) {
	amount, err := Amount(data)
	if err != nil {
		return total, err
	}

	return total.Add(amount)
}

// NewContract returns a type contract for the token of the owner lock hash.
func NewContract(owner types.Hash) *contract.Contract {
	return contract.NewContract(ContractName, Code, contract.UsageType,
		contract.WithArgs(owner.Bytes()))
}

// OwnerInput returns an input rule selecting one cell locked by the owner, so
// that the transaction runs in owner mode.
func OwnerInput(lock types.Script) contract.InputRule {
	return func(types.Transaction) (query.CellQuery, error) {
		return query.NewCellQuery(query.ByLockScript(lock), 1), nil
	}
}

// TokenInputs returns an input rule selecting up to limit live cells of the
// token. A limit of zero selects all of them.
func TokenInputs(owner types.Hash, limit int) contract.InputRule {
	return func(types.Transaction) (query.CellQuery, error) {
		return query.NewCellQuery(query.ByTypeScript(Script(owner)), limit), nil
	}
}

// Mint returns an output rule adding the amount to the amount of the output.
// An output without data holds no token yet.
func Mint(amount schema.Uint128) contract.OutputRule {
	return contract.DataRule(func(ctx contract.RuleContext) ([]byte, error) {
		data := ctx.Data()

		current := schema.NewUint128(0)
		if len(data) > 0 {
			var err error
			current, err = Amount(data)
			if err != nil {
				return nil, err
			}
		}

		next, err := current.Add(amount)
		if err != nil {
			return nil, err
		}

		return SetAmount(data, next), nil
	})
}

// Collect returns an output rule setting the amount of the output to the sum
// of the token inputs of the same type.
func Collect() contract.OutputRule {
	return contract.DataRule(func(ctx contract.RuleContext) ([]byte, error) {
		typ := ctx.Output().Type
		total := schema.NewUint128(0)

		for _, input := range ctx.Inputs() {
			if typ == nil || input.Output.Type == nil || !input.Output.Type.Equal(*typ) {
				continue
			}

			var err error
			total, err = addAmount(total, input.Data)
			if err != nil {
				return nil, xerrors.Errorf("input %v: %v", input.OutPoint, err)
			}
		}

		return SetAmount(ctx.Data(), total), nil
	})
}
