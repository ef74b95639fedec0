// Package alwayssuccess implements a program that accepts every script group.
// It is typically used as the lock of cells that anyone can consume, or as a
// placeholder type script in tests.
package alwayssuccess

import (
	"go.dedis.ch/cellkit/core/contract"
	"go.dedis.ch/cellkit/core/execution/native"
	"go.dedis.ch/cellkit/core/types"
)

// ContractName is the name of the contract.
const ContractName = "always_success"

// Code is the content of the code cell of the program.
var Code = []byte("go.dedis.ch/cellkit/contracts/alwayssuccess")

// CodeHash is the data hash of the code cell.
var CodeHash = types.HashOf(Code)

// Program is the always-success program.
//
// - implements native.Program
type Program struct{}

// Execute implements native.Program. It never fails.
func (Program) Execute(ctx *native.ScriptContext) error {
	ctx.Debug("always success")
	return nil
}

// Register registers the program to the engine and returns its code hash.
func Register(engine *native.Engine) types.Hash {
	return engine.Register(Code, Program{})
}

// Script returns the script executing the program with the arguments.
func Script(args []byte) types.Script {
	return types.NewScript(CodeHash, types.HashTypeData, args)
}

// NewContract returns a contract using the program for the usage.
func NewContract(usage contract.Usage, opts ...contract.Option) *contract.Contract {
	return contract.NewContract(ContractName, Code, usage, opts...)
}
