// Package native implements a script engine that runs programs written in Go
// and packaged with the application.
//
// A program is registered with the bytes of its code cell and is then
// addressed by scripts exactly like on-chain code: by the data hash of the
// code cell, or by the type hash of the code cell for type-addressed scripts.
// The scripts of a transaction are grouped by script hash, lock groups over the
// inputs first, then type groups over inputs and outputs, and every group runs
// the program once.
package native

import (
	"go.dedis.ch/cellkit/core/execution"
	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

// DefaultBaseCycles is the number of cycles charged for every script group,
// on top of what the program consumes.
const DefaultBaseCycles uint64 = 1_000

// Program is the interface to implement to register a script program that
// will be executed natively. Returning an error rejects the transaction.
type Program interface {
	Execute(ctx *ScriptContext) error
}

// ProgramFunc is an adapter to use a function as a program.
type ProgramFunc func(ctx *ScriptContext) error

// Execute implements native.Program.
func (fn ProgramFunc) Execute(ctx *ScriptContext) error {
	return fn(ctx)
}

// Engine is an execution engine for packaged programs.
//
// - implements execution.Engine
type Engine struct {
	programs   map[types.Hash]Program
	baseCycles uint64
}

// EngineOption is the type of options to create an engine.
type EngineOption func(*Engine)

// WithBaseCycles sets the number of cycles charged per script group.
func WithBaseCycles(cycles uint64) EngineOption {
	return func(e *Engine) {
		e.baseCycles = cycles
	}
}

// NewEngine returns a new native engine without any program.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		programs:   map[types.Hash]Program{},
		baseCycles: DefaultBaseCycles,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Register stores the program using the data hash of the code as the key and
// returns the hash. It panics if a program is already registered for the same
// code.
func (e *Engine) Register(code []byte, program Program) types.Hash {
	hash := types.HashOf(code)

	_, found := e.programs[hash]
	if found {
		panic(xerrors.Errorf("program '%v' already registered", hash))
	}

	e.programs[hash] = program

	return hash
}

// Verify implements execution.Engine. It runs every script group of the
// transaction and stops at the first rejection.
func (e *Engine) Verify(rtx types.ResolvedTransaction, maxCycles uint64,
	env execution.Environment) (execution.Result, error) {

	if env.Observer == nil {
		env.Observer = execution.NopObserver{}
	}

	meter := &meter{limit: maxCycles}

	for _, group := range groupScripts(rtx) {
		res, err := e.runGroup(rtx, group, meter, env)
		if err != nil {
			return execution.Result{}, xerrors.Errorf("group %v: %v", group.hash, err)
		}

		if !res.Accepted {
			return res, nil
		}
	}

	res := execution.Result{
		Accepted: true,
		Cycles:   meter.used,
	}

	return res, nil
}

func (e *Engine) runGroup(rtx types.ResolvedTransaction, group *scriptGroup,
	m *meter, env execution.Environment) (execution.Result, error) {

	reject := func(format string, args ...interface{}) execution.Result {
		return execution.Result{
			Cycles:     m.used,
			Message:    xerrors.Errorf(format, args...).Error(),
			ScriptHash: group.hash,
		}
	}

	version, err := env.Context.VMVersion(group.script.HashType)
	if err != nil {
		return reject("%v", err), nil
	}

	codeHash, err := findCode(rtx, group.script)
	if err != nil {
		return reject("%v", err), nil
	}

	program := e.programs[codeHash]
	if program == nil {
		return reject("no program for code %v", codeHash), nil
	}

	err = m.consume(e.baseCycles)
	if err != nil {
		return reject("%v", err), nil
	}

	ctx := &ScriptContext{
		rtx:     rtx,
		group:   group,
		version: version,
		meter:   m,
		env:     env,
	}

	err = program.Execute(ctx)
	if ctx.fault != nil {
		return execution.Result{}, ctx.fault
	}

	if err != nil {
		return reject("%v", err), nil
	}

	return execution.Result{Accepted: true, Cycles: m.used}, nil
}

// findCode returns the data hash of the code the script refers to among the
// cell dependencies.
func findCode(rtx types.ResolvedTransaction, script types.Script) (types.Hash, error) {
	if script.HashType.IsData() {
		for _, dep := range rtx.ResolvedCellDeps {
			if dataHash(dep) == script.CodeHash {
				return script.CodeHash, nil
			}
		}

		return types.Hash{}, xerrors.Errorf("code %v not found in cell deps", script.CodeHash)
	}

	var found *types.Hash

	for _, dep := range rtx.ResolvedCellDeps {
		typeHash, ok := types.OptionalScriptHash(dep.Output.Type)
		if !ok || typeHash != script.CodeHash {
			continue
		}

		hash := dataHash(dep)
		if found != nil && *found != hash {
			return types.Hash{}, xerrors.Errorf("multiple code cells match type %v", script.CodeHash)
		}

		found = &hash
	}

	if found == nil {
		return types.Hash{}, xerrors.Errorf("code with type %v not found in cell deps", script.CodeHash)
	}

	return *found, nil
}

func dataHash(meta types.CellMeta) types.Hash {
	if meta.DataHash != nil {
		return *meta.DataHash
	}

	return types.HashOf(meta.Data)
}

type meter struct {
	used  uint64
	limit uint64
}

func (m *meter) consume(cycles uint64) error {
	if cycles > m.limit-m.used {
		m.used = m.limit
		return xerrors.Errorf("exceeded max cycles %d", m.limit)
	}

	m.used += cycles
	return nil
}
