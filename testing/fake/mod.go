// Package fake provides fake implementations of the interfaces of the module
// to be used in the tests.
package fake

import (
	"go.dedis.ch/cellkit/core/execution"
	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

// GetError returns the default error used by the fakes.
func GetError() error {
	return Err("fake error")
}

// Err returns the error wrapped with the fake prefix.
func Err(msg string) error {
	return xerrors.Errorf("fake error: %s", msg)
}

// Counter is a helper to delay errors or actions. It can be nil without
// panics.
type Counter struct {
	Value int
}

// NewCounter returns a new counter set to the given value.
func NewCounter(value int) *Counter {
	return &Counter{Value: value}
}

// Done returns true when the counter reached zero.
func (c *Counter) Done() bool {
	return c == nil || c.Value <= 0
}

// Decrease decrements the counter.
func (c *Counter) Decrease() {
	if c == nil {
		return
	}

	c.Value--
}

// Engine is a fake script engine that returns a fixed result and records the
// last call.
//
// - implements execution.Engine
type Engine struct {
	Result execution.Result
	Err    error

	Calls     int
	Last      types.ResolvedTransaction
	MaxCycles uint64
	Env       execution.Environment
}

// NewEngine returns a fake engine accepting every transaction with the given
// number of cycles.
func NewEngine(cycles uint64) *Engine {
	return &Engine{
		Result: execution.Result{Accepted: true, Cycles: cycles},
	}
}

// NewRejectingEngine returns a fake engine rejecting every transaction.
func NewRejectingEngine(reason string) *Engine {
	return &Engine{
		Result: execution.Result{Message: reason},
	}
}

// NewBadEngine returns a fake engine that always fails.
func NewBadEngine() *Engine {
	return &Engine{Err: GetError()}
}

// Verify implements execution.Engine.
func (e *Engine) Verify(rtx types.ResolvedTransaction, maxCycles uint64,
	env execution.Environment) (execution.Result, error) {

	e.Calls++
	e.Last = rtx
	e.MaxCycles = maxCycles
	e.Env = env

	if e.Err != nil {
		return execution.Result{}, e.Err
	}

	return e.Result, nil
}
