// Package execution defines the boundary between the ledger and the script
// engine that verifies transactions.
//
// The engine itself is an external collaborator: it receives a resolved
// transaction, a cycle budget and an environment, and returns a result. This
// package builds the environment (hard-fork switch, epoch of the transaction,
// debug observer) and translates the result of the engine so that a rejected
// transaction is never confused with an internal failure.
package execution

import (
	"fmt"

	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

// Result is the result of a transaction verification.
type Result struct {
	// Accepted is the success state of the transaction.
	Accepted bool

	// Cycles is the number of cycles consumed by the scripts.
	Cycles uint64

	// Message gives a chance to the engine to explain why a transaction has
	// been rejected.
	Message string

	// ScriptHash is the hash of the script that rejected the transaction, if
	// any.
	ScriptHash types.Hash
}

// DataLoader is the interface to load the data of a cell that has not been
// eagerly loaded during the resolution.
type DataLoader interface {
	LoadCellData(op types.OutPoint) ([]byte, bool)
}

// Environment is the set of parameters the engine verifies a transaction
// with.
type Environment struct {
	Context  Context
	Observer Observer
	Loader   DataLoader
}

// Engine is the interface of the script engine.
type Engine interface {
	// Verify must run every script of the transaction within the cycle
	// budget. An error is returned only when the engine fails for a reason
	// unrelated to the transaction itself.
	Verify(rtx types.ResolvedTransaction, maxCycles uint64, env Environment) (Result, error)
}

// RejectedError is returned when the engine rejects a transaction. It is an
// expected outcome, not a failure of the system.
type RejectedError struct {
	Reason     string
	ScriptHash types.Hash
}

// Error implements error.
func (e RejectedError) Error() string {
	if e.ScriptHash.IsZero() {
		return fmt.Sprintf("transaction rejected: %s", e.Reason)
	}

	return fmt.Sprintf("transaction rejected by script %v: %s", e.ScriptHash, e.Reason)
}

// IsRejected returns true if the error, or one it wraps, is a rejection of the
// engine.
func IsRejected(err error) bool {
	var rejected RejectedError
	return xerrors.As(err, &rejected)
}
