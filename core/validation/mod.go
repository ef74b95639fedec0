// Package validation implements the structural checks of a transaction. They
// are performed before the transaction is resolved and handed to the script
// engine, so that a malformed transaction never reaches the verifier.
package validation

import (
	"fmt"

	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

var (
	// ErrOutputsDataMismatch is returned when the outputs and the outputs data
	// lists do not have the same length.
	ErrOutputsDataMismatch = xerrors.New("outputs and outputs data length mismatch")

	// ErrEmptyInputs is returned when a transaction does not consume any cell.
	ErrEmptyInputs = xerrors.New("transaction has no input")
)

// InsufficientCapacityError is returned when the capacity of an output does
// not cover the bytes it occupies.
type InsufficientCapacityError struct {
	Index    int
	Occupied uint64
	Capacity uint64
}

// Error implements error.
func (e InsufficientCapacityError) Error() string {
	return fmt.Sprintf("output %d: insufficient capacity %d < occupied %d",
		e.Index, e.Capacity, e.Occupied)
}

// CheckOutputs verifies that every output is paired with its data and that it
// has enough capacity to hold it.
func CheckOutputs(tx types.Transaction) error {
	if len(tx.Outputs) != len(tx.OutputsData) {
		return xerrors.Errorf("invalid outputs (%d != %d): %w",
			len(tx.Outputs), len(tx.OutputsData), ErrOutputsDataMismatch)
	}

	for i, output := range tx.Outputs {
		occupied, err := output.OccupiedCapacity(len(tx.OutputsData[i]))
		if err != nil {
			return xerrors.Errorf("output %d: %v", i, err)
		}

		if output.Capacity < occupied {
			return InsufficientCapacityError{
				Index:    i,
				Occupied: occupied,
				Capacity: output.Capacity,
			}
		}
	}

	return nil
}

// CheckTransaction performs every structural check of a transaction.
func CheckTransaction(tx types.Transaction) error {
	if len(tx.Inputs) == 0 {
		return ErrEmptyInputs
	}

	err := CheckOutputs(tx)
	if err != nil {
		return err
	}

	return nil
}
