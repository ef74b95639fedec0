package ledger

import (
	"go.dedis.ch/cellkit/core/resolve"
	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

// CompleteCellDeps returns a copy of the transaction where the code cells of
// the scripts are appended to the cell dependencies. The scripts considered are
// the lock and type scripts of the inputs, then the type scripts of the
// outputs. The dependencies are de-duplicated and keep the order in which they
// are first seen, after the ones already present.
//
// The lock scripts of the outputs are not considered: they run when the cells
// are consumed, and the code cells are resolved by that later transaction.
//
// Only data-addressed scripts are supported: a type-addressed script returns an
// UnsupportedHashTypeError. The code cell is the latest live cell holding the
// code, so a CodeNotFoundError is returned when every copy is consumed.
func (l *Ledger) CompleteCellDeps(tx types.Transaction) (types.Transaction, error) {
	scripts := []types.Script{}

	if !tx.IsCellbase() {
		for _, input := range tx.Inputs {
			c, found := l.cells[input.PreviousOutput]
			if !found {
				return tx, xerrors.Errorf("input: %w",
					resolve.UnknownOutPointError{OutPoint: input.PreviousOutput})
			}

			scripts = append(scripts, c.output.Lock)

			if c.output.Type != nil {
				scripts = append(scripts, *c.output.Type)
			}
		}
	}

	for _, output := range tx.Outputs {
		if output.Type != nil {
			scripts = append(scripts, *output.Type)
		}
	}

	completed := tx.Clone()

	seen := make(map[types.CellDep]struct{})
	for _, dep := range completed.CellDeps {
		seen[dep] = struct{}{}
	}

	for _, script := range scripts {
		if !script.HashType.IsData() {
			return tx, UnsupportedHashTypeError{HashType: script.HashType}
		}

		op, found := l.liveByData(script.CodeHash)
		if !found {
			return tx, CodeNotFoundError{CodeHash: script.CodeHash}
		}

		dep := types.NewCodeDep(op)

		_, found = seen[dep]
		if found {
			continue
		}

		seen[dep] = struct{}{}
		completed.CellDeps = append(completed.CellDeps, dep)
	}

	return completed, nil
}
