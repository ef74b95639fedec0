// Package ledger implements an in-memory cell ledger used to simulate the
// state of a chain.
//
// The ledger owns every known cell and indexes them by out-point, by data hash,
// by lock script hash and by type script hash. Cells are never deleted: a cell
// consumed by a committed transaction stays in the ledger but is marked as
// dead. Cells can be lifted directly into the ledger to bootstrap fixtures, or
// created by receiving a transaction which is then resolved and verified
// against the script engine.
//
// A ledger is not safe for concurrent use.
package ledger

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.dedis.ch/cellkit"
	"go.dedis.ch/cellkit/core/types"
)

var (
	promCells = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cellkit_ledger_cells",
		Help: "number of live cells in the ledger",
	})

	promTxs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cellkit_ledger_transactions_total",
		Help: "total number of transactions received by status",
	}, []string{"status"})

	promCycles = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cellkit_ledger_verify_cycles",
		Help:    "cycles consumed by the verification of a transaction",
		Buckets: prometheus.ExponentialBuckets(1_000, 4, 10),
	})
)

const (
	statusAccepted = "accepted"
	statusRejected = "rejected"
	statusInvalid  = "invalid"
)

func init() {
	cellkit.PromCollectors = append(cellkit.PromCollectors, promCells, promTxs, promCycles)
}

// UnsupportedHashTypeError is returned when a script uses an addressing mode
// the ledger cannot complete the dependencies for.
type UnsupportedHashTypeError struct {
	HashType types.HashType
}

// Error implements error.
func (e UnsupportedHashTypeError) Error() string {
	return fmt.Sprintf("unsupported hash type %v", e.HashType)
}

// CodeNotFoundError is returned when no cell with the code of a script has
// been deployed.
type CodeNotFoundError struct {
	CodeHash types.Hash
}

// Error implements error.
func (e CodeNotFoundError) Error() string {
	return fmt.Sprintf("code %v not found", e.CodeHash)
}

// CommittedTransaction is a transaction received by the ledger along with its
// provenance.
type CommittedTransaction struct {
	Transaction types.Transaction     `json:"transaction"`
	Info        types.TransactionInfo `json:"info"`
}
