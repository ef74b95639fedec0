// Package resolve turns a transaction made of references into a resolved
// transaction where every input and cell dependency is attached to the cell it
// refers to.
//
// A cell can only be consumed once in a transaction: a second reference to the
// same input is reported as a dead out-point. Cell dependencies are not subject
// to this check as they can be shared.
package resolve

import (
	"fmt"

	"go.dedis.ch/cellkit/core/types"
)

// CellStatus is the status of a cell known by a provider.
type CellStatus int

const (
	// StatusUnknown is the status of a cell that has never been committed.
	StatusUnknown CellStatus = iota
	// StatusLive is the status of a committed cell that can be consumed.
	StatusLive
	// StatusDead is the status of a committed cell that has been consumed.
	StatusDead
)

// String implements fmt.Stringer.
func (s CellStatus) String() string {
	switch s {
	case StatusLive:
		return "live"
	case StatusDead:
		return "dead"
	default:
		return "unknown"
	}
}

// CellProvider is the interface of a source of cells. When eager is true, the
// data of the cell must be loaded in the returned metadata.
type CellProvider interface {
	Cell(op types.OutPoint, eager bool) (types.CellMeta, CellStatus, error)
}

// HeaderProvider is the interface of a source of headers.
type HeaderProvider interface {
	Header(hash types.Hash) (types.Header, bool, error)
}

// Source is the combination of the providers the resolver relies on.
type Source interface {
	CellProvider
	HeaderProvider
}

// DeadOutPointError is returned when an input references a cell that is
// already consumed, either by the same transaction or by a committed one.
type DeadOutPointError struct {
	OutPoint types.OutPoint
}

// Error implements error.
func (e DeadOutPointError) Error() string {
	return fmt.Sprintf("dead out-point %v", e.OutPoint)
}

// UnknownOutPointError is returned when a reference does not match any
// committed cell.
type UnknownOutPointError struct {
	OutPoint types.OutPoint
}

// Error implements error.
func (e UnknownOutPointError) Error() string {
	return fmt.Sprintf("unknown out-point %v", e.OutPoint)
}

// UnknownHeaderError is returned when a header dependency is not known.
type UnknownHeaderError struct {
	Hash types.Hash
}

// Error implements error.
func (e UnknownHeaderError) Error() string {
	return fmt.Sprintf("unknown header %v", e.Hash)
}

// InvalidDepGroupError is returned when the data of a dep group cell cannot be
// parsed as a list of out-points.
type InvalidDepGroupError struct {
	OutPoint types.OutPoint
}

// Error implements error.
func (e InvalidDepGroupError) Error() string {
	return fmt.Sprintf("invalid dep group %v", e.OutPoint)
}
