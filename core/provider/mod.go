// Package provider defines the boundary with the chain a transaction is built
// against. A provider can be the local ledger or a remote node, and the
// adapters of this package let the resolver and the query engine work with
// either of them.
package provider

import (
	"context"

	"go.dedis.ch/cellkit/core/ledger"
	"go.dedis.ch/cellkit/core/query"
	"go.dedis.ch/cellkit/core/resolve"
	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

// ErrNotFound is returned when a transaction or a header is not known by the
// provider.
var ErrNotFound = xerrors.New("not found")

// Provider is the interface of a source of chain state.
type Provider interface {
	// GetCell returns the cell of the out-point and its status. An unknown
	// cell is reported with the status, not an error.
	GetCell(ctx context.Context, op types.OutPoint, withData bool) (types.CellMeta, resolve.CellStatus, error)

	// GetTransaction returns the committed transaction of the hash, or
	// ErrNotFound.
	GetTransaction(ctx context.Context, hash types.Hash) (ledger.CommittedTransaction, error)

	// GetHeader returns the header of the hash, or ErrNotFound.
	GetHeader(ctx context.Context, hash types.Hash) (types.Header, error)

	// GetTip returns the header with the highest number.
	GetTip(ctx context.Context) (types.Header, error)

	// SendTransaction verifies and commits the transaction. A transaction
	// rejected by its scripts returns an execution.RejectedError.
	SendTransaction(ctx context.Context, tx types.Transaction) (types.Hash, error)

	// FindCells returns the live cells matching the query.
	FindCells(ctx context.Context, q query.CellQuery) ([]types.CellMeta, error)
}

// CellSource is an adapter of a provider to the interfaces of the resolver
// and of the data loader of the verifier. The context is used for every call
// to the provider.
//
// - implements resolve.Source
// - implements execution.DataLoader
type CellSource struct {
	ctx      context.Context
	provider Provider
}

// NewCellSource returns a new cell source for the provider.
func NewCellSource(ctx context.Context, p Provider) CellSource {
	return CellSource{
		ctx:      ctx,
		provider: p,
	}
}

// Cell implements resolve.CellProvider.
func (s CellSource) Cell(op types.OutPoint, eager bool) (types.CellMeta, resolve.CellStatus, error) {
	return s.provider.GetCell(s.ctx, op, eager)
}

// Header implements resolve.HeaderProvider.
func (s CellSource) Header(hash types.Hash) (types.Header, bool, error) {
	header, err := s.provider.GetHeader(s.ctx, hash)
	if xerrors.Is(err, ErrNotFound) {
		return types.Header{}, false, nil
	}

	if err != nil {
		return types.Header{}, false, err
	}

	return header, true, nil
}

// LoadCellData implements execution.DataLoader. It returns false when the cell
// is unknown or cannot be fetched.
func (s CellSource) LoadCellData(op types.OutPoint) ([]byte, bool) {
	meta, status, err := s.provider.GetCell(s.ctx, op, true)
	if err != nil || status == resolve.StatusUnknown {
		return nil, false
	}

	return meta.Data, true
}

// QuerySource is an adapter of a provider to the query engine interface.
//
// - implements query.Engine
type QuerySource struct {
	ctx      context.Context
	provider Provider
}

// NewQuerySource returns a new query engine backed by the provider.
func NewQuerySource(ctx context.Context, p Provider) QuerySource {
	return QuerySource{
		ctx:      ctx,
		provider: p,
	}
}

// Query implements query.Engine.
func (s QuerySource) Query(q query.CellQuery) ([]types.CellMeta, error) {
	return s.provider.FindCells(s.ctx, q)
}
