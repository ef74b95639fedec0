// Package local implements a provider backed by an in-memory ledger. The
// ledger is owned by the provider, and every access is serialized.
package local

import (
	"context"
	"sync"

	"go.dedis.ch/cellkit/core/ledger"
	"go.dedis.ch/cellkit/core/provider"
	"go.dedis.ch/cellkit/core/query"
	"go.dedis.ch/cellkit/core/resolve"
	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

// Provider is a provider reading and writing a local ledger.
//
// - implements provider.Provider
type Provider struct {
	sync.Mutex

	ledger *ledger.Ledger
	opts   []ledger.VerifyOption
}

// NewProvider returns a provider for the ledger. The options are used when a
// transaction is sent.
func NewProvider(l *ledger.Ledger, opts ...ledger.VerifyOption) *Provider {
	return &Provider{
		ledger: l,
		opts:   opts,
	}
}

// Update runs the function with an exclusive access to the ledger.
func (p *Provider) Update(fn func(l *ledger.Ledger) error) error {
	p.Lock()
	defer p.Unlock()

	return fn(p.ledger)
}

// GetCell implements provider.Provider.
func (p *Provider) GetCell(ctx context.Context, op types.OutPoint,
	withData bool) (types.CellMeta, resolve.CellStatus, error) {

	if ctx.Err() != nil {
		return types.CellMeta{}, resolve.StatusUnknown, ctx.Err()
	}

	p.Lock()
	defer p.Unlock()

	return p.ledger.Cell(op, withData)
}

// GetTransaction implements provider.Provider.
func (p *Provider) GetTransaction(ctx context.Context, hash types.Hash) (ledger.CommittedTransaction, error) {
	if ctx.Err() != nil {
		return ledger.CommittedTransaction{}, ctx.Err()
	}

	p.Lock()
	defer p.Unlock()

	tx, found := p.ledger.GetTransaction(hash)
	if !found {
		return tx, xerrors.Errorf("transaction %v: %w", hash, provider.ErrNotFound)
	}

	return tx, nil
}

// GetHeader implements provider.Provider.
func (p *Provider) GetHeader(ctx context.Context, hash types.Hash) (types.Header, error) {
	if ctx.Err() != nil {
		return types.Header{}, ctx.Err()
	}

	p.Lock()
	defer p.Unlock()

	header, found, err := p.ledger.Header(hash)
	if err != nil {
		return header, err
	}

	if !found {
		return header, xerrors.Errorf("header %v: %w", hash, provider.ErrNotFound)
	}

	return header, nil
}

// GetTip implements provider.Provider.
func (p *Provider) GetTip(ctx context.Context) (types.Header, error) {
	if ctx.Err() != nil {
		return types.Header{}, ctx.Err()
	}

	p.Lock()
	defer p.Unlock()

	return p.ledger.Tip(), nil
}

// SendTransaction implements provider.Provider. The transaction is verified
// and committed to the ledger.
func (p *Provider) SendTransaction(ctx context.Context, tx types.Transaction) (types.Hash, error) {
	if ctx.Err() != nil {
		return types.Hash{}, ctx.Err()
	}

	p.Lock()
	defer p.Unlock()

	return p.ledger.Receive(tx, p.opts...)
}

// FindCells implements provider.Provider.
func (p *Provider) FindCells(ctx context.Context, q query.CellQuery) ([]types.CellMeta, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	p.Lock()
	defer p.Unlock()

	return query.NewEngine(p.ledger).Query(q)
}
