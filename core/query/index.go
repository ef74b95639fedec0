package query

import (
	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

// Index is the interface of the indices of a ledger the engine reads from.
type Index interface {
	GetByLockHash(hash types.Hash) []types.CellMeta
	GetByTypeHash(hash types.Hash) []types.CellMeta
	GetByDataHash(hash types.Hash) (types.CellMeta, bool)
	IsLive(op types.OutPoint) bool
}

// IndexEngine is a query engine answering from the indices of a ledger. Only
// single-attribute predicates backed by an index are supported.
//
// - implements query.Engine
type IndexEngine struct {
	index Index
}

// NewEngine returns a query engine for the index.
func NewEngine(index Index) IndexEngine {
	return IndexEngine{
		index: index,
	}
}

// Query implements query.Engine. It returns the live cells matching the
// predicate in the order they were committed, up to the limit.
func (e IndexEngine) Query(q CellQuery) ([]types.CellMeta, error) {
	if q.Limit < 0 {
		return nil, xerrors.Errorf("invalid limit %d", q.Limit)
	}

	var candidates []types.CellMeta

	switch q.Predicate.Kind {
	case KindLockHash:
		candidates = e.index.GetByLockHash(q.Predicate.Hash)
	case KindLockScript:
		candidates = e.index.GetByLockHash(q.Predicate.Script.Hash())
	case KindTypeScript:
		candidates = e.index.GetByTypeHash(q.Predicate.Script.Hash())
	case KindDataHash:
		meta, found := e.index.GetByDataHash(q.Predicate.Hash)
		if found {
			candidates = []types.CellMeta{meta}
		}
	default:
		return nil, xerrors.Errorf("%v: %w", q.Predicate.Kind, ErrUnsupportedQuery)
	}

	cells := []types.CellMeta{}

	for _, meta := range candidates {
		if q.Limit > 0 && len(cells) >= q.Limit {
			break
		}

		if e.index.IsLive(meta.OutPoint) {
			cells = append(cells, meta)
		}
	}

	return cells, nil
}
