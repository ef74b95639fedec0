// Package query defines the cell queries used to discover the inputs of a
// transaction, and an engine answering them from the indices of a ledger.
//
// A query is made of a single-attribute predicate and a limit. Compound
// predicates are part of the vocabulary so that they can be carried on the
// wire, but no engine answers them: they fail with ErrUnsupportedQuery.
package query

import (
	"encoding/json"
	"fmt"

	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

// ErrUnsupportedQuery is returned when a query uses a predicate the engine
// cannot answer.
var ErrUnsupportedQuery = xerrors.New("unsupported query")

// Kind is the tag of a predicate.
type Kind uint8

const (
	// KindLockHash matches the cells locked by the script hash.
	KindLockHash Kind = iota + 1
	// KindLockScript matches the cells locked by the script.
	KindLockScript
	// KindTypeScript matches the cells having the type script.
	KindTypeScript
	// KindDataHash matches the cells holding the data with the hash.
	KindDataHash
	// KindMinCapacity matches the cells with at least the capacity.
	KindMinCapacity
	// KindMaxCapacity matches the cells with at most the capacity.
	KindMaxCapacity
	// KindAll matches the cells matching every child predicate.
	KindAll
	// KindAny matches the cells matching one of the child predicates.
	KindAny
	// KindFilterFrom matches the cells of the base predicate that also match
	// the filter.
	KindFilterFrom
)

var kindNames = map[Kind]string{
	KindLockHash:    "lock_hash",
	KindLockScript:  "lock_script",
	KindTypeScript:  "type_script",
	KindDataHash:    "data_hash",
	KindMinCapacity: "min_capacity",
	KindMaxCapacity: "max_capacity",
	KindAll:         "all",
	KindAny:         "any",
	KindFilterFrom:  "filter_from",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	name, found := kindNames[k]
	if !found {
		return fmt.Sprintf("kind(%d)", k)
	}

	return name
}

// IsCompound returns true if the predicate combines other predicates.
func (k Kind) IsCompound() bool {
	return k == KindAll || k == KindAny || k == KindFilterFrom
}

// Predicate is a tagged union of the supported predicates. Only the fields of
// the kind are meaningful.
type Predicate struct {
	Kind     Kind
	Hash     types.Hash
	Script   types.Script
	Capacity uint64
	// Children are the operands of a compound predicate. For FilterFrom, the
	// first child is the base and the second one the filter.
	Children []Predicate
}

// ByLockHash returns a predicate matching the cells locked by the script hash.
func ByLockHash(hash types.Hash) Predicate {
	return Predicate{Kind: KindLockHash, Hash: hash}
}

// ByLockScript returns a predicate matching the cells locked by the script.
func ByLockScript(script types.Script) Predicate {
	return Predicate{Kind: KindLockScript, Script: script.Clone()}
}

// ByTypeScript returns a predicate matching the cells having the type script.
func ByTypeScript(script types.Script) Predicate {
	return Predicate{Kind: KindTypeScript, Script: script.Clone()}
}

// ByDataHash returns a predicate matching the cells holding the data with
// the hash.
func ByDataHash(hash types.Hash) Predicate {
	return Predicate{Kind: KindDataHash, Hash: hash}
}

// MinCapacity returns a predicate matching the cells with at least the
// capacity.
func MinCapacity(capacity uint64) Predicate {
	return Predicate{Kind: KindMinCapacity, Capacity: capacity}
}

// MaxCapacity returns a predicate matching the cells with at most the
// capacity.
func MaxCapacity(capacity uint64) Predicate {
	return Predicate{Kind: KindMaxCapacity, Capacity: capacity}
}

// All returns a predicate matching the cells matching every predicate.
func All(preds ...Predicate) Predicate {
	return Predicate{Kind: KindAll, Children: preds}
}

// Any returns a predicate matching the cells matching one of the predicates.
func Any(preds ...Predicate) Predicate {
	return Predicate{Kind: KindAny, Children: preds}
}

// FilterFrom returns a predicate matching the cells of the base that also
// match the filter.
func FilterFrom(base, filter Predicate) Predicate {
	return Predicate{Kind: KindFilterFrom, Children: []Predicate{base, filter}}
}

// String implements fmt.Stringer.
func (p Predicate) String() string {
	switch p.Kind {
	case KindLockHash, KindDataHash:
		return fmt.Sprintf("%v(%v)", p.Kind, p.Hash)
	case KindLockScript, KindTypeScript:
		return fmt.Sprintf("%v(%v)", p.Kind, p.Script.Hash())
	case KindMinCapacity, KindMaxCapacity:
		return fmt.Sprintf("%v(%d)", p.Kind, p.Capacity)
	default:
		return fmt.Sprintf("%v%v", p.Kind, p.Children)
	}
}

type predicateJSON struct {
	LockHash    *types.Hash     `json:"lock_hash,omitempty"`
	LockScript  *types.Script   `json:"lock_script,omitempty"`
	TypeScript  *types.Script   `json:"type_script,omitempty"`
	DataHash    *types.Hash     `json:"data_hash,omitempty"`
	MinCapacity *uint64         `json:"min_capacity,omitempty"`
	MaxCapacity *uint64         `json:"max_capacity,omitempty"`
	All         []Predicate     `json:"all,omitempty"`
	Any         []Predicate     `json:"any,omitempty"`
	FilterFrom  *filterFromJSON `json:"filter_from,omitempty"`
}

type filterFromJSON struct {
	Base   Predicate `json:"base"`
	Filter Predicate `json:"filter"`
}

// MarshalJSON implements json.Marshaler. The predicate is an object with a
// single field named after the kind.
func (p Predicate) MarshalJSON() ([]byte, error) {
	m := predicateJSON{}

	switch p.Kind {
	case KindLockHash:
		m.LockHash = &p.Hash
	case KindLockScript:
		m.LockScript = &p.Script
	case KindTypeScript:
		m.TypeScript = &p.Script
	case KindDataHash:
		m.DataHash = &p.Hash
	case KindMinCapacity:
		m.MinCapacity = &p.Capacity
	case KindMaxCapacity:
		m.MaxCapacity = &p.Capacity
	case KindAll:
		m.All = p.Children
	case KindAny:
		m.Any = p.Children
	case KindFilterFrom:
		if len(p.Children) != 2 {
			return nil, xerrors.Errorf("filter_from expects 2 operands but got %d", len(p.Children))
		}

		m.FilterFrom = &filterFromJSON{Base: p.Children[0], Filter: p.Children[1]}
	default:
		return nil, xerrors.Errorf("unknown predicate kind %d", p.Kind)
	}

	return json.Marshal(m)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Predicate) UnmarshalJSON(data []byte) error {
	var m predicateJSON

	err := json.Unmarshal(data, &m)
	if err != nil {
		return xerrors.Errorf("invalid predicate: %v", err)
	}

	candidates := []Predicate{}

	if m.LockHash != nil {
		candidates = append(candidates, ByLockHash(*m.LockHash))
	}
	if m.LockScript != nil {
		candidates = append(candidates, ByLockScript(*m.LockScript))
	}
	if m.TypeScript != nil {
		candidates = append(candidates, ByTypeScript(*m.TypeScript))
	}
	if m.DataHash != nil {
		candidates = append(candidates, ByDataHash(*m.DataHash))
	}
	if m.MinCapacity != nil {
		candidates = append(candidates, MinCapacity(*m.MinCapacity))
	}
	if m.MaxCapacity != nil {
		candidates = append(candidates, MaxCapacity(*m.MaxCapacity))
	}
	if m.All != nil {
		candidates = append(candidates, All(m.All...))
	}
	if m.Any != nil {
		candidates = append(candidates, Any(m.Any...))
	}
	if m.FilterFrom != nil {
		candidates = append(candidates, FilterFrom(m.FilterFrom.Base, m.FilterFrom.Filter))
	}

	if len(candidates) != 1 {
		return xerrors.Errorf("predicate must have exactly one kind but got %d", len(candidates))
	}

	*p = candidates[0]

	return nil
}

// CellQuery is a request for at most Limit cells matching the predicate. A
// limit of zero means no limit.
type CellQuery struct {
	Predicate Predicate `json:"query"`
	Limit     int       `json:"limit"`
}

// NewCellQuery returns a query of the predicate with the limit.
func NewCellQuery(pred Predicate, limit int) CellQuery {
	return CellQuery{
		Predicate: pred,
		Limit:     limit,
	}
}

// Engine is the interface to answer cell queries. An engine returns only live
// cells, and an empty result when nothing matches.
type Engine interface {
	Query(q CellQuery) ([]types.CellMeta, error)
}
