package resolve

import (
	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

type cacheKey struct {
	op    types.OutPoint
	eager bool
}

// Resolver resolves transactions against a source. During a resolution, the
// live cells are cached so that a cell referenced several times is fetched
// only once.
type Resolver struct {
	source Source
}

// NewResolver creates a new resolver for the source.
func NewResolver(source Source) Resolver {
	return Resolver{
		source: source,
	}
}

// Resolve is a shortcut to resolve a single transaction with a fresh resolver.
func Resolve(tx types.Transaction, source Source) (types.ResolvedTransaction, error) {
	return NewResolver(source).Resolve(tx)
}

// Resolve returns the resolved transaction, or an error if one of the
// references cannot be resolved. Inputs are resolved first, in order, then the
// cell dependencies, and finally the header dependencies are checked.
func (r Resolver) Resolve(tx types.Transaction) (types.ResolvedTransaction, error) {
	res := resolution{
		source: r.source,
		cache:  make(map[cacheKey]types.CellMeta),
	}

	rtx := types.ResolvedTransaction{
		Transaction:       tx,
		ResolvedInputs:    []types.CellMeta{},
		ResolvedCellDeps:  []types.CellMeta{},
		ResolvedDepGroups: []types.CellMeta{},
	}

	seen := make(map[types.OutPoint]struct{})

	// The null input of a cellbase is not a reference to a cell.
	if !tx.IsCellbase() {
		for _, input := range tx.Inputs {
			op := input.PreviousOutput

			_, found := seen[op]
			if found {
				return rtx, DeadOutPointError{OutPoint: op}
			}

			meta, err := res.cell(op, false)
			if err != nil {
				return rtx, err
			}

			rtx.ResolvedInputs = append(rtx.ResolvedInputs, meta)
			seen[op] = struct{}{}
		}
	}

	for _, dep := range tx.CellDeps {
		switch dep.DepType {
		case types.DepTypeCode:
			meta, err := res.cell(dep.OutPoint, true)
			if err != nil {
				return rtx, err
			}

			rtx.ResolvedCellDeps = append(rtx.ResolvedCellDeps, meta)
		case types.DepTypeDepGroup:
			group, err := res.cell(dep.OutPoint, true)
			if err != nil {
				return rtx, err
			}

			members, err := ParseDepGroup(group.Data)
			if err != nil {
				return rtx, InvalidDepGroupError{OutPoint: dep.OutPoint}
			}

			for _, member := range members {
				meta, err := res.cell(member, true)
				if err != nil {
					return rtx, err
				}

				rtx.ResolvedCellDeps = append(rtx.ResolvedCellDeps, meta)
			}

			rtx.ResolvedDepGroups = append(rtx.ResolvedDepGroups, group)
		default:
			return rtx, xerrors.Errorf("unknown dep type %d", dep.DepType)
		}
	}

	for _, hash := range tx.HeaderDeps {
		_, found, err := r.source.Header(hash)
		if err != nil {
			return rtx, xerrors.Errorf("couldn't read header %v: %v", hash, err)
		}

		if !found {
			return rtx, UnknownHeaderError{Hash: hash}
		}
	}

	return rtx, nil
}

// resolution is the state of a single resolution.
type resolution struct {
	source Source
	cache  map[cacheKey]types.CellMeta
}

func (res resolution) cell(op types.OutPoint, eager bool) (types.CellMeta, error) {
	key := cacheKey{op: op, eager: eager}

	meta, found := res.cache[key]
	if found {
		return meta, nil
	}

	meta, status, err := res.source.Cell(op, eager)
	if err != nil {
		return types.CellMeta{}, xerrors.Errorf("couldn't read cell %v: %v", op, err)
	}

	switch status {
	case StatusLive:
		res.cache[key] = meta
		return meta, nil
	case StatusDead:
		return types.CellMeta{}, DeadOutPointError{OutPoint: op}
	default:
		return types.CellMeta{}, UnknownOutPointError{OutPoint: op}
	}
}

// ParseDepGroup parses the data of a dep group cell as a list of out-points.
func ParseDepGroup(data []byte) ([]types.OutPoint, error) {
	if len(data)%types.OutPointSize != 0 {
		return nil, xerrors.Errorf("invalid dep group length %d", len(data))
	}

	ops := make([]types.OutPoint, len(data)/types.OutPointSize)
	for i := range ops {
		chunk := data[i*types.OutPointSize : (i+1)*types.OutPointSize]

		err := ops[i].UnmarshalBinary(chunk)
		if err != nil {
			return nil, xerrors.Errorf("invalid out-point %d: %v", i, err)
		}
	}

	return ops, nil
}

// EncodeDepGroup returns the data of a dep group cell for the out-points.
func EncodeDepGroup(ops []types.OutPoint) []byte {
	data := make([]byte, 0, len(ops)*types.OutPointSize)
	for _, op := range ops {
		buffer := op.Bytes()
		data = append(data, buffer[:]...)
	}

	return data
}
