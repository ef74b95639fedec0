package native

import (
	"go.dedis.ch/cellkit/core/types"
)

// scriptGroup is the set of inputs and outputs sharing the same script.
type scriptGroup struct {
	hash    types.Hash
	script  types.Script
	isLock  bool
	inputs  []int
	outputs []int
}

// groupScripts returns the lock groups followed by the type groups of the
// transaction, each in order of first appearance.
func groupScripts(rtx types.ResolvedTransaction) []*scriptGroup {
	locks := newGroupSet(true)
	kinds := newGroupSet(false)

	for i, input := range rtx.ResolvedInputs {
		lock := locks.get(input.Output.Lock)
		lock.inputs = append(lock.inputs, i)

		if input.Output.Type != nil {
			g := kinds.get(*input.Output.Type)
			g.inputs = append(g.inputs, i)
		}
	}

	for i, output := range rtx.Transaction.Outputs {
		if output.Type != nil {
			g := kinds.get(*output.Type)
			g.outputs = append(g.outputs, i)
		}
	}

	return append(locks.ordered, kinds.ordered...)
}

type groupSet struct {
	isLock  bool
	index   map[types.Hash]*scriptGroup
	ordered []*scriptGroup
}

func newGroupSet(isLock bool) *groupSet {
	return &groupSet{
		isLock: isLock,
		index:  map[types.Hash]*scriptGroup{},
	}
}

func (s *groupSet) get(script types.Script) *scriptGroup {
	hash := script.Hash()

	g, found := s.index[hash]
	if !found {
		g = &scriptGroup{
			hash:   hash,
			script: script,
			isLock: s.isLock,
		}

		s.index[hash] = g
		s.ordered = append(s.ordered, g)
	}

	return g
}
