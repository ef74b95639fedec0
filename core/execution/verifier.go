package execution

import (
	"github.com/rs/zerolog"
	"go.dedis.ch/cellkit"
	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

// Verifier is the adapter between the ledger and the script engine. It
// provides the engine with the environment and interprets its result.
type Verifier struct {
	engine   Engine
	context  Context
	observer Observer
	loader   DataLoader
	logger   zerolog.Logger
}

// VerifierOption is the type of options to create a verifier.
type VerifierOption func(*Verifier)

// WithContext sets the consensus and transaction context. The default context
// is used otherwise.
func WithContext(ctx Context) VerifierOption {
	return func(v *Verifier) {
		v.context = ctx
	}
}

// WithObserver sets the observer of the debug messages. They are dropped
// otherwise.
func WithObserver(o Observer) VerifierOption {
	return func(v *Verifier) {
		v.observer = o
	}
}

// WithDataLoader sets the loader used by the engine to read the data of the
// cells that are not eagerly loaded.
func WithDataLoader(l DataLoader) VerifierOption {
	return func(v *Verifier) {
		v.loader = l
	}
}

// WithLogger sets the logger of the verifier.
func WithLogger(logger zerolog.Logger) VerifierOption {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// NewVerifier creates a new verifier for the engine.
func NewVerifier(engine Engine, opts ...VerifierOption) Verifier {
	v := Verifier{
		engine:   engine,
		context:  DefaultContext(),
		observer: NopObserver{},
		loader:   emptyLoader{},
		logger:   cellkit.Logger,
	}

	for _, opt := range opts {
		opt(&v)
	}

	return v
}

// Verify runs the scripts of the resolved transaction and returns the number of
// cycles consumed. If the engine rejects the transaction, the error is a
// RejectedError.
func (v Verifier) Verify(rtx types.ResolvedTransaction, maxCycles uint64) (uint64, error) {
	env := Environment{
		Context:  v.context,
		Observer: v.observer,
		Loader:   v.loader,
	}

	res, err := v.engine.Verify(rtx, maxCycles, env)
	if err != nil {
		return 0, xerrors.Errorf("engine failed: %v", err)
	}

	if !res.Accepted {
		v.logger.Debug().
			Stringer("tx", rtx.Transaction.Hash()).
			Str("reason", res.Message).
			Msg("transaction rejected")

		return res.Cycles, RejectedError{
			Reason:     res.Message,
			ScriptHash: res.ScriptHash,
		}
	}

	return res.Cycles, nil
}

type emptyLoader struct{}

func (emptyLoader) LoadCellData(types.OutPoint) ([]byte, bool) {
	return nil, false
}
