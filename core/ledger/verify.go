package ledger

import (
	"go.dedis.ch/cellkit/core/execution"
	"go.dedis.ch/cellkit/core/resolve"
	"go.dedis.ch/cellkit/core/types"
	"go.dedis.ch/cellkit/core/validation"
	"golang.org/x/xerrors"
)

type verifyTemplate struct {
	context  execution.Context
	observer execution.Observer
}

// VerifyOption is the type of options to verify a transaction.
type VerifyOption func(*verifyTemplate)

// WithContext overrides the verification context of the ledger.
func WithContext(ctx execution.Context) VerifyOption {
	return func(tmpl *verifyTemplate) {
		tmpl.context = ctx
	}
}

// WithObserver sets the observer of the debug messages of the scripts.
func WithObserver(obs execution.Observer) VerifyOption {
	return func(tmpl *verifyTemplate) {
		tmpl.observer = obs
	}
}

// Verify checks the structure of the transaction, resolves it against the
// ledger and runs the scripts within the cycle budget. It returns the number of
// cycles consumed.
//
// A structural error wraps one of the errors of the validation package, a
// resolution error wraps one of the errors of the resolve package and a
// rejection by the scripts wraps an execution.RejectedError.
func (l *Ledger) Verify(tx types.Transaction, maxCycles uint64, opts ...VerifyOption) (uint64, error) {
	tmpl := verifyTemplate{
		context:  l.context,
		observer: execution.NopObserver{},
	}

	for _, opt := range opts {
		opt(&tmpl)
	}

	err := validation.CheckTransaction(tx)
	if err != nil {
		return 0, xerrors.Errorf("invalid transaction: %w", err)
	}

	rtx, err := resolve.Resolve(tx, l)
	if err != nil {
		return 0, xerrors.Errorf("failed to resolve: %w", err)
	}

	verifier := execution.NewVerifier(l.engine,
		execution.WithContext(tmpl.context),
		execution.WithObserver(tmpl.observer),
		execution.WithDataLoader(l),
		execution.WithLogger(l.logger))

	cycles, err := verifier.Verify(rtx, maxCycles)
	if err != nil {
		return cycles, xerrors.Errorf("failed to verify: %w", err)
	}

	return cycles, nil
}

// Receive verifies the transaction with the cycle budget of the ledger and
// commits it on success. Every output becomes a live cell at the out-point of
// the transaction hash and the output index, and every input is marked as
// dead. The transaction is recorded in the tip block.
func (l *Ledger) Receive(tx types.Transaction, opts ...VerifyOption) (types.Hash, error) {
	hash := tx.Hash()

	_, found := l.txs[hash]
	if found {
		promTxs.WithLabelValues(statusInvalid).Inc()
		return hash, xerrors.Errorf("transaction %v already committed", hash)
	}

	cycles, err := l.Verify(tx, l.maxCycles, opts...)
	if err != nil {
		if execution.IsRejected(err) {
			promTxs.WithLabelValues(statusRejected).Inc()
		} else {
			promTxs.WithLabelValues(statusInvalid).Inc()
		}

		l.logger.Debug().Err(err).Stringer("tx", hash).Msg("transaction refused")

		return hash, err
	}

	promTxs.WithLabelValues(statusAccepted).Inc()
	promCycles.Observe(float64(cycles))

	l.commit(hash, tx)

	l.logger.Info().
		Stringer("tx", hash).
		Uint64("cycles", cycles).
		Int("inputs", len(tx.Inputs)).
		Int("outputs", len(tx.Outputs)).
		Msg("transaction committed")

	return hash, nil
}

func (l *Ledger) commit(hash types.Hash, tx types.Transaction) {
	tip := l.headers[l.tip]

	info := types.TransactionInfo{
		BlockHash:   tip.Hash,
		BlockNumber: tip.Number,
		BlockEpoch:  tip.Epoch,
		Index:       l.tipTxs,
	}

	l.tipTxs++

	if !tx.IsCellbase() {
		for _, input := range tx.Inputs {
			c := l.cells[input.PreviousOutput]
			if c != nil && c.live {
				c.live = false
				promCells.Dec()
			}
		}
	}

	for i, output := range tx.Outputs {
		cellInfo := info
		l.insert(types.NewOutPoint(hash, uint32(i)), output, tx.OutputsData[i], &cellInfo)
	}

	l.txs[hash] = CommittedTransaction{
		Transaction: tx.Clone(),
		Info:        info,
	}
}
