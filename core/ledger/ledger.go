package ledger

import (
	"encoding/binary"

	"github.com/rs/zerolog"
	"go.dedis.ch/cellkit"
	"go.dedis.ch/cellkit/core/execution"
	"go.dedis.ch/cellkit/core/execution/native"
	"go.dedis.ch/cellkit/core/resolve"
	"go.dedis.ch/cellkit/core/types"
	"go.dedis.ch/cellkit/crypto"
	"golang.org/x/xerrors"
)

// GenesisHash is the hash of the header every ledger starts with.
var GenesisHash = types.HashOf([]byte("cellkit genesis"))

type cell struct {
	output   types.CellOutput
	data     []byte
	dataHash types.Hash
	info     *types.TransactionInfo
	live     bool
}

// Ledger is an in-memory store of cells and headers.
//
// - implements resolve.Source
// - implements execution.DataLoader
type Ledger struct {
	cells  map[types.OutPoint]*cell
	order  []types.OutPoint
	byData map[types.Hash][]types.OutPoint
	byLock map[types.Hash][]types.OutPoint
	byType map[types.Hash][]types.OutPoint

	headers map[types.Hash]types.Header
	tip     types.Hash
	tipTxs  int
	txs     map[types.Hash]CommittedTransaction

	engine    execution.Engine
	context   execution.Context
	maxCycles uint64
	rand      crypto.RandGenerator
	logger    zerolog.Logger
}

// Option is the type of options to create a ledger.
type Option func(*Ledger)

// WithEngine sets the script engine transactions are verified with. By default,
// a native engine without any program is used.
func WithEngine(engine execution.Engine) Option {
	return func(l *Ledger) {
		l.engine = engine
	}
}

// WithVerifyContext sets the default context of the verifications.
func WithVerifyContext(ctx execution.Context) Option {
	return func(l *Ledger) {
		l.context = ctx
	}
}

// WithMaxCycles sets the cycle budget of the transactions received by the
// ledger.
func WithMaxCycles(cycles uint64) Option {
	return func(l *Ledger) {
		l.maxCycles = cycles
	}
}

// WithRandom sets the random generator used to synthesize transaction hashes
// of the cells lifted into the ledger.
func WithRandom(gen crypto.RandGenerator) Option {
	return func(l *Ledger) {
		l.rand = gen
	}
}

// WithLogger sets the logger of the ledger.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// NewLedger creates an empty ledger with a genesis header as the tip.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		cells:     make(map[types.OutPoint]*cell),
		byData:    make(map[types.Hash][]types.OutPoint),
		byLock:    make(map[types.Hash][]types.OutPoint),
		byType:    make(map[types.Hash][]types.OutPoint),
		headers:   make(map[types.Hash]types.Header),
		txs:       make(map[types.Hash]CommittedTransaction),
		engine:    native.NewEngine(),
		context:   execution.DefaultContext(),
		maxCycles: execution.DefaultMaxCycles,
		rand:      crypto.CryptographicRandomGenerator{},
		logger:    cellkit.Logger,
	}

	for _, opt := range opts {
		opt(l)
	}

	l.logger = l.logger.With().Str("component", "ledger").Logger()

	genesis := types.Header{
		Hash:  GenesisHash,
		Epoch: l.context.Env.Epoch,
	}

	l.headers[genesis.Hash] = genesis
	l.tip = genesis.Hash

	return l
}

// Deploy lifts a cell with the data into the ledger and returns its out-point.
// If a live cell with the same data already exists, its out-point is returned
// instead. The new cell has an empty lock and the exact capacity to hold the
// data.
func (l *Ledger) Deploy(data []byte) (types.OutPoint, error) {
	op, found := l.liveByData(types.HashOf(data))
	if found {
		return op, nil
	}

	output := types.CellOutput{}

	capacity, err := output.OccupiedCapacity(len(data))
	if err != nil {
		return types.OutPoint{}, xerrors.Errorf("failed to compute capacity: %v", err)
	}

	output.Capacity = capacity

	op, err = l.Create(output, data)
	if err != nil {
		return op, err
	}

	l.logger.Debug().Stringer("outpoint", op).Int("size", len(data)).Msg("code deployed")

	return op, nil
}

// Create lifts the cell into the ledger at a new random out-point.
func (l *Ledger) Create(output types.CellOutput, data []byte) (types.OutPoint, error) {
	digest, err := crypto.RandomDigest(l.rand)
	if err != nil {
		return types.OutPoint{}, xerrors.Errorf("failed to generate tx hash: %v", err)
	}

	op := types.NewOutPoint(types.Hash(digest), 0)

	l.CreateAt(op, output, data)

	return op, nil
}

// CreateAt lifts the cell into the ledger at the out-point. A cell already
// stored at the same out-point is replaced.
func (l *Ledger) CreateAt(op types.OutPoint, output types.CellOutput, data []byte) {
	l.insert(op, output, data, nil)
}

func (l *Ledger) insert(op types.OutPoint, output types.CellOutput, data []byte,
	info *types.TransactionInfo) {

	previous, found := l.cells[op]
	if found {
		l.unindex(op, previous)
	} else {
		l.order = append(l.order, op)
	}

	c := &cell{
		output:   output.Clone(),
		data:     append([]byte{}, data...),
		dataHash: types.HashOf(data),
		info:     info,
		live:     true,
	}

	l.cells[op] = c

	l.byData[c.dataHash] = append(l.byData[c.dataHash], op)

	lockHash := c.output.Lock.Hash()
	l.byLock[lockHash] = append(l.byLock[lockHash], op)

	typeHash, ok := types.OptionalScriptHash(c.output.Type)
	if ok {
		l.byType[typeHash] = append(l.byType[typeHash], op)
	}

	promCells.Inc()
}

func (l *Ledger) unindex(op types.OutPoint, c *cell) {
	lockHash := c.output.Lock.Hash()
	l.byLock[lockHash] = removeOutPoint(l.byLock[lockHash], op)

	typeHash, ok := types.OptionalScriptHash(c.output.Type)
	if ok {
		l.byType[typeHash] = removeOutPoint(l.byType[typeHash], op)
	}

	l.byData[c.dataHash] = removeOutPoint(l.byData[c.dataHash], op)
	if len(l.byData[c.dataHash]) == 0 {
		delete(l.byData, c.dataHash)
	}

	if c.live {
		promCells.Dec()
	}
}

// Get returns the cell at the out-point, dead or alive, if it exists.
func (l *Ledger) Get(op types.OutPoint) (types.CellMeta, bool) {
	c, found := l.cells[op]
	if !found {
		return types.CellMeta{}, false
	}

	return c.meta(op, true), true
}

// GetByDataHash returns the latest live cell committed with data matching the
// hash. When every such cell is consumed, the latest one is returned.
func (l *Ledger) GetByDataHash(hash types.Hash) (types.CellMeta, bool) {
	op, found := l.liveByData(hash)
	if !found {
		ops := l.byData[hash]
		if len(ops) == 0 {
			return types.CellMeta{}, false
		}

		op = ops[len(ops)-1]
	}

	return l.Get(op)
}

// liveByData returns the out-point of the latest live cell holding the data
// with the hash.
func (l *Ledger) liveByData(hash types.Hash) (types.OutPoint, bool) {
	ops := l.byData[hash]
	for i := len(ops) - 1; i >= 0; i-- {
		if l.cells[ops[i]].live {
			return ops[i], true
		}
	}

	return types.OutPoint{}, false
}

// GetByLockHash returns the cells locked by the script with the hash, in the
// order they were committed.
func (l *Ledger) GetByLockHash(hash types.Hash) []types.CellMeta {
	return l.metas(l.byLock[hash])
}

// GetByTypeHash returns the cells having the type script with the hash, in the
// order they were committed.
func (l *Ledger) GetByTypeHash(hash types.Hash) []types.CellMeta {
	return l.metas(l.byType[hash])
}

// IsLive returns true if the cell exists and has not been consumed.
func (l *Ledger) IsLive(op types.OutPoint) bool {
	c, found := l.cells[op]
	return found && c.live
}

// Cells returns every cell of the ledger in the order they were committed.
func (l *Ledger) Cells() []types.CellMeta {
	return l.metas(l.order)
}

// Len returns the number of cells of the ledger, dead or alive.
func (l *Ledger) Len() int {
	return len(l.cells)
}

func (l *Ledger) metas(ops []types.OutPoint) []types.CellMeta {
	metas := make([]types.CellMeta, len(ops))
	for i, op := range ops {
		metas[i] = l.cells[op].meta(op, true)
	}

	return metas
}

// Cell implements resolve.CellProvider. It returns the cell and its status.
// The data is attached only when the cell is eagerly loaded.
func (l *Ledger) Cell(op types.OutPoint, eager bool) (types.CellMeta, resolve.CellStatus, error) {
	c, found := l.cells[op]
	if !found {
		return types.CellMeta{}, resolve.StatusUnknown, nil
	}

	if !c.live {
		return types.CellMeta{}, resolve.StatusDead, nil
	}

	return c.meta(op, eager), resolve.StatusLive, nil
}

// LoadCellData implements execution.DataLoader. It returns the data of the
// cell if it exists.
func (l *Ledger) LoadCellData(op types.OutPoint) ([]byte, bool) {
	c, found := l.cells[op]
	if !found {
		return nil, false
	}

	return append([]byte{}, c.data...), true
}

// Header implements resolve.HeaderProvider. It returns the header with the
// hash if it is known.
func (l *Ledger) Header(hash types.Hash) (types.Header, bool, error) {
	header, found := l.headers[hash]
	return header, found, nil
}

// InsertHeader stores the header. It becomes the tip if its number is higher
// than the current tip.
func (l *Ledger) InsertHeader(header types.Header) {
	l.headers[header.Hash] = header

	if header.Number > l.headers[l.tip].Number {
		l.tip = header.Hash
		l.tipTxs = 0
	}
}

// NewBlock creates a header on top of the tip with the given timestamp and
// inserts it. The epoch of the new header is the one of the verification
// context.
func (l *Ledger) NewBlock(timestamp uint64) types.Header {
	parent := l.headers[l.tip]

	number := make([]byte, 8)
	binary.LittleEndian.PutUint64(number, parent.Number+1)

	header := types.Header{
		Hash:       types.Hash(crypto.Sum(parent.Hash[:], number)),
		ParentHash: parent.Hash,
		Number:     parent.Number + 1,
		Epoch:      l.context.Env.Epoch,
		Timestamp:  timestamp,
	}

	l.InsertHeader(header)

	return header
}

// Tip returns the header with the highest number.
func (l *Ledger) Tip() types.Header {
	return l.headers[l.tip]
}

// GetTransaction returns the committed transaction with the hash if it exists.
func (l *Ledger) GetTransaction(hash types.Hash) (CommittedTransaction, bool) {
	tx, found := l.txs[hash]
	if !found {
		return CommittedTransaction{}, false
	}

	tx.Transaction = tx.Transaction.Clone()

	return tx, true
}

func (c *cell) meta(op types.OutPoint, eager bool) types.CellMeta {
	meta := types.CellMeta{
		Output:    c.output.Clone(),
		OutPoint:  op,
		DataBytes: uint64(len(c.data)),
	}

	if c.info != nil {
		info := *c.info
		meta.TxInfo = &info
	}

	if eager {
		hash := c.dataHash
		meta.Data = append(types.Bytes{}, c.data...)
		meta.DataHash = &hash
	}

	return meta
}

func removeOutPoint(ops []types.OutPoint, op types.OutPoint) []types.OutPoint {
	for i, other := range ops {
		if other == op {
			return append(ops[:i:i], ops[i+1:]...)
		}
	}

	return ops
}
