package remote

import (
	"context"
	"encoding/json"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sethvargo/go-retry"
	"go.dedis.ch/cellkit/core/execution"
	"go.dedis.ch/cellkit/core/ledger"
	"go.dedis.ch/cellkit/core/provider"
	"go.dedis.ch/cellkit/core/query"
	"go.dedis.ch/cellkit/core/resolve"
	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// DefaultCacheSize is the number of entries of each cache of the client.
	DefaultCacheSize = 128

	// DefaultRetries is the number of times a call is retried after a
	// transient failure.
	DefaultRetries = 3

	// DefaultBackoff is the initial delay before a retry.
	DefaultBackoff = 50 * time.Millisecond
)

// Client is a provider calling a remote server. Transactions and headers are
// cached as they never change once committed. A cell is cached with its data
// and is only fetched again to learn its status, unless it is already dead.
//
// - implements provider.Provider
type Client struct {
	cc *grpc.ClientConn

	txs     *lru.Cache[types.Hash, ledger.CommittedTransaction]
	headers *lru.Cache[types.Hash, types.Header]
	cells   *lru.Cache[types.OutPoint, cachedCell]

	retries uint64
	backoff time.Duration
}

type cachedCell struct {
	meta   types.CellMeta
	status resolve.CellStatus
}

type clientTemplate struct {
	dialOpts  []grpc.DialOption
	cacheSize int
	retries   uint64
	backoff   time.Duration
}

// ClientOption is the type of options to create a client.
type ClientOption func(*clientTemplate)

// WithDialOptions adds options to the gRPC connection.
func WithDialOptions(opts ...grpc.DialOption) ClientOption {
	return func(tmpl *clientTemplate) {
		tmpl.dialOpts = append(tmpl.dialOpts, opts...)
	}
}

// WithCacheSize sets the number of entries of each cache.
func WithCacheSize(size int) ClientOption {
	return func(tmpl *clientTemplate) {
		tmpl.cacheSize = size
	}
}

// WithRetries sets the number of retries after a transient failure, and the
// initial delay of the exponential backoff.
func WithRetries(retries uint64, backoff time.Duration) ClientOption {
	return func(tmpl *clientTemplate) {
		tmpl.retries = retries
		tmpl.backoff = backoff
	}
}

// Dial connects to the server at the address.
func Dial(ctx context.Context, addr string, opts ...ClientOption) (*Client, error) {
	tmpl := clientTemplate{
		cacheSize: DefaultCacheSize,
		retries:   DefaultRetries,
		backoff:   DefaultBackoff,
	}

	for _, opt := range opts {
		opt(&tmpl)
	}

	dialOpts := append(tmpl.dialOpts, grpc.WithDefaultCallOptions(grpc.ForceCodec(CramberryCodec{})))

	txs, err := lru.New[types.Hash, ledger.CommittedTransaction](tmpl.cacheSize)
	if err != nil {
		return nil, xerrors.Errorf("failed to create cache: %v", err)
	}

	headers, err := lru.New[types.Hash, types.Header](tmpl.cacheSize)
	if err != nil {
		return nil, xerrors.Errorf("failed to create cache: %v", err)
	}

	cells, err := lru.New[types.OutPoint, cachedCell](tmpl.cacheSize)
	if err != nil {
		return nil, xerrors.Errorf("failed to create cache: %v", err)
	}

	cc, err := grpc.DialContext(ctx, addr, dialOpts...)
	if err != nil {
		return nil, xerrors.Errorf("failed to dial %s: %v", addr, err)
	}

	c := &Client{
		cc:      cc,
		txs:     txs,
		headers: headers,
		cells:   cells,
		retries: tmpl.retries,
		backoff: tmpl.backoff,
	}

	return c, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.cc.Close()
}

// GetCell implements provider.Provider.
func (c *Client) GetCell(ctx context.Context, op types.OutPoint,
	withData bool) (types.CellMeta, resolve.CellStatus, error) {

	cached, found := c.cells.Get(op)
	if found && cached.status == resolve.StatusDead {
		return stripData(cached.meta, withData), cached.status, nil
	}

	// The data of a cell never changes, only its status needs to be
	// refreshed.
	req := &GetCellRequest{
		OutPoint: newOutPoint(op),
		WithData: withData && !found,
	}

	resp := new(GetCellResponse)

	err := c.invoke(ctx, "GetCell", req, resp)
	if err != nil {
		return types.CellMeta{}, resolve.StatusUnknown, err
	}

	st := resolve.CellStatus(resp.Status)

	switch {
	case st == resolve.StatusUnknown:
		return types.CellMeta{}, st, nil
	case st == resolve.StatusDead && found:
		cached.status = st
		c.cells.Add(op, cached)

		return stripData(cached.meta, withData), st, nil
	case st == resolve.StatusDead:
		return types.CellMeta{}, st, nil
	}

	meta, err := resp.Cell.domain()
	if err != nil {
		return types.CellMeta{}, st, xerrors.Errorf("invalid cell: %v", err)
	}

	if found {
		meta.Data = cached.meta.Data
		meta.DataHash = cached.meta.DataHash
	}

	if meta.DataHash != nil {
		c.cells.Add(op, cachedCell{meta: meta, status: st})
	}

	return stripData(meta, withData), st, nil
}

// GetTransaction implements provider.Provider.
func (c *Client) GetTransaction(ctx context.Context, hash types.Hash) (ledger.CommittedTransaction, error) {
	tx, found := c.txs.Get(hash)
	if found {
		return tx, nil
	}

	resp := new(GetTransactionResponse)

	err := c.invoke(ctx, "GetTransaction", &HashRequest{Hash: hash.Bytes()}, resp)
	if err != nil {
		return tx, err
	}

	tx, err = resp.domain()
	if err != nil {
		return tx, xerrors.Errorf("invalid transaction: %v", err)
	}

	c.txs.Add(hash, tx)

	return tx, nil
}

// GetHeader implements provider.Provider.
func (c *Client) GetHeader(ctx context.Context, hash types.Hash) (types.Header, error) {
	header, found := c.headers.Get(hash)
	if found {
		return header, nil
	}

	resp := new(Header)

	err := c.invoke(ctx, "GetHeader", &HashRequest{Hash: hash.Bytes()}, resp)
	if err != nil {
		return header, err
	}

	header, err = resp.domain()
	if err != nil {
		return header, xerrors.Errorf("invalid header: %v", err)
	}

	c.headers.Add(hash, header)

	return header, nil
}

// GetTip implements provider.Provider. The tip is never cached.
func (c *Client) GetTip(ctx context.Context) (types.Header, error) {
	resp := new(Header)

	err := c.invoke(ctx, "GetTip", &GetTipRequest{}, resp)
	if err != nil {
		return types.Header{}, err
	}

	header, err := resp.domain()
	if err != nil {
		return header, xerrors.Errorf("invalid header: %v", err)
	}

	c.headers.Add(header.Hash, header)

	return header, nil
}

// SendTransaction implements provider.Provider.
func (c *Client) SendTransaction(ctx context.Context, tx types.Transaction) (types.Hash, error) {
	req := &SendTransactionRequest{Transaction: newTransaction(tx)}
	resp := new(SendTransactionResponse)

	err := c.invoke(ctx, "SendTransaction", req, resp)
	if err != nil {
		return types.Hash{}, err
	}

	hash, err := toHash(resp.Hash)
	if err != nil {
		return hash, xerrors.Errorf("invalid response: %v", err)
	}

	if resp.Rejected {
		rejected := execution.RejectedError{Reason: resp.Reason}
		copy(rejected.ScriptHash[:], resp.ScriptHash)

		return hash, rejected
	}

	// The inputs are now dead.
	for _, input := range tx.Inputs {
		cached, found := c.cells.Peek(input.PreviousOutput)
		if found {
			cached.status = resolve.StatusDead
			c.cells.Add(input.PreviousOutput, cached)
		}
	}

	return hash, nil
}

// FindCells implements provider.Provider. The result is never cached.
func (c *Client) FindCells(ctx context.Context, q query.CellQuery) ([]types.CellMeta, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode query: %v", err)
	}

	resp := new(FindCellsResponse)

	err = c.invoke(ctx, "FindCells", &FindCellsRequest{Query: data}, resp)
	if err != nil {
		return nil, err
	}

	cells := make([]types.CellMeta, len(resp.Cells))
	for i, msg := range resp.Cells {
		cells[i], err = msg.domain()
		if err != nil {
			return nil, xerrors.Errorf("invalid cell %d: %v", i, err)
		}
	}

	return cells, nil
}

// invoke calls the method and retries with an exponential backoff when the
// server is unavailable.
func (c *Client) invoke(ctx context.Context, method string, req, resp interface{}) error {
	backoff, err := retry.NewExponential(c.backoff)
	if err != nil {
		return xerrors.Errorf("invalid backoff: %v", err)
	}

	backoff = retry.WithMaxRetries(c.retries, backoff)

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.cc.Invoke(ctx, fullMethod(method), req, resp)
		if isTransient(err) {
			return retry.RetryableError(err)
		}

		return err
	})

	if err != nil {
		return fromStatus(method, err)
	}

	return nil
}

func isTransient(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}

func fromStatus(method string, err error) error {
	st, ok := status.FromError(err)
	if ok && st.Code() == codes.NotFound {
		return xerrors.Errorf("%s: %s: %w", method, st.Message(), provider.ErrNotFound)
	}

	if ok && st.Code() == codes.Unimplemented && method == "FindCells" {
		return xerrors.Errorf("%s: %s: %w", method, st.Message(), query.ErrUnsupportedQuery)
	}

	return xerrors.Errorf("%s failed: %v", method, err)
}

func stripData(meta types.CellMeta, withData bool) types.CellMeta {
	if withData {
		return meta
	}

	return meta.WithoutData()
}
