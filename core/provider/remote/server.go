package remote

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"go.dedis.ch/cellkit"
	"go.dedis.ch/cellkit/core/execution"
	"go.dedis.ch/cellkit/core/provider"
	"go.dedis.ch/cellkit/core/query"
	"golang.org/x/xerrors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Server exposes a provider as a gRPC service.
//
// - implements remote.ProviderServer
type Server struct {
	provider provider.Provider
	logger   zerolog.Logger
}

// ServerOption is the type of options to create a server.
type ServerOption func(*Server)

// WithServerLogger sets the logger of the server.
func WithServerLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer returns a new server for the provider.
func NewServer(p provider.Provider, opts ...ServerOption) *Server {
	s := &Server{
		provider: p,
		logger:   cellkit.Logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With().Str("component", "provider-server").Logger()

	return s
}

// Register adds the service to the gRPC server.
func (s *Server) Register(gs *grpc.Server) {
	RegisterProviderServer(gs, s)
}

// GetCell implements remote.ProviderServer.
func (s *Server) GetCell(ctx context.Context, req *GetCellRequest) (*GetCellResponse, error) {
	op, err := req.OutPoint.domain()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	meta, st, err := s.provider.GetCell(ctx, op, req.WithData)
	if err != nil {
		return nil, s.toStatus("GetCell", err)
	}

	return &GetCellResponse{Status: uint8(st), Cell: newCellMeta(meta)}, nil
}

// GetTransaction implements remote.ProviderServer.
func (s *Server) GetTransaction(ctx context.Context, req *HashRequest) (*GetTransactionResponse, error) {
	hash, err := toHash(req.Hash)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	tx, err := s.provider.GetTransaction(ctx, hash)
	if err != nil {
		return nil, s.toStatus("GetTransaction", err)
	}

	return newCommitted(tx), nil
}

// GetHeader implements remote.ProviderServer.
func (s *Server) GetHeader(ctx context.Context, req *HashRequest) (*Header, error) {
	hash, err := toHash(req.Hash)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	header, err := s.provider.GetHeader(ctx, hash)
	if err != nil {
		return nil, s.toStatus("GetHeader", err)
	}

	msg := newHeader(header)

	return &msg, nil
}

// GetTip implements remote.ProviderServer.
func (s *Server) GetTip(ctx context.Context, req *GetTipRequest) (*Header, error) {
	header, err := s.provider.GetTip(ctx)
	if err != nil {
		return nil, s.toStatus("GetTip", err)
	}

	msg := newHeader(header)

	return &msg, nil
}

// SendTransaction implements remote.ProviderServer. A rejection of the scripts
// is part of the response.
func (s *Server) SendTransaction(ctx context.Context, req *SendTransactionRequest) (*SendTransactionResponse, error) {
	tx, err := req.Transaction.domain()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	hash, err := s.provider.SendTransaction(ctx, tx)

	var rejected execution.RejectedError
	if xerrors.As(err, &rejected) {
		return &SendTransactionResponse{
			Hash:       hash.Bytes(),
			Rejected:   true,
			Reason:     rejected.Reason,
			ScriptHash: rejected.ScriptHash.Bytes(),
		}, nil
	}

	if err != nil {
		return nil, s.toStatus("SendTransaction", err)
	}

	return &SendTransactionResponse{Hash: hash.Bytes()}, nil
}

// FindCells implements remote.ProviderServer.
func (s *Server) FindCells(ctx context.Context, req *FindCellsRequest) (*FindCellsResponse, error) {
	var q query.CellQuery

	err := json.Unmarshal(req.Query, &q)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid query: %v", err)
	}

	cells, err := s.provider.FindCells(ctx, q)
	if err != nil {
		return nil, s.toStatus("FindCells", err)
	}

	resp := &FindCellsResponse{Cells: make([]CellMeta, len(cells))}
	for i, meta := range cells {
		resp.Cells[i] = newCellMeta(meta)
	}

	return resp, nil
}

func (s *Server) toStatus(method string, err error) error {
	switch {
	case xerrors.Is(err, provider.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case xerrors.Is(err, query.ErrUnsupportedQuery):
		return status.Error(codes.Unimplemented, err.Error())
	case xerrors.Is(err, context.Canceled), xerrors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	}

	s.logger.Warn().Err(err).Str("method", method).Msg("request failed")

	return status.Error(codes.FailedPrecondition, err.Error())
}
