package remote

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

const serviceName = "cellkit.v1.Provider"

// ProviderServer is the server-side interface of the provider service.
type ProviderServer interface {
	GetCell(context.Context, *GetCellRequest) (*GetCellResponse, error)
	GetTransaction(context.Context, *HashRequest) (*GetTransactionResponse, error)
	GetHeader(context.Context, *HashRequest) (*Header, error)
	GetTip(context.Context, *GetTipRequest) (*Header, error)
	SendTransaction(context.Context, *SendTransactionRequest) (*SendTransactionResponse, error)
	FindCells(context.Context, *FindCellsRequest) (*FindCellsResponse, error)
}

// RegisterProviderServer registers the service on the gRPC server.
func RegisterProviderServer(s *grpc.Server, srv ProviderServer) {
	s.RegisterService(&serviceDesc, srv)
}

func handlerGetCell(srv interface{}, ctx context.Context, dec func(interface{}) error,
	_ grpc.UnaryServerInterceptor) (interface{}, error) {

	req := new(GetCellRequest)
	err := dec(req)
	if err != nil {
		return nil, err
	}

	return srv.(ProviderServer).GetCell(ctx, req)
}

func handlerGetTransaction(srv interface{}, ctx context.Context, dec func(interface{}) error,
	_ grpc.UnaryServerInterceptor) (interface{}, error) {

	req := new(HashRequest)
	err := dec(req)
	if err != nil {
		return nil, err
	}

	return srv.(ProviderServer).GetTransaction(ctx, req)
}

func handlerGetHeader(srv interface{}, ctx context.Context, dec func(interface{}) error,
	_ grpc.UnaryServerInterceptor) (interface{}, error) {

	req := new(HashRequest)
	err := dec(req)
	if err != nil {
		return nil, err
	}

	return srv.(ProviderServer).GetHeader(ctx, req)
}

func handlerGetTip(srv interface{}, ctx context.Context, dec func(interface{}) error,
	_ grpc.UnaryServerInterceptor) (interface{}, error) {

	req := new(GetTipRequest)
	err := dec(req)
	if err != nil {
		return nil, err
	}

	return srv.(ProviderServer).GetTip(ctx, req)
}

func handlerSendTransaction(srv interface{}, ctx context.Context, dec func(interface{}) error,
	_ grpc.UnaryServerInterceptor) (interface{}, error) {

	req := new(SendTransactionRequest)
	err := dec(req)
	if err != nil {
		return nil, err
	}

	return srv.(ProviderServer).SendTransaction(ctx, req)
}

func handlerFindCells(srv interface{}, ctx context.Context, dec func(interface{}) error,
	_ grpc.UnaryServerInterceptor) (interface{}, error) {

	req := new(FindCellsRequest)
	err := dec(req)
	if err != nil {
		return nil, err
	}

	return srv.(ProviderServer).FindCells(ctx, req)
}

func fullMethod(method string) string {
	return fmt.Sprintf("/%s/%s", serviceName, method)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ProviderServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetCell", Handler: handlerGetCell},
		{MethodName: "GetTransaction", Handler: handlerGetTransaction},
		{MethodName: "GetHeader", Handler: handlerGetHeader},
		{MethodName: "GetTip", Handler: handlerGetTip},
		{MethodName: "SendTransaction", Handler: handlerSendTransaction},
		{MethodName: "FindCells", Handler: handlerFindCells},
	},
	Metadata: "cellkit/v1/provider.cram",
}
