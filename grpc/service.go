package crowdfundgrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/blockberries/crowdfund/types"
)

const serviceName = "crowdfund.v1.ContractHost"

// ContractHostServer is the server-side interface of the ContractHost
// gRPC service.
type ContractHostServer interface {
	Handshake(context.Context, *types.HandshakeRequest) (*types.HandshakeResponse, error)
	CheckTx(context.Context, *CheckTxRequest) (*types.GateVerdict, error)
	ExecuteBlock(context.Context, *types.FinalizedBlock) (*types.BlockOutcome, error)
	Commit(context.Context, *CommitRequest) (*types.CommitResult, error)
	Query(context.Context, *types.StateQuery) (*types.StateQueryResult, error)
	AvailableSnapshots(context.Context, *AvailableSnapshotsRequest) (*AvailableSnapshotsResponse, error)
	ExportSnapshot(*ExportSnapshotRequest, grpc.ServerStream) error
	ImportSnapshot(grpc.ServerStream) error
	Simulate(context.Context, *SimulateRequest) (*types.TxOutcome, error)
}

// RegisterContractHostServer registers srv on a gRPC server.
func RegisterContractHostServer(s grpc.ServiceRegistrar, srv ContractHostServer) {
	s.RegisterService(&serviceDesc, srv)
}

// unary adapts a typed unary method to a grpc.MethodDesc handler,
// running it through the server's interceptor chain.
func unary[Req any, Resp any](method string, call func(ContractHostServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ContractHostServer), ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(ContractHostServer), ctx, req.(*Req))
			})
		},
	}
}

func handlerExportSnapshot(srv any, stream grpc.ServerStream) error {
	req := new(ExportSnapshotRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(ContractHostServer).ExportSnapshot(req, stream)
}

func handlerImportSnapshot(srv any, stream grpc.ServerStream) error {
	return srv.(ContractHostServer).ImportSnapshot(stream)
}

// fullMethod builds the full gRPC method path.
func fullMethod(method string) string {
	return fmt.Sprintf("/%s/%s", serviceName, method)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ContractHostServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Handshake", ContractHostServer.Handshake),
		unary("CheckTx", ContractHostServer.CheckTx),
		unary("ExecuteBlock", ContractHostServer.ExecuteBlock),
		unary("Commit", ContractHostServer.Commit),
		unary("Query", ContractHostServer.Query),
		unary("AvailableSnapshots", ContractHostServer.AvailableSnapshots),
		unary("Simulate", ContractHostServer.Simulate),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "ExportSnapshot",
			Handler:       handlerExportSnapshot,
			ServerStreams: true,
		},
		{
			StreamName:    "ImportSnapshot",
			Handler:       handlerImportSnapshot,
			ClientStreams: true,
		},
	},
	Metadata: "crowdfund/v1/contract_host.cram",
}
