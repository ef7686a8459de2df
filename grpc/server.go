package crowdfundgrpc

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/blockberries/crowdfund"
	"github.com/blockberries/crowdfund/server"
	"github.com/blockberries/crowdfund/types"
)

// haltHeightKey is the trailer carrying the height of a halt, so a
// client can rebuild the HaltError.
const haltHeightKey = "crowdfund-halt-height"

var _ ContractHostServer = (*GRPCServer)(nil)

// GRPCServer exposes a contract host application as a gRPC service.
type GRPCServer struct {
	srv *server.Server
	log *zap.Logger
}

// NewGRPCServer wraps app with lifecycle enforcement for serving.
func NewGRPCServer(app crowdfund.Lifecycle, opts ...server.Option) *GRPCServer {
	srv := server.New(app, opts...)
	return &GRPCServer{srv: srv, log: srv.Logger().Named("grpc")}
}

// Register adds the ContractHost service to gs.
func (s *GRPCServer) Register(gs *grpc.Server) {
	RegisterContractHostServer(gs, s)
}

// NewServer builds a grpc.Server with the cramberry codec forced and
// request logging installed, and registers s on it.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.ForceServerCodec(CramberryCodec{}),
		grpc.ChainUnaryInterceptor(s.logUnary),
	}, opts...)
	gs := grpc.NewServer(opts...)
	s.Register(gs)
	return gs
}

// Serve builds a server with NewServer and serves lis until ctx is
// done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener, opts ...grpc.ServerOption) error {
	gs := s.NewServer(opts...)
	go func() {
		<-ctx.Done()
		gs.GracefulStop()
	}()
	s.log.Info("serving", zap.Stringer("addr", lis.Addr()))
	if err := gs.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Server returns the underlying lifecycle server.
func (s *GRPCServer) Server() *server.Server {
	return s.srv
}

func (s *GRPCServer) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	fields := []zap.Field{
		zap.String("method", info.FullMethod),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		s.log.Warn("rpc failed", append(fields, zap.Error(err))...)
	} else {
		s.log.Debug("rpc", fields...)
	}
	return resp, err
}

// statusError converts an application error for the wire. Halts
// become Aborted with the height attached as a trailer.
func statusError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if h, ok := crowdfund.IsHalt(err); ok {
		_ = grpc.SetTrailer(ctx, metadata.Pairs(haltHeightKey, strconv.FormatUint(h.Height, 10)))
		return status.Error(codes.Aborted, h.Error())
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codes.Unknown, err.Error())
}

// --- Lifecycle RPCs ---

func (s *GRPCServer) Handshake(ctx context.Context, req *types.HandshakeRequest) (*types.HandshakeResponse, error) {
	resp, err := s.srv.Handshake(ctx, *req)
	if err != nil {
		return nil, statusError(ctx, err)
	}
	return &resp, nil
}

func (s *GRPCServer) CheckTx(ctx context.Context, req *CheckTxRequest) (*types.GateVerdict, error) {
	verdict, err := s.srv.CheckTx(ctx, req.Tx, req.Context)
	if err != nil {
		return nil, statusError(ctx, err)
	}
	return &verdict, nil
}

func (s *GRPCServer) ExecuteBlock(ctx context.Context, block *types.FinalizedBlock) (*types.BlockOutcome, error) {
	outcome, err := s.srv.ExecuteBlock(ctx, *block)
	if err != nil {
		return nil, statusError(ctx, err)
	}
	return &outcome, nil
}

func (s *GRPCServer) Commit(ctx context.Context, _ *CommitRequest) (*types.CommitResult, error) {
	result, err := s.srv.Commit(ctx)
	if err != nil {
		return nil, statusError(ctx, err)
	}
	return &result, nil
}

func (s *GRPCServer) Query(ctx context.Context, req *types.StateQuery) (*types.StateQueryResult, error) {
	result, err := s.srv.Query(ctx, *req)
	if err != nil {
		return nil, statusError(ctx, err)
	}
	return &result, nil
}

// --- StateSync RPCs ---

func (s *GRPCServer) AvailableSnapshots(ctx context.Context, _ *AvailableSnapshotsRequest) (*AvailableSnapshotsResponse, error) {
	snaps, err := s.srv.AvailableSnapshots(ctx)
	if err != nil {
		return nil, statusError(ctx, err)
	}
	return &AvailableSnapshotsResponse{Snapshots: snaps}, nil
}

func (s *GRPCServer) ExportSnapshot(req *ExportSnapshotRequest, stream grpc.ServerStream) error {
	ch, desc, err := s.srv.ExportSnapshot(stream.Context(), req.Height, req.Format)
	if err != nil {
		return statusError(stream.Context(), err)
	}
	if err := stream.SendMsg(&SnapshotMessage{Descriptor: desc}); err != nil {
		return err
	}
	for chunk := range ch {
		if err := stream.SendMsg(&SnapshotMessage{Chunk: &chunk}); err != nil {
			return err
		}
	}
	return nil
}

func (s *GRPCServer) ImportSnapshot(stream grpc.ServerStream) error {
	first := new(SnapshotMessage)
	if err := stream.RecvMsg(first); err != nil {
		return err
	}
	if first.Descriptor == nil {
		return status.Error(codes.InvalidArgument, "first ImportSnapshot message must carry a descriptor")
	}

	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	chunks := make(chan types.SnapshotChunk)
	recvErr := make(chan error, 1)
	go func() {
		defer close(chunks)
		for {
			msg := new(SnapshotMessage)
			if err := stream.RecvMsg(msg); err != nil {
				if !errors.Is(err, io.EOF) {
					recvErr <- err
				}
				return
			}
			if msg.Chunk == nil {
				continue
			}
			select {
			case chunks <- *msg.Chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	result, err := s.srv.ImportSnapshot(ctx, *first.Descriptor, chunks)
	if err != nil {
		return statusError(ctx, err)
	}
	select {
	case err := <-recvErr:
		return err
	default:
	}
	return stream.SendMsg(&result)
}

// --- Simulator RPC ---

func (s *GRPCServer) Simulate(ctx context.Context, req *SimulateRequest) (*types.TxOutcome, error) {
	outcome, err := s.srv.Simulate(ctx, req.Tx)
	if err != nil {
		return nil, statusError(ctx, err)
	}
	return &outcome, nil
}
