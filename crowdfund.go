// Package crowdfund defines the boundary between a host node and the
// crowdfund contract host application.
//
// The node drives the application through [Lifecycle]: it delivers
// finalized blocks whose transactions are contract messages, and it
// reads contract state through queries. [Simulator] and [StateSync]
// are optional capabilities discovered via Go type assertion at
// handshake time.
package crowdfund

import (
	"context"

	"github.com/blockberries/crowdfund/types"
)

// Lifecycle is the interface every contract host application implements.
//
// The node guarantees the following call order:
//  1. Handshake is called exactly once, before anything else.
//  2. ExecuteBlock(h) is called exactly once per committed height h.
//  3. Commit is called exactly once after each ExecuteBlock.
//  4. CheckTx, Query may be called concurrently at any time after Handshake.
type Lifecycle interface {
	// Handshake is called once on every startup.
	//
	// If LastCommitted is nil this is a fresh genesis: the application
	// instantiates the contract from Genesis.AppState. Otherwise the
	// application reports its own last block so the node can detect
	// divergence.
	Handshake(ctx context.Context, req types.HandshakeRequest) (types.HandshakeResponse, error)

	// CheckTx decodes a message and checks it against committed state
	// before it enters the mempool. It does not execute the contract.
	//
	// This method MUST be safe for concurrent use.
	CheckTx(ctx context.Context, tx types.Tx, mctx types.MempoolContext) (types.GateVerdict, error)

	// ExecuteBlock runs every message of a finalized block in order.
	// Each message is one invocation: a failed invocation has no
	// effect on contract state or balances and emits no events.
	//
	// The AppHash in the returned BlockOutcome is deterministic.
	ExecuteBlock(ctx context.Context, block types.FinalizedBlock) (types.BlockOutcome, error)

	// Commit makes the state produced by the last ExecuteBlock the
	// committed state.
	Commit(ctx context.Context) (types.CommitResult, error)

	// Query reads committed contract state.
	//
	// This method MUST be safe for concurrent use, including concurrent
	// with ExecuteBlock.
	Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error)
}

// StateSync exports and imports full contract state snapshots.
//
// Declared via: types.CapStateSync in HandshakeResponse.Capabilities
type StateSync interface {
	// AvailableSnapshots lists snapshots the application can export.
	AvailableSnapshots(ctx context.Context) ([]types.SnapshotDescriptor, error)

	// ExportSnapshot streams a snapshot's chunks in order. The channel
	// is closed after the last chunk.
	ExportSnapshot(ctx context.Context, height uint64, format uint32) (<-chan types.SnapshotChunk, *types.SnapshotDescriptor, error)

	// ImportSnapshot consumes a snapshot, rebuilds state, and returns
	// the resulting AppHash for the node to verify.
	ImportSnapshot(ctx context.Context, descriptor types.SnapshotDescriptor, chunks <-chan types.SnapshotChunk) (types.ImportResult, error)
}

// Simulator dry-runs messages.
//
// Declared via: types.CapSimulation in HandshakeResponse.Capabilities
type Simulator interface {
	// Simulate executes a message against committed state and discards
	// every effect. MUST be safe for concurrent use.
	Simulate(ctx context.Context, tx types.Tx) (types.TxOutcome, error)
}

// Application embeds every interface.
type Application interface {
	Lifecycle
	StateSync
	Simulator
}

// Connection is a transport-agnostic connection to an application.
// Both gRPC clients and in-process adapters implement this.
type Connection interface {
	Lifecycle

	// Capabilities returns the capabilities discovered at handshake.
	// Must only be called after Handshake completes.
	Capabilities() types.Capabilities

	// AsStateSync returns the StateSync interface if available.
	AsStateSync() StateSync

	// AsSimulator returns the Simulator interface if available.
	AsSimulator() Simulator

	// Close terminates the connection.
	Close() error
}
