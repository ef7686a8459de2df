package crowdfundgrpc

import "github.com/blockberries/crowdfund/types"

// Wrapper types for RPCs whose Go signatures don't map onto a single
// request or response struct. They exist only at the wire boundary.

// CheckTxRequest carries the arguments of Lifecycle.CheckTx.
type CheckTxRequest struct {
	Tx      types.Tx             `cramberry:"1"`
	Context types.MempoolContext `cramberry:"2"`
}

// CommitRequest is empty.
type CommitRequest struct{}

// AvailableSnapshotsRequest is empty.
type AvailableSnapshotsRequest struct{}

type AvailableSnapshotsResponse struct {
	Snapshots []types.SnapshotDescriptor `cramberry:"1"`
}

type ExportSnapshotRequest struct {
	Height uint64 `cramberry:"1"`
	Format uint32 `cramberry:"2"`
}

// SnapshotMessage is one message of a snapshot stream in either
// direction. The first message carries the descriptor, every later
// one a chunk.
type SnapshotMessage struct {
	Descriptor *types.SnapshotDescriptor `cramberry:"1"`
	Chunk      *types.SnapshotChunk      `cramberry:"2"`
}

type SimulateRequest struct {
	Tx types.Tx `cramberry:"1"`
}
