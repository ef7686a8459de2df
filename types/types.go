// Package types defines the wire types exchanged between a host node
// and the crowdfund contract host application.
//
// These are plain Go structs with cramberry struct tags for
// deterministic binary serialization. Transport concerns live in the
// transport packages; contract-level value types live in primitives.
package types

// Hash is a 32-byte block hash as reported by the host node.
type Hash [32]byte

// AppHash is a deterministic fingerprint of the contract state
// after execution.
type AppHash [32]byte

// Tx is an encoded contract invocation (see Message).
type Tx []byte

// QueryPath selects a read-only view of contract state
// (e.g., "/fund", "/next_id").
type QueryPath string

// BlockID uniquely identifies a point in the chain.
type BlockID struct {
	Height uint64 `cramberry:"1"`
	Hash   Hash   `cramberry:"2"`
}
