package types

// TxOutcome is the result of one contract invocation.
type TxOutcome struct {
	// Position of this tx in the block (0-indexed).
	Index uint32 `cramberry:"1"`
	// Result code. 0 = success; the application defines the rest.
	Code uint32 `cramberry:"2"`
	// Diagnostic text (the contract error message on failure).
	Info string `cramberry:"3"`
	// Deterministic result data.
	Data []byte `cramberry:"4"`
	// Events emitted by this invocation. Empty when it failed.
	Events []Event `cramberry:"5"`
}

// OK returns true if the invocation succeeded.
func (t TxOutcome) OK() bool { return t.Code == 0 }

// BlockOutcome is the output of executing a finalized block.
type BlockOutcome struct {
	TxOutcomes []TxOutcome `cramberry:"1"`
	AppHash    AppHash     `cramberry:"2"`
}

// FinalizedBlock is a decided block delivered for execution. Its
// height and time become the block number and block timestamp seen by
// the contract.
type FinalizedBlock struct {
	Height        uint64    `cramberry:"1"`
	Time          Timestamp `cramberry:"2"`
	Txs           []Tx      `cramberry:"3"`
	LastBlockHash Hash      `cramberry:"4"`
}

// CommitResult is returned after staged state becomes committed.
type CommitResult struct {
	// Minimum height still needed for queries. 0 = no preference.
	RetainHeight uint64 `cramberry:"1"`
}
