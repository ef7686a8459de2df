package cftest

import (
	"context"
	"testing"
	"time"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/crowdfund"
	"github.com/blockberries/crowdfund/primitives"
	"github.com/blockberries/crowdfund/server"
	"github.com/blockberries/crowdfund/types"
)

// Harness drives an application through the lifecycle state machine
// and fails the test on any unexpected error.
type Harness struct {
	t   *testing.T
	srv *server.Server
}

// NewHarness creates a test harness wrapping the given application.
func NewHarness(t *testing.T, app crowdfund.Lifecycle, opts ...server.Option) *Harness {
	t.Helper()
	return &Harness{t: t, srv: server.New(app, opts...)}
}

// Server returns the underlying server for direct access.
func (h *Harness) Server() *server.Server {
	return h.srv
}

// Genesis performs a genesis handshake with the given genesis doc.
func (h *Harness) Genesis(genesis types.GenesisDoc) types.HandshakeResponse {
	h.t.Helper()
	resp, err := h.srv.Handshake(context.Background(), types.HandshakeRequest{
		Genesis: &genesis,
	})
	if err != nil {
		h.t.Fatalf("Handshake (genesis) failed: %v", err)
	}
	return resp
}

// GenesisDefault performs a genesis handshake with DefaultGenesis.
func (h *Harness) GenesisDefault() types.HandshakeResponse {
	h.t.Helper()
	return h.Genesis(DefaultGenesis())
}

// Restart performs a restart handshake at the given block.
func (h *Harness) Restart(block types.BlockID) types.HandshakeResponse {
	h.t.Helper()
	resp, err := h.srv.Handshake(context.Background(), types.HandshakeRequest{
		LastCommitted: &block,
	})
	if err != nil {
		h.t.Fatalf("Handshake (restart) failed: %v", err)
	}
	return resp
}

// ExecuteBlock executes a block without committing.
func (h *Harness) ExecuteBlock(block types.FinalizedBlock) types.BlockOutcome {
	h.t.Helper()
	outcome, err := h.srv.ExecuteBlock(context.Background(), block)
	if err != nil {
		h.t.Fatalf("ExecuteBlock (height=%d) failed: %v", block.Height, err)
	}
	return outcome
}

// Commit commits the last executed block.
func (h *Harness) Commit() types.CommitResult {
	h.t.Helper()
	result, err := h.srv.Commit(context.Background())
	if err != nil {
		h.t.Fatalf("Commit failed: %v", err)
	}
	return result
}

// ExecuteAndCommit executes a block and commits, returning the block
// outcome.
func (h *Harness) ExecuteAndCommit(block types.FinalizedBlock) types.BlockOutcome {
	h.t.Helper()
	outcome := h.ExecuteBlock(block)
	h.Commit()
	return outcome
}

// CheckTx submits a transaction for mempool gate-checking.
func (h *Harness) CheckTx(tx types.Tx) types.GateVerdict {
	h.t.Helper()
	verdict, err := h.srv.CheckTx(context.Background(), tx, types.MempoolFirstSeen)
	if err != nil {
		h.t.Fatalf("CheckTx failed: %v", err)
	}
	return verdict
}

// Query reads committed state.
func (h *Harness) Query(path types.QueryPath, data []byte) types.StateQueryResult {
	h.t.Helper()
	result, err := h.srv.Query(context.Background(), types.StateQuery{
		Path: path,
		Data: data,
	})
	if err != nil {
		h.t.Fatalf("Query failed: %v", err)
	}
	return result
}

// Simulate dry-runs a transaction.
func (h *Harness) Simulate(tx types.Tx) types.TxOutcome {
	h.t.Helper()
	outcome, err := h.srv.Simulate(context.Background(), tx)
	if err != nil {
		h.t.Fatalf("Simulate failed: %v", err)
	}
	return outcome
}

// MustAcceptTx asserts that a transaction is accepted.
func (h *Harness) MustAcceptTx(tx types.Tx) {
	h.t.Helper()
	v := h.CheckTx(tx)
	if !v.Accepted() {
		h.t.Fatalf("expected tx accepted, got code=%d info=%q", v.Code, v.Info)
	}
}

// MustRejectTx asserts that a transaction is rejected.
func (h *Harness) MustRejectTx(tx types.Tx) {
	h.t.Helper()
	v := h.CheckTx(tx)
	if v.Accepted() {
		h.t.Fatal("expected tx rejected, got accepted")
	}
}

// --- Fixtures ---

// Endowment is the genesis balance of every fixture account.
const Endowment = 1_000_000

// ContractAccountByte fills the fixture contract account.
const ContractAccountByte = 0xC0

// AccountOfWidth returns a width-byte account filled with n.
func AccountOfWidth(width int, n byte) []byte {
	b := make([]byte, width)
	for i := range b {
		b[i] = n
	}
	return b
}

// Account returns a 32-byte account filled with n.
func Account(n byte) []byte { return AccountOfWidth(primitives.AccountIDLength, n) }

// GenesisState returns the fixture genesis state for accounts of the
// given width: the contract and accounts 1 through 4, each holding
// Endowment.
func GenesisState(width int) types.GenesisState {
	gs := types.GenesisState{ContractAccount: AccountOfWidth(width, ContractAccountByte)}
	for _, n := range []byte{ContractAccountByte, 1, 2, 3, 4} {
		gs.Accounts = append(gs.Accounts, types.GenesisAccount{
			Account: AccountOfWidth(width, n),
			Balance: Endowment,
		})
	}
	return gs
}

// GenesisWithState returns the fixture genesis document carrying gs.
func GenesisWithState(gs types.GenesisState) types.GenesisDoc {
	data, err := cramberry.Marshal(gs)
	if err != nil {
		panic(err)
	}
	return types.GenesisDoc{
		ChainID:       "test-chain",
		GenesisTime:   types.TimeToTimestamp(genesisTime),
		InitialHeight: 1,
		AppState:      data,
	}
}

// DefaultGenesis returns the fixture genesis for 32-byte accounts.
func DefaultGenesis() types.GenesisDoc {
	return GenesisWithState(GenesisState(primitives.AccountIDLength))
}

var genesisTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// MakeBlock creates a FinalizedBlock at the given height with the
// provided transactions. Blocks are five seconds apart.
func MakeBlock(height uint64, txs ...types.Tx) types.FinalizedBlock {
	t := genesisTime.Add(time.Duration(height) * 5 * time.Second)
	return types.FinalizedBlock{
		Height: height,
		Time:   types.TimeToTimestamp(t),
		Txs:    txs,
	}
}

// MakeEmptyBlock creates an empty FinalizedBlock at the given height.
func MakeEmptyBlock(height uint64) types.FinalizedBlock {
	return MakeBlock(height)
}
